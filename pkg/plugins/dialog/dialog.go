// Package dialog shows messages, modal dialogs and confirmation questions.
// The generated script falls back to the browser's alert and confirm.
package dialog

import (
	"fmt"
	"log/slog"

	"github.com/morezero/jaxon/pkg/response"
)

const logPrefix = "dialog:plugin"

// PluginName is the name of the response plugin.
const PluginName = "dialog"

// Priority is the code generation priority of the plugin.
const Priority = 720

// Message types.
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeError   = "error"
)

// Producer creates the dialog plugin of each response.
type Producer struct{}

// NewProducer creates a Producer.
func NewProducer() *Producer { return &Producer{} }

// Name returns the plugin name.
func (p *Producer) Name() string { return PluginName }

// NewResponsePlugin implements plugin.ResponseProducer.
func (p *Producer) NewResponsePlugin(r *response.Response) response.Plugin {
	return &Plugin{resp: r}
}

func (p *Producer) Js() string          { return "" }
func (p *Producer) Css() string         { return "" }
func (p *Producer) ReadyScript() string { return "" }

// Script registers the default client handlers.
func (p *Producer) Script() string {
	return `jaxon.register("dialog.message", function(args) {
    window.alert((args.data.title ? args.data.title + "\n\n" : "") + args.data.message);
    return true;
});
jaxon.register("dialog.show", function(args) {
    window.alert((args.data.title ? args.data.title + "\n\n" : "") + args.data.content);
    return true;
});
jaxon.register("dialog.hide", function() { return true; });
jaxon.register("dialog.ask", function(args) {
    if (!window.confirm(args.data.question)) {
        jaxon.cmd.skip(args.count);
    }
    return true;
});`
}

// Button is a button of a modal dialog. Click is a javascript expression.
type Button struct {
	Title string `json:"title"`
	Class string `json:"class,omitempty"`
	Click string `json:"click,omitempty"`
}

// Plugin is the dialog plugin of one response.
type Plugin struct {
	resp *response.Response
}

// Name returns the plugin name.
func (p *Plugin) Name() string { return PluginName }

// From returns the dialog plugin of r, or nil when it is not registered.
func From(r *response.Response) *Plugin {
	p, _ := r.Plugin(PluginName).(*Plugin)
	return p
}

func (p *Plugin) message(kind, message, title string) *Plugin {
	data := map[string]interface{}{"type": kind, "message": message}
	if title != "" {
		data["title"] = title
	}
	p.resp.AddPluginCommand(p, "dialog.message", nil, data)
	return p
}

func (p *Plugin) Info(message, title string) *Plugin    { return p.message(TypeInfo, message, title) }
func (p *Plugin) Success(message, title string) *Plugin { return p.message(TypeSuccess, message, title) }
func (p *Plugin) Warning(message, title string) *Plugin { return p.message(TypeWarning, message, title) }
func (p *Plugin) Error(message, title string) *Plugin   { return p.message(TypeError, message, title) }

// Show opens a modal dialog.
func (p *Plugin) Show(title, content string, buttons []Button) *Plugin {
	if buttons == nil {
		buttons = []Button{}
	}
	p.resp.AddPluginCommand(p, "dialog.show", nil, map[string]interface{}{
		"title":   title,
		"content": content,
		"buttons": buttons,
	})
	return p
}

// Hide closes the modal dialog.
func (p *Plugin) Hide() *Plugin {
	p.resp.AddPluginCommand(p, "dialog.hide", nil, map[string]interface{}{})
	return p
}

// Confirm asks question before the commands added by build, which the
// client skips when the user declines.
func (p *Plugin) Confirm(question string, build func(*response.Response)) *Plugin {
	inner := p.resp.Derive()
	build(inner)
	if inner.Len() == 0 {
		return p
	}
	p.resp.AddPluginCommand(p, "dialog.ask", []response.Attr{{Key: "count", Value: inner.Len()}},
		map[string]interface{}{"question": question})
	if err := p.resp.AppendResponse(inner.Commands(), false); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to merge confirmed commands: %v", logPrefix, err))
	}
	return p
}
