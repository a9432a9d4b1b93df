package dialog

import (
	"testing"

	"github.com/morezero/jaxon/pkg/response"
)

type resolver struct{}

func (resolver) ResolveResponsePlugin(name string, r *response.Response) (response.Plugin, bool) {
	if name != PluginName {
		return nil, false
	}
	return NewProducer().NewResponsePlugin(r), true
}

func TestPlugin_Messages(t *testing.T) {
	resp := response.New(response.Params{Plugins: resolver{}})
	From(resp).Info("saved", "").Error("failed", "Oops")

	cmds := resp.Commands()
	if len(cmds) != 2 {
		t.Fatalf("dialog:dialog_test - %d commands", len(cmds))
	}
	first := cmds[0].Data().(map[string]interface{})
	if cmds[0].Name() != "dialog.message" || cmds[0].Plugin() != PluginName || first["type"] != TypeInfo {
		t.Errorf("dialog:dialog_test - first = %v", cmds[0])
	}
	if _, ok := first["title"]; ok {
		t.Errorf("dialog:dialog_test - empty title emitted")
	}
	second := cmds[1].Data().(map[string]interface{})
	if second["type"] != TypeError || second["title"] != "Oops" {
		t.Errorf("dialog:dialog_test - second = %v", second)
	}
}

func TestPlugin_ShowHide(t *testing.T) {
	resp := response.New(response.Params{Plugins: resolver{}})
	From(resp).Show("Title", "<p>body</p>", []Button{{Title: "Close", Click: "close"}}).Hide()

	cmds := resp.Commands()
	if len(cmds) != 2 || cmds[0].Name() != "dialog.show" || cmds[1].Name() != "dialog.hide" {
		t.Fatalf("dialog:dialog_test - commands = %v", cmds)
	}
	if buttons := cmds[0].Data().(map[string]interface{})["buttons"].([]Button); len(buttons) != 1 {
		t.Errorf("dialog:dialog_test - buttons = %v", buttons)
	}
}

func TestPlugin_Confirm(t *testing.T) {
	resp := response.New(response.Params{Plugins: resolver{}})
	resp.Alert("before")
	From(resp).Confirm("Delete?", func(r *response.Response) {
		r.Remove("row-1")
		r.Remove("row-2")
	})

	cmds := resp.Commands()
	if len(cmds) != 4 {
		t.Fatalf("dialog:dialog_test - %d commands, want 4", len(cmds))
	}
	ask := cmds[1]
	count, _ := ask.Attr("count")
	if ask.Name() != "dialog.ask" || count != 2 {
		t.Errorf("dialog:dialog_test - ask = %s count=%v", ask.Name(), count)
	}
	if cmds[2].Name() != "node.remove" || cmds[3].Name() != "node.remove" {
		t.Errorf("dialog:dialog_test - confirmed commands = %s, %s", cmds[2].Name(), cmds[3].Name())
	}

	empty := response.New(response.Params{Plugins: resolver{}})
	From(empty).Confirm("Nothing?", func(*response.Response) {})
	if empty.Len() != 0 {
		t.Errorf("dialog:dialog_test - empty confirm emitted %d commands", empty.Len())
	}
}
