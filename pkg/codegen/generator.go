// Package codegen renders the javascript bundle that declares the callable
// stubs and configures the client runtime.
package codegen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/morezero/jaxon/pkg/options"
	"github.com/morezero/jaxon/pkg/plugin"
	"github.com/morezero/jaxon/pkg/version"
)

const logPrefix = "codegen:generator"

var configTemplate = template.Must(template.New("config").Parse(
	`jaxon.config.requestURI = "{{js .URI}}";
jaxon.config.defaultMode = "{{js .Mode}}";
jaxon.config.version = "{{js .Version}}";
jaxon.config.language = "{{js .Language}}";
{{- if .Debug}}
jaxon.config.debug = true;
{{- end}}`))

var readyTemplate = template.Must(template.New("ready").Parse(
	`jaxon.dom.ready(function() {
{{.}}
});`))

// NewGeneratorParams holds the collaborators of a Generator.
type NewGeneratorParams struct {
	Plugins *plugin.Manager
	Options *options.Options
}

// Generator concatenates the fragments of every code generator plugin in
// ascending priority order.
type Generator struct {
	plugins *plugin.Manager
	opts    *options.Options
}

// NewGenerator creates a Generator.
func NewGenerator(p NewGeneratorParams) *Generator {
	opts := p.Options
	if opts == nil {
		opts = options.Default()
	}
	return &Generator{plugins: p.Plugins, opts: opts}
}

func (g *Generator) generators() []plugin.CodeGenerator {
	// Rendering reads the registries, which must not change afterwards.
	g.plugins.Seal()
	recs := g.plugins.CodeGenerators()
	out := make([]plugin.CodeGenerator, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Plugin.(plugin.CodeGenerator))
	}
	return out
}

func collect(gens []plugin.CodeGenerator, part func(plugin.CodeGenerator) string) []string {
	var out []string
	for _, gen := range gens {
		if s := strings.TrimSpace(part(gen)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func join(parts []string) string {
	return strings.Join(parts, "\n\n")
}

// Css returns the css fragments.
func (g *Generator) Css() string {
	return join(collect(g.generators(), plugin.CodeGenerator.Css))
}

// Js returns the javascript fragments, usually script includes.
func (g *Generator) Js() string {
	return join(collect(g.generators(), plugin.CodeGenerator.Js))
}

// Config returns the client configuration script.
func (g *Generator) Config() string {
	var b strings.Builder
	err := configTemplate.Execute(&b, map[string]interface{}{
		"URI":      g.opts.String("core.request.uri", "/jaxon"),
		"Mode":     g.opts.String("core.request.mode", "asynchronous"),
		"Version":  version.Label(g.plugins.CoreVersion()),
		"Language": g.opts.String("core.language", "en"),
		"Debug":    g.opts.Bool("core.debug.on", false),
	})
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to render config: %v", logPrefix, err))
		return ""
	}
	return b.String()
}

// Script returns the configuration, every inline script and the ready
// scripts wrapped in a single ready handler.
func (g *Generator) Script() string {
	gens := g.generators()
	parts := append([]string{g.Config()}, collect(gens, plugin.CodeGenerator.Script)...)

	if ready := collect(gens, plugin.CodeGenerator.ReadyScript); len(ready) > 0 {
		var b strings.Builder
		if err := readyTemplate.Execute(&b, join(ready)); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to render ready script: %v", logPrefix, err))
		} else {
			parts = append(parts, b.String())
		}
	}
	return join(parts)
}

// Bundle returns the css, javascript and script sections separated by a
// blank line.
func (g *Generator) Bundle() string {
	var parts []string
	for _, s := range []string{g.Css(), g.Js(), g.Script()} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	out := join(parts)
	slog.Debug(fmt.Sprintf("%s - rendered bundle of %d bytes", logPrefix, len(out)))
	return out
}

// Hash returns a hex digest of the bundle, usable as a cache key.
func (g *Generator) Hash() string {
	sum := sha256.Sum256([]byte(g.Bundle()))
	return hex.EncodeToString(sum[:])
}
