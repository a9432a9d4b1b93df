// Package demo holds the callables exposed by the demo page of the server.
package demo

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/morezero/jaxon/pkg/callable"
	"github.com/morezero/jaxon/pkg/jaxon"
	"github.com/morezero/jaxon/pkg/plugins/databag"
	"github.com/morezero/jaxon/pkg/plugins/dialog"
	"github.com/morezero/jaxon/pkg/plugins/jquery"
	"github.com/morezero/jaxon/pkg/response"
	"github.com/morezero/jaxon/pkg/upload"
)

// Namespace prefixes the demo classes.
const Namespace = "Demo"

// Register exposes the demo callables on app.
func Register(app *jaxon.App) error {
	if err := app.RegisterFunction("sayHello", SayHello, callable.Options{"mode": "asynchronous"}); err != nil {
		return err
	}
	opts := callable.Options{callable.OptNamespace: Namespace}
	if err := app.RegisterClass("", func() interface{} { return &Cart{} }, opts); err != nil {
		return err
	}
	return app.RegisterClass("", &Files{}, opts)
}

// SayHello greets its first argument and returns the greeting length.
func SayHello(_ context.Context, call *callable.Call) error {
	name := strings.TrimSpace(call.Args.String(0))
	if name == "" {
		name = "world"
	}
	msg := fmt.Sprintf("Hello, %s!", name)
	call.Response.Assign("greeting", "innerHTML", html.EscapeString(msg))
	call.Response.SetReturnValue(len(msg))
	return nil
}

// Cart keeps its items in the "cart" data bag of the browser.
type Cart struct {
	bag *databag.Bag
}

// InitCall binds the cart to the bag of the current request.
func (c *Cart) InitCall(call *callable.Call) {
	c.bag = databag.From(call.Response).Bag("cart")
}

func (c *Cart) items() []string {
	raw, _ := c.bag.Get("items", nil).([]interface{})
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (c *Cart) render(call *callable.Call, items []string) {
	list := make([]interface{}, len(items))
	var b strings.Builder
	for i, it := range items {
		list[i] = it
		b.WriteString("<li>" + html.EscapeString(it) + "</li>")
	}
	c.bag.Set("items", list)
	jquery.From(call.Response).Select("#cart", "").Html(b.String())
	call.Response.SetReturnValue(len(items))
}

// Add puts its first argument in the cart.
func (c *Cart) Add(_ context.Context, call *callable.Call) error {
	item := strings.TrimSpace(call.Args.String(0))
	if item == "" {
		dialog.From(call.Response).Warning("Nothing to add.", "Cart")
		return nil
	}
	items := append(c.items(), item)
	sort.Strings(items)
	c.render(call, items)
	dialog.From(call.Response).Success(fmt.Sprintf("%s added.", item), "Cart")
	return nil
}

// Empty clears the cart once the user confirms.
func (c *Cart) Empty(_ context.Context, call *callable.Call) error {
	dialog.From(call.Response).Confirm("Empty the cart?", func(r *response.Response) {
		r.Assign("cart", "innerHTML", "")
		r.Script("jaxon.bags.cart = { items: [] };")
	})
	return nil
}

// Files lists the files uploaded with a call, or through an upload token.
type Files struct{}

// List renders the uploaded files.
func (f *Files) List(_ context.Context, call *callable.Call) error {
	files := upload.FilesFrom(call.Request)
	fields := make([]string, 0, len(files))
	for field := range files {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	count := 0
	for _, field := range fields {
		for _, file := range files[field] {
			count++
			fmt.Fprintf(&b, "<li>%s: %s (%d bytes, stored as %s)</li>",
				html.EscapeString(field), html.EscapeString(file.Filename), file.Size, html.EscapeString(file.Path))
		}
	}
	if count == 0 {
		dialog.From(call.Response).Info("No file received.", "Upload")
	}
	call.Response.Assign("files", "innerHTML", b.String())
	call.Response.SetReturnValue(count)
	return nil
}
