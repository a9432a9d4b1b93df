package response

// Core DOM commands understood by the client runtime.

// Assign sets a property of an element.
func (r *Response) Assign(target, property string, value interface{}) *Response {
	return r.AddNamedCommand("node.assign", []Attr{{"id", target}, {"prop", property}}, value, false)
}

// Append appends to a property of an element.
func (r *Response) Append(target, property string, value interface{}) *Response {
	return r.AddNamedCommand("node.append", []Attr{{"id", target}, {"prop", property}}, value, false)
}

// Prepend prepends to a property of an element.
func (r *Response) Prepend(target, property string, value interface{}) *Response {
	return r.AddNamedCommand("node.prepend", []Attr{{"id", target}, {"prop", property}}, value, false)
}

// Replace replaces search with replace in a property of an element.
func (r *Response) Replace(target, property, search, replace string) *Response {
	data := map[string]interface{}{"s": search, "r": replace}
	return r.AddNamedCommand("node.replace", []Attr{{"id", target}, {"prop", property}}, data, false)
}

// ClearProperty empties a property of an element.
func (r *Response) ClearProperty(target, property string) *Response {
	return r.Assign(target, property, "")
}

// Remove deletes an element from the page.
func (r *Response) Remove(target string) *Response {
	return r.AddNamedCommand("node.remove", []Attr{{"id", target}}, "", false)
}

// Create adds a child element to parent.
func (r *Response) Create(parent, tag, id string) *Response {
	return r.AddNamedCommand("node.create", []Attr{{"id", parent}, {"prop", id}}, tag, false)
}

// Insert adds an element before target.
func (r *Response) Insert(target, tag, id string) *Response {
	return r.InsertBefore(target, tag, id)
}

// InsertBefore adds an element before target.
func (r *Response) InsertBefore(target, tag, id string) *Response {
	return r.AddNamedCommand("node.insert.before", []Attr{{"id", target}, {"prop", id}}, tag, false)
}

// InsertAfter adds an element after target.
func (r *Response) InsertAfter(target, tag, id string) *Response {
	return r.AddNamedCommand("node.insert.after", []Attr{{"id", target}, {"prop", id}}, tag, false)
}

// Script runs a javascript snippet.
func (r *Response) Script(js string) *Response {
	return r.AddNamedCommand("script.exec", nil, js, false)
}

// Call calls a javascript function with the given arguments.
func (r *Response) Call(function string, args ...interface{}) *Response {
	if args == nil {
		args = []interface{}{}
	}
	return r.AddCommand([]Attr{{AttrCommand, "script.call"}, {"func", function}}, args)
}

// Alert shows a message box.
func (r *Response) Alert(message string) *Response {
	return r.AddNamedCommand("dialog.alert", nil, message, false)
}

// Confirm asks question and skips the next count commands when the user
// declines.
func (r *Response) Confirm(count int, question string) *Response {
	return r.AddNamedCommand("dialog.confirm", []Attr{{"count", count}}, question, false)
}

// ConfirmCommands asks question before the commands added by build.
func (r *Response) ConfirmCommands(question string, build func(*Response)) *Response {
	inner := r.Derive()
	build(inner)
	if inner.Len() == 0 {
		return r
	}
	r.Confirm(inner.Len(), question)
	r.commands = append(r.commands, inner.commands...)
	return r
}

// Redirect sends the browser to url, after delay seconds when delay > 0.
func (r *Response) Redirect(url string, delay int) *Response {
	var attrs []Attr
	if delay > 0 {
		attrs = []Attr{{"delay", delay}}
	}
	return r.AddNamedCommand("script.redirect", attrs, url, true)
}

// Sleep pauses the command queue for tenths of a second.
func (r *Response) Sleep(tenths int) *Response {
	return r.AddNamedCommand("script.sleep", []Attr{{"prop", tenths}}, "", false)
}

// SetEvent sets the handler script of an element event.
func (r *Response) SetEvent(target, event, script string) *Response {
	return r.AddNamedCommand("event.set", []Attr{{"id", target}, {"prop", event}}, script, false)
}

// AddHandler attaches a named javascript function to an element event.
func (r *Response) AddHandler(target, event, handler string) *Response {
	return r.AddNamedCommand("handler.add", []Attr{{"id", target}, {"prop", event}}, handler, false)
}

// RemoveHandler detaches a named javascript function from an element event.
func (r *Response) RemoveHandler(target, event, handler string) *Response {
	return r.AddNamedCommand("handler.remove", []Attr{{"id", target}, {"prop", event}}, handler, false)
}

// SetFunction defines a javascript function on the page.
func (r *Response) SetFunction(name, args, script string) *Response {
	return r.AddNamedCommand("func.set", []Attr{{"func", name}, {"prop", args}}, script, false)
}

// IncludeScript loads a script file.
func (r *Response) IncludeScript(file, scriptType, id string) *Response {
	return r.AddNamedCommand("script.include", []Attr{{"type", scriptType}, {"elm_id", id}}, file, true)
}

// IncludeScriptOnce loads a script file unless it is already present.
func (r *Response) IncludeScriptOnce(file, scriptType, id string) *Response {
	return r.AddNamedCommand("script.include.once", []Attr{{"type", scriptType}, {"elm_id", id}}, file, true)
}

// RemoveScript unloads a script file, running unload first when set.
func (r *Response) RemoveScript(file, unload string) *Response {
	return r.AddNamedCommand("script.remove", []Attr{{"unld", unload}}, file, true)
}

// IncludeCSS loads a stylesheet.
func (r *Response) IncludeCSS(file, media string) *Response {
	return r.AddNamedCommand("css.include", []Attr{{"media", media}}, file, true)
}

// RemoveCSS unloads a stylesheet.
func (r *Response) RemoveCSS(file, media string) *Response {
	return r.AddNamedCommand("css.remove", []Attr{{"media", media}}, file, true)
}

// WaitForCSS holds the command queue until pending stylesheets load.
func (r *Response) WaitForCSS(timeout int) *Response {
	return r.AddNamedCommand("css.wait", []Attr{{"prop", timeout}}, "", false)
}

// Debug writes a message to the client debug console.
func (r *Response) Debug(message string) *Response {
	return r.AddNamedCommand("debug", nil, message, false)
}
