package templates

import (
	"strconv"

	"github.com/a-h/templ"
)

// Field is one block of a form page.
type Field interface {
	renderField(h *html)
}

// FieldError links the error summary to a field.
type FieldError struct {
	Field string
	Key   string
}

// FormView feeds a single-question form page.
type FormView struct {
	Caption    string
	HeadingKey string
	Heading    string
	Action     string
	Errors     []FieldError
	Fields     []Field
	SubmitKey  string
	BackURL    string
}

// Form renders a form page with an error summary when needed.
func Form(v FormView) templ.Component {
	return component(func(h *html) {
		if v.BackURL != "" {
			h.link(v.BackURL, T(h.ctx, "form.back"), "class", "back")
		}
		if len(v.Errors) > 0 {
			h.raw(`<div class="error-summary" role="alert" aria-labelledby="error-summary-title">`)
			h.el("h2", T(h.ctx, "form.error_summary"), "id", "error-summary-title")
			h.raw("<ul>")
			for _, fe := range v.Errors {
				h.raw("<li>")
				h.link("#"+fe.Field, T(h.ctx, fe.Key))
				h.raw("</li>")
			}
			h.raw("</ul></div>")
		}
		h.open("form", "method", "post", "action", v.Action, "novalidate", "novalidate")
		if v.Caption != "" {
			h.el("p", v.Caption, "class", "caption")
		}
		heading := v.Heading
		if v.HeadingKey != "" {
			heading = T(h.ctx, v.HeadingKey)
		}
		if heading != "" {
			h.el("h1", heading)
		}
		for _, field := range v.Fields {
			field.renderField(h)
		}
		submit := v.SubmitKey
		if submit == "" {
			submit = "form.save_and_continue"
		}
		h.open("button", "type", "submit")
		h.t(submit)
		h.close("button")
		h.close("form")
	})
}

func fieldError(h *html, name, key string) {
	if key == "" {
		return
	}
	h.open("div", "class", "error-message", "id", name+"-error")
	h.el("span", T(h.ctx, "form.error_prefix"), "class", "visually-hidden")
	h.raw(" ")
	h.t(key)
	h.close("div")
}

// Radios is a single-choice question.
type Radios struct {
	Name      string
	LegendKey string
	HintKey   string
	Options   []Option
	Error     string
}

func (f Radios) renderField(h *html) {
	h.open("fieldset", "role", "group", "aria-invalid", boolAttr(f.Error != "", "true"))
	if f.LegendKey != "" {
		h.raw("<legend>")
		h.t(f.LegendKey)
		h.raw("</legend>")
	}
	if f.HintKey != "" {
		h.el("p", T(h.ctx, f.HintKey), "class", "hint")
	}
	fieldError(h, f.Name, f.Error)
	h.open("ol", "class", "radios")
	for i, option := range f.Options {
		id := f.Name
		if i > 0 {
			id = f.Name + "-" + strconv.Itoa(i)
		}
		h.raw("<li><label>")
		h.open("input", "type", "radio", "name", f.Name, "id", id, "value", option.Value, "checked", boolAttr(option.Selected, "checked"))
		h.open("span")
		h.text(option.label(h))
		h.close("span")
		h.raw("</label></li>")
	}
	h.close("ol")
	h.close("fieldset")
}

// TextInput is a one-line text question.
type TextInput struct {
	Name         string
	Type         string
	LabelKey     string
	HintKey      string
	Value        string
	Autocomplete string
	Error        string
}

func (f TextInput) renderField(h *html) {
	kind := f.Type
	if kind == "" {
		kind = "text"
	}
	h.open("label", "for", f.Name)
	h.t(f.LabelKey)
	h.close("label")
	if f.HintKey != "" {
		h.el("p", T(h.ctx, f.HintKey), "class", "hint", "id", f.Name+"-hint")
	}
	fieldError(h, f.Name, f.Error)
	h.open("input", "type", kind, "id", f.Name, "name", f.Name, "value", f.Value,
		"autocomplete", f.Autocomplete, "aria-invalid", boolAttr(f.Error != "", "true"))
}

// TextArea is a free-text question.
type TextArea struct {
	Name     string
	LabelKey string
	HintKey  string
	Value    string
	Rows     int
	Error    string
}

func (f TextArea) renderField(h *html) {
	rows := f.Rows
	if rows == 0 {
		rows = 5
	}
	h.open("label", "for", f.Name)
	h.t(f.LabelKey)
	h.close("label")
	if f.HintKey != "" {
		h.el("p", T(h.ctx, f.HintKey), "class", "hint")
	}
	fieldError(h, f.Name, f.Error)
	h.open("textarea", "id", f.Name, "name", f.Name, "rows", strconv.Itoa(rows), "aria-invalid", boolAttr(f.Error != "", "true"))
	h.text(f.Value)
	h.close("textarea")
}

// Checkbox is a single yes/no confirmation.
type Checkbox struct {
	Name     string
	Value    string
	LabelKey string
	Checked  bool
	Error    string
}

func (f Checkbox) renderField(h *html) {
	fieldError(h, f.Name, f.Error)
	h.raw("<label>")
	h.open("input", "type", "checkbox", "id", f.Name, "name", f.Name, "value", f.Value, "checked", boolAttr(f.Checked, "checked"))
	h.open("span")
	h.t(f.LabelKey)
	h.close("span")
	h.raw("</label>")
}

// Paragraph is static explanatory text.
type Paragraph struct {
	Key  string
	Args []any
}

func (f Paragraph) renderField(h *html) {
	h.el("p", T(h.ctx, f.Key, f.Args...))
}

// Hidden carries a value through a form post.
type Hidden struct {
	Name  string
	Value string
}

func (f Hidden) renderField(h *html) {
	h.open("input", "type", "hidden", "name", f.Name, "value", f.Value)
}

// SummaryRow is one reviewed answer with a change link.
type SummaryRow struct {
	LabelKey  string
	Value     string
	ValueHTML string
	ChangeURL string
}

// SummaryList shows answers before publishing.
type SummaryList struct {
	Rows []SummaryRow
}

func (f SummaryList) renderField(h *html) {
	h.raw(`<dl class="summary">`)
	for _, row := range f.Rows {
		h.raw("<div>")
		h.elT("dt", row.LabelKey)
		h.raw("<dd>")
		if row.ValueHTML != "" {
			h.raw(row.ValueHTML)
		} else {
			h.text(row.Value)
		}
		h.raw("</dd>")
		if row.ChangeURL != "" {
			h.raw("<dd>")
			h.link(row.ChangeURL, T(h.ctx, "form.change"))
			h.raw("</dd>")
		}
		h.raw("</div>")
	}
	h.raw("</dl>")
}

// LinkButton is a call to action on a message page.
type LinkButton struct {
	URL      string
	LabelKey string
}

// MessageView feeds an informational page.
type MessageView struct {
	Panel      bool
	HeadingKey string
	Heading    string
	Paragraphs []Paragraph
	Detail     string
	Links      []LinkButton
}

// Message renders an informational page such as a confirmation.
func Message(v MessageView) templ.Component {
	return component(func(h *html) {
		if v.Panel {
			h.raw(`<div class="panel">`)
		}
		heading := v.Heading
		if v.HeadingKey != "" {
			heading = T(h.ctx, v.HeadingKey)
		}
		h.el("h1", heading)
		if v.Detail != "" {
			h.el("p", v.Detail, "class", "detail")
		}
		if v.Panel {
			h.raw("</div>")
		}
		for _, p := range v.Paragraphs {
			p.renderField(h)
		}
		for _, link := range v.Links {
			h.link(link.URL, T(h.ctx, link.LabelKey), "class", "button")
		}
	})
}
