package tui

import (
	"fmt"

	"github.com/kalambet/corkboard/internal/model"
)

// Field is one input of the create form.
type Field struct {
	Name        string
	Placeholder string
}

// View describes how one record kind is listed and created.
type View[R any] struct {
	Title  string
	Fields []Field
	// Build turns the create form's values, in Fields order, into a draft.
	Build func(values []string) R
	// Line renders a record's body for the list, without its id.
	Line func(R) string
}

// LabelView lists labels as "text -> target".
var LabelView = View[model.Label]{
	Title: "Labels",
	Fields: []Field{
		{Name: "text", Placeholder: "Hello!"},
		{Name: "target", Placeholder: "what it points at"},
	},
	Build: func(v []string) model.Label { return model.Label{Text: v[0], Target: v[1]} },
	Line:  func(l model.Label) string { return fmt.Sprintf("%s -> %s", l.Text, l.Target) },
}

// PostView lists posts by message.
var PostView = View[model.Post]{
	Title:  "Posts",
	Fields: []Field{{Name: "message", Placeholder: "say something"}},
	Build:  func(v []string) model.Post { return model.Post{Message: v[0]} },
	Line:   func(p model.Post) string { return p.Message },
}
