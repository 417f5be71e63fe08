package listedit

import "github.com/kalambet/corkboard/internal/model"

// Labels edits a label's text. The target is carried over unchanged.
var Labels = Kind[model.Label]{
	Name: "labels",
	ID:   func(l model.Label) int64 { return l.ID },
	Text: func(l model.Label) string { return l.Text },
	WithText: func(l model.Label, text string) model.Label {
		l.Text = text
		return l
	},
}

// Posts edits a post's message.
var Posts = Kind[model.Post]{
	Name: "posts",
	ID:   func(p model.Post) int64 { return p.ID },
	Text: func(p model.Post) string { return p.Message },
	WithText: func(p model.Post, text string) model.Post {
		p.Message = text
		return p
	},
}
