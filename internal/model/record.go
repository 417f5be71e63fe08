// Package model holds the record types shared by the backend, the REST client
// and the list editors.
package model

// Label is a short text pinned to a target.
type Label struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Target string `json:"target"`
}

// Post is a free-form message.
type Post struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// LabelsResponse is the envelope returned by GET /api/labels.
type LabelsResponse struct {
	Labels []Label `json:"labels"`
}

// PostsResponse is the envelope returned by GET /api/posts.
type PostsResponse struct {
	Posts []Post `json:"posts"`
}

// LabelPatch carries the fields of a label update. Nil fields are left untouched.
type LabelPatch struct {
	Text   *string `json:"text,omitempty"`
	Target *string `json:"target,omitempty"`
}

// PostPatch carries the fields of a post update. Nil fields are left untouched.
type PostPatch struct {
	Message *string `json:"message,omitempty"`
}
