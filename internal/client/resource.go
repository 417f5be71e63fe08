package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kalambet/corkboard/internal/model"
)

// Resource is a typed view of one backend collection, e.g. /api/labels.
// It satisfies listedit.Backend.
type Resource[R any] struct {
	c    *Client
	name string
	path string
}

// Labels returns the labels resource.
func Labels(c *Client) *Resource[model.Label] {
	return &Resource[model.Label]{c: c, name: "labels", path: "/api/labels"}
}

// Posts returns the posts resource.
func Posts(c *Client) *Resource[model.Post] {
	return &Resource[model.Post]{c: c, name: "posts", path: "/api/posts"}
}

// List fetches the collection and unwraps its {"<name>": [...]} envelope.
func (r *Resource[R]) List(ctx context.Context) ([]R, error) {
	var env map[string]json.RawMessage
	if err := r.c.do(ctx, "GET", r.path, nil, &env); err != nil {
		return nil, err
	}
	raw, ok := env[r.name]
	if !ok {
		return nil, fmt.Errorf("GET %s: response has no %q field", r.path, r.name)
	}
	var items []R
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("GET %s: decoding %s: %w", r.path, r.name, err)
	}
	if items == nil {
		items = []R{}
	}
	return items, nil
}

// Get fetches one record.
func (r *Resource[R]) Get(ctx context.Context, id int64) (R, error) {
	var out R
	err := r.c.do(ctx, "GET", r.item(id), nil, &out)
	return out, err
}

// Create posts a draft and returns the stored record with its assigned id.
func (r *Resource[R]) Create(ctx context.Context, draft R) (R, error) {
	var out R
	err := r.c.do(ctx, "POST", r.path, draft, &out)
	return out, err
}

// Update sends rec with PUT and returns the record as the backend stored it.
func (r *Resource[R]) Update(ctx context.Context, id int64, rec R) (R, error) {
	var out R
	err := r.c.do(ctx, "PUT", r.item(id), rec, &out)
	return out, err
}

// Delete removes one record.
func (r *Resource[R]) Delete(ctx context.Context, id int64) error {
	return r.c.do(ctx, "DELETE", r.item(id), nil, nil)
}

func (r *Resource[R]) item(id int64) string {
	return fmt.Sprintf("%s/%d", r.path, id)
}
