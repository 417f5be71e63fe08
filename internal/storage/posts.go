package storage

import (
	"database/sql"
	"fmt"

	"github.com/kalambet/corkboard/internal/model"
)

// --- Posts ---

// ListPosts returns posts in insertion order. A limit of zero or less returns every row.
func (s *Store) ListPosts(limit int) ([]model.Post, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.Query(`SELECT id, message FROM posts ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.Message); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func (s *Store) GetPost(id int64) (model.Post, error) {
	var p model.Post
	err := s.db.QueryRow(`SELECT id, message FROM posts WHERE id = ?`, id).Scan(&p.ID, &p.Message)
	if err == sql.ErrNoRows {
		return model.Post{}, ErrNotFound
	}
	if err != nil {
		return model.Post{}, err
	}
	return p, nil
}

// CreatePost inserts p, ignoring any ID it carries, and returns the stored row.
func (s *Store) CreatePost(p model.Post) (model.Post, error) {
	ts := now()
	res, err := s.db.Exec(`INSERT INTO posts (message, created_at, updated_at) VALUES (?, ?, ?)`, p.Message, ts, ts)
	if err != nil {
		return model.Post{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Post{}, fmt.Errorf("reading post id: %w", err)
	}
	p.ID = id
	return p, nil
}

// UpdatePost applies the non-nil fields of patch and returns the updated row.
func (s *Store) UpdatePost(id int64, patch model.PostPatch) (model.Post, error) {
	p, err := s.GetPost(id)
	if err != nil {
		return model.Post{}, err
	}
	if patch.Message == nil {
		return p, nil
	}
	p.Message = *patch.Message

	res, err := s.db.Exec(`UPDATE posts SET message = ?, updated_at = ? WHERE id = ?`, p.Message, now(), id)
	if err != nil {
		return model.Post{}, err
	}
	if err := affectedOne(res); err != nil {
		return model.Post{}, err
	}
	return p, nil
}

func (s *Store) DeletePost(id int64) error {
	res, err := s.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
