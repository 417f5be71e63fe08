package storage

import (
	"database/sql"
	"fmt"

	"github.com/kalambet/corkboard/internal/model"
)

// --- Labels ---

// ListLabels returns labels in insertion order. A limit of zero or less returns every row.
func (s *Store) ListLabels(limit int) ([]model.Label, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.Query(`SELECT id, text, target FROM labels ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.Label
	for rows.Next() {
		var l model.Label
		if err := rows.Scan(&l.ID, &l.Text, &l.Target); err != nil {
			return nil, err
		}
		results = append(results, l)
	}
	return results, rows.Err()
}

func (s *Store) GetLabel(id int64) (model.Label, error) {
	var l model.Label
	err := s.db.QueryRow(`SELECT id, text, target FROM labels WHERE id = ?`, id).Scan(&l.ID, &l.Text, &l.Target)
	if err == sql.ErrNoRows {
		return model.Label{}, ErrNotFound
	}
	if err != nil {
		return model.Label{}, err
	}
	return l, nil
}

// CreateLabel inserts l, ignoring any ID it carries, and returns the stored row.
func (s *Store) CreateLabel(l model.Label) (model.Label, error) {
	ts := now()
	res, err := s.db.Exec(`INSERT INTO labels (text, target, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		l.Text, l.Target, ts, ts)
	if err != nil {
		return model.Label{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Label{}, fmt.Errorf("reading label id: %w", err)
	}
	l.ID = id
	return l, nil
}

// UpdateLabel applies the non-nil fields of p and returns the updated row.
func (s *Store) UpdateLabel(id int64, p model.LabelPatch) (model.Label, error) {
	l, err := s.GetLabel(id)
	if err != nil {
		return model.Label{}, err
	}
	if p.Text != nil {
		l.Text = *p.Text
	}
	if p.Target != nil {
		l.Target = *p.Target
	}

	res, err := s.db.Exec(`UPDATE labels SET text = ?, target = ?, updated_at = ? WHERE id = ?`,
		l.Text, l.Target, now(), id)
	if err != nil {
		return model.Label{}, err
	}
	if err := affectedOne(res); err != nil {
		return model.Label{}, err
	}
	return l, nil
}

func (s *Store) DeleteLabel(id int64) error {
	res, err := s.db.Exec(`DELETE FROM labels WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}
