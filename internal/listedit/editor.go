// Package listedit keeps a client-side mirror of one backend record collection
// and mediates create, inline edit and delete against it.
//
// The mirror only ever changes after the backend confirms an operation: there
// is no optimistic insert, update or removal, and no rollback. Failed operations
// are reported to the editor's logger and returned to the caller; the mirror
// and the edit session are left exactly as they were.
package listedit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrBusy is returned when an operation of the same kind is already in flight.
	ErrBusy = errors.New("operation already in flight")
	// ErrNotFound is returned when the target record is not in the collection.
	ErrNotFound = errors.New("record not in collection")
	// ErrNoSession is returned when no edit session is active for the record.
	ErrNoSession = errors.New("no active edit session")
)

// Backend is the REST resource an Editor synchronizes with.
type Backend[R any] interface {
	List(ctx context.Context) ([]R, error)
	Create(ctx context.Context, draft R) (R, error)
	Update(ctx context.Context, id int64, r R) (R, error)
	Delete(ctx context.Context, id int64) error
}

// Kind describes how an Editor reads and edits one record type.
type Kind[R any] struct {
	// Name is the collection name used in logs, e.g. "labels".
	Name string
	ID   func(R) int64
	// Text returns the field the edit session drafts.
	Text func(R) string
	// WithText returns a copy of r with the drafted field replaced.
	WithText func(r R, text string) R
}

// Session is the single inline edit in progress.
type Session struct {
	ID    int64
	Draft string
}

type op int

const (
	opLoad op = iota
	opCreate
	opCommit
	opDelete
	opCount
)

func (o op) String() string {
	switch o {
	case opLoad:
		return "load"
	case opCreate:
		return "create"
	case opCommit:
		return "commit"
	case opDelete:
		return "delete"
	}
	return "unknown"
}

// Editor mirrors one collection. It is safe for concurrent use; backend calls
// run outside the lock and their results are merged when they return.
type Editor[R any] struct {
	kind    Kind[R]
	backend Backend[R]
	logger  *slog.Logger

	mu      sync.Mutex
	items   []R
	session *Session
	busy    [opCount]bool
}

// New creates an Editor with an empty collection. A nil logger uses slog.Default().
func New[R any](kind Kind[R], backend Backend[R], logger *slog.Logger) *Editor[R] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor[R]{
		kind:    kind,
		backend: backend,
		logger:  logger.With("collection", kind.Name),
	}
}

// Kind returns the record kind the editor was built for.
func (e *Editor[R]) Kind() Kind[R] { return e.kind }

// Items returns a copy of the collection in order.
func (e *Editor[R]) Items() []R {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]R, len(e.items))
	copy(out, e.items)
	return out
}

// Session returns the active edit session, if any.
func (e *Editor[R]) Session() (Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return Session{}, false
	}
	return *e.session, true
}

// Busy reports whether any operation is in flight.
func (e *Editor[R]) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, b := range e.busy {
		if b {
			return true
		}
	}
	return false
}

// Load replaces the collection with the backend's.
func (e *Editor[R]) Load(ctx context.Context) error {
	if err := e.acquire(opLoad); err != nil {
		return err
	}
	defer e.release(opLoad)

	items, err := e.backend.List(ctx)
	if err != nil {
		return e.report(opLoad, 0, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = append([]R(nil), items...)
	if e.session != nil && e.indexOf(e.session.ID) < 0 {
		e.session = nil
	}
	e.logger.Debug("collection loaded", "count", len(e.items))
	return nil
}

// Create sends draft to the backend and appends the record it returns.
func (e *Editor[R]) Create(ctx context.Context, draft R) (R, error) {
	var zero R
	if err := e.acquire(opCreate); err != nil {
		return zero, err
	}
	defer e.release(opCreate)

	created, err := e.backend.Create(ctx, draft)
	if err != nil {
		return zero, e.report(opCreate, 0, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = append(e.items, created)
	e.logger.Debug("record created", "id", e.kind.ID(created))
	return created, nil
}

// BeginEdit starts editing the record with the given id, discarding any
// previous session and its draft.
func (e *Editor[R]) BeginEdit(id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.indexOf(id)
	if i < 0 {
		return fmt.Errorf("begin edit %s/%d: %w", e.kind.Name, id, ErrNotFound)
	}
	e.session = &Session{ID: id, Draft: e.kind.Text(e.items[i])}
	return nil
}

// SetDraft replaces the draft of the active session.
func (e *Editor[R]) SetDraft(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return ErrNoSession
	}
	e.session.Draft = text
	return nil
}

// CancelEdit drops the active session without contacting the backend.
func (e *Editor[R]) CancelEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = nil
}

// Commit sends the drafted record to the backend and, once confirmed,
// replaces it in place and ends the session.
func (e *Editor[R]) Commit(ctx context.Context, id int64) error {
	e.mu.Lock()
	i := e.indexOf(id)
	if i < 0 {
		e.mu.Unlock()
		return e.report(opCommit, id, ErrNotFound)
	}
	if e.session == nil || e.session.ID != id {
		e.mu.Unlock()
		return e.report(opCommit, id, ErrNoSession)
	}
	payload := e.kind.WithText(e.items[i], e.session.Draft)
	e.mu.Unlock()

	if err := e.acquire(opCommit); err != nil {
		return err
	}
	defer e.release(opCommit)

	updated, err := e.backend.Update(ctx, id, payload)
	if err != nil {
		return e.report(opCommit, id, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// The record may have been removed while the request was in flight.
	if j := e.indexOf(id); j >= 0 {
		e.items[j] = updated
	}
	if e.session != nil && e.session.ID == id {
		e.session = nil
	}
	e.logger.Debug("record updated", "id", id)
	return nil
}

// Delete removes the record from the backend and then from the collection.
func (e *Editor[R]) Delete(ctx context.Context, id int64) error {
	if err := e.acquire(opDelete); err != nil {
		return err
	}
	defer e.release(opDelete)

	if err := e.backend.Delete(ctx, id); err != nil {
		return e.report(opDelete, id, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	kept := e.items[:0:0]
	for _, r := range e.items {
		if e.kind.ID(r) != id {
			kept = append(kept, r)
		}
	}
	e.items = kept
	if e.session != nil && e.session.ID == id {
		e.session = nil
	}
	e.logger.Debug("record deleted", "id", id)
	return nil
}

func (e *Editor[R]) acquire(o op) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy[o] {
		e.logger.Warn("operation rejected", "op", o.String(), "error", ErrBusy)
		return fmt.Errorf("%s %s: %w", o, e.kind.Name, ErrBusy)
	}
	e.busy[o] = true
	return nil
}

func (e *Editor[R]) release(o op) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy[o] = false
}

func (e *Editor[R]) report(o op, id int64, err error) error {
	attrs := []any{"op", o.String(), "error", err}
	if id != 0 {
		attrs = append(attrs, "id", id)
	}
	e.logger.Error("operation failed", attrs...)
	if id != 0 {
		return fmt.Errorf("%s %s/%d: %w", o, e.kind.Name, id, err)
	}
	return fmt.Errorf("%s %s: %w", o, e.kind.Name, err)
}

// indexOf must be called with mu held.
func (e *Editor[R]) indexOf(id int64) int {
	for i, r := range e.items {
		if e.kind.ID(r) == id {
			return i
		}
	}
	return -1
}
