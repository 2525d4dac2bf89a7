// Package controller owns the in-memory comment list and applies
// create/update/delete optimistically, rolling back when the server refuses.
//
// A List is not safe for concurrent use. Operations and Apply must run on the
// goroutine that owns it (Bubble Tea's Update loop, or a CLI command). The
// returned tea.Cmd values run elsewhere and only report back through messages.
package controller

import (
	"context"
	"errors"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/comments/internal/model"
)

// UpdatedMarker is appended to a comment body by Update.
const UpdatedMarker = " COMMENT UPDATED!"

// Placeholder is the record Add appends before the server has seen it.
var Placeholder = model.Comment{
	ID:   0,
	Name: "New comment",
	Body: "This comment was added optimistically.",
}

// Service is the HTTP collaborator the list synchronizes with.
type Service interface {
	List(ctx context.Context) ([]model.Comment, error)
	Create(ctx context.Context, c model.Comment) error
	Update(ctx context.Context, c model.Comment) error
	Delete(ctx context.Context, id int) error
}

// Op names a mutation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// LoadedMsg carries the outcome of a Load.
type LoadedMsg struct {
	gen      int
	Comments []model.Comment
	Err      error
}

// MutationMsg carries the outcome of Add, Update or Delete together with the
// list as it was before the optimistic change.
type MutationMsg struct {
	Op       Op
	ID       int
	Snapshot []model.Comment
	Err      error
}

// State is a read-only copy of the list for rendering.
type State struct {
	Comments []model.Comment
	Err      string
	Loading  bool
}

type List struct {
	svc Service

	comments []model.Comment
	err      string
	loading  bool

	loadGen    int
	cancelLoad context.CancelFunc
	closed     bool
}

func New(svc Service) *List {
	return &List{svc: svc, comments: []model.Comment{}}
}

// State returns a copy of the current list, error and loading flag.
func (l *List) State() State {
	return State{
		Comments: clone(l.comments),
		Err:      l.err,
		Loading:  l.loading,
	}
}

// Comments returns a copy of the current list.
func (l *List) Comments() []model.Comment { return clone(l.comments) }

// Err is the last surfaced error message, or "".
func (l *List) Err() string { return l.err }

func (l *List) Loading() bool { return l.loading }

// Load marks the list as loading and returns the fetch command. The fetch is
// cancelled by Close, by a later Load or by ctx; a cancelled fetch never sets
// Err.
func (l *List) Load(ctx context.Context) tea.Cmd {
	if l.closed {
		return nil
	}
	if l.cancelLoad != nil {
		l.cancelLoad()
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancelLoad = cancel
	l.loadGen++
	gen := l.loadGen
	l.loading = true

	svc := l.svc
	return func() tea.Msg {
		comments, err := svc.List(ctx)
		return LoadedMsg{gen: gen, Comments: comments, Err: err}
	}
}

// Add appends Placeholder at once and returns the create command.
func (l *List) Add() tea.Cmd {
	if l.closed {
		return nil
	}
	snapshot := clone(l.comments)
	c := Placeholder
	l.comments = append(l.comments, c)

	svc := l.svc
	return func() tea.Msg {
		err := svc.Create(context.Background(), c)
		return MutationMsg{Op: OpCreate, ID: c.ID, Snapshot: snapshot, Err: err}
	}
}

// Update appends UpdatedMarker to c's body, swaps it in for every comment with
// the same ID and returns the patch command.
func (l *List) Update(c model.Comment) tea.Cmd {
	if l.closed {
		return nil
	}
	snapshot := clone(l.comments)
	updated := c
	updated.Body += UpdatedMarker

	next := make([]model.Comment, len(l.comments))
	for i, cur := range l.comments {
		if cur.ID == c.ID {
			next[i] = updated
		} else {
			next[i] = cur
		}
	}
	l.comments = next

	svc := l.svc
	return func() tea.Msg {
		err := svc.Update(context.Background(), updated)
		return MutationMsg{Op: OpUpdate, ID: c.ID, Snapshot: snapshot, Err: err}
	}
}

// Delete drops every comment with c's ID and returns the delete command.
func (l *List) Delete(c model.Comment) tea.Cmd {
	if l.closed {
		return nil
	}
	snapshot := clone(l.comments)

	next := make([]model.Comment, 0, len(l.comments))
	for _, cur := range l.comments {
		if cur.ID != c.ID {
			next = append(next, cur)
		}
	}
	l.comments = next

	svc := l.svc
	id := c.ID
	return func() tea.Msg {
		err := svc.Delete(context.Background(), id)
		return MutationMsg{Op: OpDelete, ID: id, Snapshot: snapshot, Err: err}
	}
}

// Apply folds a command result into the list. It reports whether msg was one
// of the list's messages. Results arriving after Close are dropped.
func (l *List) Apply(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case LoadedMsg:
		if l.closed || msg.gen != l.loadGen {
			return true
		}
		l.applyLoaded(msg)
		return true
	case MutationMsg:
		if l.closed {
			log.Printf("comments: dropping %s result for id %d after close", msg.Op, msg.ID)
			return true
		}
		l.applyMutation(msg)
		return true
	}
	return false
}

func (l *List) applyLoaded(msg LoadedMsg) {
	if msg.Err != nil {
		if !errors.Is(msg.Err, context.Canceled) {
			log.Printf("comments: load failed: %v", msg.Err)
			l.err = msg.Err.Error()
		}
		l.finishLoad()
		return
	}
	l.comments = clone(msg.Comments)
	l.finishLoad()
}

// finishLoad ends the current load. A load cancelled by its caller's context
// leaves the list and Err untouched but still stops Loading.
func (l *List) finishLoad() {
	l.loading = false
	if l.cancelLoad != nil {
		l.cancelLoad()
		l.cancelLoad = nil
	}
}

func (l *List) applyMutation(msg MutationMsg) {
	if msg.Err == nil {
		return
	}
	log.Printf("comments: %s id %d failed, rolling back: %v", msg.Op, msg.ID, msg.Err)
	l.comments = clone(msg.Snapshot)
	l.err = msg.Err.Error()
}

// Close tears the list down: an in-flight load is cancelled and later
// results are ignored. Mutation requests already sent are not aborted.
func (l *List) Close() {
	if l.closed {
		return
	}
	l.closed = true
	if l.cancelLoad != nil {
		l.cancelLoad()
		l.cancelLoad = nil
	}
}

func clone(in []model.Comment) []model.Comment {
	out := make([]model.Comment, len(in))
	copy(out, in)
	return out
}
