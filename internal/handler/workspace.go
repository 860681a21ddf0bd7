package handler

import (
	"sync"
	"time"

	"github.com/iliyamo/ticketbari-web/internal/catalog"
	"github.com/iliyamo/ticketbari-web/internal/dashboard"
)

// Workspaces keeps the per-session page state that has to survive between
// requests: the catalog view with its filters, page and fetch sequence, and
// the administrator's advertise board.  Entries are dropped on sign-in,
// sign-out and after sitting idle.
type Workspaces struct {
	mu      sync.Mutex
	entries map[string]*workspace
	now     func() time.Time
}

type workspace struct {
	view  *catalog.View
	board *dashboard.AdvertiseBoard
	used  time.Time
}

func NewWorkspaces() *Workspaces {
	return &Workspaces{entries: map[string]*workspace{}, now: time.Now}
}

func (w *Workspaces) entry(id string) *workspace {
	e, ok := w.entries[id]
	if !ok {
		e = &workspace{}
		w.entries[id] = e
	}
	e.used = w.now()
	return e
}

// Catalog returns the catalog view of session id, creating it on first use.
func (w *Workspaces) Catalog(id string, backend catalog.Lister) *catalog.View {
	w.mu.Lock()
	defer w.mu.Unlock()
	e := w.entry(id)
	if e.view == nil {
		e.view = catalog.NewView(backend)
	}
	return e.view
}

// Board returns the advertise board of session id.  The backend handed in
// on first use stays bound to the board until the entry is dropped.
func (w *Workspaces) Board(id string, backend dashboard.AdminBackend) *dashboard.AdvertiseBoard {
	w.mu.Lock()
	defer w.mu.Unlock()
	e := w.entry(id)
	if e.board == nil {
		e.board = dashboard.NewAdvertiseBoard(backend)
	}
	return e.board
}

// Drop forgets everything kept for session id.
func (w *Workspaces) Drop(id string) {
	w.mu.Lock()
	delete(w.entries, id)
	w.mu.Unlock()
}

// Sweep drops entries idle for longer than maxIdle and reports how many
// were removed.
func (w *Workspaces) Sweep(maxIdle time.Duration) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	cutoff := w.now().Add(-maxIdle)
	n := 0
	for id, e := range w.entries {
		if e.used.Before(cutoff) {
			delete(w.entries, id)
			n++
		}
	}
	return n
}

func (w *Workspaces) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}
