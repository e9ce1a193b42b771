package vfs

import (
	"fmt"
	"slices"
	"sync"
)

type Mode byte

const (
	ModeRead  Mode = 'r'
	ModeWrite Mode = 'w'
	ModeOther Mode = 'o'
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	case ModeOther:
		return "other"
	default:
		return "unknown"
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte{byte(m)}, nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	if len(b) != 1 {
		return fmt.Errorf("%q: invalid access mode", b)
	}
	switch x := Mode(b[0]); x {
	case ModeRead, ModeWrite, ModeOther:
		*m = x
	default:
		return fmt.Errorf("%q: invalid access mode", b)
	}
	return nil
}

// Access is one file or remote reference touched by the engine.
type Access struct {
	Mode Mode   `json:"mode"`
	Path string `json:"path"`
}

func (a Access) String() string {
	return fmt.Sprintf("%c %s", a.Mode, a.Path)
}

// Tracker keeps the accesses of a run in first-seen order, without
// duplicates. Recording is a no-op while the tracker is disabled.
type Tracker struct {
	mu      sync.Mutex
	enabled bool
	list    []Access
	seen    map[Access]struct{}
}

func NewTracker(enabled bool) *Tracker {
	return &Tracker{
		enabled: enabled,
		seen:    make(map[Access]struct{}),
	}
}

func (t *Tracker) Enable(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

func (t *Tracker) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *Tracker) Record(mode Mode, path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.enabled {
		return
	}
	a := Access{
		Mode: mode,
		Path: path,
	}
	if _, ok := t.seen[a]; ok {
		return
	}
	if t.seen == nil {
		t.seen = make(map[Access]struct{})
	}
	t.seen[a] = struct{}{}
	t.list = append(t.list, a)
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.list)
}

func (t *Tracker) Snapshot() []Access {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.list)
}

// Reset drops every record and disables the tracker.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = false
	t.list = nil
	clear(t.seen)
}

// Merge appends the accesses of list to all, skipping those already present.
func Merge(all []Access, list []Access) []Access {
	for _, a := range list {
		if !slices.Contains(all, a) {
			all = append(all, a)
		}
	}
	return all
}
