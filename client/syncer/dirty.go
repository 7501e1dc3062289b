package syncer

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/xingkaijun/modernnav/client/localstore"
	"github.com/xingkaijun/modernnav/nav"
)

// DirtyTracker records which configuration fields hold local edits that have
// not been confirmed by the server yet. The state is persisted so unsynced
// edits survive a restart; a corrupt record degrades to all-clean.
type DirtyTracker struct {
	store localstore.Store

	mu    sync.Mutex
	state map[nav.Field]bool
}

func NewDirtyTracker(store localstore.Store) *DirtyTracker {
	d := &DirtyTracker{
		store: store,
		state: make(map[nav.Field]bool, len(nav.Fields)),
	}
	if raw, ok := store.Get(localstore.KeyDirty); ok {
		var persisted map[nav.Field]bool
		if err := json.Unmarshal([]byte(raw), &persisted); err == nil {
			for _, f := range nav.Fields {
				d.state[f] = persisted[f]
			}
		}
	}
	return d
}

// Mark flags a field as locally edited. The flag is durable before Mark
// returns.
func (d *DirtyTracker) Mark(field nav.Field) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state[field] = true
	return d.persistLocked()
}

// Clear drops the dirty flag for a field, after a confirmed push.
func (d *DirtyTracker) Clear(field nav.Field) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state[field] = false
	return d.persistLocked()
}

func (d *DirtyTracker) IsDirty(field nav.Field) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state[field]
}

// Dirty returns the flagged fields in stable order.
func (d *DirtyTracker) Dirty() []nav.Field {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []nav.Field
	for _, f := range nav.Fields {
		if d.state[f] {
			out = append(out, f)
		}
	}
	return out
}

func (d *DirtyTracker) Any() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range nav.Fields {
		if d.state[f] {
			return true
		}
	}
	return false
}

func (d *DirtyTracker) persistLocked() error {
	raw, err := json.Marshal(d.state)
	if err != nil {
		return errors.Wrap(err, "[DirtyTracker.persist] marshal state")
	}
	if err := d.store.Set(localstore.KeyDirty, string(raw)); err != nil {
		return errors.Wrap(err, "[DirtyTracker.persist] store write")
	}
	return nil
}
