// Package syncer implements the offline-first synchronization engine: every
// edit lands in durable local storage first and is pushed to the server
// afterwards, debounced, with per-field dirty tracking deciding what wins
// when local and remote state disagree.
package syncer

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/xingkaijun/modernnav/client/localstore"
	apperrors "github.com/xingkaijun/modernnav/internal/errors"
	"github.com/xingkaijun/modernnav/nav"
)

// Backend is the authenticated HTTP surface the engine syncs against.
type Backend interface {
	Request(ctx context.Context, method, path string, body, out any) error
	IsAuthenticated(ctx context.Context) bool
}

// Status is the coarse sync state reported to subscribers.
type Status string

const (
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusError   Status = "error"
	StatusOffline Status = "offline"
)

// Notification is a user-facing sync event.
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

const (
	defaultPrefsDebounce = 300 * time.Millisecond
	defaultSaveDebounce  = time.Second
)

type Engine struct {
	backend Backend
	store   localstore.Store
	dirty   *DirtyTracker
	log     zerolog.Logger
	nowFunc func() time.Time

	prefsDebounce time.Duration
	saveDebounce  time.Duration

	// stateMu serializes local writes and dirty transitions against merges,
	// so a save landing during a fetch is never half-observed.
	stateMu sync.Mutex

	mu     sync.Mutex
	online bool
	timer  *time.Timer

	subMu      sync.Mutex
	nextSub    int
	notifySubs map[int]func(Notification)
	statusSubs map[int]func(Status)
}

type EngineOption func(*Engine)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.nowFunc = now
	}
}

// WithDebounce overrides the push debounce intervals.
func WithDebounce(prefs, others time.Duration) EngineOption {
	return func(e *Engine) {
		e.prefsDebounce = prefs
		e.saveDebounce = others
	}
}

func New(backend Backend, store localstore.Store, log zerolog.Logger, options ...EngineOption) *Engine {
	e := &Engine{
		backend:       backend,
		store:         store,
		dirty:         NewDirtyTracker(store),
		log:           log,
		nowFunc:       time.Now,
		prefsDebounce: defaultPrefsDebounce,
		saveDebounce:  defaultSaveDebounce,
		online:        true,
		notifySubs:    make(map[int]func(Notification)),
		statusSubs:    make(map[int]func(Status)),
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Save writes a field locally and marks it dirty before any network traffic,
// then schedules a debounced push. force pushes immediately, bypassing the
// debounce and the offline check. The local write succeeding is the contract;
// push failures leave the field dirty for a later retry.
func (e *Engine) Save(ctx context.Context, field nav.Field, value string, force bool) error {
	if !field.Valid() {
		return errors.Wrapf(apperrors.ErrInvalidData, "[Engine.Save] unknown field %q", field)
	}
	if field != nav.FieldBackground && !json.Valid([]byte(value)) {
		return errors.Wrapf(apperrors.ErrInvalidData, "[Engine.Save] %s is not valid JSON", field)
	}

	e.stateMu.Lock()
	if err := e.store.Set(localKey(field), value); err != nil {
		e.stateMu.Unlock()
		return errors.Wrap(err, "[Engine.Save] local write")
	}
	if err := e.dirty.Mark(field); err != nil {
		e.log.Warn().Err(err).Str("field", string(field)).Msg("persist dirty flag")
	}
	e.stateMu.Unlock()

	if force {
		return e.Flush(ctx)
	}
	if !e.Online() {
		// Edit is parked locally until the connection returns.
		return nil
	}
	e.schedule(field)
	return nil
}

// schedule arms the debounce timer, restarting it from this save regardless
// of which field an earlier pending save touched.
func (e *Engine) schedule(field nav.Field) {
	delay := e.saveDebounce
	if field == nav.FieldPrefs {
		delay = e.prefsDebounce
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(delay, func() {
		// Connectivity may have dropped since the timer was armed; parked
		// edits push on reconnect instead.
		if !e.Online() {
			return
		}
		if err := e.Flush(context.Background()); err != nil {
			e.log.Warn().Err(err).Msg("debounced push failed")
		}
	})
}

// Flush pushes every dirty field now. Each field's dirty flag clears only on
// a confirmed push, and only if the value has not changed again mid-push.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()

	fields := e.dirty.Dirty()
	if len(fields) == 0 {
		return nil
	}
	if !e.backend.IsAuthenticated(ctx) {
		return errors.Wrap(apperrors.ErrNotAuthenticated, "[Engine.Flush] push skipped")
	}

	e.emitStatus(StatusSyncing)
	var firstErr error
	for _, field := range fields {
		if err := e.pushField(ctx, field); err != nil {
			e.log.Warn().Err(err).Str("field", string(field)).Msg("push failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		e.emitStatus(StatusError)
		e.notify(Notification{Level: "error", Message: "Sync failed, changes kept locally"})
		return firstErr
	}
	e.emitStatus(StatusSynced)
	return nil
}

func (e *Engine) pushField(ctx context.Context, field nav.Field) error {
	e.stateMu.Lock()
	value, ok := e.store.Get(localKey(field))
	e.stateMu.Unlock()
	if !ok {
		return e.dirty.Clear(field)
	}

	data, err := wireData(field, value)
	if err != nil {
		return err
	}

	var result struct {
		Success bool `json:"success"`
	}
	payload := nav.UpdatePayload{Type: string(field), Data: data}
	if err := e.backend.Request(ctx, http.MethodPost, "/api/update", payload, &result); err != nil {
		return errors.Wrapf(err, "[Engine.pushField] push %s", field)
	}

	// A save that landed while this push was in flight keeps the field dirty.
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if current, ok := e.store.Get(localKey(field)); ok && current == value {
		if err := e.dirty.Clear(field); err != nil {
			e.log.Warn().Err(err).Str("field", string(field)).Msg("persist dirty flag")
		}
	}
	return nil
}

// FetchAll pulls the server's state and merges it: remote wins for every
// field that is clean at merge time, local wins for dirty ones. The dirty
// check happens after the response arrives, so a field edited while the fetch
// was in flight is not overwritten.
func (e *Engine) FetchAll(ctx context.Context) (nav.Snapshot, error) {
	var resp nav.BootstrapResponse
	if err := e.backend.Request(ctx, http.MethodGet, "/api/bootstrap", nil, &resp); err != nil {
		return e.Local(), errors.Wrap(err, "[Engine.FetchAll] bootstrap")
	}
	remote := resp.Snapshot()

	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	merged := remote
	if e.dirty.IsDirty(nav.FieldCategories) {
		merged.Categories = e.localCategoriesLocked()
	} else {
		raw, _ := json.Marshal(remote.Categories)
		e.setLocalLocked(nav.FieldCategories, string(raw))
	}
	if e.dirty.IsDirty(nav.FieldBackground) {
		merged.Background = e.localBackgroundLocked()
	} else {
		e.setLocalLocked(nav.FieldBackground, remote.Background)
	}
	if e.dirty.IsDirty(nav.FieldPrefs) {
		merged.Preferences = e.localPrefsLocked()
	} else {
		raw, _ := json.Marshal(remote.Preferences)
		e.setLocalLocked(nav.FieldPrefs, string(raw))
	}
	return merged, nil
}

// SyncPending pushes local edits first, then pulls; the returned snapshot is
// the merged state. Offline it returns local state untouched.
func (e *Engine) SyncPending(ctx context.Context) (nav.Snapshot, error) {
	if !e.Online() {
		e.emitStatus(StatusOffline)
		return e.Local(), errors.Wrap(apperrors.ErrOffline, "[Engine.SyncPending] offline")
	}
	if err := e.Flush(ctx); err != nil {
		return e.Local(), err
	}
	return e.FetchAll(ctx)
}

// Local returns the current local state with defaults filled in for missing
// or malformed fields. It never touches the network.
func (e *Engine) Local() nav.Snapshot {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return nav.Snapshot{
		Categories:  e.localCategoriesLocked(),
		Background:  e.localBackgroundLocked(),
		Preferences: e.localPrefsLocked(),
	}
}

// Dirty exposes the tracker for callers that report pending state.
func (e *Engine) Dirty() *DirtyTracker {
	return e.dirty
}

// Online reports the engine's connectivity assumption.
func (e *Engine) Online() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.online
}

// SetOnline records a connectivity change. Coming back online pushes any
// edits parked while offline.
func (e *Engine) SetOnline(ctx context.Context, online bool) {
	e.mu.Lock()
	was := e.online
	e.online = online
	e.mu.Unlock()
	if online == was {
		return
	}
	if !online {
		e.emitStatus(StatusOffline)
		return
	}
	if e.dirty.Any() {
		if err := e.Flush(ctx); err != nil {
			e.log.Warn().Err(err).Msg("reconnect push failed")
		}
	}
}

// SubscribeNotifications registers a callback for user-facing sync events and
// returns its unsubscribe function.
func (e *Engine) SubscribeNotifications(fn func(Notification)) func() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.notifySubs[id] = fn
	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.notifySubs, id)
	}
}

// SubscribeSyncStatus registers a callback for sync state transitions and
// returns its unsubscribe function.
func (e *Engine) SubscribeSyncStatus(fn func(Status)) func() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	id := e.nextSub
	e.nextSub++
	e.statusSubs[id] = fn
	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.statusSubs, id)
	}
}

// Close cancels any pending debounced push.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Engine) notify(n Notification) {
	for _, fn := range e.subscribers(e.notifySubs) {
		fn(n)
	}
}

func (e *Engine) emitStatus(s Status) {
	e.subMu.Lock()
	fns := make([]func(Status), 0, len(e.statusSubs))
	for _, fn := range e.statusSubs {
		fns = append(fns, fn)
	}
	e.subMu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func (e *Engine) subscribers(subs map[int]func(Notification)) []func(Notification) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	fns := make([]func(Notification), 0, len(subs))
	for _, fn := range subs {
		fns = append(fns, fn)
	}
	return fns
}

func (e *Engine) setLocalLocked(field nav.Field, value string) {
	if err := e.store.Set(localKey(field), value); err != nil {
		e.log.Warn().Err(err).Str("field", string(field)).Msg("adopt remote value")
	}
}

func (e *Engine) localCategoriesLocked() []nav.Category {
	raw, _ := e.store.Get(localstore.KeyCategories)
	return nav.NormalizeCategories([]byte(raw))
}

func (e *Engine) localBackgroundLocked() string {
	raw, _ := e.store.Get(localstore.KeyBackground)
	return nav.NormalizeBackground(raw)
}

func (e *Engine) localPrefsLocked() nav.Preferences {
	raw, _ := e.store.Get(localstore.KeyPrefs)
	return nav.NormalizePreferences([]byte(raw))
}

func localKey(field nav.Field) string {
	switch field {
	case nav.FieldCategories:
		return localstore.KeyCategories
	case nav.FieldBackground:
		return localstore.KeyBackground
	default:
		return localstore.KeyPrefs
	}
}

// wireData converts a locally stored value into the update payload's data
// field. The background is a plain string locally and travels JSON-encoded.
func wireData(field nav.Field, value string) (json.RawMessage, error) {
	if field == nav.FieldBackground {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, errors.Wrap(err, "[syncer.wireData] encode background")
		}
		return raw, nil
	}
	if !json.Valid([]byte(value)) {
		return nil, errors.Wrapf(apperrors.ErrInvalidData, "[syncer.wireData] %s is not valid JSON", field)
	}
	return json.RawMessage(value), nil
}
