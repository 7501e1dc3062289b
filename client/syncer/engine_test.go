package syncer_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xingkaijun/modernnav/client/localstore"
	"github.com/xingkaijun/modernnav/client/syncer"
	apperrors "github.com/xingkaijun/modernnav/internal/errors"
	"github.com/xingkaijun/modernnav/nav"
)

// fakeBackend is an in-process Backend double recording every request.
type fakeBackend struct {
	mu            sync.Mutex
	authenticated bool
	pushErr       error
	updates       []nav.UpdatePayload
	calls         []string
	bootstrap     nav.BootstrapResponse

	// bootstrapHook runs while a bootstrap request is "in flight", before the
	// response is returned.
	bootstrapHook func()
}

func (b *fakeBackend) IsAuthenticated(ctx context.Context) bool {
	return b.authenticated
}

func (b *fakeBackend) Request(ctx context.Context, method, path string, body, out any) error {
	b.mu.Lock()
	b.calls = append(b.calls, path)
	hook := b.bootstrapHook
	b.mu.Unlock()

	switch path {
	case "/api/update":
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.pushErr != nil {
			return b.pushErr
		}
		payload, ok := body.(nav.UpdatePayload)
		if !ok {
			return apperrors.ErrInvalidData
		}
		b.updates = append(b.updates, payload)
		return assign(map[string]bool{"success": true}, out)
	case "/api/bootstrap":
		if hook != nil {
			hook()
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		return assign(b.bootstrap, out)
	}
	return apperrors.ErrNotFound
}

func (b *fakeBackend) pushed() []nav.UpdatePayload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]nav.UpdatePayload(nil), b.updates...)
}

func (b *fakeBackend) callLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// assign copies a value into the caller's out pointer via a JSON round trip.
func assign(value, out any) error {
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func newEngine(t *testing.T, opts ...syncer.EngineOption) (*syncer.Engine, *fakeBackend, *localstore.Memory) {
	t.Helper()
	backend := &fakeBackend{authenticated: true}
	store := localstore.NewMemory()
	e := syncer.New(backend, store, zerolog.Nop(), opts...)
	t.Cleanup(e.Close)
	return e, backend, store
}

func catsJSON(t *testing.T, titles ...string) string {
	t.Helper()
	cats := make([]nav.Category, 0, len(titles))
	for _, title := range titles {
		cats = append(cats, nav.Category{ID: "id-" + title, Title: title})
	}
	raw, err := json.Marshal(cats)
	require.NoError(t, err)
	return string(raw)
}

func TestSaveWritesLocallyBeforePush(t *testing.T) {
	e, backend, store := newEngine(t)
	backend.pushErr = apperrors.ErrOffline

	err := e.Save(t.Context(), nav.FieldBackground, "#123456", true)
	require.Error(t, err, "forced push against a dead server must fail")

	// The failed push must not have cost the edit.
	value, ok := store.Get(localstore.KeyBackground)
	require.True(t, ok)
	assert.Equal(t, "#123456", value)
	assert.True(t, e.Dirty().IsDirty(nav.FieldBackground))
}

func TestSaveRejectsInvalidField(t *testing.T) {
	e, _, _ := newEngine(t)

	err := e.Save(t.Context(), nav.Field("wallpaper"), "x", false)
	require.ErrorIs(t, err, apperrors.ErrInvalidData)

	err = e.Save(t.Context(), nav.FieldCategories, "not json", false)
	require.ErrorIs(t, err, apperrors.ErrInvalidData)
}

func TestDebounceCollapsesSaves(t *testing.T) {
	e, backend, _ := newEngine(t, syncer.WithDebounce(5*time.Millisecond, 10*time.Millisecond))

	require.NoError(t, e.Save(t.Context(), nav.FieldBackground, "#111111", false))
	require.NoError(t, e.Save(t.Context(), nav.FieldBackground, "#222222", false))
	require.NoError(t, e.Save(t.Context(), nav.FieldBackground, "#333333", false))

	require.Eventually(t, func() bool {
		return len(backend.pushed()) == 1
	}, time.Second, 5*time.Millisecond)

	// Only the final value went out.
	pushes := backend.pushed()
	require.Len(t, pushes, 1)
	assert.Equal(t, "background", pushes[0].Type)
	assert.JSONEq(t, `"#333333"`, string(pushes[0].Data))
	assert.False(t, e.Dirty().IsDirty(nav.FieldBackground))
}

func TestForceBypassesDebounce(t *testing.T) {
	e, backend, _ := newEngine(t, syncer.WithDebounce(time.Hour, time.Hour))

	require.NoError(t, e.Save(t.Context(), nav.FieldBackground, "#abcdef", true))

	pushes := backend.pushed()
	require.Len(t, pushes, 1)
	assert.JSONEq(t, `"#abcdef"`, string(pushes[0].Data))
	assert.False(t, e.Dirty().IsDirty(nav.FieldBackground))
}

func TestDirtyClearsOnlyOnConfirmedPush(t *testing.T) {
	e, backend, _ := newEngine(t)
	backend.pushErr = apperrors.ErrInternal

	err := e.Save(t.Context(), nav.FieldBackground, "#ff0000", true)
	require.Error(t, err)
	assert.True(t, e.Dirty().IsDirty(nav.FieldBackground))

	backend.mu.Lock()
	backend.pushErr = nil
	backend.mu.Unlock()

	require.NoError(t, e.Flush(t.Context()))
	assert.False(t, e.Dirty().IsDirty(nav.FieldBackground))
	require.Len(t, backend.pushed(), 1)
}

func TestFlushSkippedWithoutSession(t *testing.T) {
	e, backend, _ := newEngine(t, syncer.WithDebounce(time.Hour, time.Hour))
	backend.authenticated = false

	require.NoError(t, e.Save(t.Context(), nav.FieldBackground, "#00ff00", false))

	err := e.Flush(t.Context())
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	assert.Empty(t, backend.pushed())
	assert.True(t, e.Dirty().IsDirty(nav.FieldBackground), "edit stays parked for the next login")
}

// Offline edits generate zero network traffic; coming back online pushes each
// parked field exactly once.
func TestOfflineEditsParkUntilReconnect(t *testing.T) {
	e, backend, _ := newEngine(t, syncer.WithDebounce(time.Millisecond, time.Millisecond))

	e.SetOnline(t.Context(), false)
	require.NoError(t, e.Save(t.Context(), nav.FieldBackground, "#101010", false))
	require.NoError(t, e.Save(t.Context(), nav.FieldCategories, catsJSON(t, "Work"), false))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, backend.callLog(), "offline edits must not touch the network")
	assert.True(t, e.Dirty().IsDirty(nav.FieldBackground))
	assert.True(t, e.Dirty().IsDirty(nav.FieldCategories))

	e.SetOnline(t.Context(), true)

	pushes := backend.pushed()
	require.Len(t, pushes, 2)
	assert.False(t, e.Dirty().Any())
}

// Going offline after a save disarms the pending debounced push; the edit
// stays parked until reconnect.
func TestGoingOfflineParksPendingPush(t *testing.T) {
	e, backend, _ := newEngine(t, syncer.WithDebounce(20*time.Millisecond, 20*time.Millisecond))

	require.NoError(t, e.Save(t.Context(), nav.FieldBackground, "#444444", false))
	e.SetOnline(t.Context(), false)

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, backend.callLog(), "armed timer must not push while offline")
	assert.True(t, e.Dirty().IsDirty(nav.FieldBackground))

	e.SetOnline(t.Context(), true)
	require.Len(t, backend.pushed(), 1)
	assert.False(t, e.Dirty().Any())
}

// A field edited while a fetch is in flight keeps its local value: the dirty
// check happens at merge time, not at request time.
func TestFetchDoesNotOverwriteMidFlightEdit(t *testing.T) {
	e, backend, store := newEngine(t, syncer.WithDebounce(time.Hour, time.Hour))

	remoteCats := []nav.Category{{ID: "r1", Title: "Remote"}}
	rawCats, err := json.Marshal(remoteCats)
	require.NoError(t, err)
	backend.bootstrap = nav.BootstrapResponse{
		Categories: rawCats,
		Background: json.RawMessage(`"remote-bg"`),
	}
	backend.bootstrapHook = func() {
		require.NoError(t, e.Save(t.Context(), nav.FieldBackground, "local-bg", false))
	}

	merged, err := e.FetchAll(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "local-bg", merged.Background, "in-flight edit wins")
	require.Len(t, merged.Categories, 1)
	assert.Equal(t, "Remote", merged.Categories[0].Title, "clean field adopts remote")

	bg, ok := store.Get(localstore.KeyBackground)
	require.True(t, ok)
	assert.Equal(t, "local-bg", bg)
	assert.True(t, e.Dirty().IsDirty(nav.FieldBackground), "local edit still pending push")
}

func TestFetchAdoptsRemoteWhenClean(t *testing.T) {
	e, backend, store := newEngine(t)

	backend.bootstrap = nav.BootstrapResponse{
		Categories:  json.RawMessage(`[{"id":"r1","title":"Remote","subCategories":[]}]`),
		Background:  json.RawMessage(`"#224466"`),
		Preferences: json.RawMessage(`{"cardOpacity":0.5,"themeMode":"light"}`),
	}

	merged, err := e.FetchAll(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "#224466", merged.Background)
	assert.Equal(t, nav.ThemeModeLight, merged.Preferences.ThemeMode)
	assert.InDelta(t, 0.5, merged.Preferences.CardOpacity, 0.0001)

	// Remote state became local state.
	bg, _ := store.Get(localstore.KeyBackground)
	assert.Equal(t, "#224466", bg)
	local := e.Local()
	require.Len(t, local.Categories, 1)
	assert.Equal(t, "Remote", local.Categories[0].Title)
}

func TestFetchFailureReturnsLocalState(t *testing.T) {
	store := localstore.NewMemory()
	require.NoError(t, store.Set(localstore.KeyBackground, "#777777"))
	e := syncer.New(erroringBackend{}, store, zerolog.Nop())
	t.Cleanup(e.Close)

	snap, err := e.FetchAll(t.Context())
	require.Error(t, err)
	assert.Equal(t, "#777777", snap.Background, "failed pull falls back to local state")
}

type erroringBackend struct{}

func (erroringBackend) Request(ctx context.Context, method, path string, body, out any) error {
	return apperrors.ErrOffline
}

func (erroringBackend) IsAuthenticated(ctx context.Context) bool { return true }

func TestSyncPendingPushesBeforePull(t *testing.T) {
	e, backend, _ := newEngine(t, syncer.WithDebounce(time.Hour, time.Hour))
	backend.bootstrap = nav.BootstrapResponse{
		Background: json.RawMessage(`"#aa0000"`),
	}

	require.NoError(t, e.Save(t.Context(), nav.FieldBackground, "#aa0000", false))

	merged, err := e.SyncPending(t.Context())
	require.NoError(t, err)

	calls := backend.callLog()
	require.Equal(t, []string{"/api/update", "/api/bootstrap"}, calls)
	assert.Equal(t, "#aa0000", merged.Background)
	assert.False(t, e.Dirty().Any())
}

func TestStatusSubscription(t *testing.T) {
	e, _, _ := newEngine(t)

	var mu sync.Mutex
	var seen []syncer.Status
	unsubscribe := e.SubscribeSyncStatus(func(s syncer.Status) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	require.NoError(t, e.Save(t.Context(), nav.FieldBackground, "#010101", true))

	mu.Lock()
	assert.Equal(t, []syncer.Status{syncer.StatusSyncing, syncer.StatusSynced}, seen)
	mu.Unlock()

	unsubscribe()
	require.NoError(t, e.Save(t.Context(), nav.FieldBackground, "#020202", true))
	mu.Lock()
	assert.Len(t, seen, 2, "no events after unsubscribe")
	mu.Unlock()
}

func TestErrorNotification(t *testing.T) {
	e, backend, _ := newEngine(t)
	backend.pushErr = apperrors.ErrInternal

	var mu sync.Mutex
	var notes []syncer.Notification
	e.SubscribeNotifications(func(n syncer.Notification) {
		mu.Lock()
		notes = append(notes, n)
		mu.Unlock()
	})

	_ = e.Save(t.Context(), nav.FieldBackground, "#0000ff", true)

	mu.Lock()
	require.Len(t, notes, 1)
	assert.Equal(t, "error", notes[0].Level)
	mu.Unlock()
}
