// Package repofake provides an in-memory configstore.Repo for tests.
package repofake

import (
	"context"
	"sync"

	"github.com/xingkaijun/modernnav/configstore"
	apperrors "github.com/xingkaijun/modernnav/internal/errors"
)

// FakeConfigRepo is a mutex-guarded map implementing configstore.Repo.
// FailWrites and FailReads force errors to exercise failure paths.
type FakeConfigRepo struct {
	mu         sync.Mutex
	rows       map[string]string
	FailWrites error
	FailReads  error

	// UpsertCalls records every (key, value) written, in order.
	UpsertCalls []struct{ Key, Value string }
}

var _ configstore.Repo = (*FakeConfigRepo)(nil)

func NewFakeConfigRepo() *FakeConfigRepo {
	return &FakeConfigRepo{rows: make(map[string]string)}
}

func (f *FakeConfigRepo) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailReads != nil {
		return "", f.FailReads
	}
	value, ok := f.rows[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return value, nil
}

func (f *FakeConfigRepo) All(_ context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailReads != nil {
		return nil, f.FailReads
	}
	out := make(map[string]string, len(f.rows))
	for k, v := range f.rows {
		out[k] = v
	}
	return out, nil
}

func (f *FakeConfigRepo) Upsert(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites != nil {
		return f.FailWrites
	}
	f.rows[key] = value
	f.UpsertCalls = append(f.UpsertCalls, struct{ Key, Value string }{key, value})
	return nil
}

func (f *FakeConfigRepo) Ping(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailReads != nil {
		return f.FailReads
	}
	return nil
}
