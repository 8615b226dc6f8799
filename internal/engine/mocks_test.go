package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/clinicops/etransfer-sync/internal/extract"
	"github.com/clinicops/etransfer-sync/internal/model"
)

// MockMailSource is a test implementation of service.MailSource backed by
// a fixed set of envelopes.
type MockMailSource struct {
	ListErr   error
	FetchErrs map[string]error
	envelopes map[string]extract.Envelope
	ids       []string
	mu        sync.Mutex
	ListCalls int
}

// NewMockMailSource creates a mail source serving the given envelopes in
// order.
func NewMockMailSource(envelopes ...extract.Envelope) *MockMailSource {
	m := &MockMailSource{
		envelopes: make(map[string]extract.Envelope, len(envelopes)),
		FetchErrs: make(map[string]error),
	}
	for _, env := range envelopes {
		m.ids = append(m.ids, env.ID)
		m.envelopes[env.ID] = env
	}
	return m
}

// List implements service.MailSource.
func (m *MockMailSource) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return append([]string(nil), m.ids...), nil
}

// Fetch implements service.MailSource.
func (m *MockMailSource) Fetch(_ context.Context, id string) (*extract.Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.FetchErrs[id]; ok {
		return nil, err
	}
	env, ok := m.envelopes[id]
	if !ok {
		return nil, fmt.Errorf("no such message: %s", id)
	}
	return &env, nil
}

// MockRecorder is a test implementation of service.RunRecorder that keeps
// runs in memory.
type MockRecorder struct {
	RecordErr error
	Runs      []model.SyncRun
	mu        sync.Mutex
	closed    bool
}

// RecordRun implements service.RunRecorder.
func (m *MockRecorder) RecordRun(_ context.Context, run *model.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Runs = append(m.Runs, *run)
	return nil
}

// RecentRuns implements service.RunRecorder, newest first.
func (m *MockRecorder) RecentRuns(_ context.Context, limit int) ([]model.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	runs := make([]model.SyncRun, 0, limit)
	for i := len(m.Runs) - 1; i >= 0 && len(runs) < limit; i-- {
		runs = append(runs, m.Runs[i])
	}
	return runs, nil
}

// Close implements service.RunRecorder.
func (m *MockRecorder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
