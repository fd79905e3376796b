package cli

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
)

// mockSyncOrchestrator implements driving.SyncOrchestrator for testing.
type mockSyncOrchestrator struct {
	mu       sync.Mutex
	err      error
	calls    []string
	statuses map[string]*driving.SyncStatus
}

func (m *mockSyncOrchestrator) Sync(_ context.Context, accountID string, kind domain.SyncKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, string(kind)+":"+accountID)
	return m.err
}

func (m *mockSyncOrchestrator) SyncAll(_ context.Context, kind domain.SyncKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, string(kind)+":*")
	return m.err
}

func (m *mockSyncOrchestrator) Status(_ context.Context, accountID string) (*driving.SyncStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.statuses[accountID]; ok {
		return s, nil
	}
	return &driving.SyncStatus{AccountID: accountID}, nil
}

// mockScheduler implements driving.Scheduler for testing.
type mockScheduler struct {
	mu       sync.Mutex
	start    func(ctx context.Context) error
	started  bool
	stopped  bool
	reloaded []domain.SchedulerConfig
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.mu.Lock()
	m.started = true
	start := m.start
	m.mu.Unlock()
	if start != nil {
		return start(ctx)
	}
	return nil
}

func (m *mockScheduler) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return nil
}

func (m *mockScheduler) Reload(_ context.Context, config domain.SchedulerConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reloaded = append(m.reloaded, config)
	return nil
}

func (m *mockScheduler) reloadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reloaded)
}

var errMock = errors.New("mock failure")

// withServices installs s for the duration of the test.
func withServices(t *testing.T, s *Services) {
	t.Helper()
	SetServices(s)
	t.Cleanup(func() { SetServices(nil) })
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
