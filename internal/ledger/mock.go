package ledger

import (
	"context"
	"sync"

	"github.com/clinicops/etransfer-sync/internal/model"
)

// MockStore is an in-memory LedgerStore for testing. It behaves like a
// tiny worksheet: Append grows it, Replace rewrites it, Snapshot reads
// it back.
type MockStore struct {
	SnapshotErr  error
	AppendErr    error
	ReplaceErr   error
	WorkbookName string
	header       []string
	rows         []model.LedgerRow
	AppendCalls  [][]model.LedgerRow
	ReplaceCalls int
	mu           sync.Mutex
}

// NewMockStore seeds a mock ledger with a header and existing rows.
func NewMockStore(header []string, rows ...model.LedgerRow) *MockStore {
	return &MockStore{
		WorkbookName: "Mock Payments",
		header:       header,
		rows:         rows,
	}
}

// Title implements service.LedgerStore.
func (m *MockStore) Title(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.WorkbookName, nil
}

// Snapshot implements service.LedgerStore.
func (m *MockStore) Snapshot(_ context.Context) (*model.LedgerSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}

	rows := make([]model.LedgerRow, len(m.rows))
	copy(rows, m.rows)
	header := make([]string, len(m.header))
	copy(header, m.header)

	return &model.LedgerSnapshot{Header: header, Rows: rows}, nil
}

// Append implements service.LedgerStore.
func (m *MockStore) Append(_ context.Context, rows []model.LedgerRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]model.LedgerRow, len(rows))
	copy(recorded, rows)
	m.AppendCalls = append(m.AppendCalls, recorded)

	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.rows = append(m.rows, rows...)
	return nil
}

// Replace implements service.LedgerStore.
func (m *MockStore) Replace(_ context.Context, header []string, rows []model.LedgerRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ReplaceCalls++
	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}
	m.header = append([]string(nil), header...)
	m.rows = append([]model.LedgerRow(nil), rows...)
	return nil
}

// Rows returns a copy of the mock's current rows.
func (m *MockStore) Rows() []model.LedgerRow {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := make([]model.LedgerRow, len(m.rows))
	copy(rows, m.rows)
	return rows
}
