package iostore

import (
	"context"

	"github.com/huangsam/riskgate/internal/contract"
	"github.com/huangsam/riskgate/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetArtifactStore implements the StoreManager interface.
func (m *MockStoreManager) GetArtifactStore() contract.BlobStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.BlobStore)
	return store
}

// GetHistoryStore implements the StoreManager interface.
func (m *MockStoreManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockBlobStore is a mock implementation of BlobStore for testing.
type MockBlobStore struct {
	mock.Mock
}

var _ contract.BlobStore = &MockBlobStore{} // Compile-time check

// Put implements the BlobStore interface.
func (m *MockBlobStore) Put(ctx context.Context, rec schema.ArtifactRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// Get implements the BlobStore interface.
func (m *MockBlobStore) Get(ctx context.Context, name string) (*schema.ArtifactRecord, error) {
	args := m.Called(ctx, name)
	rec, _ := args.Get(0).(*schema.ArtifactRecord)
	return rec, args.Error(1)
}

// List implements the BlobStore interface.
func (m *MockBlobStore) List(ctx context.Context) ([]schema.ArtifactInfo, error) {
	args := m.Called(ctx)
	infos, _ := args.Get(0).([]schema.ArtifactInfo)
	return infos, args.Error(1)
}

// Delete implements the BlobStore interface.
func (m *MockBlobStore) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// GetStatus implements the BlobStore interface.
func (m *MockBlobStore) GetStatus(ctx context.Context) (schema.ArtifactStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.ArtifactStatus), args.Error(1)
}

// Close implements the BlobStore interface.
func (m *MockBlobStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// RecordRun implements the HistoryStore interface.
func (m *MockHistoryStore) RecordRun(ctx context.Context, rec schema.RunRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// ListRuns implements the HistoryStore interface.
func (m *MockHistoryStore) ListRuns(ctx context.Context, limit int) ([]schema.RunRecord, error) {
	args := m.Called(ctx, limit)
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus(ctx context.Context) (schema.HistoryStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
