// Package iostore persists run artifacts and run history.
package iostore

import (
	"sync"

	"github.com/huangsam/riskgate/internal/contract"
)

// StoreManager manages the artifact and history store instances.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	artifacts    contract.BlobStore
	history      contract.HistoryStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// NewStoreManager wraps already opened stores. Either may be nil.
func NewStoreManager(artifacts contract.BlobStore, history contract.HistoryStore) *StoreManager {
	return &StoreManager{artifacts: artifacts, history: history}
}

// GetArtifactStore returns the artifact BlobStore.
func (mgr *StoreManager) GetArtifactStore() contract.BlobStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.artifacts
}

// GetHistoryStore returns the run HistoryStore.
func (mgr *StoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}

func (mgr *StoreManager) set(artifacts contract.BlobStore, history contract.HistoryStore) {
	mgr.Lock()
	defer mgr.Unlock()
	mgr.artifacts = artifacts
	mgr.history = history
}
