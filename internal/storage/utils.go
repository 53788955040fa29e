package storage

import "github.com/ignatij/sheetflow/pkg/storage"

// MemoryDSN selects the non-durable in-memory journal.
const MemoryDSN = "memory"

// InitStore opens the journal backend named by dsn.
// An empty dsn or MemoryDSN selects the in-memory store.
func InitStore(dsn string) (storage.Store, error) {
	if dsn == "" || dsn == MemoryDSN {
		return storage.NewMockStore(), nil
	}
	store, err := NewSQLStore(dsn)
	if err != nil {
		return nil, err
	}
	return store, nil
}
