// Package kv provides the opaque string key-value store the ledger
// core persists its blobs through. Backends share a single contract so
// the core never knows whether it is writing to a local SQLite file, a
// Redis instance or a shared Postgres database.
package kv

import "context"

// Well-known keys. Values are the owning component's own serialized
// form; the store treats them as opaque strings.
const (
	KeyPendingBills     = "pending_bills"
	KeyCustomCategories = "custom_categories"
	KeyCurrentLedgerID  = "current_ledger_id"
	KeySession          = "session"
)

// Store is the persistence collaborator contract.
type Store interface {
	// Read returns the value for key. The boolean is false when the
	// key is absent; absence is not an error.
	Read(ctx context.Context, key string) (string, bool, error)

	// Write stores value under key, replacing any previous value.
	Write(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
