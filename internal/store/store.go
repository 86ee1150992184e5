package store

import (
	"context"

	"github.com/felixgeelhaar/recall/internal/chat"
)

// Storage defines the interface for the conversation index store.
//
// The store is append-only: Insert always creates a new record, even when
// the content duplicates an earlier one. Every stored embedding has the
// single dimensionality the store was opened with.
type Storage interface {
	// Insert persists a record and returns its assigned id.
	Insert(ctx context.Context, rec chat.ConversationRecord) (string, error)

	// Get retrieves a record by its id.
	Get(ctx context.Context, id string) (chat.ConversationRecord, error)

	// Search returns at most k records ordered by descending cosine
	// similarity to the query vector, ties broken by more recent
	// created_at. Fewer than k matches returns what exists.
	Search(ctx context.Context, vector []float32, k int, filter *chat.Filter) ([]chat.SearchResult, error)

	// Stats aggregates counts and the time span of stored records.
	Stats(ctx context.Context, filter *chat.Filter) (chat.StatsSummary, error)

	// Key/value configuration (API keys, settings).
	SetConfig(key, value string) error
	GetConfig(key string) (string, error)

	Close() error
}
