// Package chat defines the conversation history data model shared by the
// record builder, the index store, and the search engine.
package chat

import (
	"fmt"
	"time"
)

// ProviderKind identifies which LLM backend produced a conversation.
// The set is closed; anything outside it is rejected at the boundary.
type ProviderKind string

const (
	ProviderOpenAI    ProviderKind = "openai"
	ProviderAnthropic ProviderKind = "anthropic"
	ProviderGoogle    ProviderKind = "google"
)

// ParseProvider validates a provider tag coming from outside the core.
func ParseProvider(s string) (ProviderKind, error) {
	switch ProviderKind(s) {
	case ProviderOpenAI, ProviderAnthropic, ProviderGoogle:
		return ProviderKind(s), nil
	}
	return "", fmt.Errorf("%w: unknown provider %q", ErrInvalidArgument, s)
}

// Valid reports whether p is one of the three known providers.
func (p ProviderKind) Valid() bool {
	_, err := ParseProvider(string(p))
	return err == nil
}

// ConversationRecord is one persisted prompt/response exchange.
// Records are append-only: ID and CreatedAt are assigned at insert
// time and never change, and no record references another.
type ConversationRecord struct {
	ID        string
	Provider  ProviderKind
	Prompt    string
	Response  string
	Embedding []float32
	CreatedAt time.Time
	Metadata  map[string]string
}

// SearchResult pairs a stored record with its similarity to a query.
// Score is cosine similarity in [-1, 1]; higher is closer.
type SearchResult struct {
	ID     string
	Score  float32
	Record ConversationRecord
}

// Filter restricts a search or stats query to a provider set and/or a
// time range. Zero values mean unrestricted.
type Filter struct {
	Providers []ProviderKind
	Since     time.Time
	Until     time.Time
}

// StatsSummary describes the stored corpus.
type StatsSummary struct {
	TotalCount  int
	PerProvider map[ProviderKind]int
	Earliest    time.Time
	Latest      time.Time
}
