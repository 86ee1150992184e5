package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/felixgeelhaar/recall/internal/chat"
)

// timeLayout is fixed-width so that lexicographic comparison of stored
// timestamps matches chronological order. All times are stored in UTC.
const timeLayout = "2006-01-02 15:04:05.000000000"

type SQLiteStore struct {
	db        *sql.DB
	dimension int
}

// NewSQLiteStore opens (or creates) the conversation store at dbPath.
// The embedding dimension is part of the schema: every insert is checked
// against it, and it never changes for the life of the corpus.
func NewSQLiteStore(dbPath string, dimension int) (*SQLiteStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{
		db:        db,
		dimension: dimension,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			prompt TEXT NOT NULL,
			response TEXT NOT NULL,
			embedding BLOB NOT NULL,
			created_at TEXT NOT NULL,
			metadata TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_provider ON conversations(provider);`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_created_at ON conversations(created_at);`,
		`CREATE TABLE IF NOT EXISTS configuration (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

// Dimension returns the embedding dimensionality the store was opened with.
func (s *SQLiteStore) Dimension() int {
	return s.dimension
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Insert persists a record, assigning its id. A dimensionality mismatch is
// a schema violation: the record is rejected, never silently stored.
func (s *SQLiteStore) Insert(ctx context.Context, rec chat.ConversationRecord) (string, error) {
	if !rec.Provider.Valid() {
		return "", fmt.Errorf("%w: unknown provider %q", chat.ErrInvalidArgument, rec.Provider)
	}
	if len(rec.Embedding) != s.dimension {
		return "", fmt.Errorf("%w: embedding has %d dimensions, store is configured for %d",
			chat.ErrSchemaMismatch, len(rec.Embedding), s.dimension)
	}

	id := uuid.NewString()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `INSERT INTO conversations (id, provider, prompt, response, embedding, created_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		id, string(rec.Provider), rec.Prompt, rec.Response,
		encodeVector(rec.Embedding), createdAt.UTC().Format(timeLayout), string(metaJSON))
	if err != nil {
		return "", storeErr("insert conversation", err)
	}

	return id, nil
}

// Get retrieves a record by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (chat.ConversationRecord, error) {
	query := `SELECT id, provider, prompt, response, embedding, created_at, metadata
		FROM conversations WHERE id = ?`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return chat.ConversationRecord{}, fmt.Errorf("conversation not found: %s", id)
		}
		return chat.ConversationRecord{}, storeErr("get conversation", err)
	}
	return rec, nil
}

// Stats aggregates the total count, per-provider counts, and the time span
// of stored records, optionally restricted by filter.
func (s *SQLiteStore) Stats(ctx context.Context, filter *chat.Filter) (chat.StatsSummary, error) {
	where, args := filterClause(filter)

	summary := chat.StatsSummary{PerProvider: map[chat.ProviderKind]int{}}

	var earliest, latest sql.NullString
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(created_at), MAX(created_at) FROM conversations`+where, args...)
	if err := row.Scan(&summary.TotalCount, &earliest, &latest); err != nil {
		return chat.StatsSummary{}, storeErr("stats", err)
	}

	if summary.TotalCount == 0 {
		return summary, nil
	}

	if t, err := parseStoredTime(earliest.String); err == nil {
		summary.Earliest = t
	}
	if t, err := parseStoredTime(latest.String); err == nil {
		summary.Latest = t
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, COUNT(*) FROM conversations`+where+` GROUP BY provider`, args...)
	if err != nil {
		return chat.StatsSummary{}, storeErr("stats by provider", err)
	}
	defer rows.Close()

	for rows.Next() {
		var provider string
		var count int
		if err := rows.Scan(&provider, &count); err != nil {
			return chat.StatsSummary{}, storeErr("stats by provider", err)
		}
		summary.PerProvider[chat.ProviderKind(provider)] = count
	}
	if err := rows.Err(); err != nil {
		return chat.StatsSummary{}, storeErr("stats by provider", err)
	}

	return summary, nil
}

// Configuration implementation, key/value with upsert.

func (s *SQLiteStore) SetConfig(key, value string) error {
	query := `INSERT INTO configuration (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	_, err := s.db.Exec(query, key, value)
	if err != nil {
		return storeErr("set config", err)
	}
	return nil
}

func (s *SQLiteStore) GetConfig(key string) (string, error) {
	row := s.db.QueryRow(`SELECT value FROM configuration WHERE key = ?`, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", storeErr("get config", err)
	}
	return value, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (chat.ConversationRecord, error) {
	var rec chat.ConversationRecord
	var provider, createdAt string
	var vecBlob []byte
	var metaJSON sql.NullString

	if err := row.Scan(&rec.ID, &provider, &rec.Prompt, &rec.Response, &vecBlob, &createdAt, &metaJSON); err != nil {
		return chat.ConversationRecord{}, err
	}

	rec.Provider = chat.ProviderKind(provider)
	rec.Embedding = decodeVector(vecBlob)

	t, err := parseStoredTime(createdAt)
	if err != nil {
		return chat.ConversationRecord{}, fmt.Errorf("corrupt created_at %q: %w", createdAt, err)
	}
	rec.CreatedAt = t

	if metaJSON.Valid && metaJSON.String != "" && metaJSON.String != "null" {
		if err := json.Unmarshal([]byte(metaJSON.String), &rec.Metadata); err != nil {
			return chat.ConversationRecord{}, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return rec, nil
}

func parseStoredTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", chat.ErrStoreUnavailable, op, err)
}
