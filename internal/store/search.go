package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/felixgeelhaar/recall/internal/chat"
)

// Search scans the filtered candidate set, scores each record with cosine
// similarity, and returns the top k ordered by score descending, then by
// created_at descending. Brute force over all candidates is fine at the
// corpus sizes a single history accumulates.
func (s *SQLiteStore) Search(ctx context.Context, vector []float32, k int, filter *chat.Filter) ([]chat.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", chat.ErrInvalidArgument, k)
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, store is configured for %d",
			chat.ErrSchemaMismatch, len(vector), s.dimension)
	}

	where, args := filterClause(filter)
	query := `SELECT id, provider, prompt, response, embedding, created_at, metadata FROM conversations` + where

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("search", err)
	}
	defer rows.Close()

	var results []chat.SearchResult
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, storeErr("search", err)
		}
		results = append(results, chat.SearchResult{
			ID:     rec.ID,
			Score:  cosineSimilarity(vector, rec.Embedding),
			Record: rec,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("search", err)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Record.CreatedAt.After(results[j].Record.CreatedAt)
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// filterClause turns a Filter into a WHERE clause and its arguments.
func filterClause(filter *chat.Filter) (string, []any) {
	if filter == nil {
		return "", nil
	}

	var clauses []string
	var args []any

	if len(filter.Providers) > 0 {
		placeholders := strings.Repeat("?,", len(filter.Providers))
		clauses = append(clauses, fmt.Sprintf("provider IN (%s)", placeholders[:len(placeholders)-1]))
		for _, p := range filter.Providers {
			args = append(args, string(p))
		}
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	if !filter.Until.IsZero() {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, filter.Until.UTC().Format(timeLayout))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func encodeVector(vec []float32) []byte {
	buf := new(bytes.Buffer)
	// binary.Write cannot fail on a bytes.Buffer with a fixed-size type
	_ = binary.Write(buf, binary.LittleEndian, vec)
	return buf.Bytes()
}

func decodeVector(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	_ = binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vec)
	return vec
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}
	var dot, magA, magB float32
	for i := 0; i < len(a); i++ {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0.0
	}
	return dot / (float32(math.Sqrt(float64(magA))) * float32(math.Sqrt(float64(magB))))
}
