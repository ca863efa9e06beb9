// Package store persists schema documentation with embeddings in SQLite
// and serves brute-force vector search over it. The corpus is small
// (hundreds of tables, not millions of rows), so a linear scan beats the
// operational cost of a dedicated index.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/queryforge-ai/queryforge-engine/pkg/llm"
	"github.com/queryforge-ai/queryforge-engine/pkg/models"
)

// Document types stored in the documentation index.
const (
	DocTypeTable        = "table"
	DocTypeRelationship = "relationship"
)

// TableDocument describes one table of the customer schema.
type TableDocument struct {
	Name            string   `json:"name"`
	BusinessPurpose string   `json:"business_purpose"`
	Columns         []string `json:"columns,omitempty"`
}

// RelationshipDocument describes a foreign-key style relationship between
// two tables.
type RelationshipDocument struct {
	ID          string `json:"id"`
	FromTable   string `json:"from_table"`
	ToTable     string `json:"to_table"`
	Description string `json:"description"`
}

// RelationshipHit is a relationship search result with its similarity.
type RelationshipHit struct {
	Document RelationshipDocument `json:"document"`
	Score    float64              `json:"score"`
}

// Store is the SQLite-backed documentation index.
type Store struct {
	db       *sql.DB
	embedder llm.Embedder
	logger   *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT NOT NULL,
	doc_type   TEXT NOT NULL,
	content    TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (id, doc_type)
);
CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(doc_type);
`

// Open opens or creates the documentation store at path.
func Open(path string, embedder llm.Embedder, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("store path cannot be empty")
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open documentation store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize documentation store: %w", err)
	}

	return &Store{
		db:       db,
		embedder: embedder,
		logger:   logger.Named("doc-store"),
	}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertTable indexes a table document, replacing any previous version.
func (s *Store) UpsertTable(ctx context.Context, doc TableDocument) error {
	if doc.Name == "" {
		return fmt.Errorf("table document requires a name")
	}
	return s.upsert(ctx, doc.Name, DocTypeTable, doc, tableDocumentText(doc))
}

// UpsertRelationship indexes a relationship document.
func (s *Store) UpsertRelationship(ctx context.Context, doc RelationshipDocument) error {
	if doc.ID == "" {
		return fmt.Errorf("relationship document requires an id")
	}
	return s.upsert(ctx, doc.ID, DocTypeRelationship, doc, relationshipDocumentText(doc))
}

func (s *Store) upsert(ctx context.Context, id, docType string, doc any, text string) error {
	vector, err := s.embedder.CreateEmbedding(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed %s document %q: %w", docType, id, err)
	}

	encoded, err := encodeVector(vector)
	if err != nil {
		return fmt.Errorf("failed to encode embedding for %q: %w", id, err)
	}

	content, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize %s document %q: %w", docType, id, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents (id, doc_type, content, embedding, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, docType, string(content), encoded, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store %s document %q: %w", docType, id, err)
	}

	s.logger.Debug("indexed document", zap.String("id", id), zap.String("doc_type", docType))
	return nil
}

// SearchTables returns the tables most similar to the query, as entity
// candidates carrying their similarity as the search score.
func (s *Store) SearchTables(ctx context.Context, query string, limit int) ([]models.EntityCandidate, error) {
	if limit <= 0 {
		limit = 5
	}

	queryVector, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed search query: %w", err)
	}

	type scored struct {
		doc   TableDocument
		score float64
	}
	var results []scored

	err = s.scan(ctx, DocTypeTable, func(content string, vector []float32) error {
		var doc TableDocument
		if err := json.Unmarshal([]byte(content), &doc); err != nil {
			return err
		}
		results = append(results, scored{doc: doc, score: cosine32(queryVector, vector)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > limit {
		results = results[:limit]
	}

	candidates := make([]models.EntityCandidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, models.EntityCandidate{
			Name:            r.doc.Name,
			BusinessPurpose: r.doc.BusinessPurpose,
			SearchScore:     r.score,
		})
	}
	return candidates, nil
}

// SearchRelationships returns the relationships most similar to the query.
func (s *Store) SearchRelationships(ctx context.Context, query string, limit int) ([]RelationshipHit, error) {
	if limit <= 0 {
		limit = 5
	}

	queryVector, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed search query: %w", err)
	}

	var hits []RelationshipHit
	err = s.scan(ctx, DocTypeRelationship, func(content string, vector []float32) error {
		var doc RelationshipDocument
		if err := json.Unmarshal([]byte(content), &doc); err != nil {
			return err
		}
		hits = append(hits, RelationshipHit{Document: doc, Score: cosine32(queryVector, vector)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Count returns the number of stored documents of the given type.
func (s *Store) Count(ctx context.Context, docType string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE doc_type = ?`, docType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s documents: %w", docType, err)
	}
	return count, nil
}

// scan streams all documents of a type through fn. Documents with corrupt
// embeddings are skipped and logged rather than failing the search.
func (s *Store) scan(ctx context.Context, docType string, fn func(content string, vector []float32) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, embedding FROM documents WHERE doc_type = ?`, docType)
	if err != nil {
		return fmt.Errorf("failed to query %s documents: %w", docType, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, content string
		var encoded []byte
		if err := rows.Scan(&id, &content, &encoded); err != nil {
			return fmt.Errorf("failed to read document row: %w", err)
		}

		vector, err := decodeVector(encoded)
		if err != nil {
			s.logger.Warn("skipping document with corrupt embedding",
				zap.String("id", id), zap.Error(err))
			continue
		}

		if err := fn(content, vector); err != nil {
			s.logger.Warn("skipping unreadable document",
				zap.String("id", id), zap.Error(err))
		}
	}
	return rows.Err()
}

func tableDocumentText(doc TableDocument) string {
	var sb strings.Builder
	sb.WriteString("Table: ")
	sb.WriteString(doc.Name)
	if doc.BusinessPurpose != "" {
		sb.WriteString("\nPurpose: ")
		sb.WriteString(doc.BusinessPurpose)
	}
	if len(doc.Columns) > 0 {
		sb.WriteString("\nColumns: ")
		sb.WriteString(strings.Join(doc.Columns, ", "))
	}
	return sb.String()
}

func relationshipDocumentText(doc RelationshipDocument) string {
	var sb strings.Builder
	sb.WriteString("Relationship: ")
	sb.WriteString(doc.FromTable)
	sb.WriteString(" -> ")
	sb.WriteString(doc.ToTable)
	if doc.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(doc.Description)
	}
	return sb.String()
}
