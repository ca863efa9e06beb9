package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/queryforge-ai/queryforge-engine/pkg/llm"
)

// keywordEmbedder maps text onto a 3-dimensional vector by counting
// topic keywords, giving deterministic, meaningful similarities.
func keywordEmbedder() *llm.MockClient {
	mock := llm.NewMockClient()
	mock.CreateEmbeddingFunc = func(_ context.Context, input string) ([]float32, error) {
		lower := strings.ToLower(input)
		vector := make([]float32, 3)
		for i, topic := range []string{"customer", "order", "payment"} {
			vector[i] = float32(strings.Count(lower, topic))
		}
		// Avoid zero vectors for off-topic text.
		vector = append(vector, 0.1)
		return vector, nil
	}
	return mock
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "docs.db"), keywordEmbedder(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_UpsertAndSearchTables(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertTable(ctx, TableDocument{
		Name:            "customers",
		BusinessPurpose: "customer master records",
		Columns:         []string{"id", "name", "region"},
	}))
	require.NoError(t, s.UpsertTable(ctx, TableDocument{
		Name:            "payments",
		BusinessPurpose: "payment transactions per order",
	}))

	candidates, err := s.SearchTables(ctx, "customer details", 5)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "customers", candidates[0].Name)
	assert.Equal(t, "customer master records", candidates[0].BusinessPurpose)
	assert.Greater(t, candidates[0].SearchScore, candidates[1].SearchScore)
}

func TestStore_SearchLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"customers", "customer_notes", "customer_segments"} {
		require.NoError(t, s.UpsertTable(ctx, TableDocument{
			Name:            name,
			BusinessPurpose: "customer data",
		}))
	}

	candidates, err := s.SearchTables(ctx, "customer", 2)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestStore_UpsertReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertTable(ctx, TableDocument{Name: "customers", BusinessPurpose: "old purpose"}))
	require.NoError(t, s.UpsertTable(ctx, TableDocument{Name: "customers", BusinessPurpose: "customer master records"}))

	count, err := s.Count(ctx, DocTypeTable)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	candidates, err := s.SearchTables(ctx, "customer", 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "customer master records", candidates[0].BusinessPurpose)
}

func TestStore_UpsertTableRequiresName(t *testing.T) {
	s := newTestStore(t)

	err := s.UpsertTable(context.Background(), TableDocument{BusinessPurpose: "no name"})
	assert.Error(t, err)
}

func TestStore_Relationships(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRelationship(ctx, RelationshipDocument{
		ID:          "customers-orders",
		FromTable:   "customers",
		ToTable:     "orders",
		Description: "each order belongs to a customer",
	}))
	require.NoError(t, s.UpsertRelationship(ctx, RelationshipDocument{
		ID:          "orders-payments",
		FromTable:   "orders",
		ToTable:     "payments",
		Description: "payments settle orders",
	}))

	hits, err := s.SearchRelationships(ctx, "customer orders", 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "customers-orders", hits[0].Document.ID)

	count, err := s.Count(ctx, DocTypeRelationship)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStore_SearchEmptyStore(t *testing.T) {
	s := newTestStore(t)

	candidates, err := s.SearchTables(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestVectorCodecRoundTrip(t *testing.T) {
	original := []float32{0.1, -2.5, 3.75, 0}

	encoded, err := encodeVector(original)
	require.NoError(t, err)

	decoded, err := decodeVector(encoded)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestVectorCodec_Invalid(t *testing.T) {
	_, err := encodeVector(nil)
	assert.ErrorIs(t, err, ErrInvalidVector)

	_, err = decodeVector([]byte{1, 2})
	assert.ErrorIs(t, err, ErrInvalidVector)

	// Length prefix promises more data than present.
	truncated, err := encodeVector([]float32{1, 2, 3})
	require.NoError(t, err)
	_, err = decodeVector(truncated[:8])
	assert.ErrorIs(t, err, ErrInvalidVector)
}

func TestCosine32(t *testing.T) {
	assert.InDelta(t, 1.0, cosine32([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine32([]float32{1, 0}, []float32{0, 1}), 1e-9)
	// Negative similarity clamps to zero.
	assert.Equal(t, 0.0, cosine32([]float32{1, 0}, []float32{-1, 0}))
	// Dimension mismatch and zero vectors score zero.
	assert.Equal(t, 0.0, cosine32([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosine32([]float32{0, 0}, []float32{1, 2}))
}
