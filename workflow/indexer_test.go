package workflow

import (
	"context"
	"strings"
	"testing"

	"github.com/poiesic/cortexsync/core"
	"github.com/poiesic/cortexsync/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepos(t *testing.T) *badger.MemoryRepositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func embed(items []core.Item) core.EmbeddingBatch {
	batch := make(core.EmbeddingBatch, len(items))
	for i, item := range items {
		batch[i] = core.Embedding{Item: item, Vector: []float32{1, float32(i)}}
	}
	return batch
}

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "synapse_notes", CollectionName("notes"))
}

func TestNewIndexWriter_NilRepository(t *testing.T) {
	_, err := NewIndexWriter(nil)
	assert.ErrorIs(t, err, ErrIndexerRequired)
}

func TestIndexWriter_Index(t *testing.T) {
	repos := newTestRepos(t)
	writer, err := NewIndexWriter(repos.Index)
	require.NoError(t, err)
	ctx := context.Background()

	items := makeItems("note", 3)
	items[0].Metadata = map[string]string{"source": "note"}

	n, err := writer.Index(ctx, "notes", embed(items))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	count, err := repos.Index.Count(ctx, "synapse_notes")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	doc, err := repos.Index.GetDocument(ctx, "synapse_notes", "note:0")
	require.NoError(t, err)
	assert.Equal(t, "note text 0", doc.Text)
	assert.Equal(t, "note", doc.Metadata["source"])
}

func TestIndexWriter_Idempotent(t *testing.T) {
	repos := newTestRepos(t)
	writer, err := NewIndexWriter(repos.Index)
	require.NoError(t, err)
	ctx := context.Background()

	batch := embed(makeItems("cite", 4))
	_, err = writer.Index(ctx, "citations", batch)
	require.NoError(t, err)
	first, err := repos.Index.GetDocument(ctx, "synapse_citations", "cite:2")
	require.NoError(t, err)

	n, err := writer.Index(ctx, "citations", batch)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	count, err := repos.Index.Count(ctx, "synapse_citations")
	require.NoError(t, err)
	assert.Equal(t, 4, count, "replaying a batch must not duplicate documents")

	second, err := repos.Index.GetDocument(ctx, "synapse_citations", "cite:2")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestIndexWriter_Empty(t *testing.T) {
	repos := newTestRepos(t)
	writer, err := NewIndexWriter(repos.Index)
	require.NoError(t, err)

	n, err := writer.Index(context.Background(), "notes", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndexWriter_TruncatesText(t *testing.T) {
	repos := newTestRepos(t)
	writer, err := NewIndexWriter(repos.Index)
	require.NoError(t, err)
	ctx := context.Background()

	long := strings.Repeat("é", DefaultPreviewLength+20)
	_, err = writer.Index(ctx, "notes", core.EmbeddingBatch{{Item: core.Item{ID: "note:1", Text: long}, Vector: []float32{1}}})
	require.NoError(t, err)

	doc, err := repos.Index.GetDocument(ctx, "synapse_notes", "note:1")
	require.NoError(t, err)
	assert.Equal(t, DefaultPreviewLength, len([]rune(doc.Text)))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"hello", 0, "hello"},
		{"", 3, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.n), "truncate(%q, %d)", tt.in, tt.n)
	}
}
