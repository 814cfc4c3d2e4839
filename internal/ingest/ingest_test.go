package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/claimtriage/checkprioritizer/internal/store"
)

// hashEmbedder derives a deterministic vector from the text bytes
type hashEmbedder struct {
	dimension int
	calls     int
}

func (e *hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	vector := make([]float32, e.dimension)
	for i, b := range []byte(text) {
		vector[i%e.dimension] += float32(b) / 255
	}
	return vector, nil
}

func (e *hashEmbedder) Dimension() int { return e.dimension }

func newTestIndexer(t *testing.T) (*Indexer, store.CorpusStore) {
	t.Helper()
	s, err := store.NewMemoryStore(4)
	if err != nil {
		t.Fatalf("NewMemoryStore failed: %v", err)
	}
	return NewIndexer(&hashEmbedder{dimension: 4}, s), s
}

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.tsv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func TestIndexer_UpsertEvidence(t *testing.T) {
	indexer, corpus := newTestIndexer(t)
	ctx := context.Background()

	err := indexer.UpsertEvidence(ctx, "E1", "  Vaccines   undergo  trials.  ", map[string]string{"lang": "en"})
	if err != nil {
		t.Fatalf("UpsertEvidence failed: %v", err)
	}

	rec, err := corpus.Get(ctx, "E1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Text != "Vaccines undergo trials." {
		t.Errorf("text not sanitized: %q", rec.Text)
	}
	if rec.Metadata["lang"] != "en" {
		t.Errorf("metadata lost: %+v", rec.Metadata)
	}
	if len(rec.Embedding) != 4 {
		t.Errorf("embedding not stored, got %d dims", len(rec.Embedding))
	}
}

func TestIndexer_UpsertEvidence_Rejections(t *testing.T) {
	indexer, _ := newTestIndexer(t)
	ctx := context.Background()

	if err := indexer.UpsertEvidence(ctx, "", "some text", nil); err == nil {
		t.Error("empty id should be rejected")
	}
	if err := indexer.UpsertEvidence(ctx, "E1", "https://example.com/only-a-url", nil); err == nil {
		t.Error("text that sanitizes away should be rejected")
	}
}

func TestIndexer_UpsertEvidence_Idempotent(t *testing.T) {
	indexer, corpus := newTestIndexer(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := indexer.UpsertEvidence(ctx, "E1", "stable text", nil); err != nil {
			t.Fatalf("upsert %d failed: %v", i, err)
		}
	}

	n, err := corpus.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 record after repeated upsert, got %d", n)
	}
}

func TestIngestFile(t *testing.T) {
	indexer, corpus := newTestIndexer(t)
	ingestor := NewDatasetIngestor(indexer, false)

	path := writeDataset(t, "tweet_id\ttweet_text\tclass_label\n"+
		"1001\tVaccines cause autism says a local politician.\t1\n"+
		"1002\tCheck out this cute dog https://example.com/dog.jpg\t0\n")

	count, err := ingestor.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 records indexed, got %d", count)
	}

	rec, err := corpus.Get(context.Background(), "1001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Metadata["class_label"] != "1" {
		t.Errorf("extra column should land in metadata: %+v", rec.Metadata)
	}
	if rec.Metadata["source_filename"] != "dataset.tsv" {
		t.Errorf("source filename missing: %+v", rec.Metadata)
	}

	rec, err = corpus.Get(context.Background(), "1002")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Text != "Check out this cute dog" {
		t.Errorf("URL should be stripped during ingest: %q", rec.Text)
	}
}

func TestIngestFile_SkipsBrokenRows(t *testing.T) {
	indexer, corpus := newTestIndexer(t)
	ingestor := NewDatasetIngestor(indexer, false)

	path := writeDataset(t, "tweet_id\ttweet_text\n"+
		"2001\tA perfectly fine claim.\n"+
		"\tRow without an id.\n"+
		"2003\thttps://example.com/nothing-but-a-url\n"+
		"2004\n"+
		"2005\tAnother fine claim.\n")

	count, err := ingestor.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 good rows, got %d", count)
	}

	n, _ := corpus.Count(context.Background())
	if n != 2 {
		t.Errorf("expected 2 records in corpus, got %d", n)
	}
}

func TestIngestFile_HeaderCaseInsensitive(t *testing.T) {
	indexer, _ := newTestIndexer(t)
	ingestor := NewDatasetIngestor(indexer, false)

	path := writeDataset(t, "Tweet_ID\tTweet_Text\n3001\tUppercase headers still work.\n")

	count, err := ingestor.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 record, got %d", count)
	}
}

func TestIngestFile_MissingColumns(t *testing.T) {
	indexer, _ := newTestIndexer(t)
	ingestor := NewDatasetIngestor(indexer, false)

	path := writeDataset(t, "id\ttext\n1\thello\n")

	if _, err := ingestor.IngestFile(context.Background(), path); err == nil {
		t.Error("dataset without the required columns should fail")
	}
}

func TestIngestFile_Latin1Fallback(t *testing.T) {
	indexer, corpus := newTestIndexer(t)
	ingestor := NewDatasetIngestor(indexer, false)

	// 0xE9 is é in Latin-1 and invalid UTF-8 on its own
	content := append([]byte("tweet_id\ttweet_text\n4001\tcaf"), 0xE9)
	content = append(content, []byte(" claims\n")...)
	path := filepath.Join(t.TempDir(), "latin1.tsv")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	count, err := ingestor.IngestFile(context.Background(), path)
	if err != nil {
		t.Fatalf("IngestFile failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	rec, err := corpus.Get(context.Background(), "4001")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Text != "café claims" {
		t.Errorf("expected Latin-1 fallback decoding, got %q", rec.Text)
	}
}

func TestIngestFile_NotFound(t *testing.T) {
	indexer, _ := newTestIndexer(t)
	ingestor := NewDatasetIngestor(indexer, false)

	if _, err := ingestor.IngestFile(context.Background(), "/nonexistent/dataset.tsv"); err == nil {
		t.Error("missing file should fail")
	}
}
