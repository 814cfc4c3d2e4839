package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

// Column names recognized in benchmark TSV files. tweet_id and tweet_text
// are required; everything else rides along as record metadata.
const (
	columnID   = "tweet_id"
	columnText = "tweet_text"
)

// DatasetIngestor loads claim/check-worthiness benchmark datasets (TSV,
// one row per tweet) into the corpus store.
type DatasetIngestor struct {
	indexer  *Indexer
	progress bool
}

// NewDatasetIngestor creates a dataset ingestor. With progress enabled a
// terminal progress bar tracks the embedding work.
func NewDatasetIngestor(indexer *Indexer, progress bool) *DatasetIngestor {
	return &DatasetIngestor{indexer: indexer, progress: progress}
}

// IngestFile loads one TSV dataset, returning the number of records
// upserted. Rows without an id or usable text are skipped with a warning,
// not fatal: benchmark dumps routinely contain a few broken lines.
func (d *DatasetIngestor) IngestFile(ctx context.Context, path string) (int, error) {
	rows, header, err := readTSV(path)
	if err != nil {
		return 0, err
	}

	idCol, ok := header[columnID]
	if !ok {
		return 0, fmt.Errorf("%s: missing required column %q", path, columnID)
	}
	textCol, ok := header[columnText]
	if !ok {
		return 0, fmt.Errorf("%s: missing required column %q", path, columnText)
	}

	var bar *progressbar.ProgressBar
	if d.progress {
		bar = progressbar.Default(int64(len(rows)), filepath.Base(path))
	}

	source := filepath.Base(path)
	count := 0
	for lineNo, row := range rows {
		if bar != nil {
			_ = bar.Add(1)
		}
		if err := ctx.Err(); err != nil {
			return count, err
		}

		if idCol >= len(row) || textCol >= len(row) {
			logrus.WithFields(logrus.Fields{"file": source, "line": lineNo + 2}).Warn("short row, skipping")
			continue
		}

		id := strings.TrimSpace(row[idCol])
		if id == "" {
			logrus.WithFields(logrus.Fields{"file": source, "line": lineNo + 2}).Warn("row without id, skipping")
			continue
		}

		metadata := map[string]string{"source_filename": source}
		for name, col := range header {
			if name == columnID || name == columnText || col >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[col]); v != "" {
				metadata[name] = v
			}
		}

		if err := d.indexer.UpsertEvidence(ctx, id, row[textCol], metadata); err != nil {
			logrus.WithFields(logrus.Fields{
				"file":  source,
				"id":    id,
				"error": err,
			}).Warn("failed to index row, skipping")
			continue
		}
		count++
	}

	logrus.WithFields(logrus.Fields{"file": source, "indexed": count, "rows": len(rows)}).Info("dataset ingested")
	return count, nil
}

// readTSV reads the whole file, mapping header names to column indexes.
// Non-UTF-8 input falls back to a Latin-1 interpretation, matching how the
// benchmark dumps were produced.
func readTSV(path string) ([][]string, map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read dataset: %w", err)
	}

	if !utf8.Valid(data) {
		data = latin1ToUTF8(data)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s: empty dataset", filepath.Base(path))
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}

	return records[1:], header, nil
}

func latin1ToUTF8(data []byte) []byte {
	out := make([]rune, len(data))
	for i, b := range data {
		out[i] = rune(b)
	}
	return []byte(string(out))
}
