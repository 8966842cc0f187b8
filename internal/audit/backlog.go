package audit

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"m4dsync/internal/fileutil"
)

// NoteColumn is the header of the backlog's second column.
const NoteColumn = "note"

// Entry is one backlog row.
type Entry struct {
	SiteID string
	Note   string
}

// ReadBacklog loads site ids and notes from path, skipping the header, blank
// ids, and repeated ids. A missing file yields no entries.
func ReadBacklog(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backlog: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var entries []Entry
	seen := make(map[string]struct{})
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse backlog %s: %w", path, err)
		}
		if header {
			header = false
			continue
		}
		if len(record) == 0 {
			continue
		}
		site := strings.TrimSpace(record[0])
		if site == "" {
			continue
		}
		if _, dup := seen[site]; dup {
			continue
		}
		seen[site] = struct{}{}
		entry := Entry{SiteID: site}
		if len(record) > 1 {
			entry.Note = strings.TrimSpace(record[1])
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// WriteBacklog atomically replaces path with entries under the header
// [siteColumn, note].
func WriteBacklog(path, siteColumn string, entries []Entry) error {
	return fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		writer := csv.NewWriter(w)
		if err := writer.Write([]string{siteColumn, NoteColumn}); err != nil {
			return err
		}
		for _, entry := range entries {
			if err := writer.Write([]string{entry.SiteID, entry.Note}); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	})
}
