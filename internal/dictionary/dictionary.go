// Package dictionary translates Hebrew site-sheet labels into the vendor codes
// stored on players.
package dictionary

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"m4dsync/internal/services"
	"m4dsync/internal/textutil"
)

// Kind names one of the four translation tables.
type Kind string

const (
	City     Kind = "city"
	Reseller Kind = "reseller"
	ISP      Kind = "isp"
	Sector   Kind = "sector"
)

// DefaultSector is returned for sector labels without a mapping.
const DefaultSector = "GENERAL"

// ErrTranslationNotFound reports a city, reseller, or ISP label with no mapping.
var ErrTranslationNotFound = errors.New("translation not found")

var documentKeys = map[Kind]string{
	City:     "cities_dictionary",
	Reseller: "reseller_dictionary",
	ISP:      "ISP_dictionary",
	Sector:   "sector_dictionary",
}

// Kinds lists every table in a stable order.
func Kinds() []Kind {
	return []Kind{City, Reseller, ISP, Sector}
}

// DocumentKey returns the top-level JSON key holding the table for kind.
func (k Kind) DocumentKey() string {
	return documentKeys[k]
}

// Store holds the immutable translation tables.
type Store struct {
	tables map[Kind]map[string]string
}

// Load reads the dictionaries JSON document at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "dictionary", "load", "read dictionaries file", err)
	}
	store, err := Parse(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "dictionary", "load", path, err)
	}
	return store, nil
}

// Parse builds a Store from raw JSON. Missing tables are treated as empty.
// When two labels normalize to the same key, the first in document order wins.
func Parse(data []byte) (*Store, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode dictionaries: %w", err)
	}
	store := &Store{tables: make(map[Kind]map[string]string, len(documentKeys))}
	for kind, key := range documentKeys {
		table := make(map[string]string)
		if raw, ok := doc[key]; ok && !isNull(raw) {
			entries, err := decodeOrdered(raw)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", key, err)
			}
			for _, entry := range entries {
				label := textutil.NormalizeLabel(entry[0])
				if _, dup := table[label]; !dup {
					table[label] = entry[1]
				}
			}
		}
		store.tables[kind] = table
	}
	return store, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// decodeOrdered walks a flat JSON object of strings preserving key order.
func decodeOrdered(raw json.RawMessage) ([][2]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	var entries [][2]string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("value for %q: %w", key, err)
		}
		entries = append(entries, [2]string{key, value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Translate maps raw to its vendor code. Sector labels without a mapping
// return DefaultSector; other kinds fail with ErrTranslationNotFound.
func (s *Store) Translate(kind Kind, raw string) (string, error) {
	label := textutil.NormalizeLabel(raw)
	if code, ok := s.tables[kind][label]; ok {
		return code, nil
	}
	if kind == Sector {
		return DefaultSector, nil
	}
	if _, known := documentKeys[kind]; !known {
		return "", fmt.Errorf("dictionary: unknown kind %q", kind)
	}
	return "", fmt.Errorf("%w: %s %q not found in %s", ErrTranslationNotFound, kind, label, kind.DocumentKey())
}

// Keys returns the normalized label set for kind.
func (s *Store) Keys(kind Kind) map[string]struct{} {
	table := s.tables[kind]
	keys := make(map[string]struct{}, len(table))
	for label := range table {
		keys[label] = struct{}{}
	}
	return keys
}

// ValidCodes returns the set of non-empty codes for kind. The sector set
// always includes DefaultSector.
func (s *Store) ValidCodes(kind Kind) map[string]struct{} {
	table := s.tables[kind]
	codes := make(map[string]struct{}, len(table)+1)
	for _, code := range table {
		if code != "" {
			codes[code] = struct{}{}
		}
	}
	if kind == Sector {
		codes[DefaultSector] = struct{}{}
	}
	return codes
}

// Len reports the number of labels in kind.
func (s *Store) Len(kind Kind) int {
	return len(s.tables[kind])
}

// Labels returns the normalized labels for kind in sorted order.
func (s *Store) Labels(kind Kind) []string {
	labels := make([]string, 0, len(s.tables[kind]))
	for label := range s.tables[kind] {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
