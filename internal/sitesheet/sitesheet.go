package sitesheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"m4dsync/internal/config"
	"m4dsync/internal/services"
	"m4dsync/internal/textutil"
)

var (
	// ErrUnreadableFile reports that no configured encoding produced a header row.
	ErrUnreadableFile = fmt.Errorf("site sheet unreadable: %w", services.ErrConfiguration)
	// ErrMissingColumn reports a header without the site id column.
	ErrMissingColumn = fmt.Errorf("site sheet column missing: %w", services.ErrValidation)
	// ErrNotFound reports a site id with no row in the sheet.
	ErrNotFound = fmt.Errorf("site %w", services.ErrNotFound)
	// ErrEmptyField reports a matching row whose field is blank.
	ErrEmptyField = fmt.Errorf("site field empty: %w", services.ErrValidation)
)

// Field names a per-site column.
type Field string

const (
	City     Field = "city"
	Reseller Field = "reseller"
	ISP      Field = "isp"
	Sector   Field = "sector"
)

// Columns maps header names to fields.
type Columns struct {
	Site     string
	City     string
	Reseller string
	ISP      string
	Sector   string
}

// Options controls how the sheet is read.
type Options struct {
	Encodings []string
	Columns   Columns
}

// OptionsFromConfig builds Options from the [sheet] config section.
func OptionsFromConfig(sheet config.Sheet) Options {
	return Options{
		Encodings: append([]string(nil), sheet.Encodings...),
		Columns: Columns{
			Site:     sheet.SiteColumn,
			City:     sheet.CityColumn,
			Reseller: sheet.ResellerColumn,
			ISP:      sheet.ISPColumn,
			Sector:   sheet.SectorColumn,
		},
	}
}

// Index holds the sheet rows grouped by site id in file order.
type Index struct {
	encoding string
	siteCol  int
	fieldCol map[Field]int
	rows     map[string][][]string
	order    []string
}

// Load reads path under the first encoding in opts that decodes strictly and
// yields a header row.
func Load(path string, opts Options) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadableFile, path, err)
	}
	encodings := opts.Encodings
	if len(encodings) == 0 {
		encodings = config.DefaultEncodings()
	}

	var attempts []string
	for _, name := range encodings {
		records, err := readRecords(data, name)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		idx, err := buildIndex(records, opts.Columns)
		if err != nil {
			return nil, err
		}
		idx.encoding = name
		return idx, nil
	}
	return nil, fmt.Errorf("%w: %s (%s)", ErrUnreadableFile, path, strings.Join(attempts, "; "))
}

func readRecords(data []byte, encodingName string) ([][]string, error) {
	decode, err := decoderFor(encodingName)
	if err != nil {
		return nil, err
	}
	text, err := decode(data)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, errors.New("no header row")
	}
	return records, nil
}

func buildIndex(records [][]string, cols Columns) (*Index, error) {
	header := records[0]
	position := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, seen := position[name]; !seen {
			position[name] = i
		}
	}
	siteCol, ok := position[strings.TrimSpace(cols.Site)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, cols.Site)
	}
	idx := &Index{
		siteCol:  siteCol,
		fieldCol: make(map[Field]int, 4),
		rows:     make(map[string][][]string),
	}
	for field, name := range map[Field]string{City: cols.City, Reseller: cols.Reseller, ISP: cols.ISP, Sector: cols.Sector} {
		if col, ok := position[strings.TrimSpace(name)]; ok {
			idx.fieldCol[field] = col
		}
	}
	for _, record := range records[1:] {
		if siteCol >= len(record) {
			continue
		}
		site := strings.TrimSpace(record[siteCol])
		if site == "" {
			continue
		}
		if _, seen := idx.rows[site]; !seen {
			idx.order = append(idx.order, site)
		}
		idx.rows[site] = append(idx.rows[site], record)
	}
	return idx, nil
}

// Encoding reports the encoding the sheet was decoded with.
func (idx *Index) Encoding() string {
	return idx.encoding
}

// SiteIDs returns the distinct site ids in file order.
func (idx *Index) SiteIDs() []string {
	return append([]string(nil), idx.order...)
}

// Has reports whether any row carries siteID.
func (idx *Index) Has(siteID string) bool {
	_, ok := idx.rows[strings.TrimSpace(siteID)]
	return ok
}

// Field returns the value of field from the first row for siteID.
func (idx *Index) Field(siteID string, field Field) (string, error) {
	values, err := idx.values(siteID, field)
	if err != nil {
		return "", err
	}
	if values[0] == "" {
		return "", fmt.Errorf("%w: %s column empty for site %s", ErrEmptyField, field, siteID)
	}
	return values[0], nil
}

// Resolve scans every row for siteID and returns the first normalized value
// present in keys, else the first non-empty value.
func (idx *Index) Resolve(siteID string, field Field, keys map[string]struct{}) (string, error) {
	values, err := idx.values(siteID, field)
	if err != nil {
		return "", err
	}
	first := ""
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := keys[value]; ok {
			return value, nil
		}
		if first == "" {
			first = value
		}
	}
	if first == "" {
		return "", fmt.Errorf("%w: %s column empty for site %s", ErrEmptyField, field, siteID)
	}
	return first, nil
}

// values returns the normalized field value of every row for siteID that is
// wide enough to hold the column. An absent column yields one empty value.
func (idx *Index) values(siteID string, field Field) ([]string, error) {
	siteID = strings.TrimSpace(siteID)
	rows, ok := idx.rows[siteID]
	if !ok {
		return nil, fmt.Errorf("%w: site id %s not found in sheet", ErrNotFound, siteID)
	}
	col, ok := idx.fieldCol[field]
	if !ok {
		return []string{""}, nil
	}
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		values = append(values, textutil.NormalizeLabel(row[col]))
	}
	if len(values) == 0 {
		return []string{""}, nil
	}
	return values, nil
}
