package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/patrickmn/go-cache"
	"golang.org/x/text/encoding/charmap"
)

// Required dataset columns, in source naming.
var requiredColumns = []string{"CAFE", "UBICACION", "TOSTADOR", "PUNTAJE", "LAT", "LONG"}

// SchemaError reports mandatory columns absent from the dataset header.
// It is fatal for the load; there is no partial recovery.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "dataset missing required columns: " + strings.Join(e.Missing, ", ")
}

// Loader parses cafe records from a Source and caches the result.
// Remote sources expire after the configured TTL; local files stay
// cached until Invalidate is called.
type Loader struct {
	src   Source
	cache *cache.Cache
}

// NewLoader creates a loader. ttl bounds how long a remote dataset is
// served from cache; zero means a 15 minute default.
func NewLoader(src Source, ttl time.Duration) *Loader {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Loader{
		src:   src,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Load returns the parsed catalog, fetching and parsing the source only
// on cache miss.
func (l *Loader) Load(ctx context.Context) ([]Record, error) {
	if cached, ok := l.cache.Get(l.src.Name()); ok {
		return cached.([]Record), nil
	}

	data, err := l.src.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	records, err := Parse(data)
	if err != nil {
		return nil, err
	}

	ttl := cache.DefaultExpiration
	if !l.src.Remote() {
		ttl = cache.NoExpiration
	}
	l.cache.Set(l.src.Name(), records, ttl)
	return records, nil
}

// Invalidate drops the cached catalog so the next Load re-reads the
// source.
func (l *Loader) Invalidate() {
	l.cache.Delete(l.src.Name())
}

// Parse decodes and parses raw dataset bytes into records. The text is
// decoded by trying UTF-8, UTF-8 with BOM, Windows-1252 and ISO-8859-1
// in that order; per-field mojibake repair and numeric normalization
// are applied afterwards.
func Parse(data []byte) ([]Record, error) {
	text := decodeBytes(data)

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse dataset csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, &SchemaError{Missing: requiredColumns}
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, row := range rows[1:] {
		field := func(name string) string {
			idx := cols[name]
			if idx >= len(row) {
				return ""
			}
			return FixMojibake(strings.TrimSpace(row[idx]))
		}

		rec := Record{
			Name:     field("CAFE"),
			Location: field("UBICACION"),
			Roaster:  field("TOSTADOR"),
			Score:    parseFloat(field("PUNTAJE")),
			Lat:      parseFloat(field("LAT")),
			Lon:      parseFloat(field("LONG")),
		}
		if rec.Name == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// headerIndex maps required column names to their positions, or returns
// a SchemaError naming every absent column.
func headerIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToUpper(strings.TrimSpace(h))] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return cols, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeBytes tries a fixed priority order of encodings and returns the
// first clean decode. A total miss falls back to the raw bytes.
func decodeBytes(data []byte) string {
	if bytes.HasPrefix(data, utf8BOM) {
		trimmed := bytes.TrimPrefix(data, utf8BOM)
		if utf8.Valid(trimmed) {
			return string(trimmed)
		}
		data = trimmed
	}
	if utf8.Valid(data) {
		return string(data)
	}
	if s, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil && !bytes.ContainsRune(s, utf8.RuneError) {
		return string(s)
	}
	if s, err := charmap.ISO8859_1.NewDecoder().Bytes(data); err == nil {
		return string(s)
	}
	return string(data)
}
