package flatfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/RoqueChristian/inventario/internal/dataset"
	"github.com/RoqueChristian/inventario/internal/domain/models"
)

// ErrNoColumns is returned for files without a header line.
var ErrNoColumns = errors.New("no columns to parse from file")

// ErrUnsupportedEncoding is returned by NewLoader for unknown encodings.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

const defaultComma = ';'

// dateLayouts are tried in order. Extraction jobs write ISO dates for
// movements and dd/mm/yyyy for pending notes.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02/01/2006 15:04:05",
}

// readStats counts cells that were replaced by a default during coercion.
type readStats struct {
	rows    int
	coerced map[string]int
}

// decodeReader wraps r so the CSV reader sees UTF-8 without a byte order mark.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8", "utf-8-sig":
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	case "iso-8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, encoding)
	}
}

// readTable parses a delimited file into a normalized table.
func readTable(r io.Reader, mt models.MovementType, encoding string, comma rune) (*dataset.Table, readStats, error) {
	stats := readStats{coerced: map[string]int{}}

	decoded, err := decodeReader(r, encoding)
	if err != nil {
		return nil, stats, err
	}

	reader := csv.NewReader(decoded)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, stats, ErrNoColumns
	}
	if err != nil {
		return nil, stats, fmt.Errorf("read header: %w", err)
	}

	columns := make([]dataset.Column, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		columns[i] = dataset.Column{Name: name, Kind: columnKind(name, mt)}
	}

	table, err := dataset.New(columns)
	if err != nil {
		return nil, stats, err
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read row: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) > len(columns) {
			return nil, stats, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(columns), len(record))
		}

		row := make([]dataset.Value, len(columns))
		for i, col := range columns {
			raw := ""
			if i < len(record) {
				raw = record[i]
			}
			v, ok := coerce(raw, col.Kind)
			if !ok {
				stats.coerced[col.Name]++
			}
			row[i] = v
		}
		if err := table.Append(row); err != nil {
			return nil, stats, fmt.Errorf("line %d: %w", line, err)
		}
		stats.rows++
	}

	return table, stats, nil
}

// columnKind decides how a column is typed. Identifiers always stay text;
// value/quantity columns are numeric; the movement's date column is a date.
func columnKind(name string, mt models.MovementType) dataset.Kind {
	if slices.Contains(models.IdentifierColumns, name) {
		return dataset.KindText
	}
	for _, marker := range models.NumericMarkers {
		if strings.Contains(name, marker) {
			return dataset.KindNumber
		}
	}
	if name == mt.DateColumn() {
		return dataset.KindDate
	}
	return dataset.KindText
}

// coerce converts a raw field. ok is false when a non-empty field had to be
// replaced by the kind's default (zero or missing date).
func coerce(raw string, kind dataset.Kind) (dataset.Value, bool) {
	switch kind {
	case dataset.KindNumber:
		d, ok := parseNumber(raw)
		return dataset.Number(d), ok || strings.TrimSpace(raw) == ""
	case dataset.KindDate:
		t, ok := parseDate(raw)
		return dataset.Date(t), ok || strings.TrimSpace(raw) == ""
	default:
		return dataset.Text(strings.TrimSpace(raw)), true
	}
}

// parseNumber reads a decimal-comma number such as "1.234,56". Anything it
// cannot read is zero, and so is exponent notation.
func parseNumber(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.IndexFunc(s, notNumeric) >= 0 {
		return decimal.Zero, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func notNumeric(r rune) bool {
	return (r < '0' || r > '9') && r != '.' && r != ',' && r != '-' && r != '+'
}

// parseDate returns the zero time when no layout matches.
func parseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
