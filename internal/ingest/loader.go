package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Load errors. All are fatal for the single input that produced them and are
// surfaced to the caller; they never abort other imports.
var (
	ErrEmptyInput         = errors.New("empty input")
	ErrUnreadableEncoding = errors.New("unreadable encoding")
	ErrMalformedStructure = errors.New("malformed tabular structure")
)

// RecordSet is the raw rectangular output of Load: a trimmed header plus rows
// padded or truncated to the header width. No semantic validation happens
// here; column content is the normalizer's concern.
type RecordSet struct {
	Columns       []string
	Rows          [][]string
	MalformedRows int

	index map[string]int
}

// Len returns the number of data rows.
func (rs *RecordSet) Len() int {
	return len(rs.Rows)
}

// Column returns the index of a column label, matching on trimmed text.
func (rs *RecordSet) Column(label string) (int, bool) {
	idx, ok := rs.index[strings.TrimSpace(label)]
	return idx, ok
}

// Value returns the cell at (row, label); ok is false when the column is absent.
func (rs *RecordSet) Value(row int, label string) (string, bool) {
	idx, ok := rs.index[strings.TrimSpace(label)]
	if !ok || row < 0 || row >= len(rs.Rows) {
		return "", false
	}
	return rs.Rows[row][idx], true
}

// Load parses raw CSV bytes into a RecordSet. It tries a fixed list of text
// encodings (UTF-8, UTF-16 with BOM, Latin-1) until one decodes, detects the
// field delimiter from the header line and tolerates ragged rows.
func Load(raw []byte) (*RecordSet, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("load csv: %w", ErrEmptyInput)
	}

	text, err := decode(raw)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = detectDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("load csv header: %w", ErrMalformedStructure)
	}

	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, label := range header {
		trimmed := strings.TrimSpace(stripBOM(label))
		columns[i] = trimmed
		if _, exists := index[trimmed]; !exists {
			index[trimmed] = i
		}
	}

	var rows [][]string
	malformed := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			malformed++
			continue
		}
		rows = append(rows, fitWidth(record, len(columns)))
	}

	if len(rows) == 0 {
		if malformed > 0 {
			return nil, fmt.Errorf("load csv: no parseable rows: %w", ErrMalformedStructure)
		}
		// Header-only input carries no data to analyze.
		return nil, fmt.Errorf("load csv: %w", ErrEmptyInput)
	}

	return &RecordSet{
		Columns:       columns,
		Rows:          rows,
		MalformedRows: malformed,
		index:         index,
	}, nil
}

// decode attempts the supported encodings in order and returns decoded text.
func decode(raw []byte) (string, error) {
	if hasUTF16BOM(raw) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, err := dec.Bytes(raw)
		if err == nil && isTextual(out) {
			return string(out), nil
		}
		return "", fmt.Errorf("decode utf-16: %w", ErrUnreadableEncoding)
	}

	if utf8.Valid(raw) {
		if !isTextual(raw) {
			return "", fmt.Errorf("decode: binary content: %w", ErrUnreadableEncoding)
		}
		return stripBOM(string(raw)), nil
	}

	// Latin-1 maps every byte, so this is the last resort for legacy exports.
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil || !isTextual(out) {
		return "", fmt.Errorf("decode latin-1: %w", ErrUnreadableEncoding)
	}
	return string(out), nil
}

func hasUTF16BOM(raw []byte) bool {
	if len(raw) < 2 {
		return false
	}
	return (raw[0] == 0xFF && raw[1] == 0xFE) || (raw[0] == 0xFE && raw[1] == 0xFF)
}

// isTextual rejects decoded content that still looks binary (NUL bytes).
func isTextual(b []byte) bool {
	return !bytes.ContainsRune(b, 0x00)
}

func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

// detectDelimiter picks the most frequent candidate separator in the header line.
func detectDelimiter(text string) rune {
	line := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		line = text[:idx]
	}
	best := ','
	bestCount := strings.Count(line, ",")
	for _, cand := range []string{";", "\t"} {
		if n := strings.Count(line, cand); n > bestCount {
			best = rune(cand[0])
			bestCount = n
		}
	}
	return best
}

func fitWidth(record []string, width int) []string {
	if len(record) == width {
		return record
	}
	out := make([]string, width)
	copy(out, record)
	return out
}
