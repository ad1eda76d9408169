package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// LoadFile reads a delimited file, drops its header line and wraps the rest.
func LoadFile(path string, schema Schema, opts ...Option) (*Dataset, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return New(StripHeader(string(content)), schema, opts...), nil
}

// StripHeader removes the first line of a delimited text. A body without a
// newline is a header only and yields an empty body.
func StripHeader(content string) string {
	content = strings.TrimPrefix(content, "\uFEFF")
	idx := strings.IndexByte(content, '\n')
	if idx == -1 {
		return ""
	}
	return content[idx+1:]
}

// FromRecords renders rows as a delimited body in schema column order.
func FromRecords(rows [][]string, schema Schema, opts ...Option) (*Dataset, error) {
	d := New("", schema, opts...)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = d.delimiter
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("render records: %w", err)
	}
	d.body = buf.String()
	return d, nil
}
