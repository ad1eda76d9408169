// Package dataset holds the read-only view over raw delimited records that
// the aggregation pipeline counts.
package dataset

import "fmt"

// DefaultDelimiter separates fields in a body.
const DefaultDelimiter = ','

// Dataset is an immutable view over a delimited body (header excluded) and
// the schema describing its columns. It may be shared between engines.
type Dataset struct {
	body      string
	delimiter rune
	schema    Schema
}

// Option customises a Dataset.
type Option func(*Dataset)

// WithDelimiter overrides the field delimiter.
func WithDelimiter(r rune) Option {
	return func(d *Dataset) {
		d.delimiter = r
	}
}

// New wraps body with schema. No validation happens here; a malformed body is
// reported when it is aggregated.
func New(body string, schema Schema, opts ...Option) *Dataset {
	d := &Dataset{body: body, delimiter: DefaultDelimiter, schema: schema}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dataset) Body() string      { return d.body }
func (d *Dataset) Delimiter() rune   { return d.delimiter }
func (d *Dataset) Schema() Schema    { return d.schema }
func (d *Dataset) Columns() []string { return d.schema.Columns() }

// BucketsFor returns the bucket labels for field.
func (d *Dataset) BucketsFor(field string) []string {
	return d.schema.BucketsFor(field)
}

// DataError reports malformed or schema-mismatched input text.
type DataError struct {
	Line int
	Err  error
}

func (e *DataError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("data error at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("data error: %v", e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }
