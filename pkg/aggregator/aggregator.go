// Package aggregator turns a delimited body into a count vector over the
// declared buckets of one field.
package aggregator

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sahithikokkula/Hackathon-E6Data/noiser/pkg/dataset"
)

// ErrUnknownField is returned when the selected field is not a schema column.
var ErrUnknownField = errors.New("field is not a schema column")

// CountVector holds one count per bucket, aligned with the bucket labels.
type CountVector []uint64

// Sum returns the total of all buckets.
func (c CountVector) Sum() uint64 {
	var total uint64
	for _, v := range c {
		total += v
	}
	return total
}

// Pipeline is a prepared split -> select -> count chain for one field.
type Pipeline struct {
	ds      *dataset.Dataset
	field   string
	column  int
	width   int
	buckets []string
	index   map[string]int
}

// Build prepares the pipeline for field. It fails when the field cannot be
// selected from the dataset's columns.
func Build(ds *dataset.Dataset, field string) (*Pipeline, error) {
	if ds == nil {
		return nil, errors.New("aggregator: nil dataset")
	}
	schema := ds.Schema()
	col, ok := schema.Index(field)
	if !ok {
		return nil, fmt.Errorf("select %q: %w", field, ErrUnknownField)
	}

	buckets := schema.BucketsFor(field)
	index := make(map[string]int, len(buckets))
	for i, b := range buckets {
		index[b] = i
	}

	return &Pipeline{
		ds:      ds,
		field:   field,
		column:  col,
		width:   len(schema.Columns()),
		buckets: buckets,
		index:   index,
	}, nil
}

// Buckets returns the labels the output vector is aligned with.
func (p *Pipeline) Buckets() []string {
	out := make([]string, len(p.buckets))
	copy(out, p.buckets)
	return out
}

// Invoke runs the pipeline over the dataset body. Any malformed row fails the
// whole run; no partial vector is returned.
func (p *Pipeline) Invoke() (CountVector, error) {
	counts := make(CountVector, len(p.buckets))

	r := csv.NewReader(strings.NewReader(p.ds.Body()))
	r.Comma = p.ds.Delimiter()
	r.FieldsPerRecord = p.width
	r.ReuseRecord = true

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, toDataError(err)
		}

		value := record[p.column]
		if i, ok := p.index[value]; ok {
			counts[i]++
		}
	}
	return counts, nil
}

// Aggregate counts field over ds, one entry per bucket of the field.
func Aggregate(ds *dataset.Dataset, field string) (CountVector, error) {
	p, err := Build(ds, field)
	if err != nil {
		return nil, err
	}
	return p.Invoke()
}

func toDataError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &dataset.DataError{Line: pe.Line, Err: pe.Err}
	}
	return &dataset.DataError{Err: err}
}
