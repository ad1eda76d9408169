package dataset

import "strconv"

// Column names of the census extract, in file order.
const (
	ColumnAge     = "age"
	ColumnSex     = "sex"
	ColumnEduc    = "educ"
	ColumnRace    = "race"
	ColumnIncome  = "income"
	ColumnMarried = "married"
)

const (
	defaultBucketCount = 20
	incomeBandWidth    = 10000
	incomeBandCount    = 20
)

var defaultColumns = []string{ColumnAge, ColumnSex, ColumnEduc, ColumnRace, ColumnIncome, ColumnMarried}

// Schema declares the column order of a delimited body and the bucket
// enumeration used to count each column.
type Schema struct {
	columns []string
}

// DefaultSchema returns the fixed census schema.
func DefaultSchema() Schema {
	return NewSchema(defaultColumns...)
}

// NewSchema builds a schema over the given column order.
func NewSchema(columns ...string) Schema {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Schema{columns: cols}
}

// Columns returns the column names in order.
func (s Schema) Columns() []string {
	out := make([]string, len(s.columns))
	copy(out, s.columns)
	return out
}

// Index returns the position of field in the column order.
func (s Schema) Index(field string) (int, bool) {
	for i, c := range s.columns {
		if c == field {
			return i, true
		}
	}
	return -1, false
}

// Has reports whether field is one of the schema columns.
func (s Schema) Has(field string) bool {
	_, ok := s.Index(field)
	return ok
}

// BucketsFor returns the ordered bucket labels counted for field. The result
// depends only on the field name: income is banded in 10,000 steps from
// 10,000 to 200,000, everything else uses the codes "1".."20".
func (s Schema) BucketsFor(field string) []string {
	switch field {
	case ColumnIncome:
		return incomeBuckets()
	default:
		return numericBuckets(1, defaultBucketCount)
	}
}

func numericBuckets(from, n int) []string {
	out := make([]string, 0, n)
	for i := from; i < from+n; i++ {
		out = append(out, strconv.Itoa(i))
	}
	return out
}

func incomeBuckets() []string {
	out := make([]string, 0, incomeBandCount)
	for i := 1; i <= incomeBandCount; i++ {
		out = append(out, strconv.Itoa(i*incomeBandWidth))
	}
	return out
}
