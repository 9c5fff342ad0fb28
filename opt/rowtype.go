package opt

import "strings"

// SQLType is a coarse column type tag. The optimizer only needs types for
// average-row-size estimation and display; it never validates them.
type SQLType string

const (
	TypeUnknown  SQLType = "unknown"
	TypeInt      SQLType = "int"
	TypeBigInt   SQLType = "bigint"
	TypeFloat    SQLType = "float"
	TypeVarchar  SQLType = "varchar"
	TypeText     SQLType = "text"
	TypeBool     SQLType = "bool"
	TypeDate     SQLType = "date"
	TypeTimestamp SQLType = "timestamp"
)

// defaultWidths gives a byte-size default for averageRowSize/averageColumnSizes
// when a provider has no better estimate.
var defaultWidths = map[SQLType]float64{
	TypeUnknown:   8,
	TypeInt:       4,
	TypeBigInt:    8,
	TypeFloat:     8,
	TypeVarchar:   32,
	TypeText:      128,
	TypeBool:      1,
	TypeDate:      4,
	TypeTimestamp: 8,
}

// DefaultWidth returns the default byte width used by the averageColumnSizes
// provider when no statistics are available.
func (t SQLType) DefaultWidth() float64 {
	if w, ok := defaultWidths[t]; ok {
		return w
	}
	return 8
}

// Column is one entry of a RowType: a name, a SQL type, and a nullability
// flag.
type Column struct {
	Name     string
	Type     SQLType
	Nullable bool
}

// RowType is an ordered list of columns. Column position is significant:
// scalar expressions reference columns by position (see ScalarExpr).
type RowType []Column

// Names returns the column names in order, for display.
func (r RowType) Names() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Name
	}
	return out
}

func (r RowType) String() string {
	return "(" + strings.Join(r.Names(), ", ") + ")"
}

// IndexOf returns the position of the named column, or -1.
func (r RowType) IndexOf(name string) int {
	for i, c := range r {
		if c.Name == name {
			return i
		}
	}
	return -1
}
