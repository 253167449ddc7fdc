package registry

import "github.com/apache/arrow/go/arrow"

// IODataType is the declared type of an input or output handle (spec §3.8),
// and the key used by the storage layer's null-synthesis type map (§4.3).
type IODataType int

const (
	IODataTypeDecimal IODataType = iota
	IODataTypeInteger
	IODataTypeBoolean
	IODataTypeString
	IODataTypeTimestamp
	// IODataTypeAny stands for a handle whose concrete type is determined at
	// execution time; per Open Question decision D.2 it always maps to
	// arrow utf8 with a warning when a null column must be synthesized.
	IODataTypeAny
)

var ioDataTypeNames = map[IODataType]string{
	IODataTypeDecimal:   "Decimal",
	IODataTypeInteger:   "Integer",
	IODataTypeBoolean:   "Boolean",
	IODataTypeString:    "String",
	IODataTypeTimestamp: "Timestamp",
	IODataTypeAny:       "Any",
}

func (t IODataType) String() string {
	if s, ok := ioDataTypeNames[t]; ok {
		return s
	}
	return "Unknown"
}

// Arrow returns the arrow.DataType this IODataType maps onto, per spec
// §4.3's type-mapping table.
func (t IODataType) Arrow() arrow.DataType {
	switch t {
	case IODataTypeInteger:
		return arrow.PrimitiveTypes.Int64
	case IODataTypeDecimal:
		return arrow.PrimitiveTypes.Float64
	case IODataTypeBoolean:
		return arrow.FixedWidthTypes.Boolean
	case IODataTypeString:
		return arrow.BinaryTypes.String
	case IODataTypeTimestamp:
		return &arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "UTC"}
	case IODataTypeAny:
		// Per Open Question decision D.2, Any always maps to utf8.
		return arrow.BinaryTypes.String
	default:
		return arrow.BinaryTypes.String
	}
}

// ArrowType renders Arrow's own type id as spec §4.3's short type-tag string
// (`i64`, `f64`, `bool`, `utf8`, `ts(ns,UTC)`), used only when synthesizing a
// typed all-null column for a declared output missing from a transform's
// returned frame.
func (t IODataType) ArrowType() string {
	switch t.Arrow().ID() {
	case arrow.INT64:
		return "i64"
	case arrow.FLOAT64:
		return "f64"
	case arrow.BOOL:
		return "bool"
	case arrow.TIMESTAMP:
		return "ts(ns,UTC)"
	default:
		return "utf8"
	}
}
