package registry

import (
	"testing"

	"github.com/apache/arrow/go/arrow"
	"github.com/stretchr/testify/assert"
)

func TestArrowTypeMapping(t *testing.T) {
	tests := []struct {
		dt   IODataType
		want string
	}{
		{IODataTypeInteger, "i64"},
		{IODataTypeDecimal, "f64"},
		{IODataTypeBoolean, "bool"},
		{IODataTypeString, "utf8"},
		{IODataTypeTimestamp, "ts(ns,UTC)"},
		{IODataTypeAny, "utf8"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.dt.ArrowType())
	}
}

func TestArrowReturnsRealArrowDataTypes(t *testing.T) {
	assert.Equal(t, arrow.INT64, IODataTypeInteger.Arrow().ID())
	assert.Equal(t, arrow.FLOAT64, IODataTypeDecimal.Arrow().ID())
	assert.Equal(t, arrow.BOOL, IODataTypeBoolean.Arrow().ID())
	assert.Equal(t, arrow.STRING, IODataTypeString.Arrow().ID())
	assert.Equal(t, arrow.TIMESTAMP, IODataTypeTimestamp.Arrow().ID())

	ts, ok := IODataTypeTimestamp.Arrow().(*arrow.TimestampType)
	assert.True(t, ok)
	assert.Equal(t, "UTC", ts.TimeZone)
	assert.Equal(t, arrow.Nanosecond, ts.Unit)
}
