// Package value implements the scalar and option value domains of the
// dataflow engine: the tagged-sum Value type carried on frame columns and
// the broader OptionValue type carried on transform configuration options.
package value

import (
	"fmt"
	"math"
	"time"
)

// Kind tags the variant held by a Value. It doubles as the type_tag carried
// by a Null value, so only the five scalar kinds below are valid there.
type Kind int

const (
	KindDecimal Kind = iota
	KindInteger
	KindBoolean
	KindString
	KindTimestamp
	// KindNull is never returned by Value.Kind(); a null value reports the
	// kind it stands in for via Value.Kind(), and IsNull tells it apart. It
	// exists only as a guard value for APIs that accept a type_tag.
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindDecimal:
		return "Decimal"
	case KindInteger:
		return "Integer"
	case KindBoolean:
		return "Boolean"
	case KindString:
		return "String"
	case KindTimestamp:
		return "Timestamp"
	case KindNull:
		return "Null"
	default:
		return "Unknown"
	}
}

// Value is the closed scalar domain from spec §3.3. The zero Value is not a
// null: it reads as Decimal(0). Construct values through the constructors
// below.
type Value struct {
	kind     Kind
	isNull   bool
	nullKind Kind // valid scalar kind a null value stands in for
	dec      float64
	i        int64
	b        bool
	s        string
	ts       time.Time
}

// Decimal constructs a Decimal value.
func Decimal(f float64) Value { return Value{kind: KindDecimal, dec: f} }

// Integer constructs an Integer value.
func Integer(i int64) Value { return Value{kind: KindInteger, i: i} }

// Boolean constructs a Boolean value.
func Boolean(b bool) Value { return Value{kind: KindBoolean, b: b} }

// String constructs a String value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Timestamp constructs a Timestamp value; the time is normalized to UTC.
func Timestamp(t time.Time) Value { return Value{kind: KindTimestamp, ts: t.UTC()} }

// isValidScalarKind reports whether k may be carried by a scalar Value
// (untyped nulls, i.e. KindNull itself, are forbidden per spec §3.3).
func isValidScalarKind(k Kind) bool {
	switch k {
	case KindDecimal, KindInteger, KindBoolean, KindString, KindTimestamp:
		return true
	default:
		return false
	}
}

// Null constructs a typed null. Untyped nulls are forbidden: kind must be
// one of the five scalar kinds.
func Null(kind Kind) (Value, error) {
	if !isValidScalarKind(kind) {
		return Value{}, fmt.Errorf("value: untyped null is forbidden, got type_tag %s", kind)
	}
	return Value{kind: kind, isNull: true, nullKind: kind}, nil
}

// MustNull is Null but panics on an invalid type_tag; for use with
// compile-time-known kinds (e.g. synthesizing a typed-empty column).
func MustNull(kind Kind) Value {
	v, err := Null(kind)
	if err != nil {
		panic(err)
	}
	return v
}

// Kind returns the variant tag. For a null value this is the underlying
// type_tag, not a separate "Null" kind — callers use IsNull to detect it.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is a typed null.
func (v Value) IsNull() bool { return v.isNull }

// AsDecimal returns the value promoted to float64. Integer is always
// promotable to Decimal per spec §3.3; other kinds return ok=false.
func (v Value) AsDecimal() (float64, bool) {
	if v.isNull {
		return 0, false
	}
	switch v.kind {
	case KindDecimal:
		return v.dec, true
	case KindInteger:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsInteger returns the raw int64, only valid for Integer values.
func (v Value) AsInteger() (int64, bool) {
	if v.isNull || v.kind != KindInteger {
		return 0, false
	}
	return v.i, true
}

// AsBoolean returns the raw bool, only valid for Boolean values.
func (v Value) AsBoolean() (bool, bool) {
	if v.isNull || v.kind != KindBoolean {
		return false, false
	}
	return v.b, true
}

// AsString returns the raw string, only valid for String values.
func (v Value) AsString() (string, bool) {
	if v.isNull || v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsTimestamp returns the raw time, only valid for Timestamp values.
func (v Value) AsTimestamp() (time.Time, bool) {
	if v.isNull || v.kind != KindTimestamp {
		return time.Time{}, false
	}
	return v.ts, true
}

// IsNumeric reports whether v's kind is Decimal or Integer (promotable to
// Decimal), regardless of nullness. Used by sequence homogeneity checks.
func (v Value) IsNumeric() bool {
	return v.kind == KindDecimal || v.kind == KindInteger
}

// Equal compares two values for equality, including null-ness and kind.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind || v.isNull != other.isNull {
		return false
	}
	if v.isNull {
		return true
	}
	switch v.kind {
	case KindDecimal:
		if math.IsNaN(v.dec) && math.IsNaN(other.dec) {
			return true
		}
		return v.dec == other.dec
	case KindInteger:
		return v.i == other.i
	case KindBoolean:
		return v.b == other.b
	case KindString:
		return v.s == other.s
	case KindTimestamp:
		return v.ts.Equal(other.ts)
	default:
		return false
	}
}

// String renders a human-readable representation for debug/error output.
// Constant column names come from DerivedConstantName, not from String.
func (v Value) String() string {
	if v.isNull {
		return fmt.Sprintf("null_%s", v.nullKind)
	}
	switch v.kind {
	case KindDecimal:
		return fmt.Sprintf("%v", v.dec)
	case KindInteger:
		return fmt.Sprintf("%d", v.i)
	case KindBoolean:
		return fmt.Sprintf("%t", v.b)
	case KindString:
		return v.s
	case KindTimestamp:
		return v.ts.Format(time.RFC3339Nano)
	default:
		return "<invalid>"
	}
}
