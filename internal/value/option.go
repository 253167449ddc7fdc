package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// OptionKind tags the variant held by an OptionValue: the broader domain
// carried by user-supplied transform options (spec §3.4), a superset of the
// scalar Value domain.
type OptionKind int

const (
	OptionKindScalar OptionKind = iota
	OptionKindSequence
	OptionKindTime
	OptionKindRef
	OptionKindEventMarkerSchema
	OptionKindTableReportSchema
	OptionKindSqlStatement
)

func (k OptionKind) String() string {
	switch k {
	case OptionKindScalar:
		return "Scalar"
	case OptionKindSequence:
		return "Sequence"
	case OptionKindTime:
		return "Time"
	case OptionKindRef:
		return "Ref"
	case OptionKindEventMarkerSchema:
		return "EventMarkerSchema"
	case OptionKindTableReportSchema:
		return "TableReportSchema"
	case OptionKindSqlStatement:
		return "SqlStatement"
	default:
		return "Unknown"
	}
}

// TimeValue is a wall-clock time of day with a zone name, used by session
// and schedule options (spec §3.4's Time(h, m, s, µs, tz)).
type TimeValue struct {
	Hour        int
	Minute      int
	Second      int
	Microsecond int
	Zone        string
}

// ColumnSchema names one column of a structured report/marker payload.
type ColumnSchema struct {
	Name string
	Type Kind
}

// EventMarkerSchema is the structured payload carried by EventMarker-category
// transform options (spec §3.12 consumes this to build the marker's schema).
type EventMarkerSchema struct {
	Title     string
	Icon      string
	SelectKey string
	Columns   []ColumnSchema
}

// TableReportSchema is the structured payload carried by Reporter-category
// transform options describing a tearsheet's tabular layout.
type TableReportSchema struct {
	Title   string
	Columns []ColumnSchema
}

// SqlStatement is the structured payload carried by SQL-backed reporter
// options.
type SqlStatement struct {
	Statement string
}

// OptionValue is the closed tagged sum from spec §3.4. Exactly one payload
// field is meaningful, selected by Kind.
type OptionValue struct {
	kind     OptionKind
	scalar   Value
	sequence []Value
	tv       TimeValue
	ref      string
	marker   *EventMarkerSchema
	table    *TableReportSchema
	sql      *SqlStatement
}

// Kind reports which variant this option value holds.
func (o OptionValue) Kind() OptionKind { return o.kind }

// FromScalar wraps a scalar Value as an OptionValue.
func FromScalar(v Value) OptionValue { return OptionValue{kind: OptionKindScalar, scalar: v} }

// Scalar returns the wrapped scalar, ok=false if this is not a scalar option.
func (o OptionValue) Scalar() (Value, bool) {
	if o.kind != OptionKindScalar {
		return Value{}, false
	}
	return o.scalar, true
}

// NewSequence constructs a Sequence option. Per spec §3.4 a sequence must be
// homogeneous: all-numeric (Decimal/Integer) or all-non-numeric; mixing is
// rejected here rather than left to the caller.
func NewSequence(values []Value) (OptionValue, error) {
	if len(values) == 0 {
		return OptionValue{kind: OptionKindSequence, sequence: nil}, nil
	}
	numeric := values[0].IsNumeric()
	for _, v := range values[1:] {
		if v.IsNumeric() != numeric {
			return OptionValue{}, fmt.Errorf("value: sequence mixes numeric and non-numeric tokens")
		}
	}
	return OptionValue{kind: OptionKindSequence, sequence: values}, nil
}

// Sequence returns the wrapped slice, ok=false if this is not a Sequence.
func (o OptionValue) Sequence() ([]Value, bool) {
	if o.kind != OptionKindSequence {
		return nil, false
	}
	return o.sequence, true
}

// NewTime constructs a Time option.
func NewTime(tv TimeValue) OptionValue { return OptionValue{kind: OptionKindTime, tv: tv} }

// Time returns the wrapped TimeValue, ok=false if this is not a Time option.
func (o OptionValue) Time() (TimeValue, bool) {
	if o.kind != OptionKindTime {
		return TimeValue{}, false
	}
	return o.tv, true
}

// NewRef constructs a symbolic Ref option naming a sibling option.
// transform.Instantiate does not resolve it: a Ref supplied for an option
// declared with another kind fails the kind check as a bad option.
func NewRef(name string) OptionValue { return OptionValue{kind: OptionKindRef, ref: name} }

// Ref returns the referenced option name, ok=false if this is not a Ref.
func (o OptionValue) Ref() (string, bool) {
	if o.kind != OptionKindRef {
		return "", false
	}
	return o.ref, true
}

// NewEventMarkerSchema constructs an EventMarkerSchema option.
func NewEventMarkerSchema(s EventMarkerSchema) OptionValue {
	return OptionValue{kind: OptionKindEventMarkerSchema, marker: &s}
}

// EventMarkerSchema returns the wrapped schema, ok=false otherwise.
func (o OptionValue) EventMarkerSchema() (EventMarkerSchema, bool) {
	if o.kind != OptionKindEventMarkerSchema || o.marker == nil {
		return EventMarkerSchema{}, false
	}
	return *o.marker, true
}

// NewTableReportSchema constructs a TableReportSchema option.
func NewTableReportSchema(s TableReportSchema) OptionValue {
	return OptionValue{kind: OptionKindTableReportSchema, table: &s}
}

// TableReportSchema returns the wrapped schema, ok=false otherwise.
func (o OptionValue) TableReportSchema() (TableReportSchema, bool) {
	if o.kind != OptionKindTableReportSchema || o.table == nil {
		return TableReportSchema{}, false
	}
	return *o.table, true
}

// NewSqlStatement constructs a SqlStatement option.
func NewSqlStatement(s SqlStatement) OptionValue {
	return OptionValue{kind: OptionKindSqlStatement, sql: &s}
}

// SqlStatement returns the wrapped statement, ok=false otherwise.
func (o OptionValue) SqlStatement() (SqlStatement, bool) {
	if o.kind != OptionKindSqlStatement || o.sql == nil {
		return SqlStatement{}, false
	}
	return *o.sql, true
}

// splitSequenceTokens splits "a, b, c" into trimmed non-empty tokens. Ported
// from the trim-split-filter-empty shape of ParseCSV in internal/utils, the
// one difference being the delimiter stays comma but callers have already
// stripped the surrounding brackets.
func splitSequenceTokens(s string) []string {
	if s == "" {
		return nil
	}
	var tokens []string
	for _, part := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	return tokens
}

// parseSpecialDecimal recognizes the case-insensitive float specials the
// parsing rules call out explicitly (nan, inf, -inf), independent of
// strconv.ParseFloat's own (broader, locale-sensitive) special handling.
func parseSpecialDecimal(s string) (float64, bool) {
	switch strings.ToLower(s) {
	case "nan":
		return math.NaN(), true
	case "inf", "+inf":
		return math.Inf(1), true
	case "-inf":
		return math.Inf(-1), true
	default:
		return 0, false
	}
}

// parseScalarToken parses one token of user-supplied option text into a
// Value, applying the boolean/special-float/finite-float/string fallback
// chain from spec §3.4 (steps 4 onward; ref and bracket handling happen in
// ParseOptionString before this is called per-token).
func parseScalarToken(tok string) Value {
	switch strings.ToLower(tok) {
	case "true":
		return Boolean(true)
	case "false":
		return Boolean(false)
	}
	if f, ok := parseSpecialDecimal(tok); ok {
		return Decimal(f)
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Decimal(f)
	}
	return String(tok)
}

// ParseOptionString implements spec §3.4's prescribed parsing rules for a
// raw, user-supplied option string, in the exact order specified:
//  1. trim whitespace
//  2. "$ref:<name>" -> Ref
//  3. "[a, b, c]" -> Sequence, tokens classified numeric-vs-not and rejected
//     on a mix
//  4. case-insensitive true/false -> Boolean
//  5. nan, inf, -inf -> Decimal
//  6. otherwise a finite strconv.ParseFloat -> Decimal
//  7. otherwise the trimmed string itself -> String
//
// This function never produces Integer: the string grammar has no integer
// literal distinct from a decimal one, so only typed API calls (Instantiate
// with a declared Integer option type) construct Integer values directly.
func ParseOptionString(raw string) (OptionValue, error) {
	trimmed := strings.TrimSpace(raw)

	if strings.HasPrefix(trimmed, "$ref:") {
		name := strings.TrimSpace(strings.TrimPrefix(trimmed, "$ref:"))
		if name == "" {
			return OptionValue{}, fmt.Errorf("value: empty $ref: name")
		}
		return NewRef(name), nil
	}

	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		inner := trimmed[1 : len(trimmed)-1]
		tokens := splitSequenceTokens(inner)
		values := make([]Value, 0, len(tokens))
		for _, tok := range tokens {
			values = append(values, parseScalarToken(tok))
		}
		return NewSequence(values)
	}

	return FromScalar(parseScalarToken(trimmed)), nil
}

// DerivedConstantName returns the unique column identifier spec §3.5
// prescribes for a Constant's value (e.g. "num_42", "dec_3_14", "text_hello",
// "null_Decimal"), used when the constant is materialized into a frame.
func DerivedConstantName(v Value) string {
	if v.IsNull() {
		return fmt.Sprintf("null_%s", v.nullKind)
	}
	switch v.kind {
	case KindInteger:
		return fmt.Sprintf("num_%d", v.i)
	case KindDecimal:
		s := strconv.FormatFloat(v.dec, 'f', -1, 64)
		s = strings.ReplaceAll(s, ".", "_")
		s = strings.ReplaceAll(s, "-", "neg")
		return "dec_" + s
	case KindBoolean:
		return fmt.Sprintf("bool_%t", v.b)
	case KindString:
		sanitized := strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
				return r
			}
			return '_'
		}, v.s)
		return "text_" + sanitized
	case KindTimestamp:
		return "ts_" + strconv.FormatInt(v.ts.UnixNano(), 10)
	default:
		return "const"
	}
}
