package ontology

import (
	"fmt"
	"time"
)

// ValueKind discriminates the storage value union.
type ValueKind int

const (
	// KindAbsent is a value that was never set.
	KindAbsent ValueKind = iota
	// KindString holds text (also attachment keys, file links, resource LSIDs).
	KindString
	// KindNumber holds numeric storage (integers, doubles, booleans as 1/0).
	KindNumber
	// KindDateTime holds a timestamp.
	KindDateTime
	// KindMissing is intentionally absent with a reason code.
	KindMissing
)

// MissingValue marks an input cell as intentionally missing with a reason
// code; pass it as the raw value to Convert or the import pipeline.
type MissingValue string

// Value is the tagged union over the vertical store's three physical value
// columns plus the missing-value indicator. Callers never branch on the
// storage tag; they construct via Str/Num/Date/Missing and decode via
// PropertyType.Decode.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	ts   time.Time
	mv   string
}

// Str constructs a string value.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// Num constructs a numeric value.
func Num(f float64) Value { return Value{kind: KindNumber, num: f} }

// Date constructs a timestamp value, truncated to millisecond precision to
// match the store's column resolution.
func Date(ts time.Time) Value {
	return Value{kind: KindDateTime, ts: ts.UTC().Truncate(time.Millisecond)}
}

// Missing constructs an intentionally-missing value with a reason code.
func Missing(indicator string) Value { return Value{kind: KindMissing, mv: indicator} }

// Kind returns the union discriminant.
func (v Value) Kind() ValueKind { return v.kind }

// IsAbsent reports whether no value and no indicator are present.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Text returns the string slot; zero unless Kind is KindString.
func (v Value) Text() string { return v.str }

// Number returns the numeric slot; zero unless Kind is KindNumber.
func (v Value) Number() float64 { return v.num }

// Time returns the timestamp slot; zero unless Kind is KindDateTime.
func (v Value) Time() time.Time { return v.ts }

// Indicator returns the missing-value reason code, or "".
func (v Value) Indicator() string { return v.mv }

// WithIndicator attaches a missing-value indicator alongside an existing
// value. The store permits an indicator to coexist with a populated slot.
func (v Value) WithIndicator(indicator string) Value {
	v.mv = indicator
	return v
}

// String renders the value for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindAbsent:
		return "<absent>"
	case KindString:
		return v.str
	case KindNumber:
		return fmt.Sprintf("%g", v.num)
	case KindDateTime:
		return v.ts.Format(time.RFC3339Nano)
	case KindMissing:
		return "<missing:" + v.mv + ">"
	}
	return "<invalid>"
}

// Equal compares two values structurally.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind || v.mv != other.mv {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindDateTime:
		return v.ts.Equal(other.ts)
	}
	return true
}
