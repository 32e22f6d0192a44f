package ontology

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StorageTag selects which physical value column an ObjectProperty row
// populates in the vertical store.
type StorageTag byte

const (
	// TagString stores into the string column.
	TagString StorageTag = 's'
	// TagFloat stores into the float column.
	TagFloat StorageTag = 'f'
	// TagDateTime stores into the date-time column.
	TagDateTime StorageTag = 'd'
)

// PropertyType is the closed enumeration of supported property kinds. Each
// kind maps to a storage tag and a canonical type URI.
type PropertyType int

const (
	// TypeInvalid is the zero value; FromURI returns it for unknown URIs.
	TypeInvalid PropertyType = iota
	// TypeString is a single-line string.
	TypeString
	// TypeMultiLine is free multi-line text.
	TypeMultiLine
	// TypeInteger is a 64-bit integer, stored as float.
	TypeInteger
	// TypeDouble is a 64-bit float.
	TypeDouble
	// TypeBoolean stores as float 1.0/0.0.
	TypeBoolean
	// TypeDateTime is an absolute timestamp.
	TypeDateTime
	// TypeAttachment references uploaded content by blob key.
	TypeAttachment
	// TypeFileLink references a server-side file path.
	TypeFileLink
	// TypeResource references another identifiable object by LSID.
	TypeResource
)

const xsdPrefix = "http://www.w3.org/2001/XMLSchema#"

var typeInfo = map[PropertyType]struct {
	name string
	uri  string
	tag  StorageTag
}{
	TypeString:     {"string", xsdPrefix + "string", TagString},
	TypeMultiLine:  {"multiLine", xsdPrefix + "multiLine", TagString},
	TypeInteger:    {"int", xsdPrefix + "int", TagFloat},
	TypeDouble:     {"double", xsdPrefix + "double", TagFloat},
	TypeBoolean:    {"boolean", xsdPrefix + "boolean", TagFloat},
	TypeDateTime:   {"dateTime", xsdPrefix + "dateTime", TagDateTime},
	TypeAttachment: {"attachment", "urn:ontocore:types#attachment", TagString},
	TypeFileLink:   {"fileLink", "urn:ontocore:types#fileLink", TagString},
	TypeResource:   {"resource", "urn:ontocore:types#resource", TagString},
}

var typeByURI = func() map[string]PropertyType {
	m := make(map[string]PropertyType, len(typeInfo))
	for t, info := range typeInfo {
		m[strings.ToLower(info.uri)] = t
	}
	return m
}()

// String returns the short type name.
func (t PropertyType) String() string {
	if info, ok := typeInfo[t]; ok {
		return info.name
	}
	return "invalid"
}

// TypeURI returns the canonical type URI.
func (t PropertyType) TypeURI() string { return typeInfo[t].uri }

// Tag returns the storage tag the type maps to.
func (t PropertyType) Tag() StorageTag { return typeInfo[t].tag }

// FromURI resolves a type from descriptor metadata, preferring the concept
// URI and falling back to the range URI. Returns TypeInvalid when neither is
// recognized; callers must treat that as a hard per-row error.
func FromURI(conceptURI, rangeURI string) PropertyType {
	if t, ok := typeByURI[strings.ToLower(conceptURI)]; ok {
		return t
	}
	if t, ok := typeByURI[strings.ToLower(rangeURI)]; ok {
		return t
	}
	return TypeInvalid
}

// ConversionError reports a value that could not be coerced to a type.
type ConversionError struct {
	Type  PropertyType
	Value any
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("ontology: cannot convert %v (%T) to %s", e.Value, e.Value, e.Type)
}

// Convert coerces an arbitrary runtime value into the storage Value for the
// type. nil maps to an absent Value. Failure is an error, never a silent nil.
func (t PropertyType) Convert(v any) (Value, error) {
	if v == nil {
		return Value{}, nil
	}
	if mv, ok := v.(MissingValue); ok {
		return Missing(string(mv)), nil
	}
	switch t {
	case TypeString, TypeMultiLine, TypeAttachment, TypeFileLink, TypeResource:
		return Str(stringify(v)), nil
	case TypeInteger:
		f, err := toFloat(v)
		if err != nil || f != float64(int64(f)) {
			return Value{}, &ConversionError{Type: t, Value: v}
		}
		return Num(f), nil
	case TypeDouble:
		f, err := toFloat(v)
		if err != nil {
			return Value{}, &ConversionError{Type: t, Value: v}
		}
		return Num(f), nil
	case TypeBoolean:
		b, err := toBool(v)
		if err != nil {
			return Value{}, &ConversionError{Type: t, Value: v}
		}
		if b {
			return Num(1), nil
		}
		return Num(0), nil
	case TypeDateTime:
		ts, err := toTime(v)
		if err != nil {
			return Value{}, &ConversionError{Type: t, Value: v}
		}
		return Date(ts), nil
	}
	return Value{}, &ConversionError{Type: t, Value: v}
}

// Decode reconstructs the typed application value from a storage Value:
// integers come back as int64, booleans as bool, and so on. Absent and
// missing values decode to nil.
func (t PropertyType) Decode(v Value) any {
	switch v.Kind() {
	case KindAbsent, KindMissing:
		return nil
	case KindString:
		return v.Text()
	case KindNumber:
		switch t {
		case TypeInteger:
			return int64(v.Number())
		case TypeBoolean:
			return v.Number() != 0
		default:
			return v.Number()
		}
	case KindDateTime:
		return v.Time()
	}
	return nil
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	}
	return 0, fmt.Errorf("not numeric: %T", v)
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case float64:
		return b != 0, nil
	case int:
		return b != 0, nil
	case int64:
		return b != 0, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(strings.ToLower(b)))
	}
	return false, fmt.Errorf("not boolean: %T", v)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func toTime(v any) (time.Time, error) {
	switch ts := v.(type) {
	case time.Time:
		return ts.UTC(), nil
	case string:
		s := strings.TrimSpace(ts)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("not a timestamp: %v", v)
}
