package ontology

import (
	"fmt"
	"regexp"
)

// ValidationContext carries the scope a validation run happens in.
type ValidationContext struct {
	Container string
	Row       int
}

// Validator checks one converted value against a property descriptor.
// Implementations append to sink and return false on rejection.
type Validator interface {
	Validate(pd PropertyDescriptor, value any, sink *ValidationError, vc ValidationContext) bool
}

// ValidatorProvider yields the validators attached to a descriptor.
type ValidatorProvider interface {
	Validators(pd PropertyDescriptor) []Validator
}

// NoValidators is a provider with no validators for any descriptor.
type NoValidators struct{}

// Validators implements ValidatorProvider.
func (NoValidators) Validators(PropertyDescriptor) []Validator { return nil }

// StaticValidators maps property URIs to fixed validator lists.
type StaticValidators map[string][]Validator

// Validators implements ValidatorProvider.
func (s StaticValidators) Validators(pd PropertyDescriptor) []Validator {
	return s[pd.PropertyURI]
}

// RangeValidator bounds numeric values inclusively. A nil bound is open.
type RangeValidator struct {
	Min *float64
	Max *float64
}

// Validate implements Validator.
func (rv RangeValidator) Validate(pd PropertyDescriptor, value any, sink *ValidationError, vc ValidationContext) bool {
	f, ok := asNumber(value)
	if !ok {
		return true // non-numeric values are another validator's problem
	}
	if rv.Min != nil && f < *rv.Min {
		sink.Add(vc.Row, pd.PropertyURI, fmt.Sprintf("value %g below minimum %g", f, *rv.Min))
		return false
	}
	if rv.Max != nil && f > *rv.Max {
		sink.Add(vc.Row, pd.PropertyURI, fmt.Sprintf("value %g above maximum %g", f, *rv.Max))
		return false
	}
	return true
}

// RegexValidator matches string values against a compiled pattern.
type RegexValidator struct {
	Pattern *regexp.Regexp
}

// Validate implements Validator.
func (rv RegexValidator) Validate(pd PropertyDescriptor, value any, sink *ValidationError, vc ValidationContext) bool {
	s, ok := value.(string)
	if !ok || rv.Pattern == nil {
		return true
	}
	if !rv.Pattern.MatchString(s) {
		sink.Add(vc.Row, pd.PropertyURI, fmt.Sprintf("value %q does not match pattern %s", s, rv.Pattern))
		return false
	}
	return true
}

// LengthValidator caps string length.
type LengthValidator struct {
	Max int
}

// Validate implements Validator.
func (lv LengthValidator) Validate(pd PropertyDescriptor, value any, sink *ValidationError, vc ValidationContext) bool {
	s, ok := value.(string)
	if !ok || lv.Max <= 0 {
		return true
	}
	if len(s) > lv.Max {
		sink.Add(vc.Row, pd.PropertyURI, fmt.Sprintf("value exceeds maximum length %d", lv.Max))
		return false
	}
	return true
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
