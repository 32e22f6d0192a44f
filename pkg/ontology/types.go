package ontology

import "time"

// OntologyObject maps an opaque object URI to its internal surrogate key.
// Created lazily on first property write for the URI.
type OntologyObject struct {
	ObjectID      int64
	ObjectURI     string
	Container     string
	OwnerObjectID *int64
}

// DescriptorKey is the identity under which descriptors are deduplicated:
// the URI within a project scope.
type DescriptorKey struct {
	URI     string
	Project string
}

// PropertyDescriptor is the metadata record for a named, typed property.
// Identity for lookup purposes is (PropertyURI, Project); a descriptor
// defined in the shared container is visible to every project.
type PropertyDescriptor struct {
	PropertyID  int64
	PropertyURI string
	Name        string
	Label       string
	Description string
	RangeURI    string
	ConceptURI  string
	Format      string
	Container   string
	Project     string
	// Required is the default for new domain memberships only; effective
	// required-ness lives on the membership row.
	Required  bool
	Hidden    bool
	MvEnabled bool

	LookupContainer string
	LookupSchema    string
	LookupQuery     string
	ImportAliases   []string
}

// Key returns the deduplication identity.
func (pd PropertyDescriptor) Key() DescriptorKey {
	return DescriptorKey{URI: pd.PropertyURI, Project: pd.Project}
}

// Type resolves the property type from the descriptor's concept and range
// URIs. TypeInvalid means the descriptor references an unrecognized type.
func (pd PropertyDescriptor) Type() PropertyType {
	return FromURI(pd.ConceptURI, pd.RangeURI)
}

// DomainDescriptor groups property descriptors into a named, ordered
// collection (a dynamic table schema). Same identity pattern as
// PropertyDescriptor, keyed by (DomainURI, Project).
type DomainDescriptor struct {
	DomainID  int64
	DomainURI string
	Name      string
	Container string
	Project   string
}

// Key returns the deduplication identity.
func (dd DomainDescriptor) Key() DescriptorKey {
	return DescriptorKey{URI: dd.DomainURI, Project: dd.Project}
}

// DomainProperty is the membership row joining a property to a domain.
// Required and SortOrder are per-membership, not global to the descriptor.
type DomainProperty struct {
	PropertyID int64
	DomainID   int64
	Required   bool
	SortOrder  int
}

// DomainPropertyView is a descriptor joined with its membership flags for one
// domain. Two domains sharing a descriptor yield independent views.
type DomainPropertyView struct {
	PropertyDescriptor
	Required  bool
	SortOrder int
}

// ObjectProperty is one decoded row of the vertical value store.
type ObjectProperty struct {
	ObjectID    int64
	PropertyID  int64
	PropertyURI string
	Type        PropertyType
	Value       Value
}

// AppValue reconstructs the typed application value from the stored row.
func (p ObjectProperty) AppValue() any {
	return p.Type.Decode(p.Value)
}

// PropertyRow is the physical layout of an ObjectProperty row: exactly one
// value column populated according to the storage tag, or none when only the
// missing-value indicator is set.
type PropertyRow struct {
	ObjectID      int64
	PropertyID    int64
	TypeTag       StorageTag
	StringValue   *string
	FloatValue    *float64
	DateTimeValue *time.Time
	MvIndicator   *string
}

// EncodeRow lays a Value out into the physical columns for the given type.
func EncodeRow(objectID, propertyID int64, t PropertyType, v Value) PropertyRow {
	row := PropertyRow{ObjectID: objectID, PropertyID: propertyID, TypeTag: t.Tag()}
	if mv := v.Indicator(); mv != "" {
		row.MvIndicator = &mv
	}
	switch v.Kind() {
	case KindString:
		s := v.Text()
		row.StringValue = &s
	case KindNumber:
		f := v.Number()
		row.FloatValue = &f
	case KindDateTime:
		ts := v.Time()
		row.DateTimeValue = &ts
	}
	return row
}

// DecodeRow reconstructs the Value union from the physical columns.
func DecodeRow(row PropertyRow) Value {
	var v Value
	switch {
	case row.StringValue != nil:
		v = Str(*row.StringValue)
	case row.FloatValue != nil:
		v = Num(*row.FloatValue)
	case row.DateTimeValue != nil:
		v = Date(*row.DateTimeValue)
	case row.MvIndicator != nil:
		return Missing(*row.MvIndicator)
	}
	if row.MvIndicator != nil {
		v = v.WithIndicator(*row.MvIndicator)
	}
	return v
}
