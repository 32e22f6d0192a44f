package core

import (
	"context"
	"fmt"

	"ontocore/pkg/ontology"
)

// TableInfo describes a queryable hard table for lookup resolution.
type TableInfo struct {
	Schema    string
	Name      string
	Columns   []string
	KeyColumn string
	// TitleColumn is the display column shown for resolved lookup rows;
	// empty falls back to the key.
	TitleColumn string
}

// SchemaResolver maps a (container, schema, query) lookup target to a
// concrete table. Returning false means the target does not exist in that
// container.
type SchemaResolver interface {
	ResolveTable(ctx context.Context, container, schema, query string) (TableInfo, bool)
}

// Lookup is a resolved foreign-key target for a property column.
type Lookup struct {
	Container string
	Table     TableInfo
}

// PropertyColumn projects one property of the vertical value store into a
// scalar SQL expression, so hard-table queries can select dynamic properties
// as if they were ordinary columns. The expression is a correlated scalar
// subquery against ObjectProperty keyed by the outer query's object id.
type PropertyColumn struct {
	descriptor PropertyDescriptor
	// objectIDExpr is the outer-query SQL expression yielding the object id,
	// typically a qualified column like "o.ObjectId".
	objectIDExpr string
	lookup       *Lookup
}

// NewPropertyColumn builds the projection for a descriptor. objectIDExpr is
// interpolated verbatim into generated SQL and must be a trusted column
// reference, never user input.
func NewPropertyColumn(pd PropertyDescriptor, objectIDExpr string) *PropertyColumn {
	return &PropertyColumn{descriptor: pd, objectIDExpr: objectIDExpr}
}

// Descriptor returns the projected property's descriptor.
func (c *PropertyColumn) Descriptor() PropertyDescriptor { return c.descriptor }

// Name returns the column alias, the descriptor name or the URI suffix.
func (c *PropertyColumn) Name() string {
	if c.descriptor.Name != "" {
		return c.descriptor.Name
	}
	return nameFromURI(c.descriptor.PropertyURI)
}

func (c *PropertyColumn) subquery(valueColumn string) string {
	return fmt.Sprintf(
		"(SELECT op.%s FROM ObjectProperty op WHERE op.ObjectId = %s AND op.PropertyId = %d)",
		valueColumn, c.objectIDExpr, c.descriptor.PropertyID)
}

// ValueSQL returns the scalar expression for the property value. The physical
// column follows the storage tag; integer and boolean types get shaped back
// from the float column.
func (c *PropertyColumn) ValueSQL() string {
	pt := c.descriptor.Type()
	switch pt {
	case ontology.TypeInteger:
		return "CAST(" + c.subquery("FloatValue") + " AS INTEGER)"
	case ontology.TypeBoolean:
		return "(CASE " + c.subquery("FloatValue") + " WHEN 1.0 THEN 1 WHEN 0.0 THEN 0 ELSE NULL END)"
	}
	switch pt.Tag() {
	case ontology.TagFloat:
		return c.subquery("FloatValue")
	case ontology.TagDateTime:
		return c.subquery("DateTimeValue")
	default:
		return c.subquery("StringValue")
	}
}

// MvIndicatorSQL returns the scalar expression for the property's
// missing-value indicator column.
func (c *PropertyColumn) MvIndicatorSQL() string {
	return c.subquery("MvIndicator")
}

// SelectSQL returns the aliased select-list fragment for the value.
func (c *PropertyColumn) SelectSQL() string {
	return c.ValueSQL() + " AS \"" + c.Name() + "\""
}

// ResolveLookup resolves the descriptor's lookup target against the caller's
// container first, then the descriptor's own lookup container. Targets that
// are missing or lack a single-column key degrade to no lookup; projection
// never fails over an unresolvable foreign key.
func (c *PropertyColumn) ResolveLookup(ctx context.Context, resolver SchemaResolver, callerContainer string) *Lookup {
	if c.lookup != nil {
		return c.lookup
	}
	if resolver == nil || c.descriptor.LookupQuery == "" {
		return nil
	}
	containers := []string{callerContainer}
	if lc := c.descriptor.LookupContainer; lc != "" && lc != callerContainer {
		containers = append(containers, lc)
	}
	for _, container := range containers {
		if container == "" {
			continue
		}
		ti, ok := resolver.ResolveTable(ctx, container, c.descriptor.LookupSchema, c.descriptor.LookupQuery)
		if !ok || ti.KeyColumn == "" {
			continue
		}
		c.lookup = &Lookup{Container: container, Table: ti}
		return c.lookup
	}
	return nil
}

// TitleSQL returns an expression resolving the value through its lookup to
// the target's title column. Without a resolved lookup it falls back to
// ValueSQL.
func (c *PropertyColumn) TitleSQL(ctx context.Context, resolver SchemaResolver, callerContainer string) string {
	lk := c.ResolveLookup(ctx, resolver, callerContainer)
	if lk == nil {
		return c.ValueSQL()
	}
	title := lk.Table.TitleColumn
	if title == "" {
		title = lk.Table.KeyColumn
	}
	table := lk.Table.Name
	if lk.Table.Schema != "" {
		table = lk.Table.Schema + "." + table
	}
	return fmt.Sprintf("(SELECT t.%s FROM %s t WHERE t.%s = %s)",
		title, table, lk.Table.KeyColumn, c.ValueSQL())
}

// PropertyColumns builds projections for every property of a domain, in
// membership sort order.
func (m *Manager) PropertyColumns(ctx context.Context, domainURI, container, objectIDExpr string) ([]*PropertyColumn, error) {
	views, err := m.GetPropertiesForType(ctx, domainURI, container)
	if err != nil {
		return nil, err
	}
	cols := make([]*PropertyColumn, 0, len(views))
	for _, view := range views {
		cols = append(cols, NewPropertyColumn(view.PropertyDescriptor, objectIDExpr))
	}
	return cols, nil
}
