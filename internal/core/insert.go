package core

import (
	"context"
	"fmt"
	"strings"

	"ontocore/internal/infra/persistence"
	"ontocore/pkg/ontology"
)

// MaxPropsInBatch is the number of property rows buffered per storage-type
// batch before a multi-row insert flush.
const MaxPropsInBatch = 1000

// statisticsInterval is the number of flushed batches between statistics
// maintenance calls on the value tables.
const statisticsInterval = 1000

// PropertyValue is one (object, property, raw value) triple submitted to
// InsertProperties. The value is converted via the descriptor's type.
type PropertyValue struct {
	ObjectURI   string
	PropertyURI string
	Value       any
}

// InsertProperties writes a set of property values in one atomic unit:
// ensure-object, descriptor resolution, validation, conversion, insert.
// Rolls back entirely on validation failure. Descriptors must already exist;
// an unknown property URI is a NotFoundError.
func (m *Manager) InsertProperties(ctx context.Context, container, ownerURI string, values ...PropertyValue) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := m.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ontology: begin insert properties: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	// Per-call id memo; ensureObject never touches the shared cache while the
	// transaction is open.
	objectIDs := make(map[string]int64)

	var ownerID *int64
	if ownerURI != "" {
		id, err := m.ensureObject(ctx, tx, container, ownerURI, nil)
		if err != nil {
			return err
		}
		ownerID = &id
		objectIDs[ownerURI] = id
	}

	verrs := &ValidationError{}
	var rows []PropertyRow
	for _, v := range values {
		objectID, ok := objectIDs[v.ObjectURI]
		if !ok {
			objectID, err = m.ensureObject(ctx, tx, container, v.ObjectURI, ownerID)
			if err != nil {
				return err
			}
			objectIDs[v.ObjectURI] = objectID
		}
		pd, found, err := m.findPropertyDescriptor(ctx, tx, v.PropertyURI, container)
		if err != nil {
			return err
		}
		if !found {
			return &NotFoundError{Kind: "property", URI: v.PropertyURI}
		}
		row, ok := m.buildRow(objectID, pd, v.Value, 0, container, verrs)
		if ok {
			rows = append(rows, row)
		}
	}
	if verrs.HasErrors() {
		m.metrics.observeValidationFailures(len(verrs.Errors))
		return verrs
	}
	if err := m.flushRows(ctx, tx, rows); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ontology: commit insert properties: %w", err)
	}
	committed = true
	for uri := range objectIDs {
		m.caches.EvictObject(uri)
	}
	return nil
}

// buildRow validates and converts one raw value into a physical row.
// Collection semantics: problems land in verrs and the row is skipped.
func (m *Manager) buildRow(objectID int64, pd PropertyDescriptor, raw any, rowNum int, container string, verrs *ValidationError) (PropertyRow, bool) {
	pt := pd.Type()
	if pt == ontology.TypeInvalid {
		verrs.Add(rowNum, pd.PropertyURI, fmt.Sprintf("unrecognized type %q", pd.RangeURI))
		return PropertyRow{}, false
	}
	if mv, ok := raw.(ontology.MissingValue); ok {
		if !pd.MvEnabled {
			verrs.Add(rowNum, pd.PropertyURI, "missing-value indicators not enabled for this property")
			return PropertyRow{}, false
		}
		return ontology.EncodeRow(objectID, pd.PropertyID, pt, ontology.Missing(string(mv))), true
	}
	value, err := pt.Convert(raw)
	if err != nil {
		verrs.Add(rowNum, pd.PropertyURI, err.Error())
		return PropertyRow{}, false
	}
	vc := ontology.ValidationContext{Container: container, Row: rowNum}
	decoded := pt.Decode(value)
	before := len(verrs.Errors)
	for _, validator := range m.validators.Validators(pd) {
		validator.Validate(pd, decoded, verrs, vc)
	}
	if len(verrs.Errors) > before {
		return PropertyRow{}, false
	}
	return ontology.EncodeRow(objectID, pd.PropertyID, pt, value), true
}

// flushRows writes rows with one multi-row insert per storage-type batch.
func (m *Manager) flushRows(ctx context.Context, q persistence.Querier, rows []PropertyRow) error {
	for start := 0; start < len(rows); start += MaxPropsInBatch {
		end := min(start+MaxPropsInBatch, len(rows))
		if err := m.flushBatch(ctx, q, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) flushBatch(ctx context.Context, q persistence.Querier, batch []PropertyRow) error {
	if len(batch) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO ObjectProperty (ObjectId, PropertyId, TypeTag, StringValue, FloatValue, DateTimeValue, MvIndicator) VALUES ")
	args := make([]any, 0, len(batch)*7)
	for i, row := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, row.ObjectID, row.PropertyID, string(row.TypeTag),
			row.StringValue, row.FloatValue, row.DateTimeValue, row.MvIndicator)
	}
	if _, err := m.db.Exec(ctx, q, sb.String(), args...); err != nil {
		return fmt.Errorf("ontology: insert property rows: %w", err)
	}
	m.metrics.observeFlush(len(batch))
	return nil
}

// ImportRow maps property URI (or name, or import alias) to a raw cell value.
type ImportRow map[string]any

// ImportOptions configures a bulk import into one domain.
type ImportOptions struct {
	Container string
	DomainURI string
	// OwnerURI, when set, owns every object created by the import.
	OwnerURI string
	// ObjectURI derives the object URI for a 1-based row number. Required.
	ObjectURI func(row int) string
}

// ImportResult reports what a bulk import did.
type ImportResult struct {
	ObjectURIs     []string
	RowsInserted   int
	BatchesFlushed int
}

// ImportRows is the tab-delimited-style bulk import path. Rows are validated
// collectively (all errors aggregated, not fail-fast), converted, buffered
// into per-storage-type batches of MaxPropsInBatch, and flushed with
// multi-row inserts; every statisticsInterval flushes the database statistics
// hook fires.
//
// Consistency caveat: batches flushed before a validation error or
// cancellation are NOT undone by this method. Callers needing atomicity must
// pass a transaction as q and roll it back on error; with q == m.DB().DB the
// flushed batches remain committed.
func (m *Manager) ImportRows(ctx context.Context, q persistence.Querier, opts ImportOptions, rows []ImportRow) (ImportResult, error) {
	var res ImportResult
	if opts.ObjectURI == nil {
		return res, fmt.Errorf("ontology: import needs an object URI generator")
	}
	views, err := m.GetPropertiesForType(ctx, opts.DomainURI, opts.Container)
	if err != nil {
		return res, err
	}
	var ownerID *int64
	if opts.OwnerURI != "" {
		id, err := m.ensureObject(ctx, q, opts.Container, opts.OwnerURI, nil)
		if err != nil {
			return res, err
		}
		ownerID = &id
	}

	batches := newTagBatches()
	verrs := &ValidationError{}
	flush := func(batch []PropertyRow) error {
		if err := m.flushBatch(ctx, q, batch); err != nil {
			return err
		}
		res.BatchesFlushed++
		res.RowsInserted += len(batch)
		if res.BatchesFlushed%statisticsInterval == 0 {
			// Advisory only; large imports skew the planner's row estimates.
			_ = m.db.UpdateStatistics(ctx, "ObjectProperty", "OntologyObject")
		}
		return nil
	}

	for i, row := range rows {
		rowNum := i + 1
		if err := ctx.Err(); err != nil {
			return res, ontology.ErrImportCancelled
		}
		uri := opts.ObjectURI(rowNum)
		objectID, err := m.ensureObject(ctx, q, opts.Container, uri, ownerID)
		if err != nil {
			return res, err
		}
		res.ObjectURIs = append(res.ObjectURIs, uri)
		for _, view := range views {
			raw, present := lookupCell(row, view)
			if !present || raw == nil {
				if view.Required {
					verrs.Add(rowNum, view.PropertyURI, "missing value for required property")
				}
				continue
			}
			prow, ok := m.buildRow(objectID, view.PropertyDescriptor, raw, rowNum, opts.Container, verrs)
			if !ok {
				continue
			}
			if full := batches.add(prow); full != nil {
				if err := flush(full); err != nil {
					return res, err
				}
			}
		}
		m.caches.EvictObject(uri)
	}

	if verrs.HasErrors() {
		m.metrics.observeValidationFailures(len(verrs.Errors))
		return res, verrs
	}
	for _, batch := range batches.drain() {
		if err := flush(batch); err != nil {
			return res, err
		}
	}
	return res, nil
}

// lookupCell resolves a cell by property URI, then name, then import alias.
func lookupCell(row ImportRow, view DomainPropertyView) (any, bool) {
	if v, ok := row[view.PropertyURI]; ok {
		return v, true
	}
	if v, ok := row[view.Name]; ok {
		return v, true
	}
	for _, alias := range view.ImportAliases {
		if v, ok := row[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

// tagBatches buffers rows per storage type (plus missing-value-only rows) so
// each flush covers homogeneous column usage.
type tagBatches struct {
	byTag map[byte][]PropertyRow
}

func newTagBatches() *tagBatches {
	return &tagBatches{byTag: make(map[byte][]PropertyRow, 4)}
}

// add buffers a row and returns a full batch ready to flush, or nil.
func (b *tagBatches) add(row PropertyRow) []PropertyRow {
	tag := byte(row.TypeTag)
	if row.StringValue == nil && row.FloatValue == nil && row.DateTimeValue == nil {
		tag = 'm' // missing-value-only rows batch separately
	}
	buf := append(b.byTag[tag], row)
	if len(buf) >= MaxPropsInBatch {
		b.byTag[tag] = nil
		return buf
	}
	b.byTag[tag] = buf
	return nil
}

// drain returns the remaining partial batches in deterministic order.
func (b *tagBatches) drain() [][]PropertyRow {
	var out [][]PropertyRow
	for _, tag := range []byte{'s', 'f', 'd', 'm'} {
		if len(b.byTag[tag]) > 0 {
			out = append(out, b.byTag[tag])
			b.byTag[tag] = nil
		}
	}
	return out
}
