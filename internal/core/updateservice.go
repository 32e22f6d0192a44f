package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ontocore/internal/infra/persistence"
	"ontocore/pkg/lsid"
)

// HardTable is the physical half of a domain-backed record: the fixed columns
// live in a real table keyed by object URI, the dynamic columns in the
// vertical store.
type HardTable interface {
	// Name identifies the table in errors.
	Name() string
	// Columns lists the fixed column names, excluding the URI key.
	Columns() []string
	InsertRow(ctx context.Context, q persistence.Querier, objectURI string, fields map[string]any) error
	UpdateRow(ctx context.Context, q persistence.Querier, objectURI string, fields map[string]any) error
	DeleteRow(ctx context.Context, q persistence.Querier, objectURI string) error
	// GetRow returns the fixed fields, false when the row is absent.
	GetRow(ctx context.Context, q persistence.Querier, objectURI string) (map[string]any, bool, error)
}

// UpdateService coordinates writes that span a hard table and the vertical
// property store for one domain. Submitted row maps are split by key: names
// matching a hard column update the table, everything else resolves through
// the domain's property descriptors.
type UpdateService struct {
	mgr       *Manager
	table     HardTable
	container string
	domainURI string
	authority string
}

// NewUpdateService binds a manager and hard table for one domain in one
// container. authority names the LSID authority used when generating object
// URIs for inserted rows.
func NewUpdateService(mgr *Manager, table HardTable, container, domainURI, authority string) *UpdateService {
	if authority == "" {
		authority = "ontocore"
	}
	return &UpdateService{mgr: mgr, table: table, container: container, domainURI: domainURI, authority: authority}
}

// URIColumn is the row-map key carrying the object URI. Absent on insert, a
// fresh LSID is generated.
const URIColumn = "lsid"

func (s *UpdateService) newObjectURI() string {
	id := lsid.Lsid{
		Authority: s.authority,
		Namespace: nameFromURI(s.domainURI),
		ObjectID:  uuid.NewString(),
	}
	return id.String()
}

func (s *UpdateService) hardColumns() map[string]bool {
	cols := make(map[string]bool)
	for _, c := range s.table.Columns() {
		cols[c] = true
	}
	return cols
}

// splitRow partitions a submitted row into hard fields and property values.
func (s *UpdateService) splitRow(row map[string]any, hard map[string]bool) (map[string]any, map[string]any) {
	fixed := make(map[string]any)
	props := make(map[string]any)
	for k, v := range row {
		switch {
		case k == URIColumn:
		case hard[k]:
			fixed[k] = v
		default:
			props[k] = v
		}
	}
	return fixed, props
}

func (s *UpdateService) propertyValues(objectURI string, props map[string]any, views []DomainPropertyView) ([]PropertyValue, error) {
	var values []PropertyValue
	for key, raw := range props {
		view, ok := resolveView(key, views)
		if !ok {
			return nil, fmt.Errorf("ontology: %s: no column or property %q", s.table.Name(), key)
		}
		values = append(values, PropertyValue{ObjectURI: objectURI, PropertyURI: view.PropertyURI, Value: raw})
	}
	return values, nil
}

func resolveView(key string, views []DomainPropertyView) (DomainPropertyView, bool) {
	for _, view := range views {
		if view.PropertyURI == key || view.Name == key {
			return view, true
		}
		for _, alias := range view.ImportAliases {
			if alias == key {
				return view, true
			}
		}
	}
	return DomainPropertyView{}, false
}

// InsertRows writes new records. Property rows land before the hard row so a
// failed hard insert rolls everything back together. Returns the object URIs,
// generated where the row carried none.
func (s *UpdateService) InsertRows(ctx context.Context, rows []map[string]any) ([]string, error) {
	views, err := s.mgr.GetPropertiesForType(ctx, s.domainURI, s.container)
	if err != nil {
		return nil, err
	}
	hard := s.hardColumns()
	tx, err := s.mgr.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ontology: begin insert rows: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	uris := make([]string, 0, len(rows))
	for _, row := range rows {
		uri, _ := row[URIColumn].(string)
		if uri == "" {
			uri = s.newObjectURI()
		}
		fixed, props := s.splitRow(row, hard)
		values, err := s.propertyValues(uri, props, views)
		if err != nil {
			return nil, err
		}
		if err := s.writeProperties(ctx, tx, uri, values); err != nil {
			return nil, err
		}
		if err := s.table.InsertRow(ctx, tx, uri, fixed); err != nil {
			return nil, fmt.Errorf("ontology: %s: insert row %q: %w", s.table.Name(), uri, err)
		}
		uris = append(uris, uri)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ontology: commit insert rows: %w", err)
	}
	committed = true
	for _, uri := range uris {
		s.mgr.caches.EvictObject(uri)
	}
	return uris, nil
}

// UpdateRows rewrites the submitted fields of existing records. Only the
// properties present in a row are touched: each is deleted and reinserted,
// the rest keep their stored values.
func (s *UpdateService) UpdateRows(ctx context.Context, rows []map[string]any) error {
	views, err := s.mgr.GetPropertiesForType(ctx, s.domainURI, s.container)
	if err != nil {
		return err
	}
	hard := s.hardColumns()
	tx, err := s.mgr.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ontology: begin update rows: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var uris []string
	for _, row := range rows {
		uri, _ := row[URIColumn].(string)
		if uri == "" {
			return fmt.Errorf("ontology: %s: update row missing %q", s.table.Name(), URIColumn)
		}
		fixed, props := s.splitRow(row, hard)
		values, err := s.propertyValues(uri, props, views)
		if err != nil {
			return err
		}
		if err := s.deleteSubmittedProperties(ctx, tx, uri, values); err != nil {
			return err
		}
		if err := s.writeProperties(ctx, tx, uri, values); err != nil {
			return err
		}
		if len(fixed) > 0 {
			if err := s.table.UpdateRow(ctx, tx, uri, fixed); err != nil {
				return fmt.Errorf("ontology: %s: update row %q: %w", s.table.Name(), uri, err)
			}
		}
		uris = append(uris, uri)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ontology: commit update rows: %w", err)
	}
	committed = true
	for _, uri := range uris {
		s.mgr.caches.EvictObject(uri)
	}
	return nil
}

// DeleteRows removes records, vertical rows first so the hard row never
// outlives orphaned property data in the same transaction.
func (s *UpdateService) DeleteRows(ctx context.Context, objectURIs ...string) error {
	tx, err := s.mgr.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ontology: begin delete rows: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, uri := range objectURIs {
		obj, found, err := s.mgr.findObject(ctx, tx, s.container, uri)
		if err != nil {
			return err
		}
		if found {
			if _, err := s.mgr.deleteObjectsByID(ctx, tx, []int64{obj.ObjectID}); err != nil {
				return err
			}
		}
		if err := s.table.DeleteRow(ctx, tx, uri); err != nil {
			return fmt.Errorf("ontology: %s: delete row %q: %w", s.table.Name(), uri, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ontology: commit delete rows: %w", err)
	}
	committed = true
	for _, uri := range objectURIs {
		s.mgr.caches.EvictObject(uri)
	}
	return nil
}

// GetRow returns the merged record: fixed fields plus decoded property values
// keyed by property name.
func (s *UpdateService) GetRow(ctx context.Context, objectURI string) (map[string]any, error) {
	fixed, found, err := s.table.GetRow(ctx, s.mgr.db.DB, objectURI)
	if err != nil {
		return nil, fmt.Errorf("ontology: %s: get row %q: %w", s.table.Name(), objectURI, err)
	}
	if !found {
		return nil, &NotFoundError{Kind: "row", URI: objectURI}
	}
	merged := make(map[string]any, len(fixed)+4)
	for k, v := range fixed {
		merged[k] = v
	}
	merged[URIColumn] = objectURI
	props, err := s.mgr.GetProperties(ctx, s.container, objectURI)
	if err != nil {
		return nil, err
	}
	views, err := s.mgr.GetPropertiesForType(ctx, s.domainURI, s.container)
	if err != nil {
		return nil, err
	}
	for _, view := range views {
		if op, ok := props[view.PropertyURI]; ok {
			merged[view.Name] = op.AppValue()
		}
	}
	return merged, nil
}

// writeProperties is the in-transaction property insert used by the row
// writers; validation problems surface as a ValidationError.
func (s *UpdateService) writeProperties(ctx context.Context, q persistence.Querier, objectURI string, values []PropertyValue) error {
	if len(values) == 0 {
		// Still materialize the object so GetProperties and deletes see it.
		_, err := s.mgr.ensureObject(ctx, q, s.container, objectURI, nil)
		return err
	}
	objectID, err := s.mgr.ensureObject(ctx, q, s.container, objectURI, nil)
	if err != nil {
		return err
	}
	verrs := &ValidationError{}
	var rows []PropertyRow
	for _, v := range values {
		pd, found, err := s.mgr.findPropertyDescriptor(ctx, q, v.PropertyURI, s.container)
		if err != nil {
			return err
		}
		if !found {
			return &NotFoundError{Kind: "property", URI: v.PropertyURI}
		}
		if v.Value == nil {
			continue
		}
		if row, ok := s.mgr.buildRow(objectID, pd, v.Value, 0, s.container, verrs); ok {
			rows = append(rows, row)
		}
	}
	if verrs.HasErrors() {
		s.mgr.metrics.observeValidationFailures(len(verrs.Errors))
		return verrs
	}
	return s.mgr.flushRows(ctx, q, rows)
}

func (s *UpdateService) deleteSubmittedProperties(ctx context.Context, q persistence.Querier, objectURI string, values []PropertyValue) error {
	obj, found, err := s.mgr.findObject(ctx, q, s.container, objectURI)
	if err != nil || !found {
		return err
	}
	for _, v := range values {
		pd, found, err := s.mgr.findPropertyDescriptor(ctx, q, v.PropertyURI, s.container)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if _, err := s.mgr.db.Exec(ctx, q,
			"DELETE FROM ObjectProperty WHERE ObjectId = ? AND PropertyId = ?",
			obj.ObjectID, pd.PropertyID); err != nil {
			return fmt.Errorf("ontology: delete property row: %w", err)
		}
	}
	return nil
}

// SQLHardTable is a generic HardTable over a single physical table with a
// string URI key column. It backs tests and simple embedders; richer tables
// implement HardTable directly.
type SQLHardTable struct {
	db        *persistence.Database
	tableName string
	uriColumn string
	columns   []string
}

// NewSQLHardTable describes an existing table. columns excludes uriColumn.
func NewSQLHardTable(db *persistence.Database, tableName, uriColumn string, columns ...string) *SQLHardTable {
	return &SQLHardTable{db: db, tableName: tableName, uriColumn: uriColumn, columns: columns}
}

func (t *SQLHardTable) Name() string      { return t.tableName }
func (t *SQLHardTable) Columns() []string { return t.columns }

func (t *SQLHardTable) InsertRow(ctx context.Context, q persistence.Querier, objectURI string, fields map[string]any) error {
	cols := []string{t.uriColumn}
	args := []any{objectURI}
	for _, c := range t.columns {
		if v, ok := fields[c]; ok {
			cols = append(cols, c)
			args = append(args, v)
		}
	}
	stmt := "INSERT INTO " + t.tableName + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ") + ")"
	_, err := t.db.Exec(ctx, q, stmt, args...)
	return err
}

func (t *SQLHardTable) UpdateRow(ctx context.Context, q persistence.Querier, objectURI string, fields map[string]any) error {
	var sets []string
	var args []any
	for _, c := range t.columns {
		if v, ok := fields[c]; ok {
			sets = append(sets, c+" = ?")
			args = append(args, v)
		}
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, objectURI)
	stmt := "UPDATE " + t.tableName + " SET " + strings.Join(sets, ", ") + " WHERE " + t.uriColumn + " = ?"
	_, err := t.db.Exec(ctx, q, stmt, args...)
	return err
}

func (t *SQLHardTable) DeleteRow(ctx context.Context, q persistence.Querier, objectURI string) error {
	_, err := t.db.Exec(ctx, q, "DELETE FROM "+t.tableName+" WHERE "+t.uriColumn+" = ?", objectURI)
	return err
}

func (t *SQLHardTable) GetRow(ctx context.Context, q persistence.Querier, objectURI string) (map[string]any, bool, error) {
	stmt := "SELECT " + strings.Join(t.columns, ", ") + " FROM " + t.tableName + " WHERE " + t.uriColumn + " = ?"
	dest := make([]any, len(t.columns))
	ptrs := make([]any, len(t.columns))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	err := t.db.QueryRow(ctx, q, stmt, objectURI).Scan(ptrs...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	fields := make(map[string]any, len(t.columns))
	for i, c := range t.columns {
		fields[c] = dest[i]
	}
	return fields, true, nil
}

var _ HardTable = (*SQLHardTable)(nil)
