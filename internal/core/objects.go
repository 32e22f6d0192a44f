package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ontocore/internal/infra/persistence"
	"ontocore/pkg/ontology"
)

// deleteChunkSize caps IN-list sizes on bulk deletes.
const deleteChunkSize = 1000

// EnsureObject resolves the internal object id for a URI, creating the row on
// first use. Concurrent callers racing on the same URI are settled by the
// unique constraint on ObjectURI: lose the insert, read back the winner.
func (m *Manager) EnsureObject(ctx context.Context, container, objectURI string, ownerObjectID *int64) (int64, error) {
	return m.ensureObject(ctx, m.db.DB, container, objectURI, ownerObjectID)
}

func (m *Manager) ensureObject(ctx context.Context, q persistence.Querier, container, objectURI string, ownerObjectID *int64) (int64, error) {
	if objectURI == "" || container == "" {
		return 0, fmt.Errorf("ontology: ensure object needs uri and container")
	}
	if id, ok := m.caches.getObjectID(objectURI); ok {
		return id, nil
	}
	if obj, found, err := m.findObject(ctx, q, container, objectURI); err != nil {
		return 0, err
	} else if found {
		m.cacheObjectID(q, objectURI, obj.ObjectID)
		return obj.ObjectID, nil
	}
	if ownerObjectID != nil {
		owner, found, err := m.findObjectByID(ctx, q, *ownerObjectID)
		if err != nil {
			return 0, err
		}
		if !found || owner.Container != container {
			return 0, fmt.Errorf("ontology: owner object %d not in container %q", *ownerObjectID, container)
		}
	}
	res, err := m.db.Exec(ctx, q,
		"INSERT INTO OntologyObject (ObjectURI, Container, OwnerObjectId) VALUES (?, ?, ?) "+
			"ON CONFLICT (ObjectURI) DO NOTHING",
		objectURI, container, ownerObjectID)
	if err != nil {
		return 0, fmt.Errorf("ontology: insert object %q: %w", objectURI, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		obj, found, err := m.findObject(ctx, q, container, objectURI)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, fmt.Errorf("ontology: object %q: lost race and row vanished", objectURI)
		}
		m.cacheObjectID(q, objectURI, obj.ObjectID)
		return obj.ObjectID, nil
	}
	var id int64
	if m.db.Dialect.ReturnsLastInsertID() {
		id, err = res.LastInsertId()
	} else {
		err = m.db.QueryRow(ctx, q,
			"SELECT ObjectId FROM OntologyObject WHERE ObjectURI = ?", objectURI).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("ontology: resolve object id %q: %w", objectURI, err)
	}
	m.cacheObjectID(q, objectURI, id)
	return id, nil
}

// cacheObjectID records a resolved id only outside transactions: an id cached
// mid-transaction would survive a rollback and point at a vanished row.
func (m *Manager) cacheObjectID(q persistence.Querier, uri string, id int64) {
	if _, inTx := q.(*sql.Tx); inTx {
		return
	}
	m.caches.putObjectID(uri, id)
}

// GetObject loads the object record for a URI.
func (m *Manager) GetObject(ctx context.Context, container, objectURI string) (OntologyObject, error) {
	obj, found, err := m.findObject(ctx, m.db.DB, container, objectURI)
	if err != nil {
		return OntologyObject{}, err
	}
	if !found {
		return OntologyObject{}, &NotFoundError{Kind: "object", URI: objectURI}
	}
	return obj, nil
}

func (m *Manager) findObject(ctx context.Context, q persistence.Querier, container, objectURI string) (OntologyObject, bool, error) {
	var obj OntologyObject
	err := m.db.QueryRow(ctx, q,
		"SELECT ObjectId, ObjectURI, Container, OwnerObjectId FROM OntologyObject WHERE ObjectURI = ? AND Container = ?",
		objectURI, container).Scan(&obj.ObjectID, &obj.ObjectURI, &obj.Container, &obj.OwnerObjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return OntologyObject{}, false, nil
	}
	if err != nil {
		return OntologyObject{}, false, fmt.Errorf("ontology: select object %q: %w", objectURI, err)
	}
	return obj, true, nil
}

func (m *Manager) findObjectByID(ctx context.Context, q persistence.Querier, objectID int64) (OntologyObject, bool, error) {
	var obj OntologyObject
	err := m.db.QueryRow(ctx, q,
		"SELECT ObjectId, ObjectURI, Container, OwnerObjectId FROM OntologyObject WHERE ObjectId = ?",
		objectID).Scan(&obj.ObjectID, &obj.ObjectURI, &obj.Container, &obj.OwnerObjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return OntologyObject{}, false, nil
	}
	if err != nil {
		return OntologyObject{}, false, fmt.Errorf("ontology: select object %d: %w", objectID, err)
	}
	return obj, true, nil
}

// GetProperties returns all properties of the object keyed by property URI,
// cache-first. The returned map is shared with the cache: treat it as
// immutable.
func (m *Manager) GetProperties(ctx context.Context, container, objectURI string) (map[string]ObjectProperty, error) {
	if props, ok := m.caches.getProps(objectURI, container); ok {
		return props, nil
	}
	obj, found, err := m.findObject(ctx, m.db.DB, container, objectURI)
	if err != nil {
		return nil, err
	}
	if !found {
		// Negative entries carry the container they were checked against, so
		// a wrong-container miss never hides the object from its own
		// container.
		empty := map[string]ObjectProperty{}
		m.caches.putProps(objectURI, container, empty)
		return empty, nil
	}
	props, err := m.loadProperties(ctx, m.db.DB, obj.ObjectID)
	if err != nil {
		return nil, err
	}
	m.caches.putProps(objectURI, container, props)
	m.caches.putObjectID(objectURI, obj.ObjectID)
	return props, nil
}

func (m *Manager) loadProperties(ctx context.Context, q persistence.Querier, objectID int64) (map[string]ObjectProperty, error) {
	rows, err := m.db.Query(ctx, q,
		"SELECT op.ObjectId, op.PropertyId, pd.PropertyURI, pd.RangeURI, pd.ConceptURI, "+
			"op.StringValue, op.FloatValue, op.DateTimeValue, op.MvIndicator "+
			"FROM ObjectProperty op JOIN PropertyDescriptor pd ON pd.PropertyId = op.PropertyId "+
			"WHERE op.ObjectId = ?",
		objectID)
	if err != nil {
		return nil, fmt.Errorf("ontology: select object properties: %w", err)
	}
	defer func() { _ = rows.Close() }()
	props := make(map[string]ObjectProperty)
	for rows.Next() {
		var row PropertyRow
		var uri, rangeURI, conceptURI string
		if err := rows.Scan(&row.ObjectID, &row.PropertyID, &uri, &rangeURI, &conceptURI,
			&row.StringValue, &row.FloatValue, &row.DateTimeValue, &row.MvIndicator); err != nil {
			return nil, fmt.Errorf("ontology: scan object property: %w", err)
		}
		props[uri] = ObjectProperty{
			ObjectID:    row.ObjectID,
			PropertyID:  row.PropertyID,
			PropertyURI: uri,
			Type:        ontology.FromURI(conceptURI, rangeURI),
			Value:       ontology.DecodeRow(row),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ontology: iterate object properties: %w", err)
	}
	return props, nil
}

// DeleteOntologyObjects removes the given objects and all their property
// rows. Owned child objects left without any property rows are removed too.
// Returns the number of objects deleted.
func (m *Manager) DeleteOntologyObjects(ctx context.Context, container string, objectURIs ...string) (int, error) {
	if len(objectURIs) == 0 {
		return 0, nil
	}
	var ids []int64
	for _, uri := range objectURIs {
		obj, found, err := m.findObject(ctx, m.db.DB, container, uri)
		if err != nil {
			return 0, err
		}
		if found {
			ids = append(ids, obj.ObjectID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := m.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ontology: begin delete objects: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	deleted, err := m.deleteObjectsByID(ctx, tx, ids)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ontology: commit delete objects: %w", err)
	}
	committed = true
	for _, uri := range objectURIs {
		m.caches.EvictObject(uri)
	}
	m.deleteAttachments(ctx, container, objectURIs...)
	return deleted, nil
}

// deleteObjectsByID removes property rows then object rows, chunked to keep
// IN lists bounded, and sweeps owned children left with no data.
func (m *Manager) deleteObjectsByID(ctx context.Context, q persistence.Querier, ids []int64) (int, error) {
	total := 0
	for start := 0; start < len(ids); start += deleteChunkSize {
		end := min(start+deleteChunkSize, len(ids))
		chunk := ids[start:end]
		placeholders, args := inList(chunk)

		// Owned children first: a child whose only data hangs off this owner
		// set goes away with it.
		childRows, err := m.db.Query(ctx, q,
			"SELECT ObjectId FROM OntologyObject WHERE OwnerObjectId IN ("+placeholders+")", args...)
		if err != nil {
			return total, fmt.Errorf("ontology: select owned objects: %w", err)
		}
		var children []int64
		for childRows.Next() {
			var id int64
			if err := childRows.Scan(&id); err != nil {
				_ = childRows.Close()
				return total, fmt.Errorf("ontology: scan owned object: %w", err)
			}
			children = append(children, id)
		}
		_ = childRows.Close()
		if err := childRows.Err(); err != nil {
			return total, fmt.Errorf("ontology: iterate owned objects: %w", err)
		}
		if len(children) > 0 {
			n, err := m.deleteObjectsByID(ctx, q, children)
			if err != nil {
				return total, err
			}
			total += n
		}

		if _, err := m.db.Exec(ctx, q,
			"DELETE FROM ObjectProperty WHERE ObjectId IN ("+placeholders+")", args...); err != nil {
			return total, fmt.Errorf("ontology: delete property rows: %w", err)
		}
		res, err := m.db.Exec(ctx, q,
			"DELETE FROM OntologyObject WHERE ObjectId IN ("+placeholders+")", args...)
		if err != nil {
			return total, fmt.Errorf("ontology: delete objects: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += int(n)
		}
	}
	return total, nil
}

// DeleteAllObjects removes every object in the container. Caches are cleared
// wholesale after commit.
func (m *Manager) DeleteAllObjects(ctx context.Context, container string) (int, error) {
	tx, err := m.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ontology: begin delete all: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := m.db.Exec(ctx, tx,
		"DELETE FROM ObjectProperty WHERE ObjectId IN (SELECT ObjectId FROM OntologyObject WHERE Container = ?)",
		container); err != nil {
		return 0, fmt.Errorf("ontology: delete container property rows: %w", err)
	}
	res, err := m.db.Exec(ctx, tx, "DELETE FROM OntologyObject WHERE Container = ?", container)
	if err != nil {
		return 0, fmt.Errorf("ontology: delete container objects: %w", err)
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ontology: commit delete all: %w", err)
	}
	committed = true
	m.caches.ClearObjects()
	return int(n), nil
}

// DeleteObjectsOfType removes every object that carries a value for any
// property of the domain, chunked like the other bulk deletes.
func (m *Manager) DeleteObjectsOfType(ctx context.Context, domainURI, container string) (int, error) {
	dd, found, err := m.findDomainDescriptor(ctx, m.db.DB, domainURI, container)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, &NotFoundError{Kind: "domain", URI: domainURI}
	}
	rows, err := m.db.Query(ctx, m.db.DB,
		"SELECT DISTINCT op.ObjectId FROM ObjectProperty op "+
			"JOIN PropertyDomain pdm ON pdm.PropertyId = op.PropertyId "+
			"JOIN OntologyObject o ON o.ObjectId = op.ObjectId "+
			"WHERE pdm.DomainId = ? AND o.Container = ?",
		dd.DomainID, container)
	if err != nil {
		return 0, fmt.Errorf("ontology: select objects of type: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("ontology: scan object id: %w", err)
		}
		ids = append(ids, id)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("ontology: iterate objects of type: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := m.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ontology: begin delete type objects: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	deleted, err := m.deleteObjectsByID(ctx, tx, ids)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ontology: commit delete type objects: %w", err)
	}
	committed = true
	m.caches.ClearObjects()
	return deleted, nil
}

func inList(ids []int64) (string, []any) {
	placeholders := make([]byte, 0, len(ids)*2)
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = id
	}
	return string(placeholders), args
}
