package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ontocore/internal/infra/persistence"
)

const propertyDescriptorColumns = "PropertyId, PropertyURI, Name, Label, Description, RangeURI, ConceptURI, Format, " +
	"Container, Project, Required, Hidden, MvEnabled, LookupContainer, LookupSchema, LookupQuery, ImportAliases"

func scanPropertyDescriptor(scan func(dest ...any) error) (PropertyDescriptor, error) {
	var pd PropertyDescriptor
	var aliases string
	err := scan(&pd.PropertyID, &pd.PropertyURI, &pd.Name, &pd.Label, &pd.Description,
		&pd.RangeURI, &pd.ConceptURI, &pd.Format, &pd.Container, &pd.Project,
		&pd.Required, &pd.Hidden, &pd.MvEnabled,
		&pd.LookupContainer, &pd.LookupSchema, &pd.LookupQuery, &aliases)
	if err != nil {
		return PropertyDescriptor{}, err
	}
	if aliases != "" {
		pd.ImportAliases = strings.Split(aliases, ",")
	}
	return pd, nil
}

// EnsurePropertyDescriptor is the idempotent get-or-create for a property
// descriptor. The conflict policy is derived from caller provenance; see
// EnsurePropertyDescriptorWithPolicy for the explicit form.
func (m *Manager) EnsurePropertyDescriptor(ctx context.Context, pd PropertyDescriptor) (PropertyDescriptor, error) {
	stored, found, err := m.findPropertyDescriptor(ctx, m.db.DB, pd.PropertyURI, pd.Container)
	if err != nil {
		return PropertyDescriptor{}, err
	}
	policy := UpdateIfAuthoritative
	if found {
		policy = m.policyFor(pd.Container, stored.Container)
	}
	return m.EnsurePropertyDescriptorWithPolicy(ctx, pd, policy)
}

// EnsurePropertyDescriptorWithPolicy runs ensure under an explicit conflict
// policy. Lookup identity is (PropertyURI, project-of-container), falling
// back to the shared project; when duplicates exist across both scopes the
// shared copy wins.
func (m *Manager) EnsurePropertyDescriptorWithPolicy(ctx context.Context, pd PropertyDescriptor, policy ConflictPolicy) (PropertyDescriptor, error) {
	if pd.PropertyURI == "" || pd.RangeURI == "" || pd.Container == "" {
		return PropertyDescriptor{}, fmt.Errorf("ontology: property descriptor needs uri, range, and container")
	}
	if pd.Name == "" {
		pd.Name = nameFromURI(pd.PropertyURI)
	}
	pd.Project = m.project(pd.Container)

	stored, found, err := m.findPropertyDescriptor(ctx, m.db.DB, pd.PropertyURI, pd.Container)
	if err != nil {
		return PropertyDescriptor{}, err
	}
	if found {
		return m.reconcilePropertyDescriptor(ctx, stored, pd, policy)
	}

	id, err := m.insertPropertyDescriptor(ctx, m.db.DB, pd)
	if err != nil {
		return PropertyDescriptor{}, fmt.Errorf("ontology: ensure property %q: %w", pd.PropertyURI, err)
	}
	if id == 0 {
		// Lost an insert race; the unique constraint on (PropertyURI, Project)
		// resolved it. Read back the winner.
		stored, found, err = m.findPropertyDescriptor(ctx, m.db.DB, pd.PropertyURI, pd.Container)
		if err != nil {
			return PropertyDescriptor{}, err
		}
		if !found {
			return PropertyDescriptor{}, fmt.Errorf("ontology: ensure property %q: lost race and row vanished", pd.PropertyURI)
		}
		m.caches.putPropertyDescriptor(stored)
		return stored, nil
	}
	pd.PropertyID = id
	m.caches.putPropertyDescriptor(pd)
	m.indexPropertyDescriptor(ctx, pd)
	return pd, nil
}

// GetPropertyDescriptor resolves a descriptor by URI within the caller's
// project scope, falling back to the shared scope.
func (m *Manager) GetPropertyDescriptor(ctx context.Context, propertyURI, container string) (PropertyDescriptor, error) {
	pd, found, err := m.findPropertyDescriptor(ctx, m.db.DB, propertyURI, container)
	if err != nil {
		return PropertyDescriptor{}, err
	}
	if !found {
		return PropertyDescriptor{}, &NotFoundError{Kind: "property", URI: propertyURI}
	}
	return pd, nil
}

func (m *Manager) findPropertyDescriptor(ctx context.Context, q persistence.Querier, propertyURI, container string) (PropertyDescriptor, bool, error) {
	project := m.project(container)
	shared := m.sharedProject()
	if pd, ok := m.caches.getPropertyDescriptor(DescriptorKey{URI: propertyURI, Project: project}); ok {
		return pd, true, nil
	}
	if pd, ok := m.caches.getPropertyDescriptor(DescriptorKey{URI: propertyURI, Project: shared}); ok {
		return pd, true, nil
	}
	rows, err := m.db.Query(ctx, q,
		"SELECT "+propertyDescriptorColumns+" FROM PropertyDescriptor WHERE PropertyURI = ? AND Project IN (?, ?)",
		propertyURI, project, shared)
	if err != nil {
		return PropertyDescriptor{}, false, fmt.Errorf("ontology: select property %q: %w", propertyURI, err)
	}
	defer func() { _ = rows.Close() }()
	var best PropertyDescriptor
	found := false
	for rows.Next() {
		pd, err := scanPropertyDescriptor(rows.Scan)
		if err != nil {
			return PropertyDescriptor{}, false, fmt.Errorf("ontology: scan property: %w", err)
		}
		// Duplicate URI across project and shared scope: shared wins.
		if !found || pd.Project == shared {
			best = pd
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return PropertyDescriptor{}, false, fmt.Errorf("ontology: iterate properties: %w", err)
	}
	if found {
		m.caches.putPropertyDescriptor(best)
	}
	return best, found, nil
}

func (m *Manager) insertPropertyDescriptor(ctx context.Context, q persistence.Querier, pd PropertyDescriptor) (int64, error) {
	// Insert-or-skip: uniqueness on (PropertyURI, Project) settles concurrent
	// creators; a zero id signals the row already existed.
	res, err := m.db.Exec(ctx, q,
		"INSERT INTO PropertyDescriptor (PropertyURI, Name, Label, Description, RangeURI, ConceptURI, Format, "+
			"Container, Project, Required, Hidden, MvEnabled, LookupContainer, LookupSchema, LookupQuery, ImportAliases) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) "+
			"ON CONFLICT (PropertyURI, Project) DO NOTHING",
		pd.PropertyURI, pd.Name, pd.Label, pd.Description, pd.RangeURI, pd.ConceptURI, pd.Format,
		pd.Container, pd.Project, pd.Required, pd.Hidden, pd.MvEnabled,
		pd.LookupContainer, pd.LookupSchema, pd.LookupQuery, strings.Join(pd.ImportAliases, ","))
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return 0, err
	}
	if m.db.Dialect.ReturnsLastInsertID() {
		return res.LastInsertId()
	}
	var id int64
	err = m.db.QueryRow(ctx, q,
		"SELECT PropertyId FROM PropertyDescriptor WHERE PropertyURI = ? AND Project = ?",
		pd.PropertyURI, pd.Project).Scan(&id)
	return id, err
}

func (m *Manager) reconcilePropertyDescriptor(ctx context.Context, stored, submitted PropertyDescriptor, policy ConflictPolicy) (PropertyDescriptor, error) {
	switch diffPropertyDescriptors(stored, submitted) {
	case diffNone:
		return m.maybeMigrateContainer(ctx, stored, submitted)
	case diffCosmetic:
		if policy != UpdateIfAuthoritative {
			return stored, nil
		}
		updated := submitted
		updated.PropertyID = stored.PropertyID
		updated.Container = stored.Container
		updated.Project = stored.Project
		if err := m.updatePropertyDescriptor(ctx, m.db.DB, updated); err != nil {
			return PropertyDescriptor{}, err
		}
		m.caches.putPropertyDescriptor(updated)
		m.indexPropertyDescriptor(ctx, updated)
		return updated, nil
	default: // diffMajor
		m.metrics.observeDescriptorConflict()
		hasValues, err := m.propertyHasValues(ctx, m.db.DB, stored.PropertyID)
		if err != nil {
			return PropertyDescriptor{}, err
		}
		if hasValues || policy != UpdateIfAuthoritative {
			return PropertyDescriptor{}, &TypeConflictError{
				PropertyURI: stored.PropertyURI,
				OldRangeURI: stored.RangeURI,
				NewRangeURI: submitted.RangeURI,
			}
		}
		updated := submitted
		updated.PropertyID = stored.PropertyID
		updated.Container = stored.Container
		updated.Project = stored.Project
		if err := m.updatePropertyDescriptor(ctx, m.db.DB, updated); err != nil {
			return PropertyDescriptor{}, err
		}
		m.caches.putPropertyDescriptor(updated)
		m.indexPropertyDescriptor(ctx, updated)
		return updated, nil
	}
}

// maybeMigrateContainer upgrades a descriptor's defining container when an
// otherwise-identical ensure arrives from the project root.
func (m *Manager) maybeMigrateContainer(ctx context.Context, stored, submitted PropertyDescriptor) (PropertyDescriptor, error) {
	if stored.Container == submitted.Container {
		return stored, nil
	}
	if submitted.Container != m.project(submitted.Container) {
		return stored, nil
	}
	if _, err := m.db.Exec(ctx, m.db.DB,
		"UPDATE PropertyDescriptor SET Container = ? WHERE PropertyId = ?",
		submitted.Container, stored.PropertyID); err != nil {
		return PropertyDescriptor{}, fmt.Errorf("ontology: migrate property container: %w", err)
	}
	stored.Container = submitted.Container
	m.caches.putPropertyDescriptor(stored)
	return stored, nil
}

func (m *Manager) updatePropertyDescriptor(ctx context.Context, q persistence.Querier, pd PropertyDescriptor) error {
	_, err := m.db.Exec(ctx, q,
		"UPDATE PropertyDescriptor SET Name = ?, Label = ?, Description = ?, RangeURI = ?, ConceptURI = ?, Format = ?, "+
			"Required = ?, Hidden = ?, MvEnabled = ?, LookupContainer = ?, LookupSchema = ?, LookupQuery = ?, ImportAliases = ? "+
			"WHERE PropertyId = ?",
		pd.Name, pd.Label, pd.Description, pd.RangeURI, pd.ConceptURI, pd.Format,
		pd.Required, pd.Hidden, pd.MvEnabled, pd.LookupContainer, pd.LookupSchema, pd.LookupQuery,
		strings.Join(pd.ImportAliases, ","), pd.PropertyID)
	if err != nil {
		return fmt.Errorf("ontology: update property %q: %w", pd.PropertyURI, err)
	}
	return nil
}

func (m *Manager) propertyHasValues(ctx context.Context, q persistence.Querier, propertyID int64) (bool, error) {
	var one int
	err := m.db.QueryRow(ctx, q,
		"SELECT 1 FROM ObjectProperty WHERE PropertyId = ? LIMIT 1", propertyID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ontology: probe property values: %w", err)
	}
	return true, nil
}

// EnsureDomainDescriptor is the idempotent get-or-create for a domain,
// symmetric to the property-level ensure.
func (m *Manager) EnsureDomainDescriptor(ctx context.Context, dd DomainDescriptor) (DomainDescriptor, error) {
	if dd.DomainURI == "" || dd.Container == "" {
		return DomainDescriptor{}, fmt.Errorf("ontology: domain descriptor needs uri and container")
	}
	if dd.Name == "" {
		dd.Name = nameFromURI(dd.DomainURI)
	}
	dd.Project = m.project(dd.Container)

	stored, found, err := m.findDomainDescriptor(ctx, m.db.DB, dd.DomainURI, dd.Container)
	if err != nil {
		return DomainDescriptor{}, err
	}
	if found {
		if diffDomainDescriptors(stored, dd) == diffCosmetic && m.policyFor(dd.Container, stored.Container) == UpdateIfAuthoritative {
			stored.Name = dd.Name
			if _, err := m.db.Exec(ctx, m.db.DB,
				"UPDATE DomainDescriptor SET Name = ? WHERE DomainId = ?", dd.Name, stored.DomainID); err != nil {
				return DomainDescriptor{}, fmt.Errorf("ontology: update domain %q: %w", dd.DomainURI, err)
			}
			m.caches.putDomainDescriptor(stored)
			m.indexDomainDescriptor(ctx, stored)
		}
		return stored, nil
	}

	res, err := m.db.Exec(ctx, m.db.DB,
		"INSERT INTO DomainDescriptor (DomainURI, Name, Container, Project) VALUES (?, ?, ?, ?) "+
			"ON CONFLICT (DomainURI, Project) DO NOTHING",
		dd.DomainURI, dd.Name, dd.Container, dd.Project)
	if err != nil {
		return DomainDescriptor{}, fmt.Errorf("ontology: ensure domain %q: %w", dd.DomainURI, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		stored, found, err = m.findDomainDescriptor(ctx, m.db.DB, dd.DomainURI, dd.Container)
		if err != nil {
			return DomainDescriptor{}, err
		}
		if !found {
			return DomainDescriptor{}, fmt.Errorf("ontology: ensure domain %q: lost race and row vanished", dd.DomainURI)
		}
		return stored, nil
	}
	if m.db.Dialect.ReturnsLastInsertID() {
		dd.DomainID, err = res.LastInsertId()
	} else {
		err = m.db.QueryRow(ctx, m.db.DB,
			"SELECT DomainId FROM DomainDescriptor WHERE DomainURI = ? AND Project = ?",
			dd.DomainURI, dd.Project).Scan(&dd.DomainID)
	}
	if err != nil {
		return DomainDescriptor{}, fmt.Errorf("ontology: ensure domain %q: %w", dd.DomainURI, err)
	}
	m.caches.putDomainDescriptor(dd)
	m.indexDomainDescriptor(ctx, dd)
	return dd, nil
}

// GetDomainDescriptor resolves a domain by URI within the caller's project,
// falling back to the shared scope.
func (m *Manager) GetDomainDescriptor(ctx context.Context, domainURI, container string) (DomainDescriptor, error) {
	dd, found, err := m.findDomainDescriptor(ctx, m.db.DB, domainURI, container)
	if err != nil {
		return DomainDescriptor{}, err
	}
	if !found {
		return DomainDescriptor{}, &NotFoundError{Kind: "domain", URI: domainURI}
	}
	return dd, nil
}

func (m *Manager) findDomainDescriptor(ctx context.Context, q persistence.Querier, domainURI, container string) (DomainDescriptor, bool, error) {
	project := m.project(container)
	shared := m.sharedProject()
	if dd, ok := m.caches.getDomainDescriptor(DescriptorKey{URI: domainURI, Project: project}); ok {
		return dd, true, nil
	}
	if dd, ok := m.caches.getDomainDescriptor(DescriptorKey{URI: domainURI, Project: shared}); ok {
		return dd, true, nil
	}
	rows, err := m.db.Query(ctx, q,
		"SELECT DomainId, DomainURI, Name, Container, Project FROM DomainDescriptor WHERE DomainURI = ? AND Project IN (?, ?)",
		domainURI, project, shared)
	if err != nil {
		return DomainDescriptor{}, false, fmt.Errorf("ontology: select domain %q: %w", domainURI, err)
	}
	defer func() { _ = rows.Close() }()
	var best DomainDescriptor
	found := false
	for rows.Next() {
		var dd DomainDescriptor
		if err := rows.Scan(&dd.DomainID, &dd.DomainURI, &dd.Name, &dd.Container, &dd.Project); err != nil {
			return DomainDescriptor{}, false, fmt.Errorf("ontology: scan domain: %w", err)
		}
		if !found || dd.Project == shared {
			best = dd
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return DomainDescriptor{}, false, fmt.Errorf("ontology: iterate domains: %w", err)
	}
	if found {
		m.caches.putDomainDescriptor(best)
	}
	return best, found, nil
}

// EnsurePropertyDomain makes pd a member of dd. Unlike the descriptor-level
// ensures this one updates unconditionally: an existing membership row gets
// the submitted required flag and sort order.
func (m *Manager) EnsurePropertyDomain(ctx context.Context, pd PropertyDescriptor, dd DomainDescriptor, required bool, sortOrder int) error {
	if pd.PropertyID == 0 || dd.DomainID == 0 {
		return fmt.Errorf("ontology: property domain membership needs persisted descriptors")
	}
	_, err := m.db.Exec(ctx, m.db.DB,
		"INSERT INTO PropertyDomain (PropertyId, DomainId, Required, SortOrder) VALUES (?, ?, ?, ?) "+
			"ON CONFLICT (PropertyId, DomainId) DO UPDATE SET Required = excluded.Required, SortOrder = excluded.SortOrder",
		pd.PropertyID, dd.DomainID, required, sortOrder)
	if err != nil {
		return fmt.Errorf("ontology: ensure property domain: %w", err)
	}
	m.caches.EvictDomain(dd.Key())
	return nil
}

// GetPropertiesForType returns the domain's properties joined with their
// per-domain required flags and sort order, cache-first.
func (m *Manager) GetPropertiesForType(ctx context.Context, domainURI, container string) ([]DomainPropertyView, error) {
	dd, err := m.GetDomainDescriptor(ctx, domainURI, container)
	if err != nil {
		return nil, err
	}
	key := dd.Key()
	if views, ok := m.caches.getDomainProperties(key); ok {
		return views, nil
	}
	views, err := m.loadDomainProperties(ctx, m.db.DB, dd.DomainID)
	if err != nil {
		return nil, err
	}
	m.caches.putDomainProperties(key, views)
	return views, nil
}

func (m *Manager) loadDomainProperties(ctx context.Context, q persistence.Querier, domainID int64) ([]DomainPropertyView, error) {
	rows, err := m.db.Query(ctx, q,
		"SELECT pd.PropertyId, pd.PropertyURI, pd.Name, pd.Label, pd.Description, pd.RangeURI, pd.ConceptURI, pd.Format, "+
			"pd.Container, pd.Project, pd.Required, pd.Hidden, pd.MvEnabled, pd.LookupContainer, pd.LookupSchema, pd.LookupQuery, pd.ImportAliases, "+
			"pdm.Required, pdm.SortOrder "+
			"FROM PropertyDomain pdm JOIN PropertyDescriptor pd ON pd.PropertyId = pdm.PropertyId "+
			"WHERE pdm.DomainId = ? ORDER BY pdm.SortOrder, pd.PropertyId",
		domainID)
	if err != nil {
		return nil, fmt.Errorf("ontology: select domain properties: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var views []DomainPropertyView
	for rows.Next() {
		var v DomainPropertyView
		var aliases string
		if err := rows.Scan(&v.PropertyID, &v.PropertyURI, &v.Name, &v.Label, &v.Description,
			&v.RangeURI, &v.ConceptURI, &v.Format, &v.PropertyDescriptor.Container, &v.Project,
			&v.PropertyDescriptor.Required, &v.Hidden, &v.MvEnabled,
			&v.LookupContainer, &v.LookupSchema, &v.LookupQuery, &aliases,
			&v.Required, &v.SortOrder); err != nil {
			return nil, fmt.Errorf("ontology: scan domain property: %w", err)
		}
		if aliases != "" {
			v.ImportAliases = strings.Split(aliases, ",")
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ontology: iterate domain properties: %w", err)
	}
	return views, nil
}

// DeletePropertyDescriptor removes a descriptor with its values and domain
// memberships in one atomic unit.
func (m *Manager) DeletePropertyDescriptor(ctx context.Context, propertyURI, container string) error {
	pd, found, err := m.findPropertyDescriptor(ctx, m.db.DB, propertyURI, container)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	tx, err := m.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ontology: begin delete property: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := m.deletePropertyRows(ctx, tx, pd.PropertyID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ontology: commit delete property: %w", err)
	}
	committed = true
	m.caches.EvictPropertyDescriptor(pd.Key())
	m.caches.ClearObjects()
	return nil
}

func (m *Manager) deletePropertyRows(ctx context.Context, q persistence.Querier, propertyID int64) error {
	if _, err := m.db.Exec(ctx, q, "DELETE FROM ObjectProperty WHERE PropertyId = ?", propertyID); err != nil {
		return fmt.Errorf("ontology: delete property values: %w", err)
	}
	if _, err := m.db.Exec(ctx, q, "DELETE FROM PropertyDomain WHERE PropertyId = ?", propertyID); err != nil {
		return fmt.Errorf("ontology: delete property memberships: %w", err)
	}
	if _, err := m.db.Exec(ctx, q, "DELETE FROM PropertyDescriptor WHERE PropertyId = ?", propertyID); err != nil {
		return fmt.Errorf("ontology: delete property descriptor: %w", err)
	}
	return nil
}

// DeleteDomain removes the domain, its membership rows, and any member
// descriptor not referenced by another domain (those remain untouched, never
// a constraint error). Runs in one atomic unit.
func (m *Manager) DeleteDomain(ctx context.Context, domainURI, container string) error {
	dd, found, err := m.findDomainDescriptor(ctx, m.db.DB, domainURI, container)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{Kind: "domain", URI: domainURI}
	}
	tx, err := m.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ontology: begin delete domain: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	memberIDs, err := m.memberPropertyIDs(ctx, tx, dd.DomainID)
	if err != nil {
		return err
	}
	if _, err := m.db.Exec(ctx, tx, "DELETE FROM PropertyDomain WHERE DomainId = ?", dd.DomainID); err != nil {
		return fmt.Errorf("ontology: delete domain memberships: %w", err)
	}
	for _, pid := range memberIDs {
		var one int
		err := m.db.QueryRow(ctx, tx,
			"SELECT 1 FROM PropertyDomain WHERE PropertyId = ? LIMIT 1", pid).Scan(&one)
		if err == nil {
			continue // still referenced by another domain; leave the descriptor
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("ontology: probe membership: %w", err)
		}
		if err := m.deletePropertyRows(ctx, tx, pid); err != nil {
			return err
		}
	}
	if _, err := m.db.Exec(ctx, tx, "DELETE FROM DomainDescriptor WHERE DomainId = ?", dd.DomainID); err != nil {
		return fmt.Errorf("ontology: delete domain descriptor: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ontology: commit delete domain: %w", err)
	}
	committed = true
	m.caches.Clear()
	return nil
}

// DeleteType deletes every object carrying properties of the domain, then the
// domain itself.
func (m *Manager) DeleteType(ctx context.Context, domainURI, container string) error {
	if _, err := m.DeleteObjectsOfType(ctx, domainURI, container); err != nil {
		return err
	}
	return m.DeleteDomain(ctx, domainURI, container)
}

func (m *Manager) memberPropertyIDs(ctx context.Context, q persistence.Querier, domainID int64) ([]int64, error) {
	rows, err := m.db.Query(ctx, q, "SELECT PropertyId FROM PropertyDomain WHERE DomainId = ?", domainID)
	if err != nil {
		return nil, fmt.Errorf("ontology: select members: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ontology: scan member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nameFromURI(uri string) string {
	if i := strings.LastIndexAny(uri, "#:/"); i >= 0 && i+1 < len(uri) {
		return uri[i+1:]
	}
	return uri
}
