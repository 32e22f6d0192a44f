package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ontocore/internal/infra/persistence"
)

// MoveContainer repairs descriptor scoping after a container is reparented
// into a different project. Descriptor identity is (URI, project), so a move
// across projects can silently fork identity; this operation detects and
// materializes that fork.
//
// Call it after the container tree has been updated, passing the project the
// container used to belong to. For every descriptor defined in the moved
// container under the old project:
//
//   - referenced only by objects inside the moved subtree: the descriptor
//     row simply moves to the new project;
//   - referenced by objects outside the subtree: the row stays in the old
//     project for those references, a clone is created in the new project,
//     and rows belonging to the subtree are rebound to the clone.
//
// Domain descriptors defined in the moved container travel with it; their
// membership rows are repointed at clones where a member property forked.
func (m *Manager) MoveContainer(ctx context.Context, containerID, oldProjectID string) error {
	newProject := m.project(containerID)
	if newProject == oldProjectID {
		return nil
	}
	subtree := m.subtreeIDs(containerID)

	tx, err := m.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ontology: begin container move: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	movedDomainIDs, err := m.moveDomains(ctx, tx, subtree, oldProjectID, newProject)
	if err != nil {
		return err
	}
	if err := m.movePropertyDescriptors(ctx, tx, oldProjectID, newProject, subtree, movedDomainIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ontology: commit container move: %w", err)
	}
	committed = true
	m.caches.Clear()
	return nil
}

// subtreeIDs lists the moved container and all its descendants.
func (m *Manager) subtreeIDs(containerID string) []string {
	ids := []string{containerID}
	for i := 0; i < len(ids); i++ {
		for _, child := range m.containers.Children(ids[i]) {
			ids = append(ids, child.ID)
		}
	}
	return ids
}

// moveDomains reassigns every domain defined anywhere in the moved subtree,
// not just in its root folder.
func (m *Manager) moveDomains(ctx context.Context, q persistence.Querier, subtree []string, oldProject, newProject string) (map[int64]bool, error) {
	subtreeList, subtreeArgs := stringList(subtree)
	rows, err := m.db.Query(ctx, q,
		"SELECT DomainId FROM DomainDescriptor WHERE Container IN ("+subtreeList+") AND Project = ?",
		append(subtreeArgs, oldProject)...)
	if err != nil {
		return nil, fmt.Errorf("ontology: select moved domains: %w", err)
	}
	moved := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("ontology: scan moved domain: %w", err)
		}
		moved[id] = true
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ontology: iterate moved domains: %w", err)
	}
	if _, err := m.db.Exec(ctx, q,
		"UPDATE DomainDescriptor SET Project = ? WHERE Container IN ("+subtreeList+") AND Project = ?",
		append(append([]any{newProject}, subtreeArgs...), oldProject)...); err != nil {
		return nil, fmt.Errorf("ontology: move domains: %w", err)
	}
	return moved, nil
}

func (m *Manager) movePropertyDescriptors(ctx context.Context, q persistence.Querier, oldProject, newProject string, subtree []string, movedDomainIDs map[int64]bool) error {
	subtreeList, subtreeArgs := stringList(subtree)
	rows, err := m.db.Query(ctx, q,
		"SELECT "+propertyDescriptorColumns+" FROM PropertyDescriptor WHERE Container IN ("+subtreeList+") AND Project = ?",
		append(subtreeArgs, oldProject)...)
	if err != nil {
		return fmt.Errorf("ontology: select moved properties: %w", err)
	}
	var pds []PropertyDescriptor
	for rows.Next() {
		pd, err := scanPropertyDescriptor(rows.Scan)
		if err != nil {
			_ = rows.Close()
			return fmt.Errorf("ontology: scan moved property: %w", err)
		}
		pds = append(pds, pd)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("ontology: iterate moved properties: %w", err)
	}

	for _, pd := range pds {
		external, err := m.hasExternalReferences(ctx, q, pd.PropertyID, subtreeList, subtreeArgs)
		if err != nil {
			return err
		}
		if !external {
			// Simple move: no reference outside the subtree depends on the
			// old-project identity.
			if _, err := m.db.Exec(ctx, q,
				"UPDATE PropertyDescriptor SET Project = ? WHERE PropertyId = ?",
				newProject, pd.PropertyID); err != nil {
				return fmt.Errorf("ontology: move property %q: %w", pd.PropertyURI, err)
			}
			continue
		}
		// Fork: the old row keeps serving external references under the old
		// project; subtree data rebinds to a clone under the new project.
		clone := pd
		clone.Project = newProject
		cloneID, err := m.insertPropertyDescriptor(ctx, q, clone)
		if err != nil {
			return fmt.Errorf("ontology: fork property %q: %w", pd.PropertyURI, err)
		}
		if cloneID == 0 {
			var existing int64
			if err := m.db.QueryRow(ctx, q,
				"SELECT PropertyId FROM PropertyDescriptor WHERE PropertyURI = ? AND Project = ?",
				pd.PropertyURI, newProject).Scan(&existing); err != nil {
				return fmt.Errorf("ontology: resolve forked property %q: %w", pd.PropertyURI, err)
			}
			cloneID = existing
		}
		if _, err := m.db.Exec(ctx, q,
			"UPDATE ObjectProperty SET PropertyId = ? WHERE PropertyId = ? AND ObjectId IN "+
				"(SELECT ObjectId FROM OntologyObject WHERE Container IN ("+subtreeList+"))",
			append([]any{cloneID, pd.PropertyID}, subtreeArgs...)...); err != nil {
			return fmt.Errorf("ontology: rebind values of %q: %w", pd.PropertyURI, err)
		}
		if err := m.rebindMemberships(ctx, q, pd.PropertyID, cloneID, movedDomainIDs); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) hasExternalReferences(ctx context.Context, q persistence.Querier, propertyID int64, subtreeList string, subtreeArgs []any) (bool, error) {
	var one int
	err := m.db.QueryRow(ctx, q,
		"SELECT 1 FROM ObjectProperty op JOIN OntologyObject o ON o.ObjectId = op.ObjectId "+
			"WHERE op.PropertyId = ? AND o.Container NOT IN ("+subtreeList+") LIMIT 1",
		append([]any{propertyID}, subtreeArgs...)...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ontology: probe external references: %w", err)
	}
	return true, nil
}

// rebindMemberships repoints moved domains' membership rows at the clone;
// memberships in domains that stayed behind keep the original descriptor.
func (m *Manager) rebindMemberships(ctx context.Context, q persistence.Querier, oldID, cloneID int64, movedDomainIDs map[int64]bool) error {
	rows, err := m.db.Query(ctx, q,
		"SELECT DomainId, Required, SortOrder FROM PropertyDomain WHERE PropertyId = ?", oldID)
	if err != nil {
		return fmt.Errorf("ontology: select memberships: %w", err)
	}
	type membership struct {
		domainID  int64
		required  bool
		sortOrder int
	}
	var toMove []membership
	for rows.Next() {
		var mb membership
		if err := rows.Scan(&mb.domainID, &mb.required, &mb.sortOrder); err != nil {
			_ = rows.Close()
			return fmt.Errorf("ontology: scan membership: %w", err)
		}
		if movedDomainIDs[mb.domainID] {
			toMove = append(toMove, mb)
		}
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("ontology: iterate memberships: %w", err)
	}
	for _, mb := range toMove {
		if _, err := m.db.Exec(ctx, q,
			"DELETE FROM PropertyDomain WHERE PropertyId = ? AND DomainId = ?", oldID, mb.domainID); err != nil {
			return fmt.Errorf("ontology: unlink membership: %w", err)
		}
		if _, err := m.db.Exec(ctx, q,
			"INSERT INTO PropertyDomain (PropertyId, DomainId, Required, SortOrder) VALUES (?, ?, ?, ?) "+
				"ON CONFLICT (PropertyId, DomainId) DO UPDATE SET Required = excluded.Required, SortOrder = excluded.SortOrder",
			cloneID, mb.domainID, mb.required, mb.sortOrder); err != nil {
			return fmt.Errorf("ontology: relink membership: %w", err)
		}
	}
	return nil
}

func stringList(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}
