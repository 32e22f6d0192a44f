package core

// ConflictPolicy decides how a descriptor ensure call reconciles differences
// against the stored row. The policy is an explicit strategy so it can be
// tested without container-tree mechanics; EnsurePropertyDescriptor derives
// it from caller provenance.
type ConflictPolicy int

const (
	// RejectOnConflict fails on any material (storage-affecting) difference.
	// Cosmetic drift is still accepted silently.
	RejectOnConflict ConflictPolicy = iota
	// UpdateIfAuthoritative applies the caller's differences to the stored
	// row. Material changes remain guarded by the values-exist check.
	UpdateIfAuthoritative
	// IgnoreCosmeticDiff keeps the stored row untouched and treats material
	// differences as conflicts.
	IgnoreCosmeticDiff
)

// descriptorDiff classifies how a submitted descriptor differs from the
// stored one.
type descriptorDiff int

const (
	diffNone descriptorDiff = iota
	diffCosmetic
	diffMajor
)

// diffPropertyDescriptors compares storage-affecting fields first: a range or
// concept URI change that alters the storage tag (or the range URI at all) is
// major; everything else is cosmetic.
func diffPropertyDescriptors(stored, submitted PropertyDescriptor) descriptorDiff {
	if stored.RangeURI != submitted.RangeURI || stored.ConceptURI != submitted.ConceptURI {
		return diffMajor
	}
	if stored.Name != submitted.Name ||
		stored.Label != submitted.Label ||
		stored.Description != submitted.Description ||
		stored.Format != submitted.Format ||
		stored.Required != submitted.Required ||
		stored.Hidden != submitted.Hidden ||
		stored.MvEnabled != submitted.MvEnabled ||
		stored.LookupContainer != submitted.LookupContainer ||
		stored.LookupSchema != submitted.LookupSchema ||
		stored.LookupQuery != submitted.LookupQuery {
		return diffCosmetic
	}
	return diffNone
}

func diffDomainDescriptors(stored, submitted DomainDescriptor) descriptorDiff {
	if stored.Name != submitted.Name {
		return diffCosmetic
	}
	return diffNone
}

// policyFor derives the conflict policy from caller provenance: a caller
// writing from the descriptor's own container, the project root, or the
// shared container is authoritative; anyone else only reads.
func (m *Manager) policyFor(callerContainer, storedContainer string) ConflictPolicy {
	if callerContainer == storedContainer {
		return UpdateIfAuthoritative
	}
	project := m.project(callerContainer)
	if callerContainer == project || callerContainer == m.sharedProject() {
		return UpdateIfAuthoritative
	}
	return IgnoreCosmeticDiff
}
