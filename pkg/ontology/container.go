// Package ontology defines the public domain types of the property storage
// layer: containers, property types, typed values, descriptors, and the error
// taxonomy. The storage engine itself lives in internal/core.
package ontology

import "fmt"

// SharedContainerID identifies the distinguished shared container. Descriptors
// defined there are visible to every project.
const SharedContainerID = "shared"

// Container is a tenant-scoped folder. Containers form a tree; the nearest
// ancestor marked as a scoping root (or the container itself) is its project.
type Container struct {
	ID          string
	Name        string
	ParentID    string
	ScopingRoot bool
}

// IsShared reports whether the container is the distinguished shared scope.
func (c Container) IsShared() bool { return c.ID == SharedContainerID }

// ContainerProvider resolves containers and their project scoping. The
// storage engine never walks the tree itself; all ancestry questions go
// through this interface.
type ContainerProvider interface {
	// Get resolves a container by id.
	Get(id string) (Container, bool)
	// Project returns the nearest scoping-root ancestor of the container,
	// or the container itself when it is a root.
	Project(id string) (Container, bool)
	// Children lists direct children of the container.
	Children(id string) []Container
	// IsAncestor reports whether ancestorID is on id's parent chain.
	IsAncestor(ancestorID, id string) bool
	// Shared returns the distinguished shared container.
	Shared() Container
}

// ContainerTree is an in-memory ContainerProvider. It backs tests and tools;
// production deployments supply their own provider.
type ContainerTree struct {
	nodes map[string]Container
}

// NewContainerTree constructs a tree seeded with the shared container.
func NewContainerTree() *ContainerTree {
	t := &ContainerTree{nodes: make(map[string]Container)}
	t.nodes[SharedContainerID] = Container{ID: SharedContainerID, Name: "Shared", ScopingRoot: true}
	return t
}

// Add inserts a container. The parent must already exist unless the container
// is parentless (a top-level project).
func (t *ContainerTree) Add(c Container) error {
	if c.ID == "" {
		return fmt.Errorf("container: id required")
	}
	if _, dup := t.nodes[c.ID]; dup {
		return fmt.Errorf("container %q already exists", c.ID)
	}
	if c.ParentID != "" {
		if _, ok := t.nodes[c.ParentID]; !ok {
			return fmt.Errorf("container %q: parent %q not found", c.ID, c.ParentID)
		}
	} else {
		c.ScopingRoot = true
	}
	t.nodes[c.ID] = c
	return nil
}

// Reparent moves a container (and implicitly its subtree) under a new parent.
func (t *ContainerTree) Reparent(id, newParentID string) error {
	c, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("container %q not found", id)
	}
	if _, ok := t.nodes[newParentID]; !ok {
		return fmt.Errorf("container %q: new parent %q not found", id, newParentID)
	}
	if t.IsAncestor(id, newParentID) {
		return fmt.Errorf("container %q: cannot reparent under own descendant %q", id, newParentID)
	}
	c.ParentID = newParentID
	t.nodes[id] = c
	return nil
}

// Get implements ContainerProvider.
func (t *ContainerTree) Get(id string) (Container, bool) {
	c, ok := t.nodes[id]
	return c, ok
}

// Project implements ContainerProvider.
func (t *ContainerTree) Project(id string) (Container, bool) {
	c, ok := t.nodes[id]
	for ok {
		if c.ScopingRoot || c.ParentID == "" {
			return c, true
		}
		c, ok = t.nodes[c.ParentID]
	}
	return Container{}, false
}

// Children implements ContainerProvider.
func (t *ContainerTree) Children(id string) []Container {
	var out []Container
	for _, c := range t.nodes {
		if c.ParentID == id {
			out = append(out, c)
		}
	}
	return out
}

// IsAncestor implements ContainerProvider.
func (t *ContainerTree) IsAncestor(ancestorID, id string) bool {
	c, ok := t.nodes[id]
	for ok && c.ParentID != "" {
		if c.ParentID == ancestorID {
			return true
		}
		c, ok = t.nodes[c.ParentID]
	}
	return false
}

// Shared implements ContainerProvider.
func (t *ContainerTree) Shared() Container { return t.nodes[SharedContainerID] }

var _ ContainerProvider = (*ContainerTree)(nil)
