// # internal/engine/scope/scope.go
package scope

// ID addresses a scope inside its Chain. Parents are stored as IDs so the
// chain never holds owning references back up the tree.
type ID int

// None marks the absence of a scope (the root's parent, failed lookups).
const None ID = -1

// Binding is whatever the caller records for a declared name. The module
// analyzer stores its declaration records here.
type Binding interface{}

type Scope struct {
	ID            ID
	Parent        ID
	HoistBoundary bool // function or module scope: target of var-style declarations
	Depth         int
	declarations  map[string]Binding
	order         []string
}

// Chain is an arena of scopes for a single module.
type Chain struct {
	scopes []*Scope
}

func NewChain() *Chain {
	return &Chain{}
}

// New creates a child of parent. Pass None to create the module root.
func (c *Chain) New(parent ID, hoistBoundary bool) ID {
	depth := 0
	if p := c.Get(parent); p != nil {
		depth = p.Depth + 1
	}
	id := ID(len(c.scopes))
	c.scopes = append(c.scopes, &Scope{
		ID:            id,
		Parent:        parent,
		HoistBoundary: hoistBoundary,
		Depth:         depth,
		declarations:  make(map[string]Binding),
	})
	return id
}

func (c *Chain) Get(id ID) *Scope {
	if id < 0 || int(id) >= len(c.scopes) {
		return nil
	}
	return c.scopes[id]
}

func (c *Chain) Len() int {
	return len(c.scopes)
}

// Declare records name in scope id. A second declaration of the same name in
// the same scope replaces the first.
func (c *Chain) Declare(id ID, name string, b Binding) {
	s := c.Get(id)
	if s == nil || name == "" {
		return
	}
	if _, exists := s.declarations[name]; !exists {
		s.order = append(s.order, name)
	}
	s.declarations[name] = b
}

// Resolve walks parent links from id and returns the nearest scope that
// declares name.
func (c *Chain) Resolve(id ID, name string) (ID, Binding, bool) {
	for s := c.Get(id); s != nil; s = c.Get(s.Parent) {
		if b, ok := s.declarations[name]; ok {
			return s.ID, b, true
		}
	}
	return None, nil, false
}

// HoistTarget returns the nearest hoist boundary at or above id.
func (c *Chain) HoistTarget(id ID) ID {
	last := None
	for s := c.Get(id); s != nil; s = c.Get(s.Parent) {
		if s.HoistBoundary {
			return s.ID
		}
		last = s.ID
	}
	return last
}

// Lookup returns the binding declared directly in id, without walking parents.
func (c *Chain) Lookup(id ID, name string) (Binding, bool) {
	s := c.Get(id)
	if s == nil {
		return nil, false
	}
	b, ok := s.declarations[name]
	return b, ok
}

// Names lists the names declared directly in id in first-declaration order.
func (c *Chain) Names(id ID) []string {
	s := c.Get(id)
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
