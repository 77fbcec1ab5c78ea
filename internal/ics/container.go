package ics

import (
	"errors"
	"fmt"
	"strings"
)

// Component is one node of the parsed tree: either a *ContentLine leaf or a
// nested *Container. The interface is sealed; nothing else can be placed in
// a tree, so type safety of the children is enforced by the compiler.
type Component interface {
	String() string
	Equal(Component) bool
	component()
}

// Container is a named ordered block of components, delimited by
// BEGIN:NAME / END:NAME in the text format. The child slice is unexported;
// every mutating operation validates its input, so there is no unchecked
// mutation path.
type Container struct {
	Name string

	children []Component
}

// NewContainer builds a container, validating the name and every item.
func NewContainer(name string, items ...Component) (*Container, error) {
	if name == "" {
		return nil, errors.New("ics: container name is empty")
	}
	c := &Container{Name: name}
	if err := c.Append(items...); err != nil {
		return nil, err
	}
	return c, nil
}

// Len returns the number of direct children.
func (c *Container) Len() int { return len(c.children) }

// At returns the i-th child. Out-of-range indexes panic like slice access.
func (c *Container) At(i int) Component { return c.children[i] }

// Items returns a copy of the child slice. Mutating the returned slice does
// not affect the container; mutate through Append/Insert/Set instead.
func (c *Container) Items() []Component {
	return append([]Component(nil), c.children...)
}

// Append adds items at the end.
func (c *Container) Append(items ...Component) error {
	for _, item := range items {
		if err := checkComponent(item); err != nil {
			return err
		}
	}
	c.children = append(c.children, items...)
	return nil
}

// Extend adds all items of the given slice at the end.
func (c *Container) Extend(items []Component) error {
	return c.Append(items...)
}

// Insert places item before index i.
func (c *Container) Insert(i int, item Component) error {
	if err := checkComponent(item); err != nil {
		return err
	}
	if i < 0 || i > len(c.children) {
		return fmt.Errorf("ics: insert index %d out of range [0,%d]", i, len(c.children))
	}
	c.children = append(c.children, nil)
	copy(c.children[i+1:], c.children[i:])
	c.children[i] = item
	return nil
}

// Set replaces the i-th child.
func (c *Container) Set(i int, item Component) error {
	if err := checkComponent(item); err != nil {
		return err
	}
	if i < 0 || i >= len(c.children) {
		return fmt.Errorf("ics: index %d out of range [0,%d)", i, len(c.children))
	}
	c.children[i] = item
	return nil
}

// String renders the container as BEGIN:NAME, its children, END:NAME,
// joined with CRLF.
func (c *Container) String() string {
	parts := make([]string, 0, len(c.children)+2)
	parts = append(parts, "BEGIN:"+c.Name)
	for _, item := range c.children {
		parts = append(parts, item.String())
	}
	parts = append(parts, "END:"+c.Name)
	return strings.Join(parts, "\r\n")
}

// Equal reports whether other is a container with the same name and the
// same ordered children, compared recursively.
func (c *Container) Equal(other Component) bool {
	o, ok := other.(*Container)
	if !ok || o == nil {
		return false
	}
	if c.Name != o.Name || len(c.children) != len(o.children) {
		return false
	}
	for i, item := range c.children {
		if !item.Equal(o.children[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the container and everything below it.
func (c *Container) Clone() *Container {
	out := &Container{Name: c.Name, children: make([]Component, 0, len(c.children))}
	for _, item := range c.children {
		switch v := item.(type) {
		case *ContentLine:
			out.children = append(out.children, v.Clone())
		case *Container:
			out.children = append(out.children, v.Clone())
		}
	}
	return out
}

func (*Container) component() {}

func checkComponent(item Component) error {
	switch v := item.(type) {
	case *ContentLine:
		if v != nil {
			return nil
		}
	case *Container:
		if v != nil {
			return nil
		}
	}
	return errors.New("ics: container items must be non-nil content lines or containers")
}
