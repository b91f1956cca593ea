package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Slot names addressable inside a path
const (
	slotNodes    = "nodes"
	slotChildren = "children"
	slotColumns  = "columns"
	slotTabs     = "tabs"
)

// Segment addresses one step into the tree: a container slot and an index
// within it. The first segment of every path uses the root "nodes" slot.
type Segment struct {
	Slot  string
	Index int
}

// Path addresses a node from the schema root. Paths are built and consumed
// through these helpers only; the delimiter-joined wire form is parsed once
// at the boundary and never inside the engine.
type Path []Segment

// Root builds a path addressing the i-th top-level node
func Root(index int) Path {
	return Path{{Slot: slotNodes, Index: index}}
}

// Child extends a path one level down without mutating the receiver
func (p Path) Child(slot string, index int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, Segment{Slot: slot, Index: index})
}

// Equal reports whether two paths address the same node
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix addresses the node itself or an ancestor
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Parent returns the path to the containing slot's owner, and false at root
func (p Path) Parent() (Path, bool) {
	if len(p) <= 1 {
		return nil, false
	}
	return p[:len(p)-1], true
}

// String renders the wire form, e.g. "nodes.0.children.2"
func (p Path) String() string {
	parts := make([]string, 0, len(p)*2)
	for _, seg := range p {
		parts = append(parts, seg.Slot, strconv.Itoa(seg.Index))
	}
	return strings.Join(parts, ".")
}

// ParsePath converts a serialized path into typed segments. The wire form
// alternates slot names and indices and must start at the root slot.
func ParsePath(wire string) (Path, error) {
	if wire == "" {
		return nil, fmt.Errorf("empty path")
	}
	parts := strings.Split(wire, ".")
	if len(parts)%2 != 0 {
		return nil, fmt.Errorf("malformed path '%s': segments must pair a slot with an index", wire)
	}

	path := make(Path, 0, len(parts)/2)
	for i := 0; i < len(parts); i += 2 {
		slot := parts[i]
		switch slot {
		case slotNodes:
			if i != 0 {
				return nil, fmt.Errorf("malformed path '%s': '%s' is only valid at the root", wire, slot)
			}
		case slotChildren, slotColumns, slotTabs:
			if i == 0 {
				return nil, fmt.Errorf("malformed path '%s': must start at '%s'", wire, slotNodes)
			}
		default:
			return nil, fmt.Errorf("malformed path '%s': unknown slot '%s'", wire, slot)
		}

		index, err := strconv.Atoi(parts[i+1])
		if err != nil || index < 0 {
			return nil, fmt.Errorf("malformed path '%s': invalid index '%s'", wire, parts[i+1])
		}
		path = append(path, Segment{Slot: slot, Index: index})
	}
	return path, nil
}

// NodeAt traverses the tree along the path and returns the addressed node
func (s *Schema) NodeAt(path Path) (*Node, bool) {
	list, idx, ok := s.ListAt(path)
	if !ok {
		return nil, false
	}
	return (*list)[idx], true
}

// ListAt returns the nearest containing array for structural mutation, plus
// the addressed node's index within it. Rows only expose columns and tab
// controls only tabs; a path naming the wrong slot addresses nothing.
func (s *Schema) ListAt(path Path) (*[]*Node, int, bool) {
	if len(path) == 0 || path[0].Slot != slotNodes {
		return nil, 0, false
	}

	list := &s.Nodes
	for depth, seg := range path {
		if depth > 0 {
			parent := (*list)[path[depth-1].Index]
			name, slot := parent.childSlot()
			if slot == nil || name != seg.Slot {
				return nil, 0, false
			}
			list = slot
		}
		if seg.Index < 0 || seg.Index >= len(*list) {
			return nil, 0, false
		}
	}
	return list, path[len(path)-1].Index, true
}

// SlotAt resolves the container slice identified by a parent path and slot
// name, for insertions at a position that may equal the slice length
func (s *Schema) SlotAt(parent Path, slot string) (*[]*Node, bool) {
	if len(parent) == 0 {
		if slot != slotNodes {
			return nil, false
		}
		return &s.Nodes, true
	}
	node, ok := s.NodeAt(parent)
	if !ok {
		return nil, false
	}
	name, list := node.childSlot()
	if list == nil || name != slot {
		return nil, false
	}
	return list, true
}

// RemoveAt removes the addressed node from its parent's array, keeping
// sibling indices contiguous
func (s *Schema) RemoveAt(path Path) bool {
	list, idx, ok := s.ListAt(path)
	if !ok {
		return false
	}
	*list = append((*list)[:idx], (*list)[idx+1:]...)
	return true
}
