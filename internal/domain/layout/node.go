// Package layout owns the canonical form-layout tree: the recursive structure
// of tabs, groups, rows, columns and field slots a visual designer edits, the
// normalization that tolerates legacy wire shapes, and path-addressed access.
package layout

// SchemaVersion is the wire version every serialized layout carries
const SchemaVersion = "1.0"

// DefaultTitle is the placeholder assigned to groups and tabs created or
// normalized without one
const DefaultTitle = "Untitled"

// Column width bounds, in grid units
const (
	MinColumnWidth     = 1
	MaxColumnWidth     = 12
	DefaultColumnWidth = 12
)

// NodeType tags the layout node variants
type NodeType string

const (
	NodeField      NodeType = "field"
	NodeGroup      NodeType = "group"
	NodeRow        NodeType = "row"
	NodeColumn     NodeType = "column"
	NodeTabControl NodeType = "tabControl"
	NodeTab        NodeType = "tab"
)

// Node is one element of the layout tree. The populated fields depend on
// Type; normalization guarantees container slices are non-nil and hold only
// well-formed nodes of the expected sub-type.
type Node struct {
	Type        NodeType `json:"type"`
	FieldID     string   `json:"fieldId,omitempty"`
	CustomLabel string   `json:"customLabel,omitempty"`
	Title       string   `json:"title,omitempty"`
	IsCollapsed bool     `json:"isCollapsed,omitempty"`
	Width       int      `json:"width,omitempty"`
	Children    []*Node  `json:"children,omitempty"`
	Columns     []*Node  `json:"columns,omitempty"`
	Tabs        []*Node  `json:"tabs,omitempty"`
}

// Schema is the canonical layout document
type Schema struct {
	Version string  `json:"version"`
	Nodes   []*Node `json:"nodes"`
}

// NewSchema creates an empty layout document
func NewSchema() *Schema {
	return &Schema{Version: SchemaVersion, Nodes: []*Node{}}
}

// NewNode instantiates a node from a palette action with the same defaults
// normalization applies, so freshly created and freshly normalized nodes are
// indistinguishable. Field nodes need NewFieldNode instead.
func NewNode(t NodeType) *Node {
	switch t {
	case NodeGroup:
		return &Node{Type: NodeGroup, Title: DefaultTitle, Children: []*Node{}}
	case NodeTab:
		return &Node{Type: NodeTab, Title: DefaultTitle, Children: []*Node{}}
	case NodeRow:
		return &Node{Type: NodeRow, Columns: []*Node{}}
	case NodeColumn:
		return &Node{Type: NodeColumn, Width: DefaultColumnWidth, Children: []*Node{}}
	case NodeTabControl:
		return &Node{Type: NodeTabControl, Tabs: []*Node{}}
	default:
		return nil
	}
}

// NewFieldNode instantiates a field slot referencing a registry field
func NewFieldNode(fieldID string) *Node {
	if fieldID == "" {
		return nil
	}
	return &Node{Type: NodeField, FieldID: fieldID}
}

// childSlot returns the container slice a node exposes to the designer, along
// with its slot name. Every container type is handled uniformly through this
// accessor despite the different child-array names.
func (n *Node) childSlot() (string, *[]*Node) {
	switch n.Type {
	case NodeGroup, NodeTab, NodeColumn:
		return slotChildren, &n.Children
	case NodeRow:
		return slotColumns, &n.Columns
	case NodeTabControl:
		return slotTabs, &n.Tabs
	default:
		return "", nil
	}
}

// allowedInSlot reports whether a node type may live in a given slot
func allowedInSlot(slot string, t NodeType) bool {
	switch slot {
	case slotColumns:
		return t == NodeColumn
	case slotTabs:
		return t == NodeTab
	case slotNodes, slotChildren:
		switch t {
		case NodeField, NodeGroup, NodeRow, NodeTabControl:
			return true
		}
	}
	return false
}

// FieldIDs returns every field referenced by the tree, in render order
func (s *Schema) FieldIDs() []string {
	var ids []string
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if n.Type == NodeField {
				ids = append(ids, n.FieldID)
				continue
			}
			if _, slot := n.childSlot(); slot != nil {
				walk(*slot)
			}
		}
	}
	walk(s.Nodes)
	return ids
}
