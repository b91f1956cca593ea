package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// EventKind enumerates the discrete gestures an editing session processes
type EventKind string

const (
	EventInsert EventKind = "insert"
	EventMove   EventKind = "move"
	EventUpdate EventKind = "update"
	EventRemove EventKind = "remove"
	EventSelect EventKind = "select"
)

// Prop names the mutable node properties a settings panel edits
type Prop string

const (
	PropTitle       Prop = "title"
	PropWidth       Prop = "width"
	PropCustomLabel Prop = "customLabel"
	PropIsCollapsed Prop = "isCollapsed"
)

// Event is one structural or property gesture. Insert places a brand-new
// node (from the palette) at Parent/Slot/Index; Move relocates the node at
// Source to Parent/Slot/Index; Update, Remove and Select address Target.
type Event struct {
	Kind     EventKind
	NodeType NodeType // Insert: variant to instantiate
	FieldID  string   // Insert: registry field for field nodes
	Parent   Path     // Insert/Move destination container owner (empty = root)
	Slot     string   // Insert/Move destination slot name
	Index    int      // Insert/Move destination position
	Source   Path     // Move: node being relocated
	Target   Path     // Update/Remove/Select
	Prop     Prop     // Update
	Value    interface{}
}

// Session is a single-user editing session over one canonical tree. The tree
// is the only source of truth: the canvas is a rendering of it, and every
// gesture is applied synchronously through Apply, so a reorder can never race
// an insertion within the same gesture.
type Session struct {
	Schema   *Schema
	Selected Path // nil when nothing is selected
}

// NewSession starts editing the given canonical tree
func NewSession(schema *Schema) *Session {
	if schema == nil {
		schema = NewSchema()
	}
	return &Session{Schema: schema}
}

// Apply processes one event. On error the tree and selection are unchanged,
// so the caller can surface the failure and retry.
func (sess *Session) Apply(ev Event) error {
	switch ev.Kind {
	case EventInsert:
		return sess.applyInsert(ev)
	case EventMove:
		return sess.applyMove(ev)
	case EventUpdate:
		return sess.applyUpdate(ev)
	case EventRemove:
		return sess.applyRemove(ev)
	case EventSelect:
		return sess.applySelect(ev)
	}
	return fmt.Errorf("unknown event kind '%s'", ev.Kind)
}

func (sess *Session) applyInsert(ev Event) error {
	slot := ev.destSlot()
	list, err := sess.destination(ev)
	if err != nil {
		return err
	}
	if !allowedInSlot(slot, ev.NodeType) {
		return fmt.Errorf("node type '%s' is not allowed in slot '%s'", ev.NodeType, slot)
	}

	var node *Node
	if ev.NodeType == NodeField {
		node = NewFieldNode(ev.FieldID)
		if node == nil {
			return fmt.Errorf("field node requires a field identifier")
		}
	} else {
		node = NewNode(ev.NodeType)
		if node == nil {
			return fmt.Errorf("unknown node type '%s'", ev.NodeType)
		}
	}

	insertAt(list, clampIndex(ev.Index, len(*list)), node)
	return nil
}

func (sess *Session) applyMove(ev Event) error {
	srcList, srcIdx, ok := sess.Schema.ListAt(ev.Source)
	if !ok {
		return fmt.Errorf("move source '%s' not found", ev.Source)
	}
	node := (*srcList)[srcIdx]

	slot := ev.destSlot()
	// A destination parent at or under the source means the node would land
	// inside its own subtree. A sibling reorder can never trip this: the
	// shared parent's path is strictly shorter than the source path.
	if ev.Parent.HasPrefix(ev.Source) {
		return fmt.Errorf("cannot move a node into its own subtree")
	}

	destList, err := sess.destination(ev)
	if err != nil {
		return err
	}
	if !allowedInSlot(slot, node.Type) {
		return fmt.Errorf("node type '%s' is not allowed in slot '%s'", node.Type, slot)
	}

	// Remove first, then insert: when source and destination share a slice
	// the target index shifts left by one for positions past the source.
	destIdx := clampIndex(ev.Index, len(*destList))
	*srcList = append((*srcList)[:srcIdx], (*srcList)[srcIdx+1:]...)
	if destList == srcList && destIdx > srcIdx {
		destIdx--
	}
	insertAt(destList, clampIndex(destIdx, len(*destList)), node)

	// A selection pointing at or under the old position is stale; the caller
	// re-selects the node at its new path if it wants to keep it active.
	if sess.Selected != nil && sess.Selected.HasPrefix(ev.Source) {
		sess.Selected = nil
	}
	return nil
}

func (sess *Session) applyUpdate(ev Event) error {
	node, ok := sess.Schema.NodeAt(ev.Target)
	if !ok {
		return fmt.Errorf("node '%s' not found", ev.Target)
	}

	switch ev.Prop {
	case PropTitle:
		if node.Type != NodeGroup && node.Type != NodeTab {
			return fmt.Errorf("title is not editable on '%s' nodes", node.Type)
		}
		title := strings.TrimSpace(asString(ev.Value))
		if title == "" {
			title = DefaultTitle
		}
		node.Title = title
	case PropWidth:
		if node.Type != NodeColumn {
			return fmt.Errorf("width is not editable on '%s' nodes", node.Type)
		}
		node.Width = clampWidth(ev.Value)
	case PropCustomLabel:
		node.CustomLabel = strings.TrimSpace(asString(ev.Value))
	case PropIsCollapsed:
		if node.Type != NodeGroup {
			return fmt.Errorf("isCollapsed is not editable on '%s' nodes", node.Type)
		}
		node.IsCollapsed = asBool(ev.Value)
	default:
		return fmt.Errorf("unknown property '%s'", ev.Prop)
	}
	return nil
}

func (sess *Session) applyRemove(ev Event) error {
	if !sess.Schema.RemoveAt(ev.Target) {
		return fmt.Errorf("node '%s' not found", ev.Target)
	}
	if sess.Selected != nil && sess.Selected.HasPrefix(ev.Target) {
		sess.Selected = nil
	}
	return nil
}

func (sess *Session) applySelect(ev Event) error {
	if ev.Target == nil {
		sess.Selected = nil
		return nil
	}
	if _, ok := sess.Schema.NodeAt(ev.Target); !ok {
		return fmt.Errorf("node '%s' not found", ev.Target)
	}
	sess.Selected = ev.Target
	return nil
}

// destSlot resolves the destination slot name, defaulting to the root slot
// for top-level drops
func (ev Event) destSlot() string {
	if ev.Slot == "" && len(ev.Parent) == 0 {
		return slotNodes
	}
	return ev.Slot
}

// destination resolves the container slice an insert or move lands in
func (sess *Session) destination(ev Event) (*[]*Node, error) {
	slot := ev.destSlot()
	list, ok := sess.Schema.SlotAt(ev.Parent, slot)
	if !ok {
		return nil, fmt.Errorf("destination '%s/%s' not found", ev.Parent, slot)
	}
	return list, nil
}

func insertAt(list *[]*Node, idx int, node *Node) {
	*list = append(*list, nil)
	copy((*list)[idx+1:], (*list)[idx:])
	(*list)[idx] = node
}

func clampIndex(idx, length int) int {
	if idx < 0 {
		return 0
	}
	if idx > length {
		return length
	}
	return idx
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	}
	return false
}
