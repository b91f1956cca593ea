package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_InsertFromPalette(t *testing.T) {
	sess := NewSession(nil)

	require.NoError(t, sess.Apply(Event{Kind: EventInsert, NodeType: NodeGroup}))
	require.NoError(t, sess.Apply(Event{
		Kind: EventInsert, NodeType: NodeField, FieldID: "f1",
		Parent: Root(0), Slot: slotChildren, Index: 0,
	}))

	group, ok := sess.Schema.NodeAt(Root(0))
	require.True(t, ok)
	assert.Equal(t, DefaultTitle, group.Title)
	require.Len(t, group.Children, 1)
	assert.Equal(t, "f1", group.Children[0].FieldID)
}

func TestSession_InsertRejectsWrongSlot(t *testing.T) {
	sess := NewSession(nil)
	require.NoError(t, sess.Apply(Event{Kind: EventInsert, NodeType: NodeRow}))

	// Only columns belong in a row
	err := sess.Apply(Event{
		Kind: EventInsert, NodeType: NodeField, FieldID: "f1",
		Parent: Root(0), Slot: slotColumns,
	})
	assert.Error(t, err)

	// A column at the root is equally invalid
	err = sess.Apply(Event{Kind: EventInsert, NodeType: NodeColumn})
	assert.Error(t, err)
}

func TestSession_InsertFieldRequiresID(t *testing.T) {
	sess := NewSession(nil)
	err := sess.Apply(Event{Kind: EventInsert, NodeType: NodeField})
	assert.Error(t, err)
}

func TestSession_MovePreservesMutableState(t *testing.T) {
	s, err := ParseSchema(`{"nodes": [
		{"type": "group", "title": "Source", "children": [
			{"type": "field", "fieldId": "f1", "customLabel": "Renamed"}
		]},
		{"type": "group", "title": "Dest", "children": []}
	]}`)
	require.NoError(t, err)
	sess := NewSession(s)

	require.NoError(t, sess.Apply(Event{
		Kind:   EventMove,
		Source: Root(0).Child(slotChildren, 0),
		Parent: Root(1), Slot: slotChildren, Index: 0,
	}))

	moved, ok := sess.Schema.NodeAt(Root(1).Child(slotChildren, 0))
	require.True(t, ok)
	assert.Equal(t, "Renamed", moved.CustomLabel)

	src, _ := sess.Schema.NodeAt(Root(0))
	assert.Empty(t, src.Children)
}

func TestSession_MoveThenRename(t *testing.T) {
	s, err := ParseSchema(`{"nodes": [
		{"type": "group", "title": "A", "children": [{"type": "field", "fieldId": "f1"}]},
		{"type": "group", "title": "B", "children": []}
	]}`)
	require.NoError(t, err)
	sess := NewSession(s)

	// Move the field, then immediately rename it at its new address; the
	// second gesture must see the first one's result.
	require.NoError(t, sess.Apply(Event{
		Kind:   EventMove,
		Source: Root(0).Child(slotChildren, 0),
		Parent: Root(1), Slot: slotChildren, Index: 0,
	}))
	require.NoError(t, sess.Apply(Event{
		Kind: EventUpdate, Target: Root(1).Child(slotChildren, 0),
		Prop: PropCustomLabel, Value: "Afterwards",
	}))

	moved, ok := sess.Schema.NodeAt(Root(1).Child(slotChildren, 0))
	require.True(t, ok)
	assert.Equal(t, "Afterwards", moved.CustomLabel)
}

func TestSession_ReorderWithinSameSlot(t *testing.T) {
	s, err := ParseSchema(`{"nodes": [
		{"type": "field", "fieldId": "a"},
		{"type": "field", "fieldId": "b"},
		{"type": "field", "fieldId": "c"}
	]}`)
	require.NoError(t, err)
	sess := NewSession(s)

	// Drag "a" to the end: the visual drop index 3 accounts for "a" still
	// being in place, so after removal it must land at 2
	require.NoError(t, sess.Apply(Event{
		Kind:   EventMove,
		Source: Root(0),
		Index:  3,
	}))

	assert.Equal(t, []string{"b", "c", "a"}, sess.Schema.FieldIDs())
}

func TestSession_ReorderFirstChildOfContainer(t *testing.T) {
	s, err := ParseSchema(`{"nodes": [
		{"type": "group", "title": "Main", "children": [
			{"type": "field", "fieldId": "a"},
			{"type": "field", "fieldId": "b"}
		]}
	]}`)
	require.NoError(t, err)
	sess := NewSession(s)

	// Dragging the first child downward stays within its own slot and must
	// never be mistaken for a move into the node's own subtree
	require.NoError(t, sess.Apply(Event{
		Kind:   EventMove,
		Source: Root(0).Child(slotChildren, 0),
		Parent: Root(0), Slot: slotChildren, Index: 2,
	}))

	assert.Equal(t, []string{"b", "a"}, sess.Schema.FieldIDs())
}

func TestSession_MoveIntoOwnSubtreeRejected(t *testing.T) {
	s, err := ParseSchema(`{"nodes": [
		{"type": "group", "title": "Outer", "children": [
			{"type": "group", "title": "Inner", "children": []}
		]}
	]}`)
	require.NoError(t, err)
	sess := NewSession(s)

	err = sess.Apply(Event{
		Kind:   EventMove,
		Source: Root(0),
		Parent: Root(0).Child(slotChildren, 0), Slot: slotChildren, Index: 0,
	})
	assert.Error(t, err)

	// Tree unchanged
	outer, ok := sess.Schema.NodeAt(Root(0))
	require.True(t, ok)
	assert.Equal(t, "Outer", outer.Title)
}

func TestSession_UpdateProperties(t *testing.T) {
	s, err := ParseSchema(`{"nodes": [
		{"type": "group", "title": "Main", "children": [
			{"type": "row", "columns": [{"type": "column", "children": []}]}
		]}
	]}`)
	require.NoError(t, err)
	sess := NewSession(s)
	colPath := Root(0).Child(slotChildren, 0).Child(slotColumns, 0)

	require.NoError(t, sess.Apply(Event{Kind: EventUpdate, Target: Root(0), Prop: PropTitle, Value: "Renamed"}))
	require.NoError(t, sess.Apply(Event{Kind: EventUpdate, Target: Root(0), Prop: PropIsCollapsed, Value: true}))
	require.NoError(t, sess.Apply(Event{Kind: EventUpdate, Target: colPath, Prop: PropWidth, Value: 99}))

	group, _ := sess.Schema.NodeAt(Root(0))
	assert.Equal(t, "Renamed", group.Title)
	assert.True(t, group.IsCollapsed)

	col, _ := sess.Schema.NodeAt(colPath)
	assert.Equal(t, MaxColumnWidth, col.Width)

	// Blank titles reset to the placeholder
	require.NoError(t, sess.Apply(Event{Kind: EventUpdate, Target: Root(0), Prop: PropTitle, Value: "   "}))
	group, _ = sess.Schema.NodeAt(Root(0))
	assert.Equal(t, DefaultTitle, group.Title)

	// Width on anything but a column is rejected
	assert.Error(t, sess.Apply(Event{Kind: EventUpdate, Target: Root(0), Prop: PropWidth, Value: 6}))
	// Title on a row is rejected
	assert.Error(t, sess.Apply(Event{Kind: EventUpdate, Target: Root(0).Child(slotChildren, 0), Prop: PropTitle, Value: "X"}))
}

func TestSession_RemoveClearsSelection(t *testing.T) {
	s, err := ParseSchema(`{"nodes": [
		{"type": "group", "title": "Main", "children": [{"type": "field", "fieldId": "f1"}]},
		{"type": "field", "fieldId": "f2"}
	]}`)
	require.NoError(t, err)
	sess := NewSession(s)

	fieldPath := Root(0).Child(slotChildren, 0)
	require.NoError(t, sess.Apply(Event{Kind: EventSelect, Target: fieldPath}))
	assert.True(t, sess.Selected.Equal(fieldPath))

	// Removing the selected node's ancestor clears the selection
	require.NoError(t, sess.Apply(Event{Kind: EventRemove, Target: Root(0)}))
	assert.Nil(t, sess.Selected)

	// The sibling shifted into the removed slot
	n, ok := sess.Schema.NodeAt(Root(0))
	require.True(t, ok)
	assert.Equal(t, "f2", n.FieldID)
}

func TestSession_SelectUnknownPathRejected(t *testing.T) {
	sess := NewSession(nil)
	assert.Error(t, sess.Apply(Event{Kind: EventSelect, Target: Root(0)}))

	// Clearing the selection is always legal
	assert.NoError(t, sess.Apply(Event{Kind: EventSelect}))
}

func TestSession_MoveClearsStaleSelection(t *testing.T) {
	s, err := ParseSchema(`{"nodes": [
		{"type": "group", "title": "A", "children": [{"type": "field", "fieldId": "f1"}]},
		{"type": "group", "title": "B", "children": []}
	]}`)
	require.NoError(t, err)
	sess := NewSession(s)

	moved := Root(0).Child(slotChildren, 0)
	require.NoError(t, sess.Apply(Event{Kind: EventSelect, Target: moved}))
	require.NoError(t, sess.Apply(Event{
		Kind:   EventMove,
		Source: moved,
		Parent: Root(1), Slot: slotChildren, Index: 0,
	}))
	assert.Nil(t, sess.Selected)
}
