package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchema_SyntaxErrorHardFails(t *testing.T) {
	_, err := ParseSchema(`{"nodes": [`)
	assert.Error(t, err)
}

func TestParseSchema_EmptyDocument(t *testing.T) {
	s, err := ParseSchema(`{}`)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, s.Version)
	assert.Empty(t, s.Nodes)
}

func TestNormalize_WidthClamping(t *testing.T) {
	s, err := ParseSchema(`{"nodes": [
		{"type": "row", "columns": [
			{"type": "column", "width": 6, "children": []},
			{"type": "column", "width": 20, "children": []},
			{"type": "column", "width": 0, "children": []},
			{"type": "column", "width": "4", "children": []},
			{"type": "column", "children": []}
		]}
	]}`)
	require.NoError(t, err)
	require.Len(t, s.Nodes, 1)

	cols := s.Nodes[0].Columns
	require.Len(t, cols, 5)
	assert.Equal(t, 6, cols[0].Width)
	assert.Equal(t, MaxColumnWidth, cols[1].Width)
	assert.Equal(t, MinColumnWidth, cols[2].Width)
	assert.Equal(t, 4, cols[3].Width)
	assert.Equal(t, DefaultColumnWidth, cols[4].Width)
}

func TestNormalize_DropsMalformedNodes(t *testing.T) {
	s, err := ParseSchema(`{"nodes": [
		{"type": "carousel"},
		{"type": "field"},
		{"type": "field", "fieldId": "f1"},
		{"type": "column", "children": []},
		"not even an object",
		{"type": "group", "children": [{"type": "tab", "title": "Stray"}]}
	]}`)
	require.NoError(t, err)

	// Unknown type, field without fieldId, column outside a row, and the
	// non-object entry all drop; tab inside a group drops too
	require.Len(t, s.Nodes, 2)
	assert.Equal(t, NodeField, s.Nodes[0].Type)
	assert.Equal(t, "f1", s.Nodes[0].FieldID)
	assert.Equal(t, NodeGroup, s.Nodes[1].Type)
	assert.Empty(t, s.Nodes[1].Children)
}

func TestNormalize_DefaultTitles(t *testing.T) {
	s, err := ParseSchema(`{"nodes": [
		{"type": "group"},
		{"type": "group", "title": "  "},
		{"type": "group", "title": "Details"},
		{"type": "tabControl", "tabs": [{"type": "tab"}]}
	]}`)
	require.NoError(t, err)

	assert.Equal(t, DefaultTitle, s.Nodes[0].Title)
	assert.Equal(t, DefaultTitle, s.Nodes[1].Title)
	assert.Equal(t, "Details", s.Nodes[2].Title)
	assert.Equal(t, DefaultTitle, s.Nodes[3].Tabs[0].Title)
}

func TestNormalize_KeyCasingTolerance(t *testing.T) {
	s, err := ParseSchema(`{"nodes": [
		{"type": "field", "FieldId": "f1", "custom_label": "Renamed"},
		{"type": "group", "is_collapsed": true, "Children": [{"type": "field", "field_id": "f2"}]}
	]}`)
	require.NoError(t, err)
	require.Len(t, s.Nodes, 2)

	assert.Equal(t, "f1", s.Nodes[0].FieldID)
	assert.Equal(t, "Renamed", s.Nodes[0].CustomLabel)
	assert.True(t, s.Nodes[1].IsCollapsed)
	require.Len(t, s.Nodes[1].Children, 1)
	assert.Equal(t, "f2", s.Nodes[1].Children[0].FieldID)
}

func TestNormalize_Idempotent(t *testing.T) {
	input := `{"nodes": [
		{"type": "group", "title": "Main", "children": [
			{"type": "row", "columns": [
				{"type": "column", "width": 99, "children": [{"type": "field", "fieldId": "f1"}]}
			]},
			{"type": "bogus"}
		]},
		{"type": "tabControl", "tabs": [{"type": "tab", "children": [{"type": "field", "fieldId": "f2"}]}]}
	]}`

	once, err := ParseSchema(input)
	require.NoError(t, err)
	onceJSON, err := once.Serialize()
	require.NoError(t, err)

	twice, err := ParseSchema(onceJSON)
	require.NoError(t, err)
	twiceJSON, err := twice.Serialize()
	require.NoError(t, err)

	assert.Equal(t, onceJSON, twiceJSON)
}

func TestFieldIDs_RenderOrder(t *testing.T) {
	s, err := ParseSchema(`{"nodes": [
		{"type": "field", "fieldId": "a"},
		{"type": "row", "columns": [
			{"type": "column", "children": [{"type": "field", "fieldId": "b"}]},
			{"type": "column", "children": [{"type": "field", "fieldId": "c"}]}
		]},
		{"type": "tabControl", "tabs": [
			{"type": "tab", "children": [{"type": "field", "fieldId": "d"}]}
		]}
	]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, s.FieldIDs())
}
