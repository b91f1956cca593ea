package layout

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseSchema decodes layout JSON from any source and normalizes it. A JSON
// syntax error is a hard failure; structural problems inside the document are
// handled by normalization instead.
func ParseSchema(jsonText string) (*Schema, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	return NormalizeSchema(raw), nil
}

// Serialize renders the canonical tree as JSON text
func (s *Schema) Serialize() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to serialize layout: %w", err)
	}
	return string(data), nil
}

// NormalizeSchema converts a layout object of any vintage into canonical
// form. Unknown or malformed nodes are dropped wholly, never kept as
// partially-formed entries, which makes the operation idempotent.
func NormalizeSchema(raw map[string]interface{}) *Schema {
	s := NewSchema()
	if raw == nil {
		return s
	}
	s.Nodes = normalizeList(rawKey(raw, "nodes"), slotNodes)
	return s
}

// NormalizeNode normalizes a single raw node, returning nil when the node
// cannot be made well-formed
func NormalizeNode(raw interface{}) *Node {
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}

	t := NodeType(rawString(m, "type"))
	switch t {
	case NodeField:
		fieldID := rawString(m, "fieldId")
		if fieldID == "" {
			return nil
		}
		n := NewFieldNode(fieldID)
		n.CustomLabel = rawString(m, "customLabel")
		return n

	case NodeGroup:
		n := NewNode(NodeGroup)
		if title := rawString(m, "title"); title != "" {
			n.Title = title
		}
		n.IsCollapsed = rawBool(m, "isCollapsed")
		n.CustomLabel = rawString(m, "customLabel")
		n.Children = normalizeList(rawKey(m, "children"), slotChildren)
		return n

	case NodeTab:
		n := NewNode(NodeTab)
		if title := rawString(m, "title"); title != "" {
			n.Title = title
		}
		n.CustomLabel = rawString(m, "customLabel")
		n.Children = normalizeList(rawKey(m, "children"), slotChildren)
		return n

	case NodeRow:
		n := NewNode(NodeRow)
		n.CustomLabel = rawString(m, "customLabel")
		n.Columns = normalizeList(rawKey(m, "columns"), slotColumns)
		return n

	case NodeColumn:
		n := NewNode(NodeColumn)
		n.Width = clampWidth(rawKey(m, "width"))
		n.CustomLabel = rawString(m, "customLabel")
		n.Children = normalizeList(rawKey(m, "children"), slotChildren)
		return n

	case NodeTabControl:
		n := NewNode(NodeTabControl)
		n.CustomLabel = rawString(m, "customLabel")
		n.Tabs = normalizeList(rawKey(m, "tabs"), slotTabs)
		return n
	}

	// Unknown type: dropped
	return nil
}

// normalizeList normalizes container entries, filtering out anything that
// fails normalization or does not belong in the slot
func normalizeList(raw interface{}, slot string) []*Node {
	out := []*Node{}
	list, ok := raw.([]interface{})
	if !ok {
		return out
	}
	for _, entry := range list {
		n := NormalizeNode(entry)
		if n == nil || !allowedInSlot(slot, n.Type) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// rawKey looks a key up tolerating the casing variants older layouts used:
// exact, case-insensitive, and snake_case.
func rawKey(m map[string]interface{}, key string) interface{} {
	if v, ok := m[key]; ok {
		return v
	}
	snake := toSnake(key)
	for k, v := range m {
		if strings.EqualFold(k, key) || strings.EqualFold(k, snake) {
			return v
		}
	}
	return nil
}

func rawString(m map[string]interface{}, key string) string {
	if s, ok := rawKey(m, key).(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func rawBool(m map[string]interface{}, key string) bool {
	switch v := rawKey(m, key).(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return false
}

// clampWidth coerces a raw width to an integer and clamps it to the grid
func clampWidth(raw interface{}) int {
	w := DefaultColumnWidth
	switch v := raw.(type) {
	case float64:
		w = int(v)
	case int:
		w = v
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			w = parsed
		}
	}
	if w < MinColumnWidth {
		w = MinColumnWidth
	}
	if w > MaxColumnWidth {
		w = MaxColumnWidth
	}
	return w
}

func toSnake(key string) string {
	var b strings.Builder
	for _, r := range key {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
