package dynamic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formacrm/backend/pkg/constants"
	"github.com/formacrm/backend/pkg/fieldtypes"
	"github.com/formacrm/backend/pkg/models"
)

func testFields() []models.FieldDefinition {
	return []models.FieldDefinition{
		{ID: "f1", SystemName: "name", DataType: constants.FieldTypeString},
		{ID: "f2", SystemName: "price", DataType: constants.FieldTypeNumber},
		{ID: "f3", SystemName: "in_service", DataType: constants.FieldTypeBoolean},
		{ID: "f4", SystemName: "tags", DataType: constants.FieldTypeCollection, IsArray: true},
		{ID: "f5", SystemName: "old_field", DataType: constants.FieldTypeString, IsDeleted: true},
	}
}

func TestEncode_ScalarAndArray(t *testing.T) {
	form := map[string][]string{
		"name":     {"Printer"},
		"tags":     {"office", "", "hardware", "leased"},
		"unknown":  {"dropped"},
		"old_field": {"ignored"},
	}

	bag := Encode(form, testFields())

	assert.Equal(t, "Printer", bag["name"].Scalar)
	assert.Equal(t, []string{"office", "hardware", "leased"}, bag["tags"].Items)

	// Unknown keys and deleted fields never reach the bag
	_, ok := bag["unknown"]
	assert.False(t, ok)
	_, ok = bag["old_field"]
	assert.False(t, ok)

	// Fields with no submitted key are omitted entirely
	_, ok = bag["price"]
	assert.False(t, ok)
}

func TestEncode_CheckboxSentinel(t *testing.T) {
	// A checked checkbox posts the hidden "false" sentinel plus "true"
	bag := Encode(map[string][]string{"in_service": {"false", "true"}}, testFields())
	assert.Equal(t, "true", bag["in_service"].Scalar)

	// Unchecked posts only the sentinel
	bag = Encode(map[string][]string{"in_service": {"false"}}, testFields())
	assert.Equal(t, "false", bag["in_service"].Scalar)
}

func TestEncode_EmptyArrayOmitted(t *testing.T) {
	bag := Encode(map[string][]string{"tags": {"", ""}}, testFields())
	_, ok := bag["tags"]
	assert.False(t, ok)
}

func TestSerializeDecode_RoundTrip(t *testing.T) {
	fields := testFields()
	form := map[string][]string{
		"name":       {"Printer"},
		"price":      {"199.90"},
		"in_service": {"true"},
		"tags":       {"office", "hardware"},
	}

	encoded := Encode(form, fields)
	text, err := Serialize(encoded)
	require.NoError(t, err)

	decoded, err := Decode(text, fields)
	require.NoError(t, err)

	assert.Equal(t, "Printer", decoded["name"].Scalar)
	assert.Equal(t, 199.90, decoded["price"].AsNumber())
	assert.True(t, decoded["in_service"].AsBool())
	assert.Equal(t, []string{"office", "hardware"}, decoded["tags"].Items)
}

func TestDecode_MalformedFailsSoft(t *testing.T) {
	bag, err := Decode("{not json", testFields())
	assert.Error(t, err)
	assert.NotNil(t, bag)
	assert.Empty(t, bag)
}

func TestDecode_EmptyText(t *testing.T) {
	bag, err := Decode("", testFields())
	assert.NoError(t, err)
	assert.Empty(t, bag)
}

func TestDecode_MultiplicityCoercion(t *testing.T) {
	fields := testFields()

	// Scalar stored where an array is expected becomes one item
	bag, err := Decode(`{"tags": "solo"}`, fields)
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, bag["tags"].Items)

	// Array stored where a scalar is expected keeps the first element
	bag, err = Decode(`{"name": ["first", "second"]}`, fields)
	require.NoError(t, err)
	assert.Equal(t, "first", bag["name"].Scalar)
}

func TestValueOf_ZeroDefaults(t *testing.T) {
	fields := testFields()
	bag := Bag{}

	assert.Equal(t, fieldtypes.Zero(fieldtypes.KindString), bag.ValueOf(fields[0]))
	assert.Equal(t, "false", bag.ValueOf(fields[2]).Scalar)
	assert.Empty(t, bag.ValueOf(fields[3]).Items)
}
