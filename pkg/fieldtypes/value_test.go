package fieldtypes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/formacrm/backend/pkg/constants"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		dataType constants.SchemaFieldType
		isArray  bool
		want     Kind
	}{
		{constants.FieldTypeString, false, KindString},
		{constants.FieldTypeNumber, false, KindNumber},
		{constants.FieldTypeBoolean, false, KindBool},
		{constants.FieldTypeDateTime, false, KindDate},
		{constants.FieldTypeEntityLink, false, KindEntityRef},
		{constants.FieldTypeCollection, false, KindArray},
		{constants.FieldTypeString, true, KindArray},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.dataType, tt.isArray))
	}
}

func TestZeroAndIsZero(t *testing.T) {
	assert.Equal(t, "false", Zero(KindBool).Scalar)
	assert.NotNil(t, Zero(KindArray).Items)

	assert.True(t, Zero(KindString).IsZero())
	assert.True(t, Zero(KindBool).IsZero())
	assert.True(t, Zero(KindArray).IsZero())
	assert.True(t, NewScalar(KindBool, "false").IsZero())
	assert.False(t, NewScalar(KindBool, "true").IsZero())
	assert.False(t, NewScalar(KindString, "x").IsZero())
	assert.False(t, NewArray([]string{"a"}).IsZero())
}

func TestScalarConversions(t *testing.T) {
	assert.True(t, NewScalar(KindBool, "Yes").AsBool())
	assert.True(t, NewScalar(KindBool, " on ").AsBool())
	assert.False(t, NewScalar(KindBool, "nope").AsBool())

	assert.Equal(t, 12.5, NewScalar(KindNumber, " 12.5 ").AsNumber())
	assert.Equal(t, 0.0, NewScalar(KindNumber, "twelve").AsNumber())

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), NewScalar(KindDate, "2024-03-01").AsTime())
	assert.True(t, NewScalar(KindDate, "not a date").AsTime().IsZero())
}

func TestWire(t *testing.T) {
	assert.Equal(t, "hello", NewScalar(KindString, "hello").Wire())
	assert.Equal(t, []string{"a", "b"}, NewArray([]string{"a", "b"}).Wire())
	// nil items still wire as an empty list, not null
	assert.Equal(t, []string{}, Value{Kind: KindArray}.Wire())
}
