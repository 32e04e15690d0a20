package patch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dto struct {
	Name   Field[string]   `json:"name"`
	Weight Field[*float64] `json:"weight"`
}

func TestField_AbsentNullValue(t *testing.T) {
	var d dto
	require.NoError(t, json.Unmarshal([]byte(`{"weight": null}`), &d))

	assert.False(t, d.Name.Set)
	assert.True(t, d.Weight.Set)
	assert.True(t, d.Weight.Null)
	assert.False(t, d.Weight.Present())

	d = dto{}
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Rex","weight":12.5}`), &d))
	assert.True(t, d.Name.Present())
	assert.Equal(t, "Rex", d.Name.Value)
	require.NotNil(t, d.Weight.Value)
	assert.InDelta(t, 12.5, *d.Weight.Value, 0.0001)
}

func TestField_TypeMismatch(t *testing.T) {
	var d dto
	assert.Error(t, json.Unmarshal([]byte(`{"name": 3}`), &d))
}

func TestField_Ptr(t *testing.T) {
	assert.Nil(t, Null[string]().Ptr())
	p := Of("x").Ptr()
	require.NotNil(t, p)
	assert.Equal(t, "x", *p)
}
