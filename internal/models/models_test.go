package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortField(t *testing.T) {
	for in, want := range map[string]SortField{"height": SortByHeight, "Weight": SortByWeight, " BMI ": SortByBMI} {
		got, err := ParseSortField(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseSortField("age")
	assert.EqualError(t, err, "Invalid sort field. Use one of: weight, height, bmi")
}

func TestParseSortOrder(t *testing.T) {
	got, err := ParseSortOrder("DESC")
	require.NoError(t, err)
	assert.Equal(t, OrderDesc, got)

	_, err = ParseSortOrder("sideways")
	assert.EqualError(t, err, "Invalid order. Use asc or desc")
}

func TestPatientDecodeToleratesMissingFields(t *testing.T) {
	var p Patient
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Ravi","city":"Pune","age":41,"bmi":null}`), &p))
	assert.Equal(t, "Ravi", p.Name)
	assert.Zero(t, p.BMI)
	assert.Empty(t, p.Verdict)
}
