package validation

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/al3xb0/mindpal-task/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_NoFilter(t *testing.T) {
	v := NewFilterValidator()

	for _, raw := range []string{"", "null", "  null  "} {
		res := v.Validate(json.RawMessage(raw))
		assert.Nil(t, res.Sanitized, "input %q", raw)
		assert.Empty(t, res.Errors, "input %q", raw)
		assert.True(t, res.Valid())
	}
}

func TestValidate_NotAnObject(t *testing.T) {
	v := NewFilterValidator()

	for _, raw := range []string{`"rick"`, `42`, `[1,2]`, `true`} {
		res := v.Validate(json.RawMessage(raw))
		require.Len(t, res.Errors, 1, "input %s", raw)
		assert.Equal(t, "filter", res.Errors[0].Field)
		assert.Equal(t, "Filter must be an object", res.Errors[0].Message)
		assert.Nil(t, res.Sanitized)
	}
}

func TestValidate_SanitizesName(t *testing.T) {
	v := NewFilterValidator()

	res := v.Validate(json.RawMessage(`{"name": "<script>rick", "status": "Alive"}`))

	require.True(t, res.Valid())
	require.NotNil(t, res.Sanitized)
	assert.Equal(t, model.FilterCriteria{Name: "scriptrick", Status: "Alive"}, *res.Sanitized)
}

func TestValidate_InvalidStatus(t *testing.T) {
	v := NewFilterValidator()

	res := v.Validate(json.RawMessage(`{"status": "Martian"}`))

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "filter.status", res.Errors[0].Field)
	assert.Equal(t, "Status must be one of: Alive, Dead, unknown", res.Errors[0].Message)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	v := NewFilterValidator()

	res := v.Validate(json.RawMessage(`{
		"name": 12,
		"status": "Martian",
		"species": "Dragon",
		"gender": "Robot",
		"type": "` + strings.Repeat("x", 101) + `"
	}`))

	require.Len(t, res.Errors, 5)
	fields := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"filter.name", "filter.status", "filter.species", "filter.gender", "filter.type"}, fields)
	assert.Equal(t, "Name must be a string", res.Errors[0].Message)
	assert.Equal(t, "Type must be at most 100 characters", res.Errors[4].Message)
}

func TestValidate_OnlyDisallowedEnumValues(t *testing.T) {
	v := NewFilterValidator()

	res := v.Validate(json.RawMessage(`{"status": "Zombie", "species": "Dragon", "gender": "Other"}`))

	assert.Len(t, res.Errors, 3)
	assert.Nil(t, res.Sanitized)
}

func TestValidate_LengthLimit(t *testing.T) {
	v := NewFilterValidator()

	t.Run("exactly at limit", func(t *testing.T) {
		name := strings.Repeat("a", MaxTextLength)
		res := v.Validate(json.RawMessage(`{"name": "` + name + `"}`))
		require.True(t, res.Valid())
		assert.Equal(t, name, res.Sanitized.Name)
	})

	t.Run("counts characters not bytes", func(t *testing.T) {
		name := strings.Repeat("é", MaxTextLength)
		res := v.Validate(json.RawMessage(`{"name": "` + name + `"}`))
		assert.True(t, res.Valid())
	})

	t.Run("over limit", func(t *testing.T) {
		name := strings.Repeat("a", MaxTextLength+1)
		res := v.Validate(json.RawMessage(`{"name": "` + name + `"}`))
		require.Len(t, res.Errors, 1)
		assert.Equal(t, "filter.name", res.Errors[0].Field)
	})
}

func TestValidate_EmptyValuesCollapseToNoFilter(t *testing.T) {
	v := NewFilterValidator()

	tests := []string{
		`{}`,
		`{"name": "   "}`,
		`{"name": "<>", "type": " < > "}`,
		`{"status": "", "species": "", "gender": ""}`,
		`{"name": null}`,
		`{"unrelated": "value"}`,
	}

	for _, raw := range tests {
		res := v.Validate(json.RawMessage(raw))
		assert.True(t, res.Valid(), "input %s", raw)
		assert.Nil(t, res.Sanitized, "input %s", raw)
	}
}

func TestValidate_AllFields(t *testing.T) {
	v := NewFilterValidator()

	res := v.Validate(json.RawMessage(`{
		"name": "  Morty ",
		"status": "Dead",
		"species": "Mythological Creature",
		"gender": "Genderless",
		"type": "Parasite>"
	}`))

	require.True(t, res.Valid())
	assert.Equal(t, &model.FilterCriteria{
		Name:    "Morty",
		Status:  "Dead",
		Species: "Mythological Creature",
		Gender:  "Genderless",
		Type:    "Parasite",
	}, res.Sanitized)
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []model.FilterCriteria{
		{Name: "<script>rick", Status: "Alive"},
		{Name: "<> a", Type: "  b>c< "},
		{Name: "plain", Species: "Human"},
		{Type: "<<>>"},
	}

	for _, in := range inputs {
		once := Sanitize(in)
		if once == nil {
			assert.Nil(t, Sanitize(model.FilterCriteria{}))
			continue
		}
		twice := Sanitize(*once)
		require.NotNil(t, twice)
		assert.Equal(t, *once, *twice)
	}
}

func TestValidateCriteria_RoundTripsSanitizedFilter(t *testing.T) {
	v := NewFilterValidator()

	first := v.Validate(json.RawMessage(`{"name": " <b>Beth</b> ", "gender": "Female"}`))
	require.True(t, first.Valid())
	require.NotNil(t, first.Sanitized)

	second := v.ValidateCriteria(*first.Sanitized)
	require.True(t, second.Valid())
	assert.Equal(t, first.Sanitized, second.Sanitized)
}
