// Package validation sanitizes untrusted directory filters.
package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/al3xb0/mindpal-task/internal/model"
)

const (
	// MaxTextLength bounds the free-text name and type filters, in characters.
	MaxTextLength = 100
)

// Allow-lists exposed to the boundary.
var (
	AllowedStatus = []string{
		model.StatusAlive,
		model.StatusDead,
		model.StatusUnknown,
	}
	AllowedSpecies = []string{
		"Human",
		"Alien",
		"Humanoid",
		"Robot",
		"Animal",
		"Cronenberg",
		"Mythological Creature",
		"Poopybutthole",
		"unknown",
	}
	AllowedGender = []string{
		"Male",
		"Female",
		"Genderless",
		"unknown",
	}
)

// Result is the outcome of validating a filter. Sanitized is nil when no
// field survived; Errors lists every violation found.
type Result struct {
	Sanitized *model.FilterCriteria
	Errors    []model.FieldError
}

// Valid reports whether no violations were found.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// FilterValidator validates raw directory filters.
type FilterValidator struct {
	maxTextLength int
}

// NewFilterValidator creates a validator with the default limits.
func NewFilterValidator() *FilterValidator {
	return &FilterValidator{
		maxTextLength: MaxTextLength,
	}
}

// Validate checks an untrusted JSON filter. Validation does not stop at the
// first violation so callers receive the complete error list.
func (v *FilterValidator) Validate(raw json.RawMessage) Result {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return Result{}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Result{
			Errors: []model.FieldError{{Field: "filter", Message: "Filter must be an object"}},
		}
	}

	var (
		out  model.FilterCriteria
		errs []model.FieldError
	)

	if value, present, err := stringField(fields, "name", "Name"); err != nil {
		errs = append(errs, *err)
	} else if present {
		if fe := v.checkLength("name", "Name", value); fe != nil {
			errs = append(errs, *fe)
		} else {
			out.Name = sanitizeText(value)
		}
	}

	if value, present, err := stringField(fields, "status", "Status"); err != nil {
		errs = append(errs, *err)
	} else if present && value != "" {
		if fe := checkAllowed("status", "Status", value, AllowedStatus); fe != nil {
			errs = append(errs, *fe)
		} else {
			out.Status = value
		}
	}

	if value, present, err := stringField(fields, "species", "Species"); err != nil {
		errs = append(errs, *err)
	} else if present && value != "" {
		if fe := checkAllowed("species", "Species", value, AllowedSpecies); fe != nil {
			errs = append(errs, *fe)
		} else {
			out.Species = value
		}
	}

	if value, present, err := stringField(fields, "gender", "Gender"); err != nil {
		errs = append(errs, *err)
	} else if present && value != "" {
		if fe := checkAllowed("gender", "Gender", value, AllowedGender); fe != nil {
			errs = append(errs, *fe)
		} else {
			out.Gender = value
		}
	}

	if value, present, err := stringField(fields, "type", "Type"); err != nil {
		errs = append(errs, *err)
	} else if present {
		if fe := v.checkLength("type", "Type", value); fe != nil {
			errs = append(errs, *fe)
		} else {
			out.Type = sanitizeText(value)
		}
	}

	if out.IsEmpty() {
		return Result{Errors: errs}
	}
	return Result{Sanitized: &out, Errors: errs}
}

// ValidateCriteria runs an already typed filter through the same rules.
func (v *FilterValidator) ValidateCriteria(f model.FilterCriteria) Result {
	raw, err := json.Marshal(f)
	if err != nil {
		return Result{
			Errors: []model.FieldError{{Field: "filter", Message: "Filter must be an object"}},
		}
	}
	return v.Validate(raw)
}

// Sanitize re-applies sanitization to a typed filter. Sanitizing an already
// sanitized filter returns an equal filter.
func Sanitize(f model.FilterCriteria) *model.FilterCriteria {
	out := model.FilterCriteria{
		Name:    sanitizeText(f.Name),
		Status:  f.Status,
		Species: f.Species,
		Gender:  f.Gender,
		Type:    sanitizeText(f.Type),
	}
	if out.IsEmpty() {
		return nil
	}
	return &out
}

// stringField decodes a recognized field. present is false when the key is
// missing or explicitly null.
func stringField(fields map[string]json.RawMessage, key, label string) (string, bool, *model.FieldError) {
	raw, ok := fields[key]
	if !ok || strings.TrimSpace(string(raw)) == "null" {
		return "", false, nil
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false, &model.FieldError{
			Field:   "filter." + key,
			Message: label + " must be a string",
		}
	}
	return value, true, nil
}

func (v *FilterValidator) checkLength(key, label, value string) *model.FieldError {
	if utf8.RuneCountInString(value) > v.maxTextLength {
		return &model.FieldError{
			Field:   "filter." + key,
			Message: fmt.Sprintf("%s must be at most %d characters", label, v.maxTextLength),
		}
	}
	return nil
}

func checkAllowed(key, label, value string, allowed []string) *model.FieldError {
	for _, a := range allowed {
		if a == value {
			return nil
		}
	}
	return &model.FieldError{
		Field:   "filter." + key,
		Message: fmt.Sprintf("%s must be one of: %s", label, strings.Join(allowed, ", ")),
	}
}

// sanitizeText strips angle brackets and then trims, so the result is a
// fixed point of sanitizeText.
func sanitizeText(value string) string {
	value = strings.NewReplacer("<", "", ">", "").Replace(value)
	return strings.TrimSpace(value)
}
