package models

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator adds notblank, which rejects strings that are empty once
// surrounding whitespace is dropped.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate checks a template before it is persisted.
func (t *AlertFormatTemplate) Validate() error {
	if err := validate.Struct(t); err != nil {
		return errors.Wrap(err, "invalid template")
	}
	if err := ValidateMappings(t.FieldMappings); err != nil {
		return errors.Wrap(err, "invalid template")
	}
	if len(t.FieldMappings) == 0 && !t.HasExpectedFormat() {
		return errors.New("invalid template: needs field mappings or an expected format")
	}
	return nil
}

// ValidateMappings checks every mapping and that no label appears twice,
// ignoring surrounding whitespace.
func ValidateMappings(mappings []FieldMapping) error {
	seen := map[string]bool{}
	for i := range mappings {
		if err := validate.Struct(&mappings[i]); err != nil {
			return errors.Wrapf(err, "invalid mapping %d", i)
		}
		label := strings.TrimSpace(mappings[i].Label)
		if seen[label] {
			return errors.Newf("duplicate mapping label %q", label)
		}
		seen[label] = true
	}
	return nil
}

func (u *User) Validate() error {
	return validate.Struct(u)
}
