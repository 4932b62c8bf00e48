package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidDocument is returned when a stored document does not match its schema.
var ErrInvalidDocument = errors.New("document does not match schema")

var validate = validator.New()

// Validate checks v against its `validate` tags.
// Failures are wrapped with ErrInvalidDocument and name the offending fields.
func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on '%s'", ErrInvalidDocument, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

// ValidEmail reports whether email passes the same check as the `email` tag on User.Email.
func ValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// ValidateCatalog checks that the catalog holds exactly the known tiers and that every plan is well formed.
func ValidateCatalog(c PlanCatalog) error {
	if len(c) != len(Tiers) {
		return fmt.Errorf("%w: catalog must contain %d tiers, got %d", ErrInvalidDocument, len(Tiers), len(c))
	}
	for _, tier := range Tiers {
		plan, ok := c[tier]
		if !ok {
			return fmt.Errorf("%w: catalog is missing tier '%s'", ErrInvalidDocument, tier)
		}
		if plan.Tier != tier {
			return fmt.Errorf("%w: plan stored under '%s' declares tier '%s'", ErrInvalidDocument, tier, plan.Tier)
		}
		if err := Validate(&plan); err != nil {
			return err
		}
	}
	return nil
}
