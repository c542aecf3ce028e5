package gcpolicy

import (
	"fmt"

	"github.com/epochgc/gcpolicy/core"
)

// ValidationError represents a configuration error with context
type ValidationError struct {
	Message string
	Details string
}

func (e ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// validate performs comprehensive validation on the builder configuration
func (b *Builder) validate() error {
	// Check the pacing configuration
	if err := b.checkPacer(); err != nil {
		return err
	}

	// Check sink names and filters
	if err := b.checkSinks(); err != nil {
		return err
	}

	// Check the boot profile
	if err := b.checkBootProfile(); err != nil {
		return err
	}

	return nil
}

// checkPacer verifies the pacing configuration is complete
func (b *Builder) checkPacer() error {
	if !b.pacerSet {
		return nil
	}

	if b.collect == nil {
		return ValidationError{
			Message: "pacer validation failed",
			Details: "a collect callback is required",
		}
	}
	if b.pacerInterval <= 0 {
		return ValidationError{
			Message: "pacer validation failed",
			Details: fmt.Sprintf("interval must be positive, got %v", b.pacerInterval),
		}
	}

	return nil
}

// checkSinks verifies sink names are unique and filters name known event types
func (b *Builder) checkSinks() error {
	seen := make(map[string]bool)

	for _, sc := range b.sinks {
		if sc.name == "" {
			return ValidationError{
				Message: "sink validation failed",
				Details: "sink name must not be empty",
			}
		}
		if sc.sink == nil {
			return ValidationError{
				Message: "sink validation failed",
				Details: fmt.Sprintf("sink %q is nil", sc.name),
			}
		}
		if seen[sc.name] {
			return ValidationError{
				Message: "sink validation failed",
				Details: fmt.Sprintf("sink %q is attached twice", sc.name),
			}
		}
		seen[sc.name] = true

		for _, et := range sc.filter {
			if !core.KnownEventType(et) {
				return ValidationError{
					Message: "sink validation failed",
					Details: fmt.Sprintf("sink %q filters on unknown event type %q", sc.name, et),
				}
			}
		}
	}

	return nil
}

// checkBootProfile verifies the boot profile resolves to a setting
func (b *Builder) checkBootProfile() error {
	if b.bootProfile == nil {
		return nil
	}

	if err := b.bootProfile.Validate(); err != nil {
		return ValidationError{
			Message: "boot profile validation failed",
			Details: err.Error(),
		}
	}

	return nil
}
