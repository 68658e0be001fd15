// Package options provides shared validation for functional options.
package options

import (
	"github.com/erraggy/oasgraph/oaserrors"
)

// RequireInputs fails when no input was configured.
func RequireInputs(option, noInputMsg string, count int) error {
	if count == 0 {
		return &oaserrors.ConfigError{Option: option, Message: noInputMsg}
	}
	return nil
}

// NonNegative fails when value is below zero. Zero selects a default.
func NonNegative[T ~int | ~int64](option string, value T) error {
	if value < 0 {
		return &oaserrors.ConfigError{Option: option, Value: value, Message: "must not be negative"}
	}
	return nil
}

// NotNil fails when a required dependency is nil.
func NotNil(option string, isNil bool) error {
	if isNil {
		return &oaserrors.ConfigError{Option: option, Message: "must not be nil"}
	}
	return nil
}
