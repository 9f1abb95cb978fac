// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/cinescript/internal/platform/apperr"
	"github.com/taibuivan/cinescript/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "name", "NEON PROTOCOL", false},
		{"empty_string", "name", "", true},
		{"whitespace_only", "name", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_Range checks the inclusive numeric bounds rule.
*/
func TestValidator_Range(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		isValid bool
	}{
		{"lower_bound", 1, true},
		{"upper_bound", 1000, true},
		{"below", 0, false},
		{"above", 1001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Range("fps", tt.value, 1, 1000)

			assert.Equal(t, !tt.isValid, v.Err() != nil)
		})
	}
}

/*
TestValidator_MaxLen counts characters, not bytes.
*/
func TestValidator_MaxLen(t *testing.T) {
	v := &validate.Validator{}
	v.MaxLen("name", "Café", 4)
	assert.NoError(t, v.Err())

	v.MaxLen("name", "Cafés", 4)
	ae := apperr.As(v.Err())
	require.NotNil(t, ae)
	assert.Equal(t, "Maximum 4 characters", ae.Details[0].Message)
}

/*
TestInvalidJSON verifies the decoder error is exposed as a body field detail.
*/
func TestInvalidJSON(t *testing.T) {
	cause := errors.New(`shotlist: unknown size "Huge"`)

	ae := validate.InvalidJSON(cause)

	assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	require.Len(t, ae.Details, 1)
	assert.Equal(t, "body", ae.Details[0].Field)
	assert.ErrorIs(t, ae, cause)
}

/*
TestValidator_Chain tests the fluent API (chaining multiple rules).
*/
func TestValidator_Chain(t *testing.T) {
	v := &validate.Validator{}

	// Multi-rule validation
	err := v.
		Required("username", "tai").
		MaxLen("username", "tai", 10).
		Custom("takes", false, "Must not be negative").
		Err()

	assert.NoError(t, err)
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("username", "").                      // Fails
		MaxLen("username", "abcdef", 5).               // Fails
		Custom("takes", true, "Must not be negative"). // Fails
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)

	// Should accumulate all 3 errors
	assert.Len(t, ae.Details, 3)
}
