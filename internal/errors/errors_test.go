package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_WithCause_IncludesCauseText(t *testing.T) {
	cause := fmt.Errorf("rename failed")
	err := Wrap(cause, CategoryFilesystem, SeverityFatal, "backup source document")

	require.Contains(t, err.Error(), "filesystem")
	require.Contains(t, err.Error(), "backup source document")
	require.Contains(t, err.Error(), "rename failed")
	require.ErrorIs(t, err, cause)
}

func TestError_WithoutCause(t *testing.T) {
	err := New(CategoryConfig, SeverityFatal, "conformance level must be a, b, or u")

	require.Equal(t, "config (fatal): conformance level must be a, b, or u", err.Error())
	require.Nil(t, err.Unwrap())
}

func TestIsCategory_MatchesWrappedErrors(t *testing.T) {
	inner := PreconditionError("pdflatex not found in PATH")
	outer := fmt.Errorf("pre-flight: %w", inner)

	require.True(t, IsCategory(outer, CategoryPrecondition))
	require.False(t, IsCategory(outer, CategoryProcess))
}

func TestGetCategory_DefaultsToInternal(t *testing.T) {
	require.Equal(t, CategoryInternal, GetCategory(fmt.Errorf("plain")))
	require.Equal(t, CategoryParse, GetCategory(New(CategoryParse, SeverityError, "bad report")))
}

func TestWithContext(t *testing.T) {
	err := ConfigError("verification requested without validator path").
		WithContext("flag", "--verify")

	require.Equal(t, "--verify", err.Context["flag"])
}
