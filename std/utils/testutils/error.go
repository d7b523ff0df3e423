package testutils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testT *testing.T

// SetT binds the helpers in this package to the running test.
func SetT(t *testing.T) {
	testT = t
}

func NoErr[T any](v T, err error) T {
	testT.Helper()
	require.NoError(testT, err)
	return v
}

func Err[T any](_ T, err error) error {
	testT.Helper()
	require.Error(testT, err)
	return err
}
