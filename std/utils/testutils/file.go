package testutils

import (
	"os"
	"path/filepath"

	"github.com/stretchr/testify/require"
)

// WriteTemp writes content to a file in the test's temp directory
// and returns its path.
func WriteTemp(name string, content string) string {
	testT.Helper()
	path := filepath.Join(testT.TempDir(), name)
	require.NoError(testT, os.WriteFile(path, []byte(content), 0o644))
	return path
}
