package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var connectionEnvVars = []string{
	"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE", "PGSSLMODE",
	"DATABASE_URL", "REVIEWSEED_CONNECTION_STRING", "REVIEWSEED_DRIVER",
	"AZURE_TENANT_ID", "AZURE_CLIENT_ID", "AZURE_CLIENT_SECRET", "AWS_REGION",
}

// isolateEnv runs the test in an empty directory with every connection
// variable unset. Values are restored when the test ends.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range connectionEnvVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// newLoadTestCmd binds fresh load flags to a throwaway command so Changed
// state does not leak between tests.
func newLoadTestCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	loadFlags = loadFlagValues{}
	cmd := &cobra.Command{Use: "load"}
	registerLoadFlags(cmd, &loadFlags)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func newCountTestCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	countFlags = countFlagValues{}
	cmd := &cobra.Command{Use: "count"}
	registerCountFlags(cmd, &countFlags)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

type recordingLogger struct {
	verbose []string
}

func (l *recordingLogger) Verbose(format string, args ...interface{}) {
	l.verbose = append(l.verbose, fmt.Sprintf(format, args...))
}
func (l *recordingLogger) Info(format string, args ...interface{})  {}
func (l *recordingLogger) Error(format string, args ...interface{}) {}
