package cmd_test

import (
	"bytes"
	"testing"

	"github.com/named-data/lfq/cmd"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cmd.CmdLfq()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCmdLfqHelp(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	require.Contains(t, out, "Test Tools")
	require.Contains(t, out, "stress")
}

func TestCmdLfqStress(t *testing.T) {
	out, err := execute(t, "stress", "-p", "3", "-c", "2", "-n", "200", "-r", "1", "--log-level", "error")
	require.NoError(t, err)
	require.Contains(t, out, "dequeued=600\n")
	require.Contains(t, out, "ok=true\n")
}

func TestCmdLfqIndependentTrees(t *testing.T) {
	// a help request must not leak into the next command tree
	out, err := execute(t, "stress", "--help")
	require.NoError(t, err)
	require.Contains(t, out, "--producers")
	require.NotContains(t, out, "ok=")

	out, err = execute(t, "stress", "-p", "2", "-c", "1", "-n", "100", "-r", "1", "--log-level", "error")
	require.NoError(t, err)
	require.Contains(t, out, "dequeued=200\n")
	require.Contains(t, out, "ok=true\n")

	require.NotSame(t, cmd.CmdLfq(), cmd.CmdLfq())
}

func TestCmdLfqStressInvalid(t *testing.T) {
	out, err := execute(t, "stress", "-p", "0", "--log-level", "error")
	require.ErrorContains(t, err, "at least one producer")
	require.NotContains(t, out, "ok=")

	_, err = execute(t, "stress", "--log-level", "loud")
	require.ErrorContains(t, err, "invalid configuration")
}
