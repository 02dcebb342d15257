package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "sqlgraph", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"validate", "explain", "load", "run"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	topo := cmd.PersistentFlags().Lookup("topology")
	require.NotNil(t, topo)
	assert.Equal(t, "t", topo.Shorthand)
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	run, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	require.NotNil(t, run.Flags().Lookup("db"))
	noCompile := run.Flags().Lookup("no-compile")
	require.NotNil(t, noCompile)
	assert.Equal(t, "false", noCompile.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	w := newWorkspace(t)
	_, _, err := execute(t, "validate", "--topology", w.topology, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestVersionFlag(t *testing.T) {
	out, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlgraph version "+Version)
}
