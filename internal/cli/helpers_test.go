package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testTopology = `package topology

entity: Person: {
	tables: ["person"]
	columns: { name: string, age: int, city: string }
	links: address: { entity: "Address", column: "person_id" }
}
entity: Address: {
	tables: ["address_home", "address_work"]
	columns: { street: string, person_id: int }
}
`

const testData = `person:
  - {id: 1, name: dana, age: 45, city: NYC}
  - {id: 2, name: ann, age: 31, city: NYC}
  - {id: 3, name: carl, age: 29, city: LA}
address_home:
  - {id: 10, street: Oak, person_id: 1}
address_work:
  - {id: 20, street: Main, person_id: 1}
`

const adultsTraversal = `steps:
  - scan: {entity: Person}
  - filter: {key: age, op: gt, value: 30}
  - order: [{key: name}]
  - range: {offset: 0, limit: 10}
`

type workspace struct {
	dir      string
	topology string
	db       string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	topo := filepath.Join(dir, "topology")
	require.NoError(t, os.Mkdir(topo, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(topo, "topology.cue"), []byte(testTopology), 0o644))
	return &workspace{dir: dir, topology: topo, db: filepath.Join(dir, "graph.db")}
}

func (w *workspace) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(w.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (w *workspace) seed(t *testing.T) {
	t.Helper()
	_, _, err := execute(t, "load", "--topology", w.topology, "--db", w.db, w.file(t, "data.yaml", testData))
	require.NoError(t, err)
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decodeResponse(t *testing.T, out string) (CLIResponse, map[string]any) {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	data, _ := resp.Data.(map[string]any)
	return resp, data
}
