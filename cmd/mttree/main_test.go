package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/multitype/pkg/multitype"
	"github.com/mesh-intelligence/multitype/pkg/types"
)

const threeLeafYAML = `height: 2
type: 2
children:
  - height: 1
    type: 2
    children:
      - id: A
        height: 0
        type: 0
        changes:
          - {time: 0.5, type: 2}
      - id: B
        height: 0
        type: 2
  - id: C
    height: 0
    type: 2
`

const flatNewick = "(((A[&deme=0]:0.5)[&deme=2]:0.5,B[&deme=2]:1)[&deme=2]:1,C[&deme=2]:2)[&deme=2];"

// env isolates configuration and data directories for one test.
type env struct {
	t       *testing.T
	dir     string
	dataDir string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MTTREE_CONFIG_DIR", filepath.Join(dir, "config"))
	t.Setenv("MTTREE_DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("MTTREE_TYPE_COUNT", "")
	t.Setenv("MTTREE_TYPE_LABEL", "")
	return &env{t: t, dir: dir, dataDir: filepath.Join(dir, "data")}
}

func (e *env) write(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (e *env) run(args ...string) (string, string, error) {
	e.t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out, _, err := e.run("version")
	require.NoError(t, err)
	assert.Equal(t, "mttree "+Version+"\n", out)
}

func TestFlatten_Newick(t *testing.T) {
	e := newEnv(t)
	path := e.write("tree.yaml", threeLeafYAML)

	out, _, err := e.run("flatten", path, "--type-count", "3")
	require.NoError(t, err)
	assert.Equal(t, flatNewick+"\n", out)

	assert.FileExists(t, filepath.Join(e.dir, "config", configFileExt), "default config written on first run")
}

func TestFlatten_TypeCountFromConfigAndEnv(t *testing.T) {
	e := newEnv(t)
	path := e.write("tree.yaml", threeLeafYAML)

	configDir := filepath.Join(e.dir, "config")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, configFileExt),
		[]byte("type_label: location\ntype_count: 3\n"), 0o644))

	out, _, err := e.run("flatten", path)
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(flatNewick, "deme=", "location="), strings.TrimSpace(out))

	t.Setenv("MTTREE_TYPE_COUNT", "1")
	_, _, err = e.run("flatten", path)
	assert.ErrorIs(t, err, types.ErrTypeOutOfRange, "env overrides config.yaml")
}

func TestFlatten_MissingTypeCount(t *testing.T) {
	e := newEnv(t)
	path := e.write("tree.yaml", threeLeafYAML)

	_, _, err := e.run("flatten", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrTypeCountMissing)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestFlattenUnflatten_YAMLRoundTrip(t *testing.T) {
	e := newEnv(t)
	path := e.write("tree.yaml", threeLeafYAML)

	flatYAML, _, err := e.run("flatten", path, "--type-count", "3", "--format", "yaml")
	require.NoError(t, err)
	flatPath := e.write("flat.yaml", flatYAML)

	typedYAML, _, err := e.run("unflatten", flatPath, "--type-count", "3")
	require.NoError(t, err)

	want, err := multitype.ParseSpec([]byte(threeLeafYAML))
	require.NoError(t, err)
	got, err := multitype.ParseSpec([]byte(typedYAML))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUnflatten_Malformed(t *testing.T) {
	e := newEnv(t)
	path := e.write("flat.yaml", `height: 1
meta: {deme: 0}
children:
  - id: A
    height: 0
  - id: B
    height: 0
    meta: {deme: 0}
`)
	_, _, err := e.run("unflatten", path, "--type-count", "2")
	assert.ErrorIs(t, err, types.ErrMalformedFlatTree)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestFlatten_InvalidInput(t *testing.T) {
	e := newEnv(t)
	path := e.write("bad.yaml", `height: 1
type: 0
children:
  - {id: A, height: 0, type: 0, changes: [{time: 2, type: 1}]}
  - {id: B, height: 0, type: 0}
`)
	_, _, err := e.run("flatten", path, "--type-count", "2")
	assert.ErrorIs(t, err, types.ErrChangeOrder)

	valid := e.write("tree.yaml", threeLeafYAML)
	_, _, err = e.run("flatten", valid, "--type-count", "3", "--format", "xml")
	assert.ErrorIs(t, err, errUsage)

	_, _, err = e.run("flatten", filepath.Join(e.dir, "absent.yaml"), "--type-count", "2")
	assert.Error(t, err)
	assert.Equal(t, exitSysError, exitCode(err))
}

func TestInspect(t *testing.T) {
	e := newEnv(t)
	path := e.write("tree.yaml", threeLeafYAML)

	out, _, err := e.run("inspect", path, "--type-count", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "0.5->2")
	assert.Contains(t, out, "NR")

	out, _, err = e.run("inspect", path, "--type-count", "3", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"nr": 4`)
}

func TestLogAndTrace(t *testing.T) {
	e := newEnv(t)
	first := e.write("s0.yaml", threeLeafYAML)
	second := e.write("s1.yaml", strings.Replace(threeLeafYAML, "{time: 0.5, type: 2}", "{time: 0.25, type: 2}", 1))
	logPath := filepath.Join(e.dir, "trees.nex")

	_, errOut, err := e.run("log", first, second, "--type-count", "3", "--every", "100", "--out", logPath, "--record")
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	log := string(data)
	assert.True(t, strings.HasPrefix(log, "#NEXUS\n"))
	assert.Contains(t, log, "tree STATE_0 = (((1[&deme=0]:0.5)")
	assert.Contains(t, log, "tree STATE_100 = (((1[&deme=0]:0.25)")
	assert.True(t, strings.HasSuffix(log, "End;\n"))

	var runID string
	for _, line := range strings.Split(errOut, "\n") {
		if id, ok := strings.CutPrefix(line, "run "); ok {
			runID = id
		}
	}
	require.NotEmpty(t, runID)

	out, _, err := e.run("trace", "list")
	require.NoError(t, err)
	assert.Contains(t, out, runID)

	out, _, err = e.run("trace", "list", runID)
	require.NoError(t, err)
	assert.Contains(t, out, "100")

	out, _, err = e.run("trace", "show", runID, "100")
	require.NoError(t, err)
	assert.Contains(t, out, "time: 0.25")

	exportPath := filepath.Join(e.dir, "run.jsonl")
	_, _, err = e.run("trace", "export", runID, exportPath)
	require.NoError(t, err)
	assert.FileExists(t, exportPath)

	imported, _, err := e.run("trace", "import", exportPath, "--type-count", "3")
	require.NoError(t, err)
	assert.NotEqual(t, runID, strings.TrimSpace(imported))

	_, _, err = e.run("trace", "delete", runID)
	require.NoError(t, err)
	_, _, err = e.run("trace", "show", runID, "0")
	assert.ErrorIs(t, err, types.ErrRunNotFound)

	_, _, err = e.run("trace", "show", runID, "zero")
	assert.True(t, errors.Is(err, errUsage))
}

func TestLog_DifferentLeaves(t *testing.T) {
	e := newEnv(t)
	first := e.write("s0.yaml", threeLeafYAML)
	second := e.write("s1.yaml", strings.Replace(threeLeafYAML, "id: C", "id: D", 1))

	_, _, err := e.run("log", first, second, "--type-count", "3")
	assert.ErrorIs(t, err, types.ErrInconsistentTopology)
}

func TestParseLevel(t *testing.T) {
	_, err := parseLevel("debug")
	assert.NoError(t, err)
	_, err = parseLevel("loud")
	assert.ErrorIs(t, err, errUsage)
}
