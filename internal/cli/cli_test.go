package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/topology/internal/version"
)

const corpusJSONL = `{"id":"a","content":"rust systems memory safety ownership borrow checker compiler","url":"https://www.example.com/rust?utm_source=x"}
{"id":"b","content":"rust performance zero cost abstractions concurrent safe compile","url":"http://example.com/rust/"}
{"id":"c","content":"cooking recipe pasta italian sauce ingredients kitchen chef","url":"https://food.example.org/pasta"}
{"id":"d","content":"cooking baking bread flour dessert restaurant dinner menu","url":"https://food.example.org/bread"}
`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeRows(t *testing.T, out string) []map[string]any {
	t.Helper()
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows), out)
	return rows
}

func TestFingerprintFromStdin(t *testing.T) {
	out, err := run(t, corpusJSONL, "fingerprint", "--no-cache")
	require.NoError(t, err)

	rows := decodeRows(t, out)
	require.Len(t, rows, 4)
	for _, r := range rows {
		fp, ok := r["_fingerprint"].(string)
		require.True(t, ok)
		assert.Len(t, fp, 16)
	}
}

func TestFingerprintLinesOutput(t *testing.T) {
	out, err := run(t, corpusJSONL, "fingerprint", "--no-cache", "--lines")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "a", first["id"])
}

func TestFieldFromEnvironment(t *testing.T) {
	t.Setenv("TOPOLOGY_TEXT_FIELD", "body")
	in := `[{"content":"same text here","body":"rust ownership borrow checker"},{"content":"same text here","body":"pasta garlic sauce basil"}]`

	out, err := run(t, in, "fingerprint", "--no-cache")
	require.NoError(t, err)
	rows := decodeRows(t, out)
	assert.NotEqual(t, rows[0]["_fingerprint"], rows[1]["_fingerprint"])

	out, err = run(t, in, "fingerprint", "--no-cache", "--field", "content")
	require.NoError(t, err)
	rows = decodeRows(t, out)
	assert.Equal(t, rows[0]["_fingerprint"], rows[1]["_fingerprint"])
}

func TestReadsFileArgument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(corpusJSONL), 0o644))

	out, err := run(t, "", "tags", "--no-cache", "--count", "2", path)
	require.NoError(t, err)
	rows := decodeRows(t, out)
	require.Len(t, rows, 4)
	assert.Len(t, rows[0]["_tags"], 2)
}

func TestSampleUsesConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "topology.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("sampling:\n  size: 2\n  strategy: systematic\ncache:\n  enabled: false\n"), 0o644))

	out, err := run(t, corpusJSONL, "sample", "--config", cfgPath)
	require.NoError(t, err)
	assert.Len(t, decodeRows(t, out), 2)

	// flags win over the file
	out, err = run(t, corpusJSONL, "sample", "--config", cfgPath, "--size", "3")
	require.NoError(t, err)
	assert.Len(t, decodeRows(t, out), 3)
}

func TestDedup(t *testing.T) {
	out, err := run(t, corpusJSONL, "dedup", "--no-cache", "--strategy", "url")
	require.NoError(t, err)
	rows := decodeRows(t, out)

	assert.Equal(t, rows[0]["_dup_group"], rows[1]["_dup_group"])
	assert.Equal(t, true, rows[0]["_is_primary"])
	assert.Equal(t, false, rows[1]["_is_primary"])
	assert.NotEqual(t, rows[2]["_dup_group"], rows[3]["_dup_group"])

	_, err = run(t, corpusJSONL, "dedup", "--no-cache", "--strategy", "exact")
	assert.Error(t, err)
}

func TestDiscoverThenClassify(t *testing.T) {
	taxPath := filepath.Join(t.TempDir(), "taxonomy.yaml")

	_, err := run(t, corpusJSONL, "discover", "--no-cache", "-k", "2", "--output", taxPath)
	require.NoError(t, err)
	require.FileExists(t, taxPath)

	out, err := run(t, corpusJSONL, "classify", "--no-cache", "--taxonomy", taxPath, "--threshold", "0")
	require.NoError(t, err)
	rows := decodeRows(t, out)
	require.Len(t, rows, 4)
	assert.Equal(t, rows[0]["_category"], rows[1]["_category"])
	assert.Equal(t, rows[2]["_category"], rows[3]["_category"])
	assert.NotEqual(t, rows[0]["_category"], rows[2]["_category"])
}

func TestGenerateAndTopics(t *testing.T) {
	out, err := run(t, corpusJSONL, "generate", "--no-cache", "--depth", "2")
	require.NoError(t, err)
	var gen struct {
		NumClusters int `json:"num_clusters"`
		NumItems    int `json:"num_items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &gen))
	assert.Equal(t, 2, gen.NumClusters)
	assert.Equal(t, 4, gen.NumItems)

	out, err = run(t, corpusJSONL, "topics", "--no-cache", "-k", "2", "--terms", "3")
	require.NoError(t, err)
	var res struct {
		NumTopics   int              `json:"num_topics"`
		Assignments []map[string]int `json:"assignments"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.NumTopics)
	assert.Len(t, res.Assignments, 4)
}

func TestOrganize(t *testing.T) {
	in := `{"id":"Doc One","_category":"Web Dev"}`
	out, err := run(t, in, "organize", "--no-cache", "--format", "flat", "--output-dir", "out")
	require.NoError(t, err)
	rows := decodeRows(t, out)
	assert.Equal(t, "out/web-dev--doc-one", rows[0]["_output_path"])

	_, err = run(t, in, "organize", "--no-cache", "--format", "tree")
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	out, err := run(t, corpusJSONL, "analyze", "--no-cache", "--column", "id")
	require.NoError(t, err)
	var a struct {
		TotalRows int      `json:"total_rows"`
		Columns   []string `json:"columns"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, 4, a.TotalRows)
	assert.Equal(t, []string{"id"}, a.Columns)
}

func TestCacheCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	_, err := run(t, corpusJSONL, "fingerprint", "--cache", dbPath)
	require.NoError(t, err)

	out, err := run(t, "", "cache", "info", "--cache", dbPath)
	require.NoError(t, err)
	var rep struct {
		Counts map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 1, rep.Counts["fingerprints"])
	assert.Equal(t, 0, rep.Counts["taxonomy"])

	out, err = run(t, "", "cache", "clear", "--cache", dbPath, "--kind", "fingerprints")
	require.NoError(t, err)
	assert.Contains(t, out, `"removed": 1`)

	_, err = run(t, "", "cache", "clear", "--cache", dbPath, "--kind", "bogus")
	assert.Error(t, err)

	_, err = run(t, "", "cache", "info", "--no-cache")
	assert.Error(t, err)
}

func TestMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.prom")
	_, err := run(t, corpusJSONL, "fingerprint", "--no-cache", "--metrics-file", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "topology_stage_duration_seconds")
}

func TestUtilityCommands(t *testing.T) {
	out, err := run(t, "", "normalize-url", "https://www.Example.com/page?utm_source=x&id=1")
	require.NoError(t, err)
	assert.Contains(t, out, `"normalized": "https://example.com/page?id=1"`)

	_, err = run(t, "", "normalize-url", "")
	assert.Error(t, err)

	out, err = run(t, "", "similarity", "martha", "marhta", "--metric", "jw")
	require.NoError(t, err)
	assert.Contains(t, out, `"jaro-winkler"`)

	out, err = run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, version.String()+"\n", out)
}

func TestBadConfigPath(t *testing.T) {
	_, err := run(t, corpusJSONL, "fingerprint", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
