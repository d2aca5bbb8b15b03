package records

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadArray(t *testing.T) {
	in := `  [{"content": "rust ownership", "n": 3}, {"content": "pasta"}]`
	recs, err := Read(strings.NewReader(in), zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "rust ownership", recs[0]["content"])
	assert.Equal(t, float64(3), recs[0]["n"])
}

func TestReadLinesSkipsMalformed(t *testing.T) {
	in := strings.Join([]string{
		`{"id": 1, "content": "first"}`,
		``,
		`{not json`,
		`[1, 2]`,
		`{"id": 2, "content": "second"}`,
	}, "\n")

	var logs bytes.Buffer
	recs, err := Read(strings.NewReader(in), zerolog.New(&logs))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "second", recs[1]["content"])
	assert.Contains(t, logs.String(), `"line":3`)
	assert.Contains(t, logs.String(), `"line":4`)
}

func TestReadEmpty(t *testing.T) {
	for _, in := range []string{"", "   \n", "[]"} {
		recs, err := Read(strings.NewReader(in), zerolog.Nop())
		require.NoError(t, err, "input %q", in)
		assert.NotNil(t, recs)
		assert.Empty(t, recs)
	}
}

func TestReadArrayMalformed(t *testing.T) {
	_, err := Read(strings.NewReader(`[{"a": 1},`), zerolog.Nop())
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"url\":\"https://example.com\"}\n"), 0o644))

	recs, err := ReadFile(path, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "https://example.com", recs[0]["url"])

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.jsonl"), zerolog.Nop())
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	recs := []Record{{"a": 1}, {"b": "x"}}

	var lines bytes.Buffer
	require.NoError(t, Write(&lines, recs, true))
	assert.Equal(t, "{\"a\":1}\n{\"b\":\"x\"}\n", lines.String())

	var pretty bytes.Buffer
	require.NoError(t, Write(&pretty, recs, false))
	back, err := Read(&pretty, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, back, 2)
}
