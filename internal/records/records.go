// Package records reads and writes batches of JSON records.
package records

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Record is one flat JSON object.
type Record = map[string]any

// maxLine bounds a single JSONL record.
const maxLine = 64 << 20

// Read parses either a JSON array of objects or JSON Lines. In JSON Lines
// mode malformed or non-object lines are logged and skipped.
func Read(r io.Reader, logger zerolog.Logger) ([]Record, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	if first == '[' {
		var recs []Record
		if err := json.NewDecoder(br).Decode(&recs); err != nil {
			return nil, fmt.Errorf("decode record array: %w", err)
		}
		if recs == nil {
			recs = []Record{}
		}
		return recs, nil
	}
	return readLines(br, logger)
}

// ReadFile is Read over the file at path; "-" reads stdin.
func ReadFile(path string, logger zerolog.Logger) ([]Record, error) {
	if path == "-" || path == "" {
		return Read(os.Stdin, logger)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, logger.With().Str("path", path).Logger())
}

func readLines(r io.Reader, logger zerolog.Logger) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	recs := []Record{}
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil || rec == nil {
			logger.Warn().Err(err).Int("line", line).Msg("skipping malformed record")
			continue
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	return recs, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// Write emits v as indented JSON, or one compact line per element when
// lines is set and v is a record slice.
func Write(w io.Writer, v any, lines bool) error {
	if recs, ok := v.([]Record); ok && lines {
		enc := json.NewEncoder(w)
		for _, rec := range recs {
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
		}
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
