package cache

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"

	"github.com/cognicore/topology/pkg/topology/fingerprint"
)

const (
	exactSeed = 0x746f706f6c6f6779 // "topology"
	argsSeed  = 0x61726773         // "args"
)

// ContentHash fingerprints a batch as the uniform SimHash of all its
// tokens concatenated. It is approximate: batches with the same token
// multiset, or near-identical ones, can share a hash. An empty batch
// hashes to 0.
func ContentHash(tokenLists [][]string) uint64 {
	total := 0
	for _, toks := range tokenLists {
		total += len(toks)
	}
	if total == 0 {
		return 0
	}
	all := make([]string, 0, total)
	for _, toks := range tokenLists {
		all = append(all, toks...)
	}
	return fingerprint.SimHashUniform(all)
}

// ExactContentHash hashes the raw texts in order, each prefixed by its
// length.
func ExactContentHash(texts []string) uint64 {
	d := xxhash.NewWithSeed(exactSeed)
	var lenBuf [8]byte
	for _, t := range texts {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(t)))
		_, _ = d.Write(lenBuf[:])
		_, _ = d.WriteString(t)
	}
	return d.Sum64()
}

// ArgsHash hashes the JSON encoding of params. Struct fields encode in
// declaration order and map keys sorted, so equal parameters hash equal.
func ArgsHash(params any) (uint64, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("encode cache args: %w", err)
	}
	d := xxhash.NewWithSeed(argsSeed)
	_, _ = d.Write(data)
	return d.Sum64(), nil
}
