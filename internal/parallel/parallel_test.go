package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForWritesEveryIndex(t *testing.T) {
	out := make([]int, 100)
	For(len(out), func(i int) {
		out[i] = i * i
	})
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestForEmpty(t *testing.T) {
	called := false
	For(0, func(int) { called = true })
	assert.False(t, called)
}

func TestForErrReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32
	err := ForErr(context.Background(), 50, func(_ context.Context, i int) error {
		calls.Add(1)
		if i == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.LessOrEqual(t, int(calls.Load()), 50)
}
