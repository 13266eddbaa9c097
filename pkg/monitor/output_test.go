package monitor

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/nullsector/judged/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestOutputExactlyAtLimit(t *testing.T) {
	src := bytes.NewReader(bytes.Repeat([]byte("x"), 9))
	m := NewOutput(9, src)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	reason, err := m.WaitExhaust(ctx)
	assert.Equal(t, types.ReasonNone, reason)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, m.Exceeded())
	assert.Equal(t, 9, m.Len())
}

func TestOutputOneByteOverLimit(t *testing.T) {
	src := bytes.NewReader(bytes.Repeat([]byte("x"), 10))
	m := NewOutput(9, src)

	reason, err := m.WaitExhaust(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, types.ReasonOutput, reason)
	assert.True(t, m.Exceeded())
	assert.Equal(t, 9, m.Len())
}
