package bridge

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_InsertLookupRemove(t *testing.T) {
	r := NewRegistry()
	p := r.Insert("7")
	got, ok := r.Lookup("7")
	require.True(t, ok)
	assert.Same(t, p, got)
	assert.Equal(t, 1, r.Len())

	r.Remove(p)
	_, ok = r.Lookup("7")
	assert.False(t, ok)
}

func TestRegistry_RemoveKeepsReplacement(t *testing.T) {
	r := NewRegistry()
	old := r.Insert("7")
	fresh := r.Insert("7")
	r.Remove(old)

	got, ok := r.Lookup("7")
	require.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestRegistry_Deliver(t *testing.T) {
	r := NewRegistry()
	p := r.Insert("7")
	_, ok := p.Result()
	assert.False(t, ok)

	require.NoError(t, r.Deliver("7", map[string]any{"a": 1}))
	result, ok := p.Result()
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": 1}, result)

	err := r.Deliver("8", nil)
	assert.True(t, errors.Is(err, ErrNotWaiting))
}

func TestPoller_ReceivesResult(t *testing.T) {
	r := NewRegistry()
	p := r.Insert("7")
	go func() {
		time.Sleep(20 * time.Millisecond)
		r.Deliver("7", []any{"x"})
	}()

	result, ok := Poller{Interval: 5 * time.Millisecond, Attempts: 200}.Wait(context.Background(), p)
	require.True(t, ok)
	assert.Equal(t, []any{"x"}, result)
}

func TestPoller_TimesOut(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	p := NewRegistry().Insert("7")

	start := time.Now()
	result, ok := Poller{Interval: 2 * time.Millisecond, Attempts: 5, Logger: logger}.Wait(context.Background(), p)
	assert.False(t, ok)
	assert.Nil(t, result)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Contains(t, buf.String(), "no data received")
}

func TestPoller_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewRegistry().Insert("7")
	_, ok := Poller{Interval: time.Hour, Attempts: 10, Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}.Wait(ctx, p)
	assert.False(t, ok)
}
