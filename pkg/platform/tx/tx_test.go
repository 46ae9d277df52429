package tx

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialRunnerPropagatesError(t *testing.T) {
	runner := NewSerialRunner()
	sentinel := errors.New("boom")

	err := runner.RunInTx(context.Background(), func(context.Context) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
}

func TestSerialRunnerSerializes(t *testing.T) {
	runner := NewSerialRunner()

	var (
		wg     sync.WaitGroup
		active int
		peak   int
		mu     sync.Mutex
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = runner.RunInTx(context.Background(), func(context.Context) error {
				mu.Lock()
				active++
				if active > peak {
					peak = active
				}
				mu.Unlock()

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, peak)
}

func TestPgxRoundTripsThroughContext(t *testing.T) {
	_, ok := Pgx(context.Background())
	assert.False(t, ok)

	ctx := WithPgx(context.Background(), nil)
	_, ok = Pgx(ctx)
	assert.False(t, ok, "a nil transaction must not be surfaced")
}
