package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingPurger struct {
	calls atomic.Int32
}

func (p *countingPurger) DeleteStale(context.Context, time.Time) (int64, error) {
	p.calls.Add(1)
	return 2, nil
}

func TestTokenCleanupRuns(t *testing.T) {
	s, err := New(zap.NewNop())
	require.NoError(t, err)

	purger := &countingPurger{}
	require.NoError(t, s.AddTokenCleanup(purger, time.Hour))

	s.Start()
	defer func() { require.NoError(t, s.Shutdown()) }()

	require.Eventually(t, func() bool { return purger.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}
