package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroup_RunsDetachedFromCaller(t *testing.T) {
	var g Group
	var done atomic.Int32

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g.Go(ctx, "test", func(ctx context.Context) error {
		if ctx.Err() == nil {
			done.Add(1)
		}
		return nil
	})
	g.Go(ctx, "test", func(context.Context) error { return errors.New("gateway down") })
	g.Wait()

	assert.EqualValues(t, 1, done.Load(), "a cancelled request must not cancel its notifications")
}
