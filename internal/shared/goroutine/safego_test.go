package goroutine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

func TestPool_BoundsConcurrency(t *testing.T) {
	pool := NewPool(logger.NewDiscardLogger(), "test", 2)

	var running, peak, done int32
	for i := 0; i < 8; i++ {
		pool.Go(func() {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			atomic.AddInt32(&done, 1)
		})
	}
	pool.Wait()

	assert.Equal(t, int32(8), done)
	assert.LessOrEqual(t, peak, int32(2))
}

func TestPool_RecoversPanic(t *testing.T) {
	pool := NewPool(logger.NewDiscardLogger(), "test", 1)
	var after int32

	pool.Go(func() { panic("boom") })
	pool.Go(func() { atomic.StoreInt32(&after, 1) })
	pool.Wait()

	assert.Equal(t, int32(1), after)
}
