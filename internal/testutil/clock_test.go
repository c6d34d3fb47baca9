package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManualClock(t *testing.T) {
	c := NewManualClock(100)
	assert.Equal(t, int64(100), c.Now())

	c.Advance(50)
	assert.Equal(t, int64(150), c.Now())

	c.Set(42)
	assert.Equal(t, int64(42), c.Now())
}

func TestManualClockConcurrent(t *testing.T) {
	c := NewManualClock(0)
	done := make(chan struct{})

	go func() {
		for i := 0; i < 1000; i++ {
			c.Advance(1)
		}
		close(done)
	}()
	for i := 0; i < 1000; i++ {
		_ = c.Now()
	}
	<-done

	assert.Equal(t, int64(1000), c.Now())
}
