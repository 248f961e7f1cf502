package game

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
)

func TestTimerSlotFires(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	slot := newTimerSlot(mClock)

	var fired atomic.Int32
	slot.schedule(time.Second, func() { fired.Add(1) })

	mClock.Advance(time.Second).MustWait(context.Background())
	assert.Equal(t, int32(1), fired.Load())
}

func TestTimerSlotRescheduleSupersedes(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	slot := newTimerSlot(mClock)

	var first, second atomic.Int32
	slot.schedule(time.Second, func() { first.Add(1) })
	slot.schedule(2*time.Second, func() { second.Add(1) })

	mClock.Advance(2 * time.Second).MustWait(context.Background())
	assert.Equal(t, int32(0), first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestTimerSlotCancel(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	slot := newTimerSlot(mClock)

	var fired atomic.Int32
	slot.schedule(time.Second, func() { fired.Add(1) })
	slot.cancel()

	mClock.Advance(5 * time.Second).MustWait(context.Background())
	assert.Equal(t, int32(0), fired.Load())
}
