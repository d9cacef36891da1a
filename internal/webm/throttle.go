package webm

import (
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultSlack absorbs cluster-to-cluster jitter before pacing kicks in.
	DefaultSlack = 500 * time.Millisecond
	// DefaultResyncThreshold is how far the stream may fall behind the wall
	// clock before the epoch is re-based instead of letting it catch up.
	DefaultResyncThreshold = 30 * time.Second
)

// Throttle paces a chunk stream to real-time speed as determined by the
// embedded cluster timecodes. Only ClusterHead chunks delay; bodies are
// emitted immediately.
type Throttle struct {
	epoch   time.Time // wall time corresponding to stream timecode zero
	started bool
	slack   time.Duration
	resync  time.Duration
	log     *zap.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

func NewThrottle(log *zap.Logger) *Throttle {
	return &Throttle{
		slack:  DefaultSlack,
		resync: DefaultResyncThreshold,
		log:    log,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Wait blocks until the chunk is due. The first ClusterHead establishes the
// stream epoch and is never delayed.
func (t *Throttle) Wait(c Chunk) {
	head, ok := c.(*ClusterHeadChunk)
	if !ok {
		return
	}

	offset := time.Duration(head.End) * time.Millisecond
	now := t.now()
	if !t.started {
		t.epoch = now.Add(-offset)
		t.started = true
		return
	}

	due := t.epoch.Add(offset - t.slack)
	if wait := due.Sub(now); wait > 0 {
		t.log.Debug("throttle waiting",
			zap.Duration("wait", wait),
			zap.Uint64("timecode_ms", head.End))
		t.sleep(wait)
		return
	}

	if behind := now.Sub(t.epoch.Add(offset)); behind > t.resync {
		// Too far behind real time to catch up smoothly; re-base.
		t.log.Debug("stream fell behind wall clock, resyncing",
			zap.Duration("behind", behind))
		t.epoch = now.Add(-offset)
	}
}
