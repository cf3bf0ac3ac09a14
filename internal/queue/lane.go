package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrEmptyLaneID is returned when Do is called with an empty lane ID.
var ErrEmptyLaneID = errors.New("queue: lane ID must not be empty")

// laneBuffer is the capacity of each lane's job channel.
const laneBuffer = 4096

// job carries one queued function and the channel its result goes back on.
// The context lets the worker skip jobs whose submitter already gave up.
type job struct {
	ctx    context.Context
	fn     func() error
	result chan error
}

// lane is a single-worker job channel. One lane, one goroutine: everything
// submitted to a lane runs in submission order.
type lane chan job

func (l lane) serve() {
	for j := range l {
		if err := j.ctx.Err(); err != nil {
			j.result <- err
			continue
		}
		j.result <- runRecovered(j.fn)
	}
}

// runRecovered executes fn, converting a panic into an error so one bad job
// cannot kill the lane's worker.
func runRecovered(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue: panic: %v", r)
		}
	}()
	return fn()
}

// LaneQueue serializes work per lane. Turns for the same session share a lane
// and run strictly in FIFO order; different sessions execute concurrently.
type LaneQueue struct {
	mu    sync.Mutex
	lanes map[string]lane
}

func NewLaneQueue() *LaneQueue {
	return &LaneQueue{lanes: make(map[string]lane)}
}

// Do runs fn serially within laneID, blocking until fn finishes or ctx is
// cancelled. The return value is fn's error, or ctx.Err() when cancellation
// wins the race. A cancelled job that has not started yet never runs.
func (q *LaneQueue) Do(ctx context.Context, laneID string, fn func() error) error {
	if laneID == "" {
		return ErrEmptyLaneID
	}

	j := job{ctx: ctx, fn: fn, result: make(chan error, 1)}
	select {
	case q.lane(laneID) <- j:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// lane returns laneID's channel, starting its worker on first use.
func (q *LaneQueue) lane(laneID string) lane {
	q.mu.Lock()
	defer q.mu.Unlock()
	l, ok := q.lanes[laneID]
	if !ok {
		l = make(lane, laneBuffer)
		q.lanes[laneID] = l
		go l.serve()
	}
	return l
}

// LaneCount returns the number of lanes that have ever served a job.
func (q *LaneQueue) LaneCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lanes)
}
