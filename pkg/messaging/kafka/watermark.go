package kafka

import (
	"sync"
)

// offsetTracker decides which offsets may be stored. Messages of one
// partition complete out of order; the stored offset only ever moves past a
// prefix of offsets that are all completed, so a restart never skips an
// unfinished message.
type offsetTracker struct {
	mu         sync.Mutex
	partitions map[int32]*partitionState
	nextGen    uint64
}

type partitionState struct {
	gen      uint64
	inflight []int64 // ascending
	done     map[int64]bool
}

// position identifies one tracked message.
type position struct {
	partition int32
	offset    int64
	gen       uint64
}

func newOffsetTracker() *offsetTracker {
	return &offsetTracker{partitions: make(map[int32]*partitionState)}
}

// track registers a message read from the broker.
func (t *offsetTracker) track(partition int32, offset int64) position {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.partitions[partition]
	if !ok {
		t.nextGen++
		p = &partitionState{gen: t.nextGen, done: make(map[int64]bool)}
		t.partitions[partition] = p
	}
	p.inflight = append(p.inflight, offset)
	return position{partition: partition, offset: offset, gen: p.gen}
}

// complete marks pos finished. It returns the offset to store, which is the
// next offset to consume, when the watermark advanced.
func (t *offsetTracker) complete(pos position) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.partitions[pos.partition]
	if !ok || p.gen != pos.gen {
		return 0, false
	}
	p.done[pos.offset] = true

	advanced := false
	var last int64
	for len(p.inflight) > 0 && p.done[p.inflight[0]] {
		last = p.inflight[0]
		delete(p.done, last)
		p.inflight = p.inflight[1:]
		advanced = true
	}
	if !advanced {
		return 0, false
	}
	return last + 1, true
}

// owns reports whether pos still belongs to a tracked partition generation.
func (t *offsetTracker) owns(pos position) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.partitions[pos.partition]
	return ok && p.gen == pos.gen
}

// revoke forgets the partitions. Outstanding positions on them become stale.
func (t *offsetTracker) revoke(partitions ...int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range partitions {
		delete(t.partitions, p)
	}
}

// pending returns the number of unfinished messages across partitions.
func (t *offsetTracker) pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, p := range t.partitions {
		n += len(p.inflight)
	}
	return n
}
