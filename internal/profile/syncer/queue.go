// Package syncer drives asynchronous propagation of accepted profile changes
// to their downstream systems. A sharded queue keeps per-subject order, a
// worker pool drains it event-driven, and a recovery pass rebuilds both from
// the audit trail after a restart.
package syncer

import (
	"hash/fnv"
	"sync"
	"time"

	"praxis/internal/profile/models"
	id "praxis/pkg/domain"

	"github.com/google/uuid"
)

// entry is the queued unit: just enough to fetch the live operation from the
// registry when its turn comes.
type entry struct {
	operationID id.OperationID
	subjectID   id.SubjectID
	notBefore   time.Time
}

// Queue holds pending sync operations in per-subject FIFO lists, sharded by
// subject hash so exactly one worker goroutine ever touches a subject.
//
// Invariants:
//   - a subject always hashes to the same shard
//   - entries for one subject leave in the order they arrived
//   - an entry with a future notBefore blocks its subject, never its shard
type Queue struct {
	shards []*shard
}

type shard struct {
	mu    sync.Mutex
	lists map[id.SubjectID][]entry
	order []id.SubjectID
	wakeC chan struct{}
}

// NewQueue creates a queue with the given number of shards, minimum one.
func NewQueue(shards int) *Queue {
	if shards < 1 {
		shards = 1
	}
	q := &Queue{shards: make([]*shard, shards)}
	for i := range q.shards {
		q.shards[i] = &shard{
			lists: make(map[id.SubjectID][]entry),
			wakeC: make(chan struct{}, 1),
		}
	}
	return q
}

// Shards reports the shard count. The worker runs one goroutine per shard.
func (q *Queue) Shards() int {
	return len(q.shards)
}

// Enqueue appends the operation to its subject's FIFO and wakes the owning
// shard. First attempts carry a zero NotBefore; retries carry the earliest
// time they may run again.
func (q *Queue) Enqueue(op *models.SyncOperation) {
	s := q.shardFor(op.SubjectID)
	s.mu.Lock()
	if _, ok := s.lists[op.SubjectID]; !ok {
		s.order = append(s.order, op.SubjectID)
	}
	s.lists[op.SubjectID] = append(s.lists[op.SubjectID], entry{
		operationID: op.OperationID,
		subjectID:   op.SubjectID,
		notBefore:   op.NotBefore,
	})
	s.mu.Unlock()
	s.signal()
}

// Depth reports the total number of queued entries across all shards.
func (q *Queue) Depth() int {
	total := 0
	for _, s := range q.shards {
		s.mu.Lock()
		for _, list := range s.lists {
			total += len(list)
		}
		s.mu.Unlock()
	}
	return total
}

func (q *Queue) shardFor(subjectID id.SubjectID) *shard {
	h := fnv.New32a()
	u := uuid.UUID(subjectID)
	_, _ = h.Write(u[:])
	return q.shards[h.Sum32()%uint32(len(q.shards))]
}

func (s *shard) signal() {
	select {
	case s.wakeC <- struct{}{}:
	default:
	}
}

// pop returns the next eligible entry, scanning subjects round-robin and
// moving a served subject to the back so a busy one cannot starve its shard
// peers. When nothing is eligible ok is false and next carries the earliest
// notBefore among blocked heads, zero if the shard is empty. next is only
// meaningful on a full scan, so callers must ignore it when ok is true.
func (s *shard) pop(now time.Time) (e entry, next time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < len(s.order); i++ {
		subjectID := s.order[i]
		list := s.lists[subjectID]
		head := list[0]
		if head.notBefore.After(now) {
			if next.IsZero() || head.notBefore.Before(next) {
				next = head.notBefore
			}
			continue
		}
		if len(list) == 1 {
			delete(s.lists, subjectID)
			s.order = append(s.order[:i], s.order[i+1:]...)
		} else {
			s.lists[subjectID] = list[1:]
			s.order = append(append(s.order[:i], s.order[i+1:]...), subjectID)
		}
		return head, next, true
	}
	return entry{}, next, false
}
