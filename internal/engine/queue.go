package engine

// batch is a group of entries processed together in one discovery round.
type batch struct {
	entries []*Entry
}

// batchQueue is a FIFO queue of entry batches.
//
// The discovery loop drains it to a fixed point: handlers never mutate a
// batch that is being processed; new work is enqueued as a fresh batch.
// Not safe for concurrent use; discovery runs on a single goroutine.
type batchQueue struct {
	batches []batch
}

func newBatchQueue() *batchQueue {
	return &batchQueue{batches: make([]batch, 0, 4)}
}

// Enqueue adds a batch to the back of the queue. Empty batches are dropped.
func (q *batchQueue) Enqueue(b batch) {
	if len(b.entries) == 0 {
		return
	}
	q.batches = append(q.batches, b)
}

// TryDequeue removes and returns the front batch.
func (q *batchQueue) TryDequeue() (batch, bool) {
	if len(q.batches) == 0 {
		return batch{}, false
	}
	b := q.batches[0]

	// Clear the slot so entries can be collected.
	q.batches[0] = batch{}
	if len(q.batches) == 1 {
		q.batches = q.batches[:0]
	} else {
		q.batches = q.batches[1:]
	}
	return b, true
}

// Len returns the number of queued batches.
func (q *batchQueue) Len() int {
	return len(q.batches)
}
