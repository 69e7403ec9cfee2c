package tasks

// Queue is an agent's ordered list of pending tasks. Only the front task is
// ever attempted.
type Queue struct {
	items []Task
}

// NewQueue returns a queue holding ts in order.
func NewQueue(ts ...Task) *Queue {
	q := &Queue{}
	q.items = append(q.items, ts...)
	return q
}

// Push appends t to the back of the queue.
func (q *Queue) Push(t Task) {
	q.items = append(q.items, t)
}

// Front returns the task to attempt next.
func (q *Queue) Front() (Task, bool) {
	if q == nil || len(q.items) == 0 {
		return nil, false
	}
	return q.items[0], true
}

// Pop removes and returns the front task.
func (q *Queue) Pop() (Task, bool) {
	t, ok := q.Front()
	if !ok {
		return nil, false
	}
	q.items[0] = nil
	q.items = q.items[1:]
	return t, true
}

// Replace discards everything queued and queues ts instead.
func (q *Queue) Replace(ts ...Task) {
	q.items = append([]Task(nil), ts...)
}

// Len returns the number of queued tasks.
func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Empty reports whether nothing is queued. A nil queue is empty.
func (q *Queue) Empty() bool { return q.Len() == 0 }

// Tasks returns a copy of the queued tasks, front first.
func (q *Queue) Tasks() []Task {
	if q == nil {
		return nil
	}
	return append([]Task(nil), q.items...)
}
