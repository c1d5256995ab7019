package queue

import (
	"container/list"
	"sync"
)

// JobBuffer holds jobs awaiting an idle worker in poll order
type JobBuffer struct {
	jobs *list.List
	mu   sync.Mutex
}

// Len returns the number of buffered jobs
func (buffer *JobBuffer) Len() int {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()
	return buffer.jobs.Len()
}

// Enqueue appends the job at the back of the buffer
func (buffer *JobBuffer) Enqueue(job *Job) {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()
	buffer.jobs.PushBack(job)
}

// Dequeue pops the job next in order
func (buffer *JobBuffer) Dequeue() *Job {
	buffer.mu.Lock()
	defer buffer.mu.Unlock()
	frontElement := buffer.jobs.Front()
	job := buffer.jobs.Remove(frontElement).(*Job)
	return job
}

// NewJobBuffer initializes an empty buffer for Jobs
func NewJobBuffer() *JobBuffer {
	return &JobBuffer{jobs: list.New()}
}
