package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/newscred/task-broker/storage/data"
)

func TestJobBufferOrdering(t *testing.T) {
	t.Parallel()
	buffer := NewJobBuffer()
	first, _ := data.NewQueueEntry("send-email", "payload-1")
	second, _ := data.NewQueueEntry("send-email", "payload-2")
	third, _ := data.NewQueueEntry("send-email", "payload-3")
	buffer.Enqueue(NewJob(first))
	buffer.Enqueue(NewJob(second))
	buffer.Enqueue(NewJob(third))
	assert.Equal(t, 3, buffer.Len())
	assert.Equal(t, first.ID, buffer.Dequeue().Data.ID)
	assert.Equal(t, second.ID, buffer.Dequeue().Data.ID)
	assert.Equal(t, third.ID, buffer.Dequeue().Data.ID)
	assert.Equal(t, 0, buffer.Len())
}
