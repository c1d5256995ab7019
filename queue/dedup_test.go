package queue

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/newscred/task-broker/storage"
	"github.com/newscred/task-broker/storage/data"
	storagemocks "github.com/newscred/task-broker/storage/mocks"
)

func TestDeduplicationGateDisabled(t *testing.T) {
	t.Parallel()
	gate := NewDeduplicationGate(getDedupConfigMock(false), getWorkerConfigMock(), new(storagemocks.LockRepository), new(storagemocks.KeyValueRepository))
	defer gate.Close()
	entry, _ := data.NewQueueEntry("send-email", "payload")
	assert.True(t, gate.FirstEncounter(entry))
	assert.True(t, gate.FirstEncounter(entry))
}

func TestDeduplicationGateFirstEncounter(t *testing.T) {
	t.Parallel()
	entry, _ := data.NewQueueEntry("send-email", "payload")
	t.Run("FreshVersion", func(t *testing.T) {
		t.Parallel()
		lockRepo := new(storagemocks.LockRepository)
		kvRepo := new(storagemocks.KeyValueRepository)
		gate := NewDeduplicationGate(getDedupConfigMock(true), getWorkerConfigMock(), lockRepo, kvRepo)
		defer gate.Close()
		lockRepo.On("TryLock", mock.AnythingOfType("*data.Lock")).Return(nil)
		lockRepo.On("ReleaseLock", mock.AnythingOfType("*data.Lock")).Return(nil)
		kvRepo.On("Get", markerKey(entry)).Return("", storage.ErrKeyAbsent)
		kvRepo.On("Put", markerKey(entry), "test-worker-1", getDedupConfigMock(true).GetMarkerTTL()).Return(nil)
		assert.True(t, gate.FirstEncounter(entry))
		lockRepo.AssertExpectations(t)
		kvRepo.AssertExpectations(t)
		// the first encounter already recorded the marker locally
		assert.False(t, gate.FirstEncounter(entry))
		kvRepo.AssertNumberOfCalls(t, "Get", 1)
	})
	t.Run("MarkerSharedAcrossGates", func(t *testing.T) {
		t.Parallel()
		// two workers polling the same pre-claim snapshot share the marker store;
		// only the one that writes the marker may proceed to the claim
		lockRepo := new(storagemocks.LockRepository)
		kvRepo := new(storagemocks.KeyValueRepository)
		lockRepo.On("TryLock", mock.AnythingOfType("*data.Lock")).Return(nil)
		lockRepo.On("ReleaseLock", mock.AnythingOfType("*data.Lock")).Return(nil)
		first := NewDeduplicationGate(getDedupConfigMock(true), getWorkerConfigMock(), lockRepo, kvRepo)
		defer first.Close()
		second := NewDeduplicationGate(getDedupConfigMock(true), getWorkerConfigMock(), lockRepo, kvRepo)
		defer second.Close()
		kvRepo.On("Get", markerKey(entry)).Return("", storage.ErrKeyAbsent).Once()
		kvRepo.On("Put", markerKey(entry), "test-worker-1", getDedupConfigMock(true).GetMarkerTTL()).Return(nil).Once()
		assert.True(t, first.FirstEncounter(entry))
		kvRepo.On("Get", markerKey(entry)).Return("test-worker-1", nil)
		assert.False(t, second.FirstEncounter(entry))
		kvRepo.AssertNumberOfCalls(t, "Put", 1)
	})
	t.Run("GateHeldElsewhere", func(t *testing.T) {
		t.Parallel()
		lockRepo := new(storagemocks.LockRepository)
		kvRepo := new(storagemocks.KeyValueRepository)
		gate := NewDeduplicationGate(getDedupConfigMock(true), getWorkerConfigMock(), lockRepo, kvRepo)
		defer gate.Close()
		lockRepo.On("TryLock", mock.AnythingOfType("*data.Lock")).Return(storage.ErrLockUnavailable)
		assert.False(t, gate.FirstEncounter(entry))
		kvRepo.AssertNotCalled(t, "Get", mock.Anything)
	})
	t.Run("MarkerPresentThenCached", func(t *testing.T) {
		t.Parallel()
		lockRepo := new(storagemocks.LockRepository)
		kvRepo := new(storagemocks.KeyValueRepository)
		gate := NewDeduplicationGate(getDedupConfigMock(true), getWorkerConfigMock(), lockRepo, kvRepo)
		defer gate.Close()
		lockRepo.On("TryLock", mock.AnythingOfType("*data.Lock")).Return(nil)
		lockRepo.On("ReleaseLock", mock.AnythingOfType("*data.Lock")).Return(nil)
		kvRepo.On("Get", markerKey(entry)).Return("test-worker-1", nil)
		assert.False(t, gate.FirstEncounter(entry))
		// second pass resolves from the local cache without touching the store
		assert.False(t, gate.FirstEncounter(entry))
		kvRepo.AssertNumberOfCalls(t, "Get", 1)
		lockRepo.AssertNumberOfCalls(t, "TryLock", 1)
	})
	t.Run("LockError", func(t *testing.T) {
		t.Parallel()
		lockRepo := new(storagemocks.LockRepository)
		kvRepo := new(storagemocks.KeyValueRepository)
		gate := NewDeduplicationGate(getDedupConfigMock(true), getWorkerConfigMock(), lockRepo, kvRepo)
		defer gate.Close()
		lockRepo.On("TryLock", mock.AnythingOfType("*data.Lock")).Return(errors.New("db gone"))
		// gate failures never block the claim path
		assert.True(t, gate.FirstEncounter(entry))
	})
}

func TestDeduplicationGateMarkerPutError(t *testing.T) {
	t.Parallel()
	entry, _ := data.NewQueueEntry("send-email", "payload")
	lockRepo := new(storagemocks.LockRepository)
	kvRepo := new(storagemocks.KeyValueRepository)
	gate := NewDeduplicationGate(getDedupConfigMock(true), getWorkerConfigMock(), lockRepo, kvRepo)
	defer gate.Close()
	lockRepo.On("TryLock", mock.AnythingOfType("*data.Lock")).Return(nil)
	lockRepo.On("ReleaseLock", mock.AnythingOfType("*data.Lock")).Return(nil)
	kvRepo.On("Get", markerKey(entry)).Return("", storage.ErrKeyAbsent)
	kvRepo.On("Put", markerKey(entry), "test-worker-1", getDedupConfigMock(true).GetMarkerTTL()).Return(errors.New("db gone"))
	assert.True(t, gate.FirstEncounter(entry))
	// local cache still remembers the version
	assert.False(t, gate.FirstEncounter(entry))
	kvRepo.AssertNumberOfCalls(t, "Get", 1)
}

func TestDeduplicationGateMarkerReadError(t *testing.T) {
	t.Parallel()
	entry, _ := data.NewQueueEntry("send-email", "payload")
	lockRepo := new(storagemocks.LockRepository)
	kvRepo := new(storagemocks.KeyValueRepository)
	gate := NewDeduplicationGate(getDedupConfigMock(true), getWorkerConfigMock(), lockRepo, kvRepo)
	defer gate.Close()
	lockRepo.On("TryLock", mock.AnythingOfType("*data.Lock")).Return(nil)
	lockRepo.On("ReleaseLock", mock.AnythingOfType("*data.Lock")).Return(nil)
	kvRepo.On("Get", markerKey(entry)).Return("", errors.New("db gone"))
	// store failures never block the claim path, and no marker is written blind
	assert.True(t, gate.FirstEncounter(entry))
	kvRepo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}
