package queue

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/newscred/task-broker/config"
	"github.com/newscred/task-broker/storage"
	"github.com/newscred/task-broker/storage/data"
)

const seenMarkerPrefix = "seen-"

type markerLockable string

func (name markerLockable) GetLockID() string {
	return string(name)
}

// DeduplicationGate filters out entry versions this or another worker has already seen
// before the claim is even attempted. The gate is an optimization only; the conditional
// claim on the version token remains the sole correctness barrier.
type DeduplicationGate struct {
	lockRepo   storage.LockRepository
	kvRepo     storage.KeyValueRepository
	localCache *storage.MemoryCache[string, bool]
	workerID   string
	gateTTL    time.Duration
	markerTTL  time.Duration
	enabled    bool
}

func markerKey(entry *data.QueueEntry) string {
	return seenMarkerPrefix + entry.ID.String() + "-" + entry.VersionToken.String()
}

// FirstEncounter returns whether the entry's current version is safe to attempt a claim
// on. False means the version was already seen, or another worker holds the gate for it
// this instant; in either case skipping is free since the entry stays pending. On a first
// encounter the marker is written before the caller gets to claim, while the gate lock is
// still held; a successful claim rotates the version token so a later pass would compute
// a different key.
func (gate *DeduplicationGate) FirstEncounter(entry *data.QueueEntry) bool {
	if !gate.enabled {
		return true
	}
	key := markerKey(entry)
	if _, seen := gate.localCache.Get(key); seen {
		return false
	}
	lock, err := data.NewLock(markerLockable(key), gate.workerID, gate.gateTTL)
	if err == nil {
		err = gate.lockRepo.TryLock(lock)
	}
	if err == storage.ErrLockUnavailable {
		return false
	}
	if err != nil {
		log.Error().Err(err).Msg("could not attain dedup gate lock for " + key)
		return true
	}
	defer gate.lockRepo.ReleaseLock(lock)
	_, err = gate.kvRepo.Get(key)
	if err == nil {
		gate.localCache.Set(key, true)
		return false
	}
	if err != storage.ErrKeyAbsent {
		log.Error().Err(err).Msg("could not read dedup marker for " + key)
		return true
	}
	if err = gate.kvRepo.Put(key, gate.workerID, gate.markerTTL); err != nil {
		log.Error().Err(err).Msg("could not store dedup marker for " + key)
	}
	gate.localCache.Set(key, true)
	return true
}

// Close releases the local cache resources
func (gate *DeduplicationGate) Close() {
	gate.localCache.Close()
}

// NewDeduplicationGate initializes the gate from the deduplication configuration
func NewDeduplicationGate(dedupConfig config.DeduplicationConfig, workerConfig config.WorkerConfig, lockRepo storage.LockRepository, kvRepo storage.KeyValueRepository) *DeduplicationGate {
	return &DeduplicationGate{
		lockRepo:   lockRepo,
		kvRepo:     kvRepo,
		localCache: storage.NewMemoryCache[string, bool](dedupConfig.GetLocalCacheTTL()),
		workerID:   workerConfig.GetWorkerID(),
		gateTTL:    dedupConfig.GetGateLockTTL(),
		markerTTL:  dedupConfig.GetMarkerTTL(),
		enabled:    dedupConfig.IsDeduplicationEnabled(),
	}
}
