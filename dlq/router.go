package dlq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/wire"
	"github.com/rs/zerolog/log"
	"gocloud.dev/blob"

	"github.com/newscred/task-broker/config"
	"github.com/newscred/task-broker/storage"
	"github.com/newscred/task-broker/storage/data"
)

const (
	panicString = "parameters null"
)

var (
	// DLQInjector is the injector for the DLQ module
	DLQInjector = wire.NewSet(NewRouter,
		wire.Struct(new(RouterConfiguration), "EntryRepo", "DeadLetterRepo", "DeadLetterConfig"))
)

// ExportDirector pairs the mandatory local export destination with an optional
// remote one
type ExportDirector struct {
	LocalExportManager  *ExportWriteManager
	RemoteExportManager *ExportWriteManager
}

// Close flushes and closes both export destinations
func (director *ExportDirector) Close() {
	if director.RemoteExportManager != nil {
		err := director.RemoteExportManager.Close()
		if err != nil {
			log.Error().Err(err).Msg("failed to close remote export manager")
		}
	}
	err := director.LocalExportManager.Close()
	if err != nil {
		log.Error().Err(err).Msg("failed to close local export manager")
	}
}

func buildRemoteObjectName(deadLetterConfig config.DeadLetterConfig) string {
	now := time.Now().UTC().Format("2006_01_02T15_04_05Z")
	objectName := fmt.Sprintf("%s_%s.jsonl", deadLetterConfig.GetExportNodeName(), now)
	if len(deadLetterConfig.GetRemoteFilePrefix()) > 0 {
		objectName = fmt.Sprintf("%s/%s", deadLetterConfig.GetRemoteFilePrefix(), objectName)
	}
	return objectName
}

var (
	initLocalExportManager = func(deadLetterConfig config.DeadLetterConfig) (*ExportWriteManager, error) {
		now := time.Now().UTC().Format("2006_01_02T15_04_05Z")
		dirPath := fmt.Sprintf("file://%s/%s", deadLetterConfig.GetExportPath(), deadLetterConfig.GetRemoteFilePrefix())
		objectName := fmt.Sprintf("local_%s_%s.jsonl", deadLetterConfig.GetExportNodeName(), now)
		log.Info().Msgf("Local export path: %s, object name: %s", dirPath, objectName)
		fileBucket, err := blob.OpenBucket(context.Background(), dirPath+"?no_tmp_dir=1")
		if err != nil {
			return nil, fmt.Errorf("failed to open local export file: %w", err)
		}
		return NewExportWriteManager(NewBlobBucket(fileBucket),
			objectName, int64(deadLetterConfig.GetMaxArchiveFileSizeInMB())*1024*1024)
	}

	initRemoteExportManager = func(deadLetterConfig config.DeadLetterConfig) (*ExportWriteManager, error) {
		if deadLetterConfig.GetRemoteExportURL() == nil {
			return nil, nil
		}
		objectName := buildRemoteObjectName(deadLetterConfig)
		bucket, err := blob.OpenBucket(context.Background(), deadLetterConfig.GetRemoteExportURL().String())
		if err != nil {
			return nil, fmt.Errorf("failed to open remote bucket: %w", err)
		}
		return NewExportWriteManager(NewBlobBucket(bucket), objectName, int64(deadLetterConfig.GetMaxArchiveFileSizeInMB())*1024*1024)
	}

	initExportDirector = func(deadLetterConfig config.DeadLetterConfig) (*ExportDirector, error) {
		localExportManager, err := initLocalExportManager(deadLetterConfig)
		if err != nil {
			return nil, err
		}
		remoteExportManager, err := initRemoteExportManager(deadLetterConfig)
		if err != nil {
			return nil, err
		}
		return &ExportDirector{
			LocalExportManager:  localExportManager,
			RemoteExportManager: remoteExportManager,
		}, nil
	}

	exportDeadLetter = func(deadLetter *data.DeadLetterEntry, director *ExportDirector) error {
		jsonData, err := json.Marshal(deadLetter)
		if err != nil {
			return fmt.Errorf("failed to marshal dead letter to JSON: %w", err)
		}
		jsonStr := string(jsonData) + "\n"

		_, err = director.LocalExportManager.Write(context.Background(), jsonStr)
		if err != nil {
			return fmt.Errorf("failed to write dead letter to local export: %w", err)
		}
		if director.RemoteExportManager != nil {
			_, err = director.RemoteExportManager.Write(context.Background(), jsonStr)
			if err != nil {
				return fmt.Errorf("failed to write dead letter to remote export: %w", err)
			}
		}

		return nil
	}
)

// Router moves an exhausted entry out of the live queue into the dead letter
// collection, optionally exporting a JSONL copy. Dead entries are never polled again
// and are never reprocessed automatically.
type Router struct {
	entryRepo        storage.QueueEntryRepository
	deadLetterRepo   storage.DeadLetterRepository
	deadLetterConfig config.DeadLetterConfig
	director         *ExportDirector
}

// Route marks the entry dead and stores its dead letter copy with the final cause
// appended to the error history. Export failures are logged, never propagated; the
// authoritative record is the store.
func (router *Router) Route(entry *data.QueueEntry, cause string) error {
	err := router.entryRepo.MarkDead(entry, cause)
	if err != nil {
		return err
	}
	deadLetter, err := data.NewDeadLetterEntry(entry)
	if err == nil {
		err = router.deadLetterRepo.Store(deadLetter)
	}
	if err != nil {
		return err
	}
	if router.director != nil {
		if exportErr := exportDeadLetter(deadLetter, router.director); exportErr != nil {
			log.Error().Err(exportErr).Msg("could not export dead letter " + deadLetter.EntryID.String())
		}
	}
	return nil
}

// Close releases the export destinations if any were opened
func (router *Router) Close() {
	if router.director != nil {
		router.director.Close()
	}
}

// RouterConfiguration represents the configuration for a dead letter router
type RouterConfiguration struct {
	EntryRepo        storage.QueueEntryRepository
	DeadLetterRepo   storage.DeadLetterRepository
	DeadLetterConfig config.DeadLetterConfig
}

// NewRouter retrieves a new instance of Router; export destinations are opened only
// when archival is enabled by configuration
func NewRouter(configuration *RouterConfiguration) (*Router, error) {
	if configuration.EntryRepo == nil || configuration.DeadLetterRepo == nil || configuration.DeadLetterConfig == nil {
		panic(panicString)
	}
	router := &Router{entryRepo: configuration.EntryRepo, deadLetterRepo: configuration.DeadLetterRepo, deadLetterConfig: configuration.DeadLetterConfig}
	if configuration.DeadLetterConfig.IsArchiveEnabled() {
		director, err := initExportDirector(configuration.DeadLetterConfig)
		if err != nil {
			return nil, err
		}
		router.director = director
	}
	return router, nil
}
