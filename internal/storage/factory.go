package storage

import (
	"fmt"

	"github.com/bobmcallan/extrato/internal/common"
	"github.com/bobmcallan/extrato/internal/interfaces"
	"github.com/bobmcallan/extrato/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendSurrealDB = "surrealdb"
	BackendFile      = "file"
	BackendNone      = "none"
)

// NewOutcomeStore creates an outcome store based on the configuration.
// Backend "none" returns a nil store: outcomes are parsed but not persisted.
func NewOutcomeStore(logger *common.Logger, config *common.Config) (interfaces.OutcomeStore, error) {
	backend := config.Storage.Backend
	if backend == "" {
		backend = BackendFile // Default to file backend
	}

	switch backend {
	case BackendFile:
		store, err := NewFileStore(logger, config.Storage.Path)
		if err != nil {
			return nil, err
		}
		return store, nil

	case BackendSurrealDB:
		store, err := surrealdb.NewOutcomeStore(logger, &config.Storage)
		if err != nil {
			return nil, err
		}
		return store, nil

	case BackendNone:
		logger.Info().Msg("Outcome persistence disabled")
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: surrealdb, file, none)", backend)
	}
}
