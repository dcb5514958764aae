package interfaces

import (
	"context"
	"errors"

	"github.com/bobmcallan/extrato/internal/models"
)

// ErrOutcomeNotFound is returned when a stored outcome does not exist
var ErrOutcomeNotFound = errors.New("outcome not found")

// OutcomeStore persists parse outcomes
type OutcomeStore interface {
	// SaveOutcome creates or replaces an outcome keyed by its ID
	SaveOutcome(ctx context.Context, outcome *models.StoredOutcome) error

	// GetOutcome returns ErrOutcomeNotFound when id is unknown
	GetOutcome(ctx context.Context, id string) (*models.StoredOutcome, error)

	// ListOutcomes returns a holder's outcomes, newest first. An empty holder lists all.
	ListOutcomes(ctx context.Context, holder string) ([]*models.StoredOutcome, error)

	// DeleteOutcome removes an outcome; deleting a missing outcome is not an error
	DeleteOutcome(ctx context.Context, id string) error

	// Close releases the underlying connection or handles
	Close() error
}
