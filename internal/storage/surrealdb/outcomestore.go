package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/extrato/internal/common"
	"github.com/bobmcallan/extrato/internal/interfaces"
	"github.com/bobmcallan/extrato/internal/models"
)

const outcomeTable = "outcome"

// outcomeSelectFields omits the record id, which is a RecordID not a string.
const outcomeSelectFields = `outcome_id, fingerprint, holder, source, outcome, parsed_at`

// outcomeRecord is the stored row. The record ID lives in the table key,
// so the outcome's own ID is kept in outcome_id.
type outcomeRecord struct {
	OutcomeID   string              `json:"outcome_id"`
	Fingerprint string              `json:"fingerprint"`
	Holder      string              `json:"holder"`
	Source      string              `json:"source"`
	Outcome     models.ParseOutcome `json:"outcome"`
	ParsedAt    time.Time           `json:"parsed_at"`
}

func toRecord(o *models.StoredOutcome) outcomeRecord {
	return outcomeRecord{
		OutcomeID:   o.ID,
		Fingerprint: o.Fingerprint,
		Holder:      o.Holder,
		Source:      o.Source,
		Outcome:     o.Outcome,
		ParsedAt:    o.ParsedAt,
	}
}

func (r outcomeRecord) toModel() *models.StoredOutcome {
	return &models.StoredOutcome{
		ID:          r.OutcomeID,
		Fingerprint: r.Fingerprint,
		Holder:      r.Holder,
		Source:      r.Source,
		Outcome:     r.Outcome,
		ParsedAt:    r.ParsedAt,
	}
}

// OutcomeStore implements interfaces.OutcomeStore using SurrealDB.
type OutcomeStore struct {
	db     *surrealdb.DB
	logger *common.Logger
	owned  bool
}

var _ interfaces.OutcomeStore = (*OutcomeStore)(nil)

// NewOutcomeStore connects to SurrealDB and returns a store owning the connection.
func NewOutcomeStore(logger *common.Logger, config *common.StorageConfig) (*OutcomeStore, error) {
	db, err := Connect(context.Background(), config)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("address", config.Address).
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Msg("SurrealDB outcome store initialized")

	return &OutcomeStore{db: db, logger: logger, owned: true}, nil
}

// NewOutcomeStoreWithDB wraps an existing connection. Close leaves it open.
func NewOutcomeStoreWithDB(ctx context.Context, db *surrealdb.DB, logger *common.Logger) (*OutcomeStore, error) {
	if err := defineTables(ctx, db); err != nil {
		return nil, err
	}
	return &OutcomeStore{db: db, logger: logger}, nil
}

func (s *OutcomeStore) SaveOutcome(ctx context.Context, outcome *models.StoredOutcome) error {
	if outcome == nil || outcome.ID == "" {
		return fmt.Errorf("outcome ID is required")
	}

	sql := "UPSERT $rid CONTENT $record"
	vars := map[string]any{
		"rid":    surrealmodels.NewRecordID(outcomeTable, outcome.ID),
		"record": toRecord(outcome),
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]outcomeRecord](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
		s.logger.Warn().Str("id", outcome.ID).Int("attempt", attempt).Err(err).Msg("Outcome upsert failed")
	}
	return fmt.Errorf("failed to save outcome after retries: %w", lastErr)
}

func (s *OutcomeStore) GetOutcome(ctx context.Context, id string) (*models.StoredOutcome, error) {
	sql := "SELECT " + outcomeSelectFields + " FROM $rid"
	vars := map[string]any{
		"rid": surrealmodels.NewRecordID(outcomeTable, id),
	}

	results, err := surrealdb.Query[[]outcomeRecord](ctx, s.db, sql, vars)
	if err != nil {
		if isNotFoundError(err) {
			return nil, interfaces.ErrOutcomeNotFound
		}
		return nil, fmt.Errorf("failed to get outcome: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, interfaces.ErrOutcomeNotFound
	}
	return (*results)[0].Result[0].toModel(), nil
}

func (s *OutcomeStore) ListOutcomes(ctx context.Context, holder string) ([]*models.StoredOutcome, error) {
	sql := "SELECT " + outcomeSelectFields + " FROM " + outcomeTable
	vars := map[string]any{}
	if holder != "" {
		sql += " WHERE holder = $holder"
		vars["holder"] = holder
	}
	sql += " ORDER BY parsed_at DESC, outcome_id DESC"

	results, err := surrealdb.Query[[]outcomeRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}

	var outcomes []*models.StoredOutcome
	if results != nil && len(*results) > 0 {
		for _, r := range (*results)[0].Result {
			outcomes = append(outcomes, r.toModel())
		}
	}
	return outcomes, nil
}

func (s *OutcomeStore) DeleteOutcome(ctx context.Context, id string) error {
	_, err := surrealdb.Delete[outcomeRecord](ctx, s.db, surrealmodels.NewRecordID(outcomeTable, id))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete outcome: %w", err)
	}
	return nil
}

func (s *OutcomeStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close(context.Background())
}
