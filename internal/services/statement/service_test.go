package statement

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/extrato/internal/common"
	"github.com/bobmcallan/extrato/internal/interfaces"
	"github.com/bobmcallan/extrato/internal/models"
	pipeline "github.com/bobmcallan/extrato/internal/statement"
)

// --- mocks ---

type mockExtractor struct {
	pages []models.Page
	err   error
	calls int
}

func (m *mockExtractor) Extract(r io.ReaderAt, size int64) ([]models.Page, error) {
	m.calls++
	return m.pages, m.err
}

func (m *mockExtractor) ExtractFile(path string) ([]models.Page, error) {
	return m.pages, m.err
}

type mockStore struct {
	mu      sync.Mutex
	saved   map[string]*models.StoredOutcome
	saveErr error
}

func newMockStore() *mockStore {
	return &mockStore{saved: make(map[string]*models.StoredOutcome)}
}

func (m *mockStore) SaveOutcome(ctx context.Context, o *models.StoredOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[o.ID] = o
	return nil
}

func (m *mockStore) GetOutcome(ctx context.Context, id string) (*models.StoredOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.saved[id]
	if !ok {
		return nil, interfaces.ErrOutcomeNotFound
	}
	return o, nil
}

func (m *mockStore) ListOutcomes(ctx context.Context, holder string) ([]*models.StoredOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.StoredOutcome
	for _, o := range m.saved {
		if holder == "" || o.Holder == holder {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteOutcome(ctx context.Context, id string) error { return nil }
func (m *mockStore) Close() error                                      { return nil }

// --- helpers ---

const statementText = `Statement Period: December 1, 2024 - December 31, 2024
EQUITIES
ISHARES CORE S&P 500 ETF IVV C 10 590.25 5,902.50
Total Equities 5,902.50
ACCOUNT ACTIVITY
EVENT 12/20/24 C ISHARES CORE S&P 500 ETF 2.134185 7.89
NRA WITHHOLDING TAX -2.37
Total Account Activity`

func statementDoc(holder string) models.RawDocument {
	return models.NewRawDocumentFromText([]string{statementText}, holder, nil)
}

func newTestService(extractor interfaces.TextExtractor, store interfaces.OutcomeStore) *Service {
	parser := pipeline.NewParser(pipeline.DefaultOptions(), nil)
	cfg := common.ServiceConfig{Workers: 2, CacheTTL: "1m", MaxPDFBytes: 1024}
	return NewService(parser, extractor, store, cfg, common.NewSilentLogger())
}

// --- tests ---

func TestParse_PersistsAndCaches(t *testing.T) {
	store := newMockStore()
	svc := newTestService(nil, store)
	ctx := context.Background()

	first, err := svc.Parse(ctx, statementDoc("alice"), nil)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	assert.Equal(t, "alice", first.Holder)
	assert.Len(t, first.Fingerprint, 64)
	assert.Equal(t, models.FormatModernMultiLine, first.Outcome.FormatUsed)
	require.Len(t, first.Outcome.Equities, 1)
	assert.Equal(t, "IVV", first.Outcome.Equities[0].Ticker)
	require.Len(t, first.Outcome.Dividends, 1)
	assert.InDelta(t, 5.52, first.Outcome.Dividends[0].NetAmount, 1e-9)

	second, err := svc.Parse(ctx, statementDoc("alice"), nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "identical request should hit the cache")
	assert.Len(t, store.saved, 1)
}

func TestParse_DifferentKnownTickersMiss(t *testing.T) {
	svc := newTestService(nil, newMockStore())
	ctx := context.Background()

	a, err := svc.Parse(ctx, statementDoc("alice"), nil)
	require.NoError(t, err)
	b, err := svc.Parse(ctx, statementDoc("alice"), []string{"VTI"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestParse_StoreFailure(t *testing.T) {
	store := newMockStore()
	store.saveErr = errors.New("disk full")
	svc := newTestService(nil, store)

	_, err := svc.Parse(context.Background(), statementDoc("alice"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	// failed saves are not cached
	store.saveErr = nil
	out, err := svc.Parse(context.Background(), statementDoc("alice"), nil)
	require.NoError(t, err)
	assert.Contains(t, store.saved, out.ID)
}

func TestParse_CancelledContext(t *testing.T) {
	svc := newTestService(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Parse(ctx, statementDoc("alice"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParse_UnreadableDocumentIsNotAnError(t *testing.T) {
	svc := newTestService(nil, nil)
	doc := models.NewRawDocumentFromText([]string{"nothing useful\nat all"}, "alice", nil)

	out, err := svc.Parse(context.Background(), doc, nil)
	require.NoError(t, err)
	assert.True(t, out.Outcome.Empty())
	assert.True(t, out.Outcome.FallbackTriggered)
}

func TestParsePDF(t *testing.T) {
	extractor := &mockExtractor{pages: statementDoc("").Pages}
	svc := newTestService(extractor, nil)
	period := models.MonthYear{Year: 2024, Month: time.November}

	data := []byte("%PDF-1.4 stub")
	out, err := svc.ParsePDF(context.Background(), bytes.NewReader(data), int64(len(data)),
		interfaces.DocumentMeta{Holder: "bob", PeriodHint: &period, Source: "nov.pdf"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, extractor.calls)
	assert.Equal(t, "bob", out.Holder)
	assert.Equal(t, "nov.pdf", out.Source)
	assert.Equal(t, period, out.Outcome.Period)
}

func TestParsePDF_TooLarge(t *testing.T) {
	extractor := &mockExtractor{}
	svc := newTestService(extractor, nil)

	_, err := svc.ParsePDF(context.Background(), bytes.NewReader(nil), 4096, interfaces.DocumentMeta{}, nil)
	assert.ErrorIs(t, err, ErrDocumentTooLarge)
	assert.Equal(t, 0, extractor.calls)
}

func TestParsePDF_ExtractionError(t *testing.T) {
	svc := newTestService(&mockExtractor{err: errors.New("bad xref")}, nil)

	_, err := svc.ParsePDF(context.Background(), bytes.NewReader(nil), 10, interfaces.DocumentMeta{}, nil)
	assert.ErrorIs(t, err, ErrUnreadablePDF)
	assert.Contains(t, err.Error(), "bad xref")
}

func TestParsePDF_NoExtractor(t *testing.T) {
	svc := newTestService(nil, nil)
	_, err := svc.ParsePDF(context.Background(), bytes.NewReader(nil), 10, interfaces.DocumentMeta{}, nil)
	assert.Error(t, err)
}

func TestParseBatch_KeepsInputOrder(t *testing.T) {
	svc := newTestService(nil, newMockStore())

	var docs []models.RawDocument
	for i := 0; i < 6; i++ {
		docs = append(docs, statementDoc(fmt.Sprintf("holder-%d", i)))
	}

	results, err := svc.ParseBatch(context.Background(), docs, nil)
	require.NoError(t, err)
	require.Len(t, results, len(docs))
	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("holder-%d", i), r.Holder)
	}
}

func TestParseBatch_Empty(t *testing.T) {
	svc := newTestService(nil, nil)
	results, err := svc.ParseBatch(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestParseBatch_FailurePropagates(t *testing.T) {
	store := newMockStore()
	store.saveErr = errors.New("unavailable")
	svc := newTestService(nil, store)

	_, err := svc.ParseBatch(context.Background(), []models.RawDocument{statementDoc("a"), statementDoc("b")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestDetect(t *testing.T) {
	svc := newTestService(nil, nil)
	assert.Equal(t, models.FormatModernMultiLine, svc.Detect(context.Background(), statementDoc("a")))
}

func TestGetOutcome_WithoutStoreUsesCache(t *testing.T) {
	svc := newTestService(nil, nil)
	ctx := context.Background()

	out, err := svc.Parse(ctx, statementDoc("alice"), nil)
	require.NoError(t, err)

	got, err := svc.GetOutcome(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, out.ID, got.ID)

	_, err = svc.GetOutcome(ctx, "missing")
	assert.ErrorIs(t, err, interfaces.ErrOutcomeNotFound)
}

func TestGetOutcome_WithStore(t *testing.T) {
	store := newMockStore()
	svc := newTestService(nil, store)
	ctx := context.Background()

	out, err := svc.Parse(ctx, statementDoc("alice"), nil)
	require.NoError(t, err)

	got, err := svc.GetOutcome(ctx, out.ID)
	require.NoError(t, err)
	assert.Equal(t, out.ID, got.ID)
}

func TestListOutcomes_WithoutStore(t *testing.T) {
	svc := newTestService(nil, nil)
	ctx := context.Background()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	older, err := svc.Parse(ctx, statementDoc("alice"), nil)
	require.NoError(t, err)
	newer, err := svc.Parse(ctx, statementDoc("alice"), []string{"VTI"})
	require.NoError(t, err)
	_, err = svc.Parse(ctx, statementDoc("bob"), nil)
	require.NoError(t, err)

	list, err := svc.ListOutcomes(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	all, err := svc.ListOutcomes(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFingerprint(t *testing.T) {
	doc := statementDoc("alice")
	base := Fingerprint(doc, pipeline.NewTickerSet("IVV", "VTI"))

	assert.Equal(t, base, Fingerprint(doc, pipeline.NewTickerSet("vti", "ivv")), "set order and case do not matter")
	assert.NotEqual(t, base, Fingerprint(statementDoc("bob"), pipeline.NewTickerSet("IVV", "VTI")))

	period := models.MonthYear{Year: 2024, Month: time.December}
	withPeriod := doc
	withPeriod.PeriodHint = &period
	assert.NotEqual(t, base, Fingerprint(withPeriod, pipeline.NewTickerSet("IVV", "VTI")))

	format := models.FormatLegacyTabular
	withFormat := doc
	withFormat.FormatHint = &format
	assert.NotEqual(t, base, Fingerprint(withFormat, pipeline.NewTickerSet("IVV", "VTI")))
}
