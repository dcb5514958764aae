package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/extrato/internal/common"
	"github.com/bobmcallan/extrato/internal/interfaces"
	"github.com/bobmcallan/extrato/internal/models"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(common.NewSilentLogger(), t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return fs
}

func testOutcome(id, holder string, parsedAt time.Time) *models.StoredOutcome {
	return &models.StoredOutcome{
		ID:          id,
		Fingerprint: "fp-" + id,
		Holder:      holder,
		ParsedAt:    parsedAt,
		Outcome: models.ParseOutcome{
			Equities:   []models.EquityRecord{{Ticker: "IVV", Quantity: 10, Price: 590.25, MarketValue: 5902.50}},
			Dividends:  []models.DividendRecord{},
			FormatUsed: models.FormatModernMultiLine,
		},
	}
}

func TestFileStore_BaseDirectoryCreation(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "data")
	if _, err := NewFileStore(common.NewSilentLogger(), base); err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(base, "outcomes"))
	if err != nil {
		t.Fatalf("outcomes directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("expected outcomes to be a directory")
	}
}

func TestFileStore_SanitizeKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "simple"},
		{"with/slash", "with_slash"},
		{"back\\slash", "back_slash"},
		{"colon:key", "colon_key"},
		{"../escape", "__escape"},
	}

	for _, tt := range tests {
		if got := sanitizeKey(tt.input); got != tt.expected {
			t.Errorf("sanitizeKey(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFileStore_SaveAndGet(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, fs.SaveOutcome(ctx, testOutcome("o-1", "alice", now)))

	got, err := fs.GetOutcome(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Holder)
	assert.True(t, got.ParsedAt.Equal(now))
	require.Len(t, got.Outcome.Equities, 1)
	assert.Equal(t, "IVV", got.Outcome.Equities[0].Ticker)
}

func TestFileStore_HumanReadableJSON(t *testing.T) {
	fs := newTestFileStore(t)
	require.NoError(t, fs.SaveOutcome(context.Background(), testOutcome("o-1", "alice", time.Now())))

	data, err := os.ReadFile(fs.filePath("o-1"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"fingerprint\"")
	assert.True(t, strings.HasSuffix(string(data), "\n"))
}

func TestFileStore_SaveRequiresID(t *testing.T) {
	fs := newTestFileStore(t)
	assert.Error(t, fs.SaveOutcome(context.Background(), &models.StoredOutcome{}))
	assert.Error(t, fs.SaveOutcome(context.Background(), nil))
}

func TestFileStore_GetMissing(t *testing.T) {
	fs := newTestFileStore(t)
	_, err := fs.GetOutcome(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrOutcomeNotFound)
}

func TestFileStore_GetCorruptJSON(t *testing.T) {
	fs := newTestFileStore(t)
	require.NoError(t, os.WriteFile(fs.filePath("bad"), []byte("{not json"), 0644))

	_, err := fs.GetOutcome(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, interfaces.ErrOutcomeNotFound)
}

func TestFileStore_GetZeroLengthFile(t *testing.T) {
	fs := newTestFileStore(t)
	require.NoError(t, os.WriteFile(fs.filePath("empty"), nil, 0644))

	_, err := fs.GetOutcome(context.Background(), "empty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestFileStore_AtomicWrite_NoTempFileLeftBehind(t *testing.T) {
	fs := newTestFileStore(t)
	require.NoError(t, fs.SaveOutcome(context.Background(), testOutcome("o-1", "alice", time.Now())))

	entries, err := os.ReadDir(fs.dir)
	require.NoError(t, err)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileStore_ListOutcomes(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, fs.SaveOutcome(ctx, testOutcome("a-old", "alice", base)))
	require.NoError(t, fs.SaveOutcome(ctx, testOutcome("a-new", "alice", base.Add(time.Hour))))
	require.NoError(t, fs.SaveOutcome(ctx, testOutcome("b-1", "bob", base)))
	// Unreadable files are skipped, not fatal
	require.NoError(t, os.WriteFile(filepath.Join(fs.dir, "junk.json"), []byte("{"), 0644))

	alice, err := fs.ListOutcomes(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, "a-new", alice[0].ID)
	assert.Equal(t, "a-old", alice[1].ID)

	all, err := fs.ListOutcomes(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFileStore_ListOutcomes_Empty(t *testing.T) {
	fs := newTestFileStore(t)
	got, err := fs.ListOutcomes(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStore_Delete(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, fs.SaveOutcome(ctx, testOutcome("o-1", "alice", time.Now())))
	require.NoError(t, fs.DeleteOutcome(ctx, "o-1"))

	_, err := fs.GetOutcome(ctx, "o-1")
	assert.ErrorIs(t, err, interfaces.ErrOutcomeNotFound)
	assert.NoError(t, fs.DeleteOutcome(ctx, "o-1"))
}

func TestFileStore_ConcurrentWrites(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fs.SaveOutcome(ctx, testOutcome("shared", "alice", time.Now())); err != nil {
				t.Errorf("concurrent SaveOutcome failed: %v", err)
			}
		}()
	}
	wg.Wait()

	_, err := fs.GetOutcome(ctx, "shared")
	require.NoError(t, err)

	entries, err := os.ReadDir(fs.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNewOutcomeStore_Backends(t *testing.T) {
	logger := common.NewSilentLogger()

	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = BackendFile
	cfg.Storage.Path = t.TempDir()
	store, err := NewOutcomeStore(logger, cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	cfg.Storage.Backend = BackendNone
	store, err = NewOutcomeStore(logger, cfg)
	require.NoError(t, err)
	assert.Nil(t, store)

	cfg.Storage.Backend = "badger"
	_, err = NewOutcomeStore(logger, cfg)
	assert.ErrorContains(t, err, "unknown storage backend")
}
