package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/extrato/internal/app"
	"github.com/bobmcallan/extrato/internal/common"
	"github.com/bobmcallan/extrato/internal/models"
)

const statementPage = "Statement Period: December 1, 2024 - December 31, 2024\n" +
	"EQUITIES\n" +
	"ISHARES CORE S&P 500 ETF IVV C 10 590.25 5,902.50\n" +
	"Total Equities 5,902.50\n" +
	"ACCOUNT ACTIVITY\n" +
	"EVENT 12/20/24 C ISHARES CORE S&P 500 ETF 2.134185 7.89\n" +
	"NRA WITHHOLDING TAX -2.37\n" +
	"Total Account Activity"

func newTestServer(t *testing.T, mutate ...func(*common.Config)) *Server {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = "none"
	cfg.Server.RateLimit = 0
	cfg.Service.MaxPDFBytes = 1024
	for _, m := range mutate {
		m(cfg)
	}

	a, err := app.NewAppWithConfig(cfg, common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return NewServer(a)
}

func do(t *testing.T, srv *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func parseBody(t *testing.T, holder, period string) []byte {
	t.Helper()
	body, err := json.Marshal(parseRequest{Holder: holder, Period: period, Pages: []string{statementPage}})
	require.NoError(t, err)
	return body
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))

	rr = do(t, srv, http.MethodGet, "/api/version", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"version"`)

	rr = do(t, srv, http.MethodPost, "/api/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestConfigEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "disabled", got["storage"])
	assert.Equal(t, 0.6, got["fuzzy_threshold"])
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestParseEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/statements/parse", parseBody(t, "alice", ""))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var out models.StoredOutcome
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "alice", out.Holder)
	assert.Equal(t, models.FormatModernMultiLine, out.Outcome.FormatUsed)
	require.Len(t, out.Outcome.Equities, 1)
	assert.Equal(t, "IVV", out.Outcome.Equities[0].Ticker)
	require.Len(t, out.Outcome.Dividends, 1)
	assert.InDelta(t, 2.37, out.Outcome.Dividends[0].WithholdingTax, 1e-9)

	// fetch it back by ID and through the holder listing
	rr = do(t, srv, http.MethodGet, "/api/statements/"+out.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), out.ID)

	rr = do(t, srv, http.MethodGet, "/api/statements?holder=alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Outcomes []models.StoredOutcome `json:"outcomes"`
		Count    int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	rr = do(t, srv, http.MethodGet, "/api/statements?holder=bob", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"count":0`)
	assert.Contains(t, rr.Body.String(), `"outcomes":[]`)
}

func TestParseEndpoint_PeriodHint(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/statements/parse", parseBody(t, "alice", "2024-11"))
	require.Equal(t, http.StatusOK, rr.Code)

	var out models.StoredOutcome
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, models.MonthYear{Year: 2024, Month: 11}, out.Outcome.Period)
}

func TestParseEndpoint_BadRequests(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/statements/parse", []byte(`{"pages":`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/statements/parse", parseBody(t, "alice", "13/2024"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid_period")

	rr = do(t, srv, http.MethodGet, "/api/statements/parse", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestParseEndpoint_EmptyDocument(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/statements/parse", []byte(`{"holder":"alice","pages":[]}`))
	require.Equal(t, http.StatusOK, rr.Code)

	var out models.StoredOutcome
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.True(t, out.Outcome.Empty())
	assert.False(t, out.Outcome.FallbackTriggered)
	assert.Contains(t, rr.Body.String(), `"equities":[]`)
}

func TestBatchEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body, err := json.Marshal(batchRequest{Documents: []parseRequest{
		{Holder: "a", Pages: []string{statementPage}},
		{Holder: "b", Pages: []string{"nothing here"}},
	}})
	require.NoError(t, err)

	rr := do(t, srv, http.MethodPost, "/api/statements/batch", body)
	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		Outcomes []models.StoredOutcome `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got.Outcomes, 2)
	assert.Equal(t, "a", got.Outcomes[0].Holder)
	assert.False(t, got.Outcomes[0].Outcome.Empty())
	assert.Equal(t, "b", got.Outcomes[1].Holder)
	assert.True(t, got.Outcomes[1].Outcome.Empty())

	rr = do(t, srv, http.MethodPost, "/api/statements/batch", []byte(`{"documents":[]}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDetectEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body, err := json.Marshal(parseRequest{Pages: []string{"RESUMO DA CARTEIRA\nAções 10.550,00"}})
	require.NoError(t, err)

	rr := do(t, srv, http.MethodPost, "/api/statements/detect", body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"format":"LegacyTabular","pages":1}`, rr.Body.String())
}

func TestPDFEndpoint_Errors(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/statements/pdf?holder=alice", []byte("definitely not a pdf"))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "unreadable_pdf")

	rr = do(t, srv, http.MethodPost, "/api/statements/pdf", bytes.Repeat([]byte("x"), 2048))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/statements/pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/statements/pdf?period=garbage", []byte("%PDF"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetStatement_NotFound(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/statements/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "not_found")
}

func TestPhrasesEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/phrases", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		Version string `json:"version"`
		Entries []struct {
			Phrase string `json:"phrase"`
			Ticker string `json:"ticker"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.NotEmpty(t, got.Version)
	assert.NotEmpty(t, got.Entries)
}

func TestRateLimitOnParse(t *testing.T) {
	srv := newTestServer(t, func(c *common.Config) {
		c.Server.RateLimit = 0.001
		c.Server.RateBurst = 1
	})

	first := do(t, srv, http.MethodPost, "/api/statements/parse", parseBody(t, "alice", ""))
	assert.Equal(t, http.StatusOK, first.Code)

	second := do(t, srv, http.MethodPost, "/api/statements/parse", parseBody(t, "alice", ""))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.True(t, strings.Contains(second.Body.String(), "rate_limited"))

	// reads unaffected
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/health", nil).Code)
}
