package httpapi

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ledgermint/lendingcore/internal/config"
	"github.com/ledgermint/lendingcore/native/lending"
)

func testID(label byte) lending.ID {
	var raw [32]byte
	raw[31] = label
	id, err := lending.IDFromBytes(raw[:])
	if err != nil {
		panic(err)
	}
	return id
}

func newTestApp(t *testing.T) (*App, http.Handler, lending.ID, lending.ID) {
	t.Helper()

	state := lending.NewMemoryState()
	prices := NewPushedPriceFeed()
	oracle := lending.NewOracleAdapter(prices, prices)
	ledger := NewMemoryLedger()
	engine := lending.NewEngine(state, oracle, ledger, testID(0xFF))

	gov := testID(0x01)
	require.NoError(t, engine.InitializeMarketConfig(gov))

	assetMint := testID(0x10)
	pythFeed := testID(0x11)
	params := lending.AssetPoolParams{
		LoanToValueBps:          7_500,
		LiquidationThresholdBps: 8_000,
		BaseBorrowRateBps:       200,
		BaseSlopeBps:            1_500,
		OptimalUtilizationBps:   8_000,
		KinkSlopeBps:            6_000,
		ProtocolFeeBps:          1_000,
		FlashLoanFeeBps:         9,
	}
	poolID, err := engine.AddAssetPool(gov, assetMint, pythFeed, lending.ZeroID, params)
	require.NoError(t, err)

	prices.SetPrice(pythFeed, lending.Price{Price: 100_000_000, Conf: 100_000, Expo: -8, PublishTime: time.Now().Unix()})

	owner := testID(0x20)
	ledger.Credit(owner, 1_000_000)

	app := &App{Engine: engine, State: state, Ledger: ledger, Prices: prices, Logger: slog.Default()}
	auth := NewAuthenticator(config.AuthConfig{}, slog.Default())
	limiter := NewRateLimiter(config.RateLimitConfig{RatePerSecond: 100, Burst: 100})
	router := NewRouter(app, auth, limiter)
	return app, router, owner, poolID
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDepositAndReadBackPosition(t *testing.T) {
	_, router, owner, pool := newTestApp(t)

	rec := postJSON(t, router, "/positions/deposit", map[string]any{
		"owner":  owner.String(),
		"pool":   pool.String(),
		"amount": 10_000,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/positions/info?pool="+pool.String()+"&owner="+owner.String(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var position lending.UserPosition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &position))
	require.Equal(t, uint64(10_000), position.CollateralAmount)
}

func TestDepositThenBorrowWithinLoanToValue(t *testing.T) {
	_, router, owner, pool := newTestApp(t)

	rec := postJSON(t, router, "/positions/deposit", map[string]any{
		"owner":  owner.String(),
		"pool":   pool.String(),
		"amount": 100_000,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, router, "/positions/borrow", map[string]any{
		"owner":  owner.String(),
		"pool":   pool.String(),
		"amount": 50_000,
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminRouteRejectsUnauthenticatedWhenAuthEnabled(t *testing.T) {
	app, _, _, _ := newTestApp(t)
	auth := NewAuthenticator(config.AuthConfig{Enabled: true, HMACSecret: "secret"}, slog.Default())
	limiter := NewRateLimiter(config.RateLimitConfig{RatePerSecond: 100, Burst: 100})
	router := NewRouter(app, auth, limiter)

	rec := postJSON(t, router, "/admin/pause", map[string]any{"caller": testID(0x01).String()})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthz(t *testing.T) {
	_, router, _, _ := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
