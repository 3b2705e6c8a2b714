package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/ledgermint/lendingcore/internal/obsmetrics"
	"github.com/ledgermint/lendingcore/native/lending"
)

// App wires the lending engine and its collaborators to the HTTP surface.
type App struct {
	Engine  *lending.Engine
	State   lending.EngineState
	Ledger  *MemoryLedger
	Prices  *PushedPriceFeed
	Logger  *slog.Logger
	Metrics *obsmetrics.EngineMetrics
}

func (a *App) metrics() *obsmetrics.EngineMetrics {
	if a.Metrics != nil {
		return a.Metrics
	}
	return obsmetrics.Engine()
}

func (a *App) observe(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		a.metrics().ObserveError(operation, errorCode(err))
	}
	a.metrics().ObserveOperation(operation, outcome, time.Since(start).Seconds())
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var msg string
	switch {
	case errors.Is(err, lending.ErrInsufficientLiquidity):
		msg = "insufficient_liquidity"
	case errors.Is(err, lending.ErrInsufficientCollateral):
		msg = "insufficient_collateral"
	case errors.Is(err, lending.ErrPositionWouldBecomeUnhealthy):
		msg = "would_become_unhealthy"
	case errors.Is(err, lending.ErrPositionHealthy):
		msg = "position_healthy"
	case errors.Is(err, lending.ErrProtocolPaused):
		msg = "protocol_paused"
	default:
		msg = "other"
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (a *App) writeErrorLogged(w http.ResponseWriter, r *http.Request, status int, err error) {
	if logger := a.Logger; logger != nil {
		logger.Warn("request failed", "request_id", requestIDFromContext(r.Context()), "status", status, "error", err)
	}
	writeError(w, status, err)
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// --- governance ---

type initializeMarketConfigRequest struct {
	GovernanceAuthority string `json:"governance_authority"`
}

func (a *App) initializeMarketConfig(w http.ResponseWriter, r *http.Request) {
	var req initializeMarketConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	authority, err := parseID("governance_authority", req.GovernanceAuthority)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start := time.Now()
	err = a.Engine.InitializeMarketConfig(authority)
	a.observe("initialize_market_config", start, err)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "initialized"})
}

type callerRequest struct {
	Caller string `json:"caller"`
}

func (a *App) pauseProtocol(w http.ResponseWriter, r *http.Request) {
	a.handleCallerOnly(w, r, "pause_protocol", a.Engine.PauseProtocol)
}

func (a *App) unpauseProtocol(w http.ResponseWriter, r *http.Request) {
	a.handleCallerOnly(w, r, "unpause_protocol", a.Engine.UnpauseProtocol)
}

func (a *App) enableWithdrawOnlyMode(w http.ResponseWriter, r *http.Request) {
	a.handleCallerOnly(w, r, "enable_withdraw_only_mode", a.Engine.EnableWithdrawOnlyMode)
}

func (a *App) handleCallerOnly(w http.ResponseWriter, r *http.Request, operation string, fn func(lending.ID) error) {
	var req callerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := parseID("caller", req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start := time.Now()
	err = fn(caller)
	a.observe(operation, start, err)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type addAssetPoolRequest struct {
	Caller        string                 `json:"caller"`
	AssetMint     string                 `json:"asset_mint"`
	PythFeed      string                 `json:"pyth_feed"`
	ChainlinkFeed string                 `json:"chainlink_feed,omitempty"`
	Params        lending.AssetPoolParams `json:"params"`
}

func (a *App) addAssetPool(w http.ResponseWriter, r *http.Request) {
	var req addAssetPoolRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := parseID("caller", req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	assetMint, err := parseID("asset_mint", req.AssetMint)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pythFeed, err := parseID("pyth_feed", req.PythFeed)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var chainlinkFeed lending.ID
	if req.ChainlinkFeed != "" {
		chainlinkFeed, err = parseID("chainlink_feed", req.ChainlinkFeed)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	start := time.Now()
	poolID, err := a.Engine.AddAssetPool(caller, assetMint, pythFeed, chainlinkFeed, req.Params)
	a.observe("add_asset_pool", start, err)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"pool": poolID.String()})
}

type updateAssetPoolRequest struct {
	Caller string                  `json:"caller"`
	Pool   string                  `json:"pool"`
	Params lending.AssetPoolParams `json:"params"`
}

func (a *App) updateAssetPool(w http.ResponseWriter, r *http.Request) {
	var req updateAssetPoolRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := parseID("caller", req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pool, err := parseID("pool", req.Pool)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start := time.Now()
	err = a.Engine.UpdateAssetPool(caller, pool, req.Params)
	a.observe("update_asset_pool", start, err)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type collectProtocolFeesRequest struct {
	Caller string `json:"caller"`
	Pool   string `json:"pool"`
	Amount uint64 `json:"amount"`
}

func (a *App) collectProtocolFees(w http.ResponseWriter, r *http.Request) {
	var req collectProtocolFeesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := parseID("caller", req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pool, err := parseID("pool", req.Pool)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start := time.Now()
	err = a.Engine.CollectProtocolFees(caller, pool, req.Amount)
	a.observe("collect_protocol_fees", start, err)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- position lifecycle ---

type positionAmountRequest struct {
	Owner  string `json:"owner"`
	Pool   string `json:"pool"`
	Amount uint64 `json:"amount"`
}

func (a *App) parseOwnerPoolAmount(w http.ResponseWriter, r *http.Request) (lending.ID, lending.ID, uint64, bool) {
	var req positionAmountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return lending.ID{}, lending.ID{}, 0, false
	}
	owner, err := parseID("owner", req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return lending.ID{}, lending.ID{}, 0, false
	}
	pool, err := parseID("pool", req.Pool)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return lending.ID{}, lending.ID{}, 0, false
	}
	return owner, pool, req.Amount, true
}

func (a *App) deposit(w http.ResponseWriter, r *http.Request) {
	owner, pool, amount, ok := a.parseOwnerPoolAmount(w, r)
	if !ok {
		return
	}
	start := time.Now()
	err := a.Engine.CreateUserPosition(owner, pool)
	if err == nil {
		err = a.Engine.Deposit(owner, pool, amount)
	}
	a.observe("deposit", start, err)
	if err != nil {
		a.writeErrorLogged(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) withdraw(w http.ResponseWriter, r *http.Request) {
	owner, pool, amount, ok := a.parseOwnerPoolAmount(w, r)
	if !ok {
		return
	}
	start := time.Now()
	err := a.Engine.Withdraw(owner, pool, amount)
	a.observe("withdraw", start, err)
	if err != nil {
		a.writeErrorLogged(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) borrow(w http.ResponseWriter, r *http.Request) {
	owner, pool, amount, ok := a.parseOwnerPoolAmount(w, r)
	if !ok {
		return
	}
	start := time.Now()
	err := a.Engine.Borrow(owner, pool, amount)
	a.observe("borrow", start, err)
	if err != nil {
		a.writeErrorLogged(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) repay(w http.ResponseWriter, r *http.Request) {
	owner, pool, amount, ok := a.parseOwnerPoolAmount(w, r)
	if !ok {
		return
	}
	start := time.Now()
	err := a.Engine.Repay(owner, pool, amount)
	a.observe("repay", start, err)
	if err != nil {
		a.writeErrorLogged(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type liquidateRequest struct {
	Liquidator     string `json:"liquidator"`
	Owner          string `json:"owner"`
	CollateralPool string `json:"collateral_pool"`
	LoanPool       string `json:"loan_pool"`
	RepayAmount    uint64 `json:"repay_amount"`
}

func (a *App) liquidate(w http.ResponseWriter, r *http.Request) {
	var req liquidateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	liquidator, err := parseID("liquidator", req.Liquidator)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	owner, err := parseID("owner", req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	collateralPool, err := parseID("collateral_pool", req.CollateralPool)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	loanPool, err := parseID("loan_pool", req.LoanPool)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start := time.Now()
	err = a.Engine.Liquidate(liquidator, owner, collateralPool, loanPool, req.RepayAmount)
	a.observe("liquidate", start, err)
	if err != nil {
		a.writeErrorLogged(w, r, http.StatusBadRequest, err)
		return
	}
	a.metrics().ObserveLiquidation(loanPool.String())
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- credit delegation ---

type approveDelegationRequest struct {
	Owner     string `json:"owner"`
	Delegatee string `json:"delegatee"`
	Pool      string `json:"pool"`
	Amount    uint64 `json:"amount"`
}

func (a *App) approveDelegation(w http.ResponseWriter, r *http.Request) {
	var req approveDelegationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	owner, err := parseID("owner", req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	delegatee, err := parseID("delegatee", req.Delegatee)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pool, err := parseID("pool", req.Pool)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start := time.Now()
	err = a.Engine.ApproveDelegation(owner, delegatee, pool, req.Amount)
	a.observe("approve_delegation", start, err)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type revokeDelegationRequest struct {
	Owner     string `json:"owner"`
	Delegatee string `json:"delegatee"`
	Pool      string `json:"pool"`
}

func (a *App) revokeDelegation(w http.ResponseWriter, r *http.Request) {
	var req revokeDelegationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	owner, err := parseID("owner", req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	delegatee, err := parseID("delegatee", req.Delegatee)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pool, err := parseID("pool", req.Pool)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start := time.Now()
	err = a.Engine.RevokeDelegation(owner, delegatee, pool)
	a.observe("revoke_delegation", start, err)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type borrowDelegatedRequest struct {
	Delegatee string `json:"delegatee"`
	Owner     string `json:"owner"`
	Pool      string `json:"pool"`
	Amount    uint64 `json:"amount"`
}

func (a *App) borrowDelegated(w http.ResponseWriter, r *http.Request) {
	var req borrowDelegatedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	delegatee, err := parseID("delegatee", req.Delegatee)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	owner, err := parseID("owner", req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pool, err := parseID("pool", req.Pool)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start := time.Now()
	err = a.Engine.BorrowDelegated(delegatee, owner, pool, req.Amount)
	a.observe("borrow_delegated", start, err)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- batched operations ---

type executeOperationsRequest struct {
	Owner string             `json:"owner"`
	Pool  string             `json:"pool"`
	Ops   []lending.Operation `json:"operations"`
}

func (a *App) executeOperations(w http.ResponseWriter, r *http.Request) {
	var req executeOperationsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	owner, err := parseID("owner", req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pool, err := parseID("pool", req.Pool)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start := time.Now()
	err = a.Engine.ExecuteOperations(owner, pool, req.Ops)
	a.observe("execute_operations", start, err)
	if err != nil {
		a.writeErrorLogged(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- admin: oracle price feed ---

type setPriceRequest struct {
	Account     string `json:"account"`
	Price       int64  `json:"price"`
	Conf        uint64 `json:"conf"`
	Expo        int32  `json:"expo"`
	PublishTime int64  `json:"publish_time"`
}

func (a *App) setPrice(w http.ResponseWriter, r *http.Request) {
	var req setPriceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := parseID("account", req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a.Prices.SetPrice(account, lending.Price{
		Price:       req.Price,
		Conf:        req.Conf,
		Expo:        req.Expo,
		PublishTime: req.PublishTime,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- admin: ledger funding (reference MemoryLedger only) ---

type creditRequest struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

func (a *App) creditLedger(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := parseID("account", req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a.Ledger.Credit(account, req.Amount)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- read views ---

func (a *App) getPool(w http.ResponseWriter, r *http.Request) {
	poolHex := r.URL.Query().Get("pool")
	pool, err := parseID("pool", poolHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	record, err := a.State.GetAssetPool(pool)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	a.metrics().SetPoolGauges(pool.String(), record.TotalDeposits, record.TotalLoans, poolUtilizationFloat(record))
	writeJSON(w, http.StatusOK, record)
}

func (a *App) getPosition(w http.ResponseWriter, r *http.Request) {
	poolHex := r.URL.Query().Get("pool")
	ownerHex := r.URL.Query().Get("owner")
	pool, err := parseID("pool", poolHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	owner, err := parseID("owner", ownerHex)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	record, err := a.State.GetUserPosition(pool, owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, errors.New("no position for owner in pool"))
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func poolUtilizationFloat(pool *lending.AssetPool) float64 {
	bps := pool.UtilizationBps()
	f := new(big.Float).SetInt(bps)
	out, _ := f.Float64()
	return out
}
