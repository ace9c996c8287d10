package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"solana-token-forge/internal/composer"
	"solana-token-forge/internal/deeplink"
	"solana-token-forge/internal/domain"
	"solana-token-forge/internal/observability"
	"solana-token-forge/internal/orchestrator"
	"solana-token-forge/internal/pubkey"
	"solana-token-forge/internal/ratelimit"
	"solana-token-forge/internal/solana"
)

// api exposes the orchestrator over HTTP.
type api struct {
	orch    *orchestrator.Orchestrator
	logger  *log.Logger
	started time.Time
}

// newHTTPServer builds the HTTP server with all routes registered.
func newHTTPServer(addr string, orch *orchestrator.Orchestrator, logger *log.Logger) *http.Server {
	a := &api{orch: orch, logger: logger, started: time.Now()}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/tokens", a.handleCreateToken)
	mux.HandleFunc("POST /v1/tokens/clone", a.handleCloneToken)
	mux.HandleFunc("GET /v1/tokens", a.handleListTokens)
	mux.HandleFunc("POST /v1/tokens/{mint}/revoke", a.handleRevoke)
	mux.HandleFunc("POST /v1/tokens/{mint}/disable-selling", a.handleDisableSelling)
	mux.HandleFunc("POST /v1/confirmations", a.handleTrackConfirmation)
	mux.HandleFunc("GET /v1/confirmations/{signature}", a.handleConfirmationStatus)
	mux.HandleFunc("DELETE /v1/confirmations/{signature}", a.handleCancelConfirmation)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", a.handleStatus)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

type createTokenRequest struct {
	UserID             string `json:"user_id"`
	Creator            string `json:"creator"`
	Name               string `json:"name"`
	Symbol             string `json:"symbol"`
	Decimals           int    `json:"decimals"`
	InitialSupply      uint64 `json:"initial_supply"`
	ImageURL           string `json:"image_url,omitempty"`
	Description        string `json:"description,omitempty"`
	DisableSellingDays uint32 `json:"disable_selling_days,omitempty"`
}

func (a *api) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	var req createTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	creator, ok := parseKey(w, req.Creator, "creator")
	if !ok {
		return
	}

	res, err := a.orch.CreateToken(r.Context(), orchestrator.CreateTokenRequest{
		UserID:  req.UserID,
		Creator: creator,
		Metadata: domain.TokenMetadata{
			Name:          req.Name,
			Symbol:        req.Symbol,
			Decimals:      req.Decimals,
			InitialSupply: req.InitialSupply,
			ImageURL:      req.ImageURL,
			Description:   req.Description,
		},
		DisableSellingDays: req.DisableSellingDays,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

type cloneTokenRequest struct {
	UserID     string `json:"user_id"`
	Creator    string `json:"creator"`
	SourceMint string `json:"source_mint"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
}

func (a *api) handleCloneToken(w http.ResponseWriter, r *http.Request) {
	var req cloneTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	creator, ok := parseKey(w, req.Creator, "creator")
	if !ok {
		return
	}
	source, ok := parseKey(w, req.SourceMint, "source_mint")
	if !ok {
		return
	}

	res, err := a.orch.CloneToken(r.Context(), orchestrator.CloneTokenRequest{
		UserID:     req.UserID,
		Creator:    creator,
		SourceMint: source,
		Name:       req.Name,
		Symbol:     req.Symbol,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (a *api) handleListTokens(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "user query parameter is required"})
		return
	}
	records, err := a.orch.ListTokens(r.Context(), userID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tokens": records})
}

type authorityRequest struct {
	UserID    string `json:"user_id"`
	Authority string `json:"authority"`
	Days      uint32 `json:"days,omitempty"`
}

func (a *api) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req authorityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	authority, ok := parseKey(w, req.Authority, "authority")
	if !ok {
		return
	}
	mint, ok := parseKey(w, r.PathValue("mint"), "mint")
	if !ok {
		return
	}

	uri, err := a.orch.RevokeAuthorities(r.Context(), req.UserID, authority, mint)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deep_link": uri})
}

func (a *api) handleDisableSelling(w http.ResponseWriter, r *http.Request) {
	var req authorityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	authority, ok := parseKey(w, req.Authority, "authority")
	if !ok {
		return
	}
	mint, ok := parseKey(w, r.PathValue("mint"), "mint")
	if !ok {
		return
	}

	uri, err := a.orch.DisableSelling(r.Context(), req.UserID, authority, mint, req.Days)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deep_link": uri})
}

type trackRequest struct {
	UserID    string `json:"user_id"`
	Signature string `json:"signature"`
}

func (a *api) handleTrackConfirmation(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Signature == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "signature is required"})
		return
	}

	// Tracking outlives the request, so the poller gets its own context.
	a.orch.TrackConfirmation(context.Background(), req.UserID, req.Signature)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"signature": req.Signature,
		"status":    "PENDING",
	})
}

func (a *api) handleConfirmationStatus(w http.ResponseWriter, r *http.Request) {
	sig := r.PathValue("signature")
	res, ok := a.orch.ConfirmationStatus(sig)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "signature is not being tracked"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"signature": sig,
		"status":    res.Status,
		"slot":      res.Slot,
		"attempts":  res.Attempts,
		"error":     res.Err,
	})
}

func (a *api) handleCancelConfirmation(w http.ResponseWriter, r *http.Request) {
	sig := r.PathValue("signature")
	if !a.orch.CancelConfirmation(sig) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "signature is not being tracked"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Started string `json:"started"`
}

func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "running",
		Uptime:  time.Since(a.started).String(),
		Started: a.started.UTC().Format(time.RFC3339),
	})
}

type errorBody struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// writeError maps engine errors to HTTP statuses. Rate limits and security
// rejections keep their deliberately sparse messages.
func (a *api) writeError(w http.ResponseWriter, err error) {
	var (
		verr   *domain.ValidationError
		limErr *ratelimit.LimitExceededError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Error()})
	case errors.As(err, &limErr):
		writeJSON(w, http.StatusTooManyRequests, errorBody{
			Error:      "rate limit exceeded",
			RetryAfter: limErr.RetryAfter,
		})
	case errors.Is(err, orchestrator.ErrSecurityRejected):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "transaction rejected"})
	case errors.Is(err, composer.ErrInsufficientFunds):
		writeJSON(w, http.StatusPaymentRequired, errorBody{Error: err.Error()})
	case errors.Is(err, composer.ErrMintNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, composer.ErrFeatureDisabled), errors.Is(err, composer.ErrNoAuthorities):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, deeplink.ErrURITooLong):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "transaction too large to encode"})
	case solana.IsTransient(err):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "ledger temporarily unavailable"})
	default:
		a.logger.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed JSON body"})
		return false
	}
	return true
}

func parseKey(w http.ResponseWriter, raw, field string) (pubkey.Pubkey, bool) {
	pk, err := pubkey.FromBase58(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid " + field})
		return pubkey.Pubkey{}, false
	}
	return pk, true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
