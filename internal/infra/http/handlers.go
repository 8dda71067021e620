package http

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"time"

	"tierguard/internal/domain"
	"tierguard/internal/usecase"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type submitClaimRequest struct {
	Claim     claimInput `json:"claim"`
	Signature string     `json:"signature"` // base64
}

type claimInput struct {
	Address   string `json:"address"` // hex
	Tier      string `json:"tier"`
	RiskScore uint32 `json:"risk_score"`
	Expiry    uint64 `json:"expiry"`
	Issuer    string `json:"issuer"` // hex
}

type claimReceiptResponse struct {
	Address     string `json:"address"`
	Tier        string `json:"tier"`
	RiskScore   uint32 `json:"risk_score"`
	Expiry      uint64 `json:"expiry"`
	LastUpdated uint64 `json:"last_updated"`
}

type identityResponse struct {
	Address   string `json:"address"`
	Tier      string `json:"tier"`
	RiskScore uint32 `json:"risk_score"`
	Expiry    uint64 `json:"expiry"`
}

type checkTransferRequest struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

type checkTransferResponse struct {
	Address   string   `json:"address"`
	Passed    bool     `json:"passed"`
	Limit     int64    `json:"limit"`
	Amount    int64    `json:"amount"`
	Tier      string   `json:"tier"`
	RiskScore uint32   `json:"risk_score"`
	Reasons   []string `json:"reasons,omitempty"`
}

type adminIssuerRequest struct {
	Issuer     string `json:"issuer"`
	Authorized bool   `json:"authorized"`
}

type adminLimitsRequest struct {
	Unverified int64 `json:"unverified"`
	Basic      int64 `json:"basic"`
	Verified   int64 `json:"verified"`
	Premium    int64 `json:"premium"`
}

type adminRiskRequest struct {
	HighRiskThreshold  uint32 `json:"high_risk_threshold"`
	HighRiskMultiplier uint32 `json:"high_risk_multiplier"`
}

type issuerResponse struct {
	Issuer     string `json:"issuer"`
	Authorized bool   `json:"authorized"`
	UpdatedAt  uint64 `json:"updated_at"`
}

type auditEventResponse struct {
	ID            string         `json:"id"`
	Seq           int64          `json:"seq"`
	EventType     string         `json:"event_type"`
	Payload       map[string]any `json:"payload"`
	Result        string         `json:"result"`
	ErrorCode     string         `json:"error_code,omitempty"`
	PrevEventHash string         `json:"prev_event_hash"`
	EventHash     string         `json:"event_hash"`
	CreatedAt     string         `json:"created_at"`
}

func (s *Server) handleSubmitClaim(c *gin.Context) {
	var req submitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	env, err := parseEnvelope(req)
	if err != nil {
		writeError(c, err)
		return
	}
	if !s.enforceRateLimit(c, "claims:submit", env.Claim.Address.String()) {
		return
	}
	receipt, err := s.process.Execute(c.Request.Context(), usecase.ProcessClaimRequest{Envelope: env})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, claimReceiptResponse{
		Address:     receipt.Address.String(),
		Tier:        receipt.Tier.String(),
		RiskScore:   receipt.RiskScore,
		Expiry:      receipt.Expiry,
		LastUpdated: receipt.LastUpdated,
	})
}

func parseEnvelope(req submitClaimRequest) (domain.SignedClaimEnvelope, error) {
	address, err := domain.ParseAddress(req.Claim.Address)
	if err != nil {
		return domain.SignedClaimEnvelope{}, domain.ErrInvalidClaimFormat
	}
	issuer, err := domain.ParseAddress(req.Claim.Issuer)
	if err != nil {
		return domain.SignedClaimEnvelope{}, domain.ErrInvalidClaimFormat
	}
	tier, err := domain.ParseTier(req.Claim.Tier)
	if err != nil {
		return domain.SignedClaimEnvelope{}, err
	}
	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		return domain.SignedClaimEnvelope{}, domain.ErrInvalidClaimFormat
	}
	return domain.SignedClaimEnvelope{
		Claim: domain.IdentityClaim{
			Address:   address,
			Tier:      tier,
			RiskScore: req.Claim.RiskScore,
			Expiry:    req.Claim.Expiry,
			Issuer:    issuer,
		},
		Signature: signature,
	}, nil
}

func (s *Server) handleGetIdentity(c *gin.Context) {
	address, ok := parseAddressParam(c)
	if !ok {
		return
	}
	identity, err := s.query.GetAddressIdentity(c.Request.Context(), address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, identityResponse{
		Address:   address.String(),
		Tier:      identity.Tier.String(),
		RiskScore: identity.RiskScore,
		Expiry:    identity.Expiry,
	})
}

func (s *Server) handleGetEffectiveLimit(c *gin.Context) {
	address, ok := parseAddressParam(c)
	if !ok {
		return
	}
	limit, err := s.query.GetEffectiveLimit(c.Request.Context(), address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address.String(), "limit": limit})
}

func (s *Server) handleIsClaimValid(c *gin.Context) {
	address, ok := parseAddressParam(c)
	if !ok {
		return
	}
	valid, err := s.query.IsClaimValid(c.Request.Context(), address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address.String(), "valid": valid})
}

func (s *Server) handleCheckTransfer(c *gin.Context) {
	var req checkTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if req.Amount < 0 {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_AMOUNT", "amount must be non-negative")
		return
	}
	address, err := domain.ParseAddress(req.Address)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ADDRESS", "invalid address")
		return
	}
	if !s.enforceRateLimit(c, "transfers:check", address.String()) {
		return
	}
	check, err := s.enforce.Check(c.Request.Context(), address, req.Amount)
	if err != nil && !errors.Is(err, domain.ErrTransactionExceedsLimit) && !errors.Is(err, domain.ErrPolicyDenied) {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkTransferResponse{
		Address:   address.String(),
		Passed:    check.Passed,
		Limit:     check.Limit,
		Amount:    check.Amount,
		Tier:      check.Tier.String(),
		RiskScore: check.RiskScore,
		Reasons:   check.Reasons,
	})
}

func (s *Server) handleAdminSetIssuer(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req adminIssuerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	issuer, err := domain.ParseAddress(req.Issuer)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ISSUER", "invalid issuer key")
		return
	}
	if err := s.admin.SetIssuerAuthorized(c.Request.Context(), issuer, req.Authorized); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, issuerResponse{Issuer: issuer.String(), Authorized: req.Authorized})
}

func (s *Server) handleAdminListIssuers(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	issuers, err := s.admin.ListIssuers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]issuerResponse, 0, len(issuers))
	for _, issuer := range issuers {
		out = append(out, issuerResponse{
			Issuer:     issuer.Key.String(),
			Authorized: issuer.Authorized,
			UpdatedAt:  issuer.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"issuers": out})
}

func (s *Server) handleAdminConfigureLimits(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req adminLimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	limits := domain.TierLimits{
		Unverified: req.Unverified,
		Basic:      req.Basic,
		Verified:   req.Verified,
		Premium:    req.Premium,
	}
	if err := s.admin.ConfigureTierLimits(c.Request.Context(), limits); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (s *Server) handleAdminConfigureRisk(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req adminRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	risk := domain.RiskThresholds{
		HighRiskThreshold:  req.HighRiskThreshold,
		HighRiskMultiplier: req.HighRiskMultiplier,
	}
	if err := s.admin.ConfigureRiskThresholds(c.Request.Context(), risk); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (s *Server) handleAdminListAudit(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeErrorCode(c, http.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
			return
		}
		limit = parsed
	}
	events, err := s.auditRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]auditEventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, auditEventResponse{
			ID:            event.ID,
			Seq:           event.Seq,
			EventType:     string(event.EventType),
			Payload:       event.Payload,
			Result:        string(event.Result),
			ErrorCode:     event.ErrorCode,
			PrevEventHash: event.PrevEventHash,
			EventHash:     event.EventHash,
			CreatedAt:     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}

func (s *Server) handleNoRoute(c *gin.Context) {
	writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
}

func parseAddressParam(c *gin.Context) (domain.Address, bool) {
	address, err := domain.ParseAddress(c.Param("address"))
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ADDRESS", "invalid address")
		return domain.Address{}, false
	}
	return address, true
}

func (s *Server) requireAdmin(c *gin.Context) bool {
	if s.adminAPIKey == "" {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "admin key required")
		return false
	}
	key := c.GetHeader("X-Admin-Key")
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminAPIKey)) != 1 {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid admin key")
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidTier):
		status, code = http.StatusBadRequest, "INVALID_TIER"
	case errors.Is(err, domain.ErrInvalidRiskScore):
		status, code = http.StatusBadRequest, "INVALID_RISK_SCORE"
	case errors.Is(err, domain.ErrInvalidClaimFormat):
		status, code = http.StatusBadRequest, "INVALID_CLAIM_FORMAT"
	case errors.Is(err, domain.ErrUnauthorizedIssuer):
		status, code = http.StatusBadRequest, "UNAUTHORIZED_ISSUER"
	case errors.Is(err, domain.ErrInvalidSignature):
		status, code = http.StatusBadRequest, "SIGNATURE_INVALID"
	case errors.Is(err, domain.ErrClaimExpired):
		status, code = http.StatusBadRequest, "CLAIM_EXPIRED"
	case errors.Is(err, domain.ErrTransactionExceedsLimit):
		status, code = http.StatusUnprocessableEntity, "TRANSACTION_EXCEEDS_LIMIT"
	case errors.Is(err, domain.ErrPolicyDenied):
		status, code = http.StatusUnprocessableEntity, "POLICY_DENIED"
	case errors.Is(err, domain.ErrInvalidLimitConfig):
		status, code = http.StatusBadRequest, "INVALID_LIMIT_CONFIG"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "UNAUTHORIZED"
	}
	writeErrorCode(c, status, code, err.Error())
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
