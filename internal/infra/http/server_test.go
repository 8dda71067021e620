package http

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tierguard/internal/config"
	"tierguard/internal/domain"
	"tierguard/internal/infra/crypto"
	"tierguard/internal/infra/ratelimit"
	"tierguard/internal/infra/storemem"
	"tierguard/internal/usecase"

	"github.com/gin-gonic/gin"
)

const testAdminKey = "test-admin-key"

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

type serverFixture struct {
	server    *Server
	store     *storemem.Store
	clock     *fixedClock
	issuerKey domain.Address
	issuerPrv ed25519.PrivateKey
}

func newServerFixture(t *testing.T, cfg config.Config) *serverFixture {
	t.Helper()
	store := storemem.New()
	clock := &fixedClock{t: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)}

	pub, prv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate issuer key: %v", err)
	}
	var issuerKey domain.Address
	copy(issuerKey[:], pub)
	if err := store.SetAuthorized(context.Background(), issuerKey, true, uint64(clock.t.Unix())); err != nil {
		t.Fatalf("authorize issuer: %v", err)
	}

	audit := usecase.NewAuditEmitter(store, clock)
	var limiter domain.RateLimiter
	if cfg.RateLimitRequests > 0 {
		limiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{})
	}
	server := NewServerWithDeps(cfg, ServerDeps{
		Process: &usecase.ProcessClaim{
			Identities: store,
			Issuers:    store,
			Crypto:     crypto.NewService(),
			Audit:      audit,
			Clock:      clock,
		},
		Enforce: &usecase.LimitEnforcer{
			Identities: store,
			Limits:     store,
			Audit:      audit,
			Clock:      clock,
		},
		Query: &usecase.IdentityQuery{Identities: store, Limits: store, Clock: clock},
		Admin: &usecase.AdminService{
			Issuers: store,
			Limits:  store,
			Audit:   audit,
			Clock:   clock,
		},
		Audit:       audit,
		AuditRepo:   store,
		AdminAPIKey: cfg.AdminAPIKey,
		RateLimiter: limiter,
	})
	return &serverFixture{
		server:    server,
		store:     store,
		clock:     clock,
		issuerKey: issuerKey,
		issuerPrv: prv,
	}
}

func defaultTestConfig() config.Config {
	return config.Config{AdminAPIKey: testAdminKey}
}

func (f *serverFixture) do(method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.server.r.ServeHTTP(w, req)
	return w
}

func (f *serverFixture) signedClaimBody(address domain.Address, tier string, risk uint32, expiry uint64) map[string]any {
	claim := domain.IdentityClaim{
		Address:   address,
		RiskScore: risk,
		Expiry:    expiry,
		Issuer:    f.issuerKey,
	}
	claim.Tier, _ = domain.ParseTier(tier)
	encoded := crypto.NewService().EncodeClaim(claim)
	signature := ed25519.Sign(f.issuerPrv, encoded)
	return map[string]any{
		"claim": map[string]any{
			"address":    address.String(),
			"tier":       tier,
			"risk_score": risk,
			"expiry":     expiry,
			"issuer":     f.issuerKey.String(),
		},
		"signature": base64.StdEncoding.EncodeToString(signature),
	}
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func testAddr(fill byte) domain.Address {
	var a domain.Address
	for i := range a {
		a[i] = fill
	}
	return a
}

func TestHealthz(t *testing.T) {
	f := newServerFixture(t, defaultTestConfig())
	w := f.do(http.MethodGet, "/healthz", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeJSON(t, w)
	if body["mode"] != "no-db" {
		t.Fatalf("mode = %v", body["mode"])
	}
}

func TestSubmitClaimEndToEnd(t *testing.T) {
	f := newServerFixture(t, defaultTestConfig())
	address := testAddr(0x11)
	expiry := uint64(f.clock.t.Add(time.Hour).Unix())

	w := f.do(http.MethodPost, "/v1/claims", f.signedClaimBody(address, "verified", 20, expiry), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	body := decodeJSON(t, w)
	if body["tier"] != "verified" || body["address"] != address.String() {
		t.Fatalf("receipt = %v", body)
	}

	w = f.do(http.MethodGet, "/v1/identities/"+address.String(), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("identity status = %d", w.Code)
	}
	body = decodeJSON(t, w)
	if body["tier"] != "verified" {
		t.Fatalf("identity = %v", body)
	}

	w = f.do(http.MethodGet, "/v1/identities/"+address.String()+"/valid", nil, nil)
	body = decodeJSON(t, w)
	if body["valid"] != true {
		t.Fatalf("valid = %v", body)
	}
}

func TestSubmitClaimErrors(t *testing.T) {
	f := newServerFixture(t, defaultTestConfig())
	address := testAddr(0x22)
	expiry := uint64(f.clock.t.Add(time.Hour).Unix())

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/claims", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		f.server.r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
	})

	t.Run("bad address", func(t *testing.T) {
		body := f.signedClaimBody(address, "verified", 20, expiry)
		body["claim"].(map[string]any)["address"] = "zz"
		w := f.do(http.MethodPost, "/v1/claims", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
		if decodeJSON(t, w)["code"] != "INVALID_CLAIM_FORMAT" {
			t.Fatalf("body = %s", w.Body.String())
		}
	})

	t.Run("unknown tier", func(t *testing.T) {
		body := f.signedClaimBody(address, "verified", 20, expiry)
		body["claim"].(map[string]any)["tier"] = "platinum"
		w := f.do(http.MethodPost, "/v1/claims", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
		if decodeJSON(t, w)["code"] != "INVALID_TIER" {
			t.Fatalf("body = %s", w.Body.String())
		}
	})

	t.Run("tampered signature", func(t *testing.T) {
		body := f.signedClaimBody(address, "verified", 20, expiry)
		body["claim"].(map[string]any)["risk_score"] = 0
		w := f.do(http.MethodPost, "/v1/claims", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
		if decodeJSON(t, w)["code"] != "SIGNATURE_INVALID" {
			t.Fatalf("body = %s", w.Body.String())
		}
	})

	t.Run("expired claim", func(t *testing.T) {
		past := uint64(f.clock.t.Add(-time.Hour).Unix())
		w := f.do(http.MethodPost, "/v1/claims", f.signedClaimBody(address, "verified", 20, past), nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", w.Code)
		}
		if decodeJSON(t, w)["code"] != "CLAIM_EXPIRED" {
			t.Fatalf("body = %s", w.Body.String())
		}
	})
}

func TestCheckTransfer(t *testing.T) {
	f := newServerFixture(t, defaultTestConfig())
	address := testAddr(0x33)
	expiry := uint64(f.clock.t.Add(time.Hour).Unix())

	if err := f.store.PutTierLimits(context.Background(), domain.TierLimits{
		Unverified: 100, Basic: 1000, Verified: 10000, Premium: 100000,
	}); err != nil {
		t.Fatalf("put limits: %v", err)
	}
	w := f.do(http.MethodPost, "/v1/claims", f.signedClaimBody(address, "verified", 80, expiry), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("claim status = %d", w.Code)
	}

	// Risk 80 halves the verified limit to 5000. Both outcomes are 200s;
	// the verdict travels in the body.
	w = f.do(http.MethodPost, "/v1/transfers/check", map[string]any{"address": address.String(), "amount": 5000}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	body := decodeJSON(t, w)
	if body["passed"] != true || body["limit"] != float64(5000) {
		t.Fatalf("body = %v", body)
	}

	w = f.do(http.MethodPost, "/v1/transfers/check", map[string]any{"address": address.String(), "amount": 5001}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body = decodeJSON(t, w)
	if body["passed"] != false || body["limit"] != float64(5000) {
		t.Fatalf("body = %v", body)
	}

	w = f.do(http.MethodPost, "/v1/transfers/check", map[string]any{"address": address.String(), "amount": -1}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("negative amount status = %d", w.Code)
	}
}

func TestAdminRequiresKey(t *testing.T) {
	f := newServerFixture(t, defaultTestConfig())
	issuer := testAddr(0x44)
	body := map[string]any{"issuer": issuer.String(), "authorized": true}

	w := f.do(http.MethodPost, "/v1/admin/issuers", body, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no key status = %d", w.Code)
	}
	w = f.do(http.MethodPost, "/v1/admin/issuers", body, map[string]string{"X-Admin-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key status = %d", w.Code)
	}
	w = f.do(http.MethodPost, "/v1/admin/issuers", body, map[string]string{"X-Admin-Key": testAdminKey})
	if w.Code != http.StatusOK {
		t.Fatalf("valid key status = %d body=%s", w.Code, w.Body.String())
	}

	ok, err := f.store.IsAuthorized(context.Background(), issuer)
	if err != nil || !ok {
		t.Fatalf("issuer not authorized: %v", err)
	}
}

func TestAdminRejectedWhenNoKeyConfigured(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.AdminAPIKey = ""
	f := newServerFixture(t, cfg)

	w := f.do(http.MethodGet, "/v1/admin/issuers", nil, map[string]string{"X-Admin-Key": "anything"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestAdminConfigureLimits(t *testing.T) {
	f := newServerFixture(t, defaultTestConfig())
	header := map[string]string{"X-Admin-Key": testAdminKey}

	w := f.do(http.MethodPut, "/v1/admin/limits", map[string]any{
		"unverified": 10, "basic": 20, "verified": 30, "premium": 40,
	}, header)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	limits, err := f.store.GetTierLimits(context.Background())
	if err != nil || limits.Premium != 40 {
		t.Fatalf("limits = %+v err=%v", limits, err)
	}

	w = f.do(http.MethodPut, "/v1/admin/limits", map[string]any{"basic": -5}, header)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid limits status = %d", w.Code)
	}

	w = f.do(http.MethodPut, "/v1/admin/risk", map[string]any{
		"high_risk_threshold": 60, "high_risk_multiplier": 25,
	}, header)
	if w.Code != http.StatusOK {
		t.Fatalf("risk status = %d", w.Code)
	}
	risk, _ := f.store.GetRiskThresholds(context.Background())
	if risk.HighRiskThreshold != 60 || risk.HighRiskMultiplier != 25 {
		t.Fatalf("risk = %+v", risk)
	}
}

func TestAdminListAudit(t *testing.T) {
	f := newServerFixture(t, defaultTestConfig())
	address := testAddr(0x55)
	expiry := uint64(f.clock.t.Add(time.Hour).Unix())
	header := map[string]string{"X-Admin-Key": testAdminKey}

	if w := f.do(http.MethodPost, "/v1/claims", f.signedClaimBody(address, "basic", 5, expiry), nil); w.Code != http.StatusOK {
		t.Fatalf("claim status = %d", w.Code)
	}

	w := f.do(http.MethodGet, "/v1/admin/audit?limit=10", nil, header)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeJSON(t, w)
	events, ok := body["events"].([]any)
	if !ok || len(events) == 0 {
		t.Fatalf("events = %v", body["events"])
	}
	first := events[0].(map[string]any)
	if first["event_type"] != "claim_accepted" {
		t.Fatalf("event = %v", first)
	}
	if first["event_hash"] == "" || first["prev_event_hash"] == "" {
		t.Fatalf("chain fields missing: %v", first)
	}

	if w := f.do(http.MethodGet, "/v1/admin/audit?limit=nope", nil, header); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status = %d", w.Code)
	}
}

func TestClaimRateLimit(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindowSeconds = 60
	f := newServerFixture(t, cfg)

	address := testAddr(0x66)
	expiry := uint64(f.clock.t.Add(time.Hour).Unix())
	body := f.signedClaimBody(address, "basic", 5, expiry)

	for i := 0; i < 2; i++ {
		if w := f.do(http.MethodPost, "/v1/claims", body, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}
	w := f.do(http.MethodPost, "/v1/claims", body, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}

	// A different address has its own bucket.
	other := f.signedClaimBody(testAddr(0x77), "basic", 5, expiry)
	if w := f.do(http.MethodPost, "/v1/claims", other, nil); w.Code != http.StatusOK {
		t.Fatalf("other address status = %d", w.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	f := newServerFixture(t, defaultTestConfig())
	w := f.do(http.MethodGet, "/v1/nope", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}
