package http

import (
	"context"
	"log/slog"
	"time"

	"tierguard/internal/config"
	"tierguard/internal/domain"
	"tierguard/internal/infra/crypto"
	"tierguard/internal/infra/db"
	"tierguard/internal/infra/policyrego"
	"tierguard/internal/infra/ratelimit"
	"tierguard/internal/infra/storemem"
	"tierguard/internal/usecase"

	"github.com/gin-gonic/gin"
)

type Server struct {
	cfg    config.Config
	store  *db.Store
	r      *gin.Engine
	logger *slog.Logger

	process *usecase.ProcessClaim
	enforce *usecase.LimitEnforcer
	query   *usecase.IdentityQuery
	admin   *usecase.AdminService
	audit   *usecase.AuditEmitter

	auditRepo usecase.AuditEventRepository

	adminAPIKey string

	policyInitErr error

	rateLimiter       domain.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration
}

func NewServer(cfg config.Config, store *db.Store, logger *slog.Logger) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, store: store, r: r, logger: logger}
	s.initDeps()
	s.routes()
	return s
}

// ServerDeps lets tests inject fakes for every collaborator.
type ServerDeps struct {
	Process     *usecase.ProcessClaim
	Enforce     *usecase.LimitEnforcer
	Query       *usecase.IdentityQuery
	Admin       *usecase.AdminService
	Audit       *usecase.AuditEmitter
	AuditRepo   usecase.AuditEventRepository
	AdminAPIKey string
	RateLimiter domain.RateLimiter
	Logger      *slog.Logger
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:         cfg,
		r:           r,
		logger:      deps.Logger,
		process:     deps.Process,
		enforce:     deps.Enforce,
		query:       deps.Query,
		admin:       deps.Admin,
		audit:       deps.Audit,
		auditRepo:   deps.AuditRepo,
		adminAPIKey: deps.AdminAPIKey,
	}
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) initDeps() {
	s.adminAPIKey = s.cfg.AdminAPIKey

	cryptoSvc := crypto.NewService()

	var (
		identities usecase.IdentityRepository
		committer  usecase.ClaimCommitter
		issuers    usecase.IssuerRepository
		limits     usecase.LimitConfigRepository
		auditRepo  usecase.AuditEventRepository
	)
	if s.store != nil && s.store.DB != nil {
		identities = db.NewIdentityRepository(s.store.DB)
		committer = db.NewClaimCommitter(s.store.DB)
		issuers = db.NewIssuerRepository(s.store.DB)
		limits = db.NewLimitConfigRepository(s.store.DB)
		auditRepo = db.NewAuditEventRepository(s.store.DB)
	} else {
		mem := storemem.New()
		identities = mem
		committer = mem
		issuers = mem
		limits = mem
		auditRepo = mem
	}
	s.auditRepo = auditRepo
	s.audit = usecase.NewAuditEmitter(auditRepo, nil)

	var policy usecase.EnforcementPolicy
	if s.cfg.PolicyPath != "" {
		engine, err := policyrego.NewEngineFromPath(context.Background(), s.cfg.PolicyPath)
		if err != nil {
			s.policyInitErr = err
		} else {
			policy = engine
		}
	}

	s.process = &usecase.ProcessClaim{
		Identities: committer,
		Issuers:    issuers,
		Crypto:     cryptoSvc,
		Audit:      s.audit,
	}
	s.enforce = &usecase.LimitEnforcer{
		Identities: identities,
		Limits:     limits,
		Policy:     policy,
		Audit:      s.audit,
	}
	s.query = &usecase.IdentityQuery{
		Identities: identities,
		Limits:     limits,
	}
	s.admin = &usecase.AdminService{
		Issuers: issuers,
		Limits:  limits,
		Audit:   s.audit,
		Logger:  s.logger,
	}

	s.initRateLimit(nil)
}

func (s *Server) initRateLimit(override domain.RateLimiter) {
	if override != nil {
		s.rateLimiter = override
	}
	if s.rateLimiter == nil && s.cfg.RateLimitRequests > 0 {
		if s.cfg.RedisAddr != "" {
			if limiter, err := ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, nil); err == nil {
				s.rateLimiter = limiter
			}
		}
		if s.rateLimiter == nil {
			s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
				MaxKeys: s.cfg.RateLimitMaxKeys,
			})
		}
	}
	s.rateLimitRequests = s.cfg.RateLimitRequests
	s.rateLimitWindow = s.cfg.RateLimitWindow()
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		dbMode := "no-db"
		if s.store != nil && s.store.DB != nil {
			dbMode = "db"
		}
		c.JSON(200, gin.H{"status": "ok", "mode": dbMode})
	})

	v1 := s.r.Group("/v1")
	{
		v1.POST("/claims", s.handleSubmitClaim)
		v1.GET("/identities/:address", s.handleGetIdentity)
		v1.GET("/identities/:address/limit", s.handleGetEffectiveLimit)
		v1.GET("/identities/:address/valid", s.handleIsClaimValid)
		v1.POST("/transfers/check", s.handleCheckTransfer)

		v1.POST("/admin/issuers", s.handleAdminSetIssuer)
		v1.GET("/admin/issuers", s.handleAdminListIssuers)
		v1.PUT("/admin/limits", s.handleAdminConfigureLimits)
		v1.PUT("/admin/risk", s.handleAdminConfigureRisk)
		v1.GET("/admin/audit", s.handleAdminListAudit)
	}

	s.r.NoRoute(s.handleNoRoute)
}

func (s *Server) Run() error {
	if s.policyInitErr != nil {
		return s.policyInitErr
	}
	return s.r.Run(s.cfg.HTTPAddr)
}
