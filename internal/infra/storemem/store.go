package storemem

import (
	"context"
	"sync"

	"tierguard/internal/domain"
	"tierguard/internal/infra/auditchain"
	"tierguard/internal/usecase"
)

// Store is the in-memory backend used in no-db mode and in tests. One
// mutex covers every map, which also gives CommitAccepted its
// identity-plus-audit atomicity.
type Store struct {
	mu         sync.Mutex
	identities map[domain.Address]domain.AddressIdentity
	issuers    map[domain.Address]domain.Issuer
	limits     *domain.TierLimits
	risk       *domain.RiskThresholds
	events     []domain.AuditEvent
}

func New() *Store {
	return &Store{
		identities: make(map[domain.Address]domain.AddressIdentity),
		issuers:    make(map[domain.Address]domain.Issuer),
	}
}

func (s *Store) Get(ctx context.Context, address domain.Address) (*domain.AddressIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[address]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := identity
	return &out, nil
}

func (s *Store) Put(ctx context.Context, address domain.Address, identity domain.AddressIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[address] = identity
	return nil
}

func (s *Store) CommitAccepted(ctx context.Context, address domain.Address, identity domain.AddressIdentity, event domain.AuditEvent) (domain.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.appendLocked(&event); err != nil {
		return domain.AuditEvent{}, err
	}
	s.identities[address] = identity
	return event, nil
}

func (s *Store) SetAuthorized(ctx context.Context, issuer domain.Address, authorized bool, now uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issuers[issuer] = domain.Issuer{Key: issuer, Authorized: authorized, UpdatedAt: now}
	return nil
}

func (s *Store) IsAuthorized(ctx context.Context, issuer domain.Address) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.issuers[issuer]
	if !ok {
		return false, nil
	}
	return entry.Authorized, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Issuer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Issuer, 0, len(s.issuers))
	for _, issuer := range s.issuers {
		out = append(out, issuer)
	}
	return out, nil
}

func (s *Store) GetTierLimits(ctx context.Context) (domain.TierLimits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limits == nil {
		return domain.DefaultTierLimits(), nil
	}
	return *s.limits, nil
}

func (s *Store) PutTierLimits(ctx context.Context, limits domain.TierLimits) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = &limits
	return nil
}

func (s *Store) GetRiskThresholds(ctx context.Context) (domain.RiskThresholds, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.risk == nil {
		return domain.DefaultRiskThresholds(), nil
	}
	return *s.risk, nil
}

func (s *Store) PutRiskThresholds(ctx context.Context, risk domain.RiskThresholds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.risk = &risk
	return nil
}

func (s *Store) Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.appendLocked(&event); err != nil {
		return domain.AuditEvent{}, err
	}
	return event, nil
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	if limit > 0 && limit < len(events) {
		events = events[len(events)-limit:]
	}
	out := make([]domain.AuditEvent, len(events))
	copy(out, events)
	return out, nil
}

func (s *Store) appendLocked(event *domain.AuditEvent) error {
	prevHash := ""
	if n := len(s.events); n > 0 {
		prevHash = s.events[n-1].EventHash
	}
	if err := auditchain.Seal(event, int64(len(s.events))+1, prevHash); err != nil {
		return err
	}
	s.events = append(s.events, *event)
	return nil
}

var (
	_ usecase.IdentityRepository    = (*Store)(nil)
	_ usecase.ClaimCommitter        = (*Store)(nil)
	_ usecase.IssuerRepository      = (*Store)(nil)
	_ usecase.LimitConfigRepository = (*Store)(nil)
	_ usecase.AuditEventRepository  = (*Store)(nil)
)
