package db

import "time"

type AddressIdentityModel struct {
	Address     string    `gorm:"primaryKey;size:64"`
	Tier        uint32    `gorm:"not null"`
	RiskScore   uint32    `gorm:"not null"`
	Expiry      int64     `gorm:"not null"`
	LastUpdated int64     `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (AddressIdentityModel) TableName() string { return "address_identities" }

type IssuerModel struct {
	Key        string    `gorm:"primaryKey;size:64"`
	Authorized bool      `gorm:"not null"`
	UpdatedAt  int64     `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (IssuerModel) TableName() string { return "issuers" }

// LimitConfigModel is a single-row table (id always 1) holding the
// process-wide TierLimits and RiskThresholds. Every admin write fully
// replaces it.
type LimitConfigModel struct {
	ID                 int64 `gorm:"primaryKey"`
	UnverifiedLimit    int64 `gorm:"not null"`
	BasicLimit         int64 `gorm:"not null"`
	VerifiedLimit      int64 `gorm:"not null"`
	PremiumLimit       int64 `gorm:"not null"`
	HighRiskThreshold  int32 `gorm:"not null"`
	HighRiskMultiplier int32 `gorm:"not null"`
	UpdatedAt          time.Time
}

func (LimitConfigModel) TableName() string { return "limit_config" }

type AuditEventModel struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	Stream        string    `gorm:"index:idx_audit_stream_seq,unique;not null"`
	Seq           int64     `gorm:"index:idx_audit_stream_seq,unique;not null"`
	EventType     string    `gorm:"index;not null"`
	PayloadJSON   []byte    `gorm:"type:jsonb;not null"`
	PayloadHash   string    `gorm:"not null"`
	Result        string    `gorm:"not null"`
	ErrorCode     *string
	PrevEventHash string    `gorm:"not null"`
	EventHash     string    `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (AuditEventModel) TableName() string { return "audit_events" }
