package db

import (
	"fmt"
	"log"

	"tierguard/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB
}

// NewStore connects to postgres, or starts in no-db mode when no DSN is
// configured; callers fall back to the in-memory store in that case.
func NewStore(cfg config.Config) (*Store, error) {
	if cfg.PostgresDSN == "" {
		log.Printf("POSTGRES_DSN not set; starting in no-db mode.")
		return &Store{DB: nil}, nil
	}

	gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{DB: gdb}, nil
}

func (s *Store) Migrate() error {
	if s == nil || s.DB == nil {
		return nil
	}
	if err := s.DB.AutoMigrate(
		&AddressIdentityModel{},
		&IssuerModel{},
		&LimitConfigModel{},
		&AuditEventModel{},
	); err != nil {
		return err
	}
	return s.DB.Exec(
		"CREATE TABLE IF NOT EXISTS audit_stream_seq (stream TEXT PRIMARY KEY, seq BIGINT NOT NULL)",
	).Error
}
