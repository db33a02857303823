package constants

import "time"

const (
	SupplementalCacheTTL = 15 * time.Minute
	StreamsCacheTTL      = 5 * time.Second
	RecordingsCacheTTL   = 30 * time.Second
)

const (
	SupplementalGateDelay = 600 * time.Millisecond
	RefreshBatchSize      = 3
	BatchPause            = 200 * time.Millisecond
	CyclerInterval        = 1200 * time.Millisecond
	CyclerCooldown        = 45 * time.Second
	AutoUpdatePerItem     = 30 * time.Second
	AutoUpdateBase        = 2 * time.Minute
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	EloHistoryDefaultLimit = 50
	EloHistoryMaxLimit     = 500
)
