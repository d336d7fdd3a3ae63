package config

import (
	"fmt"

	"github.com/chrissnell/openchannel/pkg/flow"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetServerConfig() (*ServerData, error)
	GetStorageConfig() (*StorageData, error)
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Server  ServerData  `json:"server"`
	Physics PhysicsData `json:"physics"`
	Solver  SolverData  `json:"solver"`
	Storage StorageData `json:"storage"`
	Batch   BatchData   `json:"batch"`
}

// ServerData holds the HTTP server configuration
type ServerData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Port       int    `json:"port,omitempty"`
	Cert       string `json:"cert,omitempty"`
	Key        string `json:"key,omitempty"`
	EnableCORS bool   `json:"enable_cors,omitempty"`
	// RateLimit is the sustained request rate per client in requests per
	// second; zero disables limiting.
	RateLimit    float64 `json:"rate_limit,omitempty"`
	RateBurst    int     `json:"rate_burst,omitempty"`
	MaxBodyBytes int64   `json:"max_body_bytes,omitempty"`
}

// PhysicsData holds the physical constants
type PhysicsData struct {
	Gravity float64 `json:"gravity"`
	Density float64 `json:"density"`
}

// SolverData holds the numeric bounds of the root finders
type SolverData struct {
	Tolerance        float64 `json:"tolerance"`
	MaxIterations    int     `json:"max_iterations"`
	MinDepth         float64 `json:"min_depth"`
	MaxDepth         float64 `json:"max_depth"`
	InitialDepth     float64 `json:"initial_depth"`
	CriticalBand     float64 `json:"critical_band"`
	NearCritical     float64 `json:"near_critical"`
	JumpSearchFactor float64 `json:"jump_search_factor"`
}

// Storage backends
const (
	StorageNone     = "none"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// StorageData selects where solved problems are kept
type StorageData struct {
	Backend     string `json:"backend"`
	SQLitePath  string `json:"sqlite_path,omitempty"`
	PostgresDSN string `json:"postgres_dsn,omitempty"`
}

// BatchData bounds batch solving
type BatchData struct {
	Workers     int `json:"workers"`
	MaxProblems int `json:"max_problems"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() *ConfigData {
	m := flow.DefaultModel()
	return &ConfigData{
		Server: ServerData{
			ListenAddr:   "0.0.0.0",
			Port:         8080,
			RateLimit:    20,
			RateBurst:    40,
			MaxBodyBytes: 1 << 20,
		},
		Physics: PhysicsData{Gravity: m.Gravity, Density: m.Density},
		Solver: SolverData{
			Tolerance:        m.Tolerance,
			MaxIterations:    m.MaxIterations,
			MinDepth:         m.MinDepth,
			MaxDepth:         m.MaxDepth,
			InitialDepth:     m.InitialDepth,
			CriticalBand:     m.CriticalBand,
			NearCritical:     m.NearCritical,
			JumpSearchFactor: m.JumpSearchFactor,
		},
		Storage: StorageData{Backend: StorageNone, SQLitePath: "openchannel.db"},
		Batch:   BatchData{Workers: 0, MaxProblems: 500},
	}
}

// Model converts the physics and solver sections into a flow model.
func (c *ConfigData) Model() flow.Model {
	return flow.Model{
		Gravity:          c.Physics.Gravity,
		Density:          c.Physics.Density,
		Tolerance:        c.Solver.Tolerance,
		MaxIterations:    c.Solver.MaxIterations,
		MinDepth:         c.Solver.MinDepth,
		MaxDepth:         c.Solver.MaxDepth,
		InitialDepth:     c.Solver.InitialDepth,
		CriticalBand:     c.Solver.CriticalBand,
		NearCritical:     c.Solver.NearCritical,
		JumpSearchFactor: c.Solver.JumpSearchFactor,
	}
}

// Validate checks the configuration for values no component can run with.
func (c *ConfigData) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if (c.Server.Cert == "") != (c.Server.Key == "") {
		return fmt.Errorf("server.cert and server.key must be given together")
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("server.rate_limit and server.rate_burst must not be negative")
	}
	switch c.Storage.Backend {
	case StorageNone:
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite backend")
		}
	case StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Batch.Workers < 0 || c.Batch.MaxProblems < 0 {
		return fmt.Errorf("batch.workers and batch.max_problems must not be negative")
	}
	if err := c.Model().Validate(); err != nil {
		return fmt.Errorf("physics/solver: %w", err)
	}
	return nil
}
