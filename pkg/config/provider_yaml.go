package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLProvider implements ConfigProvider for YAML configuration files.
// Settings the file leaves out keep their Defaults() value.
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider. An empty
// filename yields the defaults.
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from the YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	if y.config != nil {
		return y.config, nil
	}

	config := Defaults()
	if y.filename != "" {
		cfgFile, err := os.ReadFile(y.filename)
		if err != nil {
			return nil, err
		}
		if err := Parse(cfgFile, config); err != nil {
			return nil, fmt.Errorf("%s: %w", y.filename, err)
		}
	}

	y.config = config
	return config, nil
}

// GetServerConfig returns the server section
func (y *YAMLProvider) GetServerConfig() (*ServerData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Server, nil
}

// GetStorageConfig returns the storage section
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	config, err := y.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &config.Storage, nil
}

// Parse overlays the YAML document in data onto config.
func Parse(data []byte, config *ConfigData) error {
	var yamlConfig struct {
		Server  *ServerYAML  `yaml:"server,omitempty"`
		Physics *PhysicsYAML `yaml:"physics,omitempty"`
		Solver  *SolverYAML  `yaml:"solver,omitempty"`
		Storage *StorageYAML `yaml:"storage,omitempty"`
		Batch   *BatchYAML   `yaml:"batch,omitempty"`
	}
	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return err
	}

	if s := yamlConfig.Server; s != nil {
		setString(&config.Server.ListenAddr, s.ListenAddr)
		setValue(&config.Server.Port, s.Port)
		setString(&config.Server.Cert, s.Cert)
		setString(&config.Server.Key, s.Key)
		setValue(&config.Server.EnableCORS, s.EnableCORS)
		setValue(&config.Server.RateLimit, s.RateLimit)
		setValue(&config.Server.RateBurst, s.RateBurst)
		setValue(&config.Server.MaxBodyBytes, s.MaxBodyBytes)
	}
	if p := yamlConfig.Physics; p != nil {
		setValue(&config.Physics.Gravity, p.Gravity)
		setValue(&config.Physics.Density, p.Density)
	}
	if s := yamlConfig.Solver; s != nil {
		setValue(&config.Solver.Tolerance, s.Tolerance)
		setValue(&config.Solver.MaxIterations, s.MaxIterations)
		setValue(&config.Solver.MinDepth, s.MinDepth)
		setValue(&config.Solver.MaxDepth, s.MaxDepth)
		setValue(&config.Solver.InitialDepth, s.InitialDepth)
		setValue(&config.Solver.CriticalBand, s.CriticalBand)
		setValue(&config.Solver.NearCritical, s.NearCritical)
		setValue(&config.Solver.JumpSearchFactor, s.JumpSearchFactor)
	}
	if s := yamlConfig.Storage; s != nil {
		setString(&config.Storage.Backend, s.Backend)
		setString(&config.Storage.SQLitePath, s.SQLitePath)
		setString(&config.Storage.PostgresDSN, s.PostgresDSN)
	}
	if b := yamlConfig.Batch; b != nil {
		setValue(&config.Batch.Workers, b.Workers)
		setValue(&config.Batch.MaxProblems, b.MaxProblems)
	}
	return nil
}

func setValue[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// YAML-specific structs. Pointer fields distinguish an omitted setting from
// an explicit zero.
type ServerYAML struct {
	ListenAddr   string   `yaml:"listen_addr,omitempty"`
	Port         *int     `yaml:"port,omitempty"`
	Cert         string   `yaml:"cert,omitempty"`
	Key          string   `yaml:"key,omitempty"`
	EnableCORS   *bool    `yaml:"enable_cors,omitempty"`
	RateLimit    *float64 `yaml:"rate_limit,omitempty"`
	RateBurst    *int     `yaml:"rate_burst,omitempty"`
	MaxBodyBytes *int64   `yaml:"max_body_bytes,omitempty"`
}

type PhysicsYAML struct {
	Gravity *float64 `yaml:"gravity,omitempty"`
	Density *float64 `yaml:"density,omitempty"`
}

type SolverYAML struct {
	Tolerance        *float64 `yaml:"tolerance,omitempty"`
	MaxIterations    *int     `yaml:"max_iterations,omitempty"`
	MinDepth         *float64 `yaml:"min_depth,omitempty"`
	MaxDepth         *float64 `yaml:"max_depth,omitempty"`
	InitialDepth     *float64 `yaml:"initial_depth,omitempty"`
	CriticalBand     *float64 `yaml:"critical_band,omitempty"`
	NearCritical     *float64 `yaml:"near_critical,omitempty"`
	JumpSearchFactor *float64 `yaml:"jump_search_factor,omitempty"`
}

type StorageYAML struct {
	Backend     string `yaml:"backend,omitempty"`
	SQLitePath  string `yaml:"sqlite_path,omitempty"`
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`
}

type BatchYAML struct {
	Workers     *int `yaml:"workers,omitempty"`
	MaxProblems *int `yaml:"max_problems,omitempty"`
}
