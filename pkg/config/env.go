package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "OPENCHANNEL_"

// ApplyEnv loads envFile (if it exists) into the process environment without
// overriding variables already set, then overlays the OPENCHANNEL_*
// variables onto config. An empty envFile skips the file.
func ApplyEnv(config *ConfigData, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	strs := map[string]*string{
		"LISTEN_ADDR":     &config.Server.ListenAddr,
		"CERT":            &config.Server.Cert,
		"KEY":             &config.Server.Key,
		"STORAGE_BACKEND": &config.Storage.Backend,
		"SQLITE_PATH":     &config.Storage.SQLitePath,
		"POSTGRES_DSN":    &config.Storage.PostgresDSN,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":           &config.Server.Port,
		"RATE_BURST":     &config.Server.RateBurst,
		"MAX_ITERATIONS": &config.Solver.MaxIterations,
		"BATCH_WORKERS":  &config.Batch.Workers,
		"BATCH_MAX":      &config.Batch.MaxProblems,
	}
	for name, dst := range ints {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"RATE_LIMIT": &config.Server.RateLimit,
		"GRAVITY":    &config.Physics.Gravity,
		"DENSITY":    &config.Physics.Density,
		"TOLERANCE":  &config.Solver.Tolerance,
		"MAX_DEPTH":  &config.Solver.MaxDepth,
	}
	for name, dst := range floats {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = f
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "ENABLE_CORS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sENABLE_CORS: %w", EnvPrefix, err)
		}
		config.Server.EnableCORS = b
	}
	return nil
}
