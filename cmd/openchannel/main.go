package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/openchannel/internal/app"
	"github.com/chrissnell/openchannel/internal/constants"
	"github.com/chrissnell/openchannel/internal/log"
	"github.com/chrissnell/openchannel/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "", "Path to the YAML configuration file; defaults apply when empty")
	envFile := flag.String("env", ".env", "Path to a .env file of OPENCHANNEL_* overrides")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("openchannel %s\n", constants.Version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	provider, err := loadConfig(*cfgFile, *envFile)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	application := app.New(provider, log.GetSugaredLogger())
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}
}

// loadConfig reads the YAML file and applies the environment overrides to
// the provider's cached configuration.
func loadConfig(cfgFile, envFile string) (config.ConfigProvider, error) {
	var filename string
	if cfgFile != "" {
		filename, _ = filepath.Abs(cfgFile)
	}
	provider := config.NewYAMLProvider(filename)

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}
	if err := config.ApplyEnv(cfgData, envFile); err != nil {
		return nil, err
	}
	if err := cfgData.Validate(); err != nil {
		return nil, err
	}
	return provider, nil
}
