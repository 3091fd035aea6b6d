package main

import (
	"fmt"
	"os"
	"time"

	fetchwork "github.com/fetchwork/fetchwork"
	"github.com/fetchwork/fetchwork/pkg/target"

	"gopkg.in/yaml.v3"
)

// Config is the file-based configuration for the fetchwork binary.
// Flags override any value set here.

type Config struct {
	UserAgent string `yaml:"userAgent"`
	Timeout   string `yaml:"timeout"`
	Proxy     string `yaml:"proxy"`
	Insecure  bool   `yaml:"insecure"`
}

func getConfig(filename string) (Config, error) {
	var config Config
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}

func applyConfig(fetchConfig *fetchwork.Config, config Config) error {
	if config.UserAgent != "" {
		fetchConfig.UserAgent = config.UserAgent
	}
	if config.Timeout != "" {
		timeout, err := time.ParseDuration(config.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout in config: %w", err)
		}
		fetchConfig.Timeout = timeout
	}
	if config.Proxy != "" {
		proxy, err := target.ParseProxy(config.Proxy)
		if err != nil {
			return fmt.Errorf("invalid proxy in config: %w", err)
		}
		fetchConfig.Proxy = &proxy
	}
	fetchConfig.Insecure = config.Insecure
	return nil
}
