// Copyright © 2025 jackelyj <dreamerlyj@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

// Package config loads the subscription-manager service configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jjaideep2000/asynccode/pkg/logger"
)

// Config is the subscription-manager service configuration, loaded from
// submanager.yaml with SUBMANAGER_* environment overrides.
type Config struct {
	Server struct {
		Port string `json:"port" yaml:"port" mapstructure:"port"`
	} `json:"server" yaml:"server" mapstructure:"server"`

	Platform struct {
		BaseURL string        `json:"baseURL" yaml:"baseURL" mapstructure:"baseURL"`
		Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	} `json:"platform" yaml:"platform" mapstructure:"platform"`

	Nats struct {
		URL     string `json:"url" yaml:"url" mapstructure:"url"`
		Subject string `json:"subject" yaml:"subject" mapstructure:"subject"`
	} `json:"nats" yaml:"nats" mapstructure:"nats"`

	Registry struct {
		Prefix             string        `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
		Exclude            []string      `json:"exclude" yaml:"exclude" mapstructure:"exclude"`
		QueueHint          string        `json:"queueHint" yaml:"queueHint" mapstructure:"queueHint"`
		MinRefreshInterval time.Duration `json:"minRefreshInterval" yaml:"minRefreshInterval" mapstructure:"minRefreshInterval"`
		ConsulAddress      string        `json:"consulAddress" yaml:"consulAddress" mapstructure:"consulAddress"`
		ConsulKey          string        `json:"consulKey" yaml:"consulKey" mapstructure:"consulKey"`
		RedisAddress       string        `json:"redisAddress" yaml:"redisAddress" mapstructure:"redisAddress"`
		RedisKey           string        `json:"redisKey" yaml:"redisKey" mapstructure:"redisKey"`
		EnvVar             string        `json:"envVar" yaml:"envVar" mapstructure:"envVar"`
	} `json:"registry" yaml:"registry" mapstructure:"registry"`

	Log logger.Config `json:"log" yaml:"log" mapstructure:"log"`
}

// Load reads the configuration. path optionally points at an explicit
// config file; otherwise submanager.yaml is searched for in the working
// directory and /etc/submanager. A missing file is fine — defaults plus
// environment overrides then apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("submanager")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/submanager")
	}

	v.SetEnvPrefix("SUBMANAGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "8090")
	v.SetDefault("platform.timeout", 10*time.Second)
	v.SetDefault("nats.subject", "subscription.control")
	v.SetDefault("registry.exclude", []string{"subscription-manager"})
	v.SetDefault("registry.queueHint", "queue")
	v.SetDefault("registry.minRefreshInterval", 30*time.Second)
	v.SetDefault("registry.envVar", "MANAGED_CONSUMERS")
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration for required fields.
func (c *Config) Validate() error {
	if c.Platform.BaseURL == "" {
		return fmt.Errorf("platform.baseURL is required")
	}
	if c.Registry.Prefix == "" {
		return fmt.Errorf("registry.prefix is required")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	return nil
}
