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

package control

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jjaideep2000/asynccode/pkg/subscription"
)

// RegistrySource discovers the set of consumers the centralized manager is
// responsible for. Sources are tried in order until one yields a non-empty
// registry, so new sources can be added without touching the manager.
type RegistrySource interface {
	Name() string
	Discover(ctx context.Context) ([]Consumer, error)
}

// PlatformScanSource discovers consumers by scanning the platform: keep
// names matching the configured prefix, drop any matching an exclude
// pattern (notably the manager itself), and keep only consumers that
// currently possess at least one queue binding.
type PlatformScanSource struct {
	platform  subscription.Platform
	prefix    string
	exclude   []string
	queueHint string
	logger    *zap.Logger
}

// NewPlatformScanSource builds the auto-scan source.
func NewPlatformScanSource(platform subscription.Platform, prefix string, exclude []string, queueHint string, logger *zap.Logger) *PlatformScanSource {
	return &PlatformScanSource{
		platform:  platform,
		prefix:    prefix,
		exclude:   exclude,
		queueHint: queueHint,
		logger:    logger,
	}
}

// Name implements RegistrySource.
func (s *PlatformScanSource) Name() string { return "platform-scan" }

// Discover implements RegistrySource.
func (s *PlatformScanSource) Discover(ctx context.Context) ([]Consumer, error) {
	names, err := s.platform.ListConsumers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list consumers: %w", err)
	}

	var out []Consumer
	for _, name := range names {
		if !strings.HasPrefix(name, s.prefix) {
			continue
		}
		service := strings.TrimPrefix(name, s.prefix)
		if s.excluded(name, service) {
			s.logger.Debug("consumer excluded from registry",
				zap.String("consumer", name))
			continue
		}

		bindings, err := s.platform.ListBindings(ctx, name)
		if err != nil {
			s.logger.Warn("skipping consumer, cannot list bindings",
				zap.String("consumer", name),
				zap.Error(err))
			continue
		}
		if len(subscription.FilterQueueBindings(bindings, s.queueHint)) == 0 {
			s.logger.Debug("consumer has no queue bindings, excluded",
				zap.String("consumer", name))
			continue
		}

		out = append(out, Consumer{Name: name, Service: service})
	}
	return out, nil
}

func (s *PlatformScanSource) excluded(name, service string) bool {
	for _, pattern := range s.exclude {
		if pattern == "" {
			continue
		}
		if strings.Contains(name, pattern) || strings.Contains(service, pattern) {
			return true
		}
	}
	return false
}

// ConsulSource reads the registry from a Consul KV key holding a JSON
// array of consumers. This is the "parameter store" fallback.
type ConsulSource struct {
	kv     *api.KV
	key    string
	logger *zap.Logger
}

// NewConsulSource builds a Consul KV source. address may be empty to use
// the Consul client defaults.
func NewConsulSource(address, key string, logger *zap.Logger) (*ConsulSource, error) {
	cfg := api.DefaultConfig()
	if address != "" {
		cfg.Address = address
	}
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return &ConsulSource{kv: client.KV(), key: key, logger: logger}, nil
}

// Name implements RegistrySource.
func (s *ConsulSource) Name() string { return "consul-kv" }

// Discover implements RegistrySource.
func (s *ConsulSource) Discover(ctx context.Context) ([]Consumer, error) {
	pair, _, err := s.kv.Get(s.key, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("consul kv get %s: %w", s.key, err)
	}
	if pair == nil || len(pair.Value) == 0 {
		return nil, nil
	}

	var consumers []Consumer
	if err := json.Unmarshal(pair.Value, &consumers); err != nil {
		return nil, fmt.Errorf("consul kv %s: %w", s.key, err)
	}
	return consumers, nil
}

// RedisSource reads the registry from a Redis set of consumer names. This
// is the "database table" fallback.
type RedisSource struct {
	client *redis.Client
	key    string
	prefix string
}

// NewRedisSource builds a Redis set source. prefix is stripped from member
// names to derive the service name.
func NewRedisSource(client *redis.Client, key, prefix string) *RedisSource {
	return &RedisSource{client: client, key: key, prefix: prefix}
}

// Name implements RegistrySource.
func (s *RedisSource) Name() string { return "redis-set" }

// Discover implements RegistrySource.
func (s *RedisSource) Discover(ctx context.Context) ([]Consumer, error) {
	names, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers %s: %w", s.key, err)
	}

	consumers := make([]Consumer, 0, len(names))
	for _, name := range names {
		consumers = append(consumers, Consumer{
			Name:    name,
			Service: strings.TrimPrefix(name, s.prefix),
		})
	}
	return consumers, nil
}

// EnvSource reads the registry from an environment variable holding a JSON
// array of consumers. Last-resort fallback.
type EnvSource struct {
	envVar string
}

// NewEnvSource builds an environment-variable source.
func NewEnvSource(envVar string) *EnvSource {
	return &EnvSource{envVar: envVar}
}

// Name implements RegistrySource.
func (s *EnvSource) Name() string { return "env:" + s.envVar }

// Discover implements RegistrySource.
func (s *EnvSource) Discover(ctx context.Context) ([]Consumer, error) {
	raw := os.Getenv(s.envVar)
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var consumers []Consumer
	if err := json.Unmarshal([]byte(raw), &consumers); err != nil {
		return nil, fmt.Errorf("env %s: %w", s.envVar, err)
	}
	return consumers, nil
}

// StaticSource returns a fixed consumer list. Used in tests and as an
// explicit configuration override.
type StaticSource struct {
	consumers []Consumer
}

// NewStaticSource builds a fixed-list source.
func NewStaticSource(consumers ...Consumer) *StaticSource {
	return &StaticSource{consumers: consumers}
}

// Name implements RegistrySource.
func (s *StaticSource) Name() string { return "static" }

// Discover implements RegistrySource.
func (s *StaticSource) Discover(ctx context.Context) ([]Consumer, error) {
	out := make([]Consumer, len(s.consumers))
	copy(out, s.consumers)
	return out, nil
}
