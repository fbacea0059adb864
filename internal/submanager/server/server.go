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

// Package server hosts the subscription-manager HTTP API and the NATS
// control-channel subscription.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jjaideep2000/asynccode/internal/submanager/config"
	"github.com/jjaideep2000/asynccode/pkg/control"
	"github.com/jjaideep2000/asynccode/pkg/subscription/httpplatform"
)

const (
	applyTimeout    = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Server wires the centralized manager to its two entry points: the HTTP
// API and the broadcast control channel.
type Server struct {
	cfg     *config.Config
	manager *control.Manager
	logger  *zap.Logger
	engine  *gin.Engine

	conn *nats.Conn
	sub  *nats.Subscription
}

// New builds a fully wired server from configuration: platform client,
// registry source chain, manager, metrics and routes.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	platform := httpplatform.New(cfg.Platform.BaseURL,
		httpplatform.WithTimeout(cfg.Platform.Timeout))

	managerCfg := control.Config{
		Prefix:             cfg.Registry.Prefix,
		Exclude:            cfg.Registry.Exclude,
		QueueHint:          cfg.Registry.QueueHint,
		MinRefreshInterval: cfg.Registry.MinRefreshInterval,
	}

	sources := []control.RegistrySource{
		control.NewPlatformScanSource(platform, managerCfg.Prefix, managerCfg.Exclude, managerCfg.QueueHint, logger),
	}
	if cfg.Registry.ConsulAddress != "" && cfg.Registry.ConsulKey != "" {
		consul, err := control.NewConsulSource(cfg.Registry.ConsulAddress, cfg.Registry.ConsulKey, logger)
		if err != nil {
			return nil, fmt.Errorf("consul source: %w", err)
		}
		sources = append(sources, consul)
	}
	if cfg.Registry.RedisAddress != "" && cfg.Registry.RedisKey != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Registry.RedisAddress})
		sources = append(sources, control.NewRedisSource(client, cfg.Registry.RedisKey, managerCfg.Prefix))
	}
	if cfg.Registry.EnvVar != "" {
		sources = append(sources, control.NewEnvSource(cfg.Registry.EnvVar))
	}

	manager := control.NewManager(platform, managerCfg, logger,
		control.WithSources(sources...),
		control.WithMetrics(control.NewMetrics(prometheus.DefaultRegisterer)))

	return NewWithManager(cfg, manager, logger), nil
}

// NewWithManager builds a server around an existing manager. New uses it
// after wiring; tests use it directly.
func NewWithManager(cfg *config.Config, manager *control.Manager, logger *zap.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		manager: manager,
		logger:  logger,
	}
	s.engine = s.buildRouter()
	return s
}

// Handler exposes the HTTP API, for tests and for embedding into a
// larger mux.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP and, when a NATS URL is configured, subscribes to the
// control channel. It blocks until ctx is cancelled, then shuts both down.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Nats.URL != "" {
		if err := s.subscribeControl(); err != nil {
			return err
		}
		defer s.closeControl()
	}

	srv := &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("subscription manager listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("subscription manager stopped")
	return nil
}

func (s *Server) subscribeControl() error {
	conn, err := control.Dial(s.cfg.Nats.URL)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	s.conn = conn

	channel := control.NewChannel(conn, s.cfg.Nats.Subject, s.logger)
	sub, err := channel.Subscribe(s.handleControlMessage)
	if err != nil {
		conn.Close()
		return err
	}
	s.sub = sub
	s.logger.Info("subscribed to control channel",
		zap.String("url", s.cfg.Nats.URL),
		zap.String("subject", s.cfg.Nats.Subject))
	return nil
}

func (s *Server) closeControl() {
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			s.logger.Warn("unsubscribe control channel", zap.Error(err))
		}
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
