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

package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jjaideep2000/asynccode/pkg/subscription"
)

// invokeRequest is the direct-invocation payload: a single action with
// the optional control-message fields flattened alongside it.
type invokeRequest struct {
	Action   string `json:"action"`
	Force    bool   `json:"force,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Operator string `json:"operator,omitempty"`
	Service  string `json:"service,omitempty"`
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		s.logger.Error("panic serving request",
			zap.String("path", c.FullPath()),
			zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"error": "internal server error"})
	}))

	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/status", s.handleStatus)
	engine.POST("/refresh", s.handleRefresh)
	engine.POST("/control", s.handleControl)
	engine.POST("/invoke", s.handleInvoke)
	return engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.manager.Status(c.Request.Context()))
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req struct {
		Force bool `json:"force"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, s.manager.Refresh(c.Request.Context(), req.Force))
}

func (s *Server) handleControl(c *gin.Context) {
	var cm subscription.ControlMessage
	if err := c.ShouldBindJSON(&cm); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	s.applyControl(c, cm)
}

// handleInvoke is the single-endpoint dispatch used by schedulers and
// operational scripts that drive the manager with one generic POST.
func (s *Server) handleInvoke(c *gin.Context) {
	var req invokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	switch req.Action {
	case "status":
		c.JSON(http.StatusOK, s.manager.Status(c.Request.Context()))
	case "refresh":
		c.JSON(http.StatusOK, s.manager.Refresh(c.Request.Context(), req.Force))
	case subscription.ActionEnable, subscription.ActionDisable:
		s.applyControl(c, subscription.ControlMessage{
			Action:   req.Action,
			Reason:   req.Reason,
			Operator: req.Operator,
			Service:  req.Service,
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown action: " + req.Action,
			"valid": []string{"status", "refresh", subscription.ActionEnable, subscription.ActionDisable},
		})
	}
}

func (s *Server) applyControl(c *gin.Context, cm subscription.ControlMessage) {
	report, err := s.manager.Apply(c.Request.Context(), cm)
	if err != nil {
		var invalid *subscription.ErrInvalidAction
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleControlMessage services one broadcast control message off the
// NATS subscription. Failures are logged, never surfaced: the publisher
// is long gone.
func (s *Server) handleControlMessage(cm subscription.ControlMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	report, err := s.manager.Apply(ctx, cm)
	if err != nil {
		s.logger.Error("control message rejected",
			zap.String("action", cm.Action),
			zap.Error(err))
		return
	}
	s.logger.Info("control message applied",
		zap.String("action", report.Action),
		zap.Int("success", report.SuccessCount),
		zap.Int("errors", report.ErrorCount))
}
