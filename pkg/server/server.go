// Copyright 2025 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package server

import (
	"context"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/binkynet/LedWorker/model"
)

// Config for the HTTP server.
type Config struct {
	// Host interface to listen on
	Host string
	// Port to listen on for HTTP requests
	HTTPPort int
	// Version of the program
	ProgramVersion string
}

// Service is the part of the worker used by the server.
type Service interface {
	// Submit validates the given request and starts it.
	Submit(ctx context.Context, req model.EffectRequest) error
	// State returns the current state of the LED.
	State() model.State
}

// Server runs the HTTP server for the service.
type Server struct {
	Config
	log     zerolog.Logger
	service Service
}

// New configures a new Server.
func New(cfg Config, log zerolog.Logger, service Service) (*Server, error) {
	if service == nil {
		return nil, errors.Wrap(model.ValidationError, "service is nil")
	}
	return &Server{
		Config:  cfg,
		log:     log.With().Str("component", "server").Logger(),
		service: service,
	}, nil
}

// Run the server until the given context is canceled.
func (s *Server) Run(ctx context.Context) error {
	// Prepare HTTP listener
	log := s.log
	httpAddr := net.JoinHostPort(s.Host, strconv.Itoa(s.HTTPPort))
	httpLis, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on address %s", httpAddr)
	}

	// Prepare HTTP server
	httpSrv := http.Server{
		Handler: s.newRouter(),
	}

	// Serve apis
	log.Debug().Str("address", httpAddr).Msg("Serving HTTP")
	serveErr := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(httpLis); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
		log.Debug().Str("address", httpAddr).Msg("Done Serving HTTP")
	}()

	// Wait until context closed
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return errors.Wrap(err, "failed to serve HTTP server")
	}

	log.Info().Msg("Closing server")
	httpSrv.Shutdown(context.Background())
	return nil
}

// newRouter builds the HTTP routes.
func (s *Server) newRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/debug/pprof/*", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	e.GET("/health", s.healthHandler)
	api := e.Group("/api/v1")
	api.GET("/state", s.getState)
	api.POST("/effect", s.postEffect)
	api.POST("/off", s.postOff)
	return e
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (s *Server) healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "OK", Version: s.ProgramVersion})
}

func (s *Server) getState(c echo.Context) error {
	return c.JSON(http.StatusOK, s.service.State())
}

func (s *Server) postEffect(c echo.Context) error {
	var req model.EffectRequest
	if err := c.Bind(&req); err != nil {
		return model.InvalidArgument("invalid request body: %s", err.Error())
	}
	return s.submit(c, req)
}

func (s *Server) postOff(c echo.Context) error {
	return s.submit(c, model.EffectRequest{Type: model.EffectTypeOff})
}

func (s *Server) submit(c echo.Context, req model.EffectRequest) error {
	if err := s.service.Submit(c.Request().Context(), req); err != nil {
		return err
	}
	s.log.Debug().Str("effect", string(req.Type)).Msg("Effect request accepted")
	return c.JSON(http.StatusAccepted, s.service.State())
}

type errorResponse struct {
	Error string `json:"error"`
}

// errorHandler maps errors to HTTP status codes.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
	case model.IsInvalidArgument(err), model.IsValidation(err):
		code = http.StatusBadRequest
	case model.IsUnsupported(err):
		code = http.StatusConflict
	case model.IsAlreadyReleased(err):
		code = http.StatusServiceUnavailable
	}
	if code >= http.StatusInternalServerError {
		s.log.Warn().Err(err).Str("path", c.Path()).Msg("Request failed")
	}
	if err := c.JSON(code, errorResponse{Error: err.Error()}); err != nil {
		s.log.Debug().Err(err).Msg("Failed to send error response")
	}
}
