// Copyright 2025 Gatewatch Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mgmtapi implements the management API of the boundary daemon.
package mgmtapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Server implements the boundary daemon management API.
type Server struct {
	Config            http.HandlerFunc
	Info              http.HandlerFunc
	LogLevel          http.HandlerFunc
	Routes            http.HandlerFunc
	RoutesDiagnostics http.HandlerFunc
	Status            http.HandlerFunc
}

// Handler mounts the management API routes on the given router under baseURL
// and returns the router as an http.Handler.
func Handler(s *Server, r chi.Router, baseURL string) http.Handler {
	if baseURL == "" {
		baseURL = "/"
	}
	r.Route(baseURL, func(r chi.Router) {
		r.Get("/", s.GetInfo)
		r.Get("/config", s.GetConfig)
		r.Get("/info", s.GetInfo)
		r.Get("/log/level", s.GetLogLevel)
		r.Put("/log/level", s.SetLogLevel)
		r.Get("/routes", s.GetRoutes)
		r.Get("/routes/diagnostics", s.GetRoutesDiagnostics)
		r.Get("/status", s.GetStatus)
	})
	return r
}

// GetConfig is an indirection to the http handler.
func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request) {
	s.Config(w, r)
}

// GetInfo is an indirection to the http handler.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.Info(w, r)
}

// GetLogLevel is an indirection to the http handler.
func (s *Server) GetLogLevel(w http.ResponseWriter, r *http.Request) {
	s.LogLevel(w, r)
}

// SetLogLevel is an indirection to the http handler.
func (s *Server) SetLogLevel(w http.ResponseWriter, r *http.Request) {
	s.LogLevel(w, r)
}

// GetRoutes is an indirection to the http handler.
func (s *Server) GetRoutes(w http.ResponseWriter, r *http.Request) {
	s.Routes(w, r)
}

// GetRoutesDiagnostics is an indirection to the http handler.
func (s *Server) GetRoutesDiagnostics(w http.ResponseWriter, r *http.Request) {
	s.RoutesDiagnostics(w, r)
}

// GetStatus is an indirection to the http handler.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	s.Status(w, r)
}
