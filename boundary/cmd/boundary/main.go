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

package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/gatewatch/gatewatch/boundary"
	"github.com/gatewatch/gatewatch/boundary/config"
	api "github.com/gatewatch/gatewatch/boundary/mgmtapi"
	"github.com/gatewatch/gatewatch/pkg/log"
	"github.com/gatewatch/gatewatch/pkg/private/serrors"
	"github.com/gatewatch/gatewatch/private/app"
	"github.com/gatewatch/gatewatch/private/app/launcher"
	"github.com/gatewatch/gatewatch/private/service"
)

var globalCfg config.Config

func main() {
	application := launcher.Application{
		TOMLConfig: &globalCfg,
		ShortName:  "Gatewatch Boundary Daemon",
		Main:       realMain,
	}
	application.Run()
}

func realMain(ctx context.Context) error {
	closer, err := boundary.InitTracer(globalCfg.Tracing, globalCfg.General.ID)
	if err != nil {
		return serrors.Wrap("initializing tracer", err)
	}
	defer closer.Close()

	g, errCtx := errgroup.WithContext(ctx)

	b := &boundary.Boundary{
		ID:                 globalCfg.General.ID,
		Sources:            globalCfg.Watcher.Sources,
		PollInterval:       globalCfg.Watcher.PollInterval.Duration,
		FetchTimeout:       globalCfg.Watcher.FetchTimeout.Duration,
		BackoffMax:         globalCfg.Watcher.BackoffMax.Duration,
		SourceTTL:          globalCfg.Watcher.SourceTTL.Duration,
		StalenessThreshold: globalCfg.Watcher.StalenessThreshold.Duration,
		StuckThreshold:     globalCfg.Watcher.StuckThreshold,
		ArtifactPath:       globalCfg.Proxy.ArtifactPath,
		CheckCommand:       globalCfg.Proxy.CheckCommand,
		ReloadCommand:      globalCfg.Proxy.ReloadCommand,
		CommandTimeout:     globalCfg.Proxy.CommandTimeout.Duration,
		ReloadDryRun:       globalCfg.Features.ReloadDryRun,
		// A SIGHUP triggers an out-of-band refresh cycle, skipping any
		// pending backoff.
		PollTrigger: app.SIGHUPChannel(errCtx),
		HTTPEndpoints: service.StatusPages{
			"info":      service.NewInfoStatusPage(),
			"config":    service.NewConfigStatusPage(globalCfg),
			"log/level": service.NewLogLevelStatusPage(),
		},
		HTTPServeMux: http.DefaultServeMux,
		Metrics:      boundary.NewMetrics(),
	}
	g.Go(func() error {
		defer log.HandlePanic()
		return b.Run(errCtx)
	})

	var cleanup app.Cleanup
	if globalCfg.API.Addr != "" {
		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
		}))
		server := api.Server{
			Config:            service.NewConfigStatusPage(globalCfg).Handler,
			Info:              service.NewInfoStatusPage().Handler,
			LogLevel:          service.NewLogLevelStatusPage().Handler,
			Routes:            b.RoutesHandler(),
			RoutesDiagnostics: b.RoutesDiagnosticsHandler(),
			Status:            b.StatusHandler(),
		}
		log.Info("Exposing API", "addr", globalCfg.API.Addr)
		h := api.Handler(&server, r, "/api/v1")
		mgmtServer := &http.Server{
			Addr:    globalCfg.API.Addr,
			Handler: h,
		}
		g.Go(func() error {
			defer log.HandlePanic()
			err := mgmtServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return serrors.Wrap("serving service management API", err)
			}
			return nil
		})
		cleanup.Add(mgmtServer.Close)
	}

	g.Go(func() error {
		defer log.HandlePanic()
		return globalCfg.Metrics.ServePrometheus(errCtx)
	})

	g.Go(func() error {
		defer log.HandlePanic()
		<-errCtx.Done()
		return cleanup.Do()
	})

	return g.Wait()
}
