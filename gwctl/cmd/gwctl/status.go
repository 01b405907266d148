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
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/gatewatch/gatewatch/gwctl/status"
	"github.com/gatewatch/gatewatch/pkg/private/serrors"
	"github.com/gatewatch/gatewatch/private/app/command"
	"github.com/gatewatch/gatewatch/private/app/feature"
	"github.com/gatewatch/gatewatch/private/app/flag"
)

// statusWatchInterval is the cadence at which watch mode polls the daemon.
const statusWatchInterval = 2 * time.Second

func newStatus(pather command.Pather) *cobra.Command {
	var flags struct {
		daemon   flag.Daemon
		features []string
		format   string
		noColor  bool
	}

	var cmd = &cobra.Command{
		Use:   "status",
		Short: "Display the watcher status of a boundary daemon",
		Args:  cobra.NoArgs,
		Example: fmt.Sprintf(`  %[1]s status
  %[1]s status --server 127.0.0.1:30442 --format json`, pather.CommandPath()),
		Long: `'status' reports how the routing table watcher of a running boundary
daemon is doing: the pipeline state, the generation of the active routing
table, the time of the last successful refresh, and the current failure
streak, if any.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			features, err := feature.ParseDefault(flags.features)
			if err != nil {
				return err
			}
			display := func(ctx context.Context) error {
				ctx, cancel := context.WithTimeout(ctx, flags.daemon.Timeout())
				defer cancel()
				res, err := status.Run(ctx, status.Config{Server: flags.daemon.Server()})
				if err != nil {
					return err
				}
				switch flags.format {
				case "human":
					colored := !flags.noColor && isatty.IsTerminal(os.Stdout.Fd())
					res.Human(cmd.OutOrStdout(), colored)
					return nil
				case "json":
					return res.JSON(cmd.OutOrStdout())
				default:
					return serrors.New("output format not supported", "format", flags.format)
				}
			}
			if !features.StatusWatch {
				return display(cmd.Context())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ticker := time.NewTicker(statusWatchInterval)
			defer ticker.Stop()
			for {
				if err := display(ctx); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}

	flags.daemon.Register(cmd.Flags())
	cmd.Flags().StringSliceVar(&flags.features, "features", nil,
		fmt.Sprintf("enable development features (%v)", feature.String(&feature.Default{}, "|")),
	)
	cmd.Flags().StringVar(&flags.format, "format", "human",
		"Specify the output format (human|json)")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	return cmd
}
