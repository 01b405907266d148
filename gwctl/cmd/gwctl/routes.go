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

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/gatewatch/gatewatch/gwctl/routes"
	"github.com/gatewatch/gatewatch/pkg/private/serrors"
	"github.com/gatewatch/gatewatch/private/app/command"
	"github.com/gatewatch/gatewatch/private/app/flag"
)

func newRoutes(pather command.Pather) *cobra.Command {
	var flags struct {
		daemon  flag.Daemon
		format  string
		noColor bool
	}

	var cmd = &cobra.Command{
		Use:     "routes",
		Short:   "Display the active routing table of a boundary daemon",
		Aliases: []string{"rt"},
		Args:    cobra.NoArgs,
		Example: fmt.Sprintf(`  %[1]s routes
  %[1]s routes --server 127.0.0.1:30442 --format json`, pather.CommandPath()),
		Long: `'routes' lists the routing table a running boundary daemon currently
has active: the subnets, their canister ranges, and the nodes serving them.

The table is reported by the daemon from memory. It reflects what has been
installed and activated, which can differ from the control plane's newest
snapshot while a refresh is in flight or failing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			ctx, cancel := context.WithTimeout(cmd.Context(), flags.daemon.Timeout())
			defer cancel()
			res, err := routes.Run(ctx, routes.Config{Server: flags.daemon.Server()})
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
		},
	}

	flags.daemon.Register(cmd.Flags())
	cmd.Flags().StringVar(&flags.format, "format", "human",
		"Specify the output format (human|json)")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	return cmd
}
