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

package command

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gatewatch/gatewatch/private/config"
)

// NewSample creates a command that groups sample file generators.
func NewSample(pather Pather, samplers ...func(Pather) *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Display sample files",
	}
	for _, sampler := range samplers {
		cmd.AddCommand(sampler(Join(pather, cmd)))
	}
	return cmd
}

// NewSampleConfig creates a sampler that displays the sample configuration
// file.
func NewSampleConfig(cfg config.Sampler) func(Pather) *cobra.Command {
	return func(pather Pather) *cobra.Command {
		return &cobra.Command{
			Use:   "config",
			Short: "Display sample configuration file",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg.Sample(os.Stdout, nil, nil)
				return nil
			},
		}
	}
}
