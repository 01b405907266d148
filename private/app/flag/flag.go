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

// Package flag implements flag groups shared by the command line tools.
package flag

import (
	"os"
	"sync"
	"time"

	"github.com/spf13/pflag"
)

const (
	// DefaultServer is the management API address used when neither the
	// flag nor the environment selects one.
	DefaultServer = "127.0.0.1:30442"

	// serverEnvVar selects the management API address when the flag is not
	// explicitly set.
	serverEnvVar = "GATEWATCH_SERVER"

	defaultTimeout = 5 * time.Second
)

type stringVal string

func (v *stringVal) Set(val string) error {
	*v = stringVal(val)
	return nil
}

func (v *stringVal) Type() string   { return "string" }
func (v *stringVal) String() string { return string(*v) }

// Daemon groups the flags that select the boundary daemon a command talks
// to.
type Daemon struct {
	server     string
	serverFlag *pflag.Flag
	timeout    time.Duration

	mtx sync.Mutex
}

// Register registers the daemon flags on the flag set. This should be
// called when command line flags are set up, before any command that
// accesses the values is called.
func (d *Daemon) Register(flagSet *pflag.FlagSet) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	d.server = DefaultServer
	d.serverFlag = flagSet.VarPF((*stringVal)(&d.server), "server", "",
		"Address of the boundary daemon management API")
	flagSet.DurationVar(&d.timeout, "timeout", defaultTimeout, "Timeout")
}

// Server returns the management API address to talk to. The value is loaded
// from one of the following sources with the precedence as listed:
//  1. Command line flag (--server)
//  2. Environment variable (GATEWATCH_SERVER)
//  3. Default value.
func (d *Daemon) Server() string {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if d.serverFlag != nil && d.serverFlag.Changed {
		return d.server
	}
	if s, ok := os.LookupEnv(serverEnvVar); ok {
		return s
	}
	return d.server
}

// Timeout returns the timeout for talking to the boundary daemon.
func (d *Daemon) Timeout() time.Duration {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return d.timeout
}
