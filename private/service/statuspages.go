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

// Package service provides shared HTTP status pages for the gatewatch
// services.
package service

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/gatewatch/gatewatch/pkg/log"
	"github.com/gatewatch/gatewatch/private/env"
)

// StatusPage holds the description and the handler of an HTTP status page.
type StatusPage struct {
	Info    string
	Handler http.HandlerFunc
}

// StatusPages maps URL paths to status pages.
type StatusPages map[string]StatusPage

// Register registers the pages on the given mux, and installs an index page
// at the root that links to all of them.
func (s StatusPages) Register(mux *http.ServeMux, elemID string) error {
	var index bytes.Buffer
	fmt.Fprintf(&index, "<!DOCTYPE html>\n<html>\n<head><title>%s</title></head>\n", elemID)
	fmt.Fprintf(&index, "<body>\n<h1>%s</h1>\n<ul>\n", elemID)
	paths := make([]string, 0, len(s))
	for path := range s {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		page, ok := s[path]
		if !ok || page.Handler == nil {
			return fmt.Errorf("page without handler: %s", path)
		}
		fmt.Fprintf(&index, "<li><a href=\"/%s\">%s</a>: %s</li>\n", path, path, page.Info)
		mux.HandleFunc("/"+path, page.Handler)
	}
	index.WriteString("</ul>\n</body>\n</html>\n")
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(index.Bytes())
	})
	return nil
}

// NewInfoStatusPage builds a page that serves basic information about the
// service.
func NewInfoStatusPage() StatusPage {
	info := fmt.Sprintf("%s  %s\n  %s\n  %s\n",
		env.VersionInfo(),
		fmt.Sprintf("pid:       %d", os.Getpid()),
		fmt.Sprintf("euid/egid: %d %d", os.Geteuid(), os.Getegid()),
		fmt.Sprintf("cmd line:  %q", os.Args),
	)
	handler := func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, info)
	}
	return StatusPage{
		Info:    "basic info about the service",
		Handler: handler,
	}
}

// NewConfigStatusPage builds a page that serves the TOML representation of
// the active configuration.
func NewConfigStatusPage(config any) StatusPage {
	handler := func(w http.ResponseWriter, r *http.Request) {
		if err := toml.NewEncoder(w).Encode(config); err != nil {
			http.Error(w, "Unable to marshal configuration",
				http.StatusInternalServerError)
			return
		}
	}
	return StatusPage{
		Info:    "configuration of the service",
		Handler: handler,
	}
}

// NewLogLevelStatusPage builds a page that reports the console logging level.
// The level can be changed with a PUT request carrying a body of the form
// {"level":"debug"}.
func NewLogLevelStatusPage() StatusPage {
	return StatusPage{
		Info:    "logging level (supports PUT)",
		Handler: log.ConsoleLevel.ServeHTTP,
	}
}
