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

package dataplane

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/gatewatch/gatewatch/pkg/private/serrors"
)

// Installer writes rendered artifacts to a fixed destination path without
// ever exposing a partially written file: the artifact is written to a
// temporary file on the same filesystem, synced, and atomically renamed
// onto the destination. A reader of the destination path sees either the
// old content or the new content, never a truncated mix, crash or power
// loss included.
//
// The installer keeps the content it replaced in memory so that a failed
// proxy check can roll the destination back.
//
// An Installer should not be copied after use.
type Installer struct {
	// ArtifactPath is the destination path of the artifact. It must be set.
	ArtifactPath string

	// mtx protects the content bookkeeping below.
	mtx sync.Mutex
	// current is the content the destination is known to hold. Before the
	// first install it is lazily initialized from the destination file.
	current []byte
	// previous is the content that current replaced. Nil if nothing has
	// been replaced yet.
	previous []byte
	// loaded is set once current has been initialized from disk.
	loaded bool
}

// Install writes artifact to the destination path. If the destination
// already holds byte-identical content, Install is a no-op, does not touch
// the filesystem, and returns false. An install that has started is not
// interrupted by ctx; cancellation is honored between pipeline stages, not
// in the middle of a write.
func (i *Installer) Install(ctx context.Context, artifact []byte) (bool, error) {
	i.mtx.Lock()
	defer i.mtx.Unlock()

	if err := i.loadCurrent(); err != nil {
		return false, err
	}
	if i.loaded && bytes.Equal(i.current, artifact) {
		return false, nil
	}
	if err := i.writeAtomic(artifact); err != nil {
		return false, err
	}
	if i.loaded {
		i.previous = i.current
	}
	i.current = artifact
	i.loaded = true
	return true, nil
}

// Rollback restores the destination to the content it held before the most
// recent install. It fails if nothing has been replaced yet.
func (i *Installer) Rollback(ctx context.Context) error {
	i.mtx.Lock()
	defer i.mtx.Unlock()

	if i.previous == nil {
		return serrors.New("no previous artifact to roll back to",
			"path", i.ArtifactPath)
	}
	if err := i.writeAtomic(i.previous); err != nil {
		return err
	}
	i.current = i.previous
	i.previous = nil
	return nil
}

// Previous returns the artifact content that the most recent install
// replaced, nil if nothing has been replaced. The returned slice must not
// be modified.
func (i *Installer) Previous() []byte {
	i.mtx.Lock()
	defer i.mtx.Unlock()
	return i.previous
}

// loadCurrent initializes the in-memory view of the destination from disk.
// A missing destination file is not an error; it means nothing is installed
// yet.
func (i *Installer) loadCurrent() error {
	if i.loaded {
		return nil
	}
	existing, err := os.ReadFile(i.ArtifactPath)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return serrors.Wrap("reading installed artifact", err,
			"path", i.ArtifactPath)
	}
	i.current = existing
	i.loaded = true
	return nil
}

func (i *Installer) writeAtomic(content []byte) error {
	dir := filepath.Dir(i.ArtifactPath)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(i.ArtifactPath)+".*")
	if err != nil {
		return serrors.Wrap("creating temporary artifact", err, "dir", dir)
	}
	tmpName := tmp.Name()
	if err := writeAndSync(tmp, content); err != nil {
		os.Remove(tmpName)
		return serrors.Wrap("writing temporary artifact", err, "path", tmpName)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return serrors.Wrap("setting artifact permissions", err, "path", tmpName)
	}
	if err := os.Rename(tmpName, i.ArtifactPath); err != nil {
		os.Remove(tmpName)
		return serrors.Wrap("renaming artifact into place", err,
			"path", i.ArtifactPath)
	}
	if err := syncDir(dir); err != nil {
		return serrors.Wrap("syncing artifact directory", err, "dir", dir)
	}
	return nil
}

func writeAndSync(f *os.File, content []byte) error {
	if _, err := f.Write(content); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// syncDir makes the rename durable: without it, a power loss shortly after
// the rename can resurrect the old directory entry.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		d.Close()
		return err
	}
	return d.Close()
}
