/*******************************************************************************
*
* Copyright 2015 Stefan Majewsky <majewsky@gmx.net>
*
* This file is part of Holo.
*
* Holo is free software: you can redistribute it and/or modify it under the
* terms of the GNU General Public License as published by the Free Software
* Foundation, either version 3 of the License, or (at your option) any later
* version.
*
* Holo is distributed in the hope that it will be useful, but WITHOUT ANY
* WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR
* A PARTICULAR PURPOSE. See the GNU General Public License for more details.
*
* You should have received a copy of the GNU General Public License along with
* Holo. If not, see <http://www.gnu.org/licenses/>.
*
*******************************************************************************/

// Package root wraps the target installation root (spec §6's "-r ROOT") and
// the fixed on-disk layout beneath it.
package root

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// metaPath is the directory beneath the root holding all of this project's
// bookkeeping documents (spec §6).
const metaPath = "var/db/xbps"

// Handle identifies one installation root and resolves the fixed paths spec
// §6 defines beneath it. The zero value is not usable; use New.
type Handle struct {
	path string
}

// New returns a Handle for the given root directory (default "/", overridden
// by the "-r" flag per spec §6).
func New(path string) *Handle {
	if path == "" {
		path = "/"
	}
	return &Handle{path: filepath.Clean(path)}
}

// Path returns the root's own path.
func (h *Handle) Path() string {
	return h.path
}

// Join resolves a path relative to the root, rejecting attempts to escape
// it via "..". This is used both for the metadata layout below and for
// unpacking archive entries into the root's file tree.
func (h *Handle) Join(rel string) (string, error) {
	rel = strings.TrimPrefix(rel, "/")
	clean := filepath.Clean(filepath.Join(h.path, rel))
	prefix := h.path
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if clean != h.path && !strings.HasPrefix(clean, prefix) {
		return "", fmt.Errorf("path %q escapes installation root %q", rel, h.path)
	}
	return clean, nil
}

// RegpkgdbPath is "R/var/db/xbps/regpkgdb.plist" (spec §6).
func (h *Handle) RegpkgdbPath() string {
	return filepath.Join(h.path, metaPath, "regpkgdb.plist")
}

// RepositoriesPath is "R/var/db/xbps/repositories.plist" (spec §6).
func (h *Handle) RepositoriesPath() string {
	return filepath.Join(h.path, metaPath, "repositories.plist")
}

// MetadataDir is the per-package metadata directory
// "R/var/db/xbps/metadata/<pkgname>" (spec §6).
func (h *Handle) MetadataDir(pkgname string) string {
	return filepath.Join(h.path, metaPath, "metadata", pkgname)
}

// LockPath is the file the single-writer advisory lock (spec §5) is taken
// against.
func (h *Handle) LockPath() string {
	return filepath.Join(h.path, metaPath, ".regpkgdb.lock")
}

// HasShell reports whether /bin/sh exists within the root, which gates the
// chroot-vs-chdir choice for script execution (spec §4.7(c)).
func (h *Handle) HasShell() bool {
	p, err := h.Join("bin/sh")
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}
