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

// Package repoindex implements the repository index builder (spec §4.4),
// grounded on original_source/lib/repository.c's directory scan and the
// teacher's own tar-reading idiom (filesystem/tar.go).
package repoindex

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/holocm/holo-pkg/internal/archive"
	"github.com/holocm/holo-pkg/internal/descriptor"
	"github.com/holocm/holo-pkg/internal/pkgdb"
	"github.com/holocm/holo-pkg/internal/plist"
	"github.com/holocm/holo-pkg/internal/xbpserr"
)

// indexFileName is the fixed name of the index document within a scanned
// repository directory (spec §6).
const indexFileName = "pkg-index.plist"

// IndexPath returns the path to dir's index document.
func IndexPath(dir string) string {
	return filepath.Join(dir, indexFileName)
}

// Result reports the outcome of Build.
type Result struct {
	Index      *pkgdb.Index
	Added      int
	Replaced   int
	Kept       int
	NothingToDo bool
}

// Build scans dir for architecture subdirectories (hostArch or "noarch")
// containing ".xbps" archives, extracts their metadata, and merges it into
// dir's index document (spec §4.4). warn receives one error per archive
// that could not be read; these do not abort the scan. A genuine I/O error
// writing the index is returned and is fatal.
func Build(dir, hostArch string, warn func(error)) (*Result, error) {
	idx, err := pkgdb.LoadIndex(IndexPath(dir))
	if err != nil {
		if !xbpserr.Is(err, xbpserr.NotFound) {
			return nil, err
		}
		idx = pkgdb.NewIndex(dir)
	}

	result := &Result{Index: idx}
	found := false

	for _, archDir := range []string{hostArch, "noarch"} {
		entries, err := ioutil.ReadDir(filepath.Join(dir, archDir))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, xbpserr.Wrap(xbpserr.IO, "", err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xbps") {
				continue
			}
			found = true

			archivePath := filepath.Join(dir, archDir, entry.Name())
			if err := ingest(idx, archivePath, entry.Name(), result); err != nil {
				warn(fmt.Errorf("%s: %w", archivePath, err))
			}
		}
	}

	if !found {
		result.NothingToDo = true
		return result, nil
	}

	if err := pkgdb.StoreIndex(IndexPath(dir), idx); err != nil {
		return nil, err
	}
	return result, nil
}

// ingest extracts one archive's descriptor and merges it into idx (spec
// §4.4 steps 1-6).
func ingest(idx *pkgdb.Index, archivePath, filename string, result *Result) error {
	data, err := ioutil.ReadFile(archivePath)
	if err != nil {
		return err
	}

	a, err := archive.Open(data)
	if err != nil {
		return err
	}

	node, err := plist.Parse(a.Props)
	if err != nil {
		return err
	}
	desc, err := descriptor.FromNode(node)
	if err != nil {
		return err
	}

	desc.Filename = filename
	desc.FilenameSHA256 = archive.SHA256(data)
	desc.FilenameSize = uint64(len(data))

	switch idx.ReplaceIfNewer(desc) {
	case pkgdb.Added:
		result.Added++
	case pkgdb.Replaced:
		result.Replaced++
	case pkgdb.Kept:
		result.Kept++
	}
	return nil
}

// RemovePackage deletes pkgname from dir's index document and rewrites it,
// for repository operators pruning a withdrawn package (supplemental
// feature grounded on original_source/lib/repository.c's removal path;
// spec §4.4 only describes the scan-and-merge direction).
func RemovePackage(dir, pkgname string) (bool, error) {
	idx, err := pkgdb.LoadIndex(IndexPath(dir))
	if err != nil {
		return false, err
	}
	removed := idx.Remove(pkgname)
	if !removed {
		return false, nil
	}
	return true, pkgdb.StoreIndex(IndexPath(dir), idx)
}
