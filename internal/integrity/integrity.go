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

// Package integrity verifies that an installed package's files still match
// the SHA-256 manifest recorded at unpack time (spec §4.8), distinguishing
// missing, mismatched and unreadable files.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/holocm/holo-pkg/internal/pkgdb"
	"github.com/holocm/holo-pkg/internal/root"
)

// ProblemKind classifies why one manifest entry failed verification.
type ProblemKind string

// The three ways a file can fail integrity verification (spec §4.8).
const (
	Missing    ProblemKind = "missing"
	Mismatch   ProblemKind = "mismatch"
	Unreadable ProblemKind = "unreadable"
)

// Problem reports one file that failed to verify.
type Problem struct {
	Path string
	Kind ProblemKind
	Err  error // only set for Unreadable
}

// CheckPackage verifies every file in installed's manifest against the
// installation root, returning one Problem per file that does not match.
func CheckPackage(h *root.Handle, installed *pkgdb.InstalledDescriptor) []Problem {
	var problems []Problem
	for _, f := range installed.Files {
		full, err := h.Join(f.Path)
		if err != nil {
			problems = append(problems, Problem{Path: f.Path, Kind: Unreadable, Err: err})
			continue
		}

		sum, err := sha256File(full)
		switch {
		case os.IsNotExist(err):
			problems = append(problems, Problem{Path: f.Path, Kind: Missing})
		case err != nil:
			problems = append(problems, Problem{Path: f.Path, Kind: Unreadable, Err: err})
		case sum != f.SHA256:
			problems = append(problems, Problem{Path: f.Path, Kind: Mismatch})
		}
	}
	return problems
}

// CheckAll verifies every installed package, returning a map from pkgname
// to that package's problems. Packages with no problems are omitted.
func CheckAll(h *root.Handle, registry *pkgdb.Registry) map[string][]Problem {
	out := make(map[string][]Problem)
	for _, d := range registry.All() {
		if problems := CheckPackage(h, d); len(problems) > 0 {
			out[d.PkgName] = problems
		}
	}
	return out
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
