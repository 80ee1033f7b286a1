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

// Package script runs a package's INSTALL/REMOVE shell scripts (spec
// §4.7(c)), grounded on original_source/lib/fexec.c's fork/exec/waitpid
// sequence and the teacher's plain os/exec usage (pacman/mtree.go).
package script

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/holocm/holo-pkg/internal/root"
	"github.com/holocm/holo-pkg/internal/xbpserr"
)

// Kind identifies which script is being run and, together with Stage,
// determines the argv passed to it (spec §4.7(c)).
type Kind string

// The two scripts an archive may carry.
const (
	Install Kind = "INSTALL"
	Remove  Kind = "REMOVE"
)

// Stage identifies whether the script runs before or after the operation it
// accompanies.
type Stage string

// The two stages a script is invoked at.
const (
	Pre  Stage = "pre"
	Post Stage = "post"
)

// geteuid is a var so tests can stub the privilege check without actually
// running as root.
var geteuid = os.Geteuid

// Run executes script content for pkgver inside h, choosing chroot when the
// effective user id is 0 and h has a usable /bin/sh, and falling back to
// running the script with its working directory set to h otherwise (spec
// §4.7(c); original_source/lib/fexec.c's pfcexec gates the same way on
// getuid() == 0, not on the root path itself). A nonzero exit is reported
// as xbpserr.ScriptFailed; the package is left in whatever state the caller
// already committed before invoking the script.
func Run(h *root.Handle, content []byte, kind Kind, stage Stage, pkgver string) error {
	if len(content) == 0 {
		return nil
	}

	tmpFile, err := writeTemp(h, content)
	if err != nil {
		return xbpserr.Wrap(xbpserr.IO, pkgver, err)
	}
	defer os.Remove(tmpFile)

	cmd, err := buildCmd(h, tmpFile, kind, stage)
	if err != nil {
		return xbpserr.Wrap(xbpserr.IO, pkgver, err)
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = nil

	if err := cmd.Run(); err != nil {
		return xbpserr.New(xbpserr.ScriptFailed, pkgver,
			"%s script failed at %s stage: %s", kind, stage, err)
	}
	return nil
}

// buildCmd chooses between the chroot and chdir invocation shapes (spec
// §4.7(c)) and wires up the argv each expects.
func buildCmd(h *root.Handle, tmpFile string, kind Kind, stage Stage) (*exec.Cmd, error) {
	if geteuid() == 0 && h.HasShell() {
		chrootRel, err := filepath.Rel(h.Path(), tmpFile)
		if err != nil {
			return nil, err
		}
		return exec.Command("chroot", h.Path(), "/bin/sh", "/"+chrootRel, string(kind), string(stage)), nil
	}
	cmd := exec.Command("/bin/sh", tmpFile, string(kind), string(stage))
	cmd.Dir = h.Path()
	return cmd, nil
}

// writeTemp drops script content into a private file beneath h's metadata
// tree so a chrooted invocation can still reach it by a root-relative path.
func writeTemp(h *root.Handle, content []byte) (string, error) {
	dir, err := h.Join("var/db/xbps/.scripts")
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	f, err := ioutil.TempFile(dir, "script-*.sh")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(content); err != nil {
		return "", err
	}
	if err := f.Chmod(0700); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// Describe renders a human-readable label for log output, e.g. "INSTALL
// script (post)".
func Describe(kind Kind, stage Stage) string {
	return fmt.Sprintf("%s script (%s)", kind, stage)
}
