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

// Package transaction runs the unpack/configure/register state machine that
// spec §4.7 defines for INSTALL, UPGRADE, REMOVE and PURGE, grounded on
// original_source/bin/xbps-bin/remove.c's unwind-on-failure structure and
// the teacher's os.MkdirAll/os.Symlink filesystem writes in its own tar
// unpacking code.
package transaction

import (
	"archive/tar"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/holocm/holo-pkg/internal/archive"
	"github.com/holocm/holo-pkg/internal/depend"
	"github.com/holocm/holo-pkg/internal/descriptor"
	"github.com/holocm/holo-pkg/internal/pkgdb"
	"github.com/holocm/holo-pkg/internal/root"
	"github.com/holocm/holo-pkg/internal/script"
	"github.com/holocm/holo-pkg/internal/state"
	"github.com/holocm/holo-pkg/internal/xbpserr"
)

// scriptFileNames maps a script.Kind to the file it is persisted under in a
// package's metadata directory, so that "reconfigure" and "remove" can run
// the post-install/pre-remove script again long after the original archive
// is gone (spec §6's metadata directory; grounded on
// original_source/lib/plist.c storing INSTALL/REMOVE alongside props.plist).
var scriptFileNames = map[script.Kind]string{
	script.Install: "INSTALL",
	script.Remove:  "REMOVE",
}

// Engine bundles the handles a transaction step needs: the root directory,
// the registry it mutates in place, and a place to report non-fatal
// progress (install/remove messages), following the teacher's pattern of
// passing an explicit *os.File / io.Writer rather than a global logger.
type Engine struct {
	Root     *root.Handle
	Registry *pkgdb.Registry
	Report   func(format string, args ...interface{})
}

func (e *Engine) report(format string, args ...interface{}) {
	if e.Report != nil {
		e.Report(format, args...)
	}
}

// InstallOrUpgrade performs spec §4.7(a)-(c) for one resolved package: it
// verifies filenameSHA256 against the supplied archive bytes, unpacks it,
// diffs away files an old version no longer ships, runs the pre/post
// INSTALL scripts, and commits the descriptor with state Unpacked then
// Installed (or Broken if the post script fails).
func (e *Engine) InstallOrUpgrade(desc *descriptor.Descriptor, archiveData []byte) error {
	if archive.SHA256(archiveData) != desc.FilenameSHA256 {
		return xbpserr.New(xbpserr.Integrity, desc.PkgName,
			"archive for %s does not match the filename-sha256 recorded in the repository index", desc.Pkgver())
	}

	a, err := archive.Open(archiveData)
	if err != nil {
		return xbpserr.Wrap(xbpserr.IO, desc.PkgName, err)
	}

	previous := e.Registry.Find(desc.PkgName)
	fromState := state.NotInstalled
	if previous != nil {
		fromState = previous.State
	}
	if err := state.Transition(desc.PkgName, fromState, state.Unpacked); err != nil {
		return err
	}

	if err := script.Run(e.Root, a.InstallShell, script.Install, script.Pre, desc.Pkgver()); err != nil {
		return err
	}

	files, err := e.unpack(a)
	if err != nil {
		return xbpserr.Wrap(xbpserr.IO, desc.PkgName, err)
	}

	if previous != nil {
		e.pruneStaleFiles(previous.Files, files)
	}

	if err := e.writeScript(desc.PkgName, script.Install, a.InstallShell); err != nil {
		return xbpserr.Wrap(xbpserr.IO, desc.PkgName, err)
	}
	if err := e.writeScript(desc.PkgName, script.Remove, a.RemoveShell); err != nil {
		return xbpserr.Wrap(xbpserr.IO, desc.PkgName, err)
	}
	if err := e.writeMetadataRecords(desc, a); err != nil {
		return xbpserr.Wrap(xbpserr.IO, desc.PkgName, err)
	}

	installed := &pkgdb.InstalledDescriptor{
		Descriptor:       *desc.Clone(),
		State:            state.Unpacked,
		AutomaticInstall: previous != nil && previous.AutomaticInstall,
		RequiredBy:       requiredByOf(previous),
		Files:            files,
	}
	e.Registry.Replace(installed)
	e.report("unpacked %s", desc.Pkgver())

	if err := script.Run(e.Root, a.InstallShell, script.Install, script.Post, desc.Pkgver()); err != nil {
		installed.State = state.Broken
		e.Registry.Replace(installed)
		return err
	}

	if err := state.Transition(desc.PkgName, state.Unpacked, state.Installed); err != nil {
		return err
	}
	installed.State = state.Installed
	e.Registry.Replace(installed)
	e.report("installed %s", desc.Pkgver())
	return nil
}

// MarkAutomatic sets AutomaticInstall on an already-registered package (spec
// §4.5's resolver marks dependency-only pulls; the CLI layer calls this
// right after InstallOrUpgrade for steps whose Automatic field is true).
func (e *Engine) MarkAutomatic(pkgname string, automatic bool) {
	if d := e.Registry.Find(pkgname); d != nil {
		d.AutomaticInstall = automatic
	}
}

// Remove performs spec §4.7(d)-(e): it runs the pre/post REMOVE scripts and
// deletes the package's files. A purge (purge=true) transitions to
// NotInstalled and drops the descriptor from the registry entirely; a plain
// remove transitions to ConfigFiles and keeps the descriptor so a later
// reinstall does not lose any customization recorded against it.
func (e *Engine) Remove(pkgname string, purge bool) error {
	installed := e.Registry.Find(pkgname)
	if installed == nil {
		return xbpserr.New(xbpserr.NotFound, pkgname, "package %q is not installed", pkgname)
	}
	if len(installed.RequiredBy) > 0 {
		return xbpserr.New(xbpserr.StateInvalid, pkgname,
			"cannot remove %q: still required by %v", pkgname, installed.RequiredBy)
	}

	removeShell, err := e.ReadScript(pkgname, script.Remove)
	if err != nil {
		return xbpserr.Wrap(xbpserr.IO, pkgname, err)
	}

	if err := script.Run(e.Root, removeShell, script.Remove, script.Pre, installed.Pkgver()); err != nil {
		return err
	}

	for i := len(installed.Files) - 1; i >= 0; i-- {
		full, err := e.Root.Join(installed.Files[i].Path)
		if err != nil {
			continue
		}
		os.Remove(full) // best-effort; directories left non-empty by sibling packages are expected
	}

	if err := script.Run(e.Root, removeShell, script.Remove, script.Post, installed.Pkgver()); err != nil {
		return err
	}

	if purge {
		if err := state.Transition(pkgname, installed.State, state.NotInstalled); err != nil {
			return err
		}
		os.RemoveAll(e.Root.MetadataDir(pkgname))
		e.Registry.Remove(pkgname)
		e.report("purged %s", installed.Pkgver())
		return nil
	}

	if err := state.Transition(pkgname, installed.State, state.ConfigFiles); err != nil {
		return err
	}
	installed.State = state.ConfigFiles
	installed.Files = nil
	installed.RequiredBy = nil
	e.Registry.Replace(installed)
	e.report("removed %s, configuration files kept", installed.Pkgver())
	return nil
}

// unpack streams every filesystem entry of a into the root, computing a
// manifest SHA-256 per regular file as it goes (spec §4.7(b)).
func (e *Engine) unpack(a *archive.Archive) ([]pkgdb.FileEntry, error) {
	files := make([]pkgdb.FileEntry, 0, len(a.Entries))
	for _, entry := range a.Entries {
		dest, err := e.Root.Join(entry.Path)
		if err != nil {
			return nil, err
		}

		switch entry.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, os.FileMode(entry.Mode)); err != nil {
				return nil, err
			}
		case tar.TypeSymlink:
			os.Remove(dest)
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return nil, err
			}
			if err := os.Symlink(entry.Linkname, dest); err != nil {
				return nil, err
			}
		default:
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return nil, err
			}
			if err := ioutil.WriteFile(dest, entry.Content, os.FileMode(entry.Mode)); err != nil {
				return nil, err
			}
			files = append(files, pkgdb.FileEntry{
				Path:   entry.Path,
				SHA256: archive.SHA256(entry.Content),
			})
		}
	}
	return files, nil
}

// pruneStaleFiles deletes files that oldFiles lists but newFiles does not,
// implementing the upgrade-time manifest diff of spec §4.7(c).
func (e *Engine) pruneStaleFiles(oldFiles, newFiles []pkgdb.FileEntry) {
	keep := make(map[string]bool, len(newFiles))
	for _, f := range newFiles {
		keep[f.Path] = true
	}
	for _, f := range oldFiles {
		if keep[f.Path] {
			continue
		}
		full, err := e.Root.Join(f.Path)
		if err != nil {
			continue
		}
		os.Remove(full)
	}
}

// writeMetadataRecords persists props.plist and files.plist verbatim into
// the package's metadata directory (spec §6's "per-package records"),
// independent of the registry document those same facts are also folded
// into.
func (e *Engine) writeMetadataRecords(desc *descriptor.Descriptor, a *archive.Archive) error {
	dir := e.Root.MetadataDir(desc.PkgName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := ioutil.WriteFile(filepath.Join(dir, archive.PropsFile), a.Props, 0644); err != nil {
		return err
	}
	if a.Files != nil {
		return ioutil.WriteFile(filepath.Join(dir, archive.FilesFile), a.Files, 0644)
	}
	return nil
}

// writeScript persists a package's script content (if any) into its
// metadata directory. An empty body removes any previously stored script,
// matching an upgrade that drops a script the old version carried.
func (e *Engine) writeScript(pkgname string, kind script.Kind, content []byte) error {
	dir := e.Root.MetadataDir(pkgname)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, scriptFileNames[kind])
	if len(content) == 0 {
		os.Remove(path)
		return nil
	}
	return ioutil.WriteFile(path, content, 0700)
}

// ReadScript loads a package's persisted script content, if any. A missing
// file is not an error: it means the package never carried that script.
func (e *Engine) ReadScript(pkgname string, kind script.Kind) ([]byte, error) {
	path := filepath.Join(e.Root.MetadataDir(pkgname), scriptFileNames[kind])
	content, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return content, nil
}

// Reconfigure re-runs a package's post-install script without touching its
// files, for the CLI's "reconfigure" command (spec §6).
func (e *Engine) Reconfigure(pkgname string) error {
	installed := e.Registry.Find(pkgname)
	if installed == nil {
		return xbpserr.New(xbpserr.NotFound, pkgname, "package %q is not installed", pkgname)
	}
	content, err := e.ReadScript(pkgname, script.Install)
	if err != nil {
		return xbpserr.Wrap(xbpserr.IO, pkgname, err)
	}
	if err := script.Run(e.Root, content, script.Install, script.Post, installed.Pkgver()); err != nil {
		return err
	}
	e.report("reconfigured %s", installed.Pkgver())
	return nil
}

func requiredByOf(previous *pkgdb.InstalledDescriptor) []string {
	if previous == nil {
		return nil
	}
	return append([]string(nil), previous.RequiredBy...)
}

// Register maintains the I4 requiredby symmetry invariant: for every
// run_depends entry of dependent, the dependency's InstalledDescriptor gains
// dependent's pkgver in its RequiredBy set (spec §4.7 Register phase).
// Entries are dependency predicates; the dependency is looked up by the
// predicate's name.
func (e *Engine) Register(dependent *descriptor.Descriptor, runDepends []string) error {
	for _, depText := range runDepends {
		p, err := depend.Parse(depText)
		if err != nil {
			return xbpserr.Wrap(xbpserr.MalformedPlist, dependent.PkgName, err)
		}
		dep := e.Registry.Find(p.Name)
		if dep == nil {
			return xbpserr.New(xbpserr.NotFound, p.Name,
				"cannot register %s as a dependent of %q: not installed", dependent.Pkgver(), p.Name)
		}
		dep.AddRequiredBy(dependent.Pkgver())
	}
	return nil
}

// Unregister is Register's inverse, invoked before a package is removed so
// that its own dependencies drop it from their RequiredBy sets.
func (e *Engine) Unregister(dependent *descriptor.Descriptor, runDepends []string) {
	for _, depText := range runDepends {
		p, err := depend.Parse(depText)
		if err != nil {
			continue
		}
		if dep := e.Registry.Find(p.Name); dep != nil {
			dep.RemoveRequiredBy(dependent.Pkgver())
		}
	}
}
