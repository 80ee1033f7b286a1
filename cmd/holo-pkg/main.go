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

package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/ogier/pflag"

	"github.com/holocm/holo-pkg/internal/config"
	"github.com/holocm/holo-pkg/internal/descriptor"
	"github.com/holocm/holo-pkg/internal/integrity"
	"github.com/holocm/holo-pkg/internal/lock"
	"github.com/holocm/holo-pkg/internal/orphan"
	"github.com/holocm/holo-pkg/internal/pkgdb"
	"github.com/holocm/holo-pkg/internal/repoindex"
	"github.com/holocm/holo-pkg/internal/resolver"
	"github.com/holocm/holo-pkg/internal/root"
	"github.com/holocm/holo-pkg/internal/transaction"
	"github.com/holocm/holo-pkg/internal/xbpserr"
)

// commonFlags only needs a nice exported-looking name so that flag parse
// errors read naturally; it is never serialized.
type commonFlags struct {
	root    string
	verbose bool
	force   bool
}

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}
	command := os.Args[1]

	fs := pflag.NewFlagSet(command, pflag.ExitOnError)
	var flags commonFlags
	fs.StringVarP(&flags.root, "root", "r", "", "target installation root (default /)")
	fs.BoolVarP(&flags.verbose, "verbose", "v", false, "print progress as it happens")
	fs.BoolVarP(&flags.force, "force", "f", false, "skip confirmations and reverse-dependency warnings")
	if err := fs.Parse(os.Args[2:]); err != nil {
		showError(err)
		os.Exit(1)
	}
	args := fs.Args()

	if err := dispatch(command, args, flags); err != nil {
		showError(err)
		os.Exit(1)
	}
}

func dispatch(command string, args []string, flags commonFlags) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	h := root.New(cfg.ResolveRoot(flags.root))

	switch command {
	case "list":
		return cmdList(h)
	case "show":
		return cmdShow(h, requireOne(args))
	case "files":
		return cmdFiles(h, requireOne(args))
	case "check":
		return cmdCheck(h, requireOne(args))
	case "install":
		return withLock(h, func() error { return cmdInstallOrUpdate(h, flags, requireOne(args), false) })
	case "update":
		return withLock(h, func() error { return cmdInstallOrUpdate(h, flags, requireOne(args), true) })
	case "remove":
		return withLock(h, func() error { return cmdRemove(h, flags, requireOne(args), false) })
	case "purge":
		return withLock(h, func() error { return cmdRemove(h, flags, requireOne(args), true) })
	case "reconfigure":
		return withLock(h, func() error { return cmdReconfigure(h, requireOne(args)) })
	case "autoupdate":
		return withLock(h, func() error { return cmdAutoupdate(h, flags) })
	case "autoremove":
		return withLock(h, func() error { return cmdAutoremove(h, flags) })
	default:
		printHelp()
		return xbpserr.New(xbpserr.NotFound, "", "unrecognized command %q", command)
	}
}

func requireOne(args []string) string {
	if len(args) != 1 {
		showError(fmt.Errorf("expected exactly one package name argument, got %d", len(args)))
		os.Exit(1)
	}
	return args[0]
}

func withLock(h *root.Handle, fn func() error) error {
	lk, err := lock.Acquire(h.LockPath())
	if err != nil {
		return err
	}
	defer lk.Release()
	return fn()
}

func newEngine(h *root.Handle, registry *pkgdb.Registry, verbose bool) *transaction.Engine {
	return &transaction.Engine{
		Root:     h,
		Registry: registry,
		Report: func(format string, args ...interface{}) {
			if verbose {
				fmt.Printf(format+"\n", args...)
			}
		},
	}
}

func cmdList(h *root.Handle) error {
	registry, err := pkgdb.LoadRegistry(h.RegpkgdbPath())
	if err != nil {
		return err
	}
	for _, d := range registry.All() {
		fmt.Println(d.Pkgver())
	}
	return nil
}

func cmdShow(h *root.Handle, pkgname string) error {
	registry, err := pkgdb.LoadRegistry(h.RegpkgdbPath())
	if err != nil {
		return err
	}
	d := registry.Find(pkgname)
	if d == nil {
		return xbpserr.New(xbpserr.NotFound, pkgname, "package %q is not installed", pkgname)
	}
	fmt.Printf("pkgname: %s\n", d.PkgName)
	fmt.Printf("version: %s\n", d.Version)
	fmt.Printf("short_desc: %s\n", d.ShortDesc)
	fmt.Printf("architecture: %s\n", d.Architecture)
	fmt.Printf("state: %s\n", d.State)
	fmt.Printf("automatic-install: %v\n", d.AutomaticInstall)
	for _, dep := range d.RunDepends {
		fmt.Printf("run_depends: %s\n", dep)
	}
	for _, rb := range d.RequiredBy {
		fmt.Printf("requiredby: %s\n", rb)
	}
	return nil
}

func cmdFiles(h *root.Handle, pkgname string) error {
	registry, err := pkgdb.LoadRegistry(h.RegpkgdbPath())
	if err != nil {
		return err
	}
	d := registry.Find(pkgname)
	if d == nil {
		return xbpserr.New(xbpserr.NotFound, pkgname, "package %q is not installed", pkgname)
	}
	for _, f := range d.Files {
		fmt.Println(f.Path)
	}
	return nil
}

func cmdCheck(h *root.Handle, pkgname string) error {
	registry, err := pkgdb.LoadRegistry(h.RegpkgdbPath())
	if err != nil {
		return err
	}

	var problems map[string][]integrity.Problem
	if pkgname == "all" {
		problems = integrity.CheckAll(h, registry)
	} else {
		d := registry.Find(pkgname)
		if d == nil {
			return xbpserr.New(xbpserr.NotFound, pkgname, "package %q is not installed", pkgname)
		}
		if p := integrity.CheckPackage(h, d); len(p) > 0 {
			problems = map[string][]integrity.Problem{pkgname: p}
		}
	}

	if len(problems) == 0 {
		fmt.Println("all files verified")
		return nil
	}
	for name, pkgProblems := range problems {
		for _, p := range pkgProblems {
			fmt.Printf("%s: %s: %s\n", name, p.Path, p.Kind)
		}
	}
	return xbpserr.New(xbpserr.Integrity, pkgname, "integrity check failed for %d package(s)", len(problems))
}

func cmdInstallOrUpdate(h *root.Handle, flags commonFlags, pkgname string, updateOnly bool) error {
	registry, err := pkgdb.LoadRegistry(h.RegpkgdbPath())
	if err != nil {
		return err
	}
	if updateOnly && registry.Find(pkgname) == nil {
		return xbpserr.New(xbpserr.NotFound, pkgname, "package %q is not installed, cannot update", pkgname)
	}

	repos, archiveLocator, err := loadRepositories(h)
	if err != nil {
		return err
	}

	steps, err := resolver.New(repos, registry).Resolve([]string{pkgname})
	if err != nil {
		return err
	}

	engine := newEngine(h, registry, flags.verbose)
	for _, step := range steps {
		if step.Action == resolver.Keep {
			continue
		}
		data, err := archiveLocator(step.Descriptor)
		if err != nil {
			return err
		}
		if err := engine.InstallOrUpgrade(step.Descriptor, data); err != nil {
			return err
		}
		engine.MarkAutomatic(step.Descriptor.PkgName, step.Automatic)
	}
	for _, step := range steps {
		if err := engine.Register(step.Descriptor, step.Descriptor.RunDepends); err != nil {
			return err
		}
	}

	return pkgdb.StoreRegistry(h.RegpkgdbPath(), registry)
}

func cmdRemove(h *root.Handle, flags commonFlags, pkgname string, purge bool) error {
	registry, err := pkgdb.LoadRegistry(h.RegpkgdbPath())
	if err != nil {
		return err
	}
	engine := newEngine(h, registry, flags.verbose)
	if purge && pkgname == "all" {
		for _, d := range append([]*pkgdb.InstalledDescriptor(nil), registry.All()...) {
			d.RequiredBy = nil
			if err := engine.Remove(d.PkgName, true); err != nil {
				return err
			}
		}
		return pkgdb.StoreRegistry(h.RegpkgdbPath(), registry)
	}

	installed := registry.Find(pkgname)
	if installed == nil {
		return xbpserr.New(xbpserr.NotFound, pkgname, "package %q is not installed", pkgname)
	}
	if len(installed.RequiredBy) > 0 {
		if !flags.force {
			return xbpserr.New(xbpserr.StateInvalid, pkgname,
				"%q is still required by %v; use -f to override", pkgname, installed.RequiredBy)
		}
		installed.RequiredBy = nil
	}

	engine.Unregister(&installed.Descriptor, installed.RunDepends)
	if err := engine.Remove(pkgname, purge); err != nil {
		return err
	}
	return pkgdb.StoreRegistry(h.RegpkgdbPath(), registry)
}

func cmdReconfigure(h *root.Handle, pkgname string) error {
	registry, err := pkgdb.LoadRegistry(h.RegpkgdbPath())
	if err != nil {
		return err
	}
	engine := newEngine(h, registry, true)
	if pkgname == "all" {
		var errs xbpserr.Collector
		for _, d := range registry.All() {
			errs.Add(engine.Reconfigure(d.PkgName))
		}
		if errs.HasErrors() {
			return errs.Errors[0]
		}
		return nil
	}
	return engine.Reconfigure(pkgname)
}

func cmdAutoupdate(h *root.Handle, flags commonFlags) error {
	registry, err := pkgdb.LoadRegistry(h.RegpkgdbPath())
	if err != nil {
		return err
	}
	repos, archiveLocator, err := loadRepositories(h)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(registry.All()))
	for _, d := range registry.All() {
		names = append(names, d.PkgName)
	}

	steps, err := resolver.New(repos, registry).Resolve(names)
	if err != nil {
		return err
	}

	engine := newEngine(h, registry, flags.verbose)
	for _, step := range steps {
		if step.Action != resolver.Upgrade {
			continue
		}
		data, err := archiveLocator(step.Descriptor)
		if err != nil {
			return err
		}
		if err := engine.InstallOrUpgrade(step.Descriptor, data); err != nil {
			return err
		}
	}
	return pkgdb.StoreRegistry(h.RegpkgdbPath(), registry)
}

func cmdAutoremove(h *root.Handle, flags commonFlags) error {
	registry, err := pkgdb.LoadRegistry(h.RegpkgdbPath())
	if err != nil {
		return err
	}

	// orphan.Find already iterates to a fixed point, so one pass removes the
	// whole transitive set. Every orphan drops out of its dependencies'
	// RequiredBy sets before any removal, so the removal order does not matter.
	engine := newEngine(h, registry, flags.verbose)
	orphans := orphan.Find(registry)
	for _, d := range orphans {
		engine.Unregister(&d.Descriptor, d.RunDepends)
	}
	for _, d := range orphans {
		if err := engine.Remove(d.PkgName, false); err != nil {
			return err
		}
	}
	return pkgdb.StoreRegistry(h.RegpkgdbPath(), registry)
}

// loadRepositories reads the root's repository list and every repository's
// index document, returning a locator that finds the archive bytes backing
// a resolved descriptor (spec §4.4, §6).
func loadRepositories(h *root.Handle) ([]*pkgdb.Index, func(*descriptor.Descriptor) ([]byte, error), error) {
	list, err := pkgdb.LoadRepositoryList(h.RepositoriesPath())
	if err != nil {
		return nil, nil, err
	}

	var repos []*pkgdb.Index
	dirByIndex := make(map[*pkgdb.Index]string)
	for _, dir := range list.Entries {
		idx, err := pkgdb.LoadIndex(repoindex.IndexPath(dir))
		if err != nil {
			if xbpserr.Is(err, xbpserr.NotFound) {
				continue
			}
			return nil, nil, err
		}
		repos = append(repos, idx)
		dirByIndex[idx] = dir
	}

	locator := func(d *descriptor.Descriptor) ([]byte, error) {
		for _, idx := range repos {
			if idx.Find(d.PkgName) != d {
				continue
			}
			dir := dirByIndex[idx]
			for _, archDir := range []string{d.Architecture, "noarch"} {
				path := filepath.Join(dir, archDir, d.Filename)
				if data, err := ioutil.ReadFile(path); err == nil {
					return data, nil
				}
			}
			return nil, xbpserr.New(xbpserr.NotFound, d.PkgName,
				"cannot find archive %q for %s under %s", d.Filename, d.Pkgver(), dir)
		}
		return nil, xbpserr.New(xbpserr.NotFound, d.PkgName, "descriptor for %s is not backed by any loaded repository", d.Pkgver())
	}
	return repos, locator, nil
}

func printHelp() {
	fmt.Println(`Usage: holo-pkg COMMAND [-r ROOT] [-v] [-f] [NAME]

Commands:
  list                    print installed packages
  install NAME            resolve plan, execute
  update NAME             upgrade-only variant
  remove NAME             delete all files, keep registry entry
  purge NAME|all          full removal
  reconfigure NAME|all    run post-install script
  show NAME               print descriptor
  files NAME              print manifest
  check NAME|all          integrity check
  autoupdate              upgrade all eligible
  autoremove              iterate orphan removal`)
}

func showError(err error) {
	fmt.Fprintf(os.Stderr, "\x1b[31m\x1b[1m!!\x1b[0m %s\n", err.Error())
}
