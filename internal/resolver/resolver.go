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

// Package resolver implements the dependency resolver (spec §4.5): turning a
// set of requested package names into an ordered transaction plan, honoring
// repository priority, run_depends constraints and cycle detection. Grounded
// on original_source/lib/repository.c's repository-pool walk and
// original_source/bin/xbps-bin/main.c's install/update command flow.
package resolver

import (
	"fmt"

	"github.com/holocm/holo-pkg/internal/depend"
	"github.com/holocm/holo-pkg/internal/descriptor"
	"github.com/holocm/holo-pkg/internal/pkgdb"
	"github.com/holocm/holo-pkg/internal/version"
	"github.com/holocm/holo-pkg/internal/xbpserr"
)

// StepAction identifies what a transaction plan step does to a package.
type StepAction string

// The three plan step actions (spec §4.5 step 6).
const (
	Install StepAction = "install"
	Upgrade StepAction = "upgrade"
	Keep    StepAction = "keep"
)

// Step is one entry in the resolved, topologically ordered transaction plan.
type Step struct {
	Action     StepAction
	Descriptor *descriptor.Descriptor
	Automatic  bool // true if pulled in only as a dependency of a requested package
}

// Resolver resolves package names against a priority-ordered list of
// repository indexes and the currently installed registry.
type Resolver struct {
	repos    []*pkgdb.Index // in priority order, index 0 wins ties
	registry *pkgdb.Registry
}

// New builds a Resolver. repos must already be ordered by priority (spec
// §4.5 step 1); registry supplies the "already satisfied" and
// "automatic-install" bookkeeping.
func New(repos []*pkgdb.Index, registry *pkgdb.Registry) *Resolver {
	return &Resolver{repos: repos, registry: registry}
}

// resolution tracks the in-progress state of one resolve() call: the
// conjunction of constraints accumulated so far per package name, the
// descriptor chosen to satisfy them, the stack used for cycle detection, and
// the stably ordered result list.
type resolution struct {
	conjunctions map[string]depend.Conjunction
	chosen       map[string]*descriptor.Descriptor
	onStack      map[string]bool
	order        []*descriptor.Descriptor
	requested    map[string]bool
}

// Resolve computes the transaction plan for installing or updating the given
// package names (spec §4.5). Each name may be a bare pkgname or a
// "name op version" predicate, following the same grammar as run_depends
// entries.
func (r *Resolver) Resolve(requests []string) ([]Step, error) {
	res := &resolution{
		conjunctions: make(map[string]depend.Conjunction),
		chosen:       make(map[string]*descriptor.Descriptor),
		onStack:      make(map[string]bool),
		requested:    make(map[string]bool),
	}

	preds := make([]depend.Predicate, 0, len(requests))
	for _, req := range requests {
		p, err := depend.Parse(req)
		if err != nil {
			return nil, xbpserr.Wrap(xbpserr.NotFound, req, err)
		}
		preds = append(preds, p)
		res.requested[p.Name] = true
	}

	for _, p := range preds {
		if err := r.resolveOne(p, res); err != nil {
			return nil, err
		}
	}

	steps := make([]Step, 0, len(res.order))
	for _, desc := range res.order {
		action := StepAction(Install)
		if installed := r.registry.Find(desc.PkgName); installed != nil {
			if installed.Version == desc.Version {
				action = Keep
			} else {
				action = Upgrade
			}
		}
		steps = append(steps, Step{
			Action:     action,
			Descriptor: desc,
			Automatic:  !res.requested[desc.PkgName],
		})
	}
	return steps, nil
}

// resolveOne satisfies predicate p, recursing into its run_depends (spec
// §4.5 steps 2-5). It is the core of a depth-first, stack-tracked walk that
// detects cycles and accumulates per-name constraint conjunctions.
func (r *Resolver) resolveOne(p depend.Predicate, res *resolution) error {
	name := p.Name

	existing, have := res.conjunctions[name]
	if have {
		existing.Predicates = append(existing.Predicates, p)
	} else {
		existing = depend.Intersect(name, []depend.Predicate{p})
	}
	res.conjunctions[name] = existing

	if chosen, ok := res.chosen[name]; ok {
		if !existing.Satisfies(chosen.Version) {
			return xbpserr.New(xbpserr.UnsatisfiableConstraint, name,
				"no single version of %q can satisfy %s", name, existing.String())
		}
		return nil
	}

	if res.onStack[name] {
		return xbpserr.New(xbpserr.Cycle, name, "dependency cycle detected at %q", name)
	}
	res.onStack[name] = true
	defer delete(res.onStack, name)

	desc, err := r.findBest(name, existing)
	if err != nil {
		return err
	}

	for _, depText := range desc.RunDepends {
		depPred, err := depend.Parse(depText)
		if err != nil {
			return xbpserr.Wrap(xbpserr.NotFound, desc.PkgName, fmt.Errorf("%s: %w", desc.PkgName, err))
		}
		if err := r.resolveOne(depPred, res); err != nil {
			return err
		}
	}

	res.chosen[name] = desc
	res.order = append(res.order, desc)
	return nil
}

// findBest scans every repository for the highest-version descriptor
// satisfying conj, breaking ties by repository priority (earlier entries in
// r.repos win), and falls back to the installed registry so that an
// already-installed package that no longer appears in any repository index
// can still anchor a dependency (spec §4.5 step 1, step 3). A name that is
// known somewhere but has no version satisfying conj is reported as
// UnsatisfiableConstraint; a name known nowhere as NotFound.
func (r *Resolver) findBest(name string, conj depend.Conjunction) (*descriptor.Descriptor, error) {
	var best *descriptor.Descriptor
	present := false
	for _, repo := range r.repos {
		d := repo.Find(name)
		if d == nil {
			continue
		}
		present = true
		if !conj.Satisfies(d.Version) {
			continue
		}
		if best == nil || version.Compare(d.Version, best.Version) > 0 {
			best = d
		}
	}
	if best != nil {
		return best, nil
	}
	if installed := r.registry.Find(name); installed != nil {
		if conj.Satisfies(installed.Version) {
			return &installed.Descriptor, nil
		}
		present = true
	}
	if present {
		return nil, xbpserr.New(xbpserr.UnsatisfiableConstraint, name, "no available version of %q satisfies %s", name, conj.String())
	}
	return nil, xbpserr.New(xbpserr.NotFound, name, "no repository provides %q satisfying %s", name, conj.String())
}
