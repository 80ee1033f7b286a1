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

// Package orphan finds automatically-installed packages that nothing
// depends on any more (spec §4.8, S6), by fixed-point iteration over the
// registry's requiredby sets.
package orphan

import (
	"github.com/holocm/holo-pkg/internal/pkgdb"
	"github.com/holocm/holo-pkg/internal/state"
)

// Find returns every installed package that is both AutomaticInstall and has
// an empty RequiredBy set, iterating to a fixed point: removing one orphan
// can turn its own automatically-installed dependencies into orphans too, so
// a single pass is not enough. Packages in state ConfigFiles (removed, with
// only their registry entry left) are never reported.
func Find(registry *pkgdb.Registry) []*pkgdb.InstalledDescriptor {
	pkgnameByPkgver := make(map[string]string)
	for _, d := range registry.All() {
		pkgnameByPkgver[d.Pkgver()] = d.PkgName
	}

	removed := make(map[string]bool)

	for {
		progress := false
		for _, d := range registry.All() {
			if removed[d.PkgName] || d.State == state.ConfigFiles {
				continue
			}
			if !d.AutomaticInstall {
				continue
			}
			if countLiveRequiredBy(d, pkgnameByPkgver, removed) > 0 {
				continue
			}
			removed[d.PkgName] = true
			progress = true
		}
		if !progress {
			break
		}
	}

	var out []*pkgdb.InstalledDescriptor
	for _, d := range registry.All() {
		if removed[d.PkgName] {
			out = append(out, d)
		}
	}
	return out
}

// countLiveRequiredBy counts entries in d's RequiredBy that have not
// themselves already been marked as orphaned this iteration.
func countLiveRequiredBy(d *pkgdb.InstalledDescriptor, pkgnameByPkgver map[string]string, removed map[string]bool) int {
	live := 0
	for _, pkgver := range d.RequiredBy {
		if !removed[pkgnameByPkgver[pkgver]] {
			live++
		}
	}
	return live
}
