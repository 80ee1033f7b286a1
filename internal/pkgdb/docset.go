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

// Package pkgdb implements the package-index model (spec §4.3): thin typed
// accessors over the plist store shared by repository indexes and the
// installed-package registry ("regpkgdb"). Callers never reach into the
// underlying plist nodes directly for Find/Remove/Add/ReplaceIfNewer.
package pkgdb

import (
	"github.com/holocm/holo-pkg/internal/descriptor"
	"github.com/holocm/holo-pkg/internal/version"
	"github.com/holocm/holo-pkg/internal/xbpserr"
)

// ReplaceResult describes the outcome of ReplaceIfNewer.
type ReplaceResult int

const (
	// Added means no descriptor with that pkgname existed before.
	Added ReplaceResult = iota
	// Replaced means a strictly older descriptor was removed and this one
	// appended in its place.
	Replaced
	// Kept means the existing descriptor's version was >= the candidate's,
	// so nothing changed (spec §4.4: "tie-break on equal version: keep
	// existing entry").
	Kept
)

// docset is the generic "array of descriptors keyed by pkgname" operation
// set embedded by Index (spec §4.3). Registry keeps its own slice of
// InstalledDescriptor and does not use it.
type docset struct {
	descriptors []*descriptor.Descriptor
}

func (s *docset) find(pkgname string) *descriptor.Descriptor {
	for _, d := range s.descriptors {
		if d.PkgName == pkgname {
			return d
		}
	}
	return nil
}

func (s *docset) indexOf(pkgname string) int {
	for i, d := range s.descriptors {
		if d.PkgName == pkgname {
			return i
		}
	}
	return -1
}

func (s *docset) remove(pkgname string) bool {
	i := s.indexOf(pkgname)
	if i < 0 {
		return false
	}
	s.descriptors = append(s.descriptors[:i], s.descriptors[i+1:]...)
	return true
}

func (s *docset) add(d *descriptor.Descriptor) error {
	if s.find(d.PkgName) != nil {
		return xbpserr.New(xbpserr.Duplicate, d.PkgName, "a descriptor for %q already exists", d.PkgName)
	}
	s.descriptors = append(s.descriptors, d)
	return nil
}

func (s *docset) replaceIfNewer(d *descriptor.Descriptor) ReplaceResult {
	existing := s.find(d.PkgName)
	if existing == nil {
		s.descriptors = append(s.descriptors, d)
		return Added
	}
	if version.Compare(existing.Version, d.Version) < 0 {
		s.remove(d.PkgName)
		s.descriptors = append(s.descriptors, d)
		return Replaced
	}
	return Kept
}

func (s *docset) all() []*descriptor.Descriptor {
	return s.descriptors
}
