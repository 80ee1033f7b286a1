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

// Package descriptor implements the package descriptor (spec §3): the
// dictionary describing one package's identity, dependencies, and (in a
// repository index) archive locator.
package descriptor

import (
	"fmt"

	"github.com/holocm/holo-pkg/internal/plist"
)

// Descriptor is the typed view of one package descriptor.
type Descriptor struct {
	PkgName      string
	Version      string
	ShortDesc    string
	Architecture string
	RunDepends   []string

	// Filename, FilenameSHA256 and FilenameSize are only populated for
	// descriptors that live in a repository index (spec §3).
	Filename       string
	FilenameSHA256 string
	FilenameSize   uint64
}

// Pkgver returns the derived "pkgname-version" identifier stored alongside
// the descriptor's other fields (spec §3).
func (d *Descriptor) Pkgver() string {
	return d.PkgName + "-" + d.Version
}

// ToNode renders the descriptor as a plist dictionary.
func (d *Descriptor) ToNode() *plist.Dict {
	n := plist.NewDict()
	n.Set("pkgname", d.PkgName)
	n.Set("version", d.Version)
	n.Set("pkgver", d.Pkgver())
	n.Set("short_desc", d.ShortDesc)
	n.Set("architecture", d.Architecture)
	n.Set("run_depends", plist.StringArray(d.RunDepends))
	if d.Filename != "" {
		n.Set("filename", d.Filename)
		n.Set("filename-sha256", d.FilenameSHA256)
		n.Set("filename-size", d.FilenameSize)
	}
	return n
}

// FromNode parses a descriptor out of a plist dictionary.
func FromNode(n *plist.Dict) (*Descriptor, error) {
	d := &Descriptor{}
	var ok bool

	if d.PkgName, ok = n.GetString("pkgname"); !ok {
		return nil, fmt.Errorf("descriptor is missing required field \"pkgname\"")
	}
	if d.Version, ok = n.GetString("version"); !ok {
		return nil, fmt.Errorf("descriptor %q is missing required field \"version\"", d.PkgName)
	}
	if d.ShortDesc, ok = n.GetString("short_desc"); !ok {
		return nil, fmt.Errorf("descriptor %q is missing required field \"short_desc\"", d.PkgName)
	}
	if d.Architecture, ok = n.GetString("architecture"); !ok {
		return nil, fmt.Errorf("descriptor %q is missing required field \"architecture\"", d.PkgName)
	}

	if arr, ok := n.GetArray("run_depends"); ok {
		deps, err := arr.StringItems()
		if err != nil {
			return nil, fmt.Errorf("descriptor %q has malformed \"run_depends\": %w", d.PkgName, err)
		}
		d.RunDepends = deps
	}

	d.Filename, _ = n.GetString("filename")
	d.FilenameSHA256, _ = n.GetString("filename-sha256")
	d.FilenameSize, _ = n.GetUint64("filename-size")

	return d, nil
}

// Clone returns a deep-enough copy for safe independent mutation of
// RunDepends.
func (d *Descriptor) Clone() *Descriptor {
	clone := *d
	clone.RunDepends = append([]string(nil), d.RunDepends...)
	return &clone
}
