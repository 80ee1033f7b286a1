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

package pkgdb

import (
	"github.com/holocm/holo-pkg/internal/descriptor"
	"github.com/holocm/holo-pkg/internal/plist"
	"github.com/holocm/holo-pkg/internal/state"
	"github.com/holocm/holo-pkg/internal/xbpserr"
)

// FileEntry is one manifest entry recovered from an archive's files.plist
// (spec §3).
type FileEntry struct {
	Path   string
	SHA256 string
}

// InstalledDescriptor is a package descriptor plus the extra bookkeeping
// fields the registry needs (spec §3).
type InstalledDescriptor struct {
	descriptor.Descriptor
	State            state.State
	AutomaticInstall bool
	RequiredBy       []string // pkgvers of installed packages depending on this one
	Files            []FileEntry
}

// HasRequiredBy reports whether pkgver is already recorded in RequiredBy.
func (d *InstalledDescriptor) HasRequiredBy(pkgver string) bool {
	for _, r := range d.RequiredBy {
		if r == pkgver {
			return true
		}
	}
	return false
}

// AddRequiredBy records pkgver in RequiredBy, de-duplicated (spec §4.7
// Register phase).
func (d *InstalledDescriptor) AddRequiredBy(pkgver string) {
	if !d.HasRequiredBy(pkgver) {
		d.RequiredBy = append(d.RequiredBy, pkgver)
	}
}

// RemoveRequiredBy deletes pkgver from RequiredBy, if present.
func (d *InstalledDescriptor) RemoveRequiredBy(pkgver string) {
	for i, r := range d.RequiredBy {
		if r == pkgver {
			d.RequiredBy = append(d.RequiredBy[:i], d.RequiredBy[i+1:]...)
			return
		}
	}
}

// Registry is the installation-local document enumerating installed
// descriptors and their states (spec §3): the single source of truth for
// invariants I4–I6.
type Registry struct {
	installed []*InstalledDescriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Find looks up the installed descriptor for pkgname.
func (r *Registry) Find(pkgname string) *InstalledDescriptor {
	for _, d := range r.installed {
		if d.PkgName == pkgname {
			return d
		}
	}
	return nil
}

// All returns every installed descriptor.
func (r *Registry) All() []*InstalledDescriptor {
	return r.installed
}

// Insert adds a new installed descriptor, failing if one with the same
// pkgname already exists.
func (r *Registry) Insert(d *InstalledDescriptor) error {
	if r.Find(d.PkgName) != nil {
		return xbpserr.New(xbpserr.Duplicate, d.PkgName, "package %q is already registered", d.PkgName)
	}
	r.installed = append(r.installed, d)
	return nil
}

// Replace substitutes the installed descriptor for d.PkgName (spec §4.7
// unpack phase: "insert or replace the descriptor in the registry").
func (r *Registry) Replace(d *InstalledDescriptor) {
	for i, existing := range r.installed {
		if existing.PkgName == d.PkgName {
			r.installed[i] = d
			return
		}
	}
	r.installed = append(r.installed, d)
}

// Remove deletes the installed descriptor for pkgname entirely (spec §4.6:
// PURGE transitions to NotInstalled, which means absence from the
// registry).
func (r *Registry) Remove(pkgname string) {
	for i, d := range r.installed {
		if d.PkgName == pkgname {
			r.installed = append(r.installed[:i], r.installed[i+1:]...)
			return
		}
	}
}

// ToNode renders the registry as a plist dictionary (spec §3).
func (r *Registry) ToNode() *plist.Dict {
	n := plist.NewDict()
	arr := plist.NewArray()
	for _, d := range r.installed {
		node := d.Descriptor.ToNode()
		node.Set("state", string(d.State))
		node.Set("automatic-install", d.AutomaticInstall)
		node.Set("requiredby", plist.StringArray(d.RequiredBy))

		files := plist.NewArray()
		for _, f := range d.Files {
			fn := plist.NewDict()
			fn.Set("path", f.Path)
			fn.Set("sha256", f.SHA256)
			files.Append(fn)
		}
		node.Set("files", files)

		arr.Append(node)
	}
	n.Set("packages", arr)
	return n
}

// RegistryFromNode parses the installed registry document.
func RegistryFromNode(n *plist.Dict) (*Registry, error) {
	r := NewRegistry()
	arr, ok := n.GetArray("packages")
	if !ok {
		return r, nil
	}
	for _, item := range arr.Items() {
		dictNode, ok := item.(*plist.Dict)
		if !ok {
			continue
		}
		desc, err := descriptor.FromNode(dictNode)
		if err != nil {
			return nil, err
		}
		id := &InstalledDescriptor{Descriptor: *desc}
		if s, ok := dictNode.GetString("state"); ok {
			id.State = state.State(s)
		}
		id.AutomaticInstall, _ = dictNode.GetBool("automatic-install")
		if reqArr, ok := dictNode.GetArray("requiredby"); ok {
			id.RequiredBy, _ = reqArr.StringItems()
		}
		if filesArr, ok := dictNode.GetArray("files"); ok {
			for _, fitem := range filesArr.Items() {
				fdict, ok := fitem.(*plist.Dict)
				if !ok {
					continue
				}
				path, _ := fdict.GetString("path")
				sha, _ := fdict.GetString("sha256")
				id.Files = append(id.Files, FileEntry{Path: path, SHA256: sha})
			}
		}
		r.installed = append(r.installed, id)
	}
	return r, nil
}
