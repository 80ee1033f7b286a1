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
)

// IndexVersion is the only "pkgindex-version" value this implementation
// understands (spec §3).
const IndexVersion = "1.0"

// Index is the repository-level document enumerating descriptors for one
// on-disk archive collection (spec §3).
type Index struct {
	docset
	PkgIndexVersion string
	LocationLocal   string
}

// NewIndex creates a fresh, empty index rooted at locationLocal (spec §4.4
// step 4: "freshly created with pkgindex-version=1.0 and location-local=D").
func NewIndex(locationLocal string) *Index {
	return &Index{PkgIndexVersion: IndexVersion, LocationLocal: locationLocal}
}

// Find looks up a descriptor by pkgname (spec §4.3).
func (idx *Index) Find(pkgname string) *descriptor.Descriptor {
	return idx.find(pkgname)
}

// Remove deletes the descriptor for pkgname, reporting whether it existed
// (spec §4.3).
func (idx *Index) Remove(pkgname string) bool {
	return idx.remove(pkgname)
}

// Add inserts a new descriptor, failing with xbpserr.Duplicate if pkgname
// already has one (spec §4.3, I1).
func (idx *Index) Add(d *descriptor.Descriptor) error {
	return idx.add(d)
}

// ReplaceIfNewer inserts d, replacing any existing descriptor of the same
// pkgname only if d.Version compares strictly greater (spec §4.3, §4.4).
func (idx *Index) ReplaceIfNewer(d *descriptor.Descriptor) ReplaceResult {
	return idx.replaceIfNewer(d)
}

// Packages returns every descriptor currently in the index.
func (idx *Index) Packages() []*descriptor.Descriptor {
	return idx.all()
}

// TotalPkgs returns the cached package count (I2: always equal to
// len(Packages()), maintained by construction since every mutator goes
// through docset).
func (idx *Index) TotalPkgs() int {
	return len(idx.all())
}

// ToNode renders the index as a plist dictionary (spec §3).
func (idx *Index) ToNode() *plist.Dict {
	n := plist.NewDict()
	n.Set("pkgindex-version", idx.PkgIndexVersion)
	n.Set("location-local", idx.LocationLocal)
	arr := plist.NewArray()
	for _, d := range idx.Packages() {
		arr.Append(d.ToNode())
	}
	n.Set("packages", arr)
	n.Set("total-pkgs", uint64(idx.TotalPkgs()))
	return n
}

// IndexFromNode parses a repository-index document.
func IndexFromNode(n *plist.Dict) (*Index, error) {
	idx := &Index{}
	idx.PkgIndexVersion, _ = n.GetString("pkgindex-version")
	idx.LocationLocal, _ = n.GetString("location-local")

	if arr, ok := n.GetArray("packages"); ok {
		for _, item := range arr.Items() {
			d, ok := item.(*plist.Dict)
			if !ok {
				continue
			}
			desc, err := descriptor.FromNode(d)
			if err != nil {
				return nil, err
			}
			idx.descriptors = append(idx.descriptors, desc)
		}
	}
	return idx, nil
}
