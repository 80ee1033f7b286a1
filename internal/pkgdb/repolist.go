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
	"os"

	"github.com/holocm/holo-pkg/internal/plist"
	"github.com/holocm/holo-pkg/internal/xbpserr"
)

// RepositoryList is the ranked, deduplicated list of repository locations
// searched by the resolver (spec §3): earlier entries win priority ties.
type RepositoryList struct {
	Entries []string
}

// Add appends uri to the list, unless already present (spec §3: "entries
// are unique, case-sensitive").
func (l *RepositoryList) Add(uri string) bool {
	for _, e := range l.Entries {
		if e == uri {
			return false
		}
	}
	l.Entries = append(l.Entries, uri)
	return true
}

// Remove deletes uri from the list, reporting whether it was present.
func (l *RepositoryList) Remove(uri string) bool {
	for i, e := range l.Entries {
		if e == uri {
			l.Entries = append(l.Entries[:i], l.Entries[i+1:]...)
			return true
		}
	}
	return false
}

func (l *RepositoryList) toNode() *plist.Dict {
	n := plist.NewDict()
	n.Set("repository-list", plist.StringArray(l.Entries))
	return n
}

func repositoryListFromNode(n *plist.Dict) (*RepositoryList, error) {
	l := &RepositoryList{}
	if arr, ok := n.GetArray("repository-list"); ok {
		entries, err := arr.StringItems()
		if err != nil {
			return nil, err
		}
		l.Entries = entries
	}
	return l, nil
}

// LoadRepositoryList reads the compressed repository-list document at path.
// A missing file is treated as an empty list, matching a freshly
// initialized root.
func LoadRepositoryList(path string) (*RepositoryList, error) {
	n, err := plist.LoadCompressed(path)
	if err != nil {
		if xbpserr.Is(err, xbpserr.NotFound) {
			return &RepositoryList{}, nil
		}
		return nil, err
	}
	return repositoryListFromNode(n)
}

// StoreRepositoryList atomically writes the compressed repository-list
// document (spec §4.2).
func StoreRepositoryList(path string, l *RepositoryList) error {
	return plist.StoreCompressed(path, l.toNode())
}

// LoadRegistry reads the installed registry at path. A missing file is
// treated as a freshly initialized (empty) registry.
func LoadRegistry(path string) (*Registry, error) {
	n, err := plist.Load(path)
	if err != nil {
		if xbpserr.Is(err, xbpserr.NotFound) || os.IsNotExist(err) {
			return NewRegistry(), nil
		}
		return nil, err
	}
	return RegistryFromNode(n)
}

// StoreRegistry atomically writes the installed registry (spec §4.2, §5).
func StoreRegistry(path string, r *Registry) error {
	return plist.Store(path, r.ToNode())
}

// LoadIndex reads a repository index document at path. A missing file is
// reported as xbpserr.NotFound so the index builder can distinguish
// "create fresh" from "load existing" (spec §4.4).
func LoadIndex(path string) (*Index, error) {
	n, err := plist.Load(path)
	if err != nil {
		return nil, err
	}
	return IndexFromNode(n)
}

// StoreIndex atomically writes a repository index document.
func StoreIndex(path string, idx *Index) error {
	return plist.Store(path, idx.ToNode())
}
