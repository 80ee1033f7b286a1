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

// Package lock implements the single-writer advisory lock over one
// installation root's registry (spec §5), using github.com/gofrs/flock for
// the underlying flock(2) call.
package lock

import (
	"os"

	"github.com/gofrs/flock"

	"github.com/holocm/holo-pkg/internal/xbpserr"
)

// Lock guards one installation root against concurrent writers.
type Lock struct {
	f *flock.Flock
}

// Acquire takes an exclusive, non-blocking lock on path (the root's
// ".regpkgdb.lock" file per root.Handle.LockPath). A second process already
// holding the lock causes an immediate xbpserr.IO failure rather than a
// block, matching spec §5's "refuses to start a second concurrent
// transaction" requirement.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(parentDir(path), 0755); err != nil {
		return nil, xbpserr.Wrap(xbpserr.IO, "", err)
	}

	f := flock.New(path)
	ok, err := f.TryLock()
	if err != nil {
		return nil, xbpserr.Wrap(xbpserr.IO, "", err)
	}
	if !ok {
		return nil, xbpserr.New(xbpserr.IO, "",
			"another holo-pkg process is already operating on this root (lock at %s)", path)
	}
	return &Lock{f: f}, nil
}

// Release drops the lock. It is safe to call on a nil *Lock.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return l.f.Unlock()
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
