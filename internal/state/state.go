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

// Package state implements the per-package lifecycle state machine of spec
// §4.6 (I6: every persisted state is in the enum, every transition follows
// the diagram).
package state

import (
	"github.com/holocm/holo-pkg/internal/xbpserr"
)

// State is a package's lifecycle state, persisted as a string in the
// registry.
type State string

// The states of spec §4.6. NotInstalled is implicit (a package absent from
// the registry altogether); it never appears as a persisted value, but is
// used as the zero value when reasoning about transitions.
const (
	NotInstalled State = ""
	Unpacked     State = "unpacked"
	Installed    State = "installed"
	Broken       State = "broken"
	ConfigFiles  State = "config-files"
)

// Valid reports whether s is one of the enum's values.
func (s State) Valid() bool {
	switch s {
	case NotInstalled, Unpacked, Installed, Broken, ConfigFiles:
		return true
	default:
		return false
	}
}

// transitions enumerates every arrow in spec §4.6's diagram.
var transitions = map[State]map[State]bool{
	NotInstalled: {Unpacked: true},
	Unpacked:     {Installed: true, Broken: true},
	Installed:    {ConfigFiles: true, NotInstalled: true, Unpacked: true},
	Broken:       {NotInstalled: true, Unpacked: true},
	ConfigFiles:  {NotInstalled: true, Unpacked: true},
}

// Transition validates a state change, returning xbpserr.StateInvalid if
// the arrow from -> to is not permitted by spec §4.6.
func Transition(pkgname string, from, to State) error {
	if !from.Valid() || !to.Valid() {
		return xbpserr.New(xbpserr.StateInvalid, pkgname, "unrecognized state")
	}
	if transitions[from][to] {
		return nil
	}
	return xbpserr.New(xbpserr.StateInvalid, pkgname, "cannot transition from %q to %q", from, to)
}
