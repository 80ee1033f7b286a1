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

// Package config reads the optional /etc/holo-pkg.conf settings file that supplies
// defaults for flags the CLI layer does not otherwise receive (SPEC_FULL.md
// §0 ambient stack), using the same github.com/BurntSushi/toml decoder the
// teacher uses for its package definitions.
package config

import (
	"io/ioutil"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/holocm/holo-pkg/internal/xbpserr"
)

// Settings only needs a nice exported name for the TOML parser to produce
// more meaningful error messages on malformed input data.
type Settings struct {
	Root         string
	Architecture string
	Repositories []string
	SyncOnStart  bool
}

// defaultPath is where Load looks for the settings file when it is given an
// empty path.
const defaultPath = "/etc/holo-pkg.conf"

// Load reads settings from path (or defaultPath if path is empty). A missing
// file yields zero-value Settings rather than an error, since every field
// has a sensible default applied by the caller.
func Load(path string) (Settings, error) {
	if path == "" {
		path = defaultPath
	}

	blob, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, nil
		}
		return Settings{}, xbpserr.Wrap(xbpserr.IO, "", err)
	}

	var s Settings
	if _, err := toml.Decode(string(blob), &s); err != nil {
		return Settings{}, xbpserr.Wrap(xbpserr.MalformedPlist, "", err)
	}
	return s, nil
}

// ResolveRoot returns the effective root directory: an explicit flag value
// wins, then the settings file, then "/".
func (s Settings) ResolveRoot(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if s.Root != "" {
		return s.Root
	}
	return "/"
}

// ResolveArchitecture returns the effective host architecture: an explicit
// flag value wins, then the settings file. If neither is set it returns the
// empty string; it does not derive a value from the running machine.
func (s Settings) ResolveArchitecture(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return s.Architecture
}
