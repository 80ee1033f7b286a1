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

package main

import (
	"fmt"
	"os"

	"github.com/ogier/pflag"

	"github.com/holocm/holo-pkg/internal/repoindex"
)

func main() {
	fs := pflag.NewFlagSet("holo-pkg-index", pflag.ExitOnError)
	arch := fs.StringP("arch", "A", "x86_64", "host architecture subdirectory to scan")
	deleteName := fs.StringP("delete", "d", "", "remove pkgname from the index instead of scanning")
	if err := fs.Parse(os.Args[1:]); err != nil {
		showError(err)
		os.Exit(1)
	}
	args := fs.Args()

	if len(args) != 1 {
		fmt.Println("Usage: holo-pkg-index [-A ARCH] [-d PKGNAME] REPOSITORY-DIR")
		os.Exit(1)
	}
	dir := args[0]

	if *deleteName != "" {
		removed, err := repoindex.RemovePackage(dir, *deleteName)
		if err != nil {
			showError(err)
			os.Exit(1)
		}
		if removed {
			fmt.Printf("removed %s from index\n", *deleteName)
		} else {
			fmt.Printf("%s was not present in index\n", *deleteName)
		}
		return
	}

	var warnings int
	result, err := repoindex.Build(dir, *arch, func(err error) {
		warnings++
		fmt.Fprintf(os.Stderr, "\x1b[33m\x1b[1m::\x1b[0m %s\n", err.Error())
	})
	if err != nil {
		showError(err)
		os.Exit(1)
	}

	if result.NothingToDo {
		fmt.Println("nothing to do: no archives found")
		return
	}
	fmt.Printf("added %d, replaced %d, kept %d (total %d packages, %d warning(s))\n",
		result.Added, result.Replaced, result.Kept, result.Index.TotalPkgs(), warnings)
}

func showError(err error) {
	fmt.Fprintf(os.Stderr, "\x1b[31m\x1b[1m!!\x1b[0m %s\n", err.Error())
}
