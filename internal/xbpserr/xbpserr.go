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

// Package xbpserr defines the error kinds surfaced by the installation-database
// core (spec §7) and a small collector for aggregating independent failures.
package xbpserr

import (
	"errors"
	"fmt"
)

// Kind identifies which of the core's distinct failure modes an Error carries.
type Kind string

// The error kinds surfaced by the core (spec §7).
const (
	NotFound               Kind = "not-found"
	UnsatisfiableConstraint Kind = "unsatisfiable-constraint"
	Cycle                  Kind = "cycle"
	Integrity              Kind = "integrity"
	ScriptFailed           Kind = "script-failed"
	StateInvalid           Kind = "state-invalid"
	IO                     Kind = "io"
	MalformedPlist         Kind = "malformed-plist"
	Duplicate              Kind = "duplicate"
)

// Error is a Kind-tagged error. Its message names the kind and, when set,
// the failing package before the underlying error text (spec §7).
type Error struct {
	Kind    Kind
	Package string
	Err     error
}

func (e *Error) Error() string {
	if e.Package == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Package, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an *Error with a plain message.
func New(kind Kind, pkgname string, format string, args ...interface{}) error {
	var err error
	if len(args) > 0 {
		err = fmt.Errorf(format, args...)
	} else {
		err = errors.New(format)
	}
	return &Error{Kind: kind, Package: pkgname, Err: err}
}

// Wrap attaches a Kind to an existing error.
func Wrap(kind Kind, pkgname string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Package: pkgname, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Collector is a wrapper around []error that simplifies code where multiple
// independent errors can happen and need to be aggregated (used by
// "reconfigure all", which reports the first collected error).
type Collector struct {
	Errors []error
}

// Add adds an error to this collector. If nil is given, nothing happens, so
// you can safely write
//
//	c.Add(operationThatMightFail())
func (c *Collector) Add(err error) {
	if err != nil {
		c.Errors = append(c.Errors, err)
	}
}

// Addf adds an error to this collector by passing the arguments into
// fmt.Errorf().
func (c *Collector) Addf(format string, args ...interface{}) {
	c.Errors = append(c.Errors, fmt.Errorf(format, args...))
}

// HasErrors reports whether any error was collected.
func (c *Collector) HasErrors() bool {
	return len(c.Errors) > 0
}
