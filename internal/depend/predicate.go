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

// Package depend parses and evaluates the dependency predicates used in
// run_depends entries (spec §3): "name op version" or a bare "name" meaning
// any version.
package depend

import (
	"fmt"
	"strings"

	"github.com/holocm/holo-pkg/internal/version"
)

// Operators recognized in a predicate, ordered so that two-character
// operators are tried before their single-character prefixes ("<=" before
// "<").
var operators = []string{"<=", ">=", "<", ">", "="}

// Predicate is a parsed dependency expression over (name, comparison, version).
type Predicate struct {
	Name       string
	Op         string // "", "<", "<=", "=", ">=", ">" ("" means any version)
	Version    string
	sourceText string
}

// String returns the predicate in its original "name op version" form.
func (p Predicate) String() string {
	if p.sourceText != "" {
		return p.sourceText
	}
	if p.Op == "" {
		return p.Name
	}
	return p.Name + p.Op + p.Version
}

// Parse parses one run_depends entry. A bare name (no operator) is
// interpreted as "any version".
func Parse(text string) (Predicate, error) {
	for _, op := range operators {
		if idx := strings.Index(text, op); idx > 0 {
			return Predicate{
				Name:       text[:idx],
				Op:         op,
				Version:    text[idx+len(op):],
				sourceText: text,
			}, nil
		}
	}
	if text == "" {
		return Predicate{}, fmt.Errorf("empty dependency predicate")
	}
	return Predicate{Name: text, sourceText: text}, nil
}

// ParseAll parses a whole run_depends list, stopping at the first malformed
// entry.
func ParseAll(texts []string) ([]Predicate, error) {
	out := make([]Predicate, 0, len(texts))
	for _, t := range texts {
		p, err := Parse(t)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Satisfies reports whether candidateVersion satisfies the predicate.
func (p Predicate) Satisfies(candidateVersion string) bool {
	if p.Op == "" {
		return true
	}
	cmp := version.Compare(candidateVersion, p.Version)
	switch p.Op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case "=":
		return cmp == 0
	case ">=":
		return cmp >= 0
	case ">":
		return cmp > 0
	default:
		return false
	}
}

// Intersect combines every predicate imposed on name into one Conjunction
// (spec §4.5 step 4: "constraint intersection"). The predicates are not
// merged symbolically: Conjunction.Satisfies evaluates each of them against
// the candidate version and is true iff all of them are. An empty
// intersection is not detected here; it shows up as no candidate satisfying
// the conjunction.
func Intersect(name string, predicates []Predicate) Conjunction {
	return Conjunction{Name: name, Predicates: predicates}
}

// Conjunction is the logical AND of every predicate imposed on one
// dependency name by different dependents (spec §4.5 step 4).
type Conjunction struct {
	Name       string
	Predicates []Predicate
}

// Satisfies reports whether candidateVersion satisfies every predicate in
// the conjunction.
func (c Conjunction) Satisfies(candidateVersion string) bool {
	for _, p := range c.Predicates {
		if !p.Satisfies(candidateVersion) {
			return false
		}
	}
	return true
}

// String renders the conjunction for error messages.
func (c Conjunction) String() string {
	parts := make([]string, len(c.Predicates))
	for i, p := range c.Predicates {
		parts[i] = p.String()
	}
	return strings.Join(parts, " && ")
}
