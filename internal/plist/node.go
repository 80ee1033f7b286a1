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

// Package plist implements the schema-less, persisted key/value tree that
// backs every document in this repository (repository indexes and the
// installed-package registry, spec §3/§4.2). It is a thin, typed wrapper
// around github.com/DHowett/go-plist, which already speaks the Apple/NetBSD
// property-list formats this project's on-disk documents use.
package plist

import (
	"fmt"
)

// Dict is an ordered-by-insertion dictionary from string keys to Nodes.
// Go's map does not preserve order, so Dict keeps a parallel key slice that
// Keys reports. Serialization does not use that order: Store writes keys in
// lexical order (see orderedDict in store.go).
type Dict struct {
	keys   []string
	values map[string]interface{}
}

// NewDict returns an empty Dict.
func NewDict() *Dict {
	return &Dict{values: make(map[string]interface{})}
}

// Get looks up key and reports whether it was present.
func (d *Dict) Get(key string) (interface{}, bool) {
	v, ok := d.values[key]
	return v, ok
}

// GetString is a convenience accessor for a required string field.
func (d *Dict) GetString(key string) (string, bool) {
	v, ok := d.values[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetUint64 is a convenience accessor for a required integer field.
func (d *Dict) GetUint64(key string) (uint64, bool) {
	v, ok := d.values[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case uint64:
		return n, true
	case int64:
		return uint64(n), true
	case int:
		return uint64(n), true
	}
	return 0, false
}

// GetBool is a convenience accessor for a boolean field.
func (d *Dict) GetBool(key string) (bool, bool) {
	v, ok := d.values[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// GetArray is a convenience accessor for an array field.
func (d *Dict) GetArray(key string) (*Array, bool) {
	v, ok := d.values[key]
	if !ok {
		return nil, false
	}
	a, ok := v.(*Array)
	return a, ok
}

// GetDict is a convenience accessor for a nested dictionary field.
func (d *Dict) GetDict(key string) (*Dict, bool) {
	v, ok := d.values[key]
	if !ok {
		return nil, false
	}
	nd, ok := v.(*Dict)
	return nd, ok
}

// Set stores value under key, preserving first-insertion order for new keys
// and leaving the position of existing keys unchanged (so that replacing a
// value in place does not reshuffle Keys).
func (d *Dict) Set(key string, value interface{}) {
	if d.values == nil {
		d.values = make(map[string]interface{})
	}
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Delete removes key, if present.
func (d *Dict) Delete(key string) {
	if _, exists := d.values[key]; !exists {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the dictionary's keys in insertion order.
func (d *Dict) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Array is an ordered sequence of Nodes.
type Array struct {
	items []interface{}
}

// NewArray returns an empty Array, optionally pre-populated.
func NewArray(items ...interface{}) *Array {
	return &Array{items: items}
}

// Len returns the number of elements.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.items)
}

// At returns the element at index i.
func (a *Array) At(i int) interface{} {
	return a.items[i]
}

// Append adds an element to the end of the array.
func (a *Array) Append(item interface{}) {
	a.items = append(a.items, item)
}

// Items returns the underlying slice; callers must not retain it across
// further mutation of the Array.
func (a *Array) Items() []interface{} {
	return a.items
}

// RemoveAt deletes the element at index i, preserving order.
func (a *Array) RemoveAt(i int) {
	a.items = append(a.items[:i], a.items[i+1:]...)
}

// StringItems returns the array's elements as strings, erroring if any
// element is not a string.
func (a *Array) StringItems() ([]string, error) {
	out := make([]string, 0, a.Len())
	for _, item := range a.items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected string array element, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}

// StringArray builds an *Array of string elements.
func StringArray(items []string) *Array {
	a := NewArray()
	for _, s := range items {
		a.Append(s)
	}
	return a
}
