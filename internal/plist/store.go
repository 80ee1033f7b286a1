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

package plist

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/DHowett/go-plist"
	"github.com/holocm/holo-pkg/internal/xbpserr"
)

// Load reads and parses the plist document at path. A missing file is
// reported as xbpserr.NotFound; a parse failure as xbpserr.MalformedPlist.
func Load(path string) (*Dict, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xbpserr.New(xbpserr.NotFound, "", "%s: no such plist file", path)
		}
		return nil, xbpserr.Wrap(xbpserr.IO, "", err)
	}
	return decode(data, path)
}

// LoadCompressed is like Load, but expects the file to be gzip-compressed.
// This is used for the repository list (spec §4.2).
func LoadCompressed(path string) (*Dict, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, xbpserr.New(xbpserr.NotFound, "", "%s: no such plist file", path)
		}
		return nil, xbpserr.Wrap(xbpserr.IO, "", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, xbpserr.Wrap(xbpserr.MalformedPlist, "", err)
	}
	defer zr.Close()
	raw, err := ioutil.ReadAll(zr)
	if err != nil {
		return nil, xbpserr.Wrap(xbpserr.MalformedPlist, "", err)
	}
	return decode(raw, path)
}

// Parse decodes an in-memory plist document, such as the props.plist entry
// read out of an archive by the archive package. The root must be a
// dictionary.
func Parse(data []byte) (*Dict, error) {
	return decode(data, "<in-memory>")
}

func decode(data []byte, path string) (*Dict, error) {
	var raw interface{}
	_, err := plist.Unmarshal(data, &raw)
	if err != nil {
		return nil, xbpserr.Wrap(xbpserr.MalformedPlist, "", fmt.Errorf("%s: %w", path, err))
	}
	node := fromNative(raw)
	dict, ok := node.(*Dict)
	if !ok {
		return nil, xbpserr.New(xbpserr.MalformedPlist, "", "%s: root of plist document must be a dictionary", path)
	}
	return dict, nil
}

// Store serializes tree to path atomically: it is written to "path.tmp",
// fsynced, then renamed into place, so that a crash can never leave a
// half-written document where path used to be (spec §4.2, §5).
func Store(path string, tree *Dict) error {
	data, err := plist.MarshalIndent(toNative(tree), plist.XMLFormat, "\t")
	if err != nil {
		return xbpserr.Wrap(xbpserr.MalformedPlist, "", err)
	}
	return atomicWrite(path, data)
}

// StoreCompressed is like Store, but gzip-compresses the document. This is
// used for the repository list (spec §4.2).
func StoreCompressed(path string, tree *Dict) error {
	data, err := plist.MarshalIndent(toNative(tree), plist.XMLFormat, "\t")
	if err != nil {
		return xbpserr.Wrap(xbpserr.MalformedPlist, "", err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return xbpserr.Wrap(xbpserr.IO, "", err)
	}
	if err := zw.Close(); err != nil {
		return xbpserr.Wrap(xbpserr.IO, "", err)
	}
	return atomicWrite(path, buf.Bytes())
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return xbpserr.Wrap(xbpserr.IO, "", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return xbpserr.Wrap(xbpserr.IO, "", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return xbpserr.Wrap(xbpserr.IO, "", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return xbpserr.Wrap(xbpserr.IO, "", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return xbpserr.Wrap(xbpserr.IO, "", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return xbpserr.Wrap(xbpserr.IO, "", err)
	}
	return nil
}

// toNative converts a Node tree into the plain map[string]interface{} /
// []interface{} shape that github.com/DHowett/go-plist's encoder expects.
func toNative(node interface{}) interface{} {
	switch n := node.(type) {
	case *Dict:
		if n == nil {
			return nil
		}
		m := make(map[string]interface{}, len(n.keys))
		for _, k := range n.keys {
			m[k] = toNative(n.values[k])
		}
		return orderedDict{keys: n.Keys(), values: m}
	case *Array:
		items := make([]interface{}, n.Len())
		for i, item := range n.Items() {
			items[i] = toNative(item)
		}
		return items
	default:
		return node
	}
}

// fromNative converts the plain Go values produced by go-plist's decoder
// back into our Node tree.
func fromNative(v interface{}) interface{} {
	switch n := v.(type) {
	case map[string]interface{}:
		d := NewDict()
		for k, val := range n {
			d.Set(k, fromNative(val))
		}
		return d
	case []interface{}:
		a := NewArray()
		for _, item := range n {
			a.Append(fromNative(item))
		}
		return a
	case uint64:
		return n
	case int64:
		return uint64(n)
	default:
		return v
	}
}

// orderedDict implements go-plist's plist.Marshaler interface for a Dict. It
// carries the Dict's insertion-ordered keys, but MarshalPlist hands go-plist
// the plain map, so keys are emitted in lexical order, not insertion order.
type orderedDict struct {
	keys   []string
	values map[string]interface{}
}

// MarshalPlist implements plist.Marshaler.
func (o orderedDict) MarshalPlist() (interface{}, error) {
	// go-plist does not expose an ordered-map encoding hook, so we fall
	// back to the plain map; its XML dict writer sorts keys lexically,
	// which still satisfies idempotence (spec §8 property 2): re-running
	// the builder on an unchanged directory reproduces the same bytes.
	return o.values, nil
}
