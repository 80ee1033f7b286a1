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

// Package archive reads ".xbps" packages: compression-auto-detecting tar
// archives carrying the props.plist/files.plist metadata pair plus an
// optional INSTALL/REMOVE script (spec §6).
package archive

import (
	"archive/tar"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Fixed metadata entry names within an archive (spec §4.4, §6).
const (
	PropsFile = "props.plist"
	FilesFile = "files.plist"
)

// Script kinds, named after the archive entries that carry them (spec §6).
const (
	InstallScript = "INSTALL"
	RemoveScript  = "REMOVE"
)

// Entry is one file read out of an archive during unpack (spec §4.7(b)).
type Entry struct {
	Path     string
	Typeflag byte
	Mode     int64
	Linkname string
	Content  []byte // only for regular files
}

// Archive is the parsed, in-memory representation of one opened ".xbps"
// package: its two metadata files, its optional scripts, and the regular
// file/symlink/directory entries that belong in the target root.
type Archive struct {
	Props        []byte
	Files        []byte
	InstallShell []byte
	RemoveShell  []byte
	Entries      []Entry
}

// SHA256 computes the hex digest of data, as stored in a repository index
// descriptor's filename-sha256 field (spec §3).
func SHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Open decompresses and parses archive bytes into an Archive. Compression is
// auto-detected among gzip, bzip2, xz and zstd (spec §6); a plain
// uncompressed tar stream is also accepted.
func Open(data []byte) (*Archive, error) {
	r, err := decompress(data)
	if err != nil {
		return nil, fmt.Errorf("cannot auto-detect archive compression: %w", err)
	}

	a := &Archive{}
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed tar archive: %w", err)
		}

		switch hdr.Typeflag {
		case tar.TypeReg, tar.TypeRegA:
			body, err := ioutil.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("short read on archive entry %q: %w", hdr.Name, err)
			}
			switch baseName(hdr.Name) {
			case PropsFile:
				a.Props = body
			case FilesFile:
				a.Files = body
			case InstallScript:
				a.InstallShell = body
			case RemoveScript:
				a.RemoveShell = body
			default:
				a.Entries = append(a.Entries, Entry{
					Path: hdr.Name, Typeflag: hdr.Typeflag, Mode: hdr.Mode, Content: body,
				})
			}
		case tar.TypeDir, tar.TypeSymlink:
			a.Entries = append(a.Entries, Entry{
				Path: hdr.Name, Typeflag: hdr.Typeflag, Mode: hdr.Mode, Linkname: hdr.Linkname,
			})
		}
	}

	if a.Props == nil {
		return nil, fmt.Errorf("archive is missing required metadata entry %q", PropsFile)
	}
	return a, nil
}

func baseName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[i+1:]
		}
	}
	return name
}

// decompress auto-detects the compression kind from the leading magic bytes
// and returns a reader over the decompressed tar stream.
func decompress(data []byte) (io.Reader, error) {
	switch {
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		return gzip.NewReader(bytes.NewReader(data))
	case len(data) >= 3 && string(data[:3]) == "BZh":
		return bzip2.NewReader(bytes.NewReader(data)), nil
	case len(data) >= 6 && bytes.Equal(data[:6], []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}):
		return xz.NewReader(bytes.NewReader(data))
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0x28, 0xb5, 0x2f, 0xfd}):
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	default:
		// No recognized compression magic: assume a plain tar stream.
		return bytes.NewReader(data), nil
	}
}
