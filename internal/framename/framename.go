// Package framename encodes a batch key and a time offset into screenshot
// filenames and recovers them again. The string form only exists at the
// boundary with ffmpeg and the recognition service; everything else passes
// a Key around.
package framename

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	Prefix    = "__sh"
	Extension = ".png"
)

var pattern = regexp.MustCompile(`^` + Prefix + `-(\S*)-(\d+(?:\.\d+)?)\.png$`)

// Key identifies one screenshot within a batch.
type Key struct {
	Batch  string
	Offset float64
}

// String renders the key as a filename.
func (k Key) String() string {
	return Encode(k.Batch, k.Offset)
}

// Encode returns "__sh-<batchKey>-<offset>.png".
func Encode(batchKey string, offset float64) string {
	return fmt.Sprintf("%s-%s-%s%s", Prefix, batchKey, FormatOffset(offset), Extension)
}

// FormatOffset renders seconds in the shortest form that parses back exactly.
func FormatOffset(offset float64) string {
	return strconv.FormatFloat(offset, 'f', -1, 64)
}

// Parse recovers the key from a filename or path. Directories are ignored.
func Parse(filename string) (Key, bool) {
	m := pattern.FindStringSubmatch(filepath.Base(filename))
	if m == nil {
		return Key{}, false
	}
	offset, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Key{}, false
	}
	return Key{Batch: m[1], Offset: offset}, true
}

// Decode returns the offset embedded in filename, or false when the name
// does not have the screenshot shape.
func Decode(filename string) (float64, bool) {
	k, ok := Parse(filename)
	return k.Offset, ok
}

// DecodePtr is Decode for optional JSON fields.
func DecodePtr(filename string) *float64 {
	offset, ok := Decode(filename)
	if !ok {
		return nil
	}
	return &offset
}

// CleanKey makes a batch key safe to embed in a filename: whitespace and
// path separators become underscores.
func CleanKey(key string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, key)
}
