package dmarc

import (
	"path/filepath"
	"strconv"
	"strings"
)

// SortKey returns the numeric ordering token of a report filename.
//
//	filename = receiver "!" policy-domain "!" begin-timestamp
//	             "!" end-timestamp [ "!" unique-id ] "." extension
//
// The begin timestamp is used. Filenames without a numeric third segment
// sort as 0.
func SortKey(filename string) int64 {
	filename = filepath.Base(filename)
	parts := strings.Split(filename, "!")
	if len(parts) < 3 {
		return 0
	}
	token := parts[2]
	// "receiver!domain!begin.xml" carries the extension on the token
	if i := strings.IndexByte(token, '.'); i >= 0 {
		token = token[:i]
	}
	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
