package helper

import (
	"bytes"
)

// ArchiveType is the container format of a report payload.
type ArchiveType int

const (
	ArchiveNone ArchiveType = iota
	ArchiveGzip
	ArchiveZip
)

func (a ArchiveType) String() string {
	switch a {
	case ArchiveGzip:
		return "gzip"
	case ArchiveZip:
		return "zip"
	default:
		return "none"
	}
}

// https://en.wikipedia.org/wiki/List_of_file_signatures
var magicTable = []struct {
	magic []byte
	kind  ArchiveType
}{
	{[]byte{31, 139}, ArchiveGzip},     // .gz "\x1f\x8b"
	{[]byte{80, 75, 3, 4}, ArchiveZip}, // .zip "\x50\x4B\x03\x04"
	{[]byte{80, 75, 5, 6}, ArchiveZip}, // .zip "\x50\x4B\x05\x06"
	{[]byte{80, 75, 7, 8}, ArchiveZip}, // .zip "\x50\x4B\x07\x08"
}

// DetectArchive looks at the first bytes of content and reports which
// archive format, if any, it starts with.
func DetectArchive(content []byte) ArchiveType {
	sliceEnd := min(len(content), 10)
	head := content[0:sliceEnd]

	for _, m := range magicTable {
		if bytes.HasPrefix(head, m.magic) {
			return m.kind
		}
	}

	return ArchiveNone
}
