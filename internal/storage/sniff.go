package storage

import (
	"github.com/h2non/filetype"
)

// SniffLen is how many leading bytes Sniff needs.
const SniffLen = 261

// Sniff detects an image type from the first bytes of a file. ok is false
// for anything that is not a recognised image.
func Sniff(head []byte) (ext, mime string, ok bool) {
	if len(head) > SniffLen {
		head = head[:SniffLen]
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || !filetype.IsImage(head) {
		return "", "", false
	}
	return kind.Extension, kind.MIME.Value, true
}
