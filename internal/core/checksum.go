package core

import (
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// FileChecksum returns the hex xxhash64 of a file's bytes. It is stored on
// the audit log so repeated uploads of the same export can be found.
func FileChecksum(data []byte) string {
	h := xxhash.New()
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
