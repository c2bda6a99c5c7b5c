package fs

import (
	"bytes"
	"errors"
	iofs "io/fs"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// fingerprint is compared before the full contents so most changes are
// detected without a byte-by-byte pass.
var fingerprint = xxhash.Sum64

// Matches reports whether the file at path already holds exactly content.
// A missing file does not match.
func Matches(path string, content []byte) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, iofs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to stat file"), "path", path)
	}
	if !info.Mode().IsRegular() || info.Size() != int64(len(content)) {
		return false, nil
	}
	existing, err := os.ReadFile(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, "failed to read file"), "path", path)
	}
	if fingerprint(existing) != fingerprint(content) {
		return false, nil
	}
	return bytes.Equal(existing, content), nil
}
