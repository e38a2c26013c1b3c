package update

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// ChecksumMismatchError reports a downloaded file whose digest does not
// match the published checksum. Nothing touches the installed binary
// after this error.
type ChecksumMismatchError struct {
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// ExtractChecksum pulls the SHA-256 digest out of a checksum asset body.
// The body is plaintext holding a 64-character hexadecimal run, optionally
// followed by whitespace and a filename, both tolerated and ignored.
func ExtractChecksum(body string) ([]byte, error) {
	runStart := -1
	for i := 0; i <= len(body); i++ {
		if i < len(body) && isHexDigit(body[i]) {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			if i-runStart == sha256.Size*2 {
				sum, err := hex.DecodeString(body[runStart:i])
				if err != nil {
					return nil, fmt.Errorf("invalid checksum: %w", err)
				}
				return sum, nil
			}
			runStart = -1
		}
	}
	return nil, fmt.Errorf("no %d-character hexadecimal digest found in checksum asset", sha256.Size*2)
}

// VerifyFileChecksum computes the SHA-256 digest of the file's full
// contents and compares it byte-for-byte against expected.
func VerifyFileChecksum(path string, expected []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s for verification: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}

	actual := h.Sum(nil)
	if !bytes.Equal(actual, expected) {
		return &ChecksumMismatchError{
			Expected: hex.EncodeToString(expected),
			Actual:   hex.EncodeToString(actual),
		}
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
