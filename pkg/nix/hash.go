// hash.go
package nix

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"zombiezen.com/go/nix/nixbase32"
)

const sha256Prefix = "sha256:"

// EncodeBase32 encodes b in nix base32 (alphabet without e, o, u, t)
func EncodeBase32(b []byte) string {
	return nixbase32.EncodeToString(b)
}

// DecodeBase32 decodes a nix base32 string
func DecodeBase32(s string) ([]byte, error) {
	b, err := nixbase32.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid nix base32 %q: %w", s, err)
	}
	return b, nil
}

// FormatSHA256 renders a sha256 digest the way nix prints hashes
func FormatSHA256(digest []byte) string {
	return sha256Prefix + EncodeBase32(digest)
}

// ParseSHA256 parses "sha256:<base32>" (the prefix is optional) into a digest
func ParseSHA256(s string) ([]byte, error) {
	digest, err := DecodeBase32(strings.TrimPrefix(s, sha256Prefix))
	if err != nil {
		return nil, err
	}
	if len(digest) != sha256.Size {
		return nil, fmt.Errorf("sha256 hash has %d bytes, want %d", len(digest), sha256.Size)
	}
	return digest, nil
}
