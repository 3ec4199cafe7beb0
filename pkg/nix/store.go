package nix

import (
	"fmt"
	"strings"

	znix "zombiezen.com/go/nix"
)

// ValidateStorePath checks p is a well formed store object path
func ValidateStorePath(p string) error {
	if _, err := znix.ParseStorePath(p); err != nil {
		return fmt.Errorf("invalid store path %q: %w", p, err)
	}
	return nil
}

// StoreDigest returns the hash part of a store path, as used for narinfo lookups
func StoreDigest(p string) (string, error) {
	sp, err := znix.ParseStorePath(p)
	if err != nil {
		return "", fmt.Errorf("invalid store path %q: %w", p, err)
	}
	return sp.Digest(), nil
}

// StoreDirectory extracts the store object from a path within it:
//
//	"/nix/store/abc-env/bin/cargo" -> "/nix/store/abc-env"
func StoreDirectory(p string) (string, error) {
	prefix := DefaultStoreDir + "/"
	if !strings.HasPrefix(p, prefix) {
		return "", fmt.Errorf("path %q is not under %s", p, prefix)
	}
	rest := p[len(prefix):]
	if rest == "" {
		return "", fmt.Errorf("path %q has no store entry name", p)
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return p[:len(prefix)+i], nil
	}
	return p, nil
}
