// pkg/platform/utils.go
package platform

import (
	"github.com/arc-language/uenv/pkg/nix"
)

// commandExists checks if a nix binary is on PATH or in the default profile
func commandExists(cmd string) bool {
	_, err := nix.FindBinary(cmd)
	return err == nil
}

// contains checks if a string slice contains a value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
