// constants.go
package nix

const (
	// DefaultCacheURL is the official Nix binary cache
	DefaultCacheURL = "https://cache.nixos.org"

	// DefaultStoreDir is where Nix keeps store objects
	DefaultStoreDir = "/nix/store"

	// ShellFile is the nix-shell expression written by the builder
	ShellFile = "shell.nix"

	// EnvFile is the buildEnv expression written by the builder
	EnvFile = "env.nix"

	// WorkDir is the default build directory inside a project; it is never
	// part of the project source
	WorkDir = ".uenv"

	// resultLink is the out-link nix-build leaves in the work directory
	resultLink = ".uenv-result"

	// determinateProfileBin holds nix binaries on installs that keep them off PATH
	determinateProfileBin = "/nix/var/nix/profiles/default/bin"

	// CompressionXZ uses xz compression
	CompressionXZ = "xz"

	// CompressionBZip2 uses bzip2 compression
	CompressionBZip2 = "bzip2"

	// CompressionNone uses no compression
	CompressionNone = "none"
)
