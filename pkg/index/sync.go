package index

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const (
	DefaultRepoURL    = "https://github.com/arc-language/uenv-index"
	DefaultRepoBranch = "main"
)

// SyncOptions configures an index sync
type SyncOptions struct {
	RepoURL  string      // Default: DefaultRepoURL
	Branch   string      // Default: DefaultRepoBranch
	Progress io.Writer   // Clone progress output (optional)
	Logger   *log.Logger // Optional
}

// syncedPaths are copied from the repository root into the cache
var syncedPaths = []string{"deps", "overlays", "channels.toml"}

// Sync clones the index repository and copies the parts we need into cacheDir.
// Missing parts are skipped with a warning.
func Sync(ctx context.Context, cacheDir string, opts SyncOptions) error {
	if opts.RepoURL == "" {
		opts.RepoURL = DefaultRepoURL
	}
	if opts.Branch == "" {
		opts.Branch = DefaultRepoBranch
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	tempDir, err := os.MkdirTemp("", "uenv-clone-*")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	logger.Info("updating package index", "repo", opts.RepoURL, "branch", opts.Branch)

	_, err = git.PlainCloneContext(ctx, tempDir, false, &git.CloneOptions{
		URL:           opts.RepoURL,
		ReferenceName: plumbing.NewBranchReferenceName(opts.Branch),
		SingleBranch:  true,
		Depth:         1,
		Progress:      opts.Progress,
	})
	if err != nil {
		return fmt.Errorf("git clone failed: %w", err)
	}

	return copyIndex(tempDir, cacheDir, logger)
}

// copyIndex copies the synced parts of an index checkout into cacheDir.
// Parts are staged next to the cache first and swapped in only once every
// copy succeeded, so a failed sync leaves the previous cache intact.
func copyIndex(srcRoot, cacheDir string, logger *log.Logger) error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	staging, err := os.MkdirTemp(cacheDir, ".sync-*")
	if err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	var staged []string
	for _, rel := range syncedPaths {
		src := filepath.Join(srcRoot, rel)
		info, err := os.Stat(src)
		if err != nil {
			logger.Warn("index part missing", "path", rel, "err", err)
			continue
		}

		dst := filepath.Join(staging, rel)
		if info.IsDir() {
			err = copyDir(src, dst)
		} else {
			err = copyFile(src, dst)
		}
		if err != nil {
			return fmt.Errorf("copying %s: %w", rel, err)
		}
		staged = append(staged, rel)
	}

	for _, rel := range staged {
		if err := swap(filepath.Join(staging, rel), filepath.Join(cacheDir, rel)); err != nil {
			return fmt.Errorf("replacing %s: %w", rel, err)
		}
	}

	logger.Info("package index updated", "dir", cacheDir)
	return nil
}

// swap moves next over dst; the old dst is moved aside and removed afterwards
func swap(next, dst string) error {
	old := dst + ".old"
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	if err := os.Rename(dst, old); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Rename(next, dst); err != nil {
		// put the previous version back
		os.Rename(old, dst)
		return err
	}
	return os.RemoveAll(old)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		} else {
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}
