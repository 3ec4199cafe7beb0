// Package source selects and serialises the project files handed to builds.
//
// A Filter combines .gitignore files with extra exclude patterns using git's
// own matching rules. The filtered tree can be hashed or exported as a NAR,
// the archive format of the nix store, so a source hash only changes when an
// included file changes.
package source

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/arc-language/uenv/pkg/env"
	"github.com/arc-language/uenv/pkg/nix"
)

const gitignoreFile = ".gitignore"

// Filter decides which files under a root are part of the source
type Filter struct {
	root     string
	patterns []gitignore.Pattern
	fixed    []gitignore.Pattern // rule excludes, .git and the build dir, always last
	matcher  gitignore.Matcher
}

// NewFilter compiles rule for the tree at root. A nil rule only excludes .git
// and the uenv build directory.
func NewFilter(root string, rule *env.SourceFilter) (*Filter, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading source root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source root %s is not a directory", root)
	}

	f := &Filter{root: root}
	if rule != nil {
		for _, p := range rule.Exclude {
			f.fixed = append(f.fixed, gitignore.ParsePattern(p, nil))
		}
	}
	f.fixed = append(f.fixed,
		gitignore.ParsePattern(".git", nil),
		gitignore.ParsePattern("/"+nix.WorkDir+"/", nil),
	)
	f.rebuild()

	if rule != nil && rule.Gitignore {
		if err := f.loadGitignores(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *Filter) rebuild() {
	all := make([]gitignore.Pattern, 0, len(f.patterns)+len(f.fixed))
	all = append(all, f.patterns...)
	all = append(all, f.fixed...)
	f.matcher = gitignore.NewMatcher(all)
}

// loadGitignores reads .gitignore files top down, skipping ignored directories
func (f *Filter) loadGitignores() error {
	return filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		rel := f.rel(path)
		if rel != "" && f.Excluded(rel, true) {
			return filepath.SkipDir
		}

		patterns, err := readGitignore(filepath.Join(path, gitignoreFile), splitPath(rel))
		if err != nil {
			return err
		}
		if len(patterns) > 0 {
			f.patterns = append(f.patterns, patterns...)
			f.rebuild()
		}
		return nil
	})
}

func readGitignore(path string, domain []string) ([]gitignore.Pattern, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer file.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, domain))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return patterns, nil
}

// Root returns the filtered directory
func (f *Filter) Root() string {
	return f.root
}

// Excluded reports whether the slash-separated path rel is filtered out
func (f *Filter) Excluded(rel string, isDir bool) bool {
	return f.matcher.Match(splitPath(rel), isDir)
}

// Walk visits the included entries in lexical order, starting with the root
// itself as "". Excluded directories are not descended into.
func (f *Filter) Walk(fn func(rel string, d fs.DirEntry) error) error {
	return filepath.WalkDir(f.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := f.rel(path)
		if rel != "" && f.Excluded(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		return fn(rel, d)
	})
}

// Files returns the included regular files and symlinks
func (f *Filter) Files() ([]string, error) {
	var files []string
	err := f.Walk(func(rel string, d fs.DirEntry) error {
		if !d.IsDir() {
			files = append(files, rel)
		}
		return nil
	})
	return files, err
}

func (f *Filter) rel(path string) string {
	rel, err := filepath.Rel(f.root, path)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

func splitPath(rel string) []string {
	if rel == "" {
		return nil
	}
	return strings.Split(rel, "/")
}
