package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	znix "zombiezen.com/go/nix"
	"zombiezen.com/go/nix/nar"

	"github.com/arc-language/uenv/pkg/env"
	"github.com/arc-language/uenv/pkg/nix"
)

// WriteNAR serialises the included part of the tree as a NAR
func (f *Filter) WriteNAR(w io.Writer) error {
	nw := nar.NewWriter(w)

	err := f.Walk(func(rel string, d fs.DirEntry) error {
		path := filepath.Join(f.root, filepath.FromSlash(rel))
		hdr := &nar.Header{Path: rel}

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("reading link %s: %w", rel, err)
			}
			hdr.Mode = fs.ModeSymlink | 0o777
			hdr.LinkTarget = target
			return nw.WriteHeader(hdr)

		case d.IsDir():
			hdr.Mode = fs.ModeDir | 0o555
			return nw.WriteHeader(hdr)

		case d.Type().IsRegular():
			info, err := d.Info()
			if err != nil {
				return err
			}
			hdr.Mode = 0o444
			if info.Mode()&0o111 != 0 {
				hdr.Mode = 0o555
			}
			hdr.Size = info.Size()
			if err := nw.WriteHeader(hdr); err != nil {
				return fmt.Errorf("writing %s: %w", rel, err)
			}
			return copyFile(nw, path)

		default:
			// sockets, devices and fifos have no NAR representation
			return nil
		}
	})
	if err != nil {
		return err
	}
	return nw.Close()
}

func copyFile(w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(w, file)
	return err
}

// hashTree writes the filtered tree's NAR serialisation into a sha256 hasher
func hashTree(root string, rule *env.SourceFilter) (*znix.Hasher, error) {
	f, err := NewFilter(root, rule)
	if err != nil {
		return nil, err
	}
	h := znix.NewHasher(znix.SHA256)
	if err := f.WriteNAR(h); err != nil {
		return nil, fmt.Errorf("hashing %s: %w", root, err)
	}
	return h, nil
}

// Hash returns the nix-style sha256 of the filtered tree's NAR serialisation
func Hash(root string, rule *env.SourceFilter) (string, error) {
	h, err := hashTree(root, rule)
	if err != nil {
		return "", err
	}
	return nix.FormatSHA256(h.Sum(nil)), nil
}

// VerifyHash checks the filtered tree against an expected hash.
// A malformed expected hash is rejected before the tree is read.
func VerifyHash(root string, rule *env.SourceFilter, want string) error {
	wantDigest, err := nix.ParseSHA256(want)
	if err != nil {
		return fmt.Errorf("expected hash: %w", err)
	}
	h, err := hashTree(root, rule)
	if err != nil {
		return err
	}
	if got := h.Sum(nil); !bytes.Equal(got, wantDigest) {
		return fmt.Errorf("hash mismatch: expected %s, got %s", nix.FormatSHA256(wantDigest), nix.FormatSHA256(got))
	}
	return nil
}

// Export writes the filtered tree as an xz-compressed NAR
func Export(root string, rule *env.SourceFilter, w io.Writer) error {
	f, err := NewFilter(root, rule)
	if err != nil {
		return err
	}

	xw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating xz writer: %w", err)
	}
	if err := f.WriteNAR(xw); err != nil {
		xw.Close()
		return fmt.Errorf("exporting %s: %w", root, err)
	}
	return xw.Close()
}

// ExportFile exports to path. When path lies inside root it is left out of
// the archive, and the archive only appears at path once it is complete.
func ExportFile(root string, rule *env.SourceFilter, path string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if rel, err := filepath.Rel(absRoot, absPath); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
		withOutput := env.SourceFilter{}
		if rule != nil {
			withOutput = *rule
		}
		// anchored patterns for the archive and its temp file
		anchored := "/" + filepath.ToSlash(rel)
		withOutput.Exclude = append(append([]string{}, withOutput.Exclude...), anchored, anchored+".tmp")
		rule = &withOutput
	}

	tmp := absPath + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Export(root, rule, out); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return os.Rename(tmp, absPath)
}

// Extract unpacks an xz-compressed NAR into dest
func Extract(r io.Reader, dest string) error {
	xr, err := xz.NewReader(bufio.NewReader(r))
	if err != nil {
		return fmt.Errorf("creating xz reader: %w", err)
	}
	return extractNAR(xr, dest)
}

// extractNAR extracts an uncompressed NAR archive
func extractNAR(r io.Reader, dest string) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	narReader := nar.NewReader(r)
	for {
		hdr, err := narReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading NAR entry: %w", err)
		}

		targetPath := filepath.Join(dest, filepath.FromSlash(hdr.Path))

		switch hdr.Mode.Type() {
		case fs.ModeDir:
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", targetPath, err)
			}
		case fs.ModeSymlink:
			if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
				return fmt.Errorf("creating parent directory: %w", err)
			}
			if err := os.Symlink(hdr.LinkTarget, targetPath); err != nil {
				return fmt.Errorf("creating symlink: %w", err)
			}
		case 0: // Regular file
			if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
				return fmt.Errorf("creating parent directory: %w", err)
			}

			perm := os.FileMode(0644)
			if hdr.Mode&0111 != 0 {
				perm = 0755
			}

			outFile, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
			if err != nil {
				return fmt.Errorf("creating file %s: %w", targetPath, err)
			}

			written, err := io.Copy(outFile, narReader)
			outFile.Close()
			if err != nil {
				return fmt.Errorf("writing file: %w", err)
			}
			if written != hdr.Size {
				return fmt.Errorf("size mismatch for %s", hdr.Path)
			}
		}
	}
}
