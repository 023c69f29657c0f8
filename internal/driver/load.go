// Package driver loads compiler inputs, writes compiled programs and caches
// them between runs.
package driver

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quill/internal/fir"
	"quill/internal/rir"
)

// File extensions understood by the driver.
const (
	PackageExt = ".qfir"
	ProgramExt = ".qrir"
	ListingExt = ".txt"
)

// LoadPackage reads an encoded package from path.
func LoadPackage(path string) (*fir.Package, error) {
	if ext := filepath.Ext(path); ext != PackageExt {
		return nil, fmt.Errorf("%s: expected a %s file, got %q", path, PackageExt, ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	pkg, err := fir.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := fir.Check(pkg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pkg, nil
}

// SavePackage writes pkg to path in the format LoadPackage reads.
func SavePackage(path string, pkg *fir.Package) error {
	data, err := fir.Encode(pkg)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// LoadProgram reads a program written with EmitBin.
func LoadProgram(path string) (*rir.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	prog, err := rir.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// OutputPath derives the output file for input in dir.
func OutputPath(dir, input string, binary bool) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	ext := ListingExt
	if binary {
		ext = ProgramExt
	}
	return filepath.Join(dir, base+ext)
}

// WriteProgram stores prog at path, as a listing or binary encoding.
func WriteProgram(path string, prog *rir.Program, binary bool) error {
	if binary {
		data, err := rir.Encode(prog)
		if err != nil {
			return err
		}
		return writeFileAtomic(path, data)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	rir.DumpProgram(w, prog)
	return errors.Join(w.Flush(), f.Close())
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}
