// Package fsops exposes thin interfaces over the filesystem reads extver
// performs, so version resolution can be tested without touching the real
// filesystem.
package fsops

import (
	"path/filepath"

	"github.com/spf13/afero"
)

//go:generate mockgen -destination=mocks/fsops.go -package=mocks github.com/0xa1bed0/extver/internal/fsops PathOps,DirOps

// PathOps abstracts the filepath operations used to build candidate and
// output paths.
type PathOps interface {
	Join(elem ...string) string
	Clean(path string) string
}

// DirOps abstracts directory listing. It is the only I/O the resolver does:
// entry names and whether a path is a directory, never file contents.
type DirOps interface {
	// ReadDirNames returns the names of the immediate entries of dir,
	// sorted by name.
	ReadDirNames(dir string) ([]string, error)
	// IsDir reports whether path is a directory. Symlinks are followed.
	IsDir(path string) (bool, error)
}

// Ops groups together the dependencies required by the resolver.
type Ops struct {
	Path PathOps
	Dir  DirOps
}

// DefaultOps returns an Ops backed by the host filesystem.
func DefaultOps() Ops {
	return FromFs(afero.NewOsFs())
}

// FromFs returns an Ops reading from the given afero filesystem.
func FromFs(fsys afero.Fs) Ops {
	return Ops{
		Path: stdPathOps{},
		Dir:  aferoDirOps{fs: fsys},
	}
}

type stdPathOps struct{}

func (stdPathOps) Join(elem ...string) string { return filepath.Join(elem...) }
func (stdPathOps) Clean(path string) string   { return filepath.Clean(path) }

type aferoDirOps struct {
	fs afero.Fs
}

func (o aferoDirOps) ReadDirNames(dir string) ([]string, error) {
	infos, err := afero.ReadDir(o.fs, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		names = append(names, fi.Name())
	}
	return names, nil
}

func (o aferoDirOps) IsDir(path string) (bool, error) {
	return afero.IsDir(o.fs, path)
}
