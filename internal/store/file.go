package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"collegedecision/internal/fsutil"
)

// File stores one YAML document per owner under a directory.
type File struct {
	dir string
	mu  sync.Mutex
}

// NewFile stores state under dir. The directory is created on first save.
func NewFile(dir string) *File {
	return &File{dir: dir}
}

func (f *File) path(owner string) string {
	return filepath.Join(f.dir, owner+".yaml")
}

func (f *File) Load(_ context.Context, owner string) (State, error) {
	if err := checkOwner(owner); err != nil {
		return State{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(owner))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{}, ErrNotFound
		}
		return State{}, err
	}
	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("decode state %s: %w", owner, err)
	}
	return st, nil
}

func (f *File) Save(_ context.Context, owner string, st State) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return fsutil.WriteFileAtomic(f.path(owner), data, 0o600)
}

func (f *File) Clear(_ context.Context, owner string) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path(owner)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
