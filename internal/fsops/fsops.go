package fsops

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/afero/mem"
)

// FS is an abstract filesystem used across the app and tests.
type FS interface {
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
	SameFile(first, second fs.FileInfo) bool
}

// ---------- OS-backed implementation ----------

type OS struct{}

func NewOS() OS { return OS{} }

func (OS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(filepath.Clean(name)) }
func (OS) ReadFile(name string) ([]byte, error)       { return os.ReadFile(filepath.Clean(name)) }
func (OS) WriteFile(name string, b []byte, p os.FileMode) error {
	return os.WriteFile(filepath.Clean(name), b, p)
}
func (OS) Stat(name string) (fs.FileInfo, error)     { return os.Stat(filepath.Clean(name)) }
func (OS) Lstat(name string) (fs.FileInfo, error)    { return os.Lstat(filepath.Clean(name)) }
func (OS) Rename(a, b string) error                  { return os.Rename(a, b) }
func (OS) MkdirAll(path string, p os.FileMode) error { return os.MkdirAll(filepath.Clean(path), p) }
func (OS) SameFile(a, b fs.FileInfo) bool            { return os.SameFile(a, b) }

// ---------- In-memory implementation (for tests/integration) ----------

type Mem struct{ Fs afero.Fs }

func NewMem() Mem { return Mem{Fs: afero.NewMemMapFs()} }

func (m Mem) ReadDir(name string) ([]fs.DirEntry, error) {
	infos, err := afero.ReadDir(m.Fs, filepath.Clean(name))
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	return entries, nil
}
func (m Mem) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(m.Fs, filepath.Clean(name))
}
func (m Mem) WriteFile(name string, b []byte, p os.FileMode) error {
	return afero.WriteFile(m.Fs, filepath.Clean(name), b, p)
}
func (m Mem) Stat(name string) (fs.FileInfo, error) { return m.Fs.Stat(filepath.Clean(name)) }
func (m Mem) Lstat(name string) (fs.FileInfo, error) {
	if lstater, ok := m.Fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(filepath.Clean(name))
		return info, err
	}
	return m.Fs.Stat(filepath.Clean(name))
}
func (m Mem) Rename(a, b string) error { return m.Fs.Rename(filepath.Clean(a), filepath.Clean(b)) }
func (m Mem) MkdirAll(path string, p os.FileMode) error {
	return m.Fs.MkdirAll(filepath.Clean(path), p)
}

// SameFile reports whether both infos describe the same in-memory node.
// Infos that do not come from a MemMapFs never match.
func (m Mem) SameFile(a, b fs.FileInfo) bool {
	first, firstOK := a.(*mem.FileInfo)
	second, secondOK := b.(*mem.FileInfo)
	return firstOK && secondOK && first.FileData == second.FileData
}

// ---------- High-level façade used by commands ----------

type Ops struct{ FS FS }

func NewOps(fs FS) Ops { return Ops{FS: fs} }

type FileInfo struct {
	Path      string
	BaseName  string
	Extension string
	SizeBytes int64
}

// ListFiles returns the regular files directly inside dir, in directory
// listing order. Symlinks are followed; directories are never returned.
func (o Ops) ListFiles(dir string) ([]FileInfo, error) {
	entries, err := o.FS.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	out := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		p := filepath.Join(dir, entry.Name())
		info, statErr := o.FS.Stat(p)
		if statErr != nil || !info.Mode().IsRegular() {
			continue
		}
		ext := SplitExt(entry.Name())
		out = append(out, FileInfo{
			Path:      p,
			BaseName:  strings.TrimSuffix(entry.Name(), ext),
			Extension: ext,
			SizeBytes: info.Size(),
		})
	}
	return out, nil
}

// SplitExt returns the extension of name including its dot. A name that is
// only a dot-prefixed word (".hdf5") has no extension.
func SplitExt(name string) string {
	ext := filepath.Ext(name)
	if ext == name || strings.TrimLeft(name, ".") == strings.TrimPrefix(ext, ".") {
		return ""
	}
	return ext
}

func (o Ops) IsDir(p string) (bool, error) {
	info, err := o.FS.Stat(p)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (o Ops) EnsureDir(path string) error    { return o.FS.MkdirAll(filepath.Dir(path), 0o755) }
func (o Ops) MoveFile(from, to string) error { return o.FS.Rename(from, to) }

// FileExists reports whether p names anything, a dangling symlink included.
func (o Ops) FileExists(p string) bool { _, err := o.FS.Lstat(p); return err == nil }

func (o Ops) ReadFile(path string) ([]byte, error) { return o.FS.ReadFile(path) }

// WriteFile creates parent directories as needed before writing.
func (o Ops) WriteFile(path string, data []byte) error {
	if err := o.EnsureDir(path); err != nil {
		return err
	}
	return o.FS.WriteFile(path, data, 0o644)
}
