package cpath

import (
	"os"
	"time"

	"github.com/absfs/absfs"
)

// osFiler adapts the host filesystem to absfs.Filer. It is the default
// base for NewOSFS and the package-level convenience functions.
type osFiler struct{}

// NewOSFiler returns an absfs.Filer backed by the host filesystem
func NewOSFiler() absfs.Filer {
	return &osFiler{}
}

func (osFiler) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	return os.OpenFile(name, flag, perm)
}

func (osFiler) Mkdir(name string, perm os.FileMode) error {
	return os.Mkdir(name, perm)
}

func (osFiler) Remove(name string) error {
	return os.Remove(name)
}

func (osFiler) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (osFiler) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (osFiler) Chmod(name string, mode os.FileMode) error {
	return os.Chmod(name, mode)
}

func (osFiler) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return os.Chtimes(name, atime, mtime)
}

func (osFiler) Chown(name string, uid, gid int) error {
	return os.Chown(name, uid, gid)
}
