// Package filesys provides the directory-management primitive the segment
// manager needs when it opens a data directory for the first time.
package filesys

import (
	"errors"
	"os"
)

// ErrIsNotDir is returned when a path expected to be a directory already
// exists as a regular file.
var ErrIsNotDir = errors.New("path isn't a directory")

// CreateDir ensures dirPath exists as a directory with the given
// permissions, creating any missing parents.
//
// If the path already exists:
//   - force=true proceeds without error, as long as it's a directory.
//   - force=false returns an error wrapping os.ErrExist (or the stat error
//     if the path could not be examined).
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if !force && !os.IsNotExist(err) {
		if err == nil {
			err = &os.PathError{Op: "mkdir", Path: dirPath, Err: os.ErrExist}
		}
		return err
	}

	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}

	if err := os.MkdirAll(dirPath, permission); err != nil {
		return err
	}

	return os.Chmod(dirPath, permission)
}
