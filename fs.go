package fdocs

import (
	"os"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/pkg/errors"
	shutil "github.com/termie/go-shutil"
	"github.com/theckman/go-flock"
)

// IsRegular is true if name is a regular file.
func IsRegular(name string) (bool, error) {
	fi, err := os.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if fi.IsDir() {
		return false, errors.Errorf("%q is a directory, should be a file", name)
	}
	return true, nil
}

// IsDir is true if name is a directory.
func IsDir(name string) (bool, error) {
	fi, err := os.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}

// RenameWithFallback attempts to rename a file or directory, falling back
// to a recursive copy-then-remove when the rename fails because src and
// dest are on different devices (syscall.EXDEV) or, on Windows, because the
// target is a directory. This is the teacher's txn_writer.go/fs.go
// renameWithFallback, generalized from a single whole-repo swap to the
// per-package directory swap C6 needs, with the hand-rolled CopyDir
// replaced by github.com/termie/go-shutil's CopyTree (vendored by the
// teacher for exactly this "copy a whole tree, preserving structure" role).
func RenameWithFallback(src, dest string) error {
	fi, err := os.Lstat(src)
	if err != nil {
		return errors.Wrapf(err, "cannot stat %s", src)
	}

	if runtime.GOOS == "windows" && fi.IsDir() {
		if err := copyTree(src, dest); err != nil {
			return err
		}
		return errors.Wrapf(os.RemoveAll(src), "cannot delete %s", src)
	}

	err = os.Rename(src, dest)
	if err == nil {
		return nil
	}

	terr, ok := err.(*os.LinkError)
	if !ok {
		return errors.Wrapf(err, "cannot rename %s to %s", src, dest)
	}

	var cerr error
	switch {
	case terr.Err == syscall.EXDEV:
		if fi.IsDir() {
			cerr = copyTree(src, dest)
		} else {
			cerr = copyFile(src, dest)
		}
	case runtime.GOOS == "windows":
		if noerr, ok := terr.Err.(syscall.Errno); ok && noerr == 0x11 {
			cerr = copyFile(src, dest)
		} else {
			return terr
		}
	default:
		return terr
	}

	if cerr != nil {
		return cerr
	}
	return errors.Wrapf(os.RemoveAll(src), "cannot delete %s after copy-fallback", src)
}

func copyTree(src, dest string) error {
	err := shutil.CopyTree(src, dest, nil)
	return errors.Wrapf(err, "copying tree %s to %s", src, dest)
}

func copyFile(src, dest string) error {
	_, err := shutil.Copy(src, dest, false)
	return errors.Wrapf(err, "copying file %s to %s", src, dest)
}

// OutputLock returns a process-wide advisory file lock guarding outputDir
// for the duration of a sync run, preventing two concurrent `fdocs sync`
// invocations from racing on the same tree. Grounded in the teacher's own
// vendored github.com/theckman/go-flock, used there to serialize `dep
// ensure` runs against one project root.
func OutputLock(outputDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating output dir %s", outputDir)
	}
	lockPath := filepath.Join(outputDir, ".fdocs.lock")
	return flock.NewFlock(lockPath), nil
}
