package fdocs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRenameWithFallbackSameDevice(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "dest")

	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "file.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RenameWithFallback(src, dest); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dest, "file.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want %q", data, "hello")
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("src should no longer exist, got err = %v", err)
	}
}

func TestIsRegularAndIsDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if ok, err := IsRegular(file); err != nil || !ok {
		t.Errorf("IsRegular(file) = %v, %v; want true, nil", ok, err)
	}
	if ok, err := IsDir(dir); err != nil || !ok {
		t.Errorf("IsDir(dir) = %v, %v; want true, nil", ok, err)
	}
	if ok, _ := IsRegular(filepath.Join(dir, "missing")); ok {
		t.Error("IsRegular(missing) = true, want false")
	}
}

func TestOutputLockSerializesAccess(t *testing.T) {
	dir := t.TempDir()
	l1, err := OutputLock(dir)
	if err != nil {
		t.Fatal(err)
	}
	locked, err := l1.TryLock()
	if err != nil || !locked {
		t.Fatalf("first TryLock = %v, %v; want true, nil", locked, err)
	}
	defer l1.Unlock()

	l2, err := OutputLock(dir)
	if err != nil {
		t.Fatal(err)
	}
	locked2, err := l2.TryLock()
	if err != nil {
		t.Fatal(err)
	}
	if locked2 {
		t.Error("second TryLock should fail while first holds the lock")
	}
}
