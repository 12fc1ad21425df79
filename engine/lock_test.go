package engine

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestResolveLockfilePrefersCargoOverNpm(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Cargo.lock", `
[[package]]
name = "serde"
version = "1.0.0"
`)
	writeFile(t, dir, "package-lock.json", `{"packages": {"node_modules/serde": {"version": "9.9.9"}}}`)

	vm, name, err := ResolveLockfile(dir)
	if err != nil {
		t.Fatal(err)
	}
	if name != "Cargo.lock" {
		t.Errorf("resolved %q, want Cargo.lock", name)
	}
	if vm["serde"] != "1.0.0" {
		t.Errorf("serde = %q, want 1.0.0", vm["serde"])
	}
}

func TestReadNpmLockModernShape(t *testing.T) {
	data := []byte(`{
		"lockfileVersion": 3,
		"packages": {
			"": {"name": "root"},
			"node_modules/lodash": {"version": "4.17.21"},
			"node_modules/@scope/pkg": {"version": "2.0.0"}
		}
	}`)
	vm, err := readNpmLock(data)
	if err != nil {
		t.Fatal(err)
	}
	want := VersionMap{"lodash": "4.17.21", "@scope/pkg": "2.0.0"}
	if !reflect.DeepEqual(vm, want) {
		t.Errorf("got %v, want %v", vm, want)
	}
}

func TestReadNpmLockLegacyFallback(t *testing.T) {
	data := []byte(`{
		"lockfileVersion": 1,
		"dependencies": {
			"lodash": {"version": "4.17.21"}
		}
	}`)
	vm, err := readNpmLock(data)
	if err != nil {
		t.Fatal(err)
	}
	if vm["lodash"] != "4.17.21" {
		t.Errorf("lodash = %q, want 4.17.21", vm["lodash"])
	}
}

func TestReadPnpmLock(t *testing.T) {
	data := []byte(`
packages:
  /lodash@4.17.21:
    resolution: {integrity: sha512-abc}
  /@scope/pkg@2.0.0(peer@1.0.0):
    resolution: {integrity: sha512-def}
`)
	vm, err := readPnpmLock(data)
	if err != nil {
		t.Fatal(err)
	}
	if vm["lodash"] != "4.17.21" {
		t.Errorf("lodash = %q, want 4.17.21", vm["lodash"])
	}
	if vm["@scope/pkg"] != "2.0.0" {
		t.Errorf("@scope/pkg = %q, want 2.0.0", vm["@scope/pkg"])
	}
}

func TestReadYarnLock(t *testing.T) {
	data := []byte(`
# yarn lockfile v1

"lodash@^4.17.0", lodash@^4.17.21:
  version "4.17.21"
  resolved "https://registry.yarnpkg.com/lodash/-/lodash-4.17.21.tgz"

"@scope/pkg@^2.0.0":
  version "2.0.0"
`)
	vm, err := readYarnLock(data)
	if err != nil {
		t.Fatal(err)
	}
	want := VersionMap{"lodash": "4.17.21", "@scope/pkg": "2.0.0"}
	if !reflect.DeepEqual(vm, want) {
		t.Errorf("got %v, want %v", vm, want)
	}
}

func TestResolveLockfileNoneFound(t *testing.T) {
	dir := t.TempDir()
	if _, _, err := ResolveLockfile(dir); err == nil {
		t.Fatal("expected error when no lockfile is present")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
