// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ai-fdocs/fdocs"
)

func testCtx(t *testing.T, dir string) *fdocs.Ctx {
	t.Helper()
	return &fdocs.Ctx{WorkingDir: dir, Out: &bytes.Buffer{}, Err: &bytes.Buffer{}}
}

func TestInitWritesConfigInferringRustProfile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Cargo.lock"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := &initCommand{}
	if err := cmd.Run(testCtx(t, dir), nil); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, fdocs.ConfigName))
	if err != nil {
		t.Fatalf("expected %s to be written: %v", fdocs.ConfigName, err)
	}
	if !bytes.Contains(data, []byte(`profile = "rust"`)) {
		t.Errorf("expected inferred rust profile in config, got:\n%s", data)
	}
}

func TestInitRefusesToOverwriteExistingConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, fdocs.ConfigName)
	if err := os.WriteFile(configPath, []byte("profile = \"rust\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := &initCommand{}
	if err := cmd.Run(testCtx(t, dir), nil); err == nil {
		t.Fatal("expected an error when fdocs.toml already exists")
	}
}

func TestInitRejectsPositionalArguments(t *testing.T) {
	cmd := &initCommand{}
	if err := cmd.Run(testCtx(t, t.TempDir()), []string{"unexpected"}); err == nil {
		t.Fatal("expected an error for unexpected positional arguments")
	}
}

func TestInitHonorsExplicitProfileFlag(t *testing.T) {
	dir := t.TempDir()
	cmd := &initCommand{profile: "node"}
	if err := cmd.Run(testCtx(t, dir), nil); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, fdocs.ConfigName))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`profile = "node"`)) {
		t.Errorf("expected explicit node profile to win over inference, got:\n%s", data)
	}
}
