package engine

import (
	"path/filepath"
	"testing"

	"github.com/ai-fdocs/fdocs"
)

func TestWriteThenReadMetadataRoundTrips(t *testing.T) {
	dir := t.TempDir()
	m := &Metadata{
		Version:    "1.2.3",
		GitRef:     "v1.2.3",
		FetchedAt:  "2026-08-01T00:00:00Z",
		ConfigHash: "abc123",
	}
	if err := WriteMetadata(dir, m); err != nil {
		t.Fatal(err)
	}

	got, err := ReadMetadata(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("ReadMetadata returned nil, nil for a file that was just written")
	}
	if got.Version != "1.2.3" || got.GitRef != "v1.2.3" || got.ConfigHash != "abc123" {
		t.Errorf("round-tripped metadata mismatch: %+v", got)
	}
	if got.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d (defaulted on write)", got.SchemaVersion, CurrentSchemaVersion)
	}
}

func TestReadMetadataMissingFileReturnsNilNil(t *testing.T) {
	dir := t.TempDir()
	m, err := ReadMetadata(dir)
	if err != nil {
		t.Fatalf("unexpected error for missing metadata: %v", err)
	}
	if m != nil {
		t.Errorf("expected nil metadata, got %+v", m)
	}
}

func TestReadMetadataFutureSchemaVersionIsAnErrorNotAPanic(t *testing.T) {
	dir := t.TempDir()
	if err := WriteMetadata(dir, &Metadata{SchemaVersion: CurrentSchemaVersion + 1, Version: "1.0.0"}); err != nil {
		t.Fatal(err)
	}
	_, err := ReadMetadata(dir)
	if err == nil {
		t.Fatal("expected an error for an unsupported future schema_version")
	}
	if ee, ok := fdocs.AsEngineError(err); !ok || ee.Kind != fdocs.KindIO {
		t.Errorf("got %v, want KindIO", err)
	}
}

func TestMetadataFileNameIsStableOnDisk(t *testing.T) {
	dir := t.TempDir()
	if err := WriteMetadata(dir, &Metadata{Version: "1.0.0"}); err != nil {
		t.Fatal(err)
	}
	if ok, _ := fdocs.IsRegular(filepath.Join(dir, MetadataFileName)); !ok {
		t.Errorf("expected %s to exist", MetadataFileName)
	}
}
