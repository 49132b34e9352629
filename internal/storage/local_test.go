package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStoreUpload(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "/static/uploads")

	url, err := store.Upload(context.Background(), "nhatro/thumbnails", "room.jpg", []byte("fake-image"), "image/jpeg")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if url != "/static/uploads/nhatro/thumbnails/room.jpg" {
		t.Fatalf("unexpected public url: %q", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "nhatro", "thumbnails", "room.jpg"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "fake-image" {
		t.Fatalf("stored content mismatch: %q", data)
	}
}
