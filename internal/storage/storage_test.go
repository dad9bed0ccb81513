package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalUploadAndDelete(t *testing.T) {
	root := t.TempDir()
	st, err := NewLocal(root, "http://localhost:8080/")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	key, err := st.Upload(ctx, BucketDocuments, "app-1/resume.pdf", strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if key != "documents/app-1/resume.pdf" {
		t.Errorf("key = %q", key)
	}

	b, err := os.ReadFile(filepath.Join(root, "documents", "app-1", "resume.pdf"))
	if err != nil || string(b) != "%PDF-1.4" {
		t.Fatalf("stored content = %q, %v", b, err)
	}

	if got, want := st.PublicURL(key), "http://localhost:8080/uploads/documents/app-1/resume.pdf"; got != want {
		t.Errorf("PublicURL = %q, want %q", got, want)
	}

	if err := st.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "documents", "app-1", "resume.pdf")); !errors.Is(err, os.ErrNotExist) {
		t.Error("file still present after delete")
	}
	if err := st.Delete(ctx, key); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestLocalRejectsTraversal(t *testing.T) {
	st, err := NewLocal(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, name := range []string{"../escape.pdf", "a/../../escape.pdf", "", "a\\b.pdf"} {
		if _, err := st.Upload(ctx, BucketPostImages, name, strings.NewReader("x")); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Upload(%q) err = %v, want ErrInvalidKey", name, err)
		}
	}
	if err := st.Delete(ctx, "../x"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Delete traversal err = %v", err)
	}
}
