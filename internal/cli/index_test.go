package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestCollectChunks(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "main.go"), "package main\n\nfunc main() {}\n")
	writeFile(t, filepath.Join(root, "lib", "util.py"), "def helper():\n    pass\n")
	writeFile(t, filepath.Join(root, "README.txt"), "not an indexed extension")
	writeFile(t, filepath.Join(root, "node_modules", "dep.js"), "module.exports = {}")
	writeFile(t, filepath.Join(root, ".hidden", "secret.go"), "package secret")

	chunks, skipped, err := collectChunks(root)
	if err != nil {
		t.Fatalf("collectChunks failed: %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if skipped != 1 {
		t.Errorf("expected 1 skipped file (README.txt), got %d", skipped)
	}

	byPath := map[string]bool{}
	for _, c := range chunks {
		byPath[c.Path] = true

		if c.ID != c.Path+"#"+c.Symbol {
			t.Errorf("unexpected chunk id %s", c.ID)
		}
		if c.ModTime.IsZero() {
			t.Errorf("chunk %s missing mod time", c.Path)
		}
	}
	if !byPath["main.go"] || !byPath["lib/util.py"] {
		t.Errorf("unexpected chunk paths: %v", byPath)
	}
}

func TestCollectChunks_Languages(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.go"), "package a")
	writeFile(t, filepath.Join(root, "b.ts"), "export const b = 1")

	chunks, _, err := collectChunks(root)
	if err != nil {
		t.Fatalf("collectChunks failed: %v", err)
	}

	langs := map[string]string{}
	for _, c := range chunks {
		langs[c.Path] = c.Language
	}
	if langs["a.go"] != "go" {
		t.Errorf("expected go, got %s", langs["a.go"])
	}
	if langs["b.ts"] != "typescript" {
		t.Errorf("expected typescript, got %s", langs["b.ts"])
	}
}

func TestCollectChunks_SkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()

	big := make([]byte, maxIndexedFileSize+1)
	for i := range big {
		big[i] = 'a'
	}
	writeFile(t, filepath.Join(root, "big.go"), string(big))
	writeFile(t, filepath.Join(root, "small.go"), "package small")

	chunks, skipped, err := collectChunks(root)
	if err != nil {
		t.Fatalf("collectChunks failed: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Path != "small.go" {
		t.Errorf("expected only small.go indexed, got %+v", chunks)
	}
	if skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", skipped)
	}
}

func TestCollectChunks_SkipsBinaryContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bin.go"), string([]byte{0xff, 0xfe, 0x00, 0x80}))

	chunks, skipped, err := collectChunks(root)
	if err != nil {
		t.Fatalf("collectChunks failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected binary file skipped, got %d chunks", len(chunks))
	}
	if skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", skipped)
	}
}
