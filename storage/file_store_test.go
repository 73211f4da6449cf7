package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nczempin/httpd-go-uring/errors"
)

func TestFileStore_WriteThenRead(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	if err := store.Write("foo.txt", []byte("hello")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := store.Read("foo.txt")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Expected %q, got %q", "hello", data)
	}

	onDisk, err := os.ReadFile(filepath.Join(dir, "foo.txt"))
	if err != nil {
		t.Fatalf("File not on disk: %v", err)
	}
	if string(onDisk) != "hello" {
		t.Errorf("Expected disk contents %q, got %q", "hello", onDisk)
	}
}

func TestFileStore_Overwrite(t *testing.T) {
	store := NewFileStore(t.TempDir())

	if err := store.Write("a", []byte("a much longer first version")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := store.Write("a", []byte("short")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := store.Read("a")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "short" {
		t.Errorf("Expected %q, got %q", "short", data)
	}
}

func TestFileStore_ReadMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Read("missing.txt")
	if !errors.IsNotFound(err) {
		t.Fatalf("Expected not found, got %v", err)
	}
}

func TestFileStore_ReadDirectoryIsNotFound(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileStore(dir).Read("sub")
	if !errors.IsNotFound(err) {
		t.Fatalf("Expected not found for a directory, got %v", err)
	}
}

func TestFileStore_EmptyFileExists(t *testing.T) {
	store := NewFileStore(t.TempDir())
	if err := store.Write("empty", nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := store.Read("empty")
	if err != nil {
		t.Fatalf("Expected empty file to be readable, got %v", err)
	}
	if data == nil || len(data) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", data)
	}
}

func TestFileStore_BinaryRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())
	payload := []byte{0, 1, 2, 0xff, '\r', '\n', ' ', 0}

	if err := store.Write("bin", payload); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := store.Read("bin")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("Expected %v, got %v", payload, data)
	}
}

func TestFileStore_LongName(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	name := strings.Repeat("a", 250)

	if err := store.Write(name, []byte("hello")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data, err := store.Read(name)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Expected %q, got %q", "hello", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the written file, found %d entries", len(entries))
	}
}

func TestFileStore_InvalidNames(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "root"))
	if err := os.Mkdir(store.Root(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "secret"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"", ".", "..", "../secret", "a/b", `..\secret`, "nul\x00"} {
		if _, err := store.Read(name); !errors.IsInvalidName(err) {
			t.Errorf("Read(%q): expected invalid name, got %v", name, err)
		}
		if err := store.Write(name, []byte("x")); !errors.IsInvalidName(err) {
			t.Errorf("Write(%q): expected invalid name, got %v", name, err)
		}
	}
}

func TestFileStore_WriteFailure(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist"))

	err := store.Write("a", []byte("x"))
	httpErr, ok := errors.As(err)
	if !ok || httpErr.StorageErr != errors.StorageErrorWriteFailure {
		t.Fatalf("Expected write failure, got %v", err)
	}
}

func TestFileStore_ConcurrentDistinctNames(t *testing.T) {
	store := NewFileStore(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("file-%d", i)
			if err := store.Write(name, []byte(name)); err != nil {
				t.Errorf("Write %s failed: %v", name, err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 32; i++ {
		name := fmt.Sprintf("file-%d", i)
		data, err := store.Read(name)
		if err != nil {
			t.Fatalf("Read %s failed: %v", name, err)
		}
		if string(data) != name {
			t.Errorf("Expected %q, got %q", name, data)
		}
	}
}

func TestFileStore_ConcurrentSameNameLastWriterWins(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := strings.Repeat(fmt.Sprintf("%02d", i), 4096)
			if err := store.Write("shared", []byte(body)); err != nil {
				t.Errorf("Write failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	data, err := store.Read("shared")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(data) != 8192 {
		t.Fatalf("Expected 8192 bytes, got %d", len(data))
	}
	if strings.Repeat(string(data[:2]), 4096) != string(data) {
		t.Error("File contents are interleaved from multiple writers")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the target file, found %d entries", len(entries))
	}
	if len(store.locks) != 0 {
		t.Errorf("Expected lock table to be empty, has %d entries", len(store.locks))
	}
}
