package integrity

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/wise/internal/model"
)

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func sum(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

func TestMakeProofFields(t *testing.T) {
	old := now
	now = func() time.Time { return time.Unix(1700000000, 0) }
	defer func() { now = old }()

	content := []byte("sealed content\n")
	path := writeTemp(t, "data.txt", content)

	p, err := MakeProof(path, model.WinstackTool, model.WinstackVersion)
	if err != nil {
		t.Fatal(err)
	}
	if p.Schema != model.ProofSchema {
		t.Errorf("schema = %q", p.Schema)
	}
	if p.Tool != model.WinstackTool || p.Version != model.WinstackVersion {
		t.Errorf("tool/version = %q/%q", p.Tool, p.Version)
	}
	if p.CreatedUTC != 1700000000 {
		t.Errorf("created_utc = %d", p.CreatedUTC)
	}
	if p.SHA256 != sum(content) {
		t.Errorf("sha256 = %s, want %s", p.SHA256, sum(content))
	}
	if p.FileSize != int64(len(content)) {
		t.Errorf("file_size = %d", p.FileSize)
	}
	info, _ := os.Stat(path)
	if p.FileMtimeNS != info.ModTime().UnixNano() {
		t.Errorf("file_mtime_ns = %d, want %d", p.FileMtimeNS, info.ModTime().UnixNano())
	}
	if !filepath.IsAbs(p.FilePath) {
		t.Errorf("file_path should be absolute, got %s", p.FilePath)
	}
}

func TestMakeProofRelativePathIsAbsolute(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "rel.txt"), []byte("x"), 0o644)
	t.Chdir(dir)

	p, err := MakeProof("rel.txt", model.WinstackTool, model.WinstackVersion)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.Abs("rel.txt")
	if p.FilePath != want {
		t.Errorf("file_path = %s, want %s", p.FilePath, want)
	}
}

func TestMakeProofMissingFile(t *testing.T) {
	_, err := MakeProof(filepath.Join(t.TempDir(), "missing"), "winstack", "1")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *NotFoundError, got %T: %v", err, err)
	}
}

func TestMakeProofDirectoryIsNotFound(t *testing.T) {
	_, err := MakeProof(t.TempDir(), "winstack", "1")
	if !IsNotFound(err) {
		t.Fatalf("expected not found for directory, got %v", err)
	}
}

func TestCompareUnmodified(t *testing.T) {
	path := writeTemp(t, "a.bin", []byte("stable"))
	p, err := MakeProof(path, "winstack", "1")
	if err != nil {
		t.Fatal(err)
	}

	ok, observed, expected, err := Compare(path, p)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || observed != expected {
		t.Fatalf("expected match, got ok=%v observed=%s expected=%s", ok, observed, expected)
	}
}

func TestCompareDetectsSingleByteChange(t *testing.T) {
	content := bytes.Repeat([]byte("abcdefgh"), 1000)
	path := writeTemp(t, "b.bin", content)
	p, err := MakeProof(path, "winstack", "1")
	if err != nil {
		t.Fatal(err)
	}

	content[4321] ^= 0x01
	os.WriteFile(path, content, 0o644)

	ok, observed, expected, err := Compare(path, p)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected mismatch after one-byte change")
	}
	if expected != p.SHA256 || observed == expected {
		t.Errorf("unexpected digests observed=%s expected=%s", observed, expected)
	}
}

func TestCompareIgnoresMetadata(t *testing.T) {
	path := writeTemp(t, "c.txt", []byte("same"))
	p, _ := MakeProof(path, "winstack", "1")

	// Rewrite identical content and move mtime: still verified.
	os.WriteFile(path, []byte("same"), 0o644)
	later := time.Now().Add(time.Hour)
	os.Chtimes(path, later, later)
	p.FileSize = 999

	ok, _, _, err := Compare(path, p)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("metadata must not affect the tamper check")
	}
	if p.FileSize != 999 {
		t.Fatal("stored proof must not be mutated")
	}
}

func TestCompareMissingFile(t *testing.T) {
	_, _, _, err := Compare(filepath.Join(t.TempDir(), "gone"), model.Proof{SHA256: "x"})
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHashFileLargerThanChunk(t *testing.T) {
	content := bytes.Repeat([]byte{0x5a}, ChunkSize*2+17)
	path := writeTemp(t, "big.bin", content)

	got, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != sum(content) {
		t.Fatalf("digest mismatch: %s vs %s", got, sum(content))
	}
}

func TestHashFileEmpty(t *testing.T) {
	path := writeTemp(t, "empty", nil)
	got, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Fatalf("unexpected empty digest %s", got)
	}
}

func TestNotFoundErrorMessage(t *testing.T) {
	err := &NotFoundError{Kind: "proof", Path: "/x/y.json"}
	if err.Error() != "proof not found: /x/y.json" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
