// Package integrity produces and checks content proofs for files.
// A proof is a whole-file SHA-256 digest plus a metadata snapshot.
// Only the digest decides whether a file was tampered with; size and
// mtime are kept for humans reading the proof.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/wise/internal/model"
)

// ChunkSize is the read size used when hashing, so memory use stays
// constant regardless of file size.
const ChunkSize = 1024 * 1024

// now is swapped in tests.
var now = time.Now

// MakeProof snapshots path's metadata and hashes its content.
// Returns *NotFoundError if path is missing or not a regular file.
func MakeProof(path, tool, version string) (model.Proof, error) {
	info, err := statRegular(path, "file")
	if err != nil {
		return model.Proof{}, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return model.Proof{}, fmt.Errorf("integrity: resolve %s: %w", path, err)
	}

	digest, err := HashFile(path)
	if err != nil {
		return model.Proof{}, err
	}

	return model.Proof{
		Schema:      model.ProofSchema,
		Tool:        tool,
		Version:     version,
		CreatedUTC:  now().Unix(),
		FilePath:    abs,
		FileSize:    info.Size(),
		FileMtimeNS: info.ModTime().UnixNano(),
		SHA256:      digest,
	}, nil
}

// Compare re-hashes path and checks it against the stored proof.
// It returns the observed and expected digests for display either way.
// The stored proof is not modified.
func Compare(path string, stored model.Proof) (ok bool, observed, expected string, err error) {
	if _, err := statRegular(path, "file"); err != nil {
		return false, "", stored.SHA256, err
	}

	observed, err = HashFile(path)
	if err != nil {
		return false, "", stored.SHA256, err
	}
	expected = stored.SHA256
	return observed == expected, observed, expected, nil
}

// HashFile returns the lowercase hex SHA-256 of path's content, read in
// ChunkSize pieces.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Kind: "file", Path: path}
		}
		return "", fmt.Errorf("integrity: open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, ChunkSize)
	// Hide *os.File's WriterTo so reads go through buf.
	if _, err := io.CopyBuffer(h, struct{ io.Reader }{f}, buf); err != nil {
		return "", fmt.Errorf("integrity: read %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// statRegular stats path and insists on a regular file.
func statRegular(path, kind string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: kind, Path: path}
		}
		return nil, fmt.Errorf("integrity: stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, &NotFoundError{Kind: kind, Path: path}
	}
	return info, nil
}
