package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// GenesisHash is the prev_hash of the first entry in a log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// maxLine bounds a single entry line.
const maxLine = 1 << 20

// Log appends wise flow records to a JSONL file. Each entry's prev_hash is
// the hash of the line before it, so edits and deletions break the chain.
type Log struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	prevHash string
}

// Open opens or creates the log at path and resumes the chain from its
// last line.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}

	prevHash := GenesisHash
	err = eachLine(file, func(_ int, line []byte) error {
		prevHash = HashLine(line)
		return nil
	})
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("audit: read existing log: %w", err)
	}

	return &Log{path: path, file: file, prevHash: prevHash}, nil
}

// OpenOptional opens the log at path, or returns a nil *Log when path is
// empty. A nil *Log accepts Record and Close calls and does nothing.
func OpenOptional(path string) (*Log, error) {
	if path == "" {
		return nil, nil
	}
	return Open(path)
}

// Record chains entry onto the log and syncs it to disk. An empty
// Timestamp is filled in; entries that fail Validate are refused.
// Recording on a nil Log is a no-op.
func (l *Log) Record(entry AuditEntry) error {
	if l == nil {
		return nil
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimestampFormat)
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("audit: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry.PrevHash = l.prevHash
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("audit: sync: %w", err)
	}

	l.prevHash = HashLine(line)
	return nil
}

// Path returns the file the log appends to.
func (l *Log) Path() string {
	return l.path
}

// Close closes the underlying file. Safe on a nil Log.
func (l *Log) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// HashLine returns "sha256:<hex>" of line, without its newline.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}

// eachLine calls fn with every line of r, numbered from 1. The slice is
// only valid during the call.
func eachLine(r io.Reader, fn func(n int, line []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	n := 0
	for scanner.Scan() {
		n++
		if err := fn(n, scanner.Bytes()); err != nil {
			return err
		}
	}
	return scanner.Err()
}
