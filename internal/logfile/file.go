package logfile

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// DefaultMaxEntries is the number of lines kept when a log file is reopened.
const DefaultMaxEntries = 5000

// File is an append-only log file. Older lines beyond the entry limit are
// dropped each time the file is opened.
type File struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// Open trims the file at path to its newest maxEntries lines and opens it
// for appending, creating it when missing.
func Open(path string, maxEntries int) (*File, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}

	if err := Trim(path, maxEntries); err != nil {
		return nil, fmt.Errorf("failed to trim log file: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &File{path: path, f: f}, nil
}

// Write appends p to the file.
func (lf *File) Write(p []byte) (int, error) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if lf.f == nil {
		return 0, os.ErrClosed
	}
	return lf.f.Write(p)
}

// Close closes the underlying file.
func (lf *File) Close() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if lf.f == nil {
		return nil
	}
	err := lf.f.Close()
	lf.f = nil
	return err
}

// Trim rewrites path keeping only the newest maxEntries non-empty lines.
// A missing file is not an error.
func Trim(path string, maxEntries int) error {
	lines, err := readLines(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(lines) <= maxEntries {
		return nil
	}
	return writeLines(path, lines[len(lines)-maxEntries:])
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func writeLines(path string, lines []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, line := range lines {
		if _, err := fmt.Fprintln(file, line); err != nil {
			return err
		}
	}
	return nil
}
