package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"undofile/pkg/undohost"
)

// fileBuffer is an [undohost.LineStore] backed by a plain text file
// loaded fully into memory, standing in for the live text buffer a
// real editor would supply. undoctl only ever drives one buffer at a
// time from the command line, so there is no concurrency to guard.
type fileBuffer struct {
	lines    [][]byte
	modified bool
}

// loadFileBuffer reads path line by line. A missing file yields an
// empty single-line buffer, mirroring a freshly created editor buffer.
func loadFileBuffer(path string) (*fileBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileBuffer{lines: [][]byte{{}}}, nil
		}

		return nil, fmt.Errorf("undoctl: open %q: %w", path, err)
	}

	defer f.Close()

	var lines [][]byte

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("undoctl: read %q: %w", path, err)
	}

	if len(lines) == 0 {
		lines = [][]byte{{}}
	}

	return &fileBuffer{lines: lines}, nil
}

// Save writes the buffer back to path, one line per newline-terminated
// record.
func (b *fileBuffer) Save(path string) error {
	var buf bytes.Buffer

	for _, l := range b.lines {
		buf.Write(l)
		buf.WriteByte('\n')
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("undoctl: write %q: %w", path, err)
	}

	return nil
}

func (b *fileBuffer) GetLine(lnum int) ([]byte, error) {
	if lnum < 1 || lnum > len(b.lines) {
		return nil, fmt.Errorf("undoctl: line %d out of range (%d lines)", lnum, len(b.lines))
	}

	return b.lines[lnum-1], nil
}

func (b *fileBuffer) ReplaceLine(lnum int, text []byte) error {
	if lnum < 1 || lnum > len(b.lines) {
		return fmt.Errorf("undoctl: line %d out of range", lnum)
	}

	b.lines[lnum-1] = text
	b.modified = true

	return nil
}

func (b *fileBuffer) AppendLine(after int, text []byte) error {
	if after < 0 || after > len(b.lines) {
		return fmt.Errorf("undoctl: after %d out of range", after)
	}

	b.lines = append(b.lines, nil)
	copy(b.lines[after+1:], b.lines[after:])
	b.lines[after] = text
	b.modified = true

	return nil
}

func (b *fileBuffer) DeleteLine(lnum int) error {
	if lnum < 1 || lnum > len(b.lines) {
		return fmt.Errorf("undoctl: line %d out of range", lnum)
	}

	b.lines = append(b.lines[:lnum-1], b.lines[lnum:]...)
	b.modified = true

	return nil
}

func (b *fileBuffer) LineCount() int { return len(b.lines) }

func (b *fileBuffer) AdjustMarks(top, oldSize, newSize int) {}

func (b *fileBuffer) Modified() bool { return b.modified }

func (b *fileBuffer) Empty() bool { return len(b.lines) == 1 && len(b.lines[0]) == 0 }

// Compile-time interface check.
var _ undohost.LineStore = (*fileBuffer)(nil)
