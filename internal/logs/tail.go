package logs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"revostream/internal/api"
)

const maxLineBytes = 1024 * 1024

// Line is one line of a daemon log file. Event is set when the line is a
// JSON-format record.
type Line struct {
	Raw   string
	Event *api.LogEvent
}

// Component returns the component of a JSON record, or "".
func (l Line) Component() string {
	if l.Event == nil {
		return ""
	}
	return l.Event.Component
}

func parseLine(raw string) Line {
	line := Line{Raw: raw}
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return line
	}
	var evt api.LogEvent
	if json.Unmarshal([]byte(trimmed), &evt) == nil && evt.Message != "" {
		line.Event = &evt
	}
	return line
}

// Last returns up to n trailing lines of the file at path and the offset of
// its end. A missing file yields no lines and offset 0. n <= 0 returns only
// the offset.
func Last(path string, n int) ([]Line, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	if n <= 0 {
		return nil, info.Size(), nil
	}

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}

	lines := make([]Line, 0, len(ring))
	for _, raw := range ring {
		lines = append(lines, parseLine(raw))
	}
	return lines, end, nil
}

// ReadFrom returns complete lines written after offset and the new offset.
// An offset past the end of the file (after rotation) restarts at 0.
func ReadFrom(path string, offset int64) ([]Line, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	var lines []Line
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		raw, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			// Partial trailing line stays unread until its newline lands.
			break
		}
		if err != nil {
			return lines, offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(raw))
		lines = append(lines, parseLine(strings.TrimRight(raw, "\r\n")))
	}
	return lines, offset, nil
}

// Follow polls path every interval and hands new lines to emit until ctx
// ends. It returns nil on cancellation.
func Follow(ctx context.Context, path string, offset int64, interval time.Duration, emit func(Line)) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		lines, next, err := ReadFrom(path, offset)
		if err != nil {
			return err
		}
		for _, line := range lines {
			emit(line)
		}
		offset = next

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
