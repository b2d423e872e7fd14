package studio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"revostream/internal/services"
)

const maxPathSuffix = 999

var now = time.Now

// resolveRecordPath turns a user destination into a fresh file path. A
// directory destination gets record_<unix>.mp4; a file destination gets the
// timestamp appended to its stem. Parent directories are created and an
// existing file gets the first free _<n> suffix.
func resolveRecordPath(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", services.Fail(services.ErrValidation, "Output path required")
	}
	base := raw
	if !filepath.IsAbs(base) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", services.Failf(services.ErrConfiguration, "failed to resolve cwd: %w", err)
		}
		base = filepath.Join(cwd, base)
	}
	ts := now().Unix()

	var path string
	if strings.HasSuffix(raw, "/") || strings.HasSuffix(raw, `\`) || isDir(base) {
		path = filepath.Join(base, fmt.Sprintf("record_%d.mp4", ts))
	} else {
		stem, ext := splitName(filepath.Base(base))
		path = filepath.Join(filepath.Dir(base), fmt.Sprintf("%s_%d.%s", stem, ts, ext))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", services.Failf(services.ErrConfiguration, "failed to create output dir: %w", err)
	}
	if !exists(path) {
		return path, nil
	}
	stem, ext := splitName(filepath.Base(path))
	for i := 1; i <= maxPathSuffix; i++ {
		candidate := filepath.Join(filepath.Dir(path), fmt.Sprintf("%s_%d.%s", stem, i, ext))
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return path, nil
}

// splitName splits a file name into stem and extension, defaulting to
// record and mp4.
func splitName(name string) (string, string) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if strings.HasPrefix(name, ".") && stem == "" {
		stem, ext = name, ""
	}
	ext = strings.TrimPrefix(ext, ".")
	if strings.TrimSpace(stem) == "" {
		stem = "record"
	}
	if strings.TrimSpace(ext) == "" {
		ext = "mp4"
	}
	return stem, ext
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
