/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package playlist reads and writes standard playlist formats (.m3u, .pls)
// so assembled hour blocks can feed external automation software.
package playlist

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Entry is one playlist line: a file reference with display metadata.
type Entry struct {
	Path     string
	Title    string
	Artist   string
	Duration time.Duration
}

func (e Entry) displayTitle() string {
	if e.Artist != "" && e.Title != "" {
		return e.Artist + " - " + e.Title
	}
	if e.Title != "" {
		return e.Title
	}
	return "Unknown Track"
}

func (e Entry) lengthSeconds() int {
	if e.Duration <= 0 {
		return -1
	}
	return int(math.Round(e.Duration.Seconds()))
}

// EncodeM3U renders entries as an extended M3U document.
func EncodeM3U(entries []Entry) []byte {
	var buf bytes.Buffer
	buf.WriteString("#EXTM3U\n")
	for _, entry := range entries {
		fmt.Fprintf(&buf, "#EXTINF:%d,%s\n", entry.lengthSeconds(), entry.displayTitle())
		buf.WriteString(entry.Path + "\n")
	}
	return buf.Bytes()
}

// WriteM3U writes an extended M3U file.
func WriteM3U(entries []Entry, path string) error {
	return os.WriteFile(path, EncodeM3U(entries), 0o644)
}

// ParseM3U reads an extended M3U file. Plain (non-extended) files parse too;
// metadata then falls back to the file name.
func ParseM3U(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open playlist: %w", err)
	}
	defer f.Close()

	var entries []Entry
	var pendingInfo string
	var pendingDuration time.Duration

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#EXTINF:") {
			meta := line[len("#EXTINF:"):]
			if idx := strings.Index(meta, ","); idx >= 0 {
				if secs, err := strconv.ParseFloat(strings.TrimSpace(meta[:idx]), 64); err == nil && secs > 0 {
					pendingDuration = time.Duration(secs * float64(time.Second))
				}
				pendingInfo = strings.TrimSpace(meta[idx+1:])
			} else {
				pendingInfo = strings.TrimSpace(meta)
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		entry := Entry{Path: line, Duration: pendingDuration}
		entry.Artist, entry.Title = splitDisplayTitle(pendingInfo)
		if entry.Title == "" {
			entry.Title = stemOf(line)
		}
		entries = append(entries, entry)

		pendingInfo = ""
		pendingDuration = 0
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}
	return entries, nil
}

// EncodePLS renders entries as a PLS document.
func EncodePLS(entries []Entry) []byte {
	var buf bytes.Buffer
	buf.WriteString("[playlist]\n")
	fmt.Fprintf(&buf, "NumberOfEntries=%d\n", len(entries))
	for i, entry := range entries {
		n := i + 1
		fmt.Fprintf(&buf, "File%d=%s\n", n, entry.Path)
		fmt.Fprintf(&buf, "Title%d=%s\n", n, entry.displayTitle())
		fmt.Fprintf(&buf, "Length%d=%d\n", n, entry.lengthSeconds())
	}
	buf.WriteString("Version=2\n")
	return buf.Bytes()
}

// WritePLS writes a PLS file.
func WritePLS(entries []Entry, path string) error {
	return os.WriteFile(path, EncodePLS(entries), 0o644)
}

// ParsePLS reads a PLS file.
func ParsePLS(path string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open playlist: %w", err)
	}

	fields := map[string]string{}
	inPlaylist := false
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inPlaylist = strings.EqualFold(line, "[playlist]")
			continue
		}
		if !inPlaylist {
			continue
		}
		if idx := strings.Index(line, "="); idx > 0 {
			key := strings.ToLower(strings.TrimSpace(line[:idx]))
			fields[key] = strings.TrimSpace(line[idx+1:])
		}
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("parse playlist %s: missing [playlist] section", path)
	}

	count, _ := strconv.Atoi(fields["numberofentries"])
	entries := make([]Entry, 0, count)
	for i := 1; i <= count; i++ {
		file, ok := fields[fmt.Sprintf("file%d", i)]
		if !ok {
			continue
		}
		entry := Entry{Path: file}
		entry.Artist, entry.Title = splitDisplayTitle(fields[fmt.Sprintf("title%d", i)])
		if entry.Title == "" {
			entry.Title = stemOf(file)
		}
		if secs, err := strconv.Atoi(fields[fmt.Sprintf("length%d", i)]); err == nil && secs > 0 {
			entry.Duration = time.Duration(secs) * time.Second
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// splitDisplayTitle undoes the "Artist - Title" convention.
func splitDisplayTitle(info string) (artist, title string) {
	if info == "" {
		return "", ""
	}
	if idx := strings.Index(info, " - "); idx >= 0 {
		return strings.TrimSpace(info[:idx]), strings.TrimSpace(info[idx+3:])
	}
	return "", strings.TrimSpace(info)
}

func stemOf(path string) string {
	base := path
	if idx := strings.LastIndexAny(base, "/\\"); idx >= 0 {
		base = base[idx+1:]
	}
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}
