// Package ingest discovers clinical report files and reads them into
// documents.
package ingest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jackzampolin/mitnm/internal/results"
	"github.com/jackzampolin/mitnm/internal/types"
)

// DefaultPattern matches plain-text reports.
const DefaultPattern = "*.txt"

// Request contains the parameters for loading a directory of reports.
type Request struct {
	Dir     string       // Directory to scan (not recursive)
	Pattern string       // Glob matched against file names (default *.txt)
	Logger  *slog.Logger // Optional logger for progress updates
}

// Skipped is a matched file that could not be read.
type Skipped struct {
	Path string
	Err  error
}

// Result contains the documents of a directory, in natural path order.
type Result struct {
	Documents []types.Document
	Skipped   []Skipped
}

// LoadDir reads every file in req.Dir matching req.Pattern. Files that
// cannot be read are reported in Result.Skipped instead of failing the
// whole load. It fails when the directory is missing or nothing matches.
func LoadDir(req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}
	pattern := req.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}

	info, err := os.Stat(req.Dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("report directory not found or not a directory: %s", req.Dir)
	}

	matches, err := filepath.Glob(filepath.Join(req.Dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	var paths []string
	for _, m := range matches {
		// Signature files written alongside the reports are never reports.
		if strings.EqualFold(filepath.Ext(m), results.Ext) {
			log.Debug("ingest.skip_result", "file", filepath.Base(m))
			continue
		}
		if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
			paths = append(paths, m)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files matched pattern %q in %s", pattern, req.Dir)
	}

	sorted := sortByNumber(paths)
	log.Debug("ingest.discovered", "dir", req.Dir, "pattern", pattern, "files", len(sorted))

	result := &Result{Documents: make([]types.Document, 0, len(sorted))}
	for _, p := range sorted {
		doc, err := LoadFile(p)
		if err != nil {
			log.Warn("ingest.skip", "file", filepath.Base(p), "error", err)
			result.Skipped = append(result.Skipped, Skipped{Path: p, Err: err})
			continue
		}
		result.Documents = append(result.Documents, doc)
	}
	return result, nil
}

// LoadFile reads one report. Surrounding whitespace is trimmed from the
// text; the document id is the file stem.
func LoadFile(path string) (types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("read error: %w", err)
	}
	return types.Document{
		ID:   types.StemOf(path),
		Path: path,
		Text: strings.TrimSpace(string(data)),
	}, nil
}

var chunkPattern = regexp.MustCompile(`\d+|\D+`)

// sortByNumber sorts paths in natural order: digit runs compare
// numerically, everything else lexically.
// e.g., ["p10.txt", "p2.txt", "p1.txt"] -> ["p1.txt", "p2.txt", "p10.txt"]
func sortByNumber(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)

	sort.SliceStable(sorted, func(i, j int) bool {
		return naturalLess(sorted[i], sorted[j])
	})
	return sorted
}

func naturalLess(a, b string) bool {
	ca := chunkPattern.FindAllString(a, -1)
	cb := chunkPattern.FindAllString(b, -1)

	for k := 0; k < len(ca) && k < len(cb); k++ {
		if ca[k] == cb[k] {
			continue
		}
		na, errA := strconv.ParseUint(ca[k], 10, 64)
		nb, errB := strconv.ParseUint(cb[k], 10, 64)
		if errA == nil && errB == nil {
			if na != nb {
				return na < nb
			}
			// Same value, different zero padding: shorter first.
			return len(ca[k]) < len(cb[k])
		}
		return ca[k] < cb[k]
	}
	if len(ca) != len(cb) {
		return len(ca) < len(cb)
	}
	return a < b
}
