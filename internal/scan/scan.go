// internal/scan/scan.go
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

/*
 * Sample discovery.
 *
 * Walks the samples root recursively collecting audio files. Top-level
 * subdirectories are walked in parallel for throughput, but results funnel
 * through an ordered merge: files directly under the root come first in
 * name order, then each subdirectory's files in lexical walk order,
 * subdirectories themselves in name order. Kit and category grouping order
 * downstream depends on this order, so two scans of the same tree always
 * yield the same path sequence.
 */

// audioExts are the recognized sample file extensions.
var audioExts = map[string]bool{
	".wav":  true,
	".aif":  true,
	".aiff": true,
	".flac": true,
}

// IsAudioFile reports whether a filename has a recognized audio extension.
func IsAudioFile(name string) bool {
	return audioExts[strings.ToLower(filepath.Ext(name))]
}

// Samples returns the absolute paths of all audio files under root, in
// deterministic order.
func Samples(root string) ([]string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve samples root: %w", err)
	}

	entries, err := os.ReadDir(rootAbs)
	if err != nil {
		return nil, fmt.Errorf("read samples root: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var topFiles []string
	var subdirs []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, filepath.Join(rootAbs, e.Name()))
			continue
		}
		if IsAudioFile(e.Name()) {
			topFiles = append(topFiles, filepath.Join(rootAbs, e.Name()))
		}
	}

	// One walker per top-level subdirectory; results indexed by position so
	// the merge stays ordered no matter which walker finishes first.
	perDir := make([][]string, len(subdirs))
	errs := make([]error, len(subdirs))
	var wg sync.WaitGroup
	for i, dir := range subdirs {
		wg.Add(1)
		go func(i int, dir string) {
			defer wg.Done()
			perDir[i], errs[i] = walkDir(dir)
		}(i, dir)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	paths := topFiles
	for _, files := range perDir {
		paths = append(paths, files...)
	}
	return paths, nil
}

// walkDir collects audio files under dir in lexical order.
func walkDir(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsAudioFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return files, nil
}
