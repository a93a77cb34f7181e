// Package loader produces rustdoc JSON documents for a Cargo workspace and
// loads them into memory.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/phobologic/rsbrowse/internal/discover"
	"github.com/phobologic/rsbrowse/internal/rustdoc"
)

// TargetDir is the cargo target directory used for generated documents,
// relative to the workspace root.
const TargetDir = "target/rsbrowse"

// DocDir returns the directory holding the generated documents for root.
func DocDir(root string) string {
	return filepath.Join(root, filepath.FromSlash(TargetDir), "doc")
}

// Load parses every document in DocDir(root) using up to workers goroutines
// (GOMAXPROCS when workers <= 0). The result is keyed by file stem, which is
// the crate name. Any unreadable or malformed document fails the whole load.
func Load(root string, workers int) (map[string]*rustdoc.Crate, error) {
	paths, err := docFiles(DocDir(root))
	if err != nil {
		return nil, err
	}
	return parseConcurrent(paths, workers)
}

func docFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading doc directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func parseConcurrent(paths []string, workers int) (map[string]*rustdoc.Crate, error) {
	type result struct {
		name  string
		crate *rustdoc.Crate
		err   error
	}

	numWorkers := workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}

	work := make(chan string, len(paths))
	results := make(chan result, len(paths))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range work {
				name := strings.TrimSuffix(filepath.Base(path), ".json")
				c, err := rustdoc.ReadFile(path)
				if err != nil {
					err = fmt.Errorf("loading %s: %w", path, err)
				}
				results <- result{name: name, crate: c, err: err}
			}
		}()
	}

	for _, p := range paths {
		work <- p
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	docs := make(map[string]*rustdoc.Crate, len(paths))
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		docs[r.name] = r.crate
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return docs, nil
}

// IsFresh reports whether the generated documents are newer than every
// source file. It is false when no documents exist or a source cannot be
// examined.
func IsFresh(root string, sources []discover.FileEntry) bool {
	paths, err := docFiles(DocDir(root))
	if err != nil || len(paths) == 0 {
		return false
	}

	var oldest os.FileInfo
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return false
		}
		if oldest == nil || fi.ModTime().Before(oldest.ModTime()) {
			oldest = fi
		}
	}

	for _, f := range sources {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(oldest.ModTime()) {
			return false
		}
	}
	return true
}
