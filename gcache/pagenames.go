package gcache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultBaseName is the stem of every page file name.
const DefaultBaseName = "gcache.page"

// PageFileName formats the deterministic name for the page with the given
// sequence number. The zero padded suffix makes lexical file ordering on
// disk match creation order, which both the oldest first eviction policy and
// recovery scans rely on.
func PageFileName(base string, seq int) string {
	return fmt.Sprintf("%s.%06d", base, seq)
}

// ParsePageFileName extracts the sequence number from a page file name. It
// accepts names produced by PageFileName for the given base.
func ParsePageFileName(base, name string) (int, error) {
	prefix := base + "."
	if !strings.HasPrefix(name, prefix) {
		return 0, fmt.Errorf("%s: %w", name, ErrBadPageName)
	}
	suffix := name[len(prefix):]
	if len(suffix) < 6 {
		return 0, fmt.Errorf("%s: %w", name, ErrBadPageName)
	}
	seq, err := strconv.Atoi(suffix)
	if err != nil || seq < 0 {
		return 0, fmt.Errorf("%s: %w", name, ErrBadPageName)
	}
	return seq, nil
}

// FindPageFiles enumerates the page files for base in dir, ordered by
// sequence number, so a recovery scan can replay pages in creation order.
// Files not matching the naming scheme are ignored.
func FindPageFiles(dir, base string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list page dir %s: %w", dir, err)
	}

	type pageFile struct {
		seq  int
		path string
	}
	var found []pageFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		seq, err := ParsePageFileName(base, e.Name())
		if err != nil {
			continue
		}
		found = append(found, pageFile{seq: seq, path: filepath.Join(dir, e.Name())})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })

	paths := make([]string, 0, len(found))
	for _, f := range found {
		paths = append(paths, f.path)
	}
	return paths, nil
}
