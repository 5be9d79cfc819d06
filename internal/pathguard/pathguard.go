package pathguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Guard confines file operations to a single root directory.
//
// Confinement is checked through the real filesystem path, not a string
// prefix: existing targets are resolved with EvalSymlinks so a symlink inside
// the root cannot point writes outside it. Targets that do not exist yet fall
// back to resolving the nearest existing ancestor and lexically cleaning the
// remainder, rejecting ".." segments.
type Guard struct {
	root string
}

// New creates a Guard rooted at dir. The root must exist; it is resolved
// through symlinks once at construction.
func New(dir string) (*Guard, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", dir)
	}
	return &Guard{root: resolved}, nil
}

// Root returns the resolved root directory.
func (g *Guard) Root() string {
	return g.root
}

// Resolve validates that path is absolute and confined to the root, and
// returns the real path to operate on.
func (g *Guard) Resolve(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", fmt.Errorf("path must be absolute: %s", path)
	}
	clean := filepath.Clean(path)

	if resolved, err := filepath.EvalSymlinks(clean); err == nil {
		if !g.contains(resolved) {
			return "", fmt.Errorf("path escapes root %s: %s", g.root, path)
		}
		return resolved, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	// Target does not exist yet. Reject traversal segments before they are
	// collapsed away, then resolve the nearest existing ancestor and
	// re-attach the remaining lexical suffix.
	for _, seg := range strings.Split(path, string(filepath.Separator)) {
		if seg == ".." {
			return "", fmt.Errorf("path traversal rejected: %s", path)
		}
	}
	resolved, err := g.resolveMissing(clean)
	if err != nil {
		return "", err
	}
	if !g.contains(resolved) {
		return "", fmt.Errorf("path escapes root %s: %s", g.root, path)
	}
	return resolved, nil
}

func (g *Guard) resolveMissing(clean string) (string, error) {
	var suffix []string
	dir := clean
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		suffix = append([]string{filepath.Base(dir)}, suffix...)
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			return filepath.Join(append([]string{resolved}, suffix...)...), nil
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("resolve %s: %w", clean, err)
		}
		dir = parent
	}
	return "", fmt.Errorf("no existing ancestor for %s", clean)
}

func (g *Guard) contains(resolved string) bool {
	if resolved == g.root {
		return true
	}
	return strings.HasPrefix(resolved, g.root+string(filepath.Separator))
}
