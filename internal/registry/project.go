package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Editor projects carry these two directories at their root.
var projectMarkers = []string{"Assets", "ProjectSettings"}

const discoverMaxDepth = 4

// ValidateProject checks that target names a well-formed project directory.
func ValidateProject(target string) error {
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidTarget, target)
	}
	for _, marker := range projectMarkers {
		mi, err := os.Stat(filepath.Join(target, marker))
		if err != nil || !mi.IsDir() {
			return fmt.Errorf("%w: %s missing %s/", ErrInvalidTarget, target, marker)
		}
	}
	return nil
}

// findProjects walks searchRoot for project-shaped directories, bounded in
// depth. Project roots are not descended into.
func findProjects(searchRoot string) ([]string, error) {
	root := strings.TrimSpace(searchRoot)
	if root == "" {
		return nil, fmt.Errorf("%w: empty search root", ErrInvalidTarget)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidTarget, root)
	}

	var targets []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree; partial results are fine.
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); strings.HasPrefix(name, ".") && path != root {
			return fs.SkipDir
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr == nil && rel != "." && strings.Count(rel, string(filepath.Separator)) >= discoverMaxDepth {
			return fs.SkipDir
		}
		if ValidateProject(path) == nil {
			targets = append(targets, path)
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return targets, nil
}
