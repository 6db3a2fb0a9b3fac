package subtree

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/keshon/bvc-subtree/internal/config"
)

// NormalizePrefix cleans a user supplied prefix into a tree-relative slash path.
func NormalizePrefix(p string) (string, error) {
	raw := p
	p = strings.TrimSpace(filepath.ToSlash(p))
	if p == "" {
		return "", fmt.Errorf("%w: parameter '--prefix' is required", ErrInvalidPrefix)
	}
	if strings.IndexFunc(p, func(r rune) bool { return r < 0x20 || r == 0x7f }) >= 0 {
		return "", fmt.Errorf("%w: %q contains control characters", ErrInvalidPrefix, raw)
	}
	if path.IsAbs(p) || filepath.IsAbs(raw) || filepath.VolumeName(raw) != "" {
		return "", fmt.Errorf("%w: %q is absolute", ErrInvalidPrefix, raw)
	}
	p = path.Clean(p)
	if p == "." {
		return "", fmt.Errorf("%w: %q names the tree root", ErrInvalidPrefix, raw)
	}
	parts := strings.Split(p, "/")
	for _, part := range parts {
		if part == ".." {
			return "", fmt.Errorf("%w: %q leaves the tree", ErrInvalidPrefix, raw)
		}
	}
	if parts[0] == config.RepoDir {
		return "", fmt.Errorf("%w: %q is inside %s", ErrInvalidPrefix, raw, config.RepoDir)
	}
	return p, nil
}
