package file

import (
	"bufio"
	"bytes"
	"path"
	"path/filepath"
	"strings"

	"github.com/keshon/bvc-subtree/internal/config"
	"github.com/keshon/bvc-subtree/internal/fs"
)

type Ignore struct {
	static  map[string]bool
	pattern []string
}

// NewIgnore loads the default ignores plus patterns from ignoreFile, if present.
func NewIgnore(fsys fs.Reader, ignoreFile string) *Ignore {
	m := &Ignore{static: make(map[string]bool)}

	for _, s := range config.DefaultIgnoredFiles {
		m.static[path.Clean(s)] = true
	}

	if ignoreFile == "" || fsys == nil {
		return m
	}
	data, err := fsys.ReadFile(ignoreFile)
	if err != nil {
		return m
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.pattern = append(m.pattern, strings.TrimSuffix(filepath.ToSlash(line), "/"))
	}
	return m
}

// Match returns true if the tree-relative path should be ignored.
func (m *Ignore) Match(p string) bool {
	clean := path.Clean(filepath.ToSlash(p))

	if m.static[clean] {
		return true
	}
	for _, pat := range m.pattern {
		if matchPattern(pat, clean) {
			return true
		}
	}
	return false
}

// matchPattern handles *, ? and ** the way git does.
func matchPattern(pattern, p string) bool {
	pattern = strings.TrimSuffix(filepath.ToSlash(pattern), "/")
	return matchSegments(strings.Split(pattern, "/"), strings.Split(p, "/"))
}

func matchSegments(pats, parts []string) bool {
	for len(pats) > 0 {
		p := pats[0]
		pats = pats[1:]

		if p == "**" {
			if len(pats) == 0 {
				return len(parts) > 0
			}
			for i := 0; i <= len(parts); i++ {
				if matchSegments(pats, parts[i:]) {
					return true
				}
			}
			return false
		}

		if len(parts) == 0 {
			return false
		}
		if ok, _ := path.Match(p, parts[0]); !ok {
			return false
		}
		parts = parts[1:]
	}
	return len(parts) == 0
}
