package meta

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownRevision   = errors.New("unknown revision")
	ErrAmbiguousRevision = errors.New("ambiguous revision")
)

// MinPrefixLen is the shortest abbreviated id accepted by ResolveRevision.
const MinPrefixLen = 4

// ResolveRevision maps HEAD, FETCH_HEAD, a branch name, a full id or a unique
// id prefix to a commit id.
func (mc *MetaContext) ResolveRevision(rev string) (string, error) {
	rev = strings.TrimSpace(rev)
	switch rev {
	case "":
		return "", fmt.Errorf("%w: empty revision", ErrUnknownRevision)
	case "HEAD":
		id, _, err := mc.HeadCommitID()
		if err != nil {
			return "", err
		}
		if id == "" {
			return "", fmt.Errorf("%w: HEAD has no commits", ErrUnknownRevision)
		}
		return id, nil
	case "FETCH_HEAD":
		id, err := mc.FetchHead()
		if err != nil || id == "" {
			return "", fmt.Errorf("%w: FETCH_HEAD", ErrUnknownRevision)
		}
		return id, nil
	}

	if name := strings.TrimPrefix(rev, "branches/"); mc.BranchExists(name) {
		id, err := mc.GetLastCommitID(name)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}

	if mc.HasCommit(rev) {
		return rev, nil
	}
	if len(rev) < MinPrefixLen || !isHex(rev) {
		return "", fmt.Errorf("%w: %q", ErrUnknownRevision, rev)
	}

	ids, err := mc.ListCommitIDs()
	if err != nil {
		return "", err
	}
	var match string
	for _, id := range ids {
		if !strings.HasPrefix(id, rev) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("%w: %q", ErrAmbiguousRevision, rev)
		}
		match = id
	}
	if match == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownRevision, rev)
	}
	return match, nil
}

func isHex(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

// ValidRefName reports whether name is acceptable as a reference name,
// following the git refname rules.
func ValidRefName(name string) bool {
	if name == "" || name == "@" {
		return false
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") ||
		strings.HasSuffix(name, ".") || strings.HasSuffix(name, ".lock") {
		return false
	}
	if strings.Contains(name, "..") || strings.Contains(name, "//") || strings.Contains(name, "@{") {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(" ~^:?*[\\", r) {
			return false
		}
	}
	for _, comp := range strings.Split(name, "/") {
		if strings.HasPrefix(comp, ".") || strings.HasSuffix(comp, ".lock") {
			return false
		}
	}
	return true
}
