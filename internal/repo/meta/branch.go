package meta

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrTipMoved is returned when a branch tip changed between read and update.
var ErrTipMoved = errors.New("branch tip moved")

// Branch represents a branch name.
type Branch struct {
	Name string
}

// GetCurrentBranch returns the branch HEAD points at.
func (mc *MetaContext) GetCurrentBranch() (Branch, error) {
	ref, err := mc.GetHeadRef()
	if err != nil {
		return Branch{}, fmt.Errorf("get HEAD ref: %w", err)
	}
	name := strings.TrimPrefix(ref.String(), "branches/")
	if name == "" {
		return Branch{}, fmt.Errorf("HEAD ref is empty or invalid")
	}
	return Branch{Name: name}, nil
}

// ListBranches returns all branches sorted by name.
func (mc *MetaContext) ListBranches() ([]Branch, error) {
	dirEntries, err := mc.FS.ReadDir(mc.Config.BranchesDir())
	if err != nil {
		return nil, fmt.Errorf("read branches directory %q: %w", mc.Config.BranchesDir(), err)
	}
	branches := make([]Branch, 0, len(dirEntries))
	for _, e := range dirEntries {
		if !e.IsDir() {
			branches = append(branches, Branch{Name: e.Name()})
		}
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// CreateBranch creates a new branch pointing at commitID.
func (mc *MetaContext) CreateBranch(name, commitID string) (Branch, error) {
	if err := ValidBranchName(name); err != nil {
		return Branch{}, err
	}
	if mc.BranchExists(name) {
		return Branch{}, fmt.Errorf("branch %q already exists", name)
	}
	if err := mc.SetLastCommitID(name, commitID); err != nil {
		return Branch{}, err
	}
	return Branch{Name: name}, nil
}

// BranchExists checks for branch existence.
func (mc *MetaContext) BranchExists(name string) bool {
	if ValidBranchName(name) != nil {
		return false
	}
	return mc.FS.Exists(filepath.Join(mc.Config.BranchesDir(), name))
}

// SetLastCommitID writes the branch tip unconditionally.
func (mc *MetaContext) SetLastCommitID(branch, commitID string) error {
	path := filepath.Join(mc.Config.BranchesDir(), branch)
	if err := mc.FS.WriteFile(path, []byte(commitID), 0o644); err != nil {
		return fmt.Errorf("set last commit for branch %q: %w", branch, err)
	}
	return nil
}

// GetLastCommitID returns the tip of branch, or "" for an unborn branch.
func (mc *MetaContext) GetLastCommitID(branch string) (string, error) {
	data, err := mc.FS.ReadFile(filepath.Join(mc.Config.BranchesDir(), branch))
	if err != nil {
		if mc.FS.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read last commit for branch %q: %w", branch, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// CompareAndSwapTip moves branch from old to new, failing with ErrTipMoved if
// the tip is no longer old. Callers hold the repository lock.
func (mc *MetaContext) CompareAndSwapTip(branch, old, new string) error {
	cur, err := mc.GetLastCommitID(branch)
	if err != nil {
		return err
	}
	if cur != old {
		return fmt.Errorf("%w: %s is at %q, expected %q", ErrTipMoved, branch, ShortID(cur), ShortID(old))
	}
	return mc.SetLastCommitID(branch, new)
}

// ValidBranchName applies the ref name rules to branches/<name>.
func ValidBranchName(name string) error {
	if !ValidRefName("branches/" + name) {
		return fmt.Errorf("invalid branch name %q", name)
	}
	return nil
}
