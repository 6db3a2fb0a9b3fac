package meta

import (
	"fmt"
	"strings"
)

const headPrefix = "ref: "

type HeadRef string

func (h HeadRef) String() string { return string(h) }

// GetHeadRef reads HEAD for this repository.
func (mc *MetaContext) GetHeadRef() (HeadRef, error) {
	data, err := mc.FS.ReadFile(mc.Config.HeadFile())
	if err != nil {
		return "", fmt.Errorf("read HEAD %q: %w", mc.Config.HeadFile(), err)
	}
	content := strings.TrimSpace(string(data))
	if !strings.HasPrefix(content, headPrefix) {
		return "", fmt.Errorf("invalid HEAD content: %q", content)
	}
	return HeadRef(strings.TrimPrefix(content, headPrefix)), nil
}

// SetHeadRef points HEAD at a branch. Accepts "branches/<name>" or a bare name.
func (mc *MetaContext) SetHeadRef(branch string) (HeadRef, error) {
	refVal := branch
	if !strings.HasPrefix(branch, "branches/") {
		refVal = "branches/" + branch
	}
	if err := mc.FS.WriteFile(mc.Config.HeadFile(), []byte(headPrefix+refVal), 0o644); err != nil {
		return "", fmt.Errorf("write HEAD %q: %w", mc.Config.HeadFile(), err)
	}
	return HeadRef(refVal), nil
}

// HeadCommitID returns the tip of the current branch and the branch itself.
func (mc *MetaContext) HeadCommitID() (string, Branch, error) {
	b, err := mc.GetCurrentBranch()
	if err != nil {
		return "", Branch{}, err
	}
	id, err := mc.GetLastCommitID(b.Name)
	if err != nil {
		return "", Branch{}, err
	}
	return id, b, nil
}

// SetFetchHead records the commit id of the last fetch.
func (mc *MetaContext) SetFetchHead(commitID string) error {
	if err := mc.FS.WriteFile(mc.Config.FetchHeadFile(), []byte(commitID+"\n"), 0o644); err != nil {
		return fmt.Errorf("write FETCH_HEAD: %w", err)
	}
	return nil
}

// FetchHead returns the commit id recorded by the last fetch.
func (mc *MetaContext) FetchHead() (string, error) {
	data, err := mc.FS.ReadFile(mc.Config.FetchHeadFile())
	if err != nil {
		return "", fmt.Errorf("read FETCH_HEAD: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
