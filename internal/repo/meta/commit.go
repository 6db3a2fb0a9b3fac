package meta

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/keshon/bvc-subtree/internal/util"
)

// ShortIDLen is the length of abbreviated commit ids.
const ShortIDLen = 7

// ErrCommitNotFound is returned when no commit with the given id is stored.
var ErrCommitNotFound = errors.New("commit not found")

type Commit struct {
	ID        string   `json:"id"`
	Parents   []string `json:"parents"`
	Branch    string   `json:"branch"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
	FilesetID string   `json:"fileset_id"`
}

// NewCommit builds a commit and derives its id from the content.
func NewCommit(parents []string, filesetID, branch, message string, at time.Time) *Commit {
	c := &Commit{
		Parents:   append([]string{}, parents...),
		Branch:    branch,
		Message:   message,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
		FilesetID: filesetID,
	}
	c.ID = c.hash()
	return c
}

func (c *Commit) hash() string {
	var sb strings.Builder
	for _, p := range c.Parents {
		sb.WriteString("parent ")
		sb.WriteString(p)
		sb.WriteByte('\n')
	}
	sb.WriteString("fileset " + c.FilesetID + "\n")
	sb.WriteString("branch " + c.Branch + "\n")
	sb.WriteString("time " + c.Timestamp + "\n\n")
	sb.WriteString(c.Message)
	return fmt.Sprintf("%x", xxh3.HashString128(sb.String()).Bytes())
}

// Time parses the commit timestamp; unparsable stamps yield the zero time.
func (c *Commit) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, c.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Subject returns the first line of the message.
func (c *Commit) Subject() string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return strings.TrimRight(subject, "\r")
}

// ShortID abbreviates a commit id.
func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[:ShortIDLen]
}

func (mc *MetaContext) commitPath(id string) string {
	return filepath.Join(mc.Config.CommitsDir(), id+".json")
}

// HasCommit reports whether a commit is stored.
func (mc *MetaContext) HasCommit(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\.`) && mc.FS.Exists(mc.commitPath(id))
}

// GetCommit reads a commit by ID.
func (mc *MetaContext) GetCommit(commitID string) (*Commit, error) {
	if !mc.HasCommit(commitID) {
		return nil, fmt.Errorf("%w: %q", ErrCommitNotFound, commitID)
	}
	var c Commit
	if err := util.ReadJSON(mc.FS, mc.commitPath(commitID), &c); err != nil {
		return nil, fmt.Errorf("read commit %q: %w", commitID, err)
	}
	return &c, nil
}

// CreateCommit writes a commit to the store.
func (mc *MetaContext) CreateCommit(commit *Commit) (string, error) {
	if commit.ID == "" {
		return "", fmt.Errorf("invalid commit: missing ID")
	}
	if err := util.WriteJSON(mc.FS, mc.commitPath(commit.ID), commit); err != nil {
		return "", fmt.Errorf("write commit %q: %w", commit.ID, err)
	}
	return commit.ID, nil
}

// ListCommitIDs returns the ids of every stored commit.
func (mc *MetaContext) ListCommitIDs() ([]string, error) {
	entries, err := mc.FS.ReadDir(mc.Config.CommitsDir())
	if err != nil {
		if mc.FS.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list commits: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if name := e.Name(); !e.IsDir() && strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	return ids, nil
}

// GetCommitsForBranch returns the first-parent chain of branch (latest -> oldest).
func (mc *MetaContext) GetCommitsForBranch(branch string) ([]*Commit, error) {
	id, err := mc.GetLastCommitID(branch)
	if err != nil {
		return nil, err
	}
	var commits []*Commit
	seen := map[string]bool{}
	for id != "" && !seen[id] {
		seen[id] = true
		c, err := mc.GetCommit(id)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
		if len(c.Parents) == 0 {
			break
		}
		id = c.Parents[0]
	}
	return commits, nil
}
