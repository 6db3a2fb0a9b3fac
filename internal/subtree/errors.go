package subtree

import (
	"errors"
	"fmt"

	"github.com/keshon/bvc-subtree/internal/config"
	"github.com/keshon/bvc-subtree/internal/merge"
	"github.com/keshon/bvc-subtree/internal/repo"
	"github.com/keshon/bvc-subtree/internal/repo/meta"
	"github.com/keshon/bvc-subtree/internal/revwalk"
	"github.com/keshon/bvc-subtree/internal/transport"
)

// Failure classes. Specific errors below wrap one of them where they belong to it.
var (
	ErrPrecondition = errors.New("precondition violated")
	ErrResolution   = errors.New("resolution failed")
	ErrTraversal    = errors.New("traversal failed")
)

var (
	ErrInvalidPrefix = fmt.Errorf("%w: invalid prefix", ErrPrecondition)
	ErrPrefixExists  = fmt.Errorf("%w: prefix already exists", ErrPrecondition)
	ErrPrefixMissing = fmt.Errorf("%w: prefix does not exist", ErrPrecondition)

	ErrTreeUnavailable = fmt.Errorf("%w: tree unavailable", ErrResolution)
	ErrRevisionWalk    = fmt.Errorf("%w: revision walk", ErrTraversal)

	ErrMergeConflict = errors.New("merge conflict")
	ErrIndexWrite    = errors.New("index write failed")
	ErrCheckout      = errors.New("checkout failed")

	// Sync metadata exists but cannot be trusted.
	ErrAmbiguousSyncPoint   = errors.New("ambiguous sync point")
	ErrSplitRefUnresolvable = errors.New("embedded-split ref cannot be resolved")

	ErrNotFound       = errors.New("no sync point found")
	ErrNoPriorSync    = errors.New("prefix was never added")
	ErrNotImplemented = errors.New("not implemented")
)

// Kind classifies an operation failure for reporting and exit status.
type Kind int

const (
	KindUnknown Kind = iota
	KindPrecondition
	KindResolution
	KindTraversal
	KindMergeConflict
	KindUntrustedMetadata
	KindNoPriorSync
	KindIndexWrite
	KindNotImplemented
)

var kindNames = map[Kind]string{
	KindUnknown:           "error",
	KindPrecondition:      "precondition violation",
	KindResolution:        "resolution failure",
	KindTraversal:         "traversal failure",
	KindMergeConflict:     "merge conflict",
	KindUntrustedMetadata: "untrusted sync metadata",
	KindNoPriorSync:       "no prior sync",
	KindIndexWrite:        "index write failure",
	KindNotImplemented:    "not implemented",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ExitCode is the process status reported for k. Zero is never returned.
func (k Kind) ExitCode() int {
	return int(k) + 1
}

// KindOf classifies err. The order matters: specific errors are tested
// before the classes they wrap.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNoPriorSync):
		return KindNoPriorSync
	case errors.Is(err, ErrAmbiguousSyncPoint), errors.Is(err, ErrSplitRefUnresolvable):
		return KindUntrustedMetadata
	case errors.Is(err, ErrMergeConflict), errors.Is(err, merge.ErrConflict):
		return KindMergeConflict
	case errors.Is(err, ErrIndexWrite), errors.Is(err, merge.ErrIndexWrite):
		return KindIndexWrite
	case errors.Is(err, ErrNotImplemented):
		return KindNotImplemented
	case errors.Is(err, ErrTraversal), errors.Is(err, revwalk.ErrPrepare):
		return KindTraversal
	case errors.Is(err, ErrPrecondition),
		errors.Is(err, repo.ErrDirty),
		errors.Is(err, repo.ErrLocked),
		errors.Is(err, repo.ErrNotRepository),
		errors.Is(err, config.ErrNoRepository),
		errors.Is(err, meta.ErrTipMoved):
		return KindPrecondition
	case errors.Is(err, ErrResolution),
		errors.Is(err, ErrNotFound),
		errors.Is(err, meta.ErrUnknownRevision),
		errors.Is(err, meta.ErrAmbiguousRevision),
		errors.Is(err, meta.ErrCommitNotFound),
		errors.Is(err, transport.ErrInvalidRef),
		errors.Is(err, transport.ErrUnknownRef),
		errors.Is(err, transport.ErrInvalidRemote):
		return KindResolution
	}
	return KindUnknown
}
