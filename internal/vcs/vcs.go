// Package vcs defines the version control operations claude-sync needs.
//
// Two call sites use this interface: the archive publisher, which stages
// and commits synced sessions in the archive repository, and the metadata
// extractor, which looks up the remote and branch of a session's working
// directory. Both shell out to the git binary; the interface keeps the
// exec plumbing out of the callers.
package vcs

import "context"

// VCS defines the version control operations used by claude-sync.
// The only implementation is internal/vcs/git.
type VCS interface {
	// Version returns the VCS binary version string
	Version() (string, error)

	// CurrentRef returns the current branch name.
	// Returns empty string in detached HEAD state.
	CurrentRef() (string, error)

	// HasChanges returns true if there are uncommitted changes.
	// If paths are specified, only checks those paths.
	HasChanges(paths ...string) (bool, error)

	// HasRemote returns true if any remote is configured
	HasRemote() bool

	// GetRemotes returns information about configured remotes
	GetRemotes() ([]RemoteInfo, error)

	// RemoteURL returns the URL of the named remote.
	// Returns ErrNoRemote if the remote is not configured.
	RemoteURL(name string) (string, error)

	// Add stages files for commit
	Add(paths []string) error

	// Commit creates a commit with the specified options
	Commit(ctx context.Context, opts CommitOptions) error

	// Push pushes changes to the remote
	Push(ctx context.Context, opts PushOptions) error
}

// RemoteInfo contains information about a remote repository
type RemoteInfo struct {
	// Name is the remote name (e.g., "origin")
	Name string

	// URL is the remote URL
	URL string
}

// CommitOptions configures a commit operation
type CommitOptions struct {
	// Message is the commit message (required)
	Message string

	// Paths specifies files to commit. Empty = all staged changes.
	Paths []string

	// AllowEmpty allows creating an empty commit
	AllowEmpty bool

	// NoVerify skips pre-commit hooks
	NoVerify bool
}

// PushOptions configures a push operation
type PushOptions struct {
	// Remote is the remote name. Empty uses the branch's configured
	// remote, falling back to origin.
	Remote string

	// Ref is the reference to push. Empty uses the current branch.
	Ref string

	// SetUpstream configures the upstream tracking reference
	SetUpstream bool
}
