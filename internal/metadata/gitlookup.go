package metadata

import (
	"os"

	"github.com/workshop-labs/claude-sync/internal/vcs/git"
)

// gitLookup resolves remote/branch by shelling out to git in the
// session's working directory.
type gitLookup struct{}

// NewGitLookup returns the default RemoteLookup backed by the git binary.
func NewGitLookup() RemoteLookup {
	return gitLookup{}
}

func (gitLookup) Lookup(dir string) (remote, branch string) {
	if dir == "" {
		return "", ""
	}
	if _, err := os.Stat(dir); err != nil {
		return "", ""
	}

	g, err := git.New(dir)
	if err != nil {
		return "", ""
	}

	if url, err := g.RemoteURL("origin"); err == nil {
		remote = url
	}
	if ref, err := g.CurrentRef(); err == nil {
		branch = ref
	}
	return remote, branch
}
