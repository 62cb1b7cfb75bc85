// Package publish commits synced sessions in the archive repository and
// optionally pushes them to the configured remote.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/workshop-labs/claude-sync/internal/reconcile"
	"github.com/workshop-labs/claude-sync/internal/vcs"
	"github.com/workshop-labs/claude-sync/internal/vcs/git"
)

// ErrPublish wraps version-control failures during commit or push. The
// archive files themselves are never rolled back on publish failure: the
// archive is allowed to be ahead of the remote.
var ErrPublish = errors.New("publish failed")

// Publisher commits and pushes the archive repository.
type Publisher struct {
	root      string
	machineID string
	logger    *slog.Logger
}

// New creates a Publisher for the archive at root.
func New(root, machineID string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{root: root, machineID: machineID, logger: logger}
}

// CommitAndPush stages everything under the archive root and creates one
// commit summarizing the run. The push happens only when push is true and
// a remote is configured; a requested push without a remote is an error.
// Nothing to commit is not an error.
func (p *Publisher) CommitAndPush(ctx context.Context, summary reconcile.Summary, push bool) error {
	repo, err := git.New(p.root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	dirty, err := repo.HasChanges()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	if dirty {
		if err := repo.Add([]string{"."}); err != nil {
			return fmt.Errorf("%w: %v", ErrPublish, err)
		}

		message := fmt.Sprintf("Sync %d sessions from %s", summary.Synced, p.machineID)
		if err := repo.Commit(ctx, vcs.CommitOptions{Message: message}); err != nil {
			return fmt.Errorf("%w: %v", ErrPublish, err)
		}
		p.logger.Info("committed", "message", message)
	} else {
		p.logger.Debug("nothing to commit")
	}

	if !push {
		return nil
	}
	if !repo.HasRemote() {
		return fmt.Errorf("%w: %v", ErrPublish, vcs.ErrNoRemote)
	}

	if err := repo.Push(ctx, vcs.PushOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	p.logger.Info("pushed to remote")

	return nil
}
