package publish

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/workshop-labs/claude-sync/internal/reconcile"
)

func initArchiveRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	t.Setenv("GIT_AUTHOR_NAME", "test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")

	root := filepath.Join(t.TempDir(), "archive")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if out, err := exec.Command("git", "-C", root, "init").CombinedOutput(); err != nil {
		t.Fatalf("git init: %v\n%s", err, out)
	}
	return root
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func lastCommitMessage(t *testing.T, root string) string {
	t.Helper()
	out, err := exec.Command("git", "-C", root, "log", "-1", "--format=%s").Output()
	if err != nil {
		t.Fatalf("git log: %v", err)
	}
	return strings.TrimSpace(string(out))
}

func TestCommitCreatesCommit(t *testing.T) {
	root := initArchiveRepo(t)
	if err := os.WriteFile(filepath.Join(root, "new.jsonl"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pub := New(root, "host1", quietLogger())
	summary := reconcile.Summary{Synced: 3}

	if err := pub.CommitAndPush(context.Background(), summary, false); err != nil {
		t.Fatalf("CommitAndPush: %v", err)
	}

	if got := lastCommitMessage(t, root); got != "Sync 3 sessions from host1" {
		t.Errorf("commit message = %q", got)
	}
}

func TestNothingToCommitIsOK(t *testing.T) {
	root := initArchiveRepo(t)

	pub := New(root, "host1", quietLogger())
	if err := pub.CommitAndPush(context.Background(), reconcile.Summary{}, false); err != nil {
		t.Fatalf("CommitAndPush on clean repo: %v", err)
	}

	// no commit should have been created
	if out, err := exec.Command("git", "-C", root, "log", "--oneline").Output(); err == nil && len(out) > 0 {
		t.Errorf("unexpected commits:\n%s", out)
	}
}

func TestPushWithoutRemote(t *testing.T) {
	root := initArchiveRepo(t)
	if err := os.WriteFile(filepath.Join(root, "new.jsonl"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pub := New(root, "host1", quietLogger())
	err := pub.CommitAndPush(context.Background(), reconcile.Summary{Synced: 1}, true)
	if !errors.Is(err, ErrPublish) {
		t.Fatalf("push without remote: err = %v, want ErrPublish", err)
	}

	// the commit still landed even though the push failed
	if got := lastCommitMessage(t, root); got != "Sync 1 sessions from host1" {
		t.Errorf("commit message = %q", got)
	}
}

func TestPushToLocalRemote(t *testing.T) {
	root := initArchiveRepo(t)

	bare := filepath.Join(t.TempDir(), "remote.git")
	if out, err := exec.Command("git", "init", "--bare", bare).CombinedOutput(); err != nil {
		t.Fatalf("git init --bare: %v\n%s", err, out)
	}
	if out, err := exec.Command("git", "-C", root, "remote", "add", "origin", bare).CombinedOutput(); err != nil {
		t.Fatalf("git remote add: %v\n%s", err, out)
	}

	if err := os.WriteFile(filepath.Join(root, "new.jsonl"), []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	pub := New(root, "host1", quietLogger())
	if err := pub.CommitAndPush(context.Background(), reconcile.Summary{Synced: 1}, true); err != nil {
		t.Fatalf("CommitAndPush with push: %v", err)
	}

	out, err := exec.Command("git", "-C", bare, "log", "-1", "--format=%s").Output()
	if err != nil {
		t.Fatalf("git log on remote: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "Sync 1 sessions from host1" {
		t.Errorf("remote commit message = %q", got)
	}
}
