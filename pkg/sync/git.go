package sync

import (
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// GitManager commits and pushes the note export directory
type GitManager struct {
	RepoPath string
}

// NewGitManager creates a new GitManager
func NewGitManager(repoPath string) *GitManager {
	return &GitManager{RepoPath: repoPath}
}

// Sync commits all changes under the export directory and pushes to remote
func (g *GitManager) Sync(message string) error {
	r, err := git.PlainOpen(g.RepoPath)
	if err != nil {
		return fmt.Errorf("failed to open repo: %w", err)
	}

	w, err := r.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if status.IsClean() {
		return nil
	}

	if _, err := w.Add("."); err != nil {
		return fmt.Errorf("failed to add changes: %w", err)
	}

	if message == "" {
		message = fmt.Sprintf("Note export sync: %s", time.Now().Format(time.RFC3339))
	}

	_, err = w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "TidyMind",
			Email: "tidymind@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	// go-git needs explicit SSH auth; fall back to an unauthenticated push
	// when no default key is readable (https remotes, public repos).
	home, _ := os.UserHomeDir()
	sshKeyPath := fmt.Sprintf("%s/.ssh/id_rsa", home)

	publicKeys, err := ssh.NewPublicKeysFromFile("git", sshKeyPath, "")
	if err != nil {
		err = r.Push(&git.PushOptions{})
	} else {
		err = r.Push(&git.PushOptions{Auth: publicKeys})
	}

	if err != nil {
		if err == git.NoErrAlreadyUpToDate {
			return nil
		}
		return fmt.Errorf("failed to push: %w", err)
	}

	return nil
}
