package vcs

import (
	"fmt"
	"os/exec"
	"strings"
)

// GitBackend implements VCS for Git.
type GitBackend struct{}

// NewGitBackend creates a new Git backend instance.
func NewGitBackend() *GitBackend {
	return &GitBackend{}
}

// Type returns VCSTypeGit.
func (g *GitBackend) Type() VCSType {
	return VCSTypeGit
}

func (g *GitBackend) run(projectDir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = projectDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %s: %w", args[0], strings.TrimSpace(string(output)), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentBranch returns the current branch name, or the short commit hash
// on a detached HEAD.
func (g *GitBackend) CurrentBranch(projectDir string) (string, error) {
	result, err := g.run(projectDir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if result == "HEAD" {
		return g.run(projectDir, "rev-parse", "--short", "HEAD")
	}
	return result, nil
}

// BranchExists reports whether refs/heads/<name> exists.
func (g *GitBackend) BranchExists(projectDir, name string) (bool, error) {
	cmd := exec.Command("git", "show-ref", "--verify", "--quiet", "refs/heads/"+name)
	cmd.Dir = projectDir
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	// show-ref exits 1 for a missing ref; anything else is a real failure
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
		return false, nil
	}
	return false, fmt.Errorf("git show-ref failed: %w", err)
}

// StartBranch creates the branch from HEAD and checks it out, or checks out
// an existing branch of that name.
func (g *GitBackend) StartBranch(projectDir, name string) (bool, error) {
	if err := ValidateBranchName(name); err != nil {
		return false, err
	}
	exists, err := g.BranchExists(projectDir, name)
	if err != nil {
		return false, err
	}
	if exists {
		_, err := g.run(projectDir, "checkout", name)
		return false, err
	}
	if _, err := g.run(projectDir, "checkout", "-b", name); err != nil {
		return false, err
	}
	return true, nil
}
