package vcs

import (
	"fmt"
	"os/exec"
	"strings"
)

// JJBackend implements VCS for Jujutsu (jj). Branches map to bookmarks.
type JJBackend struct{}

// NewJJBackend creates a new JJ backend instance.
func NewJJBackend() *JJBackend {
	return &JJBackend{}
}

// Type returns VCSTypeJJ.
func (j *JJBackend) Type() VCSType {
	return VCSTypeJJ
}

func (j *JJBackend) run(projectDir string, args ...string) (string, error) {
	cmd := exec.Command("jj", args...)
	cmd.Dir = projectDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("jj %s failed: %s: %w", args[0], strings.TrimSpace(string(output)), err)
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentBranch returns the first bookmark on the working copy, or its
// change id when there is none.
func (j *JJBackend) CurrentBranch(projectDir string) (string, error) {
	out, err := j.run(projectDir, "log", "-r", "@", "--no-graph", "-T", `bookmarks.map(|b| b.name()).join(" ")`)
	if err != nil {
		return "", err
	}
	if fields := strings.Fields(out); len(fields) > 0 {
		return fields[0], nil
	}
	return j.run(projectDir, "log", "-r", "@", "--no-graph", "-T", "change_id.short()")
}

// BranchExists reports whether a local bookmark named name exists.
func (j *JJBackend) BranchExists(projectDir, name string) (bool, error) {
	out, err := j.run(projectDir, "bookmark", "list", "-T", `name ++ "\n"`, name)
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == name {
			return true, nil
		}
	}
	return false, nil
}

// StartBranch points a new bookmark at the working copy. For an existing
// bookmark a new change is started on top of it instead.
func (j *JJBackend) StartBranch(projectDir, name string) (bool, error) {
	if err := ValidateBranchName(name); err != nil {
		return false, err
	}
	exists, err := j.BranchExists(projectDir, name)
	if err != nil {
		return false, err
	}
	if exists {
		_, err := j.run(projectDir, "new", name)
		return false, err
	}
	if _, err := j.run(projectDir, "bookmark", "create", name, "-r", "@"); err != nil {
		return false, err
	}
	return true, nil
}
