package vcs

import (
	"os"
	"path/filepath"
)

// AutoDetect checks the filesystem for VCS directories.
// jj wins when both exist, since colocated jj repos also carry .git.
func AutoDetect(projectDir string) (VCSType, bool) {
	if _, err := os.Stat(filepath.Join(projectDir, ".jj")); err == nil {
		return VCSTypeJJ, true
	}

	if _, err := os.Stat(filepath.Join(projectDir, ".git")); err == nil {
		return VCSTypeGit, true
	}

	return "", false
}
