// Package vcs creates and inspects ticket branches in git or jj working
// copies.
package vcs

import (
	"errors"
	"fmt"
	"strings"
)

// VCSType represents the version control system type.
type VCSType string

const (
	VCSTypeJJ  VCSType = "jj"
	VCSTypeGit VCSType = "git"
)

// ErrNoRepository is returned when auto-detection finds neither .jj nor .git
var ErrNoRepository = errors.New("no git or jj repository found")

// ErrDisabled is returned when the vcs setting is "none"
var ErrDisabled = errors.New("version control integration is disabled")

// String returns the string representation of VCSType.
func (v VCSType) String() string {
	return string(v)
}

// IsValid returns true if the VCSType is a known valid type.
func (v VCSType) IsValid() bool {
	return v == VCSTypeJJ || v == VCSTypeGit
}

// VCS defines the branch operations pg needs.
type VCS interface {
	// Type returns the VCS type (jj or git)
	Type() VCSType

	// CurrentBranch returns the checked out branch, or a short revision id
	// when nothing is checked out by name
	CurrentBranch(projectDir string) (string, error)

	// BranchExists reports whether a branch (git) or bookmark (jj) exists
	BranchExists(projectDir, name string) (bool, error)

	// StartBranch creates name at the current revision and switches to it.
	// An existing branch is switched to instead. created reports which.
	StartBranch(projectDir, name string) (created bool, err error)
}

// GetBackend returns the appropriate VCS backend for the given type.
func GetBackend(vcsType VCSType) VCS {
	switch vcsType {
	case VCSTypeJJ:
		return NewJJBackend()
	default:
		return NewGitBackend()
	}
}

// Resolve picks the backend for a project from the vcs setting: "auto",
// "git", "jj" or "none". An empty setting means auto.
func Resolve(projectDir, setting string) (VCS, error) {
	switch strings.ToLower(strings.TrimSpace(setting)) {
	case "", "auto":
		vcsType, ok := AutoDetect(projectDir)
		if !ok {
			return nil, ErrNoRepository
		}
		return GetBackend(vcsType), nil
	case "none":
		return nil, ErrDisabled
	case string(VCSTypeGit):
		return NewGitBackend(), nil
	case string(VCSTypeJJ):
		return NewJJBackend(), nil
	}
	return nil, fmt.Errorf("unknown vcs %q", setting)
}

// ValidateBranchName rejects names git or jj would refuse
func ValidateBranchName(name string) error {
	switch {
	case name == "":
		return errors.New("branch name must not be empty")
	case strings.ContainsAny(name, " ~^:?*[\\"):
		return fmt.Errorf("branch name %q contains an invalid character", name)
	case strings.HasPrefix(name, "-") || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/"):
		return fmt.Errorf("branch name %q must not start with - or start or end with /", name)
	case strings.Contains(name, "..") || strings.Contains(name, "//") || strings.HasSuffix(name, ".lock"):
		return fmt.Errorf("branch name %q is not a valid ref", name)
	}
	return nil
}
