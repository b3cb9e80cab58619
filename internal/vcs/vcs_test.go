package vcs

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestVCSType_IsValid(t *testing.T) {
	tests := []struct {
		vcsType VCSType
		want    bool
	}{
		{VCSTypeJJ, true},
		{VCSTypeGit, true},
		{"svn", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.vcsType), func(t *testing.T) {
			if got := tt.vcsType.IsValid(); got != tt.want {
				t.Errorf("VCSType.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAutoDetect(t *testing.T) {
	tests := []struct {
		name   string
		dirs   []string
		want   VCSType
		wantOK bool
	}{
		{"jj", []string{".jj"}, VCSTypeJJ, true},
		{"git", []string{".git"}, VCSTypeGit, true},
		{"colocated prefers jj", []string{".jj", ".git"}, VCSTypeJJ, true},
		{"none", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			for _, d := range tt.dirs {
				if err := os.MkdirAll(filepath.Join(tmpDir, d), 0755); err != nil {
					t.Fatal(err)
				}
			}
			got, ok := AutoDetect(tmpDir)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("AutoDetect() = %s, %v; want %s, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		setting string
		want    VCSType
		wantErr error
	}{
		{"", VCSTypeGit, nil},
		{"auto", VCSTypeGit, nil},
		{"jj", VCSTypeJJ, nil},
		{"GIT", VCSTypeGit, nil},
		{"none", "", ErrDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.setting, func(t *testing.T) {
			got, err := Resolve(tmpDir, tt.setting)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got.Type() != tt.want {
				t.Errorf("Resolve() = %s, want %s", got.Type(), tt.want)
			}
		})
	}

	if _, err := Resolve(t.TempDir(), "auto"); !errors.Is(err, ErrNoRepository) {
		t.Errorf("Resolve() in bare dir error = %v, want ErrNoRepository", err)
	}
	if _, err := Resolve(tmpDir, "svn"); err == nil {
		t.Error("Resolve(svn) should fail")
	}
}

func TestValidateBranchName(t *testing.T) {
	valid := []string{"feature/PROJ-1", "hotfix/OPS-12", "main"}
	for _, name := range valid {
		if err := ValidateBranchName(name); err != nil {
			t.Errorf("ValidateBranchName(%q) error = %v", name, err)
		}
	}
	invalid := []string{"", "has space", "-flag", "a..b", "trailing/", "x.lock", "what?"}
	for _, name := range invalid {
		if err := ValidateBranchName(name); err == nil {
			t.Errorf("ValidateBranchName(%q) should fail", name)
		}
	}
}

func skipIfNoGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed, skipping test")
	}
}

// setupGitRepo creates a git repo on branch main with one commit
func setupGitRepo(t *testing.T, dir string) {
	t.Helper()
	skipIfNoGit(t)

	steps := [][]string{
		{"init"},
		{"config", "user.email", "test@test.com"},
		{"config", "user.name", "Test User"},
	}
	for _, args := range steps {
		runGit(t, dir, args...)
	}

	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Test\n"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "Initial commit")
	runGit(t, dir, "branch", "-M", "main")
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %s: %v", args, output, err)
	}
}

func TestGitBackend_Type(t *testing.T) {
	backend := NewGitBackend()
	if backend.Type() != VCSTypeGit {
		t.Errorf("expected git, got %s", backend.Type())
	}
}

func TestGitBackend_CurrentBranch(t *testing.T) {
	tmpDir := t.TempDir()
	setupGitRepo(t, tmpDir)

	rev, err := NewGitBackend().CurrentBranch(tmpDir)
	if err != nil {
		t.Fatalf("CurrentBranch failed: %v", err)
	}
	if rev != "main" {
		t.Errorf("expected 'main', got %q", rev)
	}
}

func TestGitBackend_CurrentBranch_NonRepo(t *testing.T) {
	skipIfNoGit(t)
	tmpDir := t.TempDir()

	if _, err := NewGitBackend().CurrentBranch(tmpDir); err == nil {
		t.Error("expected error for non-repo directory")
	}
}

func TestGitBackend_StartBranch(t *testing.T) {
	tmpDir := t.TempDir()
	setupGitRepo(t, tmpDir)
	backend := NewGitBackend()

	exists, err := backend.BranchExists(tmpDir, "feature/PROJ-1")
	if err != nil {
		t.Fatalf("BranchExists failed: %v", err)
	}
	if exists {
		t.Fatal("branch should not exist yet")
	}

	created, err := backend.StartBranch(tmpDir, "feature/PROJ-1")
	if err != nil {
		t.Fatalf("StartBranch failed: %v", err)
	}
	if !created {
		t.Error("expected branch to be created")
	}
	if cur, _ := backend.CurrentBranch(tmpDir); cur != "feature/PROJ-1" {
		t.Errorf("current branch = %q, want feature/PROJ-1", cur)
	}

	// Switching back and starting again reuses the branch
	runGit(t, tmpDir, "checkout", "main")
	created, err = backend.StartBranch(tmpDir, "feature/PROJ-1")
	if err != nil {
		t.Fatalf("second StartBranch failed: %v", err)
	}
	if created {
		t.Error("existing branch should not be reported as created")
	}
	if cur, _ := backend.CurrentBranch(tmpDir); cur != "feature/PROJ-1" {
		t.Errorf("current branch = %q, want feature/PROJ-1", cur)
	}
}

func TestGitBackend_StartBranch_InvalidName(t *testing.T) {
	tmpDir := t.TempDir()
	setupGitRepo(t, tmpDir)

	if _, err := NewGitBackend().StartBranch(tmpDir, "bad name"); err == nil {
		t.Error("expected error for invalid branch name")
	}
}

func skipIfNoJJ(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("jj"); err != nil {
		t.Skip("jj not installed, skipping test")
	}
}

func TestJJBackend_Type(t *testing.T) {
	backend := NewJJBackend()
	if backend.Type() != VCSTypeJJ {
		t.Errorf("expected jj, got %s", backend.Type())
	}
}

func TestJJBackend_StartBranch(t *testing.T) {
	skipIfNoJJ(t)
	tmpDir := t.TempDir()

	cmd := exec.Command("jj", "git", "init")
	cmd.Dir = tmpDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("jj git init failed: %s: %v", output, err)
	}

	backend := NewJJBackend()
	created, err := backend.StartBranch(tmpDir, "task/PROJ-3")
	if err != nil {
		t.Fatalf("StartBranch failed: %v", err)
	}
	if !created {
		t.Error("expected bookmark to be created")
	}

	exists, err := backend.BranchExists(tmpDir, "task/PROJ-3")
	if err != nil {
		t.Fatalf("BranchExists failed: %v", err)
	}
	if !exists {
		t.Error("bookmark should exist after StartBranch")
	}

	// A new bookmark points at the working copy; no extra change is started
	current, err := backend.CurrentBranch(tmpDir)
	if err != nil {
		t.Fatalf("CurrentBranch failed: %v", err)
	}
	if current != "task/PROJ-3" {
		t.Errorf("CurrentBranch = %q, want task/PROJ-3", current)
	}
}

func TestVCS_InterfaceCompliance(t *testing.T) {
	var _ VCS = NewGitBackend()
	var _ VCS = NewJJBackend()
}
