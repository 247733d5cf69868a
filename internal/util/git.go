package util

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Revision describes the git state of a single file
type Revision struct {
	Tracked   bool   `yaml:"tracked" json:"tracked"`
	CommitSHA string `yaml:"commit,omitempty" json:"commit,omitempty"`
	CommitMsg string `yaml:"message,omitempty" json:"message,omitempty"`
	Modified  bool   `yaml:"modified,omitempty" json:"modified,omitempty"`
}

// FileRevision reports the last commit touching path and whether the working
// copy differs from it. Files outside a git work tree yield Tracked false.
func FileRevision(path string) (*Revision, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	dir, name := filepath.Split(abs)

	rev := &Revision{}
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = dir
	if err := cmd.Run(); err != nil {
		return rev, nil
	}

	cmd = exec.Command("git", "log", "-1", "--pretty=%H%n%s", "--", name)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get last commit of %s: %w", path, err)
	}
	lines := strings.SplitN(strings.TrimSpace(string(output)), "\n", 2)
	if lines[0] == "" {
		return rev, nil
	}
	rev.Tracked = true
	rev.CommitSHA = lines[0]
	if len(lines) > 1 {
		rev.CommitMsg = lines[1]
	}

	cmd = exec.Command("git", "diff", "--name-only", "HEAD", "--", name)
	cmd.Dir = dir
	output, err = cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s against HEAD: %w", path, err)
	}
	rev.Modified = strings.TrimSpace(string(output)) != ""
	return rev, nil
}
