package project

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// GitRoot returns the top-level directory of the git repository containing
// dir, or an error if dir is not inside a git work tree. The result is
// canonicalized through EvalSymlinks so platform symlink prefixes (macOS's
// /tmp -> /private/tmp) don't defeat later comparisons against this value.
func GitRoot(dir string) (string, error) {
	out, err := runGit(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	root := strings.TrimSpace(out)
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return root, nil
}

// GitRemoteOriginURL returns the "origin" remote URL for the repository
// rooted at dir.
func GitRemoteOriginURL(dir string) (string, error) {
	out, err := runGit(dir, "config", "--get", "remote.origin.url")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func runGit(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

var (
	sshRemotePattern    = regexp.MustCompile(`^git@[^:]+:(.+?)(\.git)?$`)
	sshURLRemotePattern = regexp.MustCompile(`^ssh://git@[^/]+/(.+?)(\.git)?$`)
	httpsRemotePattern  = regexp.MustCompile(`^https?://[^/]+/(.+?)(\.git)?$`)
)

// NormalizeRemoteToSlug reduces a git remote URL (git@host:, ssh://git@host/
// or https form) to an "owner/repo" slug. It returns ok=false for shapes it
// doesn't recognize rather than guessing.
func NormalizeRemoteToSlug(remote string) (string, bool) {
	remote = strings.TrimSpace(remote)
	if m := sshRemotePattern.FindStringSubmatch(remote); m != nil {
		return strings.Trim(m[1], "/"), true
	}
	if m := sshURLRemotePattern.FindStringSubmatch(remote); m != nil {
		return strings.Trim(m[1], "/"), true
	}
	if m := httpsRemotePattern.FindStringSubmatch(remote); m != nil {
		return strings.Trim(m[1], "/"), true
	}
	return "", false
}
