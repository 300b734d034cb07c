// Package secureio holds the filesystem primitives every component builds
// on: path expansion, root-scoped reads, and atomic writes. Centralizing
// them keeps the temp-file-then-rename discipline identical everywhere a
// vault, config, or env file is written.
package secureio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome resolves a leading "~" against the current user's home
// directory; any other path is returned unchanged.
func ExpandHome(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil || strings.TrimSpace(home) == "" {
			if err == nil {
				err = os.ErrNotExist
			}
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// CleanAbs expands and resolves path to a clean absolute form relative to
// the current working directory.
func CleanAbs(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("path required")
	}
	path, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Clean(filepath.Join(cwd, path)), nil
}

// ReadFileScoped opens the parent directory as an os.Root and reads the
// named file from within it, so a maliciously crafted path cannot escape
// the intended directory via "..".
func ReadFileScoped(path string) ([]byte, error) {
	path = filepath.Clean(strings.TrimSpace(path))
	if path == "" {
		return nil, fmt.Errorf("path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(abs)
	base := filepath.Base(abs)
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	defer root.Close()
	return root.ReadFile(base)
}

// WriteFileAtomic writes contents to path by creating a temp file in the
// same directory, chmod'ing it to perm, then renaming it over path. The
// temp file is always removed on any failure path between create and
// rename.
func WriteFileAtomic(path string, contents []byte, perm os.FileMode) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(contents); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// RequireSecureFile fails if path is a symlink or has permissions wider
// than 0600, unless allowInsecureEnv names an environment variable set to a
// truthy value.
func RequireSecureFile(path string, allowInsecureEnv string) error {
	path = filepath.Clean(strings.TrimSpace(path))
	if path == "" {
		return fmt.Errorf("path required")
	}
	if allowInsecureEnv != "" && IsTruthyEnv(allowInsecureEnv) {
		return nil
	}
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("insecure file (%s): symlinks are not allowed", path)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		return fmt.Errorf("insecure file permissions (%s): expected 0600, got %04o", path, perm)
	}
	return nil
}

// IsTruthyEnv reports whether the named environment variable is set to a
// recognizably truthy value ("1", "true", "yes", "on", case-insensitive).
func IsTruthyEnv(name string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
