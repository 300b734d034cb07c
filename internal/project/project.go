// Package project locates a cred project root and manages its on-disk
// descriptor (project.toml) and the .cred/ layout created at init.
package project

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/edneedham/cred/internal/apperr"
	"github.com/edneedham/cred/internal/masterkey"
	"github.com/edneedham/cred/internal/secureio"
	"github.com/edneedham/cred/internal/vault"
)

const (
	dirName     = ".cred"
	configFile  = "project.toml"
	vaultFile   = "vault.enc"
	toolVersion = "1"
)

// Config is the parsed shape of project.toml.
type Config struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	ID      string `toml:"id"`
	GitRoot string `toml:"git_root,omitempty"`
	GitRepo string `toml:"git_repo,omitempty"`
}

// Descriptor identifies a project on disk: its root, its parsed config,
// and the paths to its vault and config files.
type Descriptor struct {
	Root       string
	ConfigPath string
	VaultPath  string
	Config     Config
}

// Find walks ancestors of the current working directory looking for a
// .cred/ directory; the first one found is the project root.
func Find() (*Descriptor, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, apperr.User(err, "cannot determine working directory")
	}
	return FindFrom(cwd)
}

func FindFrom(start string) (*Descriptor, error) {
	if _, err := os.Stat(start); err != nil {
		return nil, apperr.User(err, "cannot search for a cred project from %s", start)
	}
	dir := start
	for {
		candidate := filepath.Join(dir, dirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, apperr.User(nil, "not a cred project (no %s found in any ancestor directory)", dirName)
		}
		dir = parent
	}
}

func load(root string) (*Descriptor, error) {
	configPath := filepath.Join(root, dirName, configFile)
	data, err := secureio.ReadFileScoped(configPath)
	if err != nil {
		return nil, apperr.Vault(err, "failed to read project.toml")
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, apperr.Vault(err, "failed to parse project.toml")
	}
	return &Descriptor{
		Root:       root,
		ConfigPath: configPath,
		VaultPath:  filepath.Join(root, dirName, vaultFile),
		Config:     cfg,
	}, nil
}

// InitAt creates a new project rooted at root: the .cred/ directory, a
// fresh UUID and master key (stored in the keystore), project.toml, an
// empty encrypted vault, and a .gitignore entry for .cred/. Calling this
// against an existing .cred/ is a user error.
func InitAt(root string) (*Descriptor, error) {
	root = filepath.Clean(root)
	credDir := filepath.Join(root, dirName)
	if info, err := os.Stat(credDir); err == nil && info.IsDir() {
		return nil, apperr.User(nil, "a cred project already exists here (%s)", credDir)
	}
	if err := os.MkdirAll(credDir, 0o700); err != nil {
		return nil, apperr.User(err, "failed to create %s", credDir)
	}

	id := uuid.New().String()

	key, err := vault.NewRandomKey()
	if err != nil {
		return nil, apperr.Vault(err, "failed to generate master key")
	}
	defer key.Close()
	if err := masterkey.Store(id, key); err != nil {
		return nil, err
	}

	cfg := Config{
		Name:    filepath.Base(root),
		Version: toolVersion,
		ID:      id,
	}
	if gitRoot, err := GitRoot(root); err == nil {
		cfg.GitRoot = gitRoot
		if remote, err := GitRemoteOriginURL(gitRoot); err == nil {
			if slug, ok := NormalizeRemoteToSlug(remote); ok {
				cfg.GitRepo = slug
			}
		}
	}

	desc := &Descriptor{
		Root:       root,
		ConfigPath: filepath.Join(credDir, configFile),
		VaultPath:  filepath.Join(credDir, vaultFile),
		Config:     cfg,
	}
	if err := desc.saveConfig(); err != nil {
		return nil, err
	}

	reopenedKey, err := vault.NewKey(append([]byte(nil), key.Bytes()...))
	if err != nil {
		return nil, apperr.Vault(err, "failed to reopen master key")
	}
	v, err := vault.Load(desc.VaultPath, reopenedKey)
	if err != nil {
		return nil, apperr.Vault(err, "failed to initialize vault")
	}
	defer v.Close()
	if err := v.Save(); err != nil {
		return nil, apperr.Vault(err, "failed to create empty vault")
	}

	if err := appendGitignore(root); err != nil {
		return nil, apperr.User(err, "failed to update .gitignore")
	}

	return desc, nil
}

func (d *Descriptor) saveConfig() error {
	data, err := toml.Marshal(d.Config)
	if err != nil {
		return apperr.Vault(err, "failed to encode project.toml")
	}
	if err := secureio.WriteFileAtomic(d.ConfigPath, data, 0o600); err != nil {
		return apperr.Vault(err, "failed to write project.toml")
	}
	return nil
}

func appendGitignore(root string) error {
	path := filepath.Join(root, ".gitignore")
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	lines := strings.Split(string(existing), "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == dirName+"/" {
			return nil
		}
	}
	content := string(existing)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += dirName + "/\n"
	return os.WriteFile(path, []byte(content), 0o644)
}
