package main

import (
	"path/filepath"
	"time"

	"github.com/edneedham/cred/internal/apperr"
	"github.com/edneedham/cred/internal/audit"
	"github.com/edneedham/cred/internal/globalconfig"
	"github.com/edneedham/cred/internal/masterkey"
	"github.com/edneedham/cred/internal/project"
	"github.com/edneedham/cred/internal/reconcile"
	"github.com/edneedham/cred/internal/vault"
)

// requestTimeout bounds every outbound call a target adapter makes.
const requestTimeout = 45 * time.Second

// openProject locates the project descriptor for the current working
// directory, a user-error if there is none.
func openProject() (*project.Descriptor, error) {
	return project.Find()
}

// openVault locates the project and opens its vault, the master key
// resolved per the project's UUID. Callers must v.Close() when done.
func openVault() (*project.Descriptor, *vault.Vault, error) {
	desc, err := openProject()
	if err != nil {
		return nil, nil, err
	}
	key, err := masterkey.Resolve(desc.Config.ID)
	if err != nil {
		return nil, nil, err
	}
	v, err := vault.Load(desc.VaultPath, key)
	if err != nil {
		key.Close()
		return nil, nil, apperr.Vault(err, "failed to open vault")
	}
	return desc, v, nil
}

// loadGlobalConfig opens ~/.config/cred/global.toml.
func loadGlobalConfig() (*globalconfig.Config, error) {
	path, err := globalconfig.DefaultPath()
	if err != nil {
		return nil, err
	}
	return globalconfig.Load(path)
}

func detectRepoSlug(desc *project.Descriptor) string {
	if desc.Config.GitRoot == "" {
		return ""
	}
	remote, err := project.GitRemoteOriginURL(desc.Config.GitRoot)
	if err != nil {
		return ""
	}
	slug, ok := project.NormalizeRemoteToSlug(remote)
	if !ok {
		return ""
	}
	return slug
}

// requireRepo resolves detected/bound/provided repo slugs via the
// reconciler and rejects a none result, for targets whose API requires a
// repository.
func requireRepo(desc *project.Descriptor, provided, verb string) (string, error) {
	return reconcile.RequireRepo(detectRepoSlug(desc), desc.Config.GitRepo, provided, verb)
}

// projectAudit returns the JSONL audit sink under desc's .cred/ directory.
func projectAudit(desc *project.Descriptor) *audit.JSONL {
	return audit.New(filepath.Join(desc.Root, ".cred", "audit.jsonl"))
}
