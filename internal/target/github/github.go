// Package github implements the target.Target protocol against a code
// forge's repository Actions secrets API: sealed-box encrypted PUTs keyed
// by the repository's public key, and plain DELETEs.
package github

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"sort"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/box"

	"github.com/edneedham/cred/internal/apperr"
	"github.com/edneedham/cred/internal/target"
)

const (
	apiBase      = "https://api.github.com"
	apiVersion   = "2022-11-28"
	userAgent    = "cred-cli"
	requestTimeout = 45 * time.Second
)

func init() {
	target.Register("github", func() target.Target {
		base := apiBase
		if override := os.Getenv("GITHUB_API_BASE_URL"); override != "" {
			base = override
		}
		return &Target{client: http.DefaultClient, baseURL: base}
	})
}

// Target is the code-forge CI secrets adapter.
type Target struct {
	target.BaseTarget
	client  *http.Client
	baseURL string
}

func (t *Target) Name() string { return "github" }

type publicKeyResponse struct {
	Key   string `json:"key"`
	KeyID string `json:"key_id"`
}

func (t *Target) fetchPublicKey(ctx context.Context, owner, repo, token string) (publicKeyResponse, error) {
	var out publicKeyResponse
	p := path.Join("/repos", owner, repo, "actions", "secrets", "public-key")
	resp, err := t.do(ctx, http.MethodGet, p, token, nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return out, apperr.Network(err, "malformed public key response")
	}
	if out.Key == "" || out.KeyID == "" {
		return out, apperr.Network(nil, "public key response missing key/key_id")
	}
	return out, nil
}

// Push encrypts each value with the repository's public key and PUTs it.
// Per-key failures are collected, not fatal to the batch.
func (t *Target) Push(ctx context.Context, secrets map[string]string, token string, opts target.Options) (target.PushReport, error) {
	owner, repo, err := splitRepo(opts.Repo)
	if err != nil {
		return target.PushReport{}, err
	}
	pubKey, err := t.fetchPublicKey(ctx, owner, repo, token)
	if err != nil {
		return target.PushReport{}, err
	}

	report := target.PushReport{Failed: map[string]string{}}
	names := sortedKeys(secrets)
	for _, name := range names {
		encrypted, err := sealSecretValue(pubKey.Key, secrets[name])
		if err != nil {
			report.Failed[name] = err.Error()
			continue
		}
		body := map[string]any{
			"encrypted_value": encrypted,
			"key_id":          pubKey.KeyID,
		}
		p := path.Join("/repos", owner, repo, "actions", "secrets", name)
		if _, err := t.do(ctx, http.MethodPut, p, token, body); err != nil {
			report.Failed[name] = err.Error()
			continue
		}
		report.Updated = append(report.Updated, name)
	}
	return report, nil
}

// Delete issues one DELETE per key. A 404 is recorded as skipped, not
// failed; any other non-success status aborts the remaining batch.
func (t *Target) Delete(ctx context.Context, keys []string, token string, opts target.Options) (target.DeleteReport, error) {
	owner, repo, err := splitRepo(opts.Repo)
	if err != nil {
		return target.DeleteReport{}, err
	}

	report := target.DeleteReport{Failed: map[string]string{}}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	for _, name := range sorted {
		p := path.Join("/repos", owner, repo, "actions", "secrets", name)
		status, _, err := t.doStatus(ctx, http.MethodDelete, p, token, nil)
		if err != nil {
			return report, err
		}
		switch {
		case status == http.StatusNotFound:
			report.Skipped = append(report.Skipped, name)
		case status >= 200 && status < 300:
			report.Deleted = append(report.Deleted, name)
		default:
			return report, apperr.TargetReject(nil, "delete %s failed with status %d", name, status)
		}
	}
	return report, nil
}

// RevokeSecret has no forge-side counterpart for an arbitrary generated
// credential; callers that need origin-side revocation use a
// credential-specific target, not this one.
func (t *Target) RevokeSecret(ctx context.Context, name, value, token string) error {
	return t.BaseTarget.RevokeSecret(ctx, name, value, token)
}

// RevokeAuthToken has no generic forge endpoint for revoking an arbitrary
// personal access token; this is left unsupported deliberately.
func (t *Target) RevokeAuthToken(ctx context.Context, token string) error {
	return t.BaseTarget.RevokeAuthToken(ctx, token)
}

// Generate is unsupported: this target only pushes pre-existing vault
// values, it does not mint credentials.
func (t *Target) Generate(ctx context.Context, env string, token string) (string, error) {
	return t.BaseTarget.Generate(ctx, env, token)
}

func (t *Target) do(ctx context.Context, method, p, token string, body any) ([]byte, error) {
	status, data, err := t.doStatus(ctx, method, p, token, body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, apperr.TargetReject(nil, "%s %s: unexpected status %d: %s", method, p, status, string(data))
	}
	return data, nil
}

func (t *Target) doStatus(ctx context.Context, method, p, token string, body any) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, apperr.User(err, "failed to encode request body")
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+p, reader)
	if err != nil {
		return 0, nil, apperr.Network(err, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, apperr.Network(err, "%s %s failed", method, p)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, apperr.Network(err, "failed to read response body")
	}
	return resp.StatusCode, data, nil
}

func splitRepo(repo *string) (owner, name string, err error) {
	if repo == nil || *repo == "" {
		return "", "", apperr.Git(nil, "this target requires a repository")
	}
	idx := indexByte(*repo, '/')
	if idx < 0 {
		return "", "", apperr.User(nil, "repository must be owner/repo, got %q", *repo)
	}
	return (*repo)[:idx], (*repo)[idx+1:], nil
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// sealSecretValue implements the GitHub Actions secrets sealed-box
// encryption: an ephemeral X25519 keypair, a nonce derived by BLAKE2b-256
// over the ephemeral and recipient public keys, and XSalsa20-Poly1305
// sealing. The result is base64(ephemeralPublicKey || sealedBox).
func sealSecretValue(base64PublicKey, plaintext string) (string, error) {
	pubBytes, err := base64.StdEncoding.DecodeString(base64PublicKey)
	if err != nil {
		return "", fmt.Errorf("decode public key: %w", err)
	}
	if len(pubBytes) != 32 {
		return "", fmt.Errorf("invalid public key length: %d", len(pubBytes))
	}
	var recipientPub [32]byte
	copy(recipientPub[:], pubBytes)

	ephemeralPub, ephemeralPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate ephemeral key: %w", err)
	}
	nonceSeed := blake2b.Sum256(append(append([]byte(nil), ephemeralPub[:]...), recipientPub[:]...))
	var nonce [24]byte
	copy(nonce[:], nonceSeed[:24])

	sealed := box.Seal(nil, []byte(plaintext), &nonce, &recipientPub, ephemeralPriv)
	out := append(append([]byte(nil), ephemeralPub[:]...), sealed...)
	return base64.StdEncoding.EncodeToString(out), nil
}
