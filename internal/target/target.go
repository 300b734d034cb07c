// Package target defines the capability interface every external secret
// destination implements, and a name-keyed registry of factories resolved
// once at CLI dispatch time.
package target

import (
	"context"

	"github.com/edneedham/cred/internal/apperr"
)

// Options carries protocol-level parameters a target may or may not need.
type Options struct {
	Repo *string
}

// PushReport is the per-secret outcome of a push batch. Keys are processed
// in sorted order; a per-key failure does not abort the batch.
type PushReport struct {
	Updated []string          `json:"updated"`
	Failed  map[string]string `json:"failed"`
}

// DeleteReport is the per-key outcome of a delete batch. A 404 from the
// remote is treated as "already absent" and recorded in Skipped, not Failed.
type DeleteReport struct {
	Deleted []string          `json:"deleted"`
	Skipped []string          `json:"skipped"`
	Failed  map[string]string `json:"failed"`
}

// Target is any external system capable of receiving pushed secrets.
type Target interface {
	Name() string
	Push(ctx context.Context, secrets map[string]string, token string, opts Options) (PushReport, error)
	Delete(ctx context.Context, keys []string, token string, opts Options) (DeleteReport, error)
	RevokeSecret(ctx context.Context, name, value, token string) error
	RevokeAuthToken(ctx context.Context, token string) error
	Generate(ctx context.Context, env string, token string) (string, error)
}

// BaseTarget supplies the zero behavior for every capability: an error
// naming the unsupported operation. Concrete adapters embed BaseTarget and
// override only what they actually implement.
type BaseTarget struct {
	TargetName string
}

func (b BaseTarget) Name() string { return b.TargetName }

func (b BaseTarget) unsupported(op string) error {
	return apperr.TargetReject(nil, "target %q does not support %s", b.TargetName, op)
}

func (b BaseTarget) Push(ctx context.Context, secrets map[string]string, token string, opts Options) (PushReport, error) {
	return PushReport{}, b.unsupported("push")
}

func (b BaseTarget) Delete(ctx context.Context, keys []string, token string, opts Options) (DeleteReport, error) {
	return DeleteReport{}, b.unsupported("delete")
}

func (b BaseTarget) RevokeSecret(ctx context.Context, name, value, token string) error {
	return b.unsupported("revoke-secret")
}

func (b BaseTarget) RevokeAuthToken(ctx context.Context, token string) error {
	return b.unsupported("revoke-auth-token")
}

func (b BaseTarget) Generate(ctx context.Context, env string, token string) (string, error) {
	return "", b.unsupported("generate")
}

// Factory builds a fresh Target instance.
type Factory func() Target

var registry = map[string]Factory{}

// Register adds name to the registry. Called from each adapter package's
// init, so importing the adapter package for its side effect is enough to
// make it available.
func Register(name string, f Factory) {
	registry[name] = f
}

// Resolve builds the named target, or a user-error if no such target is
// registered.
func Resolve(name string) (Target, error) {
	f, ok := registry[name]
	if !ok {
		return nil, apperr.User(nil, "unknown target %q", name)
	}
	return f(), nil
}

// Names returns the registered target names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
