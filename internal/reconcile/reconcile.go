// Package reconcile resolves which repository slug an operation should act
// against, given up to three possibly-conflicting sources: what git detects
// in the working tree, what was recorded at project init, and what the
// caller explicitly passed on the command line.
package reconcile

import (
	"fmt"

	"github.com/edneedham/cred/internal/apperr"
)

// Repo resolves detected/bound/provided repo slugs (empty string means
// "none") into a single slug, or a typed error distinguishing a user
// mistake (an explicit --repo flag disagreeing with what git detects) from
// a git-scope mistake (anything disagreeing with the repo bound at init).
// verb is substituted into the error text ("push", "prune", ...).
func Repo(detected, bound, provided, verb string) (string, error) {
	if provided != "" {
		if detected != "" && detected != provided {
			return "", apperr.User(nil, "refusing to %s: provided differs from detected (provided %q, detected %q)", verb, provided, detected)
		}
		if bound != "" && bound != provided {
			return "", apperr.Git(nil, "refusing to %s: provided differs from bound (provided %q, bound %q)", verb, provided, bound)
		}
		return provided, nil
	}
	if detected != "" {
		if bound != "" && bound != detected {
			return "", apperr.Git(nil, "refusing to %s: detected differs from bound (detected %q, bound %q)", verb, detected, bound)
		}
		return detected, nil
	}
	return bound, nil
}

// RequireRepo applies Repo and additionally rejects a none result, for
// targets whose API requires a repository.
func RequireRepo(detected, bound, provided, verb string) (string, error) {
	repo, err := Repo(detected, bound, provided, verb)
	if err != nil {
		return "", err
	}
	if repo == "" {
		return "", apperr.Git(nil, fmt.Sprintf("refusing to %s: no repository detected, bound, or provided", verb))
	}
	return repo, nil
}
