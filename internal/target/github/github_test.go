package github

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/box"

	"github.com/edneedham/cred/internal/apperr"
	"github.com/edneedham/cred/internal/target"
)

func TestSealSecretValueRejectsBadKey(t *testing.T) {
	if _, err := sealSecretValue("not-base64!!", "value"); err == nil {
		t.Fatal("expected error for undecodable key")
	}
	if _, err := sealSecretValue(base64.StdEncoding.EncodeToString([]byte("short")), "value"); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestSealSecretValueProducesDecryptableBox(t *testing.T) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	sealedB64, err := sealSecretValue(base64.StdEncoding.EncodeToString(pub[:]), "super-secret")
	if err != nil {
		t.Fatalf("sealSecretValue: %v", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(sealedB64)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	var ephemeralPub [32]byte
	copy(ephemeralPub[:], sealed[:32])
	nonceSeed := blake2b.Sum256(append(append([]byte(nil), ephemeralPub[:]...), pub[:]...))
	var nonce [24]byte
	copy(nonce[:], nonceSeed[:24])
	opened, ok := box.Open(nil, sealed[32:], &nonce, &ephemeralPub, priv)
	if !ok {
		t.Fatal("failed to open sealed box with recipient private key")
	}
	if string(opened) != "super-secret" {
		t.Fatalf("opened = %q, want super-secret", opened)
	}
}

func TestSplitRepoRequiresOwnerSlash(t *testing.T) {
	if _, _, err := splitRepo(nil); apperr.CodeOf(err) != apperr.GitError {
		t.Fatalf("expected GitError for nil repo, got %v", apperr.CodeOf(err))
	}
	bad := "no-slash"
	if _, _, err := splitRepo(&bad); apperr.CodeOf(err) != apperr.UserError {
		t.Fatalf("expected UserError for malformed repo, got %v", apperr.CodeOf(err))
	}
	good := "acme/widgets"
	owner, repo, err := splitRepo(&good)
	if err != nil || owner != "acme" || repo != "widgets" {
		t.Fatalf("splitRepo(%q) = (%q, %q, %v)", good, owner, repo, err)
	}
}

func TestPushAndDeleteAgainstFakeServer(t *testing.T) {
	pub, _, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	pubB64 := base64.StdEncoding.EncodeToString(pub[:])

	var putCount int
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/actions/secrets/public-key", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(publicKeyResponse{Key: pubB64, KeyID: "key-1"})
	})
	mux.HandleFunc("/repos/acme/widgets/actions/secrets/API_KEY", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			putCount++
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	mux.HandleFunc("/repos/acme/widgets/actions/secrets/MISSING", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tg := &Target{client: srv.Client(), baseURL: srv.URL}
	repo := "acme/widgets"

	pushReport, err := tg.Push(context.Background(), map[string]string{"API_KEY": "value"}, "tok", target.Options{Repo: &repo})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if len(pushReport.Updated) != 1 || pushReport.Updated[0] != "API_KEY" {
		t.Fatalf("Push report = %+v", pushReport)
	}
	if putCount != 1 {
		t.Fatalf("expected exactly one PUT, got %d", putCount)
	}

	deleteReport, err := tg.Delete(context.Background(), []string{"API_KEY", "MISSING"}, "tok", target.Options{Repo: &repo})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(deleteReport.Deleted) != 1 || deleteReport.Deleted[0] != "API_KEY" {
		t.Fatalf("Delete report deleted = %+v", deleteReport.Deleted)
	}
	if len(deleteReport.Skipped) != 1 || deleteReport.Skipped[0] != "MISSING" {
		t.Fatalf("Delete report skipped = %+v", deleteReport.Skipped)
	}
}

