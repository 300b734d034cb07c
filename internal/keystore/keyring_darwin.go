//go:build darwin

package keystore

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"unicode"
)

func keyringGet(service, account string) (string, error) {
	if _, err := exec.LookPath("security"); err != nil {
		return "", os.ErrNotExist
	}
	service, err := validateSecurityAttr("service", service)
	if err != nil {
		return "", err
	}
	account, err = validateSecurityAttr("account", account)
	if err != nil {
		return "", err
	}
	// #nosec G204 -- args are validated and exec.Command does not invoke a shell.
	cmd := exec.Command("security", "find-generic-password", "-s", service, "-a", account, "-w")
	out, err := cmd.Output()
	if err != nil {
		if isSecurityNotFound(err) {
			return "", os.ErrNotExist
		}
		return "", fmt.Errorf("macOS Keychain read failed for %q/%q: %s", service, account, formatSecurityError(err))
	}
	secret := strings.TrimSpace(string(out))
	if secret == "" {
		return "", os.ErrNotExist
	}
	return secret, nil
}

func keyringSet(service, account, secret string) error {
	if _, err := exec.LookPath("security"); err != nil {
		return err
	}
	service, err := validateSecurityAttr("service", service)
	if err != nil {
		return err
	}
	account, err = validateSecurityAttr("account", account)
	if err != nil {
		return err
	}
	// Delete any existing value first; ignore not-found.
	// #nosec G204 -- args are validated and exec.Command does not invoke a shell.
	delCmd := exec.Command("security", "delete-generic-password", "-s", service, "-a", account)
	if delErr := delCmd.Run(); delErr != nil && !isSecurityNotFound(delErr) {
		return fmt.Errorf("macOS Keychain delete failed for %q/%q: %s", service, account, formatSecurityError(delErr))
	}
	// #nosec G204 -- args are validated and exec.Command does not invoke a shell.
	setCmd := exec.Command(
		"security",
		"add-generic-password",
		"-s", service,
		"-a", account,
		"-l", "cred vault token",
		"-w", secret,
		"-T", "/usr/bin/security",
		"-U",
	)
	if err := setCmd.Run(); err != nil {
		return fmt.Errorf("macOS Keychain write failed for %q/%q: %s", service, account, formatSecurityError(err))
	}
	return nil
}

// keyringRemove issues a true delete-generic-password first; a missing
// item counts as already removed. Because that delete is rejected on some
// macOS versions, any other delete failure falls back to overwriting the
// item with an empty password.
func keyringRemove(service, account string) error {
	if _, err := exec.LookPath("security"); err != nil {
		return err
	}
	service, err := validateSecurityAttr("service", service)
	if err != nil {
		return err
	}
	account, err = validateSecurityAttr("account", account)
	if err != nil {
		return err
	}
	delCmd := exec.Command("security", "delete-generic-password", "-s", service, "-a", account)
	if err := delCmd.Run(); err == nil || isSecurityNotFound(err) {
		return nil
	}
	return keyringSet(service, account, "")
}

func validateSecurityAttr(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%s required", name)
	}
	for _, r := range value {
		switch r {
		case 0, '\n', '\r':
			return "", fmt.Errorf("invalid %s: contains forbidden character", name)
		}
		if unicode.IsSpace(r) {
			return "", fmt.Errorf("invalid %s: whitespace is not allowed", name)
		}
		if !unicode.IsPrint(r) {
			return "", fmt.Errorf("invalid %s: non-printable character is not allowed", name)
		}
	}
	return value, nil
}

func isSecurityNotFound(err error) bool {
	if err == nil {
		return false
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}
	if code, ok := securityExitCode(exitErr); ok && code == 44 {
		return true
	}
	stderr := strings.ToLower(strings.TrimSpace(string(exitErr.Stderr)))
	return strings.Contains(stderr, "could not be found") || strings.Contains(stderr, "not found")
}

func formatSecurityError(err error) string {
	if err == nil {
		return ""
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return err.Error()
	}
	if code, ok := securityExitCode(exitErr); ok {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		if stderr == "" {
			return fmt.Sprintf("exit status %d", code)
		}
		return fmt.Sprintf("exit status %d: %s", code, stderr)
	}
	stderr := strings.TrimSpace(string(exitErr.Stderr))
	if stderr == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s: %s", err.Error(), stderr)
}

func securityExitCode(exitErr *exec.ExitError) (int, bool) {
	if exitErr == nil {
		return 0, false
	}
	if exitErr.ProcessState != nil {
		return exitErr.ExitCode(), true
	}
	parts := strings.Fields(strings.TrimSpace(exitErr.Error()))
	if len(parts) >= 3 && parts[0] == "exit" && parts[1] == "status" {
		if n, err := strconv.Atoi(parts[2]); err == nil {
			return n, true
		}
	}
	return 0, false
}
