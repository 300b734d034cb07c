//go:build !darwin && !linux

package keystore

import (
	"fmt"
	"os"
)

func keyringGet(service, account string) (string, error) {
	_ = service
	_ = account
	return "", os.ErrNotExist
}

func keyringSet(service, account, secret string) error {
	_ = secret
	return fmt.Errorf("keyring backend not supported on this platform (service=%q account=%q)", service, account)
}

func keyringRemove(service, account string) error {
	return fmt.Errorf("keyring backend not supported on this platform (service=%q account=%q)", service, account)
}
