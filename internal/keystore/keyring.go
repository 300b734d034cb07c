package keystore

import "os"

// keyringBackend delegates to the OS credential store. The service
// identifier is fixed; the account is the caller's reference string.
type keyringBackend struct{}

func (keyringBackend) Set(ref, token string) error {
	if err := keyringSet(Service, ref, token); err != nil {
		return &ErrUnavailable{Backend: "keyring", Err: err}
	}
	return nil
}

func (keyringBackend) Get(ref string) (string, bool, error) {
	token, err := keyringGet(Service, ref)
	if err == nil {
		return token, true, nil
	}
	if os.IsNotExist(err) {
		return "", false, nil
	}
	return "", false, &ErrUnavailable{Backend: "keyring", Err: err}
}

func (keyringBackend) Remove(ref string) error {
	if err := keyringRemove(Service, ref); err != nil {
		return &ErrUnavailable{Backend: "keyring", Err: err}
	}
	return nil
}
