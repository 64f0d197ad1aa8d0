package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Account is a configured operator login. PassHash is a bcrypt hash.
type Account struct {
	Username string
	PassHash string
	Role     string
}

type Accounts struct {
	byName map[string]Account
}

// NewAccounts indexes list by username. Entries without a username or hash are
// skipped, so an unset password disables the account.
func NewAccounts(list ...Account) *Accounts {
	a := &Accounts{byName: make(map[string]Account, len(list))}
	for _, acct := range list {
		if acct.Username == "" || acct.PassHash == "" {
			continue
		}
		a.byName[acct.Username] = acct
	}
	return a
}

func (a *Accounts) Empty() bool { return a == nil || len(a.byName) == 0 }

func (a *Accounts) Verify(username, password string) (Account, error) {
	if a == nil {
		return Account{}, ErrInvalidCredentials
	}
	acct, ok := a.byName[username]
	if !ok {
		return Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PassHash), []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return acct, nil
}

// Role is the configured role of username.
func (a *Accounts) Role(username string) (string, bool) {
	if a == nil {
		return "", false
	}
	acct, ok := a.byName[username]
	return acct.Role, ok
}

// HashPassword returns the bcrypt hash to put in admin_pass_hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", ErrInvalidCredentials)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
