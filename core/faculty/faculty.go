// Package faculty decides who may manage results.
//
// Access is granted to any email address under the organisational domain. This is a
// convenience gate for the portal, not a credential check.
package faculty

import (
	"errors"
	"strings"

	"github.com/cutm/results/core"
)

var (
	// errors
	ErrEmailRequired    = errors.New("an email address is required")
	ErrDomainNotAllowed = errors.New("invalid credentials or email domain")
)

// Identity is the faculty member acting on the portal. The zero value is anonymous.
type Identity struct {
	Email string `json:"email"`
}

func (id Identity) IsZero() bool { return id.Email == "" }

func (id Identity) String() string {
	if id.IsZero() {
		return "anonymous"
	}
	return id.Email
}

// Authenticate returns the Identity for email if it belongs to domain (e.g. "@cutm.ac.in").
func Authenticate(email, domain string) (Identity, error) {
	email = core.CleanString(email, true /* lower */)
	domain = core.CleanString(domain, true /* lower */)
	if email == "" {
		return Identity{}, ErrEmailRequired
	}
	if domain == "" || len(email) <= len(domain) || !strings.HasSuffix(email, domain) {
		return Identity{}, ErrDomainNotAllowed
	}
	return Identity{Email: email}, nil
}
