package settings

import (
	"strings"

	"github.com/iov-one/vault/errors"
)

// Permissions is a set of capabilities a member holds.
type Permissions uint8

const (
	Initiate Permissions = 1 << iota
	Vote
	Execute

	// AllPermissions is the set of all known capabilities.
	AllPermissions = Initiate | Vote | Execute
)

// Has returns true if all given flags are set.
func (p Permissions) Has(flag Permissions) bool {
	return p&flag == flag
}

// Validate returns an error if unknown bits are set.
func (p Permissions) Validate() error {
	if p&^AllPermissions != 0 {
		return errors.Wrapf(ErrInvalidPermissions, "unknown bits %08b", uint8(p&^AllPermissions))
	}
	return nil
}

func (p Permissions) String() string {
	if p == 0 {
		return "none"
	}
	var names []string
	for _, f := range []struct {
		flag Permissions
		name string
	}{
		{Initiate, "initiate"},
		{Vote, "vote"},
		{Execute, "execute"},
	} {
		if p.Has(f.flag) {
			names = append(names, f.name)
		}
	}
	return strings.Join(names, "|")
}

// Role is orthogonal to permissions and restricts how a member can be
// managed.
type Role uint8

const (
	// RegularMember has no special rules.
	RegularMember Role = iota
	// PermanentMember cannot be removed. It must be a delegate.
	PermanentMember
	// TransactionManager is an external service key that may only
	// initiate transactions.
	TransactionManager
	// Administrator may change the settings on its own.
	Administrator
)

// Validate returns an error for unknown roles.
func (r Role) Validate() error {
	if r > Administrator {
		return errors.Wrapf(errors.ErrInput, "unknown role %d", uint8(r))
	}
	return nil
}

func (r Role) String() string {
	switch r {
	case RegularMember:
		return "member"
	case PermanentMember:
		return "permanent_member"
	case TransactionManager:
		return "transaction_manager"
	case Administrator:
		return "administrator"
	default:
		return "unknown"
	}
}
