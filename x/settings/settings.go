package settings

import (
	"encoding/binary"

	"github.com/iov-one/vault"
	"github.com/iov-one/vault/errors"
	"github.com/iov-one/vault/orm"
)

const (
	// MaxMembers is the capacity of a vault.
	MaxMembers = 4

	// IndexLength is the size of the index the settings address is
	// derived from.
	IndexLength = 16

	// SettingsSize is the size of the settings record.
	SettingsSize = IndexLength + MaxMembers*MemberRecordSize + 1 + 1 + 1 + 1 + 1 + 8
)

// Settings is the configuration of a single vault.
type Settings struct {
	Index   [IndexLength]byte
	Members []Member
	// Threshold is the number of votes a transaction needs.
	Threshold  uint8
	VaultBump  uint8
	RecordBump uint8
	TreeIndex  uint8
	// LatestFreshness is the highest freshness reference used by a passkey
	// assertion against this vault. Every new assertion must exceed it.
	LatestFreshness uint64
}

var _ orm.Model = (*Settings)(nil)

// Validate returns an error if the settings break any of the membership,
// role or threshold rules.
func (s *Settings) Validate() error {
	switch n := len(s.Members); {
	case n == 0:
		return errors.Wrap(ErrMemberCount, "no members")
	case n > MaxMembers:
		return errors.Wrapf(ErrMemberCount, "%d members, at most %d allowed", n, MaxMembers)
	}

	var (
		voters, initiators, executors       int
		permanent, managers, administrators int
	)
	seen := make(map[vault.MemberKey]struct{}, len(s.Members))
	for i := range s.Members {
		m := &s.Members[i]
		if err := m.Validate(); err != nil {
			return errors.Wrapf(err, "member %d", i)
		}
		if _, ok := seen[m.Key]; ok {
			return errors.Wrapf(ErrDuplicateMember, "member %s", m.Key)
		}
		seen[m.Key] = struct{}{}

		if m.Has(Vote) {
			voters++
		}
		if m.Has(Initiate) {
			initiators++
		}
		if m.Has(Execute) {
			executors++
		}

		switch m.Role {
		case PermanentMember:
			permanent++
			if !m.IsDelegate {
				return errors.Wrapf(ErrPermanentMember, "member %s is not a delegate", m.Key)
			}
		case TransactionManager:
			managers++
			if err := validateManager(m); err != nil {
				return err
			}
		case Administrator:
			administrators++
		}
	}

	if s.Threshold < 1 {
		return errors.Wrap(ErrInvalidThreshold, "threshold must be at least 1")
	}
	if int(s.Threshold) > voters {
		return errors.Wrapf(ErrInvalidThreshold, "insufficient voters: threshold %d, %d voting members", s.Threshold, voters)
	}
	if initiators == 0 {
		return errors.Wrap(ErrNoInitiator, "at least one member must hold initiate")
	}
	if executors == 0 {
		return errors.Wrap(ErrNoExecutor, "at least one member must hold execute")
	}
	if permanent > 1 {
		return errors.Wrapf(ErrPermanentMember, "%d permanent members, at most 1 allowed", permanent)
	}
	if managers > 1 {
		return errors.Wrapf(ErrTransactionManager, "%d transaction managers, at most 1 allowed", managers)
	}
	if administrators > 1 {
		return errors.Wrapf(ErrAdministrator, "%d administrators, at most 1 allowed", administrators)
	}
	return nil
}

func validateManager(m *Member) error {
	if m.Permissions != Initiate {
		return errors.Wrapf(ErrTransactionManager, "permissions %s, must be initiate only", m.Permissions)
	}
	if m.IsDelegate {
		return errors.Wrap(ErrTransactionManager, "cannot be a delegate")
	}
	if !m.Key.IsDirect() {
		return errors.Wrap(ErrTransactionManager, "must be a direct key")
	}
	return nil
}

// Member returns the member with given key.
func (s *Settings) Member(key vault.MemberKey) (*Member, bool) {
	for i := range s.Members {
		if s.Members[i].Key.Equals(key) {
			return &s.Members[i], true
		}
	}
	return nil, false
}

// Authorize returns the member with given key if it holds all given
// permissions.
func (s *Settings) Authorize(key vault.MemberKey, p Permissions) (*Member, error) {
	m, ok := s.Member(key)
	if !ok {
		return nil, errors.Wrapf(ErrInsufficientPermissions, "%s is not a member", key)
	}
	if !m.Has(p) {
		return nil, errors.Wrapf(ErrInsufficientPermissions, "%s holds %s, requires %s", key, m.Permissions, p)
	}
	return m, nil
}

// AddMembers appends given members. Keys already present are rejected. The
// result must be validated before use.
func (s *Settings) AddMembers(members ...Member) error {
	for _, m := range members {
		if _, ok := s.Member(m.Key); ok {
			return errors.Wrapf(ErrDuplicateMember, "member %s", m.Key)
		}
		if err := m.Validate(); err != nil {
			return errors.Wrapf(err, "member %s", m.Key)
		}
		s.Members = append(s.Members, m)
	}
	return nil
}

// RemoveMembers removes members with given keys and returns the removed
// members. The permanent member cannot be removed.
func (s *Settings) RemoveMembers(keys ...vault.MemberKey) ([]Member, error) {
	removed := make([]Member, 0, len(keys))
	for _, key := range keys {
		idx := s.indexOf(key)
		if idx < 0 {
			return nil, errors.Wrapf(ErrMemberNotFound, "member %s", key)
		}
		if s.Members[idx].Role == PermanentMember {
			return nil, errors.Wrapf(ErrPermanentMember, "member %s cannot be removed", key)
		}
		removed = append(removed, s.Members[idx])
		s.Members = append(s.Members[:idx], s.Members[idx+1:]...)
	}
	return removed, nil
}

// PermissionEdit replaces the permissions of a single member.
type PermissionEdit struct {
	Key         vault.MemberKey
	Permissions Permissions
}

// EditPermissions replaces the permissions of existing members. A
// transaction manager keeps its permissions.
func (s *Settings) EditPermissions(edits ...PermissionEdit) error {
	for _, e := range edits {
		if err := e.Permissions.Validate(); err != nil {
			return errors.Wrapf(err, "member %s", e.Key)
		}
		m, ok := s.Member(e.Key)
		if !ok {
			return errors.Wrapf(ErrMemberNotFound, "member %s", e.Key)
		}
		if m.Role == TransactionManager {
			return errors.Wrapf(ErrTransactionManager, "permissions of %s cannot be edited", e.Key)
		}
		m.Permissions = e.Permissions
	}
	return nil
}

// SetThreshold replaces the threshold. The result must be validated before
// use.
func (s *Settings) SetThreshold(n uint8) {
	s.Threshold = n
}

// CountVotes returns how many distinct given keys belong to members holding
// the vote permission.
func (s *Settings) CountVotes(keys []vault.MemberKey) int {
	counted := make(map[vault.MemberKey]struct{}, len(keys))
	for _, k := range keys {
		if m, ok := s.Member(k); ok && m.Has(Vote) {
			counted[k] = struct{}{}
		}
	}
	return len(counted)
}

// RequireVotes returns ErrInsufficientVotes unless given keys carry at least
// threshold votes.
func (s *Settings) RequireVotes(keys []vault.MemberKey) error {
	if n := s.CountVotes(keys); n < int(s.Threshold) {
		return errors.Wrapf(ErrInsufficientVotes, "insufficient votes: %d/%d", n, s.Threshold)
	}
	return nil
}

// Administrator returns the administrator member, if any.
func (s *Settings) Administrator() (*Member, bool) {
	for i := range s.Members {
		if s.Members[i].Role == Administrator {
			return &s.Members[i], true
		}
	}
	return nil, false
}

// CheckFreshness returns an error unless given reference is newer than any
// reference used before.
func (s *Settings) CheckFreshness(reference uint64) error {
	if reference <= s.LatestFreshness {
		return errors.Wrapf(ErrStaleFreshness, "reference %d, latest %d", reference, s.LatestFreshness)
	}
	return nil
}

// ObserveFreshness advances the freshness token.
func (s *Settings) ObserveFreshness(reference uint64) {
	if reference > s.LatestFreshness {
		s.LatestFreshness = reference
	}
}

func (s *Settings) indexOf(key vault.MemberKey) int {
	for i := range s.Members {
		if s.Members[i].Key.Equals(key) {
			return i
		}
	}
	return -1
}

// Copy returns a deep copy.
func (s *Settings) Copy() *Settings {
	c := *s
	c.Members = make([]Member, len(s.Members))
	for i, m := range s.Members {
		if m.DomainBinding != nil {
			d := *m.DomainBinding
			m.DomainBinding = &d
		}
		c.Members[i] = m
	}
	return &c
}

// Marshal returns the fixed size record layout.
func (s *Settings) Marshal() ([]byte, error) {
	if len(s.Members) > MaxMembers {
		return nil, errors.Wrapf(ErrMemberCount, "%d members", len(s.Members))
	}
	raw := make([]byte, 0, SettingsSize)
	raw = append(raw, s.Index[:]...)
	for i := range s.Members {
		raw = s.Members[i].appendRecord(raw)
	}
	raw = append(raw, make([]byte, (MaxMembers-len(s.Members))*MemberRecordSize)...)
	raw = append(raw, byte(len(s.Members)), s.Threshold, s.VaultBump, s.RecordBump, s.TreeIndex)
	raw = binary.LittleEndian.AppendUint64(raw, s.LatestFreshness)
	return raw, nil
}

// Unmarshal reads the fixed size record layout.
func (s *Settings) Unmarshal(raw []byte) error {
	if len(raw) != SettingsSize {
		return errors.Wrapf(errors.ErrRecordSize, "settings is %d bytes, want %d", len(raw), SettingsSize)
	}
	copy(s.Index[:], raw[:IndexLength])
	tail := raw[IndexLength+MaxMembers*MemberRecordSize:]
	n := int(tail[0])
	if n > MaxMembers {
		return errors.Wrapf(ErrMemberCount, "%d members", n)
	}
	s.Members = make([]Member, n)
	for i := 0; i < MaxMembers; i++ {
		rec := raw[IndexLength+i*MemberRecordSize : IndexLength+(i+1)*MemberRecordSize]
		if i >= n {
			if !allZero(rec) {
				return errors.Wrapf(errors.ErrInput, "unused member slot %d is not empty", i)
			}
			continue
		}
		if err := s.Members[i].readRecord(rec); err != nil {
			return errors.Wrapf(err, "member %d", i)
		}
	}
	s.Threshold = tail[1]
	s.VaultBump = tail[2]
	s.RecordBump = tail[3]
	s.TreeIndex = tail[4]
	s.LatestFreshness = binary.LittleEndian.Uint64(tail[5:])
	return nil
}
