// README: User kinds (passenger, driver, admin) and the profile resolved for each.
package user

import (
	"errors"
	"strings"

	"unirides/internal/types"
)

type Kind string

const (
	KindPassenger Kind = "passenger"
	KindDriver    Kind = "driver"
	KindAdmin     Kind = "admin"
)

var (
	ErrUnknownKind = errors.New("unknown user kind")
	ErrNotFound    = errors.New("user not found")
)

func ParseKind(v string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(v))); k {
	case KindPassenger, KindDriver, KindAdmin:
		return k, nil
	default:
		return "", ErrUnknownKind
	}
}

// Ref identifies a user across the three account tables.
type Ref struct {
	ID   types.ID
	Kind Kind
}

const (
	GenderFemale = "female"
	GenderMale   = "male"
)

type Profile struct {
	Ref       Ref
	Name      string
	Gender    string
	Rating    *float64 // drivers only
	Suspended bool
}

func (p Profile) IsFemale() bool {
	return strings.EqualFold(p.Gender, GenderFemale)
}
