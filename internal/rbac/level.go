// Package rbac holds the graded permission model: levels, structured keys,
// the effective-level resolver and the scope attached to LIMITED access.
package rbac

import (
	"database/sql/driver"
	"fmt"
)

// Level is an ordered access grade: Forbidden < Limited < Authorized.
type Level int

const (
	Forbidden Level = iota
	Limited
	Authorized
)

var levelNames = [...]string{"FORBIDDEN", "LIMITED", "AUTHORIZED"}

func (l Level) String() string {
	if l < Forbidden || l > Authorized {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

func (l Level) Valid() bool {
	return l >= Forbidden && l <= Authorized
}

// ParseLevel accepts the wire vocabulary FORBIDDEN, LIMITED, AUTHORIZED.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return Forbidden, fmt.Errorf("unknown permission level %q", s)
}

func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid permission level %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Value stores the level by name so the column stays readable.
func (l Level) Value() (driver.Value, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid permission level %d", int(l))
	}
	return l.String(), nil
}

func (l *Level) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return l.UnmarshalText([]byte(v))
	case []byte:
		return l.UnmarshalText(v)
	case nil:
		*l = Forbidden
		return nil
	default:
		return fmt.Errorf("cannot scan %T into permission level", src)
	}
}
