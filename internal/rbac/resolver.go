package rbac

// Grants is one role's flattened permission table: key -> level.
type Grants map[string]Level

// Effective is a user's merged permission table. Keys absent from the map
// are Forbidden.
type Effective map[string]Level

// Level returns the effective level for key.
func (e Effective) Level(key Key) Level {
	if l, ok := e[key.String()]; ok {
		return l
	}
	return Forbidden
}

// Merge folds the grants of every role a user holds, keeping the highest
// level per key. Adding a role can never lower a key's level.
func Merge(roles ...Grants) Effective {
	eff := make(Effective)
	for _, g := range roles {
		for key, level := range g {
			if cur, ok := eff[key]; !ok || level > cur {
				eff[key] = level
			}
		}
	}
	return eff
}

// EffectiveLevel is the maximum level for key across roles.
func EffectiveLevel(roles []Grants, key Key) Level {
	best := Forbidden
	k := key.String()
	for _, g := range roles {
		if l, ok := g[k]; ok && l > best {
			best = l
		}
	}
	return best
}

// Satisfies reports whether an effective level meets a required one.
// Forbidden never satisfies anything, including a Forbidden requirement.
func Satisfies(effective, required Level) bool {
	if effective == Forbidden {
		return false
	}
	if required == Authorized {
		return effective == Authorized
	}
	return effective == Limited || effective == Authorized
}

// Requirement is one gate on an operation. The zero Level is replaced by
// Authorized.
type Requirement struct {
	Key   Key
	Level Level
}

// Require builds an Authorized requirement for key.
func Require(key Key) Requirement {
	return Requirement{Key: key, Level: Authorized}
}

// RequireLimited accepts either Limited or Authorized holders of key.
func RequireLimited(key Key) Requirement {
	return Requirement{Key: key, Level: Limited}
}

// Required is the level the requirement demands after defaulting.
func (r Requirement) Required() Level {
	if r.Level == Forbidden {
		return Authorized
	}
	return r.Level
}
