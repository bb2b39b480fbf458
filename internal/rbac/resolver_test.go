package rbac

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSatisfies(t *testing.T) {
	cases := []struct {
		effective, required Level
		want                bool
	}{
		{Forbidden, Forbidden, false},
		{Forbidden, Limited, false},
		{Forbidden, Authorized, false},
		{Limited, Limited, true},
		{Limited, Authorized, false},
		{Authorized, Limited, true},
		{Authorized, Authorized, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Satisfies(tc.effective, tc.required), "%s vs %s", tc.effective, tc.required)
	}
}

func TestEffectiveLevel(t *testing.T) {
	manager := Grants{"time:approve": Authorized, "users:delete": Limited}
	employee := Grants{"time:approve": Limited, "time:create": Authorized}

	t.Run("max level wins across roles", func(t *testing.T) {
		roles := []Grants{employee, manager}
		assert.Equal(t, Authorized, EffectiveLevel(roles, TimeApprove))
		assert.Equal(t, Authorized, Merge(roles...).Level(TimeApprove))
	})

	t.Run("missing grant is forbidden", func(t *testing.T) {
		assert.Equal(t, Forbidden, EffectiveLevel([]Grants{employee}, RatesDelete))
		assert.Equal(t, Forbidden, EffectiveLevel(nil, RatesDelete))
		assert.Equal(t, Forbidden, Merge().Level(RatesDelete))
	})

	t.Run("adding a role never lowers a level", func(t *testing.T) {
		low := Grants{"time:approve": Forbidden, "users:delete": Forbidden, "time:create": Limited}
		base := Merge(manager, employee)
		grown := Merge(manager, employee, low)
		for key, level := range base {
			assert.GreaterOrEqual(t, grown[key], level, key)
		}
	})
}

func TestRequirementDefaultsToAuthorized(t *testing.T) {
	assert.Equal(t, Authorized, Requirement{Key: TimeList}.Required())
	assert.Equal(t, Limited, RequireLimited(TimeList).Required())
	assert.Equal(t, Authorized, Require(TimeList).Required())
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("time:approve")
	assert.NoError(t, err)
	assert.Equal(t, Key{Resource: "time", Action: "approve"}, k)

	for _, bad := range []string{"time", "time:", ":approve", "a:b:c", "Time:Approve", "time approve"} {
		_, err := ParseKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestLevelText(t *testing.T) {
	for _, l := range []Level{Forbidden, Limited, Authorized} {
		text, err := l.MarshalText()
		assert.NoError(t, err)
		var back Level
		assert.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, l, back)
	}

	var l Level
	assert.Error(t, l.UnmarshalText([]byte("ADMIN")))
	assert.NoError(t, l.Scan([]byte("LIMITED")))
	assert.Equal(t, Limited, l)
}

func TestScope(t *testing.T) {
	var open Scope
	assert.True(t, open.AllowsUser(uuid.New()))

	self := uuid.New()
	own := Scope{Limited: true, UserID: self}
	assert.True(t, own.AllowsUser(self))
	assert.False(t, own.AllowsUser(uuid.New()))

	d := &Decision{Scopes: map[string]Scope{"companies:list": {Limited: true}}}
	assert.True(t, d.Limited())
	assert.True(t, d.Scope(CompaniesList).Limited)
	assert.False(t, d.Scope(TimeList).Limited)
	assert.False(t, d.Scope(CompaniesList).AllowsCompany(uuid.New()))
}
