package rbac

import (
	"fmt"
	"strings"
)

// Key is a permission key in "resource:action" form.
type Key struct {
	Resource string
	Action   string
}

func (k Key) String() string {
	return k.Resource + ":" + k.Action
}

func validKeyPart(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' && r != '-' {
			return false
		}
	}
	return true
}

// ParseKey splits s into resource and action. Both parts must be non-empty
// lowercase identifiers.
func ParseKey(s string) (Key, error) {
	resource, action, ok := strings.Cut(s, ":")
	if !ok || strings.Contains(action, ":") {
		return Key{}, fmt.Errorf("permission key %q must have the form resource:action", s)
	}
	if !validKeyPart(resource) || !validKeyPart(action) {
		return Key{}, fmt.Errorf("permission key %q contains invalid characters", s)
	}
	return Key{Resource: resource, Action: action}, nil
}

// MustKey is ParseKey for compile-time constants.
func MustKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Resources whose LIMITED grants are narrowed by company membership.
const (
	ResourceUsers     = "users"
	ResourceCompanies = "companies"
	ResourceTime      = "time"
	ResourceSchedules = "schedules"
	ResourceRates     = "rates"
	ResourceRoles     = "roles"
)

// Permission keys used by the HTTP surface.
var (
	UsersList   = MustKey("users:list")
	UsersView   = MustKey("users:view")
	UsersCreate = MustKey("users:create")
	UsersUpdate = MustKey("users:update")
	UsersDelete = MustKey("users:delete")

	CompaniesList   = MustKey("companies:list")
	CompaniesView   = MustKey("companies:view")
	CompaniesCreate = MustKey("companies:create")
	CompaniesUpdate = MustKey("companies:update")
	CompaniesDelete = MustKey("companies:delete")

	TimeList    = MustKey("time:list")
	TimeCreate  = MustKey("time:create")
	TimeUpdate  = MustKey("time:update")
	TimeDelete  = MustKey("time:delete")
	TimeApprove = MustKey("time:approve")
	TimeReport  = MustKey("time:report")

	SchedulesList   = MustKey("schedules:list")
	SchedulesCreate = MustKey("schedules:create")
	SchedulesUpdate = MustKey("schedules:update")
	SchedulesDelete = MustKey("schedules:delete")

	RatesList   = MustKey("rates:list")
	RatesCreate = MustKey("rates:create")
	RatesUpdate = MustKey("rates:update")
	RatesDelete = MustKey("rates:delete")

	RolesList   = MustKey("roles:list")
	RolesManage = MustKey("roles:manage")
	AuditView   = MustKey("audit:view")
)

// Catalogue lists every key with a human description, in seed order.
var Catalogue = []struct {
	Key         Key
	Description string
}{
	{UsersList, "List users"},
	{UsersView, "View user details"},
	{UsersCreate, "Create new users"},
	{UsersUpdate, "Update user information"},
	{UsersDelete, "Delete users"},
	{CompaniesList, "List companies"},
	{CompaniesView, "View company details"},
	{CompaniesCreate, "Create new companies"},
	{CompaniesUpdate, "Update company information"},
	{CompaniesDelete, "Delete companies"},
	{TimeList, "List time entries"},
	{TimeCreate, "Create time entries"},
	{TimeUpdate, "Update time entries"},
	{TimeDelete, "Delete time entries"},
	{TimeApprove, "Approve time entries and timesheets"},
	{TimeReport, "Generate time reports"},
	{SchedulesList, "List schedules"},
	{SchedulesCreate, "Create schedules"},
	{SchedulesUpdate, "Update schedules"},
	{SchedulesDelete, "Delete schedules"},
	{RatesList, "List rates"},
	{RatesCreate, "Create rates"},
	{RatesUpdate, "Update rates"},
	{RatesDelete, "Delete rates"},
	{RolesList, "List roles and permissions"},
	{RolesManage, "Manage roles and permission levels"},
	{AuditView, "View audit trail"},
}
