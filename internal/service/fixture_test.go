package service_test

import (
	"sync"
	"testing"
	"time"

	"hrms/internal/model"
	"hrms/internal/rbac"
	"hrms/internal/repository"
	"hrms/internal/service"
	"hrms/internal/testutil"
	"hrms/pkg/logger"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// monday is 2026-03-02, the start of an ISO week.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type published struct {
	Event  string
	UserID uuid.UUID
}

type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) Publish(event string, userID uuid.UUID, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{Event: event, UserID: userID})
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Event)
	}
	return out
}

type fixture struct {
	db     *gorm.DB
	clock  *clock.Mock
	events *recorder

	tx        repository.TransactionManager
	users     repository.UserRepository
	roles     repository.RoleRepository
	companies repository.CompanyRepository
	audit     repository.AuditRepository

	authz      service.AuthorizationService
	roleSvc    service.RoleService
	schedules  service.ScheduleService
	entries    service.TimeEntryService
	timer      service.TimerService
	timesheets service.TimesheetService
	rates      service.RateService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	clk := clock.NewMock()
	clk.Set(monday.Add(9 * time.Hour))
	log := logger.New(logger.Config{Level: "error"})

	f := &fixture{
		db:        db,
		clock:     clk,
		events:    &recorder{},
		tx:        repository.NewTransactionManager(db),
		users:     repository.NewUserRepository(db),
		roles:     repository.NewRoleRepository(db),
		companies: repository.NewCompanyRepository(db),
		audit:     repository.NewAuditRepository(db),
	}

	f.authz = service.NewAuthorizationService(f.roles, f.companies, nil, log)
	f.roleSvc = service.NewRoleService(f.tx, f.roles, f.users, f.audit, f.authz, log)
	f.schedules = service.NewScheduleService(f.tx, repository.NewScheduleRepository(db), f.users, f.audit, "UTC")
	f.rates = service.NewRateService(f.tx, repository.NewRateRepository(db), f.users)

	deps := service.TimeDeps{
		Tx:        f.tx,
		Entries:   repository.NewTimeEntryRepository(db),
		Sheets:    repository.NewTimesheetRepository(db),
		Users:     f.users,
		Companies: f.companies,
		Audit:     f.audit,
		Schedules: f.schedules,
		Events:    f.events,
		Clock:     clk,
		Location:  time.UTC,
		Log:       log,
	}
	f.entries = service.NewTimeEntryService(deps)
	f.timer = service.NewTimerService(deps)
	f.timesheets = service.NewTimesheetService(deps)
	return f
}

func (f *fixture) user(t *testing.T, email string) *model.User {
	t.Helper()
	return testutil.CreateUser(t, f.db, email)
}

// full is an actor with AUTHORIZED access.
func full(u *model.User) service.Actor {
	return service.Actor{UserID: u.ID}
}

// limited is an actor holding key at LIMITED with the given companies.
func limited(u *model.User, key rbac.Key, companies ...uuid.UUID) service.Actor {
	return service.Actor{
		UserID: u.ID,
		Key:    key,
		Scope:  rbac.Scope{Limited: true, UserID: u.ID, CompanyIDs: companies},
	}
}

func at(day time.Time, hour, minute int) *time.Time {
	t := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	return &t
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func countAudit(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.AuditLog{}).Where("action = ?", action).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func (f *fixture) companyWithMembers(t *testing.T, name string, members ...*model.User) *model.Company {
	t.Helper()
	c := testutil.CreateCompany(t, f.db, name)
	for _, m := range members {
		if err := f.db.Create(&model.CompanyMembership{UserID: m.ID, CompanyID: c.ID}).Error; err != nil {
			t.Fatal(err)
		}
	}
	return c
}
