package main

import (
	"hrms/internal/auth"
	"hrms/internal/config"
	"hrms/internal/metrics"
	"hrms/internal/repository"
	"hrms/internal/service"
	"hrms/pkg/logger"

	"github.com/benbjohnson/clock"
	"gorm.io/gorm"
)

// app wires repositories and services (Repository -> Service).
type app struct {
	tokens *auth.JWTManager

	userRepo repository.UserRepository
	roleRepo repository.RoleRepository

	authz     service.AuthorizationService
	roles     service.RoleService
	users     service.UserService
	companies service.CompanyService
	schedules service.ScheduleService
	rates     service.RateService
	audit     service.AuditService
	entries   service.TimeEntryService
	timer     service.TimerService
	sheets    service.TimesheetService
}

// newApp builds the service graph. m and events may be nil for commands
// that do not serve HTTP.
func newApp(cfg *config.Config, db *gorm.DB, log logger.Logger, m *metrics.Metrics, events service.EventPublisher) *app {
	clk := clock.New()
	tx := repository.NewTransactionManager(db)
	users := repository.NewUserRepository(db)
	roles := repository.NewRoleRepository(db)
	companies := repository.NewCompanyRepository(db)
	audit := repository.NewAuditRepository(db)

	a := &app{
		tokens:   auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL),
		userRepo: users,
		roleRepo: roles,
	}
	a.authz = service.NewAuthorizationService(roles, companies, m, log)
	a.roles = service.NewRoleService(tx, roles, users, audit, a.authz, log)
	a.users = service.NewUserService(tx, users, roles, companies, a.authz, a.tokens, cfg.Auth.RefreshTokenTTL, clk, log)
	a.companies = service.NewCompanyService(companies, users)
	a.schedules = service.NewScheduleService(tx, repository.NewScheduleRepository(db), users, audit, cfg.App.Timezone)
	a.rates = service.NewRateService(tx, repository.NewRateRepository(db), users)
	a.audit = service.NewAuditService(audit)

	deps := service.TimeDeps{
		Tx:        tx,
		Entries:   repository.NewTimeEntryRepository(db),
		Sheets:    repository.NewTimesheetRepository(db),
		Users:     users,
		Companies: companies,
		Audit:     audit,
		Schedules: a.schedules,
		Events:    events,
		Metrics:   m,
		Clock:     clk,
		Location:  cfg.App.Location(),
		Log:       log,
	}
	a.entries = service.NewTimeEntryService(deps)
	a.timer = service.NewTimerService(deps)
	a.sheets = service.NewTimesheetService(deps)
	return a
}
