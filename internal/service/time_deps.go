package service

import (
	"time"

	"hrms/internal/metrics"
	"hrms/internal/repository"
	"hrms/pkg/logger"

	"github.com/benbjohnson/clock"
)

// TimeDeps bundles the collaborators shared by the time entry, timer and
// timesheet services.
type TimeDeps struct {
	Tx        repository.TransactionManager
	Entries   repository.TimeEntryRepository
	Sheets    repository.TimesheetRepository
	Users     repository.UserRepository
	Companies repository.CompanyRepository
	Audit     repository.AuditRepository
	Schedules ScheduleLookup
	Events    EventPublisher
	Metrics   *metrics.Metrics
	Clock     clock.Clock
	Location  *time.Location
	Log       logger.Logger
}

func (d TimeDeps) withDefaults() TimeDeps {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Events == nil {
		d.Events = noopPublisher{}
	}
	if d.Log == nil {
		d.Log = logger.Default()
	}
	return d
}
