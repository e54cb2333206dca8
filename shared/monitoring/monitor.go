package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"verifylens/internal/models"
)

// Monitor remembers how the most recent analysis went. Only critical
// failures (upload exhaustion, model errors) make the service unhealthy;
// rejected user input does not.
type Monitor struct {
	mu             sync.Mutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastError      string
	analyses       int
	failures       int
	log            logrus.FieldLogger
}

func NewMonitor(log logrus.FieldLogger) *Monitor {
	return &Monitor{log: log}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.analyses++
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastError = ""

	m.log.WithField("duration", duration).Infof("Analysis completed - %s", summary)
}

func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Partial failures leave health untouched.
	m.analyses++
	m.log.WithField("duration", duration).WithError(err).Warn("Partial failure")
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.analyses++
	m.failures++
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastError = err.Error()

	m.log.WithField("duration", duration).WithError(err).Error("Critical failure")
}

// RecordAnalysis classifies a finished analysis and records it.
func (m *Monitor) RecordAnalysis(a *models.Analysis, duration time.Duration) {
	switch a.Failure {
	case models.FailureNone:
		var broken int
		for _, s := range a.Stages {
			if s.Error != "" {
				broken++
			}
		}
		if broken > 0 {
			m.RecordPartialFailure(fmt.Errorf("%s analysis: %d of %d stages returned no content", a.MediaType, broken, len(a.Stages)), duration)
			return
		}
		m.RecordSuccess(fmt.Sprintf("%s analysis, %d stages", a.MediaType, len(a.Stages)), duration)
	case models.FailureUpload, models.FailureAnalysis:
		m.RecordCriticalFailure(fmt.Errorf("%s: %s", a.Failure, a.Error), duration)
	default:
		m.RecordPartialFailure(fmt.Errorf("%s: %s", a.Failure, a.Error), duration)
	}
}

func (m *Monitor) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastRunTime.IsZero() {
		return true // nothing analyzed yet
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastRunTime.IsZero() {
		return "No analyses yet"
	}

	if m.lastRunSuccess {
		return fmt.Sprintf("Last analysis: %s", m.lastRunTime.Format("Jan 2 15:04"))
	}
	return fmt.Sprintf("Last analysis failed: %s (%s)", m.lastRunTime.Format("Jan 2 15:04"), m.lastError)
}

// Counts returns the number of analyses seen and how many failed critically.
func (m *Monitor) Counts() (analyses, failures int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.analyses, m.failures
}
