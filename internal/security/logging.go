// Package security provides structured JSON logging and security monitoring
// for the FGBMFI RMM application. Every log line is a single JSON object so
// downstream collectors can parse without custom grammars.
package security

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

// LogLevel identifies the severity of a log entry.
type LogLevel string

// Log levels, from routine to page-someone.
const (
	LogLevelInfo     LogLevel = "INFO"
	LogLevelWarning  LogLevel = "WARNING"
	LogLevelError    LogLevel = "ERROR"
	LogLevelCritical LogLevel = "CRITICAL"
	LogLevelSecurity LogLevel = "SECURITY"
)

// SecurityEventType identifies a class of security-relevant action.
type SecurityEventType string

// Security event types covering authentication, the registrar desk, the
// finance desk, and admin mutations.
const (
	EventLoginSuccess       SecurityEventType = "LOGIN_SUCCESS"
	EventLoginFailure       SecurityEventType = "LOGIN_FAILURE"
	EventLogout             SecurityEventType = "LOGOUT"
	EventAccountLocked      SecurityEventType = "ACCOUNT_LOCKED"
	EventSessionExpired     SecurityEventType = "SESSION_EXPIRED"
	EventUnauthorizedAccess SecurityEventType = "UNAUTHORIZED_ACCESS"

	EventCheckInRecorded  SecurityEventType = "CHECK_IN_RECORDED"
	EventCheckInRejected  SecurityEventType = "CHECK_IN_REJECTED"
	EventDelegateRegister SecurityEventType = "DELEGATE_REGISTER"
	EventDelegateMerge    SecurityEventType = "DELEGATE_MERGE"

	EventOfferingRecorded SecurityEventType = "OFFERING_RECORDED"
	EventPledgeRecorded   SecurityEventType = "PLEDGE_RECORDED"
	EventPledgeRedeemed   SecurityEventType = "PLEDGE_REDEEMED"

	EventEventCreate     SecurityEventType = "EVENT_CREATE"
	EventEventDelete     SecurityEventType = "EVENT_DELETE"
	EventEventDataClear  SecurityEventType = "EVENT_DATA_CLEAR"
	EventReferenceChange SecurityEventType = "REFERENCE_CHANGE"
	EventUserCreate      SecurityEventType = "USER_CREATE"
	EventUserDelete      SecurityEventType = "USER_DELETE"

	EventExportGenerate SecurityEventType = "EXPORT_GENERATE"
	EventLargeExport    SecurityEventType = "LARGE_EXPORT"

	EventRateLimitExceeded   SecurityEventType = "RATE_LIMIT_EXCEEDED"
	EventCSRFViolation       SecurityEventType = "CSRF_VIOLATION"
	EventSQLInjectionAttempt SecurityEventType = "SQL_INJECTION_ATTEMPT"
	EventXSSAttempt          SecurityEventType = "XSS_ATTEMPT"
)

// LogEntry is the JSON shape of one log line.
type LogEntry struct {
	Timestamp  time.Time              `json:"timestamp"`
	Level      LogLevel               `json:"level"`
	Message    string                 `json:"message"`
	EventType  SecurityEventType      `json:"event_type,omitempty"`
	ActorID    *int                   `json:"actor_id,omitempty"`
	ActorEmail string                 `json:"actor_email,omitempty"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	UserAgent  string                 `json:"user_agent,omitempty"`
	Method     string                 `json:"method,omitempty"`
	Path       string                 `json:"path,omitempty"`
	Status     int                    `json:"status,omitempty"`
	LatencyMS  int64                  `json:"latency_ms,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

// Logger emits structured JSON log entries.
type Logger struct {
	output *log.Logger
}

// NewLogger creates a Logger writing to stdout. Tests swap the output to a
// buffer.
func NewLogger() *Logger {
	return &Logger{
		output: log.New(os.Stdout, "", 0),
	}
}

func (l *Logger) emit(entry LogEntry) {
	entry.Timestamp = time.Now().UTC()

	data, err := json.Marshal(entry)
	if err != nil {
		// Marshal of LogEntry only fails on exotic Extra values; fall back
		// to a plain line rather than dropping the event.
		l.output.Printf(`{"level":"ERROR","message":"log marshal failed: %v"}`, err)
		return
	}
	l.output.Print(string(data))
}

// Info logs a routine message.
func (l *Logger) Info(message string) {
	l.emit(LogEntry{Level: LogLevelInfo, Message: message})
}

// Warn logs a recoverable anomaly.
func (l *Logger) Warn(message string) {
	l.emit(LogEntry{Level: LogLevelWarning, Message: message})
}

// Error logs a failure with its cause.
func (l *Logger) Error(message string, err error) {
	entry := LogEntry{Level: LogLevelError, Message: message}
	if err != nil {
		entry.Error = err.Error()
	}
	l.emit(entry)
}

// Critical logs a failure requiring immediate attention.
func (l *Logger) Critical(message string, err error) {
	entry := LogEntry{Level: LogLevelCritical, Message: message}
	if err != nil {
		entry.Error = err.Error()
	}
	l.emit(entry)
}

// SecurityEvent logs a security-relevant action with its actor and source.
func (l *Logger) SecurityEvent(eventType SecurityEventType, actorID *int, actorEmail, ipAddress, userAgent string, extra map[string]interface{}) {
	l.emit(LogEntry{
		Level:      LogLevelSecurity,
		Message:    fmt.Sprintf("Security event: %s", eventType),
		EventType:  eventType,
		ActorID:    actorID,
		ActorEmail: actorEmail,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Extra:      extra,
	})
}

// HTTPRequest logs one completed request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMS int64, ipAddress, userAgent string) {
	l.emit(LogEntry{
		Level:     LogLevelInfo,
		Message:   fmt.Sprintf("%s %s %d (%dms)", method, path, status, latencyMS),
		Method:    method,
		Path:      path,
		Status:    status,
		LatencyMS: latencyMS,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})
}

// Alerter delivers security alerts to an operator channel. The production
// wiring uses LogAlerter; deployments with a paging integration provide their
// own implementation.
type Alerter interface {
	SendAlert(ctx context.Context, severity, title, message string) error
}

// LogAlerter is an Alerter that writes alerts as critical log entries.
type LogAlerter struct {
	logger *Logger
}

// NewLogAlerter creates a LogAlerter over the given logger.
func NewLogAlerter(logger *Logger) *LogAlerter {
	return &LogAlerter{logger: logger}
}

// SendAlert writes the alert as a critical log line.
func (a *LogAlerter) SendAlert(_ context.Context, severity, title, message string) error {
	a.logger.Critical(fmt.Sprintf("ALERT [%s] %s: %s", severity, title, message), nil)
	return nil
}

// SecurityMonitor watches failure counters and raises alerts past configured
// thresholds. Counters reset on the monitoring interval, not per request.
type SecurityMonitor struct {
	logger  *Logger
	config  *SecurityConfig
	alerter Alerter

	mu           sync.Mutex
	failedLogins map[string]int
	lastReset    time.Time
}

// NewSecurityMonitor creates a monitor with empty counters.
func NewSecurityMonitor(logger *Logger, config *SecurityConfig, alerter Alerter) *SecurityMonitor {
	return &SecurityMonitor{
		logger:       logger,
		config:       config,
		alerter:      alerter,
		failedLogins: make(map[string]int),
		lastReset:    time.Now(),
	}
}

// MonitorLoginFailure records a failed login from an IP and alerts when the
// address reaches the failure threshold.
func (m *SecurityMonitor) MonitorLoginFailure(ipAddress string) {
	m.mu.Lock()
	m.failedLogins[ipAddress]++
	count := m.failedLogins[ipAddress]
	m.mu.Unlock()

	if count == m.config.AlertThresholdFailures && m.alerter != nil {
		_ = m.alerter.SendAlert(context.Background(), "HIGH",
			"Repeated login failures",
			fmt.Sprintf("%d failed login attempts from %s", count, ipAddress))
	}
}

// MonitorLargeExport alerts when an export exceeds the configured row count.
func (m *SecurityMonitor) MonitorLargeExport(actorEmail string, rows int, params map[string]string) {
	if rows < m.config.AlertThresholdExport {
		return
	}

	extra := make(map[string]interface{}, len(params)+1)
	for k, v := range params {
		extra[k] = v
	}
	extra["rows"] = rows
	m.logger.SecurityEvent(EventLargeExport, nil, actorEmail, "", "", extra)

	if m.alerter == nil {
		return
	}
	_ = m.alerter.SendAlert(context.Background(), "MEDIUM",
		"Large data export",
		fmt.Sprintf("%s exported %d rows", actorEmail, rows))
}

// ResetCounters clears failure counters once the monitoring interval has
// elapsed. Called from the monitor loop; cheap enough to call eagerly.
func (m *SecurityMonitor) ResetCounters() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastReset) < m.config.MonitoringInterval {
		return
	}
	m.failedLogins = make(map[string]int)
	m.lastReset = time.Now()
}
