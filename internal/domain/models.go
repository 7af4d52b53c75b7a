package domain

import "time"

// ProbeType selects which checker family runs a probe. Values match what the
// backend sends on the wire.
type ProbeType string

const (
	ProbeUptime   ProbeType = "Uptime"
	ProbeAPI      ProbeType = "API"
	ProbeSecurity ProbeType = "Security"
	ProbeBrowser  ProbeType = "Browser"
)

// Protocol narrows an Uptime probe to a transport-level check.
type Protocol string

const (
	ProtoHTTP  Protocol = "HTTP"
	ProtoHTTPS Protocol = "HTTPS"
	ProtoTCP   Protocol = "TCP"
	ProtoSMTP  Protocol = "SMTP"
	ProtoDNS   Protocol = "DNS"
)

// ProbeSpec is an assigned check, fetched from the backend each probe cycle.
// It is never persisted locally.
type ProbeSpec struct {
	ID       string            `json:"id"`
	Type     ProbeType         `json:"type"`
	URL      string            `json:"url"`
	Protocol Protocol          `json:"protocol,omitempty"`
	Method   string            `json:"method,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Body     string            `json:"body,omitempty"`

	ExpectedStatusCode int `json:"expectedStatusCode,omitempty"`
	// ExpectedResponseTime is the probe's response-time budget in milliseconds.
	// It doubles as the execution timeout.
	ExpectedResponseTime int `json:"expectedResponseTime,omitempty"`

	// IsActive defaults to true when the backend omits it.
	IsActive *bool `json:"isActive,omitempty"`
}

// Active reports whether the probe should be executed this cycle.
func (p ProbeSpec) Active() bool {
	return p.IsActive == nil || *p.IsActive
}

// Status is the terminal state of one probe execution.
type Status string

const (
	StatusUp      Status = "Up"
	StatusDown    Status = "Down"
	StatusWarning Status = "Warning"
	StatusUnknown Status = "Unknown"
)

// CheckedAtFormat is the single textual timestamp format used in stored rows,
// result pushes and heartbeats. Always UTC.
const CheckedAtFormat = "2006-01-02T15:04:05.000Z"

// CheckedAtNow returns the current UTC time in CheckedAtFormat.
func CheckedAtNow() string {
	return time.Now().UTC().Format(CheckedAtFormat)
}

// ProbeResult is the outcome of executing one probe once. ID and Synced are
// local bookkeeping and are stripped before the result is pushed upstream.
type ProbeResult struct {
	ID             int64  `json:"id,omitempty"`
	ProbeID        string `json:"probeId"`
	GatewayID      string `json:"gatewayId"`
	Status         Status `json:"status"`
	ResponseTimeMS int64  `json:"responseTime"`
	StatusCode     *int   `json:"statusCode"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
	ResponseBody   string `json:"responseBody,omitempty"`
	CheckedAt      string `json:"checkedAt"`
	Synced         bool   `json:"synced,omitempty"`
}

// Heartbeat is the periodic liveness push to the backend.
type Heartbeat struct {
	GatewayID   string         `json:"gatewayId"`
	GatewayType string         `json:"gatewayType"`
	GatewayName string         `json:"gatewayName"`
	Location    string         `json:"location"`
	Timestamp   string         `json:"timestamp"`
	Stats       HeartbeatStats `json:"stats"`
}

// HeartbeatStats carries backlog depth so operators can see store-and-forward
// pressure without reaching into the gateway.
type HeartbeatStats struct {
	UptimeSeconds  float64 `json:"uptime"`
	LastSync       string  `json:"lastSync,omitempty"`
	PendingResults int     `json:"pendingResults"`
}
