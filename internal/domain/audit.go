package domain

// AuditEventKind classifies informational events emitted by the engine.
type AuditEventKind string

const (
	AuditDeepLinkIssued   AuditEventKind = "DEEP_LINK_ISSUED"
	AuditRateLimited      AuditEventKind = "RATE_LIMITED"
	AuditSecurityRejected AuditEventKind = "SECURITY_REJECTED"
	AuditConfirmation     AuditEventKind = "CONFIRMATION"
)

// AuditEvent is an append-only record of one engine decision. Written
// best-effort, never on the request critical path.
type AuditEvent struct {
	Kind      AuditEventKind
	UserID    string
	Mint      string // empty when not applicable
	Signature string // empty when not applicable
	Detail    string // reason code, status, or wait time
	CreatedAt int64  // ms
}
