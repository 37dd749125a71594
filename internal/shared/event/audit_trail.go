package event

const AuditTrailDestination string = "audit_trail"
const AuditTrailConsumerAudit string = "audit_trail_audit"

type AuditTrailMessage struct {
	Action     string `json:"action"`
	ActorEmail string `json:"actor_email"`
	Outcome    string `json:"outcome"`
	Detail     string `json:"detail"`
	IPAddress  string `json:"ip_address"`
	OccurredAt int64  `json:"occurred_at"`
}
