package inbound

import "time"

type EventResponse struct {
	ID         int64     `json:"id,string"`
	Action     string    `json:"action"`
	ActorEmail string    `json:"actor_email"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EventsResponse struct {
	Events []EventResponse `json:"events"`
	// meta
	total int64
	size  int32
	page  int32
}

func (r EventsResponse) Meta() map[string]any {
	return map[string]any{
		"total": r.total,
		"size":  r.size,
		"page":  r.page,
	}
}

type ExportEventsRequest struct {
	Action     string    `json:"action"`
	ActorEmail string    `json:"actor_email"`
	Outcome    string    `json:"outcome"`
	DateFrom   time.Time `json:"date_from"`
	DateTo     time.Time `json:"date_to"`
}

type ExportEventsResponse struct {
	ObjectKey string    `json:"object_key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Count     int64     `json:"count"`
}

func (ExportEventsResponse) Message() string {
	return "Audit export created. Download it before the URL expires."
}
