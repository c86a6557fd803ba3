package auditlog

import (
	"net"
	"net/http"
	"strings"

	"github.com/Admin-EWorld/contracts/internal/platform/requestid"
)

const anonymousActor = "anonymous"

// Meta is the request-derived part of an audit event.
type Meta struct {
	Actor     string
	RequestID string
	IP        net.IP
	UserAgent string
}

// System is used by background jobs that act without a request.
func System(name string) Meta {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "system"
	}
	return Meta{Actor: name}
}

func FromRequest(r *http.Request) Meta {
	if r == nil {
		return Meta{Actor: anonymousActor}
	}
	var ip net.IP
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = net.ParseIP(host)
	} else {
		ip = net.ParseIP(strings.TrimSpace(r.RemoteAddr))
	}
	return Meta{
		Actor:     anonymousActor,
		RequestID: requestid.FromContext(r.Context()),
		IP:        ip,
		UserAgent: r.UserAgent(),
	}
}

// Event fills the request-derived fields of an event.
func (m Meta) Event(action, resourceType, resourceID string, payload any) Event {
	actor := m.Actor
	if strings.TrimSpace(actor) == "" {
		actor = anonymousActor
	}
	return Event{
		Actor:        actor,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    m.RequestID,
		IP:           m.IP,
		UserAgent:    m.UserAgent,
		Payload:      payload,
	}
}
