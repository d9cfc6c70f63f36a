package loop

import "time"

// AuditEntry records one handled command.
type AuditEntry struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Command string    `json:"command"`
	Actor   string    `json:"actor"`
	Group   string    `json:"group,omitempty"`
	Args    []string  `json:"args,omitempty"`
	OK      bool      `json:"ok"`
	Code    string    `json:"code,omitempty"`
	Text    string    `json:"text,omitempty"`
}

type AuditSink interface {
	WriteAudit(AuditEntry) error
}

// MultiAudit fans an entry out to every sink and returns the first error.
type MultiAudit []AuditSink

func (m MultiAudit) WriteAudit(e AuditEntry) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.WriteAudit(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
