package budget

import "fmt"

type Status string

const (
	StatusDraft    Status = "rascunho"
	StatusSent     Status = "enviado"
	StatusApproved Status = "aprovado"
	StatusRejected Status = "recusado"
	StatusExpired  Status = "expirado"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected, StatusExpired:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusDraft:    {StatusSent: true},
	StatusSent:     {StatusApproved: true, StatusRejected: true, StatusExpired: true, StatusDraft: true},
	StatusRejected: {StatusDraft: true},
	StatusExpired:  {StatusDraft: true},
	StatusApproved: {},
}

func CanTransition(from, to Status) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// Editable reports whether items and payment plan may still change.
func (s Status) Editable() bool {
	return s != StatusApproved
}
