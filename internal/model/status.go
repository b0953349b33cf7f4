package model

import "strings"

type Status string

const (
	StatusDraft        Status = "draft"
	StatusPending      Status = "pending"
	StatusInProduction Status = "in_production"
	StatusTreatment    Status = "treatment"
	StatusShipped      Status = "shipped"
	StatusDelivered    Status = "delivered"
	StatusCancelled    Status = "cancelled"
)

// InitialStatus is assigned to every header created by the submission workflow.
const InitialStatus = StatusPending

var statusAliases = map[string]Status{
	"draft":         StatusDraft,
	"rascunho":      StatusDraft,
	"pending":       StatusPending,
	"pendente":      StatusPending,
	"analise":       StatusPending,
	"in_production": StatusInProduction,
	"in-production": StatusInProduction,
	"producao":      StatusInProduction,
	"treatment":     StatusTreatment,
	"tratamento":    StatusTreatment,
	"shipped":       StatusShipped,
	"expedido":      StatusShipped,
	"delivered":     StatusDelivered,
	"entregue":      StatusDelivered,
	"cancelled":     StatusCancelled,
	"canceled":      StatusCancelled,
	"cancelado":     StatusCancelled,
}

// ParseStatus accepts canonical values as well as the legacy Portuguese
// spellings still emitted by the lab system.
func ParseStatus(s string) (Status, bool) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) Label() string {
	switch s {
	case StatusDraft:
		return "Rascunho"
	case StatusPending:
		return "Aguardando Conferência"
	case StatusInProduction:
		return "Em Produção"
	case StatusTreatment:
		return "Em Tratamento"
	case StatusShipped:
		return "Expedido"
	case StatusDelivered:
		return "Entregue"
	case StatusCancelled:
		return "Cancelado"
	default:
		return string(s)
	}
}

// OpenStatuses lists the states the lab may still move an order out of.
func OpenStatuses() []Status {
	return []Status{StatusPending, StatusInProduction, StatusTreatment, StatusShipped}
}
