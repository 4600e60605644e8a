package model

import "time"

// Alert levels for the retrospective summary
const (
	AlertNormal   = "normal"
	AlertWarning  = "warning"
	AlertCritical = "critical"
)

// CapacityPeriod é o intervalo resolvido de um resumo
type CapacityPeriod struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// MemberSummary é a utilização de um engenheiro no período
type MemberSummary struct {
	UserID        int64   `json:"userId"`
	Name          string  `json:"name"`
	Role          string  `json:"role"`
	Projects      int     `json:"projects"`
	Tasks         int     `json:"tasks"`
	LoggedHours   float64 `json:"loggedHours"`
	CapacityHours float64 `json:"capacityHours"`
	Utilization   float64 `json:"utilization"`
	Alert         string  `json:"alert"`
}

// TeamTotals agrega todos os membros do resumo
type TeamTotals struct {
	CapacityHours  float64 `json:"capacityHours"`
	LoggedHours    float64 `json:"loggedHours"`
	AvgUtilization float64 `json:"avgUtilization"`
}

// SummaryResult é a resposta do motor de resumo
type SummaryResult struct {
	Period     CapacityPeriod  `json:"period"`
	TeamTotals TeamTotals      `json:"teamTotals"`
	Members    []MemberSummary `json:"members"`
}
