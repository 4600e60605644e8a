package model

import "time"

// Allocation status levels, ordered by severity
const (
	StatusLight      = "light"
	StatusBalanced   = "balanced"
	StatusTight      = "tight"
	StatusOverbooked = "overbooked"
)

// ForecastWindow descreve a janela de semanas prevista
type ForecastWindow struct {
	Start        time.Time `json:"start"`
	Weeks        int       `json:"weeks"`
	WeekStartsOn int       `json:"weekStartsOn"`
}

// ProjectHours é a fatia de horas de um projeto numa alocação
type ProjectHours struct {
	Name  string  `json:"name"`
	Hours float64 `json:"hours"`
}

// Allocation é a carga prevista de um engenheiro numa semana
type Allocation struct {
	UserID      int64          `json:"userId"`
	Name        string         `json:"name"`
	Hours       float64        `json:"hours"`
	Utilization int            `json:"utilization"`
	Status      string         `json:"status"`
	TopProjects []ProjectHours `json:"topProjects,omitempty"`
}

// WeekBucket agrupa as alocações de uma semana
type WeekBucket struct {
	ID          string       `json:"id"`
	Label       string       `json:"label"`
	Start       time.Time    `json:"start"`
	End         time.Time    `json:"end"`
	Health      string       `json:"health"`
	Allocations []Allocation `json:"allocations"`
}

// ForecastResult é a resposta do motor de previsão
type ForecastResult struct {
	Window ForecastWindow `json:"window"`
	Weeks  []WeekBucket   `json:"weeks"`
}
