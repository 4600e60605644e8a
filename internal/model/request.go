package model

// SummaryQuery contém os parâmetros opcionais do resumo de capacidade.
// Datas são mantidas como texto: valores inválidos viram o mês corrente.
type SummaryQuery struct {
	From   string
	To     string
	UserID *int64
}

// ForecastQuery contém os parâmetros opcionais da previsão de carga
type ForecastQuery struct {
	Start             string
	Weeks             *int
	UserID            *int64
	IncludeProjectMix bool
}

// Response representa a resposta padrão da API
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// ErrorResponse representa uma resposta de erro
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
