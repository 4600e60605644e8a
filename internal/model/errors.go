package model

import "errors"

var (
	// ErrInvalidUserID indica que o parâmetro userId não é numérico
	ErrInvalidUserID = errors.New("userId inválido")

	// ErrInvalidCapacity indica configuração de capacidade inconsistente
	ErrInvalidCapacity = errors.New("configuração de capacidade inválida")

	// ErrSourceUnavailable indica que a fonte de dados não foi configurada
	ErrSourceUnavailable = errors.New("fonte de dados de capacidade indisponível")
)
