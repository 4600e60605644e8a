package model

import "time"

// RoleEngineer é o único papel considerado no planejamento de capacidade
const RoleEngineer = "engineer"

// Task status values that still consume capacity
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusReview     = "review"
)

// ActiveTaskStatuses lista os status de tarefas que entram na previsão
var ActiveTaskStatuses = []string{TaskStatusTodo, TaskStatusInProgress, TaskStatusReview}

// Engineer representa um usuário ativo com papel "engineer"
type Engineer struct {
	ID        int64  `json:"id" db:"id"`
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`
	Role      string `json:"role" db:"role"`
}

// Name returns the display name used in summaries and allocations
func (e Engineer) Name() string {
	switch {
	case e.FirstName == "":
		return e.LastName
	case e.LastName == "":
		return e.FirstName
	default:
		return e.FirstName + " " + e.LastName
	}
}

// LoggedHours é a soma de horas aprovadas de um usuário no período
type LoggedHours struct {
	UserID int64   `json:"userId" db:"user_id"`
	Hours  float64 `json:"hours" db:"hours"`
}

// TaskStats contém contagem de tarefas e projetos distintos de um usuário
type TaskStats struct {
	UserID               int64 `json:"userId" db:"user_id"`
	TaskCount            int   `json:"taskCount" db:"task_count"`
	DistinctProjectCount int   `json:"distinctProjectCount" db:"project_count"`
}

// Task é uma tarefa ativa atribuída a um engenheiro.
// EstimatedHours and DueDate are nil when the column is NULL or unparseable.
type Task struct {
	ID             int64      `json:"id" db:"id"`
	AssignedTo     int64      `json:"assignedTo" db:"assigned_to"`
	ProjectID      int64      `json:"projectId" db:"project_id"`
	ProjectName    string     `json:"projectName" db:"project_name"`
	EstimatedHours *float64   `json:"estimatedHours" db:"estimated_hours"`
	DueDate        *time.Time `json:"dueDate" db:"due_date"`
	Status         string     `json:"status" db:"status"`
}
