package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cleberrangel/capacity-planner/internal/logger"
	"github.com/cleberrangel/capacity-planner/internal/model"
	"github.com/lib/pq"
)

// CapacityRepository lê roster, horas apontadas e tarefas para o planejamento.
// All queries are read-only.
type CapacityRepository struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewCapacityRepository creates a new capacity repository
func NewCapacityRepository(db *sql.DB, queryTimeout time.Duration) *CapacityRepository {
	return &CapacityRepository{db: db, queryTimeout: queryTimeout}
}

func (r *CapacityRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

// FetchEngineers retorna os engenheiros ativos, opcionalmente filtrados por id
func (r *CapacityRepository) FetchEngineers(ctx context.Context, userID *int64) ([]model.Engineer, error) {
	if r.db == nil {
		return nil, model.ErrSourceUnavailable
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, first_name, last_name, role
		FROM users
		WHERE is_active = TRUE AND role = $1
	`
	args := []interface{}{model.RoleEngineer}
	if userID != nil {
		query += " AND id = $2"
		args = append(args, *userID)
	}
	query += " ORDER BY first_name, last_name, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("buscar engenheiros: %w", err)
	}
	defer rows.Close()

	var engineers []model.Engineer
	for rows.Next() {
		var e model.Engineer
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Role); err != nil {
			return nil, fmt.Errorf("ler engenheiro: %w", err)
		}
		engineers = append(engineers, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterar engenheiros: %w", err)
	}

	logger.Get(ctx).Debug().Int("engineers", len(engineers)).Msg("Roster carregado")
	return engineers, nil
}

// FetchLoggedHours soma duration_hours dos apontamentos aprovados em [from, to]
func (r *CapacityRepository) FetchLoggedHours(ctx context.Context, userIDs []int64, from, to time.Time) ([]model.LoggedHours, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT user_id, COALESCE(SUM(duration_hours), 0)::float8
		FROM time_entries
		WHERE status = 'approved'
			AND user_id = ANY($1)
			AND start_time >= $2 AND start_time <= $3
		GROUP BY user_id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(userIDs), from, to)
	if err != nil {
		return nil, fmt.Errorf("buscar horas apontadas: %w", err)
	}
	defer rows.Close()

	var result []model.LoggedHours
	for rows.Next() {
		var lh model.LoggedHours
		if err := rows.Scan(&lh.UserID, &lh.Hours); err != nil {
			return nil, fmt.Errorf("ler horas apontadas: %w", err)
		}
		result = append(result, lh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterar horas apontadas: %w", err)
	}
	return result, nil
}

// FetchTaskStats conta tarefas e projetos distintos por usuário, sem filtro de status ou data
func (r *CapacityRepository) FetchTaskStats(ctx context.Context, userIDs []int64) ([]model.TaskStats, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT assigned_to, COUNT(*), COUNT(DISTINCT project_id)
		FROM tasks
		WHERE assigned_to = ANY($1)
		GROUP BY assigned_to
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("buscar estatísticas de tarefas: %w", err)
	}
	defer rows.Close()

	var result []model.TaskStats
	for rows.Next() {
		var ts model.TaskStats
		if err := rows.Scan(&ts.UserID, &ts.TaskCount, &ts.DistinctProjectCount); err != nil {
			return nil, fmt.Errorf("ler estatísticas de tarefas: %w", err)
		}
		result = append(result, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterar estatísticas de tarefas: %w", err)
	}
	return result, nil
}

// FetchActiveTasks retorna tarefas todo/in_progress/review atribuídas aos usuários
func (r *CapacityRepository) FetchActiveTasks(ctx context.Context, userIDs []int64) ([]model.Task, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT t.id, t.assigned_to, t.project_id, p.name, t.estimated_hours::text, t.due_date, t.status
		FROM tasks t
		LEFT JOIN projects p ON p.id = t.project_id
		WHERE t.assigned_to = ANY($1)
			AND t.status = ANY($2)
		ORDER BY t.id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(userIDs), pq.Array(model.ActiveTaskStatuses))
	if err != nil {
		return nil, fmt.Errorf("buscar tarefas ativas: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var (
			task        model.Task
			projectName sql.NullString
			estimate    sql.NullString
			dueDate     sql.NullTime
		)
		if err := rows.Scan(&task.ID, &task.AssignedTo, &task.ProjectID, &projectName, &estimate, &dueDate, &task.Status); err != nil {
			return nil, fmt.Errorf("ler tarefa ativa: %w", err)
		}
		task.ProjectName = projectName.String
		task.EstimatedHours = parseEstimate(estimate)
		if dueDate.Valid {
			due := dueDate.Time
			task.DueDate = &due
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterar tarefas ativas: %w", err)
	}

	logger.Get(ctx).Debug().Int("tasks", len(tasks)).Msg("Tarefas ativas carregadas")
	return tasks, nil
}

// parseEstimate converte a coluna NUMERIC em horas; NULL ou texto inválido vira nil
func parseEstimate(raw sql.NullString) *float64 {
	if !raw.Valid {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw.String), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
