package migration

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/cleberrangel/capacity-planner/internal/logger"
	_ "github.com/lib/pq"
)

// Migration representa uma migração de banco de dados
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Migrator gerencia as migrações do banco de dados
type Migrator struct {
	db         *sql.DB
	migrations []Migration
}

// NewMigrator cria um novo migrator
func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{
		db:         db,
		migrations: sortedMigrations(getAllMigrations()),
	}
}

func sortedMigrations(migrations []Migration) []Migration {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})
	return sorted
}

// Pending returns the migrations newer than currentVersion, in order
func (m *Migrator) Pending(currentVersion int) []Migration {
	var pending []Migration
	for _, mig := range m.migrations {
		if mig.Version > currentVersion {
			pending = append(pending, mig)
		}
	}
	return pending
}

// Run executa todas as migrações pendentes
func (m *Migrator) Run(ctx context.Context) error {
	log := logger.Get(ctx)

	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("erro ao criar tabela de migrações: %w", err)
	}

	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("erro ao obter versão atual: %w", err)
	}

	log.Info().Int("current_version", currentVersion).Msg("Versão atual do banco de dados")

	for _, mig := range m.Pending(currentVersion) {
		log.Info().
			Int("version", mig.Version).
			Str("name", mig.Name).
			Msg("Executando migração")

		if err := m.apply(ctx, mig.Up,
			"INSERT INTO schema_migrations (version, applied_at) VALUES ($1, NOW())", mig.Version); err != nil {
			return fmt.Errorf("erro ao executar migração %d (%s): %w", mig.Version, mig.Name, err)
		}
	}

	return nil
}

// Rollback desfaz a última migração aplicada; sem migrações é no-op
func (m *Migrator) Rollback(ctx context.Context) error {
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("erro ao criar tabela de migrações: %w", err)
	}

	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("erro ao obter versão atual: %w", err)
	}
	if currentVersion == 0 {
		return nil
	}

	for _, mig := range m.migrations {
		if mig.Version != currentVersion {
			continue
		}
		logger.Get(ctx).Warn().Int("version", mig.Version).Str("name", mig.Name).Msg("Revertendo migração")
		return m.apply(ctx, mig.Down, "DELETE FROM schema_migrations WHERE version = $1", mig.Version)
	}
	return fmt.Errorf("migração %d não encontrada", currentVersion)
}

// createMigrationsTable cria a tabela de controle de migrações
func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// CurrentVersion obtém a versão atual do banco
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	var version int
	err := m.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// apply executa o script e o registro de versão numa única transação
func (m *Migrator) apply(ctx context.Context, script, bookkeeping string, version int) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, bookkeeping, version); err != nil {
		return err
	}

	return tx.Commit()
}
