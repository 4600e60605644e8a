package migration

// getAllMigrations retorna todas as migrações disponíveis
func getAllMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users_and_projects",
			Up: `
				-- Usuários (o planejamento só lê role = 'engineer')
				CREATE TABLE IF NOT EXISTS users (
					id BIGSERIAL PRIMARY KEY,
					first_name VARCHAR(100) NOT NULL,
					last_name VARCHAR(100) NOT NULL DEFAULT '',
					email VARCHAR(255) UNIQUE,
					role VARCHAR(50) NOT NULL DEFAULT 'engineer',
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ DEFAULT NOW(),
					updated_at TIMESTAMPTZ DEFAULT NOW()
				);

				-- Projetos
				CREATE TABLE IF NOT EXISTS projects (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255),
					created_at TIMESTAMPTZ DEFAULT NOW(),
					updated_at TIMESTAMPTZ DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_users_role_active ON users(role, is_active);
			`,
			Down: `
				DROP TABLE IF EXISTS projects;
				DROP TABLE IF EXISTS users;
			`,
		},
		{
			Version: 2,
			Name:    "create_tasks",
			Up: `
				-- Tarefas com estimativa opcional
				CREATE TABLE IF NOT EXISTS tasks (
					id BIGSERIAL PRIMARY KEY,
					project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
					assigned_to BIGINT REFERENCES users(id) ON DELETE SET NULL,
					title VARCHAR(255) NOT NULL,
					estimated_hours NUMERIC(8,2),
					due_date TIMESTAMPTZ,
					status VARCHAR(50) NOT NULL DEFAULT 'todo',
					created_at TIMESTAMPTZ DEFAULT NOW(),
					updated_at TIMESTAMPTZ DEFAULT NOW(),
					CONSTRAINT chk_task_status CHECK (status IN ('todo', 'in_progress', 'review', 'done', 'cancelled'))
				);

				CREATE INDEX IF NOT EXISTS idx_tasks_assigned_status ON tasks(assigned_to, status);
			`,
			Down: `
				DROP TABLE IF EXISTS tasks;
			`,
		},
		{
			Version: 3,
			Name:    "create_time_entries",
			Up: `
				-- Apontamentos de horas
				CREATE TABLE IF NOT EXISTS time_entries (
					id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					task_id BIGINT REFERENCES tasks(id) ON DELETE SET NULL,
					start_time TIMESTAMPTZ NOT NULL,
					duration_hours NUMERIC(8,2) NOT NULL DEFAULT 0,
					status VARCHAR(50) NOT NULL DEFAULT 'pending',
					created_at TIMESTAMPTZ DEFAULT NOW(),
					updated_at TIMESTAMPTZ DEFAULT NOW(),
					CONSTRAINT chk_entry_status CHECK (status IN ('pending', 'approved', 'rejected')),
					CONSTRAINT chk_entry_duration CHECK (duration_hours >= 0)
				);

				CREATE INDEX IF NOT EXISTS idx_time_entries_user_start ON time_entries(user_id, start_time)
					WHERE status = 'approved';
			`,
			Down: `
				DROP TABLE IF EXISTS time_entries;
			`,
		},
	}
}
