package store

import (
	"context"
	"errors"
	"fmt"

	"hours-ledger/internal/database"
	"hours-ledger/internal/model"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, role, manager_id, active, created_at`

const entryColumns = `id, owner_user_id, project_id, work_date, hours_worked, description, version, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Role,
		&u.ManagerID,
		&u.Active,
		&u.CreatedAt,
	)
	return u, err
}

func scanEntry(row pgx.Row) (model.TimeEntry, error) {
	var e model.TimeEntry
	err := row.Scan(
		&e.ID,
		&e.OwnerID,
		&e.ProjectID,
		&e.WorkDate,
		&e.Hours,
		&e.Description,
		&e.Version,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

func GetUser(ctx context.Context, db database.DB, id string) (*model.User, error) {
	row := db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("GetUser: %w", err)
	}
	return &u, nil
}

func listUsers(ctx context.Context, db database.DB, op, sql string, args ...any) ([]model.User, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

func ListUsersByManager(ctx context.Context, db database.DB, managerID string) ([]model.User, error) {
	return listUsers(ctx, db, "ListUsersByManager",
		`SELECT `+userColumns+` FROM users
		 WHERE manager_id = $1 AND role = 'employee'
		 ORDER BY id`,
		managerID,
	)
}

func ListUsersByRole(ctx context.Context, db database.DB, role model.Role) ([]model.User, error) {
	return listUsers(ctx, db, "ListUsersByRole",
		`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY id`,
		string(role),
	)
}

func UpsertUser(ctx context.Context, db database.DB, u model.User) error {
	_, err := db.Exec(ctx,
		`INSERT INTO users (id, name, role, manager_id, active)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, role = EXCLUDED.role,
		     manager_id = EXCLUDED.manager_id, active = EXCLUDED.active`,
		u.ID,
		u.Name,
		string(u.Role),
		u.ManagerID,
		u.Active,
	)
	if err != nil {
		return fmt.Errorf("UpsertUser: %w", err)
	}
	return nil
}

func GetProject(ctx context.Context, db database.DB, id string) (*model.Project, error) {
	row := db.QueryRow(ctx,
		`SELECT id, name, status FROM projects WHERE id = $1`,
		id,
	)
	p := &model.Project{}
	if err := row.Scan(&p.ID, &p.Name, &p.Status); err != nil {
		return nil, fmt.Errorf("GetProject: %w", err)
	}
	return p, nil
}

func UpsertProject(ctx context.Context, db database.DB, p model.Project) error {
	_, err := db.Exec(ctx,
		`INSERT INTO projects (id, name, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, status = EXCLUDED.status`,
		p.ID,
		p.Name,
		string(p.Status),
	)
	if err != nil {
		return fmt.Errorf("UpsertProject: %w", err)
	}
	return nil
}

func CreateEntry(ctx context.Context, db database.DB, e *model.TimeEntry) error {
	row := db.QueryRow(ctx,
		`INSERT INTO time_entries (id, owner_user_id, project_id, work_date, hours_worked, description)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING version, created_at, updated_at`,
		e.ID,
		e.OwnerID,
		e.ProjectID,
		e.WorkDate,
		e.Hours,
		e.Description,
	)
	if err := row.Scan(&e.Version, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return fmt.Errorf("CreateEntry: %w", err)
	}
	return nil
}

func GetEntry(ctx context.Context, db database.DB, id string) (*model.TimeEntry, error) {
	row := db.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE id = $1`,
		id,
	)
	e, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("GetEntry: %w", err)
	}
	return &e, nil
}

// UpdateEntry writes e only while the row still carries e.Version. A row that
// moved on (or vanished) yields model.ErrConflict.
func UpdateEntry(ctx context.Context, db database.DB, e *model.TimeEntry) error {
	row := db.QueryRow(ctx,
		`UPDATE time_entries
		 SET project_id = $1, work_date = $2, hours_worked = $3, description = $4,
		     version = version + 1, updated_at = now()
		 WHERE id = $5 AND version = $6
		 RETURNING version, updated_at`,
		e.ProjectID,
		e.WorkDate,
		e.Hours,
		e.Description,
		e.ID,
		e.Version,
	)
	if err := row.Scan(&e.Version, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("UpdateEntry: %w: entry %s is not at version %d", model.ErrConflict, e.ID, e.Version)
		}
		return fmt.Errorf("UpdateEntry: %w", err)
	}
	return nil
}

func DeleteEntry(ctx context.Context, db database.DB, id string, version int) error {
	tag, err := db.Exec(ctx,
		`DELETE FROM time_entries WHERE id = $1 AND version = $2`,
		id,
		version,
	)
	if err != nil {
		return fmt.Errorf("DeleteEntry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DeleteEntry: %w: entry %s is not at version %d", model.ErrConflict, id, version)
	}
	return nil
}

// ListEntries reads every entry of ownerIDs dated inside r in one statement.
func ListEntries(ctx context.Context, db database.DB, ownerIDs []string, r model.DateRange) ([]model.TimeEntry, error) {
	rows, err := db.Query(ctx,
		`SELECT `+entryColumns+` FROM time_entries
		 WHERE owner_user_id = ANY($1) AND work_date BETWEEN $2 AND $3
		 ORDER BY work_date, created_at, id`,
		ownerIDs,
		r.Start,
		r.End,
	)
	if err != nil {
		return nil, fmt.Errorf("ListEntries: %w", err)
	}
	defer rows.Close()

	var list []model.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("ListEntries: %w", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListEntries: %w", err)
	}
	return list, nil
}

// Postgres adapts the query functions to Store.
type Postgres struct {
	db database.DB
}

func NewPostgres(db database.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := GetUser(ctx, p.db, id)
	return u, classify("postgres", err)
}

func (p *Postgres) ListUsersByManager(ctx context.Context, managerID string) ([]model.User, error) {
	users, err := ListUsersByManager(ctx, p.db, managerID)
	return users, classify("postgres", err)
}

func (p *Postgres) ListUsersByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	users, err := ListUsersByRole(ctx, p.db, role)
	return users, classify("postgres", err)
}

func (p *Postgres) GetProject(ctx context.Context, id string) (*model.Project, error) {
	proj, err := GetProject(ctx, p.db, id)
	return proj, classify("postgres", err)
}

func (p *Postgres) CreateEntry(ctx context.Context, e model.TimeEntry) (model.TimeEntry, error) {
	if err := CreateEntry(ctx, p.db, &e); err != nil {
		return model.TimeEntry{}, classify("postgres", err)
	}
	return e, nil
}

func (p *Postgres) GetEntry(ctx context.Context, id string) (model.TimeEntry, error) {
	e, err := GetEntry(ctx, p.db, id)
	if err != nil {
		return model.TimeEntry{}, classify("postgres", err)
	}
	return *e, nil
}

func (p *Postgres) UpdateEntry(ctx context.Context, e model.TimeEntry) (model.TimeEntry, error) {
	if err := UpdateEntry(ctx, p.db, &e); err != nil {
		return model.TimeEntry{}, classify("postgres", err)
	}
	return e, nil
}

func (p *Postgres) DeleteEntry(ctx context.Context, id string, version int) error {
	return classify("postgres", DeleteEntry(ctx, p.db, id, version))
}

func (p *Postgres) ListEntries(ctx context.Context, ownerIDs []string, r model.DateRange) ([]model.TimeEntry, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	list, err := ListEntries(ctx, p.db, ownerIDs, r)
	return list, classify("postgres", err)
}

func (p *Postgres) PutUser(ctx context.Context, u model.User) error {
	return classify("postgres", UpsertUser(ctx, p.db, u))
}

func (p *Postgres) PutProject(ctx context.Context, proj model.Project) error {
	return classify("postgres", UpsertProject(ctx, p.db, proj))
}

func (p *Postgres) Ping(ctx context.Context) error {
	return classify("postgres", p.db.Ping(ctx))
}
