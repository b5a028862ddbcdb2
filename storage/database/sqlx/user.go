package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/user"
	"github.com/trezcool/mansa/storage/database"
)

const userColumns = `id, name, email, password_hash, role, is_active, is_blocked, is_deleted, last_login, created_at, updated_at`

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	ids := make([]string, 0, len(excludedUsers)+1)
	ids = append(ids, "00000000-0000-0000-0000-000000000000")
	for _, usr := range excludedUsers {
		ids = append(ids, usr.ID)
	}
	q, args, err := in(repo.db, `SELECT EXISTS (SELECT 1 FROM users WHERE email = ? AND id NOT IN (?))`, email, ids)
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var found bool
	if err = repo.db.GetContext(ctx, &found, q, args...); err != nil {
		return err
	}
	if found {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = newID()
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :name, :email, :password_hash, :role, :is_active, :is_blocked, :is_deleted, :last_login, :created_at, :updated_at)`,
		usr)
	if database.IsUniqueViolation(err) {
		return user.User{}, user.ErrEmailExists
	}
	return usr, err
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE NOT is_deleted`
	args := make([]interface{}, 0, 2)
	if filter.ID != "" {
		args = append(args, filter.ID)
		q += ` AND id = $1`
	}
	if filter.Email != "" {
		args = append(args, filter.Email)
		q += ` AND email = $` + itoa(len(args))
	}
	q += ` LIMIT 1`

	var usr user.User
	err := repo.db.GetContext(ctx, &usr, q, args...)
	return usr, orNotFound(err, user.ErrNotFound)
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, page core.Page) ([]user.User, int, error) {
	where := ` WHERE NOT is_deleted AND ($1 = '' OR role = $1) AND ($2 = '' OR name ILIKE $3 OR email ILIKE $3)`
	args := []interface{}{filter.Role, filter.Search, database.Like(filter.Search)}

	var total int
	if err := repo.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`+where, args...); err != nil {
		return nil, 0, err
	}
	limit, offset := limitOffset(page)
	users := make([]user.User, 0)
	err := repo.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users`+where+` ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		append(args, limit, offset)...)
	return users, total, err
}

func (repo *userRepository) QueryPendingUsers(ctx context.Context) ([]user.User, error) {
	users := make([]user.User, 0)
	err := repo.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE NOT is_active AND NOT is_deleted ORDER BY created_at DESC`)
	return users, err
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.PasswordHash == nil {
		orig, err := repo.getAny(ctx, usr.ID)
		if err != nil {
			return user.User{}, err
		}
		usr.PasswordHash = orig.PasswordHash
	}
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE users SET
			name = :name,
			email = :email,
			password_hash = :password_hash,
			role = :role,
			is_active = :is_active,
			is_blocked = :is_blocked,
			is_deleted = :is_deleted,
			last_login = :last_login,
			updated_at = :updated_at
		WHERE id = :id`,
		usr)
	if database.IsUniqueViolation(err) {
		return user.User{}, user.ErrEmailExists
	}
	if err = mustAffect(res, err, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return repo.getAny(ctx, usr.ID)
}

func (repo *userRepository) getAny(ctx context.Context, id string) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return usr, orNotFound(err, user.ErrNotFound)
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID != "" {
		if _, err := repo.getAny(ctx, usr.ID); err == nil {
			return repo.UpdateUser(ctx, usr)
		} else if errors.Cause(err) != user.ErrNotFound {
			return user.User{}, err
		}
	}
	return repo.CreateUser(ctx, usr)
}

// DeleteUser soft-deletes the user: authored content keeps its references.
func (repo *userRepository) DeleteUser(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `UPDATE users SET is_deleted = true, is_active = false WHERE id = $1`, id)
	return err
}

func (repo *userRepository) CountUsers(ctx context.Context) (user.Stats, error) {
	rows := make([]struct {
		Role    string `db:"role"`
		Total   int    `db:"total"`
		Pending int    `db:"pending"`
		Blocked int    `db:"blocked"`
	}, 0)
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT role,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE NOT is_active) AS pending,
			COUNT(*) FILTER (WHERE is_blocked) AS blocked
		FROM users WHERE NOT is_deleted
		GROUP BY role`)
	if err != nil {
		return user.Stats{}, err
	}

	stats := user.Stats{ByRole: make(map[string]int, len(user.AllRoles))}
	for _, role := range user.AllRoles {
		stats.ByRole[role] = 0
	}
	for _, r := range rows {
		stats.ByRole[r.Role] = r.Total
		stats.Total += r.Total
		stats.Pending += r.Pending
		stats.Blocked += r.Blocked
	}
	return stats, nil
}
