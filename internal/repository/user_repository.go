package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mvasiljevic/delivery-shop/internal/database"
	"github.com/mvasiljevic/delivery-shop/internal/models"
	"github.com/mvasiljevic/delivery-shop/pkg/logger"
)

// PostgresUserRepository is the Postgres-backed UserRepository.
type PostgresUserRepository struct {
	db     *database.Database
	logger logger.Logger
}

func NewUserRepository(db *database.Database, log logger.Logger) *PostgresUserRepository {
	return &PostgresUserRepository{db: db, logger: log}
}

// Create inserts the user and assigns the given role in one transaction.
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User, role string) error {
	tx, err := r.db.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	userInsert := `
		INSERT INTO users (forename, surname, email, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := tx.QueryRowContext(ctx, userInsert,
		user.Forename, user.Surname, user.Email, user.Password,
	).Scan(&user.ID); err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: email %s", ErrDuplicate, user.Email)
		}
		r.logger.Error("Failed to insert user", "error", err, "email", user.Email)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	roleInsert := `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, id FROM roles WHERE name = $2
	`
	result, err := tx.ExecContext(ctx, roleInsert, user.ID, role)
	if err != nil {
		r.logger.Error("Failed to assign role", "error", err, "email", user.Email, "role", role)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if rows, err := result.RowsAffected(); err != nil || rows == 0 {
		return fmt.Errorf("%w: unknown role %s", ErrDatabase, role)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	user.Roles = []string{role}
	return nil
}

// GetByEmail retrieves a user with its roles.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, forename, surname, email, password FROM users WHERE email = $1`

	var user models.User
	if err := r.db.DB.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("Failed to get user", "error", err, "email", email)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	roleQuery := `
		SELECT r.name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.id
	`
	if err := r.db.DB.SelectContext(ctx, &user.Roles, roleQuery, user.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return &user, nil
}

// DeleteByEmail removes the account; role assignments cascade.
func (r *PostgresUserRepository) DeleteByEmail(ctx context.Context, email string) error {
	result, err := r.db.DB.ExecContext(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		r.logger.Error("Failed to delete user", "error", err, "email", email)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
