package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/avelar/dropship-store/internal/database"
	"github.com/avelar/dropship-store/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const selectUser = `
	SELECT id, first_name, last_name, email, phone, password_digest,
	       address_line1, address_line2, city, state, zip_code, country,
	       active, last_login_at, created_at, updated_at
	FROM users`

func scanUser(row rowScanner, user *models.User) error {
	var phone, line1, line2, city, state, zip, country sql.NullString
	var lastLogin sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&phone,
		&user.PasswordDigest,
		&line1,
		&line2,
		&city,
		&state,
		&zip,
		&country,
		&user.Active,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return err
	}
	user.Phone = phone.String
	user.AddressLine1 = line1.String
	user.AddressLine2 = line2.String
	user.City = city.String
	user.State = state.String
	user.ZipCode = zip.String
	user.Country = country.String
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLoginAt = &t
	}
	return nil
}

type CreateUserRequest struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
}

// CreateUser registers a user with a bcrypt password digest. The email
// is stored lower-cased so lookups stay case-insensitive.
func CreateUser(ctx context.Context, db *sql.DB, req CreateUserRequest) (*models.User, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{}

	query := `
		INSERT INTO users (first_name, last_name, email, phone, password_digest,
		                   active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		RETURNING id, first_name, last_name, email, phone, password_digest,
		          address_line1, address_line2, city, state, zip_code, country,
		          active, last_login_at, created_at, updated_at`

	err = scanUser(db.QueryRowContext(ctx, query,
		req.FirstName, req.LastName,
		strings.ToLower(strings.TrimSpace(req.Email)),
		req.Phone, string(digest)), user)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func GetUser(ctx context.Context, db *sql.DB, id int64) (*models.User, error) {
	user := &models.User{}

	err := scanUser(db.QueryRowContext(ctx, selectUser+` WHERE id = $1`, id), user)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func FindByEmail(ctx context.Context, db *sql.DB, email string) (*models.User, error) {
	user := &models.User{}

	err := scanUser(db.QueryRowContext(ctx,
		selectUser+` WHERE email = LOWER($1)`,
		strings.TrimSpace(email)), user)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	return user, nil
}

func UpdateLastLogin(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE users SET last_login_at = NOW(), updated_at = NOW() WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrUserNotFound
	}

	return nil
}

// Credentials adapts the user store to the session package's
// credential-store interface.
type Credentials struct {
	DB *sql.DB
}

func (c *Credentials) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return GetUser(ctx, c.DB, id)
}

func (c *Credentials) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return FindByEmail(ctx, c.DB, email)
}

func (c *Credentials) VerifyPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordDigest), []byte(password)) == nil
}

func (c *Credentials) UpdateLastLogin(ctx context.Context, id int64) error {
	return UpdateLastLogin(ctx, c.DB, id)
}
