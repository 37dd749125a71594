package db

import (
	"context"

	"github.com/shandysiswandi/verimail/internal/auth/entity"
)

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT id, email, first_name, last_name, email_verified, created_at, updated_at
		FROM auth_users
		WHERE email = $1`

	var u entity.User
	err = s.conn.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &u, nil
}

func (s *DB) GetUserLoginInfo(ctx context.Context, email string) (_ *entity.UserLoginInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetUserLoginInfo")
	defer func() { s.endSpan(span, err) }()

	const query = `
		SELECT u.id, u.email, u.first_name, u.last_name, c.password, u.email_verified
		FROM auth_users u
		JOIN auth_user_credentials c ON c.user_id = u.id
		WHERE u.email = $1`

	var info entity.UserLoginInfo
	err = s.conn.QueryRow(ctx, query, email).Scan(
		&info.ID, &info.Email, &info.FirstName, &info.LastName, &info.Password, &info.EmailVerified,
	)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &info, nil
}

func (s *DB) CreateUser(ctx context.Context, user entity.NewUser, passwordHash string) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	err = s.withTx(ctx, func(ctx context.Context, tx txExecutor) error {
		const insertUser = `
			INSERT INTO auth_users (id, email, first_name, last_name, email_verified)
			VALUES ($1, $2, $3, $4, FALSE)`
		if _, err := tx.Exec(ctx, insertUser, user.ID, user.Email, user.FirstName, user.LastName); err != nil {
			return s.mapError(err)
		}

		const insertCredential = `
			INSERT INTO auth_user_credentials (user_id, password)
			VALUES ($1, $2)`
		if _, err := tx.Exec(ctx, insertCredential, user.ID, passwordHash); err != nil {
			return s.mapError(err)
		}

		return nil
	})

	return err
}
