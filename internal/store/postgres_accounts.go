package store

import (
	"context"

	"github.com/google/uuid"

	"gymdash/internal/models"
	"gymdash/internal/observability"
)

const userColumns = `id, tenant_id, username, email, password_hash, role, created_at, updated_at`

// InsertTenant creates a tenant.
func (s *PostgresStore) InsertTenant(ctx context.Context, t *models.Tenant) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "InsertTenant", observability.AttributeTenantID(t.ID))
	defer observability.FinishSpan(span, &err)

	_, err = s.db.NamedExecContext(ctx, `INSERT INTO tenants (id, name, created_at) VALUES (:id, :name, :created_at)`, t)
	return mapError(err, "insert tenant")
}

// FindTenantByID looks up a tenant.
func (s *PostgresStore) FindTenantByID(ctx context.Context, id uuid.UUID) (result *models.Tenant, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "FindTenantByID", observability.AttributeTenantID(id))
	defer observability.FinishSpan(span, &err)

	var t models.Tenant
	if err = s.db.GetContext(ctx, &t, `SELECT id, name, created_at FROM tenants WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "find tenant")
	}
	return &t, nil
}

// ListTenants returns all tenants ordered by name.
func (s *PostgresStore) ListTenants(ctx context.Context) (result []models.Tenant, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "ListTenants")
	defer observability.FinishSpan(span, &err)

	result = []models.Tenant{}
	if err = s.db.SelectContext(ctx, &result, `SELECT id, name, created_at FROM tenants ORDER BY name, id`); err != nil {
		return nil, mapError(err, "list tenants")
	}
	return result, nil
}

// InsertUser creates a login.
func (s *PostgresStore) InsertUser(ctx context.Context, u *models.User) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "InsertUser",
		observability.AttributeUserID(u.ID),
		observability.AttributeRole(u.Role),
	)
	defer observability.FinishSpan(span, &err)

	_, err = s.db.NamedExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (:id, :tenant_id, :username, :email, :password_hash, :role, :created_at, :updated_at)`, u)
	return mapError(err, "insert user")
}

// FindUserByID looks up a login by id.
func (s *PostgresStore) FindUserByID(ctx context.Context, id uuid.UUID) (result *models.User, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "FindUserByID", observability.AttributeUserID(id))
	defer observability.FinishSpan(span, &err)

	var u models.User
	if err = s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, mapError(err, "find user")
	}
	return &u, nil
}

// FindUserByUsername looks up a login by its unique username.
func (s *PostgresStore) FindUserByUsername(ctx context.Context, username string) (result *models.User, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "FindUserByUsername")
	defer observability.FinishSpan(span, &err)

	var u models.User
	if err = s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username = $1`, username); err != nil {
		return nil, mapError(err, "find user by username")
	}
	return &u, nil
}

// FindStaffEmails returns the addresses of staff users that have one.
func (s *PostgresStore) FindStaffEmails(ctx context.Context) (result []string, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "FindStaffEmails")
	defer observability.FinishSpan(span, &err)

	result = []string{}
	err = s.db.SelectContext(ctx, &result,
		`SELECT email FROM users WHERE role = $1 AND email IS NOT NULL AND email <> '' ORDER BY email`, models.RoleStaff)
	if err != nil {
		return nil, mapError(err, "find staff emails")
	}
	return result, nil
}
