package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"gymdash/internal/models"
	"gymdash/internal/observability"
	"gymdash/internal/serviceinterfaces"
	contextutils "gymdash/internal/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceInterface defines the interface for account operations.
// This allows for easier mocking in tests.
type UserServiceInterface interface {
	CreateTenant(ctx context.Context, in models.CreateTenantInput) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]models.Tenant, error)
	CreateUser(ctx context.Context, in models.CreateUserInput) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (*models.User, error)
	EnsureStaffUser(ctx context.Context, username, password string) error
}

// UserService manages tenants and logins
type UserService struct {
	accounts serviceinterfaces.AccountStore
	logger   *observability.Logger
	cost     int
}

var _ UserServiceInterface = (*UserService)(nil)

// NewUserService creates a new UserService instance
func NewUserService(accounts serviceinterfaces.AccountStore, logger *observability.Logger) *UserService {
	return &UserService{accounts: accounts, logger: logger, cost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func (s *UserService) WithBcryptCost(cost int) *UserService {
	s.cost = cost
	return s
}

// CreateTenant creates a new gym account
func (s *UserService) CreateTenant(ctx context.Context, in models.CreateTenantInput) (result0 *models.Tenant, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "create_tenant", attribute.String("tenant.name", in.Name))
	defer observability.FinishSpan(span, &err)

	in.Name = strings.TrimSpace(in.Name)
	if err := contextutils.ValidateStruct(in); err != nil {
		return nil, err
	}

	tenant := &models.Tenant{ID: uuid.New(), Name: in.Name, CreatedAt: time.Now().UTC()}
	if err := s.accounts.InsertTenant(ctx, tenant); err != nil {
		return nil, contextutils.WrapError(err, "failed to create tenant")
	}

	s.logger.Info(ctx, "Tenant created", map[string]interface{}{
		"tenant_id": tenant.ID.String(),
		"name":      tenant.Name,
	})
	return tenant, nil
}

// ListTenants returns every tenant
func (s *UserService) ListTenants(ctx context.Context) (result0 []models.Tenant, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "list_tenants")
	defer observability.FinishSpan(span, &err)

	return s.accounts.ListTenants(ctx)
}

// CreateUser creates a login with a bcrypt password hash
func (s *UserService) CreateUser(ctx context.Context, in models.CreateUserInput) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "create_user", attribute.String("user.username", in.Username))
	defer observability.FinishSpan(span, &err)

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := contextutils.ValidateStruct(in); err != nil {
		return nil, err
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return nil, contextutils.NewValidationError("role", "role must be staff, gym_owner or member")
	}
	if role.IsStaff() && in.TenantID != nil {
		return nil, contextutils.NewValidationError("tenant_id", "staff users do not belong to a tenant")
	}
	if !role.IsStaff() && in.TenantID == nil {
		return nil, contextutils.NewValidationError("tenant_id", "tenant_id is required for tenant users")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to hash password")
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Username:     in.Username,
		PasswordHash: sql.NullString{String: string(hashedPassword), Valid: true},
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.TenantID != nil {
		user.TenantID = uuid.NullUUID{UUID: *in.TenantID, Valid: true}
	}
	if in.Email != "" {
		user.Email = sql.NullString{String: in.Email, Valid: true}
	}

	if err := s.accounts.InsertUser(ctx, user); err != nil {
		return nil, contextutils.WrapError(err, "failed to create user")
	}

	s.logger.Info(ctx, "User created", map[string]interface{}{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"role":     string(role),
		"email":    contextutils.MaskEmail(in.Email),
	})
	return user, nil
}

// GetUserByID retrieves a user by their ID
func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_id", observability.AttributeUserID(id))
	defer observability.FinishSpan(span, &err)

	return s.accounts.FindUserByID(ctx, id)
}

// AuthenticateUser verifies user credentials and returns the user if valid.
// Unknown users and wrong passwords produce the same error.
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "authenticate_user", attribute.String("user.username", username))
	defer observability.FinishSpan(span, &err)

	user, err := s.accounts.FindUserByUsername(ctx, username)
	if err != nil {
		if contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			return nil, contextutils.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.PasswordHash.Valid {
		return nil, contextutils.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(password)); err != nil {
		return nil, contextutils.ErrInvalidCredentials
	}

	return user, nil
}

// EnsureStaffUser creates a staff login unless the username is already taken.
// An existing user is left untouched, whatever its role.
func (s *UserService) EnsureStaffUser(ctx context.Context, username, password string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "ensure_staff_user", attribute.String("user.username", username))
	defer observability.FinishSpan(span, &err)

	existing, err := s.accounts.FindUserByUsername(ctx, username)
	if err == nil {
		if !existing.Role.IsStaff() {
			s.logger.Warn(ctx, "Bootstrap username belongs to a tenant user", map[string]interface{}{
				"username": username,
				"role":     string(existing.Role),
			})
		}
		return nil
	}
	if !contextutils.IsError(err, contextutils.ErrRecordNotFound) {
		return err
	}

	_, err = s.CreateUser(ctx, models.CreateUserInput{
		Username: username,
		Password: password,
		Role:     string(models.RoleStaff),
	})
	return err
}
