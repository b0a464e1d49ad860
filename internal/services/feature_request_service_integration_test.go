//go:build integration
// +build integration

package services

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gymdash/internal/database"
	"gymdash/internal/models"
	"gymdash/internal/observability"
	"gymdash/internal/sla"
	"gymdash/internal/store"
	contextutils "gymdash/internal/utils"
)

type FeatureRequestServiceIntegrationSuite struct {
	suite.Suite
	ctx     context.Context
	db      *sql.DB
	store   *store.PostgresStore
	service *FeatureRequestService
	tenant  models.Tenant
	owner   models.User
	staff   models.User
}

func TestFeatureRequestServiceIntegrationSuite(t *testing.T) {
	suite.Run(t, new(FeatureRequestServiceIntegrationSuite))
}

func (s *FeatureRequestServiceIntegrationSuite) SetupSuite() {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		s.T().Skip("TEST_DATABASE_URL not set")
	}
	cfg := database.DefaultDatabaseConfig()
	cfg.URL = url

	logger := observability.NewNopLogger()
	db, err := database.NewManager(logger).InitDB(context.Background(), cfg)
	s.Require().NoError(err)
	s.db = db
	s.store = store.NewPostgresStore(db, logger)
	s.ctx = context.Background()
}

func (s *FeatureRequestServiceIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.NoError(s.db.Close())
	}
}

func (s *FeatureRequestServiceIntegrationSuite) SetupTest() {
	_, err := s.db.Exec(`TRUNCATE request_status_events, request_attachments, request_comments, feature_requests, users, tenants CASCADE`)
	s.Require().NoError(err)

	// Sub-microsecond digits on purpose: timestamptz cannot store them.
	clock := time.Date(2024, 1, 10, 10, 0, 0, 123456789, time.UTC)
	s.service = NewFeatureRequestService(s.store, s.store, sla.DefaultPolicy(), nil, nil, nil).
		WithClock(func() time.Time { return clock })

	now := time.Now().UTC()
	s.tenant = models.Tenant{ID: uuid.New(), Name: "Iron Temple", CreatedAt: now}
	s.Require().NoError(s.store.InsertTenant(s.ctx, &s.tenant))
	s.owner = models.User{
		ID: uuid.New(), TenantID: uuid.NullUUID{UUID: s.tenant.ID, Valid: true},
		Username: "owner-" + uuid.NewString()[:8], Role: models.RoleGymOwner, CreatedAt: now, UpdatedAt: now,
	}
	s.Require().NoError(s.store.InsertUser(s.ctx, &s.owner))
	s.staff = models.User{
		ID: uuid.New(), Username: "ops-" + uuid.NewString()[:8], Role: models.RoleStaff, CreatedAt: now, UpdatedAt: now,
	}
	s.Require().NoError(s.store.InsertUser(s.ctx, &s.staff))
}

func (s *FeatureRequestServiceIntegrationSuite) create() *models.FeatureRequest {
	r, err := s.service.CreateRequest(s.ctx, s.tenant.ID, s.owner.ID, models.CreateRequestInput{
		Title: "Class waitlist", Description: "Queue for full classes", Category: "new_feature",
	})
	s.Require().NoError(err)
	return r
}

func (s *FeatureRequestServiceIntegrationSuite) TestDeadlineReadsBackUnchanged() {
	created := s.create()

	stored, err := s.store.FindRequestByID(s.ctx, s.tenant.ID, created.ID)
	s.Require().NoError(err)
	s.True(stored.SLADeadline.Equal(created.SLADeadline), "created %s, stored %s", created.SLADeadline, stored.SLADeadline)
	s.True(stored.CreatedAt.Equal(created.CreatedAt))
}

func (s *FeatureRequestServiceIntegrationSuite) TestAssigneeMustBeStaff() {
	r := s.create()
	staff := s.staff.Actor()

	owner := s.owner.ID
	_, err := s.service.UpdateStaffFields(s.ctx, s.tenant.ID, r.ID, staff, models.StaffFieldsInput{AssignedTo: &owner})
	s.True(contextutils.IsError(err, contextutils.ErrValidationFailed))

	missing := uuid.New()
	_, err = s.service.UpdateStaffFields(s.ctx, s.tenant.ID, r.ID, staff, models.StaffFieldsInput{AssignedTo: &missing})
	s.True(contextutils.IsError(err, contextutils.ErrValidationFailed))

	assignee := s.staff.ID
	updated, err := s.service.UpdateStaffFields(s.ctx, s.tenant.ID, r.ID, staff, models.StaffFieldsInput{AssignedTo: &assignee})
	s.Require().NoError(err)
	s.Equal(s.staff.ID, updated.AssignedTo.UUID)
}
