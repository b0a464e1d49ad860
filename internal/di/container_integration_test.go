//go:build integration
// +build integration

package di

import (
	"context"
	"os"
	"testing"

	"gymdash/internal/config"
	"gymdash/internal/database"
	"gymdash/internal/models"
	"gymdash/internal/observability"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ServiceContainerIntegrationTestSuite runs the container against a real Postgres
type ServiceContainerIntegrationTestSuite struct {
	suite.Suite
	Config    *config.Config
	Container *ServiceContainer
}

func TestServiceContainerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceContainerIntegrationTestSuite))
}

func (suite *ServiceContainerIntegrationTestSuite) SetupSuite() {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		suite.T().Skip("TEST_DATABASE_URL not set")
	}

	suite.Config = &config.Config{
		Database: database.DefaultDatabaseConfig(),
		Server:   config.ServerConfig{StaffUsername: "ops-" + uuid.NewString()[:8], StaffPassword: "bootstrap-pass"},
		IsTest:   true,
	}
	suite.Config.Database.URL = url

	suite.Container = NewServiceContainer(suite.Config, observability.NewNopLogger())
	ctx := context.Background()
	require.NoError(suite.T(), suite.Container.Initialize(ctx))
	require.NoError(suite.T(), suite.Container.EnsureStaffUser(ctx))
}

func (suite *ServiceContainerIntegrationTestSuite) TearDownSuite() {
	if suite.Container != nil {
		assert.NoError(suite.T(), suite.Container.Shutdown(context.Background()))
	}
}

func (suite *ServiceContainerIntegrationTestSuite) TestDatabaseIsReachable() {
	db := suite.Container.GetDatabase()
	require.NotNil(suite.T(), db)
	assert.NoError(suite.T(), db.PingContext(context.Background()))
}

func (suite *ServiceContainerIntegrationTestSuite) TestStaffUserWasSeeded() {
	userService, err := suite.Container.GetUserService()
	require.NoError(suite.T(), err)

	user, err := userService.AuthenticateUser(context.Background(), suite.Config.Server.StaffUsername, "bootstrap-pass")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.RoleStaff, user.Role)
}

func (suite *ServiceContainerIntegrationTestSuite) TestRequestRoundTripThroughPostgres() {
	ctx := context.Background()
	userService, err := suite.Container.GetUserService()
	require.NoError(suite.T(), err)

	tenant, err := userService.CreateTenant(ctx, models.CreateTenantInput{Name: "Container " + uuid.NewString()[:8]})
	require.NoError(suite.T(), err)
	owner, err := userService.CreateUser(ctx, models.CreateUserInput{
		Username: "owner-" + uuid.NewString()[:8], Password: "long enough", Role: "gym_owner", TenantID: &tenant.ID,
	})
	require.NoError(suite.T(), err)

	frs, err := suite.Container.GetFeatureRequestService()
	require.NoError(suite.T(), err)
	created, err := frs.CreateRequest(ctx, tenant.ID, owner.ID, models.CreateRequestInput{
		Title: "Member check-in kiosk", Description: "QR check-in at the front desk.", Category: "new_feature", Priority: "urgent",
	})
	require.NoError(suite.T(), err)

	view, err := frs.GetRequest(ctx, tenant.ID, created.ID, models.Actor{UserID: owner.ID, Role: owner.Role})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), created.ID, view.Request.ID)
}
