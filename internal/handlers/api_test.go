package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gymdash/internal/config"
	"gymdash/internal/models"
	"gymdash/internal/observability"
	"gymdash/internal/serviceinterfaces"
	"gymdash/internal/services"
	"gymdash/internal/sla"
	"gymdash/internal/store"
	contextutils "gymdash/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct-horse"

type stubTracker struct {
	enabled bool
	created []uuid.UUID
}

func (s *stubTracker) IsEnabled() bool { return s.enabled }

func (s *stubTracker) CreateIssue(_ context.Context, r *models.FeatureRequest) (*models.IssueRef, error) {
	s.created = append(s.created, r.ID)
	return &models.IssueRef{ID: "issue-1", Identifier: "PRD-7", URL: "https://linear.app/gym/issue/PRD-7"}, nil
}

type FeatureRequestAPITestSuite struct {
	suite.Suite
	cfg     *config.Config
	store   *store.MemoryStore
	tracker *stubTracker
	router  *gin.Engine

	tenantA, tenantB *models.Tenant
	staff            []*http.Cookie
	ownerA           []*http.Cookie
	memberA          []*http.Cookie
	ownerB           []*http.Cookie
}

func TestFeatureRequestAPITestSuite(t *testing.T) {
	suite.Run(t, new(FeatureRequestAPITestSuite))
}

func (s *FeatureRequestAPITestSuite) SetupTest() {
	ctx := context.Background()
	logger := observability.NewNopLogger()
	s.cfg = &config.Config{
		Server: config.ServerConfig{SessionSecret: "test-secret-test-secret-test-secret"},
		IsTest: true,
	}
	s.store = store.NewMemoryStore()
	s.tracker = &stubTracker{}

	users := services.NewUserService(s.store, logger).WithBcryptCost(bcrypt.MinCost)
	var err error
	s.tenantA, err = users.CreateTenant(ctx, models.CreateTenantInput{Name: "Iron Temple"})
	s.Require().NoError(err)
	s.tenantB, err = users.CreateTenant(ctx, models.CreateTenantInput{Name: "Pulse Fitness"})
	s.Require().NoError(err)

	mkUser := func(username string, role models.Role, tenant *models.Tenant) {
		in := models.CreateUserInput{Username: username, Password: testPassword, Role: string(role)}
		if tenant != nil {
			in.TenantID = &tenant.ID
		}
		_, err := users.CreateUser(ctx, in)
		s.Require().NoError(err)
	}
	mkUser("staffer", models.RoleStaff, nil)
	mkUser("owner-a", models.RoleGymOwner, s.tenantA)
	mkUser("member-a", models.RoleMember, s.tenantA)
	mkUser("owner-b", models.RoleGymOwner, s.tenantB)

	requests := services.NewFeatureRequestService(s.store, s.store, sla.DefaultPolicy(), nil, nil, logger)
	s.router = NewRouter(s.cfg, users, requests, s.tracker, logger)

	s.staff = s.login("staffer")
	s.ownerA = s.login("owner-a")
	s.memberA = s.login("member-a")
	s.ownerB = s.login("owner-b")
}

func (s *FeatureRequestAPITestSuite) do(method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *FeatureRequestAPITestSuite) decode(w *httptest.ResponseRecorder, out interface{}) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (s *FeatureRequestAPITestSuite) login(username string) []*http.Cookie {
	w := s.do("POST", "/v1/auth/login", models.LoginRequest{Username: username, Password: testPassword}, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	s.Require().NotEmpty(cookies)
	return cookies
}

func (s *FeatureRequestAPITestSuite) createRequest(cookies []*http.Cookie, priority string) uuid.UUID {
	w := s.do("POST", "/v1/feature-requests", models.CreateRequestInput{
		Title:       "Class waitlist",
		Description: "Let members join a waitlist for full classes",
		Category:    "new_feature",
		Priority:    priority,
	}, cookies)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var body struct {
		Request models.FeatureRequest `json:"request"`
	}
	s.decode(w, &body)
	return body.Request.ID
}

func (s *FeatureRequestAPITestSuite) adminPath(tenant *models.Tenant, id uuid.UUID, suffix string) string {
	return "/v1/admin/tenants/" + tenant.ID.String() + "/feature-requests/" + id.String() + suffix
}

func (s *FeatureRequestAPITestSuite) TestHealthAndVersion() {
	w := s.do("GET", "/health", nil, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do("GET", "/v1/version", nil, nil)
	s.Equal(http.StatusOK, w.Code)
	var body map[string]string
	s.decode(w, &body)
	s.Equal("gymdash", body["service"])
}

func (s *FeatureRequestAPITestSuite) TestLogin() {
	w := s.do("POST", "/v1/auth/login", models.LoginRequest{Username: "owner-a", Password: "wrong-password"}, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	var errBody map[string]interface{}
	s.decode(w, &errBody)
	s.Equal("INVALID_CREDENTIALS", errBody["code"])

	w = s.do("POST", "/v1/auth/login", map[string]string{"username": "owner-a"}, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do("GET", "/v1/auth/status", nil, s.ownerA)
	s.Equal(http.StatusOK, w.Code)
	var status struct {
		Authenticated bool        `json:"authenticated"`
		User          models.User `json:"user"`
	}
	s.decode(w, &status)
	s.True(status.Authenticated)
	s.Equal("owner-a", status.User.Username)

	w = s.do("GET", "/v1/auth/status", nil, nil)
	s.decode(w, &status)
	s.False(status.Authenticated)
}

func (s *FeatureRequestAPITestSuite) TestLogoutEndsSession() {
	w := s.do("POST", "/v1/auth/logout", nil, s.ownerA)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do("GET", "/v1/feature-requests", nil, w.Result().Cookies())
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *FeatureRequestAPITestSuite) TestRoleGates() {
	s.Equal(http.StatusUnauthorized, s.do("GET", "/v1/feature-requests", nil, nil).Code)

	w := s.do("GET", "/v1/feature-requests", nil, s.staff)
	s.Equal(http.StatusForbidden, w.Code)
	var body map[string]interface{}
	s.decode(w, &body)
	s.Equal("not permitted", body["error"])

	id := s.createRequest(s.ownerA, "")
	w = s.do("POST", s.adminPath(s.tenantA, id, "/transition"), TransitionInput{Status: "reviewing"}, s.ownerA)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *FeatureRequestAPITestSuite) TestCreateValidation() {
	w := s.do("POST", "/v1/feature-requests", models.CreateRequestInput{
		Title: "Waitlist", Description: "desc", Category: "spaceship",
	}, s.ownerA)
	s.Equal(http.StatusBadRequest, w.Code)
	var body map[string]interface{}
	s.decode(w, &body)
	s.Equal("category", body["field"])

	w = s.do("POST", "/v1/feature-requests", models.CreateRequestInput{
		Description: "desc", Category: "design",
	}, s.ownerA)
	s.Equal(http.StatusBadRequest, w.Code)
	s.decode(w, &body)
	s.Equal("title", body["field"])

	w = s.do("POST", "/v1/feature-requests", models.CreateRequestInput{
		Title: "Waitlist", Description: "desc", Category: "design", Priority: "asap",
	}, s.ownerA)
	s.Equal(http.StatusBadRequest, w.Code)
	s.decode(w, &body)
	s.Equal("priority", body["field"])
}

func (s *FeatureRequestAPITestSuite) TestLifecycleOverHTTP() {
	id := s.createRequest(s.ownerA, "urgent")

	w := s.do("POST", s.adminPath(s.tenantA, id, "/transition"), TransitionInput{Status: "reviewing"}, s.staff)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do("POST", s.adminPath(s.tenantA, id, "/transition"), TransitionInput{Status: "completed"}, s.staff)
	s.Equal(http.StatusConflict, w.Code)
	var conflict map[string]interface{}
	s.decode(w, &conflict)
	s.Equal("INVALID_TRANSITION", conflict["code"])
	s.Equal("reviewing", conflict["current_status"])

	w = s.do("POST", s.adminPath(s.tenantA, id, "/transition"), TransitionInput{Status: "shipped"}, s.staff)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do("POST", s.adminPath(s.tenantA, id, "/transition"), TransitionInput{Status: "in_progress"}, s.staff)
	s.Require().Equal(http.StatusOK, w.Code)
	w = s.do("POST", s.adminPath(s.tenantA, id, "/transition"), TransitionInput{Status: "completed"}, s.staff)
	s.Require().Equal(http.StatusOK, w.Code)
	var done struct {
		Request models.FeatureRequest `json:"request"`
	}
	s.decode(w, &done)
	s.Equal(models.StatusCompleted, done.Request.Status)
	s.True(done.Request.SLAMet.Valid)
	s.True(done.Request.SLAMet.Bool)

	w = s.do("GET", s.adminPath(s.tenantA, id, "/history"), nil, s.staff)
	s.Require().Equal(http.StatusOK, w.Code)
	var history struct {
		Events []models.StatusEvent `json:"events"`
	}
	s.decode(w, &history)
	s.Len(history.Events, 3)
}

func (s *FeatureRequestAPITestSuite) TestInternalCommentsHiddenFromTenant() {
	id := s.createRequest(s.ownerA, "")

	w := s.do("POST", s.adminPath(s.tenantA, id, "/comments"), CommentInput{Content: "needs billing work", IsInternal: true}, s.staff)
	s.Require().Equal(http.StatusCreated, w.Code)
	w = s.do("POST", s.adminPath(s.tenantA, id, "/comments"), CommentInput{Content: "we are on it"}, s.staff)
	s.Require().Equal(http.StatusCreated, w.Code)

	// A tenant user asking for an internal comment gets a public one.
	w = s.do("POST", "/v1/feature-requests/"+id.String()+"/comments", CommentInput{Content: "thanks", IsInternal: true}, s.memberA)
	s.Require().Equal(http.StatusCreated, w.Code)
	var own models.Comment
	s.decode(w, &own)
	s.False(own.IsInternal)

	w = s.do("GET", "/v1/feature-requests/"+id.String(), nil, s.ownerA)
	s.Require().Equal(http.StatusOK, w.Code)
	var view models.FeatureRequestView
	s.decode(w, &view)
	s.Len(view.Comments, 3)
	for _, c := range view.Comments {
		s.False(c.IsInternal)
		s.NotContains(c.Content, "billing")
	}

	w = s.do("GET", "/v1/feature-requests/"+id.String()+"/comments", nil, s.ownerA)
	s.Require().Equal(http.StatusOK, w.Code)
	var listed struct {
		Comments []models.Comment `json:"comments"`
	}
	s.decode(w, &listed)
	s.Len(listed.Comments, 3)

	w = s.do("GET", s.adminPath(s.tenantA, id, ""), nil, s.staff)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &view)
	s.Len(view.Comments, 4)
}

func (s *FeatureRequestAPITestSuite) TestTenantIsolation() {
	id := s.createRequest(s.ownerA, "")

	foreign := s.do("GET", "/v1/feature-requests/"+id.String(), nil, s.ownerB)
	absent := s.do("GET", "/v1/feature-requests/"+uuid.NewString(), nil, s.ownerB)
	malformed := s.do("GET", "/v1/feature-requests/not-an-id", nil, s.ownerB)

	s.Equal(http.StatusNotFound, foreign.Code)
	s.Equal(http.StatusNotFound, absent.Code)
	s.Equal(http.StatusNotFound, malformed.Code)
	s.JSONEq(absent.Body.String(), foreign.Body.String())

	w := s.do("POST", "/v1/feature-requests/"+id.String()+"/comments", CommentInput{Content: "hi"}, s.ownerB)
	s.Equal(http.StatusNotFound, w.Code)

	// Staff naming the wrong tenant get the same answer.
	w = s.do("POST", s.adminPath(s.tenantB, id, "/transition"), TransitionInput{Status: "reviewing"}, s.staff)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do("GET", "/v1/feature-requests", nil, s.ownerB)
	s.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Requests   []models.FeatureRequestSummary `json:"requests"`
		Pagination Pagination                     `json:"pagination"`
	}
	s.decode(w, &list)
	s.Empty(list.Requests)
	s.Equal(0, list.Pagination.Total)
}

func (s *FeatureRequestAPITestSuite) TestListFiltersAndPagination() {
	s.createRequest(s.ownerA, "urgent")
	s.createRequest(s.ownerA, "")
	s.createRequest(s.memberA, "")

	var list struct {
		Requests   []models.FeatureRequestSummary `json:"requests"`
		Pagination Pagination                     `json:"pagination"`
	}
	w := s.do("GET", "/v1/feature-requests?priority=urgent", nil, s.memberA)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &list)
	s.Equal(1, list.Pagination.Total)

	w = s.do("GET", "/v1/feature-requests?mine=true", nil, s.memberA)
	s.decode(w, &list)
	s.Equal(1, list.Pagination.Total)

	w = s.do("GET", "/v1/feature-requests?limit=2", nil, s.memberA)
	s.decode(w, &list)
	s.Len(list.Requests, 2)
	s.Equal(3, list.Pagination.Total)
	s.Equal(2, list.Pagination.Limit)
	s.Equal(models.SLALabelOnTrack, list.Requests[0].SLAStatus)

	w = s.do("GET", "/v1/feature-requests?status=lost", nil, s.memberA)
	s.Equal(http.StatusBadRequest, w.Code)
	var errBody map[string]interface{}
	s.decode(w, &errBody)
	s.Equal("status", errBody["field"])

	w = s.do("GET", "/v1/admin/tenants/"+s.tenantA.ID.String()+"/feature-requests?category=new_feature", nil, s.staff)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &list)
	s.Equal(3, list.Pagination.Total)
}

func (s *FeatureRequestAPITestSuite) TestOverrideAndStaffFields() {
	id := s.createRequest(s.ownerA, "")

	w := s.do("POST", s.adminPath(s.tenantA, id, "/override"), OverrideInput{Status: "completed"}, s.staff)
	s.Equal(http.StatusBadRequest, w.Code)
	var errBody map[string]interface{}
	s.decode(w, &errBody)
	s.Equal("reason", errBody["field"])

	w = s.do("POST", s.adminPath(s.tenantA, id, "/override"), OverrideInput{Status: "completed", Reason: "shipped by hand"}, s.staff)
	s.Require().Equal(http.StatusOK, w.Code)

	hours := 6.5
	notes := "done in sprint 12"
	w = s.do("PATCH", s.adminPath(s.tenantA, id, ""), models.StaffFieldsInput{DevNotes: &notes, EstimatedHours: &hours}, s.staff)
	s.Require().Equal(http.StatusOK, w.Code)
	var updated struct {
		Request models.FeatureRequest `json:"request"`
	}
	s.decode(w, &updated)
	s.Equal(models.StatusCompleted, updated.Request.Status)
	s.Equal(notes, updated.Request.DevNotes.String)
	s.InDelta(hours, updated.Request.EstimatedHours.Float64, 0.001)
}

func (s *FeatureRequestAPITestSuite) TestAttachments() {
	id := s.createRequest(s.ownerA, "")
	path := "/v1/feature-requests/" + id.String() + "/attachments"

	w := s.do("POST", path, models.AttachmentInput{FileURL: "not a url", FileName: "mock.png"}, s.ownerA)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do("POST", path, models.AttachmentInput{
		FileURL: "https://files.example.com/mock.png", FileName: "mock.png", FileSize: 2048, MimeType: "image/png",
	}, s.ownerA)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do("GET", path, nil, s.memberA)
	s.Require().Equal(http.StatusOK, w.Code)
	var body struct {
		Attachments []models.Attachment `json:"attachments"`
	}
	s.decode(w, &body)
	s.Require().Len(body.Attachments, 1)
	s.Equal("mock.png", body.Attachments[0].FileName)
}

func (s *FeatureRequestAPITestSuite) TestSLAReport() {
	s.createRequest(s.ownerA, "")
	s.createRequest(s.ownerA, "urgent")
	s.createRequest(s.ownerB, "")

	w := s.do("GET", "/v1/feature-requests/sla-report", nil, s.ownerA)
	s.Require().Equal(http.StatusOK, w.Code)
	var report models.SLAReport
	s.decode(w, &report)
	s.Equal(s.tenantA.ID, report.TenantID)
	s.Equal(2, report.Total)
	s.Equal(2, report.Counts[models.SLALabelOnTrack])
}

func (s *FeatureRequestAPITestSuite) TestLinearIssueExport() {
	id := s.createRequest(s.ownerA, "")

	w := s.do("POST", s.adminPath(s.tenantA, id, "/linear-issue"), nil, s.staff)
	s.Equal(http.StatusServiceUnavailable, w.Code)
	var errBody map[string]interface{}
	s.decode(w, &errBody)
	s.Equal(genericServerMessage, errBody["error"])

	s.tracker.enabled = true
	w = s.do("POST", s.adminPath(s.tenantA, id, "/linear-issue"), nil, s.staff)
	s.Require().Equal(http.StatusCreated, w.Code)
	var issue models.IssueRef
	s.decode(w, &issue)
	s.Equal("PRD-7", issue.Identifier)
	s.Equal([]uuid.UUID{id}, s.tracker.created)

	w = s.do("POST", s.adminPath(s.tenantB, id, "/linear-issue"), nil, s.staff)
	s.Equal(http.StatusNotFound, w.Code)
}

// failingRequestService fails selected calls and delegates the rest.
type failingRequestService struct {
	serviceinterfaces.FeatureRequestService
	createErr error
	listErr   error
}

func (f *failingRequestService) CreateRequest(ctx context.Context, tenantID, requesterID uuid.UUID, in models.CreateRequestInput) (*models.FeatureRequest, error) {
	r, err := f.FeatureRequestService.CreateRequest(ctx, tenantID, requesterID, in)
	if err != nil {
		return nil, err
	}
	if f.createErr != nil {
		return r, f.createErr
	}
	return r, nil
}

func (f *failingRequestService) ListRequests(ctx context.Context, tenantID uuid.UUID, filter models.FeatureRequestFilter) ([]models.FeatureRequestSummary, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.FeatureRequestService.ListRequests(ctx, tenantID, filter)
}

func (s *FeatureRequestAPITestSuite) routerWith(svc serviceinterfaces.FeatureRequestService) {
	users := services.NewUserService(s.store, observability.NewNopLogger())
	s.router = NewRouter(s.cfg, users, svc, s.tracker, observability.NewNopLogger())
}

func (s *FeatureRequestAPITestSuite) TestPartialFailureIsCreatedWithWarning() {
	inner := services.NewFeatureRequestService(s.store, s.store, sla.DefaultPolicy(), nil, nil, nil)
	s.routerWith(&failingRequestService{
		FeatureRequestService: inner,
		createErr: contextutils.NewAppError(contextutils.ErrorCodePartialFailure, contextutils.SeverityWarn,
			"request created but its submission comment could not be saved", ""),
	})

	w := s.do("POST", "/v1/feature-requests", models.CreateRequestInput{
		Title: "Waitlist", Description: "desc", Category: "design",
	}, s.ownerA)

	s.Require().Equal(http.StatusCreated, w.Code)
	var body struct {
		Request models.FeatureRequest `json:"request"`
		Warning map[string]string     `json:"warning"`
	}
	s.decode(w, &body)
	s.Equal(models.StatusPending, body.Request.Status)
	s.Equal("PARTIAL_FAILURE", body.Warning["code"])
}

func (s *FeatureRequestAPITestSuite) TestStoreFailureIsGeneric() {
	inner := services.NewFeatureRequestService(s.store, s.store, sla.DefaultPolicy(), nil, nil, nil)
	s.routerWith(&failingRequestService{
		FeatureRequestService: inner,
		listErr: contextutils.WrapError(
			contextutils.NewAppError(contextutils.ErrorCodeDatabaseQuery, contextutils.SeverityError, "select failed", "connection reset by peer"),
			"failed to list feature requests",
		),
	})

	w := s.do("GET", "/v1/feature-requests", nil, s.ownerA)

	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "connection reset")
	var body map[string]interface{}
	s.decode(w, &body)
	s.Equal(genericServerMessage, body["error"])
}

func TestNewRouter_DebugExposesRouteListing(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{SessionSecret: "secret", Debug: true}}
	router := NewRouter(cfg, nil, nil, nil, nil)
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/?json=true", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var routes []RouteInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &routes))
	require.NotEmpty(t, routes)
}

func (s *FeatureRequestAPITestSuite) TestStaffProvisionsTenantAndUser() {
	w := s.do("POST", "/v1/admin/tenants", models.CreateTenantInput{Name: "Barbell Club"}, s.ownerA)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do("POST", "/v1/admin/tenants", models.CreateTenantInput{Name: "Barbell Club"}, s.staff)
	s.Require().Equal(http.StatusCreated, w.Code)
	var tenant models.Tenant
	s.decode(w, &tenant)

	w = s.do("POST", "/v1/admin/users", models.CreateUserInput{
		Username: "owner-c", Password: testPassword, Role: "gym_owner", TenantID: &tenant.ID,
	}, s.staff)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do("POST", "/v1/admin/users", models.CreateUserInput{
		Username: "owner-c", Password: testPassword, Role: "gym_owner", TenantID: &tenant.ID,
	}, s.staff)
	s.Equal(http.StatusConflict, w.Code)

	w = s.do("POST", "/v1/admin/users", models.CreateUserInput{
		Username: "floating", Password: testPassword, Role: "member",
	}, s.staff)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do("GET", "/v1/admin/tenants", nil, s.staff)
	s.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Tenants []models.Tenant `json:"tenants"`
	}
	s.decode(w, &list)
	s.Len(list.Tenants, 3)

	s.NotEmpty(s.login("owner-c"))
}
