package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdash/internal/models"
	"gymdash/internal/observability"
	contextutils "gymdash/internal/utils"
)

var requestColumnNames = []string{
	"id", "tenant_id", "requester_id", "title", "description", "category", "priority", "status",
	"sla_deadline", "sla_met", "reviewed_at", "started_at", "completed_at", "dev_notes", "assigned_to",
	"estimated_hours", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	})
	return NewPostgresStore(db, observability.NewNopLogger()), mock
}

func expectTenantTx(mock sqlmock.Sqlmock, tenantID uuid.UUID) {
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT set_config('app.current_tenant', $1, true)")).
		WithArgs(tenantID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestPostgresStore_FindRequestByID_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	tenantID, id := uuid.New(), uuid.New()

	expectTenantTx(mock, tenantID)
	mock.ExpectQuery(`SELECT .+ FROM feature_requests WHERE tenant_id = \$1 AND id = \$2`).
		WithArgs(tenantID, id).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	r, err := s.FindRequestByID(context.Background(), tenantID, id)
	assert.Nil(t, r)
	assert.True(t, contextutils.IsError(err, contextutils.ErrRecordNotFound))
}

func TestPostgresStore_FindRequestByID_Found(t *testing.T) {
	s, mock := newMockStore(t)
	tenantID, id, requester := uuid.New(), uuid.New(), uuid.New()
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	expectTenantTx(mock, tenantID)
	mock.ExpectQuery(`SELECT .+ FROM feature_requests`).
		WithArgs(tenantID, id).
		WillReturnRows(sqlmock.NewRows(requestColumnNames).AddRow(
			id.String(), tenantID.String(), requester.String(), "Class waitlist", "Let members queue", "new_feature", "urgent", "reviewing",
			created.Add(8*time.Hour), nil, created.Add(time.Hour), nil, nil, "needs design", nil,
			nil, created, created.Add(time.Hour),
		))
	mock.ExpectCommit()

	r, err := s.FindRequestByID(context.Background(), tenantID, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReviewing, r.Status)
	assert.Equal(t, models.PriorityUrgent, r.Priority)
	assert.Equal(t, created.Add(8*time.Hour), r.SLADeadline)
	assert.True(t, r.ReviewedAt.Valid)
	assert.False(t, r.SLAMet.Valid)
	assert.Equal(t, "needs design", r.DevNotes.String)
	assert.False(t, r.AssignedTo.Valid)
}

func TestPostgresStore_QueryFailureIsDatabaseError(t *testing.T) {
	s, mock := newMockStore(t)
	tenantID, id := uuid.New(), uuid.New()

	expectTenantTx(mock, tenantID)
	mock.ExpectQuery(`SELECT .+ FROM feature_requests`).WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	_, err := s.FindRequestByID(context.Background(), tenantID, id)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeDatabaseQuery, contextutils.GetErrorCode(err))
}

func TestPostgresStore_InsertComment_ForeignRequest(t *testing.T) {
	s, mock := newMockStore(t)
	tenantID := uuid.New()
	c := &models.Comment{ID: uuid.New(), RequestID: uuid.New(), AuthorID: uuid.New(), AuthorRole: models.RoleMember, Content: "hi"}

	expectTenantTx(mock, tenantID)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(tenantID, c.RequestID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := s.InsertComment(context.Background(), tenantID, c)
	assert.True(t, contextutils.IsError(err, contextutils.ErrRecordNotFound))
}

func TestPostgresStore_InsertComment_StampsTenant(t *testing.T) {
	s, mock := newMockStore(t)
	tenantID := uuid.New()
	c := &models.Comment{
		ID: uuid.New(), RequestID: uuid.New(), TenantID: uuid.New(), AuthorID: uuid.New(),
		AuthorRole: models.RoleStaff, Content: "on it", IsInternal: true, CreatedAt: time.Now().UTC(),
	}

	expectTenantTx(mock, tenantID)
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(`INSERT INTO request_comments`).
		WithArgs(c.ID, c.RequestID, tenantID, c.AuthorID, models.RoleStaff, "on it", true, c.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.InsertComment(context.Background(), tenantID, c))
	assert.Equal(t, tenantID, c.TenantID)
}

func TestPostgresStore_UpdateRequest_ClearCompletion(t *testing.T) {
	s, mock := newMockStore(t)
	tenantID, id := uuid.New(), uuid.New()
	now := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	status := models.StatusInProgress

	expectTenantTx(mock, tenantID)
	mock.ExpectQuery(regexp.QuoteMeta(
		`UPDATE feature_requests SET status = $1, sla_met = NULL, completed_at = NULL, updated_at = $2 WHERE tenant_id = $3 AND id = $4 RETURNING`)).
		WithArgs(status, now, tenantID, id).
		WillReturnRows(sqlmock.NewRows(requestColumnNames).AddRow(
			id.String(), tenantID.String(), uuid.NewString(), "t", "d", "design", "normal", "in_progress",
			now, nil, now, now, nil, nil, nil, nil, now, now,
		))
	mock.ExpectCommit()

	r, err := s.UpdateRequest(context.Background(), tenantID, id, models.FeatureRequestPatch{
		Status: &status, ClearCompletion: true, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.False(t, r.CompletedAt.Valid)
	assert.False(t, r.SLAMet.Valid)
}

func TestPostgresStore_FindRequestsByTenant_Pagination(t *testing.T) {
	s, mock := newMockStore(t)
	tenantID := uuid.New()
	status := models.StatusPending

	expectTenantTx(mock, tenantID)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM feature_requests WHERE tenant_id = $1 AND status = $2`)).
		WithArgs(tenantID, status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`ORDER BY created_at DESC, id LIMIT \$3 OFFSET \$4`).
		WithArgs(tenantID, status, 5, 5).
		WillReturnRows(sqlmock.NewRows(requestColumnNames))
	mock.ExpectCommit()

	page, total, err := s.FindRequestsByTenant(context.Background(), tenantID, models.FeatureRequestFilter{
		Status: &status, Limit: 5, Offset: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Empty(t, page)
	assert.NotNil(t, page)
}

func TestPatchAssignments(t *testing.T) {
	met := true
	done := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	notes := "shipped"

	t.Run("set wins over clear", func(t *testing.T) {
		sets, args := patchAssignments(models.FeatureRequestPatch{SLAMet: &met, CompletedAt: &done, ClearCompletion: true})
		assert.Equal(t, []string{"sla_met = $1", "completed_at = $2", "updated_at = now()"}, sets)
		assert.Equal(t, []interface{}{true, done}, args)
	})

	t.Run("staff fields only", func(t *testing.T) {
		sets, args := patchAssignments(models.FeatureRequestPatch{DevNotes: &notes, UpdatedAt: done})
		assert.Equal(t, []string{"dev_notes = $1", "updated_at = $2"}, sets)
		assert.Equal(t, []interface{}{"shipped", done}, args)
	})
}

func TestFilterConditions(t *testing.T) {
	tenantID := uuid.New()
	category := models.CategoryIntegration
	where, args := filterConditions(tenantID, models.FeatureRequestFilter{Category: &category, Search: "50%_off"})

	assert.Equal(t, "tenant_id = $1 AND category = $2 AND (title ILIKE $3 OR description ILIKE $3)", where)
	assert.Equal(t, []interface{}{tenantID, category, `%50\%\_off%`}, args)
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError(nil, "op"))
	assert.True(t, contextutils.IsError(mapError(sql.ErrNoRows, "op"), contextutils.ErrRecordNotFound))
	assert.True(t, contextutils.IsError(mapError(&pq.Error{Code: "23505"}, "op"), contextutils.ErrRecordExists))
	assert.True(t, contextutils.IsError(mapError(&pq.Error{Code: "23503"}, "op"), contextutils.ErrForeignKeyViolation))
	assert.True(t, contextutils.IsError(mapError(errors.New("boom"), "op"), contextutils.ErrDatabaseQuery))

	already := contextutils.NewValidationError("title", "required")
	assert.Same(t, already, mapError(already, "op"))
}
