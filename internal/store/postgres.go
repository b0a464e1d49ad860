// Package store implements the tenant-scoped persistence contracts on Postgres and in memory.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"

	"gymdash/internal/models"
	"gymdash/internal/observability"
	"gymdash/internal/serviceinterfaces"
	contextutils "gymdash/internal/utils"
)

const requestColumns = `id, tenant_id, requester_id, title, description, category, priority, status,
	sla_deadline, sla_met, reviewed_at, started_at, completed_at, dev_notes, assigned_to,
	estimated_hours, created_at, updated_at`

const commentColumns = `id, request_id, tenant_id, author_id, author_role, content, is_internal, created_at`

const attachmentColumns = `id, request_id, tenant_id, file_url, file_name, uploaded_by, file_size, mime_type, created_at`

const statusEventColumns = `id, request_id, tenant_id, from_status, to_status, actor_id, actor_role, kind, reason, created_at`

// PostgresStore persists the feature request aggregate. Every statement runs in a
// transaction that carries app.current_tenant and filters on tenant_id explicitly.
type PostgresStore struct {
	db     *sqlx.DB
	logger *observability.Logger
}

// NewPostgresStore wraps an already-open (instrumented) connection pool.
func NewPostgresStore(db *sql.DB, logger *observability.Logger) *PostgresStore {
	return &PostgresStore{db: sqlx.NewDb(db, "postgres"), logger: logger}
}

// inTenantTx runs fn inside a transaction scoped to tenantID.
func (s *PostgresStore) inTenantTx(ctx context.Context, tenantID uuid.UUID, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return contextutils.WrapErrorf(contextutils.ErrDatabaseTransaction, "failed to begin transaction: %v", err)
	}

	if _, err := tx.ExecContext(ctx, `SELECT set_config('app.current_tenant', $1, true)`, tenantID.String()); err != nil {
		err = contextutils.WrapErrorf(contextutils.ErrDatabaseTransaction, "failed to set tenant context: %v", err)
		if rErr := tx.Rollback(); rErr != nil {
			return errors.Join(err, rErr)
		}
		return err
	}

	if err := fn(tx); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			return errors.Join(err, rErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return contextutils.WrapErrorf(contextutils.ErrDatabaseTransaction, "failed to commit transaction: %v", err)
	}
	return nil
}

// mapError converts driver errors into AppErrors. Errors that already are AppErrors pass through.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	var appErr *contextutils.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return contextutils.WrapError(contextutils.ErrRecordNotFound, op)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return contextutils.WrapErrorf(contextutils.ErrRecordExists, "%s: %s", op, pqErr.Constraint)
		case "foreign_key_violation":
			return contextutils.WrapErrorf(contextutils.ErrForeignKeyViolation, "%s: %s", op, pqErr.Constraint)
		case "check_violation", "not_null_violation":
			return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "%s: %s", op, pqErr.Constraint)
		}
	}
	return contextutils.WrapErrorf(contextutils.ErrDatabaseQuery, "%s: %v", op, err)
}

func requireRequestInTenant(ctx context.Context, tx *sqlx.Tx, tenantID, requestID uuid.UUID) error {
	var exists bool
	err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM feature_requests WHERE tenant_id = $1 AND id = $2)`, tenantID, requestID)
	if err != nil {
		return err
	}
	if !exists {
		return contextutils.WrapError(contextutils.ErrRecordNotFound, "feature request not found")
	}
	return nil
}

// InsertRequest stores a new request under tenantID.
func (s *PostgresStore) InsertRequest(ctx context.Context, tenantID uuid.UUID, r *models.FeatureRequest) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "InsertRequest",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(r.ID),
	)
	defer observability.FinishSpan(span, &err)

	r.TenantID = tenantID
	err = s.inTenantTx(ctx, tenantID, func(tx *sqlx.Tx) error {
		_, execErr := tx.NamedExecContext(ctx, `INSERT INTO feature_requests (`+requestColumns+`)
			VALUES (:id, :tenant_id, :requester_id, :title, :description, :category, :priority, :status,
				:sla_deadline, :sla_met, :reviewed_at, :started_at, :completed_at, :dev_notes, :assigned_to,
				:estimated_hours, :created_at, :updated_at)`, r)
		return execErr
	})
	return mapError(err, "insert feature request")
}

// UpdateRequest applies patch and returns the row as stored afterwards.
func (s *PostgresStore) UpdateRequest(ctx context.Context, tenantID, id uuid.UUID, patch models.FeatureRequestPatch) (result *models.FeatureRequest, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "UpdateRequest",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(id),
	)
	defer observability.FinishSpan(span, &err)

	if patch.IsEmpty() {
		return s.FindRequestByID(ctx, tenantID, id)
	}

	sets, args := patchAssignments(patch)
	args = append(args, tenantID, id)
	query := fmt.Sprintf(`UPDATE feature_requests SET %s WHERE tenant_id = $%d AND id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), requestColumns)
	span.SetAttributes(attribute.Int("update.columns", len(sets)))

	var r models.FeatureRequest
	err = s.inTenantTx(ctx, tenantID, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &r, query, args...)
	})
	if err != nil {
		return nil, mapError(err, "update feature request")
	}
	return &r, nil
}

// patchAssignments renders the SET list for patch. Positional args start at $1.
func patchAssignments(p models.FeatureRequestPatch) ([]string, []interface{}) {
	var sets []string
	var args []interface{}
	add := func(column string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Status != nil {
		add("status", *p.Status)
	}
	switch {
	case p.SLAMet != nil:
		add("sla_met", *p.SLAMet)
	case p.ClearCompletion:
		sets = append(sets, "sla_met = NULL")
	}
	switch {
	case p.CompletedAt != nil:
		add("completed_at", *p.CompletedAt)
	case p.ClearCompletion:
		sets = append(sets, "completed_at = NULL")
	}
	if p.ReviewedAt != nil {
		add("reviewed_at", *p.ReviewedAt)
	}
	if p.StartedAt != nil {
		add("started_at", *p.StartedAt)
	}
	if p.DevNotes != nil {
		add("dev_notes", *p.DevNotes)
	}
	if p.AssignedTo != nil {
		add("assigned_to", *p.AssignedTo)
	}
	if p.EstimatedHours != nil {
		add("estimated_hours", *p.EstimatedHours)
	}
	if p.UpdatedAt.IsZero() {
		sets = append(sets, "updated_at = now()")
	} else {
		add("updated_at", p.UpdatedAt)
	}
	return sets, args
}

// FindRequestByID returns RECORD_NOT_FOUND for ids that are absent or owned by another tenant.
func (s *PostgresStore) FindRequestByID(ctx context.Context, tenantID, id uuid.UUID) (result *models.FeatureRequest, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "FindRequestByID",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(id),
	)
	defer observability.FinishSpan(span, &err)

	var r models.FeatureRequest
	err = s.inTenantTx(ctx, tenantID, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &r,
			`SELECT `+requestColumns+` FROM feature_requests WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	})
	if err != nil {
		return nil, mapError(err, "find feature request")
	}
	return &r, nil
}

// FindRequestsByTenant returns the newest requests first.
func (s *PostgresStore) FindRequestsByTenant(ctx context.Context, tenantID uuid.UUID, filter models.FeatureRequestFilter) (result []models.FeatureRequest, total int, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "FindRequestsByTenant",
		observability.AttributeTenantID(tenantID),
		observability.AttributeLimit(filter.Limit),
		observability.AttributeOffset(filter.Offset),
	)
	defer observability.FinishSpan(span, &err)

	where, args := filterConditions(tenantID, filter)
	countQuery := `SELECT COUNT(*) FROM feature_requests WHERE ` + where
	pageQuery := `SELECT ` + requestColumns + ` FROM feature_requests WHERE ` + where + ` ORDER BY created_at DESC, id`
	pageArgs := args
	if filter.Limit > 0 {
		pageArgs = append(pageArgs, filter.Limit)
		pageQuery += fmt.Sprintf(" LIMIT $%d", len(pageArgs))
	}
	if filter.Offset > 0 {
		pageArgs = append(pageArgs, filter.Offset)
		pageQuery += fmt.Sprintf(" OFFSET $%d", len(pageArgs))
	}

	result = []models.FeatureRequest{}
	err = s.inTenantTx(ctx, tenantID, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &total, countQuery, args...); err != nil {
			return err
		}
		return tx.SelectContext(ctx, &result, pageQuery, pageArgs...)
	})
	if err != nil {
		return nil, 0, mapError(err, "list feature requests")
	}
	span.SetAttributes(attribute.Int("result.count", len(result)), attribute.Int("result.total", total))
	return result, total, nil
}

func filterConditions(tenantID uuid.UUID, f models.FeatureRequestFilter) (string, []interface{}) {
	conds := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}
	add := func(format string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}
	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.Category != nil {
		add("category = $%d", *f.Category)
	}
	if f.Priority != nil {
		add("priority = $%d", *f.Priority)
	}
	if f.RequesterID != nil {
		add("requester_id = $%d", *f.RequesterID)
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	return strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// InsertComment stores c. The parent request must belong to tenantID.
func (s *PostgresStore) InsertComment(ctx context.Context, tenantID uuid.UUID, c *models.Comment) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "InsertComment",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(c.RequestID),
	)
	defer observability.FinishSpan(span, &err)

	c.TenantID = tenantID
	err = s.inTenantTx(ctx, tenantID, func(tx *sqlx.Tx) error {
		if err := requireRequestInTenant(ctx, tx, tenantID, c.RequestID); err != nil {
			return err
		}
		_, execErr := tx.NamedExecContext(ctx, `INSERT INTO request_comments (`+commentColumns+`)
			VALUES (:id, :request_id, :tenant_id, :author_id, :author_role, :content, :is_internal, :created_at)`, c)
		return execErr
	})
	return mapError(err, "insert comment")
}

// FindComments returns every comment on the request, oldest first, unfiltered.
func (s *PostgresStore) FindComments(ctx context.Context, tenantID, requestID uuid.UUID) (result []models.Comment, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "FindComments",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(requestID),
	)
	defer observability.FinishSpan(span, &err)

	result = []models.Comment{}
	err = s.inTenantTx(ctx, tenantID, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &result, `SELECT `+commentColumns+` FROM request_comments
			WHERE tenant_id = $1 AND request_id = $2 ORDER BY created_at, id`, tenantID, requestID)
	})
	if err != nil {
		return nil, mapError(err, "find comments")
	}
	return result, nil
}

// InsertAttachment stores a. The parent request must belong to tenantID.
func (s *PostgresStore) InsertAttachment(ctx context.Context, tenantID uuid.UUID, a *models.Attachment) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "InsertAttachment",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(a.RequestID),
	)
	defer observability.FinishSpan(span, &err)

	a.TenantID = tenantID
	err = s.inTenantTx(ctx, tenantID, func(tx *sqlx.Tx) error {
		if err := requireRequestInTenant(ctx, tx, tenantID, a.RequestID); err != nil {
			return err
		}
		_, execErr := tx.NamedExecContext(ctx, `INSERT INTO request_attachments (`+attachmentColumns+`)
			VALUES (:id, :request_id, :tenant_id, :file_url, :file_name, :uploaded_by, :file_size, :mime_type, :created_at)`, a)
		return execErr
	})
	return mapError(err, "insert attachment")
}

// FindAttachments returns attachments oldest first.
func (s *PostgresStore) FindAttachments(ctx context.Context, tenantID, requestID uuid.UUID) (result []models.Attachment, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "FindAttachments",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(requestID),
	)
	defer observability.FinishSpan(span, &err)

	result = []models.Attachment{}
	err = s.inTenantTx(ctx, tenantID, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &result, `SELECT `+attachmentColumns+` FROM request_attachments
			WHERE tenant_id = $1 AND request_id = $2 ORDER BY created_at, id`, tenantID, requestID)
	})
	if err != nil {
		return nil, mapError(err, "find attachments")
	}
	return result, nil
}

// InsertStatusEvent appends to the request's history.
func (s *PostgresStore) InsertStatusEvent(ctx context.Context, tenantID uuid.UUID, e *models.StatusEvent) (err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "InsertStatusEvent",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(e.RequestID),
		attribute.String("event.kind", string(e.Kind)),
	)
	defer observability.FinishSpan(span, &err)

	e.TenantID = tenantID
	err = s.inTenantTx(ctx, tenantID, func(tx *sqlx.Tx) error {
		if err := requireRequestInTenant(ctx, tx, tenantID, e.RequestID); err != nil {
			return err
		}
		_, execErr := tx.NamedExecContext(ctx, `INSERT INTO request_status_events (`+statusEventColumns+`)
			VALUES (:id, :request_id, :tenant_id, :from_status, :to_status, :actor_id, :actor_role, :kind, :reason, :created_at)`, e)
		return execErr
	})
	return mapError(err, "insert status event")
}

// FindStatusEvents returns history oldest first.
func (s *PostgresStore) FindStatusEvents(ctx context.Context, tenantID, requestID uuid.UUID) (result []models.StatusEvent, err error) {
	ctx, span := observability.TraceStoreFunction(ctx, "FindStatusEvents",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(requestID),
	)
	defer observability.FinishSpan(span, &err)

	result = []models.StatusEvent{}
	err = s.inTenantTx(ctx, tenantID, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &result, `SELECT `+statusEventColumns+` FROM request_status_events
			WHERE tenant_id = $1 AND request_id = $2 ORDER BY created_at, id`, tenantID, requestID)
	})
	if err != nil {
		return nil, mapError(err, "find status events")
	}
	return result, nil
}

var (
	_ serviceinterfaces.FeatureRequestStore = (*PostgresStore)(nil)
	_ serviceinterfaces.AccountStore        = (*PostgresStore)(nil)
)
