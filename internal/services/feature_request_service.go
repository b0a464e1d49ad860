package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"gymdash/internal/config"
	"gymdash/internal/models"
	"gymdash/internal/observability"
	"gymdash/internal/serviceinterfaces"
	"gymdash/internal/sla"
	contextutils "gymdash/internal/utils"
)

const maxCommentLength = 10000

// FeatureRequestService is the lifecycle controller for feature requests. It owns
// transition rules, role gates, and SLA bookkeeping; persistence goes through the
// tenant-scoped store and every call names its tenant explicitly.
type FeatureRequestService struct {
	store    serviceinterfaces.FeatureRequestStore
	accounts serviceinterfaces.AccountStore
	policy   sla.Policy
	notifier serviceinterfaces.Notifier
	metrics  *observability.LifecycleMetrics
	logger   *observability.Logger
	now      func() time.Time
}

// NewFeatureRequestService wires the controller. notifier and metrics may be nil.
func NewFeatureRequestService(
	store serviceinterfaces.FeatureRequestStore,
	accounts serviceinterfaces.AccountStore,
	policy sla.Policy,
	notifier serviceinterfaces.Notifier,
	metrics *observability.LifecycleMetrics,
	logger *observability.Logger,
) *FeatureRequestService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &FeatureRequestService{
		store:    store,
		accounts: accounts,
		policy:   policy,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		now:      func() time.Time { return storedTime(time.Now()) },
	}
}

// WithClock replaces the time source. Used by tests and the SLA report CLI.
func (s *FeatureRequestService) WithClock(now func() time.Time) *FeatureRequestService {
	s.now = func() time.Time { return storedTime(now()) }
	return s
}

// storedTime drops precision Postgres timestamptz cannot hold, so a deadline
// returned at creation reads back unchanged.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Policy returns the SLA policy the service computes deadlines with.
func (s *FeatureRequestService) Policy() sla.Policy {
	return s.policy
}

// CreateRequest validates and stores a new pending request, then appends the
// submission comment. If only the comment fails, the created request is returned
// together with a PARTIAL_FAILURE error.
func (s *FeatureRequestService) CreateRequest(ctx context.Context, tenantID, requesterID uuid.UUID, in models.CreateRequestInput) (result0 *models.FeatureRequest, err error) {
	ctx, span := observability.TraceFeatureRequestFunction(ctx, "CreateRequest",
		observability.AttributeTenantID(tenantID),
		observability.AttributeUserID(requesterID),
	)
	defer observability.FinishSpan(span, &err)

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := contextutils.ValidateStruct(in); err != nil {
		return nil, err
	}
	category, err := models.ParseCategory(in.Category)
	if err != nil {
		return nil, contextutils.NewValidationError("category", "category must be one of new_feature, modification, integration, design, bug_fix, other")
	}
	priority := models.PriorityNormal
	if in.Priority != "" {
		if priority, err = models.ParsePriority(in.Priority); err != nil {
			return nil, contextutils.NewValidationError("priority", "priority must be normal or urgent")
		}
	}

	now := s.now()
	r := &models.FeatureRequest{
		ID:          uuid.New(),
		TenantID:    tenantID,
		RequesterID: requesterID,
		Title:       in.Title,
		Description: in.Description,
		Category:    category,
		Priority:    priority,
		Status:      models.StatusPending,
		SLADeadline: s.policy.ComputeDeadline(now, priority),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	span.SetAttributes(observability.AttributeRequestID(r.ID), observability.AttributePriority(priority))

	if err := s.store.InsertRequest(ctx, tenantID, r); err != nil {
		return nil, contextutils.WrapError(err, "failed to create feature request")
	}
	s.metrics.RequestCreated(ctx, category, priority)

	s.logger.Info(ctx, "Feature request created", map[string]interface{}{
		"request_id":   r.ID.String(),
		"tenant_id":    tenantID.String(),
		"category":     string(category),
		"priority":     string(priority),
		"sla_deadline": r.SLADeadline.Format(time.RFC3339),
	})

	comment := &models.Comment{
		ID:         uuid.New(),
		RequestID:  r.ID,
		TenantID:   tenantID,
		AuthorID:   requesterID,
		AuthorRole: models.RoleSystem,
		Content: fmt.Sprintf("Request submitted with %s priority. SLA deadline: %s.",
			priority, r.SLADeadline.Format(time.RFC3339)),
		CreatedAt: now,
	}
	if cerr := s.store.InsertComment(ctx, tenantID, comment); cerr != nil {
		s.metrics.PartialFailure(ctx)
		s.logger.Error(ctx, "Feature request created without submission comment", cerr, map[string]interface{}{
			"request_id": r.ID.String(),
		})
		s.notifier.RequestCreated(ctx, r)
		return r, contextutils.NewAppErrorWithCause(contextutils.ErrorCodePartialFailure, contextutils.SeverityWarn,
			"request created but its submission comment could not be saved", "", cerr)
	}

	s.notifier.RequestCreated(ctx, r)
	return r, nil
}

// nextStatuses lists the direct successors of a status. Terminal states have none.
func nextStatuses(from models.Status) []models.Status {
	switch from {
	case models.StatusPending:
		return []models.Status{models.StatusReviewing}
	case models.StatusReviewing:
		return []models.Status{models.StatusInProgress}
	case models.StatusInProgress:
		return []models.Status{models.StatusCompleted, models.StatusRejected}
	case models.StatusCompleted, models.StatusRejected:
		return nil
	}
	return nil
}

// CanTransition reports whether to is a direct successor of from.
func CanTransition(from, to models.Status) bool {
	for _, next := range nextStatuses(from) {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionPath returns the regular transitions that lead from one status to another,
// excluding from itself. Nil when to is unreachable or equal to from.
func TransitionPath(from, to models.Status) []models.Status {
	var walk func(cur models.Status, path []models.Status) []models.Status
	walk = func(cur models.Status, path []models.Status) []models.Status {
		for _, next := range nextStatuses(cur) {
			step := append(append([]models.Status(nil), path...), next)
			if next == to {
				return step
			}
			if found := walk(next, step); found != nil {
				return found
			}
		}
		return nil
	}
	return walk(from, nil)
}

// statusPatch builds the column changes for entering status to at now.
func statusPatch(r *models.FeatureRequest, to models.Status, now time.Time) models.FeatureRequestPatch {
	patch := models.FeatureRequestPatch{Status: &to, UpdatedAt: now}
	switch to {
	case models.StatusPending:
	case models.StatusReviewing:
		patch.ReviewedAt = &now
	case models.StatusInProgress:
		patch.StartedAt = &now
	case models.StatusCompleted, models.StatusRejected:
		met := sla.IsMet(now, r.SLADeadline)
		patch.CompletedAt = &now
		patch.SLAMet = &met
	}
	if r.Status.IsTerminal() && !to.IsTerminal() {
		patch.ClearCompletion = true
	}
	return patch
}

func parseTargetStatus(to models.Status) error {
	if _, err := models.ParseStatus(string(to)); err != nil {
		return contextutils.NewValidationError("status", "status must be one of pending, reviewing, in_progress, completed, rejected")
	}
	return nil
}

// Transition moves a request one step along the lifecycle. Staff only.
func (s *FeatureRequestService) Transition(ctx context.Context, tenantID, requestID uuid.UUID, actor models.Actor, to models.Status) (result0 *models.FeatureRequest, err error) {
	ctx, span := observability.TraceFeatureRequestFunction(ctx, "Transition",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(requestID),
		observability.AttributeRole(actor.Role),
		observability.AttributeStatus("status.to", to),
	)
	defer observability.FinishSpan(span, &err)

	if !actor.Role.IsStaff() {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "only staff may change request status")
	}
	if err := parseTargetStatus(to); err != nil {
		return nil, err
	}

	r, err := s.store.FindRequestByID(ctx, tenantID, requestID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load feature request")
	}
	from := r.Status
	span.SetAttributes(observability.AttributeStatus("status.from", from))

	if !CanTransition(from, to) {
		return nil, contextutils.NewInvalidTransitionError(string(from), string(to))
	}

	now := s.now()
	updated, err := s.store.UpdateRequest(ctx, tenantID, requestID, statusPatch(r, to, now))
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to update feature request status")
	}

	s.recordStatusEvent(ctx, tenantID, updated, from, actor, models.EventKindTransition, "", now)
	s.logger.Info(ctx, "Feature request status changed", map[string]interface{}{
		"request_id":  requestID.String(),
		"from_status": string(from),
		"to_status":   string(to),
		"actor_id":    actor.UserID.String(),
	})
	s.notifier.StatusChanged(ctx, updated, from)
	return updated, nil
}

// OverrideStatus sets any status regardless of lifecycle order. Staff only, reason
// required. The SLA deadline is never recomputed; reopening a terminal request
// clears completed_at and sla_met.
func (s *FeatureRequestService) OverrideStatus(ctx context.Context, tenantID, requestID uuid.UUID, actor models.Actor, to models.Status, reason string) (result0 *models.FeatureRequest, err error) {
	ctx, span := observability.TraceFeatureRequestFunction(ctx, "OverrideStatus",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(requestID),
		observability.AttributeRole(actor.Role),
		observability.AttributeStatus("status.to", to),
	)
	defer observability.FinishSpan(span, &err)

	if !actor.Role.IsStaff() {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "only staff may override request status")
	}
	if err := parseTargetStatus(to); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, contextutils.NewValidationError("reason", "reason is required")
	}
	if len(reason) > maxCommentLength {
		return nil, contextutils.NewValidationError("reason", fmt.Sprintf("reason must be at most %d characters", maxCommentLength))
	}

	r, err := s.store.FindRequestByID(ctx, tenantID, requestID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load feature request")
	}
	from := r.Status
	if from == to {
		return nil, contextutils.NewInvalidTransitionError(string(from), string(to))
	}

	now := s.now()
	updated, err := s.store.UpdateRequest(ctx, tenantID, requestID, statusPatch(r, to, now))
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to override feature request status")
	}

	s.logger.Warn(ctx, "Feature request status overridden", map[string]interface{}{
		"request_id":  requestID.String(),
		"from_status": string(from),
		"to_status":   string(to),
		"actor_id":    actor.UserID.String(),
		"reason":      reason,
	})
	s.recordStatusEvent(ctx, tenantID, updated, from, actor, models.EventKindOverride, reason, now)

	note := &models.Comment{
		ID:         uuid.New(),
		RequestID:  requestID,
		TenantID:   tenantID,
		AuthorID:   actor.UserID,
		AuthorRole: models.RoleSystem,
		Content:    fmt.Sprintf("Status overridden from %s to %s: %s", from, to, reason),
		IsInternal: true,
		CreatedAt:  now,
	}
	if cerr := s.store.InsertComment(ctx, tenantID, note); cerr != nil {
		s.logger.Error(ctx, "Failed to record override comment", cerr, map[string]interface{}{"request_id": requestID.String()})
	}

	s.notifier.StatusChanged(ctx, updated, from)
	return updated, nil
}

// recordStatusEvent appends history and counts the change. History is best effort:
// the status write has already happened, so a failure here is logged only.
func (s *FeatureRequestService) recordStatusEvent(ctx context.Context, tenantID uuid.UUID, r *models.FeatureRequest, from models.Status, actor models.Actor, kind models.EventKind, reason string, now time.Time) {
	s.metrics.StatusChanged(ctx, kind, from, r.Status)
	if r.Status.IsTerminal() && r.SLAMet.Valid {
		s.metrics.SLAOutcome(ctx, r.Priority, r.SLAMet.Bool)
	}

	event := &models.StatusEvent{
		ID:         uuid.New(),
		RequestID:  r.ID,
		TenantID:   tenantID,
		FromStatus: from,
		ToStatus:   r.Status,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Kind:       kind,
		Reason:     reason,
		CreatedAt:  now,
	}
	if err := s.store.InsertStatusEvent(ctx, tenantID, event); err != nil {
		s.logger.Error(ctx, "Failed to record status event", err, map[string]interface{}{
			"request_id": r.ID.String(),
			"kind":       string(kind),
		})
	}
}

// UpdateStaffFields changes dev notes, assignment, or estimate. Staff only; nil
// fields are left as they are.
func (s *FeatureRequestService) UpdateStaffFields(ctx context.Context, tenantID, requestID uuid.UUID, actor models.Actor, in models.StaffFieldsInput) (result0 *models.FeatureRequest, err error) {
	ctx, span := observability.TraceFeatureRequestFunction(ctx, "UpdateStaffFields",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(requestID),
		observability.AttributeRole(actor.Role),
	)
	defer observability.FinishSpan(span, &err)

	if !actor.Role.IsStaff() {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "only staff may update staff fields")
	}
	if err := contextutils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.AssignedTo != nil {
		if err := s.checkAssignee(ctx, *in.AssignedTo); err != nil {
			return nil, err
		}
	}

	patch := models.FeatureRequestPatch{
		DevNotes:       in.DevNotes,
		AssignedTo:     in.AssignedTo,
		EstimatedHours: in.EstimatedHours,
		UpdatedAt:      s.now(),
	}
	span.SetAttributes(
		attribute.Bool("update.dev_notes", in.DevNotes != nil),
		attribute.Bool("update.assigned_to", in.AssignedTo != nil),
		attribute.Bool("update.estimated_hours", in.EstimatedHours != nil),
	)

	updated, err := s.store.UpdateRequest(ctx, tenantID, requestID, patch)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to update staff fields")
	}
	return updated, nil
}

// checkAssignee requires assigned_to to name an existing staff user.
func (s *FeatureRequestService) checkAssignee(ctx context.Context, userID uuid.UUID) error {
	user, err := s.accounts.FindUserByID(ctx, userID)
	if err != nil {
		if contextutils.IsError(err, contextutils.ErrRecordNotFound) {
			return contextutils.NewValidationError("assigned_to", "assigned_to must be an existing staff user")
		}
		return contextutils.WrapError(err, "failed to look up assignee")
	}
	if !user.Role.IsStaff() {
		return contextutils.NewValidationError("assigned_to", "assigned_to must be a staff user")
	}
	return nil
}

// AddComment appends a comment. Only staff can create internal comments; the flag
// is cleared for everyone else whatever the caller asked for.
func (s *FeatureRequestService) AddComment(ctx context.Context, tenantID, requestID uuid.UUID, author models.Actor, content string, isInternal bool) (result0 *models.Comment, err error) {
	ctx, span := observability.TraceFeatureRequestFunction(ctx, "AddComment",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(requestID),
		observability.AttributeRole(author.Role),
	)
	defer observability.FinishSpan(span, &err)

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, contextutils.NewValidationError("content", "content is required")
	}
	if len(content) > maxCommentLength {
		return nil, contextutils.NewValidationError("content", fmt.Sprintf("content must be at most %d characters", maxCommentLength))
	}
	if !author.Role.IsStaff() {
		isInternal = false
	}
	span.SetAttributes(attribute.Bool("comment.internal", isInternal))

	c := &models.Comment{
		ID:         uuid.New(),
		RequestID:  requestID,
		TenantID:   tenantID,
		AuthorID:   author.UserID,
		AuthorRole: author.Role,
		Content:    content,
		IsInternal: isInternal,
		CreatedAt:  s.now(),
	}
	if err := s.store.InsertComment(ctx, tenantID, c); err != nil {
		return nil, contextutils.WrapError(err, "failed to add comment")
	}
	return c, nil
}

// AddAttachment records metadata for an uploaded file.
func (s *FeatureRequestService) AddAttachment(ctx context.Context, tenantID, requestID uuid.UUID, actor models.Actor, in models.AttachmentInput) (result0 *models.Attachment, err error) {
	ctx, span := observability.TraceFeatureRequestFunction(ctx, "AddAttachment",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(requestID),
		observability.AttributeRole(actor.Role),
	)
	defer observability.FinishSpan(span, &err)

	in.FileName = strings.TrimSpace(in.FileName)
	if err := contextutils.ValidateStruct(in); err != nil {
		return nil, err
	}

	a := &models.Attachment{
		ID:         uuid.New(),
		RequestID:  requestID,
		TenantID:   tenantID,
		FileURL:    in.FileURL,
		FileName:   in.FileName,
		UploadedBy: actor.UserID,
		FileSize:   in.FileSize,
		MimeType:   in.MimeType,
		CreatedAt:  s.now(),
	}
	if err := s.store.InsertAttachment(ctx, tenantID, a); err != nil {
		return nil, contextutils.WrapError(err, "failed to add attachment")
	}
	return a, nil
}

// GetRequest returns the request with the comments the viewer may see.
func (s *FeatureRequestService) GetRequest(ctx context.Context, tenantID, requestID uuid.UUID, viewer models.Actor) (result0 *models.FeatureRequestView, err error) {
	ctx, span := observability.TraceFeatureRequestFunction(ctx, "GetRequest",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(requestID),
		observability.AttributeRole(viewer.Role),
	)
	defer observability.FinishSpan(span, &err)

	r, err := s.store.FindRequestByID(ctx, tenantID, requestID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load feature request")
	}
	comments, err := s.store.FindComments(ctx, tenantID, requestID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load comments")
	}
	attachments, err := s.store.FindAttachments(ctx, tenantID, requestID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load attachments")
	}

	now := s.now()
	return &models.FeatureRequestView{
		Request:        r,
		Comments:       VisibleComments(comments, viewer.Role),
		Attachments:    attachments,
		SLAStatus:      s.policy.LabelFor(now, r),
		HoursRemaining: sla.HoursRemaining(now, r.SLADeadline),
	}, nil
}

// normalizePage applies the default page size and caps it.
func normalizePage(filter models.FeatureRequestFilter) models.FeatureRequestFilter {
	if filter.Limit <= 0 {
		filter.Limit = config.DefaultPageSize
	}
	if filter.Limit > config.MaxPageSize {
		filter.Limit = config.MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return filter
}

// ListRequests returns one page of a tenant's requests with live SLA labels.
func (s *FeatureRequestService) ListRequests(ctx context.Context, tenantID uuid.UUID, filter models.FeatureRequestFilter) (result0 []models.FeatureRequestSummary, result1 int, err error) {
	filter = normalizePage(filter)
	ctx, span := observability.TraceFeatureRequestFunction(ctx, "ListRequests",
		observability.AttributeTenantID(tenantID),
		observability.AttributeLimit(filter.Limit),
		observability.AttributeOffset(filter.Offset),
	)
	defer observability.FinishSpan(span, &err)

	requests, total, err := s.store.FindRequestsByTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, contextutils.WrapError(err, "failed to list feature requests")
	}

	now := s.now()
	summaries := make([]models.FeatureRequestSummary, 0, len(requests))
	for i := range requests {
		summaries = append(summaries, models.FeatureRequestSummary{
			FeatureRequest: requests[i],
			SLAStatus:      s.policy.LabelFor(now, &requests[i]),
			HoursRemaining: sla.HoursRemaining(now, requests[i].SLADeadline),
		})
	}
	return summaries, total, nil
}

// ListComments returns the comments on a request visible to viewer.
func (s *FeatureRequestService) ListComments(ctx context.Context, tenantID, requestID uuid.UUID, viewer models.Actor) (result0 []models.Comment, err error) {
	ctx, span := observability.TraceFeatureRequestFunction(ctx, "ListComments",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(requestID),
		observability.AttributeRole(viewer.Role),
	)
	defer observability.FinishSpan(span, &err)

	if _, err := s.store.FindRequestByID(ctx, tenantID, requestID); err != nil {
		return nil, contextutils.WrapError(err, "failed to load feature request")
	}
	comments, err := s.store.FindComments(ctx, tenantID, requestID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load comments")
	}
	return VisibleComments(comments, viewer.Role), nil
}

// ListAttachments returns a request's attachments.
func (s *FeatureRequestService) ListAttachments(ctx context.Context, tenantID, requestID uuid.UUID) (result0 []models.Attachment, err error) {
	ctx, span := observability.TraceFeatureRequestFunction(ctx, "ListAttachments",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(requestID),
	)
	defer observability.FinishSpan(span, &err)

	if _, err := s.store.FindRequestByID(ctx, tenantID, requestID); err != nil {
		return nil, contextutils.WrapError(err, "failed to load feature request")
	}
	attachments, err := s.store.FindAttachments(ctx, tenantID, requestID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load attachments")
	}
	return attachments, nil
}

// History returns the status events of a request. Staff only.
func (s *FeatureRequestService) History(ctx context.Context, tenantID, requestID uuid.UUID, actor models.Actor) (result0 []models.StatusEvent, err error) {
	ctx, span := observability.TraceFeatureRequestFunction(ctx, "History",
		observability.AttributeTenantID(tenantID),
		observability.AttributeRequestID(requestID),
		observability.AttributeRole(actor.Role),
	)
	defer observability.FinishSpan(span, &err)

	if !actor.Role.IsStaff() {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "only staff may read request history")
	}
	if _, err := s.store.FindRequestByID(ctx, tenantID, requestID); err != nil {
		return nil, contextutils.WrapError(err, "failed to load feature request")
	}
	events, err := s.store.FindStatusEvents(ctx, tenantID, requestID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load status history")
	}
	return events, nil
}

// SLAReport counts a tenant's requests per live SLA label at now.
func (s *FeatureRequestService) SLAReport(ctx context.Context, tenantID uuid.UUID, now time.Time) (result0 *models.SLAReport, err error) {
	ctx, span := observability.TraceFeatureRequestFunction(ctx, "SLAReport",
		observability.AttributeTenantID(tenantID),
	)
	defer observability.FinishSpan(span, &err)

	report := &models.SLAReport{
		TenantID:    tenantID,
		GeneratedAt: now,
		Counts:      make(map[models.SLALabel]int, len(models.SLALabels)),
	}
	for _, label := range models.SLALabels {
		report.Counts[label] = 0
	}

	filter := models.FeatureRequestFilter{Limit: config.MaxPageSize}
	for {
		page, total, err := s.store.FindRequestsByTenant(ctx, tenantID, filter)
		if err != nil {
			return nil, contextutils.WrapError(err, "failed to load feature requests for report")
		}
		for i := range page {
			report.Counts[s.policy.LabelFor(now, &page[i])]++
		}
		report.Total = total
		filter.Offset += len(page)
		if len(page) == 0 || filter.Offset >= total {
			break
		}
	}

	span.SetAttributes(attribute.Int("report.total", report.Total))
	return report, nil
}

type noopNotifier struct{}

func (noopNotifier) RequestCreated(context.Context, *models.FeatureRequest)               {}
func (noopNotifier) StatusChanged(context.Context, *models.FeatureRequest, models.Status) {}

var _ serviceinterfaces.FeatureRequestService = (*FeatureRequestService)(nil)
