package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"gymdash/internal/config"
	"gymdash/internal/models"
	"gymdash/internal/observability"
	"gymdash/internal/serviceinterfaces"
	contextutils "gymdash/internal/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// uuidRegex matches standard UUID format (8-4-4-4-12 hex digits)
var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// LinearHTTPTimeout is the timeout for Linear API requests
const LinearHTTPTimeout = 30 * time.Second

// Linear issue priorities: 1 urgent, 3 normal.
const (
	linearPriorityUrgent = 1
	linearPriorityNormal = 3
)

// LinearService exports feature requests to Linear as issues
type LinearService struct {
	config     *config.Config
	httpClient *http.Client
	logger     *observability.Logger
	apiURL     string
}

var _ serviceinterfaces.IssueTracker = (*LinearService)(nil)

type graphQLError struct {
	Message    string                 `json:"message"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// NewLinearService creates a new Linear service instance
func NewLinearService(cfg *config.Config, logger *observability.Logger) *LinearService {
	apiURL := cfg.Linear.APIURL
	if apiURL == "" {
		apiURL = config.DefaultLinearAPIURL
	}
	return &LinearService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: LinearHTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
			),
		},
		logger: logger,
		apiURL: apiURL,
	}
}

// IsEnabled reports whether issues can be created.
func (s *LinearService) IsEnabled() bool {
	return s.config.Linear.Enabled && s.config.Linear.APIKey != ""
}

// graphQL posts one query and decodes data into out.
func (s *LinearService) graphQL(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	requestBody := map[string]interface{}{"query": query}
	if variables != nil {
		requestBody["variables"] = variables
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return contextutils.WrapError(err, "failed to marshal GraphQL request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return contextutils.WrapError(err, "failed to create HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")
	// Personal API keys are sent without a Bearer prefix.
	req.Header.Set("Authorization", s.config.Linear.APIKey)
	req.Header.Set("User-Agent", "gymdash/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return contextutils.NewAppErrorWithCause(contextutils.ErrorCodeExternalServiceFailed, contextutils.SeverityError,
			"Linear HTTP request failed", "", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Warn(ctx, "Failed to close response body", map[string]interface{}{"error": cerr.Error()})
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return contextutils.WrapError(err, "failed to read response body")
	}
	if resp.StatusCode != http.StatusOK {
		s.logger.Error(ctx, "Linear API returned non-200 status", nil, map[string]interface{}{
			"status_code": resp.StatusCode,
			"body":        string(body),
		})
		return contextutils.NewAppError(contextutils.ErrorCodeExternalServiceFailed, contextutils.SeverityError,
			fmt.Sprintf("Linear API returned status %d", resp.StatusCode), string(body))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors,omitempty"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return contextutils.WrapError(err, "failed to unmarshal Linear response")
	}
	if len(envelope.Errors) > 0 {
		details := ""
		if len(envelope.Errors[0].Extensions) > 0 {
			ext, _ := json.Marshal(envelope.Errors[0].Extensions)
			details = string(ext)
		}
		s.logger.Error(ctx, "Linear GraphQL error", nil, map[string]interface{}{
			"message":       envelope.Errors[0].Message,
			"full_response": string(body),
		})
		return contextutils.NewAppError(contextutils.ErrorCodeExternalServiceFailed, contextutils.SeverityError,
			"Linear API error: "+envelope.Errors[0].Message, details)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return contextutils.WrapError(err, "failed to decode Linear data")
	}
	return nil
}

// resolveTeamID returns teamIdentifier if it already is an id, otherwise looks the team up by name.
func (s *LinearService) resolveTeamID(ctx context.Context, teamIdentifier string) (string, error) {
	if uuidRegex.MatchString(strings.ToLower(teamIdentifier)) {
		return teamIdentifier, nil
	}

	var data struct {
		Teams struct {
			Nodes []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
				Key  string `json:"key"`
			} `json:"nodes"`
		} `json:"teams"`
	}
	if err := s.graphQL(ctx, `query Teams { teams { nodes { id name key } } }`, nil, &data); err != nil {
		return "", contextutils.WrapError(err, "failed to look up Linear teams")
	}
	for _, team := range data.Teams.Nodes {
		if strings.EqualFold(team.Name, teamIdentifier) || strings.EqualFold(team.Key, teamIdentifier) {
			return team.ID, nil
		}
	}
	return "", contextutils.NewAppError(contextutils.ErrorCodeInvalidInput, contextutils.SeverityError,
		fmt.Sprintf("Team '%s' not found in Linear", teamIdentifier), "")
}

// resolveLabelIDs maps label names to ids among the team's and workspace labels.
// Unknown names are skipped with a warning.
func (s *LinearService) resolveLabelIDs(ctx context.Context, teamID string, names []string) []string {
	if len(names) == 0 {
		return nil
	}

	var data struct {
		IssueLabels struct {
			Nodes []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"nodes"`
		} `json:"issueLabels"`
	}
	query := `query Labels($teamId: ID!) {
		issueLabels(first: 250, filter: { or: [{ team: { id: { eq: $teamId } } }, { team: { null: true } }] }) {
			nodes { id name }
		}
	}`
	if err := s.graphQL(ctx, query, map[string]interface{}{"teamId": teamID}, &data); err != nil {
		s.logger.Warn(ctx, "Failed to look up Linear labels, continuing without them", map[string]interface{}{
			"team_id": teamID,
			"error":   err.Error(),
		})
		return nil
	}

	var ids []string
	for _, name := range names {
		found := false
		for _, label := range data.IssueLabels.Nodes {
			if strings.EqualFold(label.Name, name) {
				ids = append(ids, label.ID)
				found = true
				break
			}
		}
		if !found {
			s.logger.Warn(ctx, "Linear label not found, continuing without it", map[string]interface{}{
				"label_name": name,
				"team_id":    teamID,
			})
		}
	}
	return ids
}

// issueDescription renders the request as the issue's markdown body.
func issueDescription(r *models.FeatureRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n---\n", r.Description)
	fmt.Fprintf(&b, "- **Tenant:** %s\n", r.TenantID)
	fmt.Fprintf(&b, "- **Request:** %s\n", r.ID)
	fmt.Fprintf(&b, "- **Category:** %s\n", r.Category)
	fmt.Fprintf(&b, "- **Priority:** %s\n", r.Priority)
	fmt.Fprintf(&b, "- **Status:** %s\n", r.Status)
	fmt.Fprintf(&b, "- **SLA deadline:** %s\n", r.SLADeadline.Format(time.RFC3339))
	return b.String()
}

// CreateIssue creates a Linear issue for a feature request. The category is added
// as a label next to the configured default labels.
func (s *LinearService) CreateIssue(ctx context.Context, r *models.FeatureRequest) (result *models.IssueRef, err error) {
	ctx, span := observability.TraceIntegrationFunction(ctx, "create_linear_issue",
		observability.AttributeRequestID(r.ID),
		observability.AttributeTenantID(r.TenantID),
	)
	defer observability.FinishSpan(span, &err)

	if !s.IsEnabled() {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeServiceUnavailable, contextutils.SeverityWarn,
			"Linear integration is disabled", "")
	}
	if s.config.Linear.TeamID == "" {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeServiceUnavailable, contextutils.SeverityError,
			"Linear team is not configured", "")
	}

	teamID, err := s.resolveTeamID(ctx, s.config.Linear.TeamID)
	if err != nil {
		return nil, err
	}
	labels := append(append([]string{}, s.config.Linear.DefaultLabels...), string(r.Category))
	labelIDs := s.resolveLabelIDs(ctx, teamID, labels)

	priority := linearPriorityNormal
	if r.Priority == models.PriorityUrgent {
		priority = linearPriorityUrgent
	}
	input := map[string]interface{}{
		"title":       r.Title,
		"teamId":      teamID,
		"description": issueDescription(r),
		"priority":    priority,
		"dueDate":     r.SLADeadline.UTC().Format("2006-01-02"),
	}
	if s.config.Linear.ProjectID != "" {
		input["projectId"] = s.config.Linear.ProjectID
	}
	if len(labelIDs) > 0 {
		input["labelIds"] = labelIDs
	}

	var data struct {
		IssueCreate struct {
			Success bool `json:"success"`
			Issue   struct {
				ID         string `json:"id"`
				Identifier string `json:"identifier"`
				URL        string `json:"url"`
			} `json:"issue"`
		} `json:"issueCreate"`
	}
	mutation := `
		mutation IssueCreate($input: IssueCreateInput!) {
			issueCreate(input: $input) {
				success
				issue { id identifier url }
			}
		}
	`
	startTime := time.Now()
	if err := s.graphQL(ctx, mutation, map[string]interface{}{"input": input}, &data); err != nil {
		return nil, contextutils.WrapError(err, "failed to create Linear issue")
	}
	if !data.IssueCreate.Success {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeExternalServiceFailed, contextutils.SeverityError,
			"Linear issue creation was not successful", "")
	}

	issue := data.IssueCreate.Issue
	issueURL := issue.URL
	if issueURL == "" {
		issueURL = fmt.Sprintf("https://linear.app/issue/%s", issue.Identifier)
	}
	result = &models.IssueRef{ID: issue.ID, Identifier: issue.Identifier, URL: issueURL}

	s.logger.Info(ctx, "Linear issue created successfully", map[string]interface{}{
		"request_id": r.ID.String(),
		"issue_id":   issue.ID,
		"issue_url":  issueURL,
		"duration":   time.Since(startTime).String(),
	})
	span.SetAttributes(
		attribute.String("linear.issue_id", issue.ID),
		attribute.String("linear.issue_url", issueURL),
	)
	return result, nil
}
