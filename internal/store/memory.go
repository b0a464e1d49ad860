package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gymdash/internal/models"
	"gymdash/internal/serviceinterfaces"
	contextutils "gymdash/internal/utils"
)

// MemoryStore is an in-process implementation of the store contracts. It backs the
// service tests and the database.in_memory server mode. Values are copied in and out so
// callers never share state with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	tenants     map[uuid.UUID]models.Tenant
	users       map[uuid.UUID]models.User
	requests    map[uuid.UUID]models.FeatureRequest
	comments    map[uuid.UUID][]models.Comment
	attachments map[uuid.UUID][]models.Attachment
	events      map[uuid.UUID][]models.StatusEvent
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants:     make(map[uuid.UUID]models.Tenant),
		users:       make(map[uuid.UUID]models.User),
		requests:    make(map[uuid.UUID]models.FeatureRequest),
		comments:    make(map[uuid.UUID][]models.Comment),
		attachments: make(map[uuid.UUID][]models.Attachment),
		events:      make(map[uuid.UUID][]models.StatusEvent),
	}
}

func notFound(what string) error {
	return contextutils.WrapError(contextutils.ErrRecordNotFound, what+" not found")
}

// requestLocked must be called with mu held.
func (m *MemoryStore) requestLocked(tenantID, id uuid.UUID) (models.FeatureRequest, bool) {
	r, ok := m.requests[id]
	if !ok || r.TenantID != tenantID {
		return models.FeatureRequest{}, false
	}
	return r, true
}

// InsertRequest stores a copy of r under tenantID.
func (m *MemoryStore) InsertRequest(_ context.Context, tenantID uuid.UUID, r *models.FeatureRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[r.ID]; ok {
		return contextutils.WrapError(contextutils.ErrRecordExists, "feature request already exists")
	}
	r.TenantID = tenantID
	m.requests[r.ID] = *r
	return nil
}

// UpdateRequest applies patch with the same semantics as the SQL store.
func (m *MemoryStore) UpdateRequest(_ context.Context, tenantID, id uuid.UUID, patch models.FeatureRequestPatch) (*models.FeatureRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requestLocked(tenantID, id)
	if !ok {
		return nil, notFound("feature request")
	}
	if !patch.IsEmpty() {
		if patch.UpdatedAt.IsZero() {
			patch.UpdatedAt = time.Now().UTC()
		}
		patch.Apply(&r)
		m.requests[id] = r
	}
	return &r, nil
}

// FindRequestByID returns a copy of the request.
func (m *MemoryStore) FindRequestByID(_ context.Context, tenantID, id uuid.UUID) (*models.FeatureRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requestLocked(tenantID, id)
	if !ok {
		return nil, notFound("feature request")
	}
	return &r, nil
}

// FindRequestsByTenant returns the newest requests first.
func (m *MemoryStore) FindRequestsByTenant(_ context.Context, tenantID uuid.UUID, filter models.FeatureRequestFilter) ([]models.FeatureRequest, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := []models.FeatureRequest{}
	for _, r := range m.requests {
		if r.TenantID == tenantID && filter.Matches(&r) {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return strings.Compare(matched[i].ID.String(), matched[j].ID.String()) < 0
	})

	total := len(matched)
	start := min(max(filter.Offset, 0), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return matched[start:end], total, nil
}

// InsertComment appends a copy of c. The parent request must belong to tenantID.
func (m *MemoryStore) InsertComment(_ context.Context, tenantID uuid.UUID, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requestLocked(tenantID, c.RequestID); !ok {
		return notFound("feature request")
	}
	c.TenantID = tenantID
	m.comments[c.RequestID] = append(m.comments[c.RequestID], *c)
	return nil
}

// FindComments returns every comment on the request in insertion order.
func (m *MemoryStore) FindComments(_ context.Context, tenantID, requestID uuid.UUID) ([]models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Comment{}
	for _, c := range m.comments[requestID] {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

// InsertAttachment appends a copy of a. The parent request must belong to tenantID.
func (m *MemoryStore) InsertAttachment(_ context.Context, tenantID uuid.UUID, a *models.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requestLocked(tenantID, a.RequestID); !ok {
		return notFound("feature request")
	}
	a.TenantID = tenantID
	m.attachments[a.RequestID] = append(m.attachments[a.RequestID], *a)
	return nil
}

// FindAttachments returns attachments in insertion order.
func (m *MemoryStore) FindAttachments(_ context.Context, tenantID, requestID uuid.UUID) ([]models.Attachment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.Attachment{}
	for _, a := range m.attachments[requestID] {
		if a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	return out, nil
}

// InsertStatusEvent appends to the request's history.
func (m *MemoryStore) InsertStatusEvent(_ context.Context, tenantID uuid.UUID, e *models.StatusEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requestLocked(tenantID, e.RequestID); !ok {
		return notFound("feature request")
	}
	e.TenantID = tenantID
	m.events[e.RequestID] = append(m.events[e.RequestID], *e)
	return nil
}

// FindStatusEvents returns history in insertion order.
func (m *MemoryStore) FindStatusEvents(_ context.Context, tenantID, requestID uuid.UUID) ([]models.StatusEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []models.StatusEvent{}
	for _, e := range m.events[requestID] {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return out, nil
}

// InsertTenant creates a tenant.
func (m *MemoryStore) InsertTenant(_ context.Context, t *models.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenants[t.ID]; ok {
		return contextutils.WrapError(contextutils.ErrRecordExists, "tenant already exists")
	}
	m.tenants[t.ID] = *t
	return nil
}

// FindTenantByID looks up a tenant.
func (m *MemoryStore) FindTenantByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, notFound("tenant")
	}
	return &t, nil
}

// ListTenants returns all tenants ordered by name.
func (m *MemoryStore) ListTenants(_ context.Context) ([]models.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// InsertUser creates a login. Usernames are unique.
func (m *MemoryStore) InsertUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.ID == u.ID || existing.Username == u.Username {
			return contextutils.WrapError(contextutils.ErrRecordExists, "user already exists")
		}
	}
	if u.TenantID.Valid {
		if _, ok := m.tenants[u.TenantID.UUID]; !ok {
			return contextutils.WrapError(contextutils.ErrForeignKeyViolation, "tenant does not exist")
		}
	}
	m.users[u.ID] = *u
	return nil
}

// FindUserByID looks up a login by id.
func (m *MemoryStore) FindUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

// FindUserByUsername looks up a login by username.
func (m *MemoryStore) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, notFound("user")
}

// FindStaffEmails returns the addresses of staff users that have one.
func (m *MemoryStore) FindStaffEmails(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []string{}
	for _, u := range m.users {
		if u.Role == models.RoleStaff && u.Email.Valid && u.Email.String != "" {
			out = append(out, u.Email.String)
		}
	}
	sort.Strings(out)
	return out, nil
}

var (
	_ serviceinterfaces.FeatureRequestStore = (*MemoryStore)(nil)
	_ serviceinterfaces.AccountStore        = (*MemoryStore)(nil)
)
