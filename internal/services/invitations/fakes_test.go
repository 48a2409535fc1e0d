package invitations

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"recruitgate/internal/models"
	"recruitgate/internal/repositories"
)

// memStore mimics the MySQL store: every mutation is a conditional write
// under one lock, and the unique keys are checked the way the indexes would.
type memStore struct {
	mu          sync.Mutex
	processes   map[string]models.SelectionProcess
	invitations map[string]models.Invitation
	apps        map[string]models.WorkerProcess
	identities  map[string]models.Identity

	failExpireOverdue error
	expireCalls       int
	matchingCalls     int
}

func newMemStore() *memStore {
	return &memStore{
		processes:   map[string]models.SelectionProcess{},
		invitations: map[string]models.Invitation{},
		apps:        map[string]models.WorkerProcess{},
		identities:  map[string]models.Identity{},
	}
}

func (m *memStore) addProcess(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processes[id] = models.SelectionProcess{ID: id, Title: "Process " + id, Description: "desc", IsActive: active}
}

func (m *memStore) addIdentity(id, email string, workerID *string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[id] = models.Identity{ID: id, Email: email, FirstName: "Ada", WorkerID: workerID}
}

func (m *memStore) addApplication(workerID, processID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps[workerID+"|"+processID] = models.WorkerProcess{ID: "existing", WorkerID: workerID, ProcessID: processID, Status: models.WorkerProcessApplied}
}

func (m *memStore) invitation(id string) models.Invitation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invitations[id]
}

func (m *memStore) setExpiresAt(id string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv := m.invitations[id]
	inv.ExpiresAt = t
	m.invitations[id] = inv
}

func (m *memStore) applicationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.apps)
}

func (m *memStore) GetProcess(_ context.Context, id string) (*models.SelectionProcess, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.processes[id]
	if !ok {
		return nil, repositories.ErrNoRows
	}
	return &p, nil
}

func (m *memStore) uniqueViolation(inv models.Invitation, skipID string) error {
	for id, other := range m.invitations {
		if id == skipID {
			continue
		}
		if other.TokenHash == inv.TokenHash {
			return repositories.ErrDuplicateToken
		}
		if inv.Status == models.InvitationPending && other.Status == models.InvitationPending &&
			other.ProcessID == inv.ProcessID && other.EmailNormalized == inv.EmailNormalized {
			return repositories.ErrDuplicatePending
		}
	}
	return nil
}

func (m *memStore) InsertInvitation(_ context.Context, inv *models.Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := *inv
	row.Token = ""
	if err := m.uniqueViolation(row, ""); err != nil {
		return err
	}
	m.invitations[row.ID] = row
	return nil
}

func (m *memStore) GetInvitationByID(_ context.Context, id string) (*models.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if !ok {
		return nil, repositories.ErrNoRows
	}
	return &inv, nil
}

func (m *memStore) GetInvitationByTokenHash(_ context.Context, tokenHash string) (*models.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invitations {
		if inv.TokenHash == tokenHash {
			return &inv, nil
		}
	}
	return nil, repositories.ErrNoRows
}

func (m *memStore) ListInvitations(_ context.Context, filter models.InvitationFilter) ([]models.Invitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Invitation
	for _, inv := range m.invitations {
		if filter.ProcessID != "" && inv.ProcessID != filter.ProcessID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.Email != "" && inv.EmailNormalized != strings.ToLower(strings.TrimSpace(filter.Email)) {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:min(filter.Offset+filter.Limit, len(out))]
	}
	return out, nil
}

func (m *memStore) ExpireOverdueMatching(_ context.Context, filter models.InvitationFilter, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchingCalls++
	var n int64
	for id, inv := range m.invitations {
		if filter.ProcessID != "" && inv.ProcessID != filter.ProcessID {
			continue
		}
		if filter.Email != "" && inv.EmailNormalized != strings.ToLower(strings.TrimSpace(filter.Email)) {
			continue
		}
		if inv.Status == models.InvitationPending && inv.ExpiresAt.Before(now) {
			inv.Status = models.InvitationExpired
			m.invitations[id] = inv
			n++
		}
	}
	return n, nil
}

func (m *memStore) ExpireInvitation(_ context.Context, id string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if !ok || inv.Status != models.InvitationPending || !inv.ExpiresAt.Before(now) {
		return false, nil
	}
	inv.Status = models.InvitationExpired
	m.invitations[id] = inv
	return true, nil
}

func (m *memStore) ExpireStalePending(_ context.Context, processID, emailNormalized string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, inv := range m.invitations {
		if inv.ProcessID == processID && inv.EmailNormalized == emailNormalized &&
			inv.Status == models.InvitationPending && inv.ExpiresAt.Before(now) {
			inv.Status = models.InvitationExpired
			m.invitations[id] = inv
			n++
		}
	}
	return n, nil
}

func (m *memStore) CancelInvitation(_ context.Context, id string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if !ok || inv.Status != models.InvitationPending || inv.ExpiresAt.Before(now) {
		return false, nil
	}
	inv.Status = models.InvitationCancelled
	m.invitations[id] = inv
	return true, nil
}

func (m *memStore) ReissueInvitation(_ context.Context, id, tokenHash string, expiresAt, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if !ok || inv.Status == models.InvitationAccepted {
		return false, nil
	}
	inv.TokenHash = tokenHash
	inv.ExpiresAt = expiresAt
	inv.Status = models.InvitationPending
	inv.SentAt = nil
	inv.UpdatedAt = now
	if err := m.uniqueViolation(inv, id); err != nil {
		return false, err
	}
	m.invitations[id] = inv
	return true, nil
}

func (m *memStore) MarkInvitationSent(_ context.Context, id, tokenHash string, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[id]
	if ok && inv.TokenHash == tokenHash {
		inv.SentAt = &sentAt
		m.invitations[id] = inv
	}
	return nil
}

func (m *memStore) ExpireOverdue(_ context.Context, now time.Time, limit int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireCalls++
	if m.failExpireOverdue != nil {
		return 0, m.failExpireOverdue
	}
	var n int64
	for id, inv := range m.invitations {
		if n == int64(limit) {
			break
		}
		if inv.Status == models.InvitationPending && inv.ExpiresAt.Before(now) {
			inv.Status = models.InvitationExpired
			m.invitations[id] = inv
			n++
		}
	}
	return n, nil
}

func (m *memStore) FindApplication(_ context.Context, workerID, processID string) (*models.WorkerProcess, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[workerID+"|"+processID]
	if !ok {
		return nil, repositories.ErrNoRows
	}
	return &app, nil
}

func (m *memStore) AcceptInvitation(_ context.Context, invitationID string, app *models.WorkerProcess, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invitations[invitationID]
	if !ok || inv.Status != models.InvitationPending || inv.ExpiresAt.Before(now) {
		return repositories.ErrStateChanged
	}
	key := app.WorkerID + "|" + app.ProcessID
	if _, exists := m.apps[key]; exists {
		return repositories.ErrDuplicateApplication
	}
	inv.Status = models.InvitationAccepted
	inv.AcceptedAt = &now
	m.invitations[invitationID] = inv
	m.apps[key] = *app
	return nil
}

func (m *memStore) ResolveIdentity(_ context.Context, userID string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[userID]
	if !ok {
		return nil, repositories.ErrNoRows
	}
	return &identity, nil
}

type sentEmail struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []sentEmail
	err   error
	panic bool
}

func (n *fakeNotifier) Send(_ context.Context, to, subject, text, html string) error {
	if n.panic {
		panic("smtp exploded")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentEmail{To: to, Subject: subject, Text: text, HTML: html})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

var errSMTPDown = errors.New("smtp down")

// testClock is a settable clock for the service.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
