package approval

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory StepStore with the same conditional-update
// semantics as the SQL implementation: a claim only wins when the step
// is still PENDING at claim time, checked under one lock.
type memStore struct {
	mu    sync.Mutex
	steps map[string][]*Step
}

func newMemStore() *memStore {
	return &memStore{steps: make(map[string][]*Step)}
}

func chainKey(tenantID string, entityType EntityType, entityID string) string {
	return fmt.Sprintf("%s|%s|%s", tenantID, entityType, entityID)
}

func (s *memStore) chain(tenantID string, entityType EntityType, entityID string) []*Step {
	steps := s.steps[chainKey(tenantID, entityType, entityID)]
	sort.Slice(steps, func(i, j int) bool { return steps[i].LevelOrder < steps[j].LevelOrder })
	return steps
}

func (s *memStore) CountSteps(_ context.Context, tenantID string, entityType EntityType, entityID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chain(tenantID, entityType, entityID)), nil
}

func (s *memStore) CountPending(_ context.Context, tenantID string, entityType EntityType, entityID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, st := range s.chain(tenantID, entityType, entityID) {
		if st.Status == StatusPending {
			n++
		}
	}
	return n, nil
}

func (s *memStore) ListSteps(_ context.Context, tenantID string, entityType EntityType, entityID string) ([]Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chain := s.chain(tenantID, entityType, entityID)
	out := make([]Step, 0, len(chain))
	for _, st := range chain {
		out = append(out, *st)
	}
	return out, nil
}

func (s *memStore) CurrentPending(_ context.Context, tenantID string, entityType EntityType, entityID string) (*Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.chain(tenantID, entityType, entityID) {
		if st.Status == StatusPending {
			cp := *st
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateSteps(_ context.Context, steps []Step) ([]Step, bool, error) {
	if len(steps) == 0 {
		return nil, false, fmt.Errorf("no steps to create")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	first := steps[0]
	key := chainKey(first.TenantID, first.EntityType, first.EntityID)
	if existing := s.steps[key]; len(existing) > 0 {
		out := make([]Step, 0, len(existing))
		for _, st := range s.chain(first.TenantID, first.EntityType, first.EntityID) {
			out = append(out, *st)
		}
		return out, false, nil
	}

	now := time.Now()
	for i := range steps {
		st := steps[i]
		st.Status = StatusPending
		st.CreatedAt = now
		st.UpdatedAt = now
		s.steps[key] = append(s.steps[key], &st)
	}

	out := make([]Step, 0, len(steps))
	for _, st := range s.chain(first.TenantID, first.EntityType, first.EntityID) {
		out = append(out, *st)
	}
	return out, true, nil
}

func (s *memStore) Claim(_ context.Context, claim ClaimParams) (ClaimOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain := s.chain(claim.TenantID, claim.EntityType, claim.EntityID)
	var claimed *Step
	for _, st := range chain {
		if st.LevelOrder == claim.LevelOrder {
			claimed = st
			break
		}
	}
	if claimed == nil || claimed.Status != StatusPending {
		var pending int
		for _, st := range chain {
			if st.Status == StatusPending {
				pending++
			}
		}
		return ClaimOutcome{Claimed: false, PendingRemaining: pending}, nil
	}

	now := time.Now()
	claimed.Status = claim.Target
	claimed.ApproverID = &claim.ApproverID
	claimed.ActionAt = &now
	if claim.Notes != "" {
		notes := claim.Notes
		claimed.Notes = &notes
	}
	claimed.UpdatedAt = now

	outcome := ClaimOutcome{Claimed: true}
	for _, st := range chain {
		if st.LevelOrder > claim.LevelOrder && st.Status == StatusPending && claim.Cascade {
			st.Status = StatusSkipped
			st.UpdatedAt = now
			outcome.Skipped++
		}
	}
	for _, st := range chain {
		if st.Status == StatusPending {
			outcome.PendingRemaining++
		}
	}
	cp := *claimed
	outcome.Step = &cp
	return outcome, nil
}

// memPolicies is an in-memory PolicyStore.
type memPolicies struct {
	policies map[string]*Policy // key tenant|entityType
}

func newMemPolicies(policies ...*Policy) *memPolicies {
	m := &memPolicies{policies: make(map[string]*Policy)}
	for _, p := range policies {
		m.policies[string(p.EntityType)+"|"+p.TenantID] = p
	}
	return m
}

func (m *memPolicies) FindActivePolicy(_ context.Context, tenantID string, entityType EntityType) (*Policy, error) {
	p, ok := m.policies[string(entityType)+"|"+tenantID]
	if !ok || !p.Enabled {
		return nil, nil
	}
	cp := *p
	cp.Levels = append([]Level(nil), p.Levels...)
	return &cp, nil
}

// memDirectory is an in-memory Directory.
type memDirectory struct {
	members map[string]*MemberInfo
}

func newMemDirectory(members ...*MemberInfo) *memDirectory {
	m := &memDirectory{members: make(map[string]*MemberInfo)}
	for _, mb := range members {
		m.members[mb.ID] = mb
	}
	return m
}

func (m *memDirectory) Member(_ context.Context, _, memberID string) (*MemberInfo, error) {
	mb, ok := m.members[memberID]
	if !ok {
		return nil, nil
	}
	cp := *mb
	return &cp, nil
}

func (m *memDirectory) MembersWithRole(_ context.Context, _, role string) ([]MemberInfo, error) {
	var out []MemberInfo
	for _, mb := range m.members {
		if mb.HasRole(role) {
			out = append(out, *mb)
		}
	}
	return out, nil
}

func (m *memDirectory) Admins(_ context.Context, _ string) ([]MemberInfo, error) {
	var out []MemberInfo
	for _, mb := range m.members {
		if mb.IsAdmin {
			out = append(out, *mb)
		}
	}
	return out, nil
}

// dispatchEvent records one dispatcher invocation.
type dispatchEvent struct {
	Kind        string
	Step        Step
	TenantID    string
	EntityType  EntityType
	EntityID    string
	Outcome     Outcome
	RequesterID string
	Notes       string
}

// recordDispatcher captures dispatched events for assertions.
type recordDispatcher struct {
	mu     sync.Mutex
	events []dispatchEvent
}

func (d *recordDispatcher) ChainSubmitted(_ context.Context, first Step, requesterID string) {
	d.record(dispatchEvent{Kind: "submitted", Step: first, RequesterID: requesterID})
}

func (d *recordDispatcher) ChainAdvanced(_ context.Context, next Step, requesterID string) {
	d.record(dispatchEvent{Kind: "advanced", Step: next, RequesterID: requesterID})
}

func (d *recordDispatcher) ChainCompleted(_ context.Context, tenantID string, entityType EntityType, entityID string, outcome Outcome, _, requesterID, notes string) {
	d.record(dispatchEvent{
		Kind: "completed", TenantID: tenantID, EntityType: entityType,
		EntityID: entityID, Outcome: outcome, RequesterID: requesterID, Notes: notes,
	})
}

func (d *recordDispatcher) NoPolicyFallback(_ context.Context, tenantID string, entityType EntityType, entityID string, requesterID string) {
	d.record(dispatchEvent{
		Kind: "fallback", TenantID: tenantID, EntityType: entityType,
		EntityID: entityID, RequesterID: requesterID,
	})
}

func (d *recordDispatcher) record(ev dispatchEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func (d *recordDispatcher) byKind(kind string) []dispatchEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []dispatchEvent
	for _, ev := range d.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// recordAudit captures audit entries.
type recordAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (a *recordAudit) Append(_ context.Context, entry AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

// fakeAdapter records completion callbacks.
type fakeAdapter struct {
	entityType EntityType

	mu          sync.Mutex
	completions []Outcome
}

func (f *fakeAdapter) EntityType() EntityType { return f.entityType }

func (f *fakeAdapter) NotificationContext(_ context.Context, _, entityID string) (NotificationContext, error) {
	return NotificationContext{ReferenceNumber: entityID}, nil
}

func (f *fakeAdapter) OnChainComplete(_ context.Context, _, _ string, outcome Outcome, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completions = append(f.completions, outcome)
	return nil
}
