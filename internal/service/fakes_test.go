package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"app/internal/model"
	"app/internal/repository"
)

// fixedClock pins the quota window in tests.
type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

type viewKey struct {
	userID    string
	contactID string
}

// fakeViewRepo mimics the ledger semantics, including the atomic
// check-then-insert: the mutex plays the role of the serializable
// transaction.
type fakeViewRepo struct {
	mu    sync.Mutex
	views map[viewKey]time.Time
	now   func() time.Time
}

func newFakeViewRepo(now func() time.Time) *fakeViewRepo {
	return &fakeViewRepo{views: make(map[viewKey]time.Time), now: now}
}

func (f *fakeViewRepo) CountViewsInRange(_ context.Context, userID string, start, end time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countLocked(userID, start, end), nil
}

func (f *fakeViewRepo) countLocked(userID string, start, end time.Time) int {
	count := 0
	for k, at := range f.views {
		if k.userID == userID && !at.Before(start) && at.Before(end) {
			count++
		}
	}
	return count
}

func (f *fakeViewRepo) ViewedContactIDs(_ context.Context, userID string, contactIDs []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	viewed := make(map[string]bool)
	for _, id := range contactIDs {
		if _, ok := f.views[viewKey{userID, id}]; ok {
			viewed[id] = true
		}
	}
	return viewed, nil
}

func (f *fakeViewRepo) CheckAndRecordView(_ context.Context, userID, contactID string, start, end time.Time, limit int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.views[viewKey{userID, contactID}]; ok {
		return true, nil
	}
	if limit > 0 && f.countLocked(userID, start, end) >= limit {
		return false, repository.ErrDailyViewLimitExceeded
	}
	f.views[viewKey{userID, contactID}] = f.now()
	return false, nil
}

func (f *fakeViewRepo) CheckAndRecordBulkViews(_ context.Context, userID string, contactIDs []string, start, end time.Time, limit int) (repository.BulkViewOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out repository.BulkViewOutcome
	if len(contactIDs) == 0 {
		return out, nil
	}
	out.Usage = f.countLocked(userID, start, end)
	if limit > 0 && out.Usage+len(contactIDs) > limit {
		return out, repository.ErrDailyViewLimitExceeded
	}
	for _, id := range contactIDs {
		if _, ok := f.views[viewKey{userID, id}]; ok {
			out.Skipped++
			continue
		}
		f.views[viewKey{userID, id}] = f.now()
		out.Accepted++
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]model.User)}
}

func (f *fakeUserRepo) EnsureUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[u.UserID]; !ok {
		f.users[u.UserID] = *u
	}
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

// fakeContactRepo serves a static contact set with the same search and
// view-filter semantics as the Postgres implementation.
type fakeContactRepo struct {
	contacts []model.Contact
	views    *fakeViewRepo
	// listCalls counts store hits so cache tests can tell a hit from a miss.
	listCalls int
}

func (f *fakeContactRepo) ListContacts(_ context.Context, search string, filter repository.ViewFilter, userID string, limit, offset int) ([]model.Contact, int, error) {
	f.listCalls++
	matched := make([]model.Contact, 0, len(f.contacts))
	for _, c := range f.contacts {
		if !contactMatches(c, search) {
			continue
		}
		if f.views != nil {
			_, viewed := f.views.views[viewKey{userID, c.ID}]
			if filter == repository.ViewFilterViewed && !viewed {
				continue
			}
			if filter == repository.ViewFilterUnviewed && viewed {
				continue
			}
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool {
		return deref(matched[i].FirstName) < deref(matched[j].FirstName)
	})
	total := len(matched)
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeContactRepo) CountContacts(_ context.Context) (int, error) {
	return len(f.contacts), nil
}

func (f *fakeContactRepo) GetContactByID(_ context.Context, id string) (*model.Contact, error) {
	for _, c := range f.contacts {
		if c.ID == id {
			contact := c
			return &contact, nil
		}
	}
	return nil, nil
}

func contactMatches(c model.Contact, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, field := range []*string{c.FirstName, c.LastName, c.Email, c.Title, c.Department} {
		if field != nil && strings.Contains(strings.ToLower(*field), needle) {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type savedKey struct {
	userID    string
	contactID string
}

type fakeSavedRepo struct {
	mu    sync.Mutex
	saved map[savedKey]time.Time
	base  time.Time
	seq   int
	byID  map[string]model.Contact
}

func newFakeSavedRepo(base time.Time, contacts []model.Contact) *fakeSavedRepo {
	byID := make(map[string]model.Contact)
	for _, c := range contacts {
		byID[c.ID] = c
	}
	return &fakeSavedRepo{saved: make(map[savedKey]time.Time), base: base, byID: byID}
}

func (f *fakeSavedRepo) Save(_ context.Context, userID, contactID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := savedKey{userID, contactID}
	if _, ok := f.saved[key]; !ok {
		// Successive saves get strictly increasing timestamps so the
		// newest-first ordering is deterministic.
		f.saved[key] = f.base.Add(time.Duration(f.seq) * time.Second)
		f.seq++
	}
	return nil
}

func (f *fakeSavedRepo) Unsave(_ context.Context, userID, contactID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, savedKey{userID, contactID})
	return nil
}

func (f *fakeSavedRepo) ListByUser(_ context.Context, userID string) ([]model.SavedContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var saved []model.SavedContact
	for k, at := range f.saved {
		if k.userID != userID {
			continue
		}
		sc := model.SavedContact{UserID: k.userID, ContactID: k.contactID, SavedAt: at}
		if c, ok := f.byID[k.contactID]; ok {
			contact := c
			sc.Contact = &contact
		}
		saved = append(saved, sc)
	}
	sort.Slice(saved, func(i, j int) bool {
		return saved[i].SavedAt.After(saved[j].SavedAt)
	})
	return saved, nil
}

type fakeAgencyRepo struct {
	agencies []model.Agency
	top      []model.AgencyContactCount
	// listCalls counts store hits so cache tests can tell a hit from a miss.
	listCalls int
}

func (f *fakeAgencyRepo) ListAgencies(_ context.Context, search string, limit, offset int) ([]model.Agency, int, error) {
	f.listCalls++
	matched := make([]model.Agency, 0, len(f.agencies))
	for _, a := range f.agencies {
		if search == "" || strings.Contains(strings.ToLower(a.Name), strings.ToLower(search)) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	total := len(matched)
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (f *fakeAgencyRepo) CountAgencies(_ context.Context) (int, error) {
	return len(f.agencies), nil
}

func (f *fakeAgencyRepo) TopAgenciesByContactCount(_ context.Context, limit int) ([]model.AgencyContactCount, error) {
	top := f.top
	if limit < len(top) {
		top = top[:limit]
	}
	return top, nil
}

func strPtr(s string) *string { return &s }
