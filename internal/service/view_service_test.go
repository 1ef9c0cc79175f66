package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"app/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContacts(n int) []model.Contact {
	contacts := make([]model.Contact, 0, n)
	for i := 0; i < n; i++ {
		contacts = append(contacts, model.Contact{
			ID:        fmt.Sprintf("contact-%03d", i),
			FirstName: strPtr(fmt.Sprintf("First%03d", i)),
			LastName:  strPtr("Last"),
			Email:     strPtr(fmt.Sprintf("c%03d@example.com", i)),
		})
	}
	return contacts
}

func testUser() *model.User {
	return &model.User{UserID: uuid.NewString(), Email: "user@example.com", Name: "Test User"}
}

func newViewServiceForTest(t *testing.T, contacts []model.Contact, limit int) (ViewService, *fakeViewRepo, *fakeUserRepo) {
	t.Helper()
	clock := fixedClock{t: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	views := newFakeViewRepo(clock.Now)
	users := newFakeUserRepo()
	contactRepo := &fakeContactRepo{contacts: contacts, views: views}
	svc := NewViewService(views, users, contactRepo, limit, clock, zerolog.Nop())
	return svc, views, users
}

func TestViewContactIdempotent(t *testing.T) {
	contacts := testContacts(3)
	svc, views, _ := newViewServiceForTest(t, contacts, 50)
	user := testUser()
	ctx := context.Background()

	result, err := svc.ViewContact(ctx, user, contacts[0].ID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyViewed)

	// A second unlock of the same contact succeeds without a new charge.
	result, err = svc.ViewContact(ctx, user, contacts[0].ID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyViewed)

	count, err := views.CountViewsInRange(ctx, user.UserID, time.Time{}, time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestViewContactNotFound(t *testing.T) {
	svc, _, _ := newViewServiceForTest(t, testContacts(1), 50)

	_, err := svc.ViewContact(context.Background(), testUser(), "missing")
	assert.ErrorIs(t, err, ErrContactNotFound)
}

func TestViewContactMaterializesUser(t *testing.T) {
	contacts := testContacts(1)
	svc, _, users := newViewServiceForTest(t, contacts, 50)
	user := testUser()

	_, err := svc.ViewContact(context.Background(), user, contacts[0].ID)
	require.NoError(t, err)

	stored, err := users.GetUserByID(context.Background(), user.UserID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, user.Email, stored.Email)
}

func TestViewContactLimitExceeded(t *testing.T) {
	contacts := testContacts(51)
	svc, _, _ := newViewServiceForTest(t, contacts, 50)
	user := testUser()
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		_, err := svc.ViewContact(ctx, user, contacts[i].ID)
		require.NoError(t, err)
	}

	_, err := svc.ViewContact(ctx, user, contacts[50].ID)
	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 50, limitErr.Usage)
	assert.Equal(t, 0, limitErr.Remaining)

	// An already-unlocked contact is still viewable at the limit.
	result, err := svc.ViewContact(ctx, user, contacts[0].ID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyViewed)
}

func TestViewContactConcurrentNeverOvershoots(t *testing.T) {
	contacts := testContacts(60)
	svc, views, _ := newViewServiceForTest(t, contacts, 50)
	user := testUser()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, rejected := 0, 0

	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.ViewContact(ctx, user, id)
			mu.Lock()
			defer mu.Unlock()
			var limitErr *LimitExceededError
			switch {
			case err == nil:
				accepted++
			case errors.As(err, &limitErr):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(contacts[i].ID)
	}
	wg.Wait()

	assert.Equal(t, 50, accepted)
	assert.Equal(t, 10, rejected)
	count, err := views.CountViewsInRange(ctx, user.UserID, time.Time{}, time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 50, count)
}

func TestBulkViewEmptyBatch(t *testing.T) {
	svc, _, _ := newViewServiceForTest(t, testContacts(3), 50)

	result, err := svc.BulkView(context.Background(), testUser(), nil)
	require.NoError(t, err)
	assert.Zero(t, result.Accepted)
	assert.Zero(t, result.Skipped)
}

func TestBulkViewRejectsOversizedBatch(t *testing.T) {
	contacts := testContacts(51)
	svc, views, _ := newViewServiceForTest(t, contacts, 50)
	user := testUser()
	ctx := context.Background()

	ids := make([]string, 0, 51)
	for _, c := range contacts {
		ids = append(ids, c.ID)
	}

	_, err := svc.BulkView(ctx, user, ids)
	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 51, limitErr.Requested)
	assert.Equal(t, 0, limitErr.Usage)
	assert.Equal(t, 50, limitErr.Remaining)

	// The whole batch was rejected; nothing was charged.
	count, err := views.CountViewsInRange(ctx, user.UserID, time.Time{}, time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBulkViewSkipsAlreadyViewed(t *testing.T) {
	contacts := testContacts(3)
	svc, _, _ := newViewServiceForTest(t, contacts, 50)
	user := testUser()
	ctx := context.Background()

	first, err := svc.BulkView(ctx, user, []string{contacts[0].ID, contacts[1].ID})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Accepted)
	assert.Equal(t, 0, first.Skipped)
	assert.Equal(t, 2, first.Usage)

	second, err := svc.BulkView(ctx, user, []string{contacts[0].ID, contacts[1].ID, contacts[2].ID})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Accepted)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, 3, second.Usage)
	assert.Equal(t, 47, second.Remaining)
}

func TestBulkViewAllAlreadyViewed(t *testing.T) {
	contacts := testContacts(2)
	svc, _, _ := newViewServiceForTest(t, contacts, 50)
	user := testUser()
	ctx := context.Background()

	ids := []string{contacts[0].ID, contacts[1].ID}
	_, err := svc.BulkView(ctx, user, ids)
	require.NoError(t, err)

	result, err := svc.BulkView(ctx, user, ids)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Accepted)
	assert.Equal(t, 2, result.Skipped)
}

func TestBulkViewGuardIsPreDedup(t *testing.T) {
	contacts := testContacts(52)
	svc, _, _ := newViewServiceForTest(t, contacts, 50)
	user := testUser()
	ctx := context.Background()

	// Bring usage to 49.
	ids := make([]string, 0, 49)
	for i := 0; i < 49; i++ {
		ids = append(ids, contacts[i].ID)
	}
	_, err := svc.BulkView(ctx, user, ids)
	require.NoError(t, err)

	// One of the two requested ids is already unlocked, so the batch would
	// fit after dedup. The guard counts the raw request length and rejects
	// anyway.
	_, err = svc.BulkView(ctx, user, []string{contacts[0].ID, contacts[50].ID})
	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 49, limitErr.Usage)
	assert.Equal(t, 1, limitErr.Remaining)
}

func TestBulkViewCollapsesDuplicateIDs(t *testing.T) {
	contacts := testContacts(2)
	svc, _, _ := newViewServiceForTest(t, contacts, 50)

	result, err := svc.BulkView(context.Background(), testUser(), []string{
		contacts[0].ID, contacts[0].ID, contacts[1].ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Accepted)
	assert.Equal(t, 0, result.Skipped)
}
