package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/festy23/reviewdesk/internal/database/dbtest"
	magiclinkModel "github.com/festy23/reviewdesk/internal/magiclink/model"
	notificationModel "github.com/festy23/reviewdesk/internal/notification/model"
	"github.com/festy23/reviewdesk/internal/review/model"
	userModel "github.com/festy23/reviewdesk/internal/user/model"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newUser(t *testing.T, db *gorm.DB, name string) *userModel.User {
	t.Helper()
	u := &userModel.User{Email: name + "@example.com", Name: name, PasswordHash: "x", Role: userModel.RoleMember, IsActive: true}
	require.NoError(t, db.Create(u).Error)
	return u
}

func newReview(t *testing.T, repo Repository, requester, title string, status model.Status, at time.Time) *model.Review {
	t.Helper()
	r := &model.Review{
		Title:       title,
		ContentType: model.DefaultContentType,
		Status:      status,
		RequesterID: requester,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	require.NoError(t, repo.Create(context.Background(), r))
	return r
}

func TestRepository_AssigneesAndVerdicts(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := New(db, zap.NewNop().Sugar())
	owner := newUser(t, db, "owner")
	alice := newUser(t, db, "alice")
	bob := newUser(t, db, "bob")
	r := newReview(t, repo, owner.ID, "Spring campaign", model.StatusPending, base)

	require.NoError(t, repo.AddAssignees(ctx, r.ID, []string{alice.ID, bob.ID}))
	require.NoError(t, repo.AddAssignees(ctx, r.ID, []string{alice.ID}))

	views, err := repo.ListAssignees(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Equal(t, model.AssigneePending, v.Status)
		assert.NotEmpty(t, v.Name)
	}

	require.NoError(t, repo.SetAssigneeStatus(ctx, r.ID, alice.ID, model.AssigneeApproved, base))
	err = repo.SetAssigneeStatus(ctx, r.ID, owner.ID, model.AssigneeApproved, base)
	assert.ErrorIs(t, err, model.ErrNotAssignee)

	statuses, err := repo.AssigneeStatuses(ctx, r.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.AssigneeStatus{model.AssigneeApproved, model.AssigneePending}, statuses)

	row, err := repo.GetAssignee(ctx, r.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, row.ReviewedAt)

	_, err = repo.GetAssignee(ctx, r.ID, owner.ID)
	assert.ErrorIs(t, err, model.ErrNotAssignee)

	require.NoError(t, repo.ResetAssignees(ctx, r.ID))
	row, err = repo.GetAssignee(ctx, r.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssigneePending, row.Status)
	assert.Nil(t, row.ReviewedAt)
}

func TestRepository_MarkSentOnlyOnce(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := New(db, zap.NewNop().Sugar())
	owner := newUser(t, db, "owner")
	r := newReview(t, repo, owner.ID, "Draft", model.StatusDraft, base)
	due := base.AddDate(0, 0, 3)

	require.NoError(t, repo.MarkSent(ctx, r.ID, &due, base.Add(time.Hour)))
	err := repo.MarkSent(ctx, r.ID, nil, base.Add(2*time.Hour))
	assert.ErrorIs(t, err, model.ErrAlreadySent)

	got, err := repo.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))
	assert.True(t, got.UpdatedAt.Equal(base.Add(time.Hour)))
}

func TestRepository_GetByToken(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := New(db, zap.NewNop().Sugar())
	owner := newUser(t, db, "owner")
	tok := "AbCdEfGhIjKlMnOpQrStUvWxYz012345"
	r := &model.Review{Title: "Shared", ContentType: "post", Status: model.StatusShared, RequesterID: owner.ID, PublicToken: &tok}
	require.NoError(t, repo.Create(ctx, r))

	got, err := repo.GetByToken(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	_, err = repo.GetByToken(ctx, "unknown")
	assert.ErrorIs(t, err, model.ErrReviewNotFound)

	_, err = repo.GetByIDForUpdate(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrReviewNotFound)
}

func TestRepository_Comments(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := New(db, zap.NewNop().Sugar())
	owner := newUser(t, db, "owner")
	r := newReview(t, repo, owner.ID, "Copy", model.StatusPending, base)

	first := model.NewComment(r.ID, model.MemberAuthor{UserID: owner.ID}, model.ActionComment, "please check")
	first.CreatedAt = base
	second := model.NewComment(r.ID, model.GuestAuthor{Name: "Gina"}, model.ActionRejected, "typo")
	second.CreatedAt = base.Add(time.Minute)
	require.NoError(t, repo.AddComment(ctx, second))
	require.NoError(t, repo.AddComment(ctx, first))

	views, err := repo.ListComments(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "owner", views[0].AuthorName)
	assert.False(t, views[0].IsGuest)
	assert.Equal(t, "Gina", views[1].AuthorName)
	assert.True(t, views[1].IsGuest)
	assert.Equal(t, model.ActionRejected, views[1].ActionType)
}

func TestRepository_CommentsRejectUnknownActionType(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := New(db, zap.NewNop().Sugar())
	owner := newUser(t, db, "owner")
	r := newReview(t, repo, owner.ID, "Copy", model.StatusPending, base)

	require.NoError(t, db.Exec(
		"INSERT INTO comments (id, review_id, guest_name, action_type, content, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		"c-1", r.ID, "Gina", "escalated", "??", base,
	).Error)

	_, err := repo.ListComments(ctx, r.ID)
	assert.Error(t, err)
}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := New(db, zap.NewNop().Sugar())
	owner := newUser(t, db, "owner")
	alice := newUser(t, db, "alice")
	bob := newUser(t, db, "bob")

	older := newReview(t, repo, owner.ID, "Newsletter April", model.StatusInReview, base)
	newer := newReview(t, repo, owner.ID, "Landing page", model.StatusPending, base.Add(time.Hour))
	other := newReview(t, repo, alice.ID, "Alice's deck", model.StatusPending, base.Add(2*time.Hour))
	require.NoError(t, repo.AddAssignees(ctx, older.ID, []string{alice.ID, bob.ID}))
	require.NoError(t, repo.AddAssignees(ctx, newer.ID, []string{alice.ID}))
	require.NoError(t, repo.AddAssignees(ctx, other.ID, []string{bob.ID}))
	require.NoError(t, repo.SetAssigneeStatus(ctx, older.ID, bob.ID, model.AssigneeApproved, base))

	created, err := repo.List(ctx, owner.ID, model.ListFilter{Filter: model.FilterCreated})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, newer.ID, created[0].ID)
	assert.Equal(t, older.ID, created[1].ID)
	assert.Equal(t, "owner", created[1].RequesterName)
	assert.Equal(t, int64(1), created[1].ApprovedCount)
	assert.Equal(t, int64(2), created[1].TotalAssignees)
	assert.Nil(t, created[1].AssigneeStatus)

	assigned, err := repo.List(ctx, bob.ID, model.ListFilter{Filter: model.FilterAssigned})
	require.NoError(t, err)
	require.Len(t, assigned, 2)
	assert.Equal(t, other.ID, assigned[0].ID)
	require.NotNil(t, assigned[1].AssigneeStatus)
	assert.Equal(t, model.AssigneeApproved, *assigned[1].AssigneeStatus)

	filtered, err := repo.List(ctx, alice.ID, model.ListFilter{Status: model.StatusInReview})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, older.ID, filtered[0].ID)

	searched, err := repo.List(ctx, owner.ID, model.ListFilter{Filter: model.FilterCreated, Search: "LANDING"})
	require.NoError(t, err)
	require.Len(t, searched, 1)
	assert.Equal(t, newer.ID, searched[0].ID)
}

func TestRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := New(db, zap.NewNop().Sugar())
	owner := newUser(t, db, "owner")
	alice := newUser(t, db, "alice")
	r := newReview(t, repo, owner.ID, "Doomed", model.StatusPending, base)
	keep := newReview(t, repo, owner.ID, "Survivor", model.StatusPending, base)

	for _, id := range []string{r.ID, keep.ID} {
		require.NoError(t, repo.AddAssignees(ctx, id, []string{alice.ID}))
		require.NoError(t, repo.AddTags(ctx, id, []string{"tag-1"}))
		require.NoError(t, repo.AddGoals(ctx, id, []string{"goal-1"}))
		require.NoError(t, repo.AddComment(ctx, model.NewComment(id, model.MemberAuthor{UserID: owner.ID}, model.ActionComment, "hi")))
	}
	reviewID := r.ID
	link := &magiclinkModel.MagicLink{Token: "T0k3nT0k3nT0k3nT0k3nT0k3nT0k3n12", UserID: alice.ID, ReviewID: &reviewID, Type: magiclinkModel.TypeReview, ExpiresAt: base.AddDate(0, 0, 7)}
	require.NoError(t, db.Create(link).Error)
	n := &notificationModel.Notification{UserID: alice.ID, ReviewID: &reviewID, Type: notificationModel.TypeReviewRequest, Message: "please review"}
	require.NoError(t, db.Create(n).Error)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).Delete(ctx, r.ID)
	}))

	_, err := repo.GetByID(ctx, r.ID)
	assert.ErrorIs(t, err, model.ErrReviewNotFound)
	for _, table := range []string{"comments", "review_assignees", "review_tags", "review_goals", "magic_links"} {
		var count int64
		require.NoError(t, db.Table(table).Where("review_id = ?", r.ID).Count(&count).Error)
		assert.Zero(t, count, table)
		require.NoError(t, db.Table(table).Where("review_id = ?", keep.ID).Count(&count).Error)
		if table != "magic_links" {
			assert.Equal(t, int64(1), count, table)
		}
	}

	var orphan notificationModel.Notification
	require.NoError(t, db.First(&orphan, "id = ?", n.ID).Error)
	assert.Nil(t, orphan.ReviewID)

	assert.ErrorIs(t, repo.Delete(ctx, r.ID), model.ErrReviewNotFound)
}
