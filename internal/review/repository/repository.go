// Package repository provides data access for reviews, their assignees and history.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	magiclinkModel "github.com/festy23/reviewdesk/internal/magiclink/model"
	notificationModel "github.com/festy23/reviewdesk/internal/notification/model"
	"github.com/festy23/reviewdesk/internal/review/model"
)

// Repository defines review storage operations.
type Repository interface {
	// Create stores a review.
	Create(ctx context.Context, review *model.Review) error

	// AddAssignees creates pending assignee rows, skipping existing pairs.
	AddAssignees(ctx context.Context, reviewID string, userIDs []string) error

	// AddTags links tags to a review.
	AddTags(ctx context.Context, reviewID string, tagIDs []string) error

	// AddGoals links goals to a review.
	AddGoals(ctx context.Context, reviewID string, goalIDs []string) error

	// GetByID returns a review.
	GetByID(ctx context.Context, id string) (*model.Review, error)

	// GetByIDForUpdate returns a review and locks its row until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*model.Review, error)

	// GetByToken returns the review holding a public token.
	GetByToken(ctx context.Context, token string) (*model.Review, error)

	// ListAssignees returns assignees with their names in creation order.
	ListAssignees(ctx context.Context, reviewID string) ([]model.AssigneeView, error)

	// GetAssignee returns one assignee row.
	GetAssignee(ctx context.Context, reviewID, userID string) (*model.ReviewAssignee, error)

	// SetAssigneeStatus records an assignee's verdict.
	SetAssigneeStatus(
		ctx context.Context,
		reviewID, userID string,
		status model.AssigneeStatus,
		at time.Time,
	) error

	// AssigneeStatuses returns every verdict on a review.
	AssigneeStatuses(ctx context.Context, reviewID string) ([]model.AssigneeStatus, error)

	// ResetAssignees puts every assignee back to pending.
	ResetAssignees(ctx context.Context, reviewID string) error

	// UpdateStatus sets the review status and touches updated_at.
	UpdateStatus(ctx context.Context, id string, status model.Status, at time.Time) error

	// UpdateFields overwrites the given columns and touches updated_at.
	UpdateFields(ctx context.Context, id string, fields map[string]any, at time.Time) error

	// MarkSent moves a draft or shared review to pending. It returns
	// model.ErrAlreadySent when another request got there first.
	MarkSent(ctx context.Context, id string, dueDate *time.Time, at time.Time) error

	// AddComment appends a history entry.
	AddComment(ctx context.Context, comment *model.Comment) error

	// ListComments returns the history oldest first with author names.
	ListComments(ctx context.Context, reviewID string) ([]model.CommentView, error)

	// ListTagIDs returns the tags linked to a review.
	ListTagIDs(ctx context.Context, reviewID string) ([]string, error)

	// ListGoalIDs returns the goals linked to a review.
	ListGoalIDs(ctx context.Context, reviewID string) ([]string, error)

	// RequesterName returns the display name of a user, active or not.
	RequesterName(ctx context.Context, userID string) (string, error)

	// List returns the reviews a user created or is assigned to.
	List(ctx context.Context, userID string, filter model.ListFilter) ([]model.ReviewSummary, error)

	// Delete removes a review with its children. Notifications survive
	// without their review reference.
	Delete(ctx context.Context, id string) error

	// WithTx returns a repository bound to tx.
	WithTx(tx *gorm.DB) Repository
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new review repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx, logger: r.logger}
}

// Create stores a review.
func (r *repository) Create(ctx context.Context, review *model.Review) error {
	r.logger.Debugw("Create called", "title", review.Title, "requester_id", review.RequesterID)

	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		r.logger.Errorw("Create database error", "requester_id", review.RequesterID, "error", err)
		return err
	}
	return nil
}

// AddAssignees creates pending assignee rows, skipping existing pairs.
func (r *repository) AddAssignees(ctx context.Context, reviewID string, userIDs []string) error {
	r.logger.Debugw("AddAssignees called", "review_id", reviewID, "count", len(userIDs))

	if len(userIDs) == 0 {
		return nil
	}
	rows := make([]model.ReviewAssignee, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, model.ReviewAssignee{ReviewID: reviewID, UserID: id, Status: model.AssigneePending})
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "review_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&rows).Error
	if err != nil {
		r.logger.Errorw("AddAssignees database error", "review_id", reviewID, "error", err)
		return err
	}
	return nil
}

// AddTags links tags to a review.
func (r *repository) AddTags(ctx context.Context, reviewID string, tagIDs []string) error {
	r.logger.Debugw("AddTags called", "review_id", reviewID, "count", len(tagIDs))

	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]model.ReviewTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		rows = append(rows, model.ReviewTag{ReviewID: reviewID, TagID: id})
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		r.logger.Errorw("AddTags database error", "review_id", reviewID, "error", err)
		return err
	}
	return nil
}

// AddGoals links goals to a review.
func (r *repository) AddGoals(ctx context.Context, reviewID string, goalIDs []string) error {
	r.logger.Debugw("AddGoals called", "review_id", reviewID, "count", len(goalIDs))

	if len(goalIDs) == 0 {
		return nil
	}
	rows := make([]model.ReviewGoal, 0, len(goalIDs))
	for _, id := range goalIDs {
		rows = append(rows, model.ReviewGoal{ReviewID: reviewID, GoalID: id})
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		r.logger.Errorw("AddGoals database error", "review_id", reviewID, "error", err)
		return err
	}
	return nil
}

// GetByID returns a review.
func (r *repository) GetByID(ctx context.Context, id string) (*model.Review, error) {
	r.logger.Debugw("GetByID called", "review_id", id)
	return r.first(r.db.WithContext(ctx).Where("id = ?", id), "GetByID")
}

// GetByIDForUpdate returns a review and locks its row until the transaction
// ends. SQLite has no row locks; its single writer serializes instead.
func (r *repository) GetByIDForUpdate(ctx context.Context, id string) (*model.Review, error) {
	r.logger.Debugw("GetByIDForUpdate called", "review_id", id)

	q := r.db.WithContext(ctx).Where("id = ?", id)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.first(q, "GetByIDForUpdate")
}

// GetByToken returns the review holding a public token.
func (r *repository) GetByToken(ctx context.Context, token string) (*model.Review, error) {
	r.logger.Debugw("GetByToken called")
	return r.first(r.db.WithContext(ctx).Where("public_token = ?", token), "GetByToken")
}

func (r *repository) first(q *gorm.DB, op string) (*model.Review, error) {
	var review model.Review
	if err := q.First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrReviewNotFound
		}
		r.logger.Errorw(op+" database error", "error", err)
		return nil, err
	}
	return &review, nil
}

// ListAssignees returns assignees with their names in creation order.
func (r *repository) ListAssignees(ctx context.Context, reviewID string) ([]model.AssigneeView, error) {
	r.logger.Debugw("ListAssignees called", "review_id", reviewID)

	var views []model.AssigneeView
	err := r.db.WithContext(ctx).
		Table("review_assignees").
		Select("review_assignees.user_id, users.name, users.email, review_assignees.status, review_assignees.reviewed_at").
		Joins("JOIN users ON users.id = review_assignees.user_id").
		Where("review_assignees.review_id = ?", reviewID).
		Order("review_assignees.created_at ASC, users.name ASC").
		Scan(&views).Error
	if err != nil {
		r.logger.Errorw("ListAssignees database error", "review_id", reviewID, "error", err)
		return nil, err
	}
	return views, nil
}

// GetAssignee returns one assignee row.
func (r *repository) GetAssignee(ctx context.Context, reviewID, userID string) (*model.ReviewAssignee, error) {
	r.logger.Debugw("GetAssignee called", "review_id", reviewID, "user_id", userID)

	var row model.ReviewAssignee
	err := r.db.WithContext(ctx).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotAssignee
		}
		r.logger.Errorw("GetAssignee database error", "review_id", reviewID, "error", err)
		return nil, err
	}
	return &row, nil
}

// SetAssigneeStatus records an assignee's verdict.
func (r *repository) SetAssigneeStatus(
	ctx context.Context,
	reviewID, userID string,
	status model.AssigneeStatus,
	at time.Time,
) error {
	r.logger.Debugw("SetAssigneeStatus called", "review_id", reviewID, "user_id", userID, "status", status)

	result := r.db.WithContext(ctx).
		Model(&model.ReviewAssignee{}).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		Updates(map[string]any{"status": status, "reviewed_at": at})
	if result.Error != nil {
		r.logger.Errorw("SetAssigneeStatus database error", "review_id", reviewID, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return model.ErrNotAssignee
	}
	return nil
}

// AssigneeStatuses returns every verdict on a review.
func (r *repository) AssigneeStatuses(ctx context.Context, reviewID string) ([]model.AssigneeStatus, error) {
	r.logger.Debugw("AssigneeStatuses called", "review_id", reviewID)

	var statuses []model.AssigneeStatus
	err := r.db.WithContext(ctx).
		Model(&model.ReviewAssignee{}).
		Where("review_id = ?", reviewID).
		Pluck("status", &statuses).Error
	if err != nil {
		r.logger.Errorw("AssigneeStatuses database error", "review_id", reviewID, "error", err)
		return nil, err
	}
	return statuses, nil
}

// ResetAssignees puts every assignee back to pending.
func (r *repository) ResetAssignees(ctx context.Context, reviewID string) error {
	r.logger.Debugw("ResetAssignees called", "review_id", reviewID)

	err := r.db.WithContext(ctx).
		Model(&model.ReviewAssignee{}).
		Where("review_id = ?", reviewID).
		Updates(map[string]any{"status": model.AssigneePending, "reviewed_at": nil}).Error
	if err != nil {
		r.logger.Errorw("ResetAssignees database error", "review_id", reviewID, "error", err)
		return err
	}
	return nil
}

// UpdateStatus sets the review status and touches updated_at.
func (r *repository) UpdateStatus(ctx context.Context, id string, status model.Status, at time.Time) error {
	r.logger.Debugw("UpdateStatus called", "review_id", id, "status", status)
	return r.UpdateFields(ctx, id, map[string]any{"status": status}, at)
}

// UpdateFields overwrites the given columns and touches updated_at.
func (r *repository) UpdateFields(ctx context.Context, id string, fields map[string]any, at time.Time) error {
	r.logger.Debugw("UpdateFields called", "review_id", id)

	values := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		values[k] = v
	}
	values["updated_at"] = at

	result := r.db.WithContext(ctx).Model(&model.Review{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		r.logger.Errorw("UpdateFields database error", "review_id", id, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return model.ErrReviewNotFound
	}
	return nil
}

// MarkSent moves a draft or shared review to pending.
func (r *repository) MarkSent(ctx context.Context, id string, dueDate *time.Time, at time.Time) error {
	r.logger.Debugw("MarkSent called", "review_id", id)

	values := map[string]any{"status": model.StatusPending, "updated_at": at}
	if dueDate != nil {
		values["due_date"] = *dueDate
	}
	result := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("id = ? AND status IN ?", id, []model.Status{model.StatusDraft, model.StatusShared}).
		Updates(values)
	if result.Error != nil {
		r.logger.Errorw("MarkSent database error", "review_id", id, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected != 1 {
		return model.ErrAlreadySent
	}
	return nil
}

// AddComment appends a history entry.
func (r *repository) AddComment(ctx context.Context, comment *model.Comment) error {
	r.logger.Debugw("AddComment called", "review_id", comment.ReviewID, "action_type", comment.ActionType)

	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		r.logger.Errorw("AddComment database error", "review_id", comment.ReviewID, "error", err)
		return err
	}
	return nil
}

// commentRow is a comment joined with its member author's name.
type commentRow struct {
	model.Comment
	AuthorName *string
}

// ListComments returns the history oldest first with author names.
func (r *repository) ListComments(ctx context.Context, reviewID string) ([]model.CommentView, error) {
	r.logger.Debugw("ListComments called", "review_id", reviewID)

	var rows []commentRow
	err := r.db.WithContext(ctx).
		Table("comments").
		Select("comments.*, users.name AS author_name").
		Joins("LEFT JOIN users ON users.id = comments.user_id").
		Where("comments.review_id = ?", reviewID).
		Order("comments.created_at ASC").
		Scan(&rows).Error
	if err != nil {
		r.logger.Errorw("ListComments database error", "review_id", reviewID, "error", err)
		return nil, err
	}

	views := make([]model.CommentView, 0, len(rows))
	for _, row := range rows {
		view := model.CommentView{
			ID:         row.ID,
			UserID:     row.UserID,
			ActionType: row.ActionType,
			Content:    row.Content,
			CreatedAt:  row.CreatedAt,
		}
		switch a := row.Author().(type) {
		case model.MemberAuthor:
			if row.AuthorName != nil {
				view.AuthorName = *row.AuthorName
			}
		case model.GuestAuthor:
			view.AuthorName = a.Name
			view.IsGuest = true
		}
		views = append(views, view)
	}
	return views, nil
}

// ListTagIDs returns the tags linked to a review.
func (r *repository) ListTagIDs(ctx context.Context, reviewID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.ReviewTag{}).Where("review_id = ?", reviewID).Pluck("tag_id", &ids).Error
	if err != nil {
		r.logger.Errorw("ListTagIDs database error", "review_id", reviewID, "error", err)
		return nil, err
	}
	return ids, nil
}

// ListGoalIDs returns the goals linked to a review.
func (r *repository) ListGoalIDs(ctx context.Context, reviewID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.ReviewGoal{}).Where("review_id = ?", reviewID).Pluck("goal_id", &ids).Error
	if err != nil {
		r.logger.Errorw("ListGoalIDs database error", "review_id", reviewID, "error", err)
		return nil, err
	}
	return ids, nil
}

const summaryColumns = "reviews.*, users.name AS requester_name, " +
	"(SELECT COUNT(*) FROM review_assignees ra WHERE ra.review_id = reviews.id AND ra.status = 'approved') AS approved_count, " +
	"(SELECT COUNT(*) FROM review_assignees ra WHERE ra.review_id = reviews.id) AS total_assignees"

// List returns the reviews a user created or is assigned to, newest first.
func (r *repository) List(ctx context.Context, userID string, filter model.ListFilter) ([]model.ReviewSummary, error) {
	r.logger.Debugw("List called", "user_id", userID, "filter", filter.Filter, "status", filter.Status)

	q := r.db.WithContext(ctx).
		Table("reviews").
		Joins("JOIN users ON users.id = reviews.requester_id")

	if filter.Filter == model.FilterCreated {
		q = q.Select(summaryColumns).Where("reviews.requester_id = ?", userID)
	} else {
		q = q.Select(summaryColumns+", mine.status AS assignee_status").
			Joins("JOIN review_assignees mine ON mine.review_id = reviews.id AND mine.user_id = ?", userID)
	}
	if filter.Status != "" {
		q = q.Where("reviews.status = ?", filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		q = q.Where("(LOWER(reviews.title) LIKE ? OR LOWER(reviews.description) LIKE ?)", pattern, pattern)
	}

	var summaries []model.ReviewSummary
	if err := q.Order("reviews.created_at DESC").Scan(&summaries).Error; err != nil {
		r.logger.Errorw("List database error", "user_id", userID, "error", err)
		return nil, err
	}
	return summaries, nil
}

// Delete removes a review with its children. Call it inside a transaction.
func (r *repository) Delete(ctx context.Context, id string) error {
	r.logger.Debugw("Delete called", "review_id", id)

	db := r.db.WithContext(ctx)
	children := []any{
		&model.Comment{},
		&model.ReviewAssignee{},
		&model.ReviewTag{},
		&model.ReviewGoal{},
		&magiclinkModel.MagicLink{},
	}
	for _, child := range children {
		if err := db.Where("review_id = ?", id).Delete(child).Error; err != nil {
			r.logger.Errorw("Delete children database error", "review_id", id, "error", err)
			return err
		}
	}

	err := db.Model(&notificationModel.Notification{}).
		Where("review_id = ?", id).
		Update("review_id", gorm.Expr("NULL")).Error
	if err != nil {
		r.logger.Errorw("Delete notifications database error", "review_id", id, "error", err)
		return err
	}

	result := db.Where("id = ?", id).Delete(&model.Review{})
	if result.Error != nil {
		r.logger.Errorw("Delete database error", "review_id", id, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return model.ErrReviewNotFound
	}
	return nil
}

// RequesterName returns the display name of a user, active or not.
func (r *repository) RequesterName(ctx context.Context, userID string) (string, error) {
	var names []string
	err := r.db.WithContext(ctx).Table("users").Where("id = ?", userID).Limit(1).Pluck("name", &names).Error
	if err != nil {
		r.logger.Errorw("RequesterName database error", "user_id", userID, "error", err)
		return "", err
	}
	if len(names) == 0 {
		return "", nil
	}
	return names[0], nil
}
