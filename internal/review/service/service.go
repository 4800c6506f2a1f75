// Package service implements the review state machine: creation, verdicts,
// aggregation, resubmission and the public-link guest flow.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	accessModel "github.com/festy23/reviewdesk/internal/access/model"
	dispatchModel "github.com/festy23/reviewdesk/internal/dispatch/model"
	"github.com/festy23/reviewdesk/internal/dispatch/queue"
	notificationModel "github.com/festy23/reviewdesk/internal/notification/model"
	notificationRepository "github.com/festy23/reviewdesk/internal/notification/repository"
	"github.com/festy23/reviewdesk/internal/review/model"
	"github.com/festy23/reviewdesk/internal/review/repository"
	userModel "github.com/festy23/reviewdesk/internal/user/model"
	"github.com/festy23/reviewdesk/pkg/token"
)

// Service defines review operations. Member operations take the acting
// member; guest operations take the public token.
type Service interface {
	// Create stores a review, as a draft or sent to its assignees at once.
	Create(ctx context.Context, actor accessModel.Member, req *model.CreateReviewRequest) (*model.ReviewDetail, error)

	// Get returns a review visible to the actor.
	Get(ctx context.Context, actor accessModel.Member, id string) (*model.ReviewDetail, error)

	// List returns the reviews the actor is assigned to or created.
	List(ctx context.Context, actor accessModel.Member, filter model.ListFilter) ([]model.ReviewSummary, error)

	// Update overwrites the editable fields of a review.
	Update(
		ctx context.Context,
		actor accessModel.Member,
		id string,
		req *model.UpdateReviewRequest,
	) (*model.ReviewDetail, error)

	// Delete removes a review and everything attached to it.
	Delete(ctx context.Context, actor accessModel.Member, id string) error

	// Notify sends a draft to its assignees.
	Notify(ctx context.Context, actor accessModel.Member, id string, req *model.NotifyRequest) (int, error)

	// Remind re-notifies assignees who have not decided yet.
	Remind(ctx context.Context, actor accessModel.Member, id string) (int, error)

	// Approve records the actor's approval as an assignee.
	Approve(ctx context.Context, actor accessModel.Member, id string, req *model.VerdictRequest) (*model.ReviewDetail, error)

	// Reject records the actor's rejection as an assignee.
	Reject(ctx context.Context, actor accessModel.Member, id string, req *model.VerdictRequest) (*model.ReviewDetail, error)

	// Resubmit sends a revised review back to all assignees.
	Resubmit(
		ctx context.Context,
		actor accessModel.Member,
		id string,
		req *model.ResubmitRequest,
	) (*model.ReviewDetail, error)

	// Comment appends a plain comment.
	Comment(ctx context.Context, actor accessModel.Member, id string, req *model.CommentRequest) (*model.ReviewDetail, error)

	// ToggleLock flips the lock that freezes a review.
	ToggleLock(ctx context.Context, actor accessModel.Member, id string) (*model.ReviewDetail, error)

	// Share returns the public link of a review, minting it if needed.
	Share(ctx context.Context, actor accessModel.Member, id string) (*model.ShareResponse, error)

	// GetPublic returns the guest view of a review.
	GetPublic(ctx context.Context, publicToken string) (*model.ReviewDetail, error)

	// GuestApprove records a guest approval according to the configured policy.
	GuestApprove(ctx context.Context, publicToken string, req *model.GuestVerdictRequest) (*model.ReviewDetail, error)

	// GuestReject records a guest rejection.
	GuestReject(ctx context.Context, publicToken string, req *model.GuestVerdictRequest) (*model.ReviewDetail, error)

	// GuestComment appends a guest comment.
	GuestComment(ctx context.Context, publicToken string, req *model.CommentRequest) (*model.ReviewDetail, error)

	// GuestResubmit sends a review revised by a guest back to all assignees.
	GuestResubmit(ctx context.Context, publicToken string, req *model.ResubmitRequest) (*model.ReviewDetail, error)
}

// Members looks up active accounts.
type Members interface {
	ListActiveByIDs(ctx context.Context, ids []string) ([]userModel.User, error)
}

// Deps are the collaborators of the service.
type Deps struct {
	Reviews       repository.Repository
	Notifications notificationRepository.Repository
	Members       Members
	Publisher     queue.Publisher
}

// Options configure the service.
type Options struct {
	// BaseURL prefixes public links.
	BaseURL string
	// GuestApproval decides what a guest approval does.
	GuestApproval model.GuestApprovalPolicy
}

// Option customizes the service.
type Option func(*service)

// WithClock replaces the UTC wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	db            *gorm.DB
	reviews       repository.Repository
	notifications notificationRepository.Repository
	members       Members
	publisher     queue.Publisher
	baseURL       string
	guestApproval model.GuestApprovalPolicy
	now           func() time.Time
	logger        *zap.SugaredLogger
}

// New creates a new review service instance.
func New(db *gorm.DB, deps Deps, opts Options, logger *zap.SugaredLogger, options ...Option) Service {
	s := &service{
		db:            db,
		reviews:       deps.Reviews,
		notifications: deps.Notifications,
		members:       deps.Members,
		publisher:     deps.Publisher,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		guestApproval: opts.GuestApproval,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logger,
	}
	if s.guestApproval == "" {
		s.guestApproval = model.GuestApprovalTerminal
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// unitOfWork holds the transaction-bound repositories of one transition and
// the emails to queue once it commits.
type unitOfWork struct {
	reviews       repository.Repository
	notifications notificationRepository.Repository
	outbox        []dispatchModel.Message
	now           time.Time
}

// transact runs fn in a transaction and queues its emails after commit. It
// returns how many emails the queue accepted.
func (s *service) transact(ctx context.Context, fn func(uow *unitOfWork) error) (int, error) {
	var uow *unitOfWork
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		uow = &unitOfWork{
			reviews:       s.reviews.WithTx(tx),
			notifications: s.notifications.WithTx(tx),
			now:           s.now(),
		}
		return fn(uow)
	})
	if err != nil {
		return 0, err
	}
	return s.publish(uow.outbox), nil
}

func (s *service) publish(outbox []dispatchModel.Message) int {
	queued := 0
	for _, msg := range outbox {
		if s.publisher.TryPublish(msg) {
			queued++
			continue
		}
		s.logger.Warnw("Email dropped by dispatch queue", "notification_id", msg.NotificationID)
	}
	return queued
}

// notify stores an inbox entry and schedules its email.
func (u *unitOfWork) notify(
	ctx context.Context,
	userID, reviewID string,
	typ notificationModel.Type,
	message string,
	withMagicLink bool,
) error {
	n := &notificationModel.Notification{
		UserID:    userID,
		ReviewID:  &reviewID,
		Type:      typ,
		Message:   message,
		CreatedAt: u.now,
	}
	if err := u.notifications.Create(ctx, n); err != nil {
		return err
	}
	u.outbox = append(u.outbox, dispatchModel.Message{NotificationID: n.ID, WithMagicLink: withMagicLink})
	return nil
}

// record appends the history entry of a transition.
func (u *unitOfWork) record(
	ctx context.Context,
	reviewID string,
	author model.Author,
	action model.ActionType,
	content string,
) error {
	c := model.NewComment(reviewID, author, action, content)
	c.CreatedAt = u.now
	return u.reviews.AddComment(ctx, c)
}

// requestReview notifies each assignee with a magic link to the review.
func (u *unitOfWork) requestReview(ctx context.Context, review *model.Review, actorName, note string) error {
	assignees, err := u.reviews.ListAssignees(ctx, review.ID)
	if err != nil {
		return err
	}
	if len(assignees) == 0 {
		return model.ErrRecipientsRequired
	}
	msg := requestMessage(actorName, review.Title, note)
	for _, a := range assignees {
		if err := u.notify(ctx, a.UserID, review.ID, notificationModel.TypeReviewRequest, msg, true); err != nil {
			return err
		}
	}
	return nil
}

// Create stores a review, as a draft or sent to its assignees at once.
func (s *service) Create(
	ctx context.Context,
	actor accessModel.Member,
	req *model.CreateReviewRequest,
) (*model.ReviewDetail, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, model.ErrTitleRequired
	}
	assigneeIDs := dedupe(req.AssigneeIDs)
	if len(assigneeIDs) == 0 {
		return nil, model.ErrAssigneesRequired
	}
	if err := s.requireActive(ctx, assigneeIDs); err != nil {
		return nil, err
	}

	publicToken, err := token.New()
	if err != nil {
		return nil, err
	}
	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = model.DefaultContentType
	}
	status := model.StatusPending
	if req.Draft {
		status = model.StatusDraft
	}

	review := &model.Review{
		Title:       title,
		Description: req.Description,
		TargetURL:   model.JoinTargetURLs(req.TargetURLs),
		ContentType: contentType,
		Status:      status,
		RequesterID: actor.UserID,
		DueDate:     req.DueDate,
		PublicToken: &publicToken,
	}

	queued, err := s.transact(ctx, func(uow *unitOfWork) error {
		review.CreatedAt = uow.now
		review.UpdatedAt = uow.now
		if err := uow.reviews.Create(ctx, review); err != nil {
			return err
		}
		if err := uow.reviews.AddAssignees(ctx, review.ID, assigneeIDs); err != nil {
			return err
		}
		if err := uow.reviews.AddTags(ctx, review.ID, dedupe(req.TagIDs)); err != nil {
			return err
		}
		if err := uow.reviews.AddGoals(ctx, review.ID, dedupe(req.GoalIDs)); err != nil {
			return err
		}
		if req.Draft {
			return nil
		}
		return uow.requestReview(ctx, review, actor.Name, "")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Review created",
		"review_id", review.ID, "requester_id", actor.UserID, "status", status, "queued", queued)
	return s.detailByID(ctx, review.ID, true)
}

// Get returns a review visible to the actor.
func (s *service) Get(ctx context.Context, actor accessModel.Member, id string) (*model.ReviewDetail, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireVisible(ctx, actor, review); err != nil {
		return nil, err
	}
	return s.detail(ctx, review, canManage(actor, review))
}

// List returns the reviews the actor is assigned to or created.
func (s *service) List(
	ctx context.Context,
	actor accessModel.Member,
	filter model.ListFilter,
) ([]model.ReviewSummary, error) {
	if filter.Filter != model.FilterCreated {
		filter.Filter = model.FilterAssigned
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, model.ErrInvalidStatus
	}
	summaries, err := s.reviews.List(ctx, actor.UserID, filter)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []model.ReviewSummary{}
	}
	return summaries, nil
}

// Update overwrites the editable fields of a review.
func (s *service) Update(
	ctx context.Context,
	actor accessModel.Member,
	id string,
	req *model.UpdateReviewRequest,
) (*model.ReviewDetail, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, model.ErrTitleRequired
	}
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, review) {
		return nil, model.ErrNotRequester
	}
	if review.IsLocked {
		return nil, model.ErrLocked
	}

	fields := map[string]any{
		"title":       title,
		"description": req.Description,
		"target_url":  model.JoinTargetURLs(req.TargetURLs),
	}
	if req.DueDate != nil {
		fields["due_date"] = *req.DueDate
	}
	if err := s.reviews.UpdateFields(ctx, id, fields, s.now()); err != nil {
		return nil, err
	}
	return s.detailByID(ctx, id, true)
}

// Delete removes a review and everything attached to it.
func (s *service) Delete(ctx context.Context, actor accessModel.Member, id string) error {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, review) {
		return model.ErrNotRequester
	}
	if _, err := s.transact(ctx, func(uow *unitOfWork) error {
		return uow.reviews.Delete(ctx, id)
	}); err != nil {
		return err
	}
	s.logger.Infow("Review deleted", "review_id", id, "actor_id", actor.UserID)
	return nil
}

// Notify sends a draft to its assignees. Extra user ids become assignees.
func (s *service) Notify(
	ctx context.Context,
	actor accessModel.Member,
	id string,
	req *model.NotifyRequest,
) (int, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if review.RequesterID != actor.UserID {
		return 0, model.ErrNotRequester
	}
	extra := dedupe(req.UserIDs)
	if err := s.requireActive(ctx, extra); err != nil {
		return 0, err
	}
	note := strings.TrimSpace(req.Message)

	queued, err := s.transact(ctx, func(uow *unitOfWork) error {
		if err := uow.reviews.MarkSent(ctx, id, req.DueDate, uow.now); err != nil {
			return err
		}
		if err := uow.reviews.AddAssignees(ctx, id, extra); err != nil {
			return err
		}
		if err := uow.requestReview(ctx, review, actor.Name, note); err != nil {
			return err
		}
		content := historyRequested
		if note != "" {
			content += ": " + note
		}
		return uow.record(ctx, id, model.MemberAuthor{UserID: actor.UserID}, model.ActionComment, content)
	})
	if err != nil {
		return 0, err
	}
	s.logger.Infow("Review sent", "review_id", id, "queued", queued)
	return queued, nil
}

// Remind re-notifies assignees who have not decided yet.
func (s *service) Remind(ctx context.Context, actor accessModel.Member, id string) (int, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if review.RequesterID != actor.UserID {
		return 0, model.ErrNotRequester
	}
	switch review.Status {
	case model.StatusPending, model.StatusInReview, model.StatusShared:
	default:
		return 0, model.ErrInvalidTransition
	}

	queued, err := s.transact(ctx, func(uow *unitOfWork) error {
		assignees, err := uow.reviews.ListAssignees(ctx, id)
		if err != nil {
			return err
		}
		msg := reminderMessage(actor.Name, review.Title)
		for _, a := range assignees {
			if a.Status != model.AssigneePending {
				continue
			}
			if err := uow.notify(ctx, a.UserID, id, notificationModel.TypeReminder, msg, true); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Infow("Review reminder sent", "review_id", id, "queued", queued)
	return queued, nil
}

// Approve records the actor's approval as an assignee.
func (s *service) Approve(
	ctx context.Context,
	actor accessModel.Member,
	id string,
	req *model.VerdictRequest,
) (*model.ReviewDetail, error) {
	return s.memberVerdict(ctx, actor, id, model.AssigneeApproved, strings.TrimSpace(req.Reason), req.Notify())
}

// Reject records the actor's rejection as an assignee.
func (s *service) Reject(
	ctx context.Context,
	actor accessModel.Member,
	id string,
	req *model.VerdictRequest,
) (*model.ReviewDetail, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, model.ErrReasonRequired
	}
	return s.memberVerdict(ctx, actor, id, model.AssigneeRejected, reason, req.Notify())
}

// memberVerdict applies an assignee's verdict under the review row lock and
// aggregates the result.
func (s *service) memberVerdict(
	ctx context.Context,
	actor accessModel.Member,
	id string,
	verdict model.AssigneeStatus,
	reason string,
	notifyRequester bool,
) (*model.ReviewDetail, error) {
	var status model.Status
	_, err := s.transact(ctx, func(uow *unitOfWork) error {
		review, err := uow.reviews.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if _, err := uow.reviews.GetAssignee(ctx, id, actor.UserID); err != nil {
			return err
		}
		if err := acceptsVerdict(review); err != nil {
			return err
		}

		if err := uow.reviews.SetAssigneeStatus(ctx, id, actor.UserID, verdict, uow.now); err != nil {
			return err
		}
		verdicts, err := uow.reviews.AssigneeStatuses(ctx, id)
		if err != nil {
			return err
		}
		status = model.Aggregate(verdicts)
		if err := uow.reviews.UpdateStatus(ctx, id, status, uow.now); err != nil {
			return err
		}

		author := model.MemberAuthor{UserID: actor.UserID}
		action, content, message := verdictTexts(verdict, actor.Name, review.Title, reason)
		if err := uow.record(ctx, id, author, action, content); err != nil {
			return err
		}
		if !notifyRequester || review.RequesterID == actor.UserID {
			return nil
		}
		return uow.notify(ctx, review.RequesterID, id, notificationModel.TypeApproval, message, false)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Review verdict recorded",
		"review_id", id, "assignee_id", actor.UserID, "verdict", verdict, "status", status)
	return s.detailByID(ctx, id, false)
}

// Resubmit sends a revised review back to all assignees.
func (s *service) Resubmit(
	ctx context.Context,
	actor accessModel.Member,
	id string,
	req *model.ResubmitRequest,
) (*model.ReviewDetail, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, model.ErrTitleRequired
	}

	_, err := s.transact(ctx, func(uow *unitOfWork) error {
		review, err := uow.reviews.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if review.RequesterID != actor.UserID {
			if _, err := uow.reviews.GetAssignee(ctx, id, actor.UserID); err != nil {
				if errors.Is(err, model.ErrNotAssignee) {
					return model.ErrForbidden
				}
				return err
			}
		}
		if err := uow.resubmit(ctx, review, title, req.Description, model.MemberAuthor{UserID: actor.UserID}); err != nil {
			return err
		}
		if review.RequesterID == actor.UserID {
			return uow.requestReview(ctx, review, actor.Name, "")
		}
		return uow.notify(ctx, review.RequesterID, id, notificationModel.TypeComment,
			resubmittedMessage(actor.Name, review.Title), false)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("Review resubmitted", "review_id", id, "actor_id", actor.UserID)
	return s.detailByID(ctx, id, false)
}

// resubmit overwrites the content and restarts the review round.
func (u *unitOfWork) resubmit(
	ctx context.Context,
	review *model.Review,
	title, description string,
	author model.Author,
) error {
	if review.IsLocked {
		return model.ErrLocked
	}
	if review.Status == model.StatusDraft {
		return model.ErrInvalidTransition
	}
	fields := map[string]any{
		"title":       title,
		"description": description,
		"status":      model.StatusPending,
	}
	if err := u.reviews.UpdateFields(ctx, review.ID, fields, u.now); err != nil {
		return err
	}
	if err := u.reviews.ResetAssignees(ctx, review.ID); err != nil {
		return err
	}
	review.Title = title
	return u.record(ctx, review.ID, author, model.ActionResubmitted, historyResubmitted)
}

// Comment appends a plain comment.
func (s *service) Comment(
	ctx context.Context,
	actor accessModel.Member,
	id string,
	req *model.CommentRequest,
) (*model.ReviewDetail, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, model.ErrContentRequired
	}
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireVisible(ctx, actor, review); err != nil {
		return nil, err
	}

	c := model.NewComment(id, model.MemberAuthor{UserID: actor.UserID}, model.ActionComment, content)
	c.CreatedAt = s.now()
	if err := s.reviews.AddComment(ctx, c); err != nil {
		return nil, err
	}
	return s.detail(ctx, review, canManage(actor, review))
}

// ToggleLock flips the lock that freezes a review.
func (s *service) ToggleLock(ctx context.Context, actor accessModel.Member, id string) (*model.ReviewDetail, error) {
	_, err := s.transact(ctx, func(uow *unitOfWork) error {
		review, err := uow.reviews.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !canManage(actor, review) {
			return model.ErrNotRequester
		}
		locked := !review.IsLocked
		if err := uow.reviews.UpdateFields(ctx, id, map[string]any{"is_locked": locked}, uow.now); err != nil {
			return err
		}
		content := historyUnlocked
		if locked {
			content = historyLocked
		}
		return uow.record(ctx, id, model.MemberAuthor{UserID: actor.UserID}, model.ActionComment, content)
	})
	if err != nil {
		return nil, err
	}
	return s.detailByID(ctx, id, true)
}

// Share returns the public link of a review, minting it if needed. Sharing a
// draft moves it to shared.
func (s *service) Share(ctx context.Context, actor accessModel.Member, id string) (*model.ShareResponse, error) {
	fresh, err := token.New()
	if err != nil {
		return nil, err
	}

	var publicToken string
	_, err = s.transact(ctx, func(uow *unitOfWork) error {
		review, err := uow.reviews.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !canManage(actor, review) {
			return model.ErrNotRequester
		}
		if review.PublicToken != nil && *review.PublicToken != "" {
			publicToken = *review.PublicToken
		} else {
			publicToken = fresh
			if err := uow.reviews.UpdateFields(ctx, id, map[string]any{"public_token": fresh}, uow.now); err != nil {
				return err
			}
		}
		if review.Status != model.StatusDraft {
			return nil
		}
		if err := uow.reviews.UpdateStatus(ctx, id, model.StatusShared, uow.now); err != nil {
			return err
		}
		return uow.record(ctx, id, model.MemberAuthor{UserID: actor.UserID}, model.ActionComment, historyShared)
	})
	if err != nil {
		return nil, err
	}
	return &model.ShareResponse{Token: publicToken, URL: s.publicURL(publicToken)}, nil
}

// GetPublic returns the guest view of a review.
func (s *service) GetPublic(ctx context.Context, publicToken string) (*model.ReviewDetail, error) {
	review, err := s.byToken(ctx, publicToken)
	if err != nil {
		return nil, err
	}
	return s.guestDetail(ctx, review.ID)
}

// GuestApprove records a guest approval according to the configured policy.
func (s *service) GuestApprove(
	ctx context.Context,
	publicToken string,
	req *model.GuestVerdictRequest,
) (*model.ReviewDetail, error) {
	return s.guestVerdict(ctx, publicToken, req, model.AssigneeApproved)
}

// GuestReject records a guest rejection.
func (s *service) GuestReject(
	ctx context.Context,
	publicToken string,
	req *model.GuestVerdictRequest,
) (*model.ReviewDetail, error) {
	return s.guestVerdict(ctx, publicToken, req, model.AssigneeRejected)
}

func (s *service) guestVerdict(
	ctx context.Context,
	publicToken string,
	req *model.GuestVerdictRequest,
	verdict model.AssigneeStatus,
) (*model.ReviewDetail, error) {
	name := strings.TrimSpace(req.GuestName)
	if name == "" {
		return nil, model.ErrGuestNameRequired
	}
	reason := strings.TrimSpace(req.Reason)
	if verdict == model.AssigneeRejected && reason == "" {
		return nil, model.ErrReasonRequired
	}
	found, err := s.byToken(ctx, publicToken)
	if err != nil {
		return nil, err
	}

	_, err = s.transact(ctx, func(uow *unitOfWork) error {
		review, err := uow.reviews.GetByIDForUpdate(ctx, found.ID)
		if err != nil {
			return err
		}
		if err := acceptsVerdict(review); err != nil {
			return err
		}

		switch {
		case verdict == model.AssigneeRejected:
			err = uow.reviews.UpdateStatus(ctx, review.ID, model.StatusRejected, uow.now)
		case s.guestApproval == model.GuestApprovalTerminal:
			err = uow.reviews.UpdateStatus(ctx, review.ID, model.StatusApproved, uow.now)
		}
		if err != nil {
			return err
		}

		action, content, message := verdictTexts(verdict, guestName(name), review.Title, reason)
		if err := uow.record(ctx, review.ID, model.GuestAuthor{Name: name}, action, content); err != nil {
			return err
		}
		if !req.Notify() {
			return nil
		}
		return uow.notify(ctx, review.RequesterID, review.ID, notificationModel.TypeApproval, message, false)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Guest verdict recorded",
		"review_id", found.ID, "verdict", verdict, "policy", s.guestApproval)
	return s.guestDetail(ctx, found.ID)
}

// GuestComment appends a guest comment.
func (s *service) GuestComment(
	ctx context.Context,
	publicToken string,
	req *model.CommentRequest,
) (*model.ReviewDetail, error) {
	name := strings.TrimSpace(req.GuestName)
	if name == "" {
		return nil, model.ErrGuestNameRequired
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, model.ErrContentRequired
	}
	review, err := s.byToken(ctx, publicToken)
	if err != nil {
		return nil, err
	}

	c := model.NewComment(review.ID, model.GuestAuthor{Name: name}, model.ActionComment, content)
	c.CreatedAt = s.now()
	if err := s.reviews.AddComment(ctx, c); err != nil {
		return nil, err
	}
	return s.guestDetail(ctx, review.ID)
}

// GuestResubmit sends a review revised by a guest back to all assignees.
func (s *service) GuestResubmit(
	ctx context.Context,
	publicToken string,
	req *model.ResubmitRequest,
) (*model.ReviewDetail, error) {
	name := strings.TrimSpace(req.GuestName)
	if name == "" {
		return nil, model.ErrGuestNameRequired
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, model.ErrTitleRequired
	}
	found, err := s.byToken(ctx, publicToken)
	if err != nil {
		return nil, err
	}

	_, err = s.transact(ctx, func(uow *unitOfWork) error {
		review, err := uow.reviews.GetByIDForUpdate(ctx, found.ID)
		if err != nil {
			return err
		}
		if err := uow.resubmit(ctx, review, title, req.Description, model.GuestAuthor{Name: name}); err != nil {
			return err
		}
		return uow.notify(ctx, review.RequesterID, review.ID, notificationModel.TypeComment,
			resubmittedMessage(guestName(name), review.Title), false)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("Review resubmitted by guest", "review_id", found.ID)
	return s.guestDetail(ctx, found.ID)
}

func (s *service) byToken(ctx context.Context, publicToken string) (*model.Review, error) {
	if !token.Valid(publicToken) {
		return nil, model.ErrReviewNotFound
	}
	return s.reviews.GetByToken(ctx, publicToken)
}

func (s *service) publicURL(publicToken string) string {
	return s.baseURL + "/p/" + publicToken
}

func (s *service) requireActive(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	users, err := s.members.ListActiveByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(users) != len(ids) {
		return model.ErrUnknownAssignee
	}
	return nil
}

// requireVisible allows the requester, admins and assignees.
func (s *service) requireVisible(ctx context.Context, actor accessModel.Member, review *model.Review) error {
	if canManage(actor, review) {
		return nil
	}
	if _, err := s.reviews.GetAssignee(ctx, review.ID, actor.UserID); err != nil {
		if errors.Is(err, model.ErrNotAssignee) {
			return model.ErrForbidden
		}
		return err
	}
	return nil
}

func (s *service) detailByID(ctx context.Context, id string, withShare bool) (*model.ReviewDetail, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, review, withShare)
}

func (s *service) guestDetail(ctx context.Context, id string) (*model.ReviewDetail, error) {
	d, err := s.detailByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	for i := range d.Assignees {
		d.Assignees[i].Email = ""
	}
	return d, nil
}

func (s *service) detail(ctx context.Context, review *model.Review, withShare bool) (*model.ReviewDetail, error) {
	requesterName, err := s.reviews.RequesterName(ctx, review.RequesterID)
	if err != nil {
		return nil, err
	}
	assignees, err := s.reviews.ListAssignees(ctx, review.ID)
	if err != nil {
		return nil, err
	}
	comments, err := s.reviews.ListComments(ctx, review.ID)
	if err != nil {
		return nil, err
	}
	tagIDs, err := s.reviews.ListTagIDs(ctx, review.ID)
	if err != nil {
		return nil, err
	}
	goalIDs, err := s.reviews.ListGoalIDs(ctx, review.ID)
	if err != nil {
		return nil, err
	}

	d := &model.ReviewDetail{
		Review:        *review,
		TargetURLs:    orEmpty(review.TargetURLs()),
		RequesterName: requesterName,
		Assignees:     assignees,
		Comments:      comments,
		TagIDs:        orEmpty(tagIDs),
		GoalIDs:       orEmpty(goalIDs),
	}
	if d.Assignees == nil {
		d.Assignees = []model.AssigneeView{}
	}
	if d.Comments == nil {
		d.Comments = []model.CommentView{}
	}
	if withShare && review.PublicToken != nil {
		d.ShareURL = s.publicURL(*review.PublicToken)
	}
	return d, nil
}

func canManage(actor accessModel.Member, review *model.Review) bool {
	return review.RequesterID == actor.UserID || actor.IsAdmin()
}

func acceptsVerdict(review *model.Review) error {
	if review.IsLocked {
		return model.ErrLocked
	}
	if !review.Status.AcceptsVerdicts() {
		return model.ErrInvalidTransition
	}
	return nil
}

// verdictTexts returns the history action, history content and requester
// message for a verdict.
func verdictTexts(
	verdict model.AssigneeStatus,
	actor, title, reason string,
) (model.ActionType, string, string) {
	if verdict == model.AssigneeRejected {
		return model.ActionRejected, reason, rejectedMessage(actor, title, reason)
	}
	content := reason
	if content == "" {
		content = historyApproved
	}
	return model.ActionApproved, content, approvedMessage(actor, title, reason)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
