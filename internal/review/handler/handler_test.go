package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/festy23/reviewdesk/internal/access/middleware"
	accessModel "github.com/festy23/reviewdesk/internal/access/model"
	"github.com/festy23/reviewdesk/internal/review/handler"
	"github.com/festy23/reviewdesk/internal/review/model"
	"github.com/festy23/reviewdesk/internal/review/router"
	"github.com/festy23/reviewdesk/internal/review/service"
)

// mockService implements the calls exercised here; anything else panics on
// the nil embedded interface.
type mockService struct {
	service.Service
	mock.Mock
}

func detailResult(args mock.Arguments) (*model.ReviewDetail, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReviewDetail), args.Error(1)
}

func (m *mockService) Create(
	ctx context.Context,
	actor accessModel.Member,
	req *model.CreateReviewRequest,
) (*model.ReviewDetail, error) {
	return detailResult(m.Called(ctx, actor, req))
}

func (m *mockService) List(
	ctx context.Context,
	actor accessModel.Member,
	filter model.ListFilter,
) ([]model.ReviewSummary, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReviewSummary), args.Error(1)
}

func (m *mockService) Delete(ctx context.Context, actor accessModel.Member, id string) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockService) Notify(
	ctx context.Context,
	actor accessModel.Member,
	id string,
	req *model.NotifyRequest,
) (int, error) {
	args := m.Called(ctx, actor, id, req)
	return args.Int(0), args.Error(1)
}

func (m *mockService) Approve(
	ctx context.Context,
	actor accessModel.Member,
	id string,
	req *model.VerdictRequest,
) (*model.ReviewDetail, error) {
	return detailResult(m.Called(ctx, actor, id, req))
}

func (m *mockService) GetPublic(ctx context.Context, publicToken string) (*model.ReviewDetail, error) {
	return detailResult(m.Called(ctx, publicToken))
}

func (m *mockService) GuestReject(
	ctx context.Context,
	publicToken string,
	req *model.GuestVerdictRequest,
) (*model.ReviewDetail, error) {
	return detailResult(m.Called(ctx, publicToken, req))
}

var member = accessModel.Member{UserID: "u1", Name: "Olga"}

func newEngine(svc service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	public := r.Group("")
	members := r.Group("", func(c *gin.Context) { middleware.SetMember(c, member) })
	router.RegisterRoutes(public, members, handler.New(svc, zap.NewNop().Sugar()))
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestHandler_Create(t *testing.T) {
	svc := new(mockService)
	svc.On("Create", mock.Anything, member, mock.MatchedBy(func(req *model.CreateReviewRequest) bool {
		return req.Title == "Launch" && len(req.AssigneeIDs) == 1 && req.Draft
	})).Return(&model.ReviewDetail{Review: model.Review{ID: "r1", Status: model.StatusDraft}}, nil)

	w := serve(newEngine(svc), http.MethodPost, "/reviews", `{"title":"Launch","assignee_ids":["u2"],"draft":true}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp model.ReviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "r1", resp.Review.ID)
	assert.Equal(t, model.StatusDraft, resp.Review.Status)
	svc.AssertExpectations(t)
}

func TestHandler_CreateInvalidBody(t *testing.T) {
	svc := new(mockService)

	w := serve(newEngine(svc), http.MethodPost, "/reviews", `{"assignee_ids":["u2"]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_ListPassesFilter(t *testing.T) {
	svc := new(mockService)
	want := model.ListFilter{Filter: model.FilterCreated, Status: model.StatusRejected, Search: "post"}
	svc.On("List", mock.Anything, member, want).Return([]model.ReviewSummary{{Review: model.Review{ID: "r1"}}}, nil)

	w := serve(newEngine(svc), http.MethodGet, "/reviews?filter=created&status=rejected&search=post", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp model.ListReviewsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Reviews, 1)
}

func TestHandler_ApproveErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"not found", model.ErrReviewNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"not assignee", model.ErrNotAssignee, http.StatusForbidden, "FORBIDDEN"},
		{"locked", model.ErrLocked, http.StatusLocked, "LOCKED"},
		{"draft", model.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
		{"wrapped", errors.Join(errors.New("tx"), model.ErrLocked), http.StatusLocked, "LOCKED"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			svc.On("Approve", mock.Anything, member, "r1", &model.VerdictRequest{}).Return(nil, tt.err)

			w := serve(newEngine(svc), http.MethodPost, "/reviews/r1/approve", "")

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantBody, errorCode(t, w))
		})
	}
}

func TestHandler_NotifyWithoutBody(t *testing.T) {
	svc := new(mockService)
	svc.On("Notify", mock.Anything, member, "r1", &model.NotifyRequest{}).Return(2, nil)

	w := serve(newEngine(svc), http.MethodPost, "/reviews/r1/notify", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"queued":2}`, w.Body.String())
}

func TestHandler_NotifyAlreadySent(t *testing.T) {
	svc := new(mockService)
	svc.On("Notify", mock.Anything, member, "r1", mock.Anything).Return(0, model.ErrAlreadySent)

	w := serve(newEngine(svc), http.MethodPost, "/reviews/r1/notify", `{"message":"again"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_SENT", errorCode(t, w))
}

func TestHandler_Delete(t *testing.T) {
	svc := new(mockService)
	svc.On("Delete", mock.Anything, member, "r1").Return(nil)
	svc.On("Delete", mock.Anything, member, "r2").Return(model.ErrNotRequester)

	r := newEngine(svc)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodDelete, "/reviews/r1", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodDelete, "/reviews/r2", "").Code)
}

func TestHandler_PublicRoutes(t *testing.T) {
	svc := new(mockService)
	svc.On("GetPublic", mock.Anything, "missing").Return(nil, model.ErrReviewNotFound)
	svc.On("GuestReject", mock.Anything, "tok", mock.MatchedBy(func(req *model.GuestVerdictRequest) bool {
		return req.GuestName == "Gina" && req.Reason == "typo" && !req.Notify()
	})).Return(&model.ReviewDetail{Review: model.Review{ID: "r1", Status: model.StatusRejected}}, nil)

	r := newEngine(svc)

	w := serve(r, http.MethodGet, "/p/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, http.MethodPost, "/p/tok/reject", `{"guest_name":"Gina","reason":"typo","send_notification":false}`)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp model.ReviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.StatusRejected, resp.Review.Status)

	w = serve(r, http.MethodPost, "/p/tok/reject", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertExpectations(t)
}
