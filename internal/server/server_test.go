package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	accessModel "github.com/festy23/reviewdesk/internal/access/model"
	appConfig "github.com/festy23/reviewdesk/internal/config"
	"github.com/festy23/reviewdesk/internal/database/dbtest"
	dashboardModel "github.com/festy23/reviewdesk/internal/dashboard/model"
	dispatchModel "github.com/festy23/reviewdesk/internal/dispatch/model"
	notificationModel "github.com/festy23/reviewdesk/internal/notification/model"
	reviewModel "github.com/festy23/reviewdesk/internal/review/model"
	userModel "github.com/festy23/reviewdesk/internal/user/model"
	userService "github.com/festy23/reviewdesk/internal/user/service"
)

const baseURL = "http://desk.test"

var magicLinkPattern = regexp.MustCompile(`/auth/magic/([0-9A-Za-z]+)`)

type outbox struct {
	mu     sync.Mutex
	emails []dispatchModel.Email
}

func (o *outbox) Deliver(_ context.Context, _ *dispatchModel.EmailSettings, email dispatchModel.Email) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.emails = append(o.emails, email)
	return nil
}

func (o *outbox) to(addr string) []dispatchModel.Email {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []dispatchModel.Email
	for _, e := range o.emails {
		if e.To == addr {
			out = append(out, e)
		}
	}
	return out
}

func testConfig() appConfig.Config {
	return appConfig.Config{
		App: appConfig.AppConfig{
			BaseURL:             baseURL,
			EmailMonthlyLimit:   100,
			MagicLinkTTLDays:    7,
			SessionTTL:          time.Hour,
			MagicSessionTTL:     time.Hour,
			GuestApprovalPolicy: appConfig.GuestApprovalTerminal,
		},
		Dispatch: appConfig.DispatchConfig{
			Workers:         1,
			BufferSize:      16,
			ShutdownTimeout: 5 * time.Second,
			SendTimeout:     time.Second,
			RetryAttempts:   1,
		},
		GinMode: gin.TestMode,
	}
}

type harness struct {
	t      *testing.T
	srv    *Server
	outbox *outbox
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessOn(t, dbtest.New(t))
}

func newHarnessOn(t *testing.T, db *gorm.DB) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	box := &outbox{}
	srv, err := New(testConfig(), db, zap.NewNop().Sugar(),
		WithTransport(box),
		WithRegistry(prometheus.NewRegistry()),
		WithUserOptions(userService.WithBcryptCost(bcrypt.MinCost)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = srv.Queue.Shutdown(5 * time.Second)
	})
	return &harness{t: t, srv: srv, outbox: box}
}

func (h *harness) do(method, path string, body any, session *http.Cookie) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		var buf bytes.Buffer
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
		req = httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
	}
	if session != nil {
		req.AddCookie(session)
	}
	w := httptest.NewRecorder()
	h.srv.Engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == accessModel.SessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie in response %d: %s", w.Code, w.Body.String())
	return nil
}

func (h *harness) addMember(admin *http.Cookie, email, name string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/members", userModel.CreateMemberRequest{
		Email: email, Name: name, Password: "correct-horse",
	}, admin)
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[userModel.MemberResponse](h.t, w).Member.ID
}

func (h *harness) magicLink(addr string) string {
	h.t.Helper()
	var emails []dispatchModel.Email
	require.Eventually(h.t, func() bool {
		emails = h.outbox.to(addr)
		return len(emails) > 0
	}, 5*time.Second, 10*time.Millisecond, "no email for %s", addr)

	match := magicLinkPattern.FindStringSubmatch(emails[len(emails)-1].Text)
	require.Len(h.t, match, 2, "email without magic link: %s", emails[len(emails)-1].Text)
	return match[0]
}

func TestServer_ReviewRoundTrip(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/setup", userModel.CreateMemberRequest{
		Email: "ada@example.com", Name: "Ada", Password: "correct-horse",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	admin := sessionCookie(t, w)

	aliceID := h.addMember(admin, "alice@example.com", "Alice")
	bobID := h.addMember(admin, "bob@example.com", "Bob")

	w = h.do(http.MethodPut, "/settings/email", dispatchModel.SaveSettingsRequest{
		SMTPHost: "smtp.example.com", SMTPPort: 587, EmailAddress: "desk@example.com", AppPassword: "secret",
	}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodPost, "/reviews", reviewModel.CreateReviewRequest{
		Title:       "Launch post",
		AssigneeIDs: []string{aliceID, bobID},
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[reviewModel.ReviewResponse](t, w).Review
	assert.Equal(t, reviewModel.StatusPending, created.Status)

	// Alice follows her emailed link; Bob logs in with his password.
	w = h.do(http.MethodGet, h.magicLink("alice@example.com"), nil, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/reviews/"+created.ID, w.Header().Get("Location"))
	alice := sessionCookie(t, w)

	w = h.do(http.MethodPost, "/auth/login", userModel.LoginRequest{
		Email: "bob@example.com", Password: "correct-horse",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	bob := sessionCookie(t, w)

	w = h.do(http.MethodPost, "/reviews/"+created.ID+"/approve", nil, alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, reviewModel.StatusInReview, decode[reviewModel.ReviewResponse](t, w).Review.Status)

	w = h.do(http.MethodPost, "/reviews/"+created.ID+"/approve", reviewModel.VerdictRequest{Reason: "ship it"}, bob)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, reviewModel.StatusApproved, decode[reviewModel.ReviewResponse](t, w).Review.Status)

	w = h.do(http.MethodGet, "/notifications", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	inbox := decode[notificationModel.ListNotificationsResponse](t, w)
	require.Len(t, inbox.Notifications, 2)
	for _, n := range inbox.Notifications {
		assert.Equal(t, notificationModel.TypeApproval, n.Type)
	}

	w = h.do(http.MethodGet, "/dashboard", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[dashboardModel.DashboardResponse](t, w).Statistics
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Approved)

	w = h.do(http.MethodGet, "/settings/email/usage", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count"`)
}

func TestServer_PublicLink(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/setup", userModel.CreateMemberRequest{
		Email: "ada@example.com", Name: "Ada", Password: "correct-horse",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	admin := sessionCookie(t, w)
	aliceID := h.addMember(admin, "alice@example.com", "Alice")

	w = h.do(http.MethodPost, "/reviews", reviewModel.CreateReviewRequest{
		Title: "Draft", AssigneeIDs: []string{aliceID}, Draft: true,
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[reviewModel.ReviewResponse](t, w).Review.ID

	w = h.do(http.MethodPost, "/reviews/"+id+"/share", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	share := decode[reviewModel.ShareResponse](t, w)
	assert.True(t, strings.HasPrefix(share.URL, baseURL+"/p/"))

	w = h.do(http.MethodGet, "/p/"+share.Token, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	public := decode[reviewModel.ReviewResponse](t, w).Review
	assert.Equal(t, reviewModel.StatusShared, public.Status)
	require.Len(t, public.Assignees, 1)
	assert.Empty(t, public.Assignees[0].Email)

	w = h.do(http.MethodPost, "/p/"+share.Token+"/reject", reviewModel.GuestVerdictRequest{
		GuestName: "Gina", Reason: "wrong date",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, reviewModel.StatusRejected, decode[reviewModel.ReviewResponse](t, w).Review.Status)
}

func TestServer_Guards(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/reviews", nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/members", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/p/unknown", nil, nil).Code)

	w := h.do(http.MethodPost, "/setup", userModel.CreateMemberRequest{
		Email: "ada@example.com", Name: "Ada", Password: "correct-horse",
	}, nil)
	admin := sessionCookie(t, w)
	h.addMember(admin, "alice@example.com", "Alice")

	w = h.do(http.MethodPost, "/auth/login", userModel.LoginRequest{
		Email: "alice@example.com", Password: "correct-horse",
	}, nil)
	alice := sessionCookie(t, w)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/members", nil, alice).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/reviews", nil, alice).Code)

	w = h.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dispatch"`)

	w = h.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "reviewdesk_http_requests_total")
}

func TestServer_MemberDelete(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/setup", userModel.CreateMemberRequest{
		Email: "ada@example.com", Name: "Ada", Password: "correct-horse",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	adminID := decode[struct {
		Member accessModel.Member `json:"member"`
	}](t, w).Member.UserID
	admin := sessionCookie(t, w)

	aliceID := h.addMember(admin, "alice@example.com", "Alice")
	bobID := h.addMember(admin, "bob@example.com", "Bob")

	w = h.do(http.MethodPost, "/auth/login", userModel.LoginRequest{Email: "bob@example.com", Password: "correct-horse"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	bob := sessionCookie(t, w)

	w = h.do(http.MethodPost, "/reviews", reviewModel.CreateReviewRequest{
		Title: "Poster", AssigneeIDs: []string{aliceID}, Draft: true,
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodDelete, "/members/"+adminID, nil, admin).Code)
	assert.Equal(t, http.StatusConflict, h.do(http.MethodDelete, "/members/"+aliceID, nil, admin).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, "/members/"+aliceID, nil, bob).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/members/ghost", nil, admin).Code)

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/members/"+bobID, nil, admin).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/reviews", nil, bob).Code)

	w = h.do(http.MethodGet, "/members", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[userModel.ListMembersResponse](t, w).Members, 2)
}

func TestServer_PurgeSessionsStopsWithContext(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.srv.PurgeSessions(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PurgeSessions did not return after cancel")
	}
}
