package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/convene/internal/model"
	"github.com/Shivanand-hulikatti/convene/internal/repository"
	"github.com/Shivanand-hulikatti/convene/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := repository.NewEventStore()
	svc := service.NewEventService(
		repository.NewEventRepository(store),
		repository.NewRegistrationRepository(store),
		nil,
		nil,
	)
	srv := httptest.NewServer(NewRouter(NewEventHandler(svc), slog.New(slog.DiscardHandler)))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

const createBody = `{"id":1,"name":"Career Fair","date":"10/04/2026","time":"10:00","location":"Gym","capacity":1}`

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/health", "", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestEventLifecycle(t *testing.T) {
	srv := newTestServer(t)

	var ev model.Event
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/events", createBody, &ev))
	assert.Equal(t, "Career Fair", ev.Name)

	var errResp model.ErrorResponse
	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/events", createBody, &errResp))

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/events",
		`{"id":2,"name":"X","date":"2026-04-10","time":"10:00","location":"Gym","capacity":1}`, &errResp))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/events", `{"bogus":true}`, &errResp))

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPatch, "/events/1", `{"location":"Main Hall"}`, &ev))
	assert.Equal(t, "Main Hall", ev.Location)

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/events/9", "", &errResp))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/events/abc", "", &errResp))

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/events/1/cancel", "", &ev))
	assert.True(t, ev.Cancelled)
	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/events/1/cancel", "", &errResp))

	var stats model.Stats
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/events/stats", "", &stats))
	assert.Equal(t, model.Stats{Active: 0, Total: 1}, stats)

	var list []model.Event
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/events", "", &list))
	assert.Empty(t, list)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/events?view=all", "", &list))
	assert.Len(t, list, 1)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/events?q=career", "", &list))
	assert.Len(t, list, 1)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/events?date=10/04/2026", "", &list))
	assert.Len(t, list, 1)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/events?view=nope", "", &errResp))
}

func TestRegisterAndWithdraw(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/events", createBody, nil))

	var reg map[string]any
	require.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/events/1/register", `{"participant":"A"}`, &reg))
	assert.Equal(t, "registered", reg["status"])

	require.Equal(t, http.StatusAccepted, do(t, srv, http.MethodPost, "/events/1/register", `{"participant":"B"}`, &reg))
	assert.Equal(t, "waitlisted", reg["status"])
	assert.Equal(t, float64(1), reg["position"])

	var errResp model.ErrorResponse
	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/events/1/register", `{"participant":"B"}`, &errResp))
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodPost, "/events/2/register", `{"participant":"B"}`, &errResp))

	var out map[string]any
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPost, "/events/1/withdraw", `{"participant":"A"}`, &out))
	assert.Equal(t, "cancelled_registration", out["status"])
	assert.Equal(t, "B", out["promoted"])

	assert.Equal(t, http.StatusConflict, do(t, srv, http.MethodPost, "/events/1/withdraw", `{"participant":"A"}`, &errResp))

	var regs registrationsResponse
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/events/1/registrations", "", &regs))
	assert.Equal(t, []string{"B"}, regs.Registered)
	assert.Empty(t, regs.Waitlist)

	var mine []model.Event
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/participants/B/events", "", &mine))
	require.Len(t, mine, 1)
	require.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/participants/A/events", "", &mine))
	assert.Empty(t, mine)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/events", nil)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
