package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskhub/taskhub/internal/core/domain"
	"github.com/taskhub/taskhub/internal/core/service"
	"github.com/taskhub/taskhub/internal/storage/memory"
)

func newTodoHandler() (*TodoHandler, *echo.Echo, uuid.UUID, uuid.UUID) {
	store := memory.New()
	audit := service.NewAuditService(store, zerolog.Nop())
	h := NewTodoHandler(service.NewTodoService(store, audit, zerolog.Nop()))

	e := echo.New()
	e.Validator = NewValidator()
	return h, e, uuid.New(), uuid.New()
}

// todoContext builds an echo.Context the way the auth and organisation
// middleware leave it: user_id and org_id already resolved.
func todoContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, orgID, userID uuid.UUID) echo.Context {
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	c.Set("org_id", orgID)
	return c
}

func createViaHandler(t *testing.T, h *TodoHandler, e *echo.Echo, orgID, userID uuid.UUID, body string) (todoResponse, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/todos", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := todoContext(e, req, rec, orgID, userID)

	if err := h.Create(c); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp todoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, rec.Header().Get("ETag")
}

func TestCreateReturnsETag(t *testing.T) {
	h, e, orgID, userID := newTodoHandler()

	resp, etag := createViaHandler(t, h, e, orgID, userID, `{"title": "first"}`)
	if etag == "" || !strings.HasPrefix(etag, `"`) || !strings.HasSuffix(etag, `"`) {
		t.Fatalf("ETag must be a quoted version token, got %q", etag)
	}
	if strings.Trim(etag, `"`) != resp.Version {
		t.Fatalf("ETag %q does not match body version %q", etag, resp.Version)
	}
	if resp.Status != "Open" || resp.Priority != "Medium" {
		t.Fatalf("defaults not applied: %+v", resp)
	}
}

func TestUpdateHonoursIfMatch(t *testing.T) {
	h, e, orgID, userID := newTodoHandler()
	created, etag := createViaHandler(t, h, e, orgID, userID, `{"title": "draft"}`)

	update := func(ifMatch string) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"title": "final"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		if ifMatch != "" {
			req.Header.Set("If-Match", ifMatch)
		}
		rec := httptest.NewRecorder()
		c := todoContext(e, req, rec, orgID, userID)
		c.SetPath("/v1/todos/:id")
		c.SetParamNames("id")
		c.SetParamValues(created.ID)
		return rec, h.Update(c)
	}

	// Current ETag, quotes and all, is accepted and rotated.
	rec, err := update(etag)
	if err != nil {
		t.Fatalf("update with current ETag: %v", err)
	}
	newETag := rec.Header().Get("ETag")
	if newETag == "" || newETag == etag {
		t.Fatalf("update must return a fresh ETag, got %q", newETag)
	}

	// The old ETag is now stale.
	if _, err := update(etag); !errors.Is(err, domain.ErrVersionMismatch) {
		t.Fatalf("stale ETag: expected ErrVersionMismatch, got %v", err)
	}

	// "*" and a missing header both mean unconditional.
	if _, err := update("*"); err != nil {
		t.Fatalf("wildcard If-Match: %v", err)
	}
	if _, err := update(""); err != nil {
		t.Fatalf("missing If-Match: %v", err)
	}
}

func TestCreateRejectsInvalidTag(t *testing.T) {
	h, e, orgID, userID := newTodoHandler()

	req := httptest.NewRequest(http.MethodPost, "/v1/todos", strings.NewReader(`{"title": "x", "tags": ["no spaces"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := todoContext(e, req, rec, orgID, userID)

	err := h.Create(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid tag, got %v", err)
	}
}

func TestListSetsTotalCountHeader(t *testing.T) {
	h, e, orgID, userID := newTodoHandler()
	for _, title := range []string{"one", "two", "three"} {
		createViaHandler(t, h, e, orgID, userID, `{"title": "`+title+`"}`)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/todos?pageSize=2", nil)
	rec := httptest.NewRecorder()
	c := todoContext(e, req, rec, orgID, userID)

	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := rec.Header().Get("X-Total-Count"); got != "3" {
		t.Fatalf("X-Total-Count must carry the pre-pagination total, got %q", got)
	}

	var resp listTodosResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 2 || resp.Total != 3 {
		t.Fatalf("expected 2 of 3 todos on the page, got %d of %d", len(resp.Data), resp.Total)
	}
}

func TestGetUnknownTodoBubblesNotFound(t *testing.T) {
	h, e, orgID, userID := newTodoHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := todoContext(e, req, rec, orgID, userID)
	c.SetPath("/v1/todos/:id")
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	if err := h.Get(c); !errors.Is(err, domain.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound, got %v", err)
	}
}
