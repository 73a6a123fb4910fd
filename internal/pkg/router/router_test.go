package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/authgate/internal/pkg/config"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
	"github.com/shandysiswandi/authgate/internal/pkg/instrument"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type echoResponse struct {
	Email string `json:"email"`
}

func (echoResponse) Message() string { return "echoed" }

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	r := NewRouter(Config{Config: cfg, UUID: fixedID("cid-fixed"), Instrument: instrument.NewNoop()})
	r.POST("/echo", func(req *Request) (any, error) {
		var body struct {
			Email string `json:"email"`
		}
		if err := req.DecodeBody(&body); err != nil {
			return nil, err
		}
		if body.Email == "" {
			return nil, goerror.NewInvalidInput(nil, "email", "Email is required")
		}
		return echoResponse{Email: body.Email}, nil
	})
	r.POST("/reject", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("Invalid email or password", goerror.CodeUnauthorized)
	})
	r.POST("/boom", func(*Request) (any, error) {
		return nil, errors.New("raw error")
	})
	r.POST("/panic", func(*Request) (any, error) {
		panic("unexpected")
	})

	return r
}

func TestRouter(t *testing.T) {
	r := newTestRouter(t, "app:\n  maintenance:\n    endpoints: /maintained\n")

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{name: "Success", path: "/echo", body: `{"email":"a@b.co"}`, wantStatus: http.StatusOK, wantMsg: "echoed"},
		{name: "InvalidBody", path: "/echo", body: `{"email":`, wantStatus: http.StatusBadRequest, wantMsg: "Invalid request body"},
		{name: "UnknownField", path: "/echo", body: `{"nope":1}`, wantStatus: http.StatusBadRequest, wantMsg: "Invalid request body"},
		{name: "Validation", path: "/echo", body: `{}`, wantStatus: http.StatusUnprocessableEntity, wantMsg: "Validation error"},
		{name: "Business", path: "/reject", body: `{}`, wantStatus: http.StatusUnauthorized, wantMsg: "Invalid email or password"},
		{name: "RawError", path: "/boom", body: `{}`, wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{name: "Panic", path: "/panic", body: `{}`, wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error"},
		{name: "NotFound", path: "/missing", body: `{}`, wantStatus: http.StatusNotFound, wantMsg: "endpoint not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			// Act
			r.ServeHTTP(rec, req)

			// Assert
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			var env struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Message != tt.wantMsg {
				t.Fatalf("expected message %q, got %q", tt.wantMsg, env.Message)
			}
		})
	}
}

func TestRouterCorrelationID(t *testing.T) {
	r := newTestRouter(t, "app: {}\n")

	t.Run("Generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"email":"a@b.co"}`)))

		if got := rec.Header().Get(HeaderCorrelationID); got != "cid-fixed" {
			t.Fatalf("expected generated correlation id, got %q", got)
		}
	})

	t.Run("Propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"email":"a@b.co"}`))
		req.Header.Set(HeaderRequestID, "  upstream-id ")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if got := rec.Header().Get(HeaderCorrelationID); got != "upstream-id" {
			t.Fatalf("expected propagated correlation id, got %q", got)
		}
	})
}

func TestRouterMaintenance(t *testing.T) {
	r := newTestRouter(t, "app:\n  maintenance:\n    endpoints: /echo\n")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"email":"a@b.co"}`)))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "a,b,handler" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestMaskJSON(t *testing.T) {
	mask := map[string]bool{"password": true, "token": true}

	got := maskJSON([]byte(`{"email":"a@b.co","password":"secret","data":{"token":"t","user":{"id":1}}}`), mask)

	out, _ := json.Marshal(got)
	if strings.Contains(string(out), "secret") || strings.Contains(string(out), `"t"`) {
		t.Fatalf("masked output leaks values: %s", out)
	}
	if !strings.Contains(string(out), "a@b.co") {
		t.Fatalf("unmasked field dropped: %s", out)
	}
	if v := maskJSON([]byte("not json"), mask); v == nil {
		t.Fatalf("expected size summary for non-json body")
	}
}
