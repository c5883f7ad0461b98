package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
	"github.com/yanqian/faq-matcher/internal/infra/admintoken"
	"github.com/yanqian/faq-matcher/internal/infra/config"
	"github.com/yanqian/faq-matcher/internal/infra/faqstore"
	apperrors "github.com/yanqian/faq-matcher/pkg/errors"
)

func TestRouter_AskAnswered(t *testing.T) {
	svc := &stubFAQService{
		askFn: func(_ context.Context, req faq.AskRequest) (faq.MatchResult, error) {
			require.Equal(t, "how can I reset my password", req.Message)
			return faq.MatchResult{Kind: faq.KindAnswered, Answer: "Use the forgot-password link.", Score: 0.71, SourceID: 1, SourceQuestion: "How do I reset my password?"}, nil
		},
	}

	rec := performRequest(t, newRouterUnderTest(t, svc, nil), http.MethodPost, "/api/v1/faq/ask", `{"msg":"how can I reset my password"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Use the forgot-password link.", body["answer"])
	require.InDelta(t, 0.71, body["score"], 1e-9)
	require.EqualValues(t, 1, body["source_id"])
	require.Equal(t, "How do I reset my password?", body["source_question"])
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRouter_AskClarify(t *testing.T) {
	svc := &stubFAQService{
		askFn: func(context.Context, faq.AskRequest) (faq.MatchResult, error) {
			return faq.MatchResult{
				Kind:          faq.KindClarify,
				Message:       faq.DefaultPromptMessage,
				Clarification: faq.DefaultClarificationText,
				Suggestions:   []string{"What is the refund policy?", "How do I reset my password?"},
				Score:         0.12,
			}, nil
		},
	}

	rec := performRequest(t, newRouterUnderTest(t, svc, nil), http.MethodPost, "/api/v1/faq/ask", `{"msg":"what time is it"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, faq.DefaultPromptMessage, body["answer"])
	require.Equal(t, faq.DefaultClarificationText, body["clarification"])
	require.Equal(t, []any{"What is the refund policy?", "How do I reset my password?"}, body["suggestions"])
	require.NotContains(t, body, "source_id")
}

func TestRouter_AskApologyOmitsClarification(t *testing.T) {
	svc := &stubFAQService{
		askFn: func(context.Context, faq.AskRequest) (faq.MatchResult, error) {
			return faq.MatchResult{Kind: faq.KindClarify, Message: faq.DefaultApologyMessage, Score: 0.1}, nil
		},
	}

	rec := performRequest(t, newRouterUnderTest(t, svc, nil), http.MethodPost, "/api/v1/faq/ask", `{"msg":"hmm"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, faq.DefaultApologyMessage, body["answer"])
	require.NotContains(t, body, "clarification")
	require.Equal(t, []any{}, body["suggestions"])
}

func TestRouter_AskEmptyMessage(t *testing.T) {
	svc := faq.NewService(testFAQConfig(), nil, nil, faqstore.NewMemoryStore(), newTestLogger())

	rec := performRequest(t, newRouterUnderTest(t, svc, nil), http.MethodPost, "/api/v1/faq/ask", `{"msg":"   "}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "empty_message", errBody["error"]["code"])
	require.Equal(t, "empty message", errBody["error"]["message"])
}

func TestRouter_AskUnready(t *testing.T) {
	svc := faq.NewService(testFAQConfig(), nil, nil, faqstore.NewMemoryStore(), newTestLogger())

	rec := performRequest(t, newRouterUnderTest(t, svc, nil), http.MethodPost, "/api/v1/faq/ask", `{"msg":"hello"}`, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, faq.DefaultUnreadyMessage, body["answer"])
	require.EqualValues(t, 0, body["score"])
}

func TestRouter_AskInvalidJSON(t *testing.T) {
	rec := performRequest(t, newRouterUnderTest(t, &stubFAQService{}, nil), http.MethodPost, "/api/v1/faq/ask", `{"msg":123}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.NotEmpty(t, errBody["error"]["message"])
}

func TestRouter_AskRepresenterFailureIsRetried(t *testing.T) {
	calls := 0
	svc := &stubFAQService{
		askFn: func(context.Context, faq.AskRequest) (faq.MatchResult, error) {
			calls++
			return faq.MatchResult{}, apperrors.Wrap(faq.CodeRepresenter, "failed to represent question", io.ErrUnexpectedEOF)
		},
	}
	cfg := testConfig()
	cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}

	rec := performRequest(t, NewRouter(cfg, NewHandler(svc, newTestLogger()), nil), http.MethodPost, "/api/v1/faq/ask", `{"msg":"hello"}`, nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, 3, calls)

	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, faq.CodeRepresenter, errBody["error"]["code"])
}

func TestRouter_AskUnreadyIsNotRetried(t *testing.T) {
	calls := 0
	svc := &stubFAQService{
		askFn: func(context.Context, faq.AskRequest) (faq.MatchResult, error) {
			calls++
			return faq.MatchResult{Kind: faq.KindUnready, Message: faq.DefaultUnreadyMessage}, nil
		},
	}
	cfg := testConfig()
	cfg.HTTP.Retry = config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}

	rec := performRequest(t, NewRouter(cfg, NewHandler(svc, newTestLogger()), nil), http.MethodPost, "/api/v1/faq/ask", `{"msg":"hello"}`, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, 1, calls)
}

func TestRouter_LegacyChat(t *testing.T) {
	svc := &stubFAQService{
		askFn: func(_ context.Context, req faq.AskRequest) (faq.MatchResult, error) {
			if req.Message == "" {
				return faq.MatchResult{Kind: faq.KindEmptyInput}, nil
			}
			return faq.MatchResult{Kind: faq.KindAnswered, Answer: "Refunds within 30 days.", Score: 0.9, SourceQuestion: "What is the refund policy?"}, nil
		},
	}
	server := newRouterUnderTest(t, svc, nil)

	rec := performRequest(t, server, http.MethodPost, "/api/chat", `{"msg":""}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"error":"Empty message"}`, rec.Body.String())

	rec = performRequest(t, server, http.MethodPost, "/api/chat", `{"msg":"refund?"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"answer":"Refunds within 30 days.","score":0.9,"source_id":0,"source_question":"What is the refund policy?"}`, rec.Body.String())
}

func TestRouter_Catalog(t *testing.T) {
	svc := &stubFAQService{
		listFn: func(context.Context) ([]faq.CatalogItem, error) {
			return []faq.CatalogItem{{ID: 0, Question: "What is the refund policy?"}, {ID: 1, Question: "How do I reset my password?"}}, nil
		},
	}
	server := newRouterUnderTest(t, svc, nil)

	rec := performRequest(t, server, http.MethodGet, "/api/v1/faq/catalog", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[{"id":0,"question":"What is the refund policy?"},{"id":1,"question":"How do I reset my password?"}]`, rec.Body.String())

	rec = performRequest(t, server, http.MethodGet, "/api/faq-list", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[{"id":0,"q":"What is the refund policy?"},{"id":1,"q":"How do I reset my password?"}]`, rec.Body.String())
}

func TestRouter_CatalogUnready(t *testing.T) {
	svc := faq.NewService(testFAQConfig(), nil, nil, faqstore.NewMemoryStore(), newTestLogger())

	rec := performRequest(t, newRouterUnderTest(t, svc, nil), http.MethodGet, "/api/v1/faq/catalog", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, faq.CodeUnready, decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_HealthAndTrending(t *testing.T) {
	svc := &stubFAQService{
		status: faq.Status{Ready: true, Entries: 2, Dim: 5},
		trendingFn: func(context.Context) ([]faq.TrendingQuery, error) {
			return []faq.TrendingQuery{{Query: "How do I reset my password?", Count: 3}}, nil
		},
	}
	server := newRouterUnderTest(t, svc, nil)

	rec := performRequest(t, server, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ready":true,"entries":2,"dim":5}`, rec.Body.String())

	rec = performRequest(t, server, http.MethodGet, "/api/v1/faq/trending", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"recommendations":[{"query":"How do I reset my password?","count":3}]}`, rec.Body.String())
}

func TestRouter_ReloadRequiresAdminToken(t *testing.T) {
	manager, err := admintoken.NewManager("0123456789abcdef-secret", "faq-matcher", time.Hour)
	require.NoError(t, err)
	reloads := 0
	svc := &stubFAQService{
		reloadFn: func(context.Context) (faq.Status, error) {
			reloads++
			return faq.Status{Ready: true, Entries: 2, Dim: 5}, nil
		},
	}
	server := newRouterUnderTest(t, svc, manager)

	rec := performRequest(t, server, http.MethodPost, "/api/v1/admin/reload", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = performRequest(t, server, http.MethodPost, "/api/v1/admin/reload", "", map[string]string{"Authorization": "Bearer nope"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, admintoken.CodeInvalidToken, decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
	require.Zero(t, reloads)

	token, err := manager.Issue("ops", 0)
	require.NoError(t, err)
	rec = performRequest(t, server, http.MethodPost, "/api/v1/admin/reload", "", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, reloads)
}

func TestRouter_ReloadDisabledWithoutValidator(t *testing.T) {
	rec := performRequest(t, newRouterUnderTest(t, &stubFAQService{}, nil), http.MethodPost, "/api/v1/admin/reload", "", map[string]string{"Authorization": "Bearer x"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "admin_disabled", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_ReloadFailure(t *testing.T) {
	manager, err := admintoken.NewManager("0123456789abcdef-secret", "faq-matcher", time.Hour)
	require.NoError(t, err)
	svc := &stubFAQService{
		reloadFn: func(context.Context) (faq.Status, error) {
			return faq.Status{}, apperrors.Wrap(faq.CodeReloadFailed, "catalog reload failed", faq.ErrIndexCorrupt)
		},
	}
	token, err := manager.Issue("ops", 0)
	require.NoError(t, err)

	rec := performRequest(t, newRouterUnderTest(t, svc, manager), http.MethodPost, "/api/v1/admin/reload", "", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, faq.CodeReloadFailed, decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	server := NewRouter(cfg, NewHandler(&stubFAQService{}, newTestLogger()), nil)

	rec := performRequest(t, server, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = performRequest(t, server, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "rate_limit_exceeded", decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_RequestIDIsPropagated(t *testing.T) {
	rec := performRequest(t, newRouterUnderTest(t, &stubFAQService{}, nil), http.MethodGet, "/healthz", "", map[string]string{requestIDHeader: "req-42"})
	require.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}

func performRequest(t *testing.T, server *http.Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, svc faq.Service, validator TokenValidator) *http.Server {
	t.Helper()
	return NewRouter(testConfig(), NewHandler(svc, newTestLogger()), validator)
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
	}
}

func testFAQConfig() faq.Config {
	return faq.Config{
		Policies: map[faq.Strategy]faq.MatchConfig{
			faq.StrategyLexical: {Threshold: 0.45, Policy: faq.ClarifyApology},
		},
		TrendingLimit: 5,
	}
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubFAQService struct {
	listFn     func(ctx context.Context) ([]faq.CatalogItem, error)
	askFn      func(ctx context.Context, req faq.AskRequest) (faq.MatchResult, error)
	trendingFn func(ctx context.Context) ([]faq.TrendingQuery, error)
	reloadFn   func(ctx context.Context) (faq.Status, error)
	status     faq.Status
}

func (s *stubFAQService) ListCatalog(ctx context.Context) ([]faq.CatalogItem, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return []faq.CatalogItem{}, nil
}

func (s *stubFAQService) Ask(ctx context.Context, req faq.AskRequest) (faq.MatchResult, error) {
	if s.askFn != nil {
		return s.askFn(ctx, req)
	}
	return faq.MatchResult{Kind: faq.KindEmptyInput}, nil
}

func (s *stubFAQService) Trending(ctx context.Context) ([]faq.TrendingQuery, error) {
	if s.trendingFn != nil {
		return s.trendingFn(ctx)
	}
	return []faq.TrendingQuery{}, nil
}

func (s *stubFAQService) Status() faq.Status { return s.status }

func (s *stubFAQService) Reload(ctx context.Context) (faq.Status, error) {
	if s.reloadFn != nil {
		return s.reloadFn(ctx)
	}
	return s.status, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestAsHTTPErrorMapsServiceCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.Wrap(faq.CodeUnready, "catalog not loaded", faq.ErrUnready), http.StatusServiceUnavailable, faq.CodeUnready},
		{apperrors.Wrap(faq.CodeRepresenter, "failed to represent question", io.EOF), http.StatusBadGateway, faq.CodeRepresenter},
		{apperrors.Wrap(faq.CodeReloadDisabled, "no catalog loader configured", nil), http.StatusConflict, faq.CodeReloadDisabled},
		{apperrors.Wrap(faq.CodeStoreFailed, "failed to load trending queries", io.EOF), http.StatusInternalServerError, faq.CodeStoreFailed},
		{apperrors.Wrap(admintoken.CodeInvalidToken, "token expired", nil), http.StatusForbidden, admintoken.CodeInvalidToken},
		{io.ErrClosedPipe, http.StatusInternalServerError, codeInternal},
		{NewHTTPError(http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests", nil), http.StatusTooManyRequests, "rate_limit_exceeded"},
	}
	for _, tc := range cases {
		got := asHTTPError(tc.err)
		require.Equal(t, tc.status, got.Status, tc.err.Error())
		require.Equal(t, tc.code, got.Code, tc.err.Error())
	}
	require.Nil(t, asHTTPError(nil))
}

func TestRouter_TrendingStoreFailure(t *testing.T) {
	svc := &stubFAQService{
		trendingFn: func(context.Context) ([]faq.TrendingQuery, error) {
			return nil, apperrors.Wrap(faq.CodeStoreFailed, "failed to load trending queries", io.ErrUnexpectedEOF)
		},
	}
	rec := performRequest(t, newRouterUnderTest(t, svc, nil), http.MethodGet, "/api/v1/faq/trending", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, faq.CodeStoreFailed, decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
}

func TestRouter_CORSExposesRequestID(t *testing.T) {
	rec := performRequest(t, newRouterUnderTest(t, &stubFAQService{}, nil), http.MethodOptions, "/api/v1/faq/ask", "", map[string]string{"Origin": "http://localhost:3000"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), requestIDHeader)
	require.Equal(t, requestIDHeader, rec.Header().Get("Access-Control-Expose-Headers"))
}
