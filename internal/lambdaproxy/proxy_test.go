package lambdaproxy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefando/multipartUpload/internal/api"
	"github.com/stefando/multipartUpload/internal/auth"
	"github.com/stefando/multipartUpload/internal/storage/storagetest"
	"github.com/stefando/multipartUpload/internal/upload"
)

func echoRouter() http.Handler {
	r := chi.NewRouter()
	r.Post("/echo/{id}", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Add("X-Id", chi.URLParam(r, "id"))
		w.Header().Add("X-Q", r.URL.Query().Get("q"))
		w.Header().Add("X-Trace", r.Header.Get("X-Trace"))
		if c, ok := auth.ClaimsFrom(r.Context()); ok {
			w.Header().Add("X-Tenant", c.TenantID)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(body)
	})
	return r
}

func TestNew_ReplaysEvent(t *testing.T) {
	handler := New(echoRouter())

	resp, err := handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPost,
		Path:                  "/echo/{id}",
		PathParameters:        map[string]string{"id": "42"},
		QueryStringParameters: map[string]string{"q": "x"},
		Headers:               map[string]string{"X-Trace": "abc"},
		Body:                  "hello",
		RequestContext: events.APIGatewayProxyRequestContext{
			Authorizer: map[string]any{"principalId": "user-1", "tenant_id": "acme"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "hello", resp.Body)
	assert.Equal(t, "42", resp.Headers["X-Id"])
	assert.Equal(t, "x", resp.Headers["X-Q"])
	assert.Equal(t, "abc", resp.Headers["X-Trace"])
	assert.Equal(t, "acme", resp.Headers["X-Tenant"])
	assert.Equal(t, []string{"text/plain"}, resp.MultiValueHeaders["Content-Type"])
}

func TestNew_Base64Body(t *testing.T) {
	handler := New(echoRouter())

	resp, err := handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/echo/1",
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"a":1}`)),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, resp.Body)
	assert.Empty(t, resp.Headers["X-Tenant"])

	resp, err = handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:      http.MethodPost,
		Path:            "/echo/1",
		Body:            "%%%",
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestNew_UploadRouter(t *testing.T) {
	svc := upload.NewService(storagetest.New(), upload.Options{Bucket: "uploads", KeyPrefix: upload.DefaultKeyPrefix})
	handler := New(api.NewRouter(api.NewHandler(svc, nil), api.RouterOptions{}))

	resp, err := handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/start",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       `{"original_name":"holiday.mp4","file_type":"video/mp4"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Contains(t, resp.Body, `"file_key":"main-folder/holiday-`)

	resp, err = handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/health",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", resp.Body)
}

func TestNew_TokenExpiryCapsPartURLs(t *testing.T) {
	svc := upload.NewService(storagetest.New(), upload.Options{Bucket: "uploads", KeyPrefix: upload.DefaultKeyPrefix})
	handler := New(api.NewRouter(api.NewHandler(svc, nil), api.RouterOptions{}))

	exp := time.Now().Add(20 * time.Minute).Unix()
	resp, err := handler(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/urls",
		Body:       `{"file_key":"main-folder/a.bin","parts":2,"upload_id":"U1"}`,
		RequestContext: events.APIGatewayProxyRequestContext{
			Authorizer: map[string]any{
				"principalId":      "user-1",
				"tenant_id":        "acme",
				"token_expiration": strconv.FormatInt(exp, 10),
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)

	var env struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &env))
	require.Len(t, env.Data, 2)
	for _, raw := range env.Data {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		secs, err := strconv.Atoi(u.Query().Get("expires"))
		require.NoError(t, err)
		assert.LessOrEqual(t, secs, 900)
		assert.Greater(t, secs, 890)
	}
}

func TestAuthorizerClaims(t *testing.T) {
	_, ok := authorizerClaims(nil)
	assert.False(t, ok)

	_, ok = authorizerClaims(map[string]any{"other": "x"})
	assert.False(t, ok)

	c, ok := authorizerClaims(map[string]any{"sub": "u2", "username": "bob"})
	require.True(t, ok)
	assert.Equal(t, auth.Claims{Subject: "u2", Username: "bob"}, c)

	c, ok = authorizerClaims(map[string]any{"principalId": "u1", "tenant_id": "t1", "token_expiration": "1700000000"})
	require.True(t, ok)
	assert.Equal(t, time.Unix(1700000000, 0), c.Expiry)

	c, ok = authorizerClaims(map[string]any{"principalId": "u1", "token_expiration": "soon"})
	require.True(t, ok)
	assert.True(t, c.Expiry.IsZero())
}
