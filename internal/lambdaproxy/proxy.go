// Package lambdaproxy adapts API Gateway proxy events to an http.Handler so
// the same router serves both the standalone server and Lambda.
package lambdaproxy

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/stefando/multipartUpload/internal/auth"
)

// HandlerFunc is the signature lambda.Start expects for REST API proxy events.
type HandlerFunc func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// New returns a Lambda handler that replays each event through h.
func New(h http.Handler) HandlerFunc {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		httpReq, err := newRequest(ctx, req)
		if err != nil {
			slog.ErrorContext(ctx, "failed to build http request from event", "path", req.Path, "error", err)
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusInternalServerError,
				Body:       "Internal server error",
			}, nil
		}

		// An API Gateway authorizer has already checked the caller; carry its
		// context the same way the token middleware would.
		if claims, ok := authorizerClaims(req.RequestContext.Authorizer); ok {
			httpReq = httpReq.WithContext(auth.WithClaims(httpReq.Context(), claims))
		}

		rec := newResponseRecorder()
		h.ServeHTTP(rec, httpReq)
		return rec.response(), nil
	}
}

func newRequest(ctx context.Context, req events.APIGatewayProxyRequest) (*http.Request, error) {
	var body io.Reader
	if req.Body != "" {
		if req.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to decode base64 body: %w", err)
			}
			body = strings.NewReader(string(decoded))
		} else {
			body = strings.NewReader(req.Body)
		}
	}

	path := req.Path
	for param, value := range req.PathParameters {
		path = strings.ReplaceAll(path, "{"+param+"}", value)
	}
	if path == "" {
		path = "/"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.HTTPMethod, path, body)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	for param, values := range req.MultiValueQueryStringParameters {
		for _, v := range values {
			query.Add(param, v)
		}
	}
	for param, value := range req.QueryStringParameters {
		if _, ok := query[param]; !ok {
			query.Set(param, value)
		}
	}
	httpReq.URL.RawQuery = query.Encode()

	for key, values := range req.MultiValueHeaders {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	for key, value := range req.Headers {
		if httpReq.Header.Get(key) == "" {
			httpReq.Header.Set(key, value)
		}
	}
	if ip := req.RequestContext.Identity.SourceIP; ip != "" {
		httpReq.RemoteAddr = ip
	}

	return httpReq, nil
}

func authorizerClaims(ctx map[string]any) (auth.Claims, bool) {
	if ctx == nil {
		return auth.Claims{}, false
	}
	str := func(k string) string {
		s, _ := ctx[k].(string)
		return s
	}
	c := auth.Claims{
		Subject:  str("principalId"),
		Username: str("username"),
		TenantID: str("tenant_id"),
	}
	if c.Subject == "" {
		c.Subject = str("sub")
	}
	// the authorizer passes the expiry as a decimal unix timestamp string
	if exp, err := strconv.ParseInt(str("token_expiration"), 10, 64); err == nil && exp > 0 {
		c.Expiry = time.Unix(exp, 0)
	}
	return c, c.Subject != "" || c.TenantID != ""
}

// responseRecorder captures the router's response for conversion back into
// a proxy response.
type responseRecorder struct {
	header      http.Header
	body        strings.Builder
	statusCode  int
	wroteHeader bool
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (r *responseRecorder) Header() http.Header {
	return r.header
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.body.Write(b)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if r.wroteHeader {
		return
	}
	r.statusCode = statusCode
	r.wroteHeader = true
}

func (r *responseRecorder) response() events.APIGatewayProxyResponse {
	single := make(map[string]string, len(r.header))
	for key, values := range r.header {
		if len(values) > 0 {
			single[key] = values[0]
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode:        r.statusCode,
		Headers:           single,
		MultiValueHeaders: r.header,
		Body:              r.body.String(),
	}
}
