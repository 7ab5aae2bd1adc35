package lambdaproxy

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/stefando/multipartUpload/internal/auth"
)

// AuthorizerFunc is the signature of an API Gateway REQUEST authorizer.
type AuthorizerFunc func(ctx context.Context, event events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error)

// NewAuthorizer returns a REQUEST authorizer that verifies the bearer token
// and passes the caller's claims to the upload function through the
// authorizer context. With requireTenant, tokens without a tenant_id claim
// are denied.
func NewAuthorizer(v auth.Verifier, requireTenant bool) AuthorizerFunc {
	return func(ctx context.Context, event events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
		claims, err := auth.Authenticate(ctx, v, headerValue(event.Headers, "Authorization"), requireTenant)
		if err != nil {
			slog.InfoContext(ctx, "authorization denied", "method_arn", event.MethodArn, "error", err)
			return authorizerResponse("unauthorized", "Deny", event.MethodArn, nil), nil
		}

		slog.DebugContext(ctx, "authorization granted", "sub", claims.Subject, "tenant_id", claims.TenantID)
		// authorizer context values must be strings, numbers or booleans
		return authorizerResponse(claims.Subject, "Allow", event.MethodArn, map[string]any{
			"sub":              claims.Subject,
			"username":         claims.Username,
			"tenant_id":        claims.TenantID,
			"token_expiration": strconv.FormatInt(claims.Expiry.Unix(), 10),
		}), nil
	}
}

func authorizerResponse(principalID, effect, methodArn string, context map[string]any) events.APIGatewayCustomAuthorizerResponse {
	return events.APIGatewayCustomAuthorizerResponse{
		PrincipalID: principalID,
		PolicyDocument: events.APIGatewayCustomAuthorizerPolicy{
			Version: "2012-10-17",
			Statement: []events.IAMPolicyStatement{{
				Action:   []string{"execute-api:Invoke"},
				Effect:   effect,
				Resource: []string{methodArn},
			}},
		},
		Context: context,
	}
}

// headerValue looks up name ignoring case; API Gateway passes headers as sent.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
