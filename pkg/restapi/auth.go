package restapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// SecretHeader carries the application secret of an Auth.
const SecretHeader = "x-dexcell-secret"

// Auth makes requests on behalf of a registered application.
type Auth struct {
	appID  string
	secret string
	t      *transport
}

// NewAuth creates an application-authenticated client.
func NewAuth(appID, secret string, opts ...Option) *Auth {
	return &Auth{
		appID:  appID,
		secret: secret,
		t:      newTransport(SecretHeader, secret, opts),
	}
}

// Get performs an authenticated GET.
func (a *Auth) Get(ctx context.Context, path string, query url.Values) (interface{}, error) {
	return a.t.get(ctx, path, query)
}

// Post performs an authenticated POST with a JSON body.
func (a *Auth) Post(ctx context.Context, path string, body interface{}) (interface{}, error) {
	return a.t.post(ctx, path, body)
}

// AccessToken exchanges the temporary token handed to the application
// during installation for a permanent access token.
func (a *Auth) AccessToken(ctx context.Context, tempToken string) (string, error) {
	q := url.Values{}
	q.Set("temp_token", tempToken)
	q.Set("secret", a.secret)
	q.Set("app_id", a.appID)

	v, err := a.t.get(ctx, "/oauth/accesstoken", q)
	if err != nil {
		return "", err
	}
	doc, ok := v.(map[string]interface{})
	if !ok {
		return "", errors.New("access token: unexpected response")
	}
	token, ok := doc["token"].(string)
	if !ok || token == "" {
		return "", fmt.Errorf("access token: missing token in response")
	}
	return token, nil
}
