// Package restapi is a thin client for the DEXCell REST API.
//
// Every call is a single authenticated request. Non-2xx answers become an
// *Error whose Kind distinguishes missing resources (NOTFOUND), rejected
// credentials (INVALIDTOKEN) and everything else (UNKNOWN). Nothing is
// retried.
//
// Responses are decoded into generic JSON values (map[string]interface{},
// []interface{}, json.Number, string, bool, nil). Strings that look like
// "2006-01-02T15:04:05" timestamps are replaced with time.Time values.
//
// # Usage
//
//	api := restapi.NewClient(token)
//	dep, err := api.Deployment(ctx, 1234)
//	if restapi.IsNotFound(err) {
//	    ...
//	}
//
// Applications that only hold an app secret exchange a temporary token
// first:
//
//	auth := restapi.NewAuth(appID, secret)
//	token, err := auth.AccessToken(ctx, tempToken)
package restapi
