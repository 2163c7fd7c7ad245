package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/bft-labs/dexcell/pkg/log"
)

// transport performs authenticated requests for Client and Auth.
type transport struct {
	endpoint    string
	client      HTTPClient
	logger      log.Logger
	breaker     *gobreaker.CircuitBreaker
	headerName  string
	headerValue string
}

func newTransport(headerName, headerValue string, opts []Option) *transport {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	client := o.httpClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	t := &transport{
		endpoint:    strings.TrimRight(o.endpoint, "/"),
		client:      client,
		logger:      o.logger,
		headerName:  headerName,
		headerValue: headerValue,
	}
	if o.breaker != nil {
		t.breaker = gobreaker.NewCircuitBreaker(*o.breaker)
	}
	return t
}

// serverError marks a 5xx answer so the breaker counts it without the
// caller seeing a different error.
type serverError struct{ err *Error }

func (e serverError) Error() string { return e.err.Error() }

// apiErrResult carries a 4xx answer through the breaker as a success.
type apiErrResult struct{ err *Error }

func (t *transport) get(ctx context.Context, path string, query url.Values) (interface{}, error) {
	return t.do(ctx, http.MethodGet, path, query, nil)
}

func (t *transport) post(ctx context.Context, path string, body interface{}) (interface{}, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	return t.do(ctx, http.MethodPost, path, nil, payload)
}

func (t *transport) do(ctx context.Context, method, path string, query url.Values, payload []byte) (interface{}, error) {
	if t.breaker == nil {
		return t.roundTrip(ctx, method, path, query, payload)
	}

	v, err := t.breaker.Execute(func() (interface{}, error) {
		v, err := t.roundTrip(ctx, method, path, query, payload)
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			// The API answered; client errors do not trip the breaker.
			return apiErrResult{err: apiErr}, nil
		}
		if apiErr != nil {
			return nil, serverError{err: apiErr}
		}
		return v, err
	})
	if err != nil {
		var se serverError
		if errors.As(err, &se) {
			return nil, se.err
		}
		return nil, err
	}
	if r, ok := v.(apiErrResult); ok {
		return nil, r.err
	}
	return v, nil
}

func (t *transport) roundTrip(ctx context.Context, method, path string, query url.Values, payload []byte) (interface{}, error) {
	target := t.endpoint + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set(t.headerName, t.headerValue)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		apiErr := newError(resp.StatusCode, respBody)
		t.logger.Debug("api request failed",
			log.String("method", method),
			log.String("path", path),
			log.Int("status", resp.StatusCode),
			log.String("kind", apiErr.Kind.String()))
		return nil, apiErr
	}

	t.logger.Debug("api request",
		log.String("method", method),
		log.String("path", path),
		log.Int("status", resp.StatusCode))
	return decode(respBody)
}

// decode parses a JSON document, keeping numbers as json.Number and
// converting timestamp strings. An empty body decodes to nil.
func decode(data []byte) (interface{}, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return convertTimestamps(v), nil
}
