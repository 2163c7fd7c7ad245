package restapi

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// TokenHeader carries the access token of a Client.
const TokenHeader = "x-dexcell-token"

// Client queries deployments, locations, devices, readings and costs.
type Client struct {
	t *transport
}

// NewClient creates a client authenticated with an access token.
func NewClient(token string, opts ...Option) *Client {
	return &Client{t: newTransport(TokenHeader, token, opts)}
}

// Get performs a GET on path (relative to the endpoint) and returns the
// decoded JSON document.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (interface{}, error) {
	return c.t.get(ctx, path, query)
}

// Post sends body as JSON to path and returns the decoded answer.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (interface{}, error) {
	return c.t.post(ctx, path, body)
}

func (c *Client) getf(ctx context.Context, query url.Values, format string, args ...interface{}) (interface{}, error) {
	return c.t.get(ctx, fmt.Sprintf(format, args...), query)
}

// Deployment returns the deployment with the given id.
func (c *Client) Deployment(ctx context.Context, id int64) (interface{}, error) {
	return c.getf(ctx, nil, "/deployments/%d", id)
}

// DeploymentLocations lists the locations of a deployment.
func (c *Client) DeploymentLocations(ctx context.Context, id int64) (interface{}, error) {
	return c.getf(ctx, nil, "/deployments/%d/locations", id)
}

// DeploymentDevices lists the devices of a deployment.
func (c *Client) DeploymentDevices(ctx context.Context, id int64) (interface{}, error) {
	return c.getf(ctx, nil, "/deployments/%d/devices", id)
}

// DeploymentParameters lists the parameters measured in a deployment.
func (c *Client) DeploymentParameters(ctx context.Context, id int64) (interface{}, error) {
	return c.getf(ctx, nil, "/deployments/%d/parameters", id)
}

// DeploymentSupplies lists the energy supplies of a deployment.
func (c *Client) DeploymentSupplies(ctx context.Context, id int64) (interface{}, error) {
	return c.getf(ctx, nil, "/deployments/%d/supplies", id)
}

// Location returns the location with the given id.
func (c *Client) Location(ctx context.Context, id int64) (interface{}, error) {
	return c.getf(ctx, nil, "/locations/%d", id)
}

// LocationDevices lists the devices installed in a location.
func (c *Client) LocationDevices(ctx context.Context, id int64) (interface{}, error) {
	return c.getf(ctx, nil, "/locations/%d/devices", id)
}

// LocationParameters lists the parameters available for a location.
func (c *Client) LocationParameters(ctx context.Context, id int64) (interface{}, error) {
	return c.getf(ctx, nil, "/locations/%d/parameters", id)
}

// Device returns the device with the given id.
func (c *Client) Device(ctx context.Context, id int64) (interface{}, error) {
	return c.getf(ctx, nil, "/devices/%d", id)
}

// DeviceParameters lists the parameters a device reports.
func (c *Client) DeviceParameters(ctx context.Context, id int64) (interface{}, error) {
	return c.getf(ctx, nil, "/devices/%d/parameters", id)
}

// ReadingsQuery selects the readings of one parameter over a time range.
type ReadingsQuery struct {
	// Parameter is the parameter key, e.g. "EACTIVE".
	Parameter string
	From      time.Time
	To        time.Time
	// Resolution is the vendor resolution code, e.g. "B" (15 min) or "H" (hourly).
	Resolution string
	// Operation optionally aggregates values, e.g. "DELTA".
	Operation string
}

func (q ReadingsQuery) values() url.Values {
	v := url.Values{}
	v.Set("parameter_key", q.Parameter)
	v.Set("from", q.From.UTC().Format(QueryTimeLayout))
	v.Set("to", q.To.UTC().Format(QueryTimeLayout))
	if q.Resolution != "" {
		v.Set("resolution", q.Resolution)
	}
	if q.Operation != "" {
		v.Set("operation", q.Operation)
	}
	return v
}

// DeviceReadings returns readings of a device.
func (c *Client) DeviceReadings(ctx context.Context, id int64, q ReadingsQuery) (interface{}, error) {
	return c.getf(ctx, q.values(), "/devices/%d/readings", id)
}

// CostQuery selects the cost of a supply over a time range.
type CostQuery struct {
	From       time.Time
	To         time.Time
	Resolution string
	// Supply restricts the result to one supply, e.g. "ELECTRICAL".
	Supply string
}

func (q CostQuery) values() url.Values {
	v := url.Values{}
	v.Set("from", q.From.UTC().Format(QueryTimeLayout))
	v.Set("to", q.To.UTC().Format(QueryTimeLayout))
	if q.Resolution != "" {
		v.Set("resolution", q.Resolution)
	}
	if q.Supply != "" {
		v.Set("energy_type", q.Supply)
	}
	return v
}

// LocationCost returns the cost of a location.
func (c *Client) LocationCost(ctx context.Context, locationID int64, q CostQuery) (interface{}, error) {
	return c.getf(ctx, q.values(), "/cost/%d/readings", locationID)
}
