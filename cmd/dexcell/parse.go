package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bft-labs/dexcell/pkg/message"
)

// parseExtra turns repeated k=v flags into envelope fields. Values that are
// valid JSON keep their type, anything else is sent as a string.
func parseExtra(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("extra field %q: want key=value", p)
		}
		var decoded interface{}
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			out[k] = decoded
		} else {
			out[k] = v
		}
	}
	return out, nil
}

// parseQuery turns repeated k=v flags into query parameters.
func parseQuery(pairs []string) (url.Values, error) {
	q := url.Values{}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("query parameter %q: want key=value", p)
		}
		q.Add(k, v)
	}
	return q, nil
}

// streamLine is one reading on the stream command's stdin.
type streamLine struct {
	Node    string          `json:"node"`
	Service json.RawMessage `json:"service"`
	Value   json.RawMessage `json:"value"`
	Seq     *int64          `json:"seq"`
	TS      string          `json:"ts"`
}

// decodeLine parses one JSON line. hasSeq is false when the line carries no
// sequence number and one must be assigned.
func decodeLine(b []byte, now time.Time) (msg message.ServiceMessage, hasSeq bool, err error) {
	var l streamLine
	if err := json.Unmarshal(b, &l); err != nil {
		return msg, false, fmt.Errorf("decode line: %w", err)
	}

	service, err := parseServiceJSON(l.Service)
	if err != nil {
		return msg, false, err
	}
	if len(l.Value) == 0 {
		return msg, false, fmt.Errorf("missing value")
	}

	var seq int64
	if l.Seq != nil {
		seq = *l.Seq
	}
	var ts interface{} = now
	if l.TS != "" {
		ts = l.TS
	}

	msg, err = message.New(l.Node, service, ts, jsonScalar(l.Value), seq)
	return msg, l.Seq != nil, err
}

// parseServiceJSON accepts a numeric code or a service name.
func parseServiceJSON(raw json.RawMessage) (message.Service, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing service")
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return message.ParseService(name)
	}
	return message.ParseService(string(raw))
}

// jsonScalar returns a number or string for message coercion.
func jsonScalar(raw json.RawMessage) interface{} {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// parseAt resolves the --at flag, defaulting to now.
func parseAt(at string, now time.Time) interface{} {
	if at == "" {
		return now
	}
	return at
}
