package sender

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/bft-labs/dexcell/pkg/message"
)

const timestampLayout = "2006-01-02T15:04:05"

// reading is one ServiceMessage on the wire. Field order matches the
// documented envelope.
type reading struct {
	NodeNetworkID    string  `json:"nodeNetworkId"`
	ServiceNetworkID int     `json:"serviceNetworkId"`
	Value            float64 `json:"value"`
	SeqNum           int64   `json:"seqNum"`
	TimeStamp        string  `json:"timeStamp"`
}

// FormatTimestamp renders t in UTC as "2006-01-02T15:04:05" followed by the
// literal ".000 " and tz. The server parses exactly this shape.
func FormatTimestamp(t time.Time, tz string) string {
	return t.UTC().Format(timestampLayout) + ".000 " + tz
}

func newReading(m message.ServiceMessage, tz string) reading {
	return reading{
		NodeNetworkID:    m.Node,
		ServiceNetworkID: int(m.Service),
		Value:            m.Value,
		SeqNum:           m.SeqNum,
		TimeStamp:        FormatTimestamp(m.Timestamp, tz),
	}
}

// member is one top-level envelope field.
type member struct {
	key   string
	value interface{}
}

// buildEnvelope serialises msgs for gateway as gatewayId, service, then the
// extra fields sorted by key. An extra gatewayId or service replaces the
// default value in place.
func buildEnvelope(gateway string, msgs []message.ServiceMessage, o submitOptions) ([]byte, error) {
	readings := make([]reading, 0, len(msgs))
	for _, m := range msgs {
		readings = append(readings, newReading(m, o.timezone))
	}

	members := []member{{"gatewayId", gateway}, {"service", readings}}
	keys := make([]string, 0, len(o.extra))
	for k := range o.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch k {
		case "gatewayId":
			members[0].value = o.extra[k]
		case "service":
			members[1].value = o.extra[k]
		default:
			members = append(members, member{k, o.extra[k]})
		}
	}
	return encodeObject(members)
}

// encodeObject writes members as one JSON object, keeping their order.
func encodeObject(members []member) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	// Encode appends a newline after every value.
	encode := func(v interface{}) error {
		if err := enc.Encode(v); err != nil {
			return err
		}
		buf.Truncate(buf.Len() - 1)
		return nil
	}

	buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encode(m.key); err != nil {
			return nil, fmt.Errorf("marshal envelope: %w", err)
		}
		buf.WriteByte(':')
		if err := encode(m.value); err != nil {
			return nil, fmt.Errorf("marshal envelope field %q: %w", m.key, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
