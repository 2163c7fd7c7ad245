package message

import (
	"fmt"
	"strconv"
	"time"
)

// ServiceMessage is one sensor reading. Values are immutable once built;
// construct them with New.
type ServiceMessage struct {
	// Node is the network id of the reporting device.
	Node string

	// Service is the metric type code.
	Service Service

	// Timestamp is when the value was measured. It is converted to UTC
	// whenever it is formatted.
	Timestamp time.Time

	// Value is the measured magnitude.
	Value float64

	// SeqNum increases monotonically per node. The server uses it to order
	// and deduplicate readings.
	SeqNum int64
}

// New coerces the raw inputs to their canonical types (string, Service,
// time.Time, float64, int64) and returns the resulting message.
// Any coercion failure is reported as a *ConstructionError.
func New(node, service, timestamp, value, seq interface{}) (ServiceMessage, error) {
	var (
		m   ServiceMessage
		err error
	)

	m.Node = toString(node)
	code, err := toInt64(service)
	if err != nil {
		return ServiceMessage{}, &ConstructionError{Field: "service", Value: service, Err: err}
	}
	m.Service = Service(code)
	if m.Timestamp, err = toTime(timestamp); err != nil {
		return ServiceMessage{}, &ConstructionError{Field: "timestamp", Value: timestamp, Err: err}
	}
	if m.Value, err = toFloat64(value); err != nil {
		return ServiceMessage{}, &ConstructionError{Field: "value", Value: value, Err: err}
	}
	if m.SeqNum, err = toInt64(seq); err != nil {
		return ServiceMessage{}, &ConstructionError{Field: "seqnum", Value: seq, Err: err}
	}
	return m, nil
}

// MustNew is like New but panics on error. Intended for tests and constants.
func MustNew(node, service, timestamp, value, seq interface{}) ServiceMessage {
	m, err := New(node, service, timestamp, value, seq)
	if err != nil {
		panic(err)
	}
	return m
}

// String renders the message with its fields in a fixed order and the
// timestamp as "2006/01/02 15:04".
func (m ServiceMessage) String() string {
	return fmt.Sprintf("ServiceMessage(node=%s, service=%d, timestamp=%s, value=%s, seqnum=%d)",
		m.Node,
		int(m.Service),
		m.Timestamp.UTC().Format("2006/01/02 15:04"),
		strconv.FormatFloat(m.Value, 'f', -1, 64),
		m.SeqNum,
	)
}

// Equal reports whether all five fields match. Timestamps are compared as
// instants, so the same moment in two locations is equal.
func (m ServiceMessage) Equal(other ServiceMessage) bool {
	return m.Node == other.Node &&
		m.Service == other.Service &&
		m.Timestamp.Equal(other.Timestamp) &&
		m.Value == other.Value &&
		m.SeqNum == other.SeqNum
}
