package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed API call.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindInvalidToken
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NOTFOUND"
	case KindInvalidToken:
		return "INVALIDTOKEN"
	default:
		return "UNKNOWN"
	}
}

// Error is returned for every non-2xx response.
type Error struct {
	Kind       ErrorKind
	StatusCode int

	// Description and Info are copied from the server's error document.
	Description string
	Info        string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("dexcell api: %s (status %d)", e.Kind, e.StatusCode)
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Info != "" {
		msg += " (" + e.Info + ")"
	}
	return msg
}

// Is lets errors.Is match on kind: errors.Is(err, &Error{Kind: KindNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// IsNotFound reports whether err is an API error of kind NOTFOUND.
func IsNotFound(err error) bool { return hasKind(err, KindNotFound) }

// IsInvalidToken reports whether err is an API error of kind INVALIDTOKEN.
func IsInvalidToken(err error) bool { return hasKind(err, KindInvalidToken) }

func hasKind(err error, kind ErrorKind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized:
		return KindInvalidToken
	default:
		return KindUnknown
	}
}

// errorDocument is the body the API sends with failures.
type errorDocument struct {
	Description string `json:"description"`
	MoreInfo    string `json:"moreInfo"`
	Info        string `json:"info"`
	Message     string `json:"message"`
}

func newError(status int, body []byte) *Error {
	e := &Error{Kind: kindForStatus(status), StatusCode: status}

	var doc errorDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		e.Description = http.StatusText(status)
		return e
	}
	e.Description = doc.Description
	if e.Description == "" {
		e.Description = doc.Message
	}
	e.Info = doc.MoreInfo
	if e.Info == "" {
		e.Info = doc.Info
	}
	return e
}
