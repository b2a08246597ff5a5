package client

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

const (
	MsgUnableToConnect = "Unable to connect to server, please try again in a while."
	MsgNoResponse      = "Unable to get response from server, please try again in a while."
)

// TransportError reports a request that never produced a response. Message
// is safe to show to users; Err keeps the underlying cause.
type TransportError struct {
	Method  string
	URL     string
	Message string
	Err     error
}

func (e *TransportError) Error() string { return e.Message }

func (e *TransportError) Unwrap() error { return e.Err }

// ResponseError is a non-2xx response. Message is the server's message,
// unchanged.
type ResponseError struct {
	StatusCode int
	Code       string
	Message    string
	// Results carries field errors for validation failures.
	Results map[string][]string
}

func (e *ResponseError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func newTransportError(method, url string, err error) *TransportError {
	msg := MsgNoResponse
	if isConnectFailure(err) {
		msg = MsgUnableToConnect
	}
	return &TransportError{Method: method, URL: url, Message: msg, Err: err}
}

// isConnectFailure reports whether err happened before a connection to the
// server existed: DNS failures, refused or unreachable dials.
func isConnectFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}
