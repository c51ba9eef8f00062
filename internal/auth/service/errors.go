package service

import "errors"

// Sentinel errors returned by the service layer. HTTP handlers map these to
// the RFC 6749 error taxonomy with errors.Is.
var (
	ErrInvalidRequest          = errors.New("invalid_request")
	ErrInvalidClient           = errors.New("invalid_client")
	ErrInvalidGrant            = errors.New("invalid_grant")
	ErrInvalidScope            = errors.New("invalid_scope")
	ErrUnauthorizedClient      = errors.New("unauthorized_client")
	ErrUnsupportedGrantType    = errors.New("unsupported_grant_type")
	ErrUnsupportedResponseType = errors.New("unsupported_response_type")

	ErrClientNotFound  = errors.New("client not found")
	ErrInvalidAPIToken = errors.New("invalid api token")
)
