package solrdex

import "github.com/kailas-cloud/solrdex/internal/domain"

// Sentinel errors surfaced by builder commits.
// Use errors.Is() to check.
var (
	ErrTransport = domain.ErrTransport
	ErrDecode    = domain.ErrDecode
	ErrServer    = domain.ErrServer
	ErrUsage     = domain.ErrUsage
	ErrNotFound  = domain.ErrNotFound
)

// ServerError carries the server's verbatim error code and message.
// It wraps ErrServer; retrieve it with errors.As.
type ServerError = domain.ServerError
