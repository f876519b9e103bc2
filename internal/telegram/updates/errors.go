package updates

import "errors"

var (
	// ErrInvalidConfig is returned for a malformed webhook URL, path or bind address.
	ErrInvalidConfig = errors.New("updates: invalid webhook config")
	// ErrRegisterWebhook is returned when the webhook could not be set upstream.
	ErrRegisterWebhook = errors.New("updates: register webhook")
	// ErrBind is returned when the webhook server cannot listen on its address.
	ErrBind = errors.New("updates: bind webhook address")
	// ErrServer is yielded when the webhook server exits on its own.
	ErrServer = errors.New("updates: webhook server failed")
)
