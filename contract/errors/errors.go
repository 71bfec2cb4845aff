package errors

// Error codes for the broker and banking contracts. Keep stable; used across
// adapters, listeners and HTTP handlers to branch without parsing free text.
const (
	ErrCodeDeclareConflict     = "broker.declare_conflict"
	ErrCodePublishFailed       = "broker.publish_failed"
	ErrCodeConsumeFailed       = "broker.consume_failed"
	ErrCodeConsumerExists      = "broker.consumer_exists"
	ErrCodeNotConnected        = "broker.not_connected"
	ErrCodeSerializationFailed = "broker.serialization_failed"
	ErrCodeRequestTimeout      = "broker.request_timeout"
	ErrCodeMalformedCommand    = "broker.malformed_command"

	ErrCodeNotFound        = "banking.not_found"
	ErrCodeClientNotFound  = "banking.client_not_found"
	ErrCodeNoAccountsFound = "banking.no_accounts_found"
	ErrCodeBadInput        = "banking.bad_input"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }

var (
	ErrDeclareConflict     = Code(ErrCodeDeclareConflict)
	ErrPublishFailed       = Code(ErrCodePublishFailed)
	ErrConsumeFailed       = Code(ErrCodeConsumeFailed)
	ErrConsumerExists      = Code(ErrCodeConsumerExists)
	ErrNotConnected        = Code(ErrCodeNotConnected)
	ErrSerializationFailed = Code(ErrCodeSerializationFailed)
	ErrRequestTimeout      = Code(ErrCodeRequestTimeout)
	ErrMalformedCommand    = Code(ErrCodeMalformedCommand)

	ErrNotFound        = Code(ErrCodeNotFound)
	ErrClientNotFound  = Code(ErrCodeClientNotFound)
	ErrNoAccountsFound = Code(ErrCodeNoAccountsFound)
	ErrBadInput        = Code(ErrCodeBadInput)
)
