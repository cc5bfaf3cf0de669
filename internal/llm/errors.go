package llm

import "errors"

var (
	// ErrRateLimited indicates the provider kept returning 429 after all
	// backoff attempts were exhausted.
	ErrRateLimited = errors.New("llm provider rate limited")

	// ErrTimeout indicates the request exceeded its per-attempt deadline.
	ErrTimeout = errors.New("llm request timed out")

	// ErrAuthFailed indicates the provider rejected our credentials and a
	// token refresh did not help.
	ErrAuthFailed = errors.New("llm authentication failed")

	// ErrTransport indicates a network failure or a persistent 5xx from
	// the provider after retries.
	ErrTransport = errors.New("llm transport error")

	// ErrUnparseable indicates the LLM response could not be recovered
	// into the expected structured format.
	ErrUnparseable = errors.New("unparseable llm output")

	// ErrUnknownProvider indicates a provider name the gateway does not
	// have an adapter for.
	ErrUnknownProvider = errors.New("unknown llm provider")
)
