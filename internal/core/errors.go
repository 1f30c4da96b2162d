package core

import "errors"

var (
	// ErrProviderUnavailable: an external dependency (LLM, embedding backend, graph store) is unreachable.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrIndexUnavailable is the vector index flavour of ErrProviderUnavailable.
	ErrIndexUnavailable = indexUnavailable{}
	// ErrMalformedResponse: the LLM answered with something that cannot be interpreted.
	ErrMalformedResponse = errors.New("malformed llm response")
	ErrEmptyQuery        = errors.New("empty query")
)

type indexUnavailable struct{}

func (indexUnavailable) Error() string { return "vector index unavailable" }

func (indexUnavailable) Is(target error) bool { return target == ErrProviderUnavailable }
