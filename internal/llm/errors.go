package llm

import "fmt"

type ErrUnsupportedProvider struct {
	Provider string
}

func (e ErrUnsupportedProvider) Error() string {
	return fmt.Sprintf("unsupported LLM provider: %s", e.Provider)
}

// OracleError marks an oracle call that failed or returned a malformed
// response. It is fatal to the current turn.
type OracleError struct {
	Reason string
	Err    error
}

func (e *OracleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oracle: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("oracle: %s", e.Reason)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}
