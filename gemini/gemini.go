// Package gemini implements [psagent.Provider] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK, translating between psagent's
// domain types and the Gemini API types. Streaming uses the SDK's iter.Seq2
// iterator, wrapped into the pull-based [psagent.Stream] interface.
package gemini

import "github.com/fwojciec/psagent"

const (
	// DefaultModel is the model used when neither the client nor the request
	// names one.
	DefaultModel     = "gemini-2.0-flash"
	defaultMaxTokens = 500
)

// ErrStreamClosed is returned by Next after Close.
var ErrStreamClosed = psagent.ErrStreamClosed
