package powershell

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/psagent"
)

// maxRelated caps the fuzzy fallback's match list.
const maxRelated = 5

// HelpResolver looks up PowerShell help for a query term, falling back to a
// wildcard search over command names.
type HelpResolver struct {
	interp  Interpreter
	timeout time.Duration
}

// NewHelpResolver creates a HelpResolver. The timeout applies to each of
// the two lookup steps separately.
func NewHelpResolver(opts ...Option) *HelpResolver {
	o := newOptions(DefaultSearchTimeout, opts)
	return &HelpResolver{interp: o.interp, timeout: o.timeout}
}

// Search returns human-readable help text for query.
func (h *HelpResolver) Search(ctx context.Context, query string) string {
	return h.Lookup(ctx, query).Output
}

// Lookup tries Get-Help first, then a Get-Command wildcard search, and
// reports which outcome applied.
func (h *HelpResolver) Lookup(ctx context.Context, query string) psagent.CommandResult {
	query = strings.TrimSpace(query)

	out := h.interp.run(ctx, h.timeout, helpScript(query))
	if r, done := h.settle(out); done {
		return r
	}
	if out.ok() {
		if text := strings.TrimSpace(out.stdout); text != "" {
			return psagent.CommandResult{Succeeded: true, Output: text}
		}
	}

	out = h.interp.run(ctx, h.timeout, relatedScript(query))
	if r, done := h.settle(out); done {
		return r
	}
	if out.ok() {
		if text := strings.TrimSpace(out.stdout); text != "" {
			return psagent.CommandResult{
				Succeeded: true,
				Output:    fmt.Sprintf("Related commands found:\n%s\n\nUse Get-Help <command-name> for more details.", text),
			}
		}
	}

	return psagent.CommandResult{
		Output:    NoHelpMessage(query),
		ErrorKind: psagent.ErrorKindNoResultsFound,
	}
}

// settle maps the failures that end a lookup immediately.
func (h *HelpResolver) settle(out outcome) (psagent.CommandResult, bool) {
	switch {
	case out.canceled:
		return psagent.CommandResult{
			Output:    "Error: Search canceled.",
			ErrorKind: psagent.ErrorKindCanceled,
		}, true
	case out.timedOut:
		return psagent.CommandResult{
			Output:    "Error: Search timed out.",
			ErrorKind: psagent.ErrorKindTimeout,
		}, true
	case out.launch != nil:
		return psagent.CommandResult{
			Output:    "Error searching for command: " + out.launch.Error(),
			ErrorKind: psagent.ErrorKindLaunchFailure,
		}, true
	}
	return psagent.CommandResult{}, false
}

// NoHelpMessage is returned when neither lookup step found anything.
func NoHelpMessage(query string) string {
	return fmt.Sprintf("No help found for '%s'. Try using more specific command names like Get-Process, Get-Service, etc.", query)
}

func helpScript(query string) string {
	if query == "" {
		return "Get-Help -ErrorAction SilentlyContinue"
	}
	return fmt.Sprintf("Get-Help %s -ErrorAction SilentlyContinue", quote(query))
}

// relatedScript lists up to maxRelated commands whose name contains query.
// PowerShell wildcard matching is case-insensitive.
func relatedScript(query string) string {
	return fmt.Sprintf(
		"Get-Command -Name %s -ErrorAction SilentlyContinue | Select-Object -First %d | "+
			"ForEach-Object { $s = \"$((Get-Help $_.Name -ErrorAction SilentlyContinue).Synopsis)\" -replace '\\s+', ' '; "+
			"'{0} - {1}' -f $_.Name, $s.Trim() }",
		quote("*"+query+"*"), maxRelated)
}

// quoteEscaper doubles every character PowerShell accepts as a single quote.
var quoteEscaper = strings.NewReplacer(
	"'", "''",
	"‘", "‘‘",
	"’", "’’",
	"‚", "‚‚",
	"‛", "‛‛",
)

// quote renders s as a PowerShell single-quoted string literal.
func quote(s string) string {
	return "'" + quoteEscaper.Replace(s) + "'"
}
