// Package registry maps tool names to handlers through an explicit
// registration table. Arguments are validated against each tool's declared
// JSON schema before the handler runs.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/psagent"
	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"
)

var _ psagent.ToolExecutor = (*Registry)(nil)

// Handler runs one action with its single string argument. Failures are
// described by the returned result, never by a Go error.
type Handler func(ctx context.Context, arg string) psagent.CommandResult

type entry struct {
	tool   psagent.Tool
	param  string
	schema *gojsonschema.Schema
	handle Handler
}

// Registry is an ordered table of tools. It is safe for concurrent use once
// registration is complete.
type Registry struct {
	entries map[string]*entry
	order   []string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds tool, dispatching its param argument to h. Registering the
// same name twice returns psagent.ErrDuplicateTool.
func (r *Registry) Register(tool psagent.Tool, param string, h Handler) error {
	if tool.Name == "" {
		return fmt.Errorf("%w: tool name is required", psagent.ErrValidation)
	}
	if param == "" {
		return fmt.Errorf("%w: tool %s: parameter name is required", psagent.ErrValidation, tool.Name)
	}
	if h == nil {
		return fmt.Errorf("%w: tool %s: handler is required", psagent.ErrValidation, tool.Name)
	}
	if _, ok := r.entries[tool.Name]; ok {
		return fmt.Errorf("%w: %s", psagent.ErrDuplicateTool, tool.Name)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(tool.Parameters))
	if err != nil {
		return fmt.Errorf("compiling schema for tool %s: %w", tool.Name, err)
	}
	r.entries[tool.Name] = &entry{tool: tool, param: param, schema: schema, handle: h}
	r.order = append(r.order, tool.Name)
	return nil
}

// Tools returns the registered tool definitions in registration order.
func (r *Registry) Tools() []psagent.Tool {
	tools := make([]psagent.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.entries[name].tool)
	}
	return tools
}

// Lookup returns the definition of the named tool.
func (r *Registry) Lookup(name string) (psagent.Tool, bool) {
	e, ok := r.entries[name]
	if !ok {
		return psagent.Tool{}, false
	}
	return e.tool, true
}

// Execute validates args and dispatches to the named tool's handler. Unknown
// tools and invalid arguments are reported as error results so the model can
// correct itself; the returned error is always nil.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (*psagent.ToolResult, error) {
	e, ok := r.entries[name]
	if !ok {
		logrus.WithField("tool", name).Warn("model called unknown tool")
		return errorResult(fmt.Sprintf("Error: unknown tool %q. Available tools: %s.", name, strings.Join(r.order, ", "))), nil
	}

	arg, err := e.argument(args)
	if err != nil {
		logrus.WithError(err).WithField("tool", name).Warn("rejected tool arguments")
		return errorResult(fmt.Sprintf("Error: invalid arguments for %s: %s", name, err)), nil
	}

	res := e.handle(ctx, arg)
	logrus.WithFields(logrus.Fields{
		"tool":       name,
		"succeeded":  res.Succeeded,
		"error_kind": res.ErrorKind.String(),
	}).Debug("tool finished")
	return res.ToolResult(), nil
}

// Call dispatches a single argument without going through JSON.
func (r *Registry) Call(ctx context.Context, name, arg string) (psagent.CommandResult, error) {
	e, ok := r.entries[name]
	if !ok {
		return psagent.CommandResult{}, fmt.Errorf("%w: %s", psagent.ErrToolNotFound, name)
	}
	return e.handle(ctx, arg), nil
}

func (e *entry) argument(args json.RawMessage) (string, error) {
	if len(strings.TrimSpace(string(args))) == 0 {
		args = json.RawMessage("{}")
	}
	result, err := e.schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return "", err
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			msgs = append(msgs, re.String())
		}
		return "", fmt.Errorf("%s", strings.Join(msgs, "; "))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(args, &fields); err != nil {
		return "", err
	}
	var arg string
	if err := json.Unmarshal(fields[e.param], &arg); err != nil {
		return "", fmt.Errorf("%s must be a string", e.param)
	}
	return arg, nil
}

func errorResult(text string) *psagent.ToolResult {
	return &psagent.ToolResult{
		Content: []psagent.ContentBlock{psagent.TextBlock{Text: text}},
		IsError: true,
	}
}
