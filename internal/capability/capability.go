package capability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/scholarline/scholarline/engine/internal/llm"
)

// Handler executes one capability with validated arguments and returns a
// JSON-serializable payload.
type Handler func(ctx context.Context, args map[string]any) (any, error)

type ArgSpec struct {
	Name     string
	Type     string // "string", "number" or "array"
	Required bool
}

type Capability struct {
	Name        string
	Description string
	// Parameters is the JSON schema advertised to the oracle.
	Parameters map[string]any
	Args       []ArgSpec
	Handler    Handler
}

// Registry maps capability names to handlers. It is populated at startup and
// read-only afterwards, safe for concurrent use across turns.
type Registry struct {
	capabilities map[string]Capability
	order        []string
}

func NewRegistry() *Registry {
	return &Registry{capabilities: map[string]Capability{}}
}

func (r *Registry) Register(c Capability) {
	if _, exists := r.capabilities[c.Name]; !exists {
		r.order = append(r.order, c.Name)
	}
	r.capabilities[c.Name] = c
}

// Tools renders the registered capabilities in the oracle's tool format, in
// registration order.
func (r *Registry) Tools() []llm.Tool {
	tools := make([]llm.Tool, 0, len(r.order))
	for _, name := range r.order {
		c := r.capabilities[name]
		tools = append(tools, llm.Tool{
			Name:        c.Name,
			Description: c.Description,
			Parameters:  c.Parameters,
		})
	}
	return tools
}

// Execute validates rawArgs against the capability's declared arguments and
// dispatches. Validation failures never reach the handler.
func (r *Registry) Execute(ctx context.Context, name string, rawArgs string) (any, error) {
	c, ok := r.capabilities[name]
	if !ok {
		return nil, &UnknownCapabilityError{Name: name}
	}

	args := map[string]any{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return nil, &InvalidArgumentsError{Capability: name, Reason: "arguments are not a JSON object"}
		}
	}
	if err := validateArgs(c, args); err != nil {
		return nil, err
	}

	payload, err := c.Handler(ctx, args)
	if err != nil {
		var invalid *InvalidArgumentsError
		var execErr *ExecutionError
		if errors.As(err, &invalid) || errors.As(err, &execErr) {
			return nil, err
		}
		return nil, &ExecutionError{Capability: name, Err: err}
	}
	return payload, nil
}

func validateArgs(c Capability, args map[string]any) error {
	for _, spec := range c.Args {
		value, present := args[spec.Name]
		if !present || value == nil {
			if spec.Required {
				return &InvalidArgumentsError{Capability: c.Name, Reason: fmt.Sprintf("missing required argument %q", spec.Name)}
			}
			continue
		}
		if !typeMatches(spec.Type, value) {
			return &InvalidArgumentsError{Capability: c.Name, Reason: fmt.Sprintf("argument %q must be a %s", spec.Name, spec.Type)}
		}
		if spec.Required && spec.Type == "string" {
			if s, _ := value.(string); strings.TrimSpace(s) == "" {
				return &InvalidArgumentsError{Capability: c.Name, Reason: fmt.Sprintf("argument %q must not be empty", spec.Name)}
			}
		}
	}
	return nil
}

func typeMatches(kind string, value any) bool {
	switch kind {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := value.(float64)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	default:
		return true
	}
}

func stringArg(args map[string]any, name string) string {
	value, _ := args[name].(string)
	return value
}

func numberArg(args map[string]any, name string) (float64, bool) {
	value, ok := args[name].(float64)
	return value, ok
}
