package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aatumaykin/mailbot/internal/llm"
)

// DefaultTimeout bounds a single tool execution.
const DefaultTimeout = 5 * time.Second

// Tool defines the interface that all tools must implement.
// A tool represents a function that can be called by the LLM.
type Tool interface {
	// Name returns the unique name of the tool.
	Name() string

	// Description tells the LLM when and how to use the tool.
	Description() string

	// Parameters returns a JSON Schema object describing the tool's input parameters.
	Parameters() map[string]interface{}

	// Execute runs the tool. args is a JSON-encoded object.
	Execute(ctx context.Context, args string) (string, error)
}

// Registry manages the collection of available tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry, replacing any tool with the same name.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("cannot register nil tool")
	}

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = tool
	return nil
}

// Get retrieves a tool by its name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tools sorted by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// ToSchema converts the registered tools to function definitions for the LLM.
func (r *Registry) ToSchema() []llm.ToolDefinition {
	tools := r.List()
	schemas := make([]llm.ToolDefinition, 0, len(tools))
	for _, tool := range tools {
		schemas = append(schemas, llm.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return schemas
}

// ToJSON converts the tool definitions to JSON for debug logging.
func (r *Registry) ToJSON() (string, error) {
	data, err := json.MarshalIndent(r.ToSchema(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schemas: %w", err)
	}
	return string(data), nil
}

// Result is the outcome of one tool call.
type Result struct {
	ToolCallID string
	Content    string
	Err        *ToolError
}

// Text is what gets reported back to the LLM.
func (r Result) Text() string {
	if r.Err != nil {
		return r.Err.ToLLMContext()
	}
	return r.Content
}

// Execute runs tc against the registry. Unknown tools are never executed and
// come back as a not-found ToolError. A zero timeout means DefaultTimeout.
func (r *Registry) Execute(ctx context.Context, tc llm.ToolCall, timeout time.Duration) Result {
	tool, ok := r.Get(tc.Name)
	if !ok {
		return Result{
			ToolCallID: tc.ID,
			Err: NewNotFoundError("tool_not_found",
				fmt.Sprintf("tool not found: %s", tc.Name),
				"Use only get_current_time or get_target_email"),
		}
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type toolResult struct {
		content string
		err     error
	}
	resultChan := make(chan toolResult, 1)

	go func() {
		content, err := tool.Execute(execCtx, tc.Arguments)
		resultChan <- toolResult{content: content, err: err}
	}()

	select {
	case res := <-resultChan:
		if res.err != nil {
			return Result{ToolCallID: tc.ID, Err: asToolError(res.err)}
		}
		return Result{ToolCallID: tc.ID, Content: res.content}

	case <-execCtx.Done():
		if execCtx.Err() == context.DeadlineExceeded {
			return Result{
				ToolCallID: tc.ID,
				Err: NewTimeoutError("tool_timeout",
					fmt.Sprintf("tool execution timed out after %v", timeout),
					map[string]any{"tool": tc.Name}),
			}
		}
		return Result{
			ToolCallID: tc.ID,
			Err:        NewExecutionError("tool_cancelled", fmt.Sprintf("tool execution cancelled: %v", execCtx.Err()), ""),
		}
	}
}
