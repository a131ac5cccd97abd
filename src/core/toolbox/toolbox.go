package toolbox

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/tools"
)

var (
	ErrDuplicateTool = errors.New("tool already registered")
	ErrUnknownTool   = errors.New("unknown tool")
)

// Listing is one registry entry as rendered into the agent prompt and
// the tools API.
type Listing struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry is the agent's action space: the named tools built during
// ingestion. Listing order is insertion order, the only deterministic
// selection signal the agent gets. Registration happens before the
// first question; afterwards the registry is only read.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]tools.Tool
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]tools.Tool),
	}
}

// Register adds a tool under its own name. A name collision fails with
// ErrDuplicateTool instead of silently replacing the earlier tool.
func (r *Registry) Register(tool tools.Tool) error {
	name := tool.Name()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.byName[name] = tool
	r.order = append(r.order, name)
	return nil
}

// List returns name and description pairs in registration order.
func (r *Registry) List() []Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listings := make([]Listing, 0, len(r.order))
	for _, name := range r.order {
		listings = append(listings, Listing{
			Name:        name,
			Description: r.byName[name].Description(),
		})
	}
	return listings
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Invoke runs the named tool with the given query. Unregistered names
// fail with ErrUnknownTool.
func (r *Registry) Invoke(ctx context.Context, name, query string) (string, error) {
	r.mu.RLock()
	tool, exists := r.byName[name]
	r.mu.RUnlock()
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	result, err := tool.Call(ctx, query)
	if err != nil {
		return "", fmt.Errorf("tool %s failed: %w", name, err)
	}
	return result, nil
}
