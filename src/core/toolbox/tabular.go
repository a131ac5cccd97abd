package toolbox

import (
	"context"
	"fmt"

	"github.com/pkumv1/AgenticAI-1/src/core/artifact"
)

// TableAnswerer is the tabular sub-agent behind every spreadsheet
// tool.
type TableAnswerer interface {
	Answer(ctx context.Context, table *artifact.Table, question string) (string, error)
}

// TabularTool exposes one extracted table to the agent. Queries are
// delegated to the tabular sub-agent; the table itself never passes
// through chunking or embedding.
type TabularTool struct {
	name        string
	description string
	table       *artifact.Table
	flow        TableAnswerer
}

func NewTabularTool(source string, table *artifact.Table, flow TableAnswerer) *TabularTool {
	return &TabularTool{
		name:        "Spreadsheet - " + source,
		description: fmt.Sprintf("Use this to answer questions about spreadsheet %s.", source),
		table:       table,
		flow:        flow,
	}
}

func (t *TabularTool) Name() string {
	return t.name
}

func (t *TabularTool) Description() string {
	return t.description
}

func (t *TabularTool) Call(ctx context.Context, query string) (string, error) {
	return t.flow.Answer(ctx, t.table, query)
}
