package agentflow

import (
	"github.com/pkumv1/AgenticAI-1/src/core/toolbox"
)

// SystemTmpl frames the model as a tool-using research assistant.
const SystemTmpl = `You are a research assistant. You answer questions by querying the tools you are given, one query at a time, and you follow the response format exactly.`

// QuestionPromptTmpl renders the question, the tool listing, the steps
// taken so far, and the two legal reply forms.
const QuestionPromptTmpl = `Answer the question below. You have access to the following tools:
{{range .Tools}}
{{.Name}}: {{.Description}}
{{- end}}

To query a tool, reply in this format:

Thought: what you need to find out next
Action: the exact name of one tool from the list
Action Input: the query to send to that tool

When you have enough information, reply instead with:

Thought: I can answer now
Final Answer: the answer to the question

Question: {{.Question}}
{{- if .Steps}}

Steps taken so far:
{{- range .Steps}}
Thought: {{.Thought}}
Action: {{.Tool}}
Action Input: {{.Input}}
Observation: {{.Observation}}
{{- end}}
{{- end}}
{{- if .ParseNote}}

{{.ParseNote}}
{{- end}}`

// RetryNote is appended to the prompt after a reply that fit neither
// legal form.
const RetryNote = `Your previous reply could not be understood. Reply again with either an "Action:" line followed by an "Action Input:" line, or a "Final Answer:" line, and nothing else.`

// PromptData carries the template values for QuestionPromptTmpl.
type PromptData struct {
	Question  string
	Tools     []toolbox.Listing
	Steps     []Step
	ParseNote string
}
