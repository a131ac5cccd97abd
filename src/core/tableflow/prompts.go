package tableflow

// PlanSystemTmpl primes the model to emit a machine-readable query
// plan instead of prose.
const PlanSystemTmpl = `You translate natural-language questions about a table into a JSON query plan. Output only a single JSON object and nothing else.`

// PlanPromptTmpl shows the model the table shape and the plan schema.
const PlanPromptTmpl = `The table has these columns:
{{- range .Columns}}
- {{.}}
{{- end}}

Sample rows:
{{- range .Sample}}
{{.}}
{{- end}}

Question: {{.Question}}

Respond with one JSON object of this shape, omitting any field you do not need:
{"columns": ["columns to show"], "filters": [{"column": "name", "op": "eq|ne|gt|lt|ge|le|contains", "value": "text"}], "aggregate": {"func": "count|sum|avg|min|max", "column": "name"}, "limit": 10}
Use only the listed column names.
{{- if .ParseError}}

Your previous reply could not be parsed: {{.ParseError}}. Reply with only the JSON object this time.
{{- end}}`

// PlanData carries the values rendered into the plan templates.
type PlanData struct {
	Columns    []string
	Sample     []string
	Question   string
	ParseError string
}

// SummarySystemTmpl primes the model to phrase a query result as an
// answer.
const SummarySystemTmpl = `You turn table query results into short natural-language answers. Use only the query result you are given.`

const SummaryPromptTmpl = `Question: {{.Question}}

Query result:
{{.Result}}

Answer the question in one or two sentences using only the query result. Output only the answer and nothing else.`

// SummaryData carries the values rendered into the summary templates.
type SummaryData struct {
	Question string
	Result   string
}
