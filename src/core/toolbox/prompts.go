package toolbox

// RetrievalSystemTmpl primes the model for grounded answering.
const RetrievalSystemTmpl = `You are an assistant that answers questions using only the context you are given. If the context does not contain the answer, say that you cannot find it there. Do not invent information.`

// RetrievalPromptTmpl stuffs the retrieved passages ahead of the
// question.
const RetrievalPromptTmpl = `Use the passages inside <CONTEXT> to answer the question.

<CONTEXT>
{{- range .Passages}}
{{.}}
---
{{- end}}
</CONTEXT>

Question: {{.Question}}

Provide a clear and concise answer based only on the context above. Output only the answer and nothing else.`

// RetrievalData carries the values rendered into the retrieval
// templates.
type RetrievalData struct {
	Question string
	Passages []string
}
