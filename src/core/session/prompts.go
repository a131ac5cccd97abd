package session

// DirectSystemTmpl frames the single-completion answer path.
const DirectSystemTmpl = `You are a helpful assistant that answers questions strictly from the provided context. If the context does not contain the answer, say that you cannot find it.`

// DirectPromptTmpl stuffs the retrieved passages from every artifact
// into one completion.
const DirectPromptTmpl = `Use the context below to answer the question.

<CONTEXT>
{{- range .Passages}}
{{.}}
{{- end}}
</CONTEXT>

<QUESTION>
{{.Question}}
</QUESTION>

Output only the answer and nothing else.`

// DirectData carries the template values for DirectPromptTmpl.
type DirectData struct {
	Question string
	Passages []string
}
