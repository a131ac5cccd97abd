package refineflow

// ReflectionSystemTmpl asks for a critique of a drafted answer.
const ReflectionSystemTmpl = `You are a careful reviewer of question answering systems. You point out factual gaps, unsupported claims and unclear phrasing.`

const ReflectionPromptTmpl = `A draft answer was produced for the question below.

<QUESTION>
{{.Question}}
</QUESTION>

<DRAFT>
{{.Draft}}
</DRAFT>

List the most important improvements the draft needs. If the draft is already good, say so. Output only the critique and nothing else.`

// ImprovementSystemTmpl asks for the final rewrite.
const ImprovementSystemTmpl = `You improve draft answers using reviewer feedback. You never add information that the draft did not contain.`

const ImprovementPromptTmpl = `Rewrite the draft answer to the question, taking the critique into account.

<QUESTION>
{{.Question}}
</QUESTION>

<DRAFT>
{{.Draft}}
</DRAFT>

<CRITIQUE>
{{.Critique}}
</CRITIQUE>

Output only the improved answer and nothing else.`

// TemplateData carries the values rendered into the refinement
// templates.
type TemplateData struct {
	Question string
	Draft    string
	Critique string
}
