package agentflow

import (
	"strings"
)

// ParseResult is the typed interpretation of one model reply: a tool
// choice, a final answer, or neither.
type ParseResult interface {
	parseResult()
}

// ToolChoice is a parsed "Action" reply.
type ToolChoice struct {
	Thought string
	Tool    string
	Input   string
}

// FinalAnswer is a parsed "Final Answer" reply.
type FinalAnswer struct {
	Thought string
	Text    string
}

// Unparseable is a reply that fits neither form.
type Unparseable struct {
	Reply string
}

func (ToolChoice) parseResult()  {}
func (FinalAnswer) parseResult() {}
func (Unparseable) parseResult() {}

// ParseReply classifies a model reply. The first decisive marker wins
// when a reply rambles through several; markdown decoration around the
// markers is tolerated.
func ParseReply(reply string) ParseResult {
	lines := strings.Split(reply, "\n")

	finalAt, actionAt := -1, -1
	for i, line := range lines {
		clean := normalizeLine(line)
		if _, ok := splitPrefixFold(clean, "final answer:"); ok && finalAt < 0 {
			finalAt = i
		}
		if _, ok := splitPrefixFold(clean, "action input:"); ok {
			continue
		}
		if _, ok := splitPrefixFold(clean, "action:"); ok && actionAt < 0 {
			actionAt = i
		}
	}

	switch {
	case finalAt >= 0 && (actionAt < 0 || finalAt < actionAt):
		return parseFinal(lines, finalAt)
	case actionAt >= 0:
		return parseAction(lines, actionAt)
	default:
		return Unparseable{Reply: reply}
	}
}

func parseFinal(lines []string, at int) ParseResult {
	rest, _ := splitPrefixFold(normalizeLine(lines[at]), "final answer:")
	parts := []string{rest}
	for _, line := range lines[at+1:] {
		if isMarker(normalizeLine(line)) {
			break
		}
		parts = append(parts, line)
	}

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return Unparseable{Reply: strings.Join(lines, "\n")}
	}
	return FinalAnswer{Thought: thoughtBefore(lines, at), Text: text}
}

func parseAction(lines []string, at int) ParseResult {
	tool, _ := splitPrefixFold(normalizeLine(lines[at]), "action:")
	if tool == "" {
		return Unparseable{Reply: strings.Join(lines, "\n")}
	}

	var input string
	for _, line := range lines[at+1:] {
		if rest, ok := splitPrefixFold(normalizeLine(line), "action input:"); ok {
			input = rest
			break
		}
	}
	return ToolChoice{Thought: thoughtBefore(lines, at), Tool: tool, Input: input}
}

func thoughtBefore(lines []string, at int) string {
	var parts []string
	for _, line := range lines[:at] {
		clean := normalizeLine(line)
		if rest, ok := splitPrefixFold(clean, "thought:"); ok {
			clean = rest
		}
		if clean != "" {
			parts = append(parts, clean)
		}
	}
	return strings.Join(parts, " ")
}

func isMarker(clean string) bool {
	for _, prefix := range []string{"action:", "action input:", "observation:", "thought:", "final answer:"} {
		if _, ok := splitPrefixFold(clean, prefix); ok {
			return true
		}
	}
	return false
}

func normalizeLine(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "#>- \t")
	return strings.TrimSpace(strings.Trim(s, "*"))
}

func splitPrefixFold(line, prefix string) (string, bool) {
	if len(line) < len(prefix) || !strings.EqualFold(line[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(strings.Trim(line[len(prefix):], "* ")), true
}
