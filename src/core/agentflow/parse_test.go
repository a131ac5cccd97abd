package agentflow_test

import (
	"reflect"
	"testing"

	"github.com/pkumv1/AgenticAI-1/src/core/agentflow"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  agentflow.ParseResult
	}{
		{
			name:  "tool choice",
			reply: "Thought: I need the start date\nAction: QA Tool - conference.txt\nAction Input: conference start date",
			want: agentflow.ToolChoice{
				Thought: "I need the start date",
				Tool:    "QA Tool - conference.txt",
				Input:   "conference start date",
			},
		},
		{
			name:  "final answer",
			reply: "Thought: I can answer now\nFinal Answer: The conference starts on 9 March.",
			want: agentflow.FinalAnswer{
				Thought: "I can answer now",
				Text:    "The conference starts on 9 March.",
			},
		},
		{
			name:  "final answer spanning lines",
			reply: "Final Answer: The budget is 3200.\nThat covers both quarters.",
			want: agentflow.FinalAnswer{
				Text: "The budget is 3200.\nThat covers both quarters.",
			},
		},
		{
			name:  "markdown decorated markers",
			reply: "**Thought:** check the sheet\n**Action:** Spreadsheet - sales.csv\n**Action Input:** total revenue",
			want: agentflow.ToolChoice{
				Thought: "check the sheet",
				Tool:    "Spreadsheet - sales.csv",
				Input:   "total revenue",
			},
		},
		{
			name:  "missing action input",
			reply: "Action: QA Tool - notes.txt",
			want: agentflow.ToolChoice{
				Tool: "QA Tool - notes.txt",
			},
		},
		{
			name:  "uppercase final answer",
			reply: "FINAL ANSWER: yes",
			want:  agentflow.FinalAnswer{Text: "yes"},
		},
		{
			name:  "final answer before action wins",
			reply: "Final Answer: 42\nAction: QA Tool - x\nAction Input: y",
			want:  agentflow.FinalAnswer{Text: "42"},
		},
		{
			name:  "action before final answer wins",
			reply: "Action: QA Tool - x\nAction Input: y\nFinal Answer: premature",
			want: agentflow.ToolChoice{
				Tool:  "QA Tool - x",
				Input: "y",
			},
		},
		{
			name:  "thought without prefix",
			reply: "I should check the schedule first.\nAction: QA Tool - schedule.txt\nAction Input: opening day",
			want: agentflow.ToolChoice{
				Thought: "I should check the schedule first.",
				Tool:    "QA Tool - schedule.txt",
				Input:   "opening day",
			},
		},
		{
			name:  "free text",
			reply: "I am not sure what to do next.",
			want:  agentflow.Unparseable{Reply: "I am not sure what to do next."},
		},
		{
			name:  "empty final answer",
			reply: "Final Answer:",
			want:  agentflow.Unparseable{Reply: "Final Answer:"},
		},
		{
			name:  "action without tool name",
			reply: "Action:",
			want:  agentflow.Unparseable{Reply: "Action:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := agentflow.ParseReply(tt.reply)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseReply() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
