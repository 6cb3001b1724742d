package orchestrator

import (
	"strings"

	"github.com/vea-app/vea/internal/functions"
)

const promptHeader = `You are VEA, the AI assistant built into a business dashboard. You help the user understand and manage their projects, tasks, customers, finances, and tracked time.

## Response Style

- Be concise and direct. Don't pad responses with filler.
- Answer in plain sentences; avoid bold or italic emphasis.
- When you present numbers, name the period they cover.
- Don't repeat the user's question back to them. Just answer it.
`

const directiveInstructions = `## Function Calls

When the user's question needs live business data, respond with EXACTLY one line in this format and nothing else:

FUNCTION_CALL: function_name(param1: value1, param2: "value two")

Do not wrap the line in a code block. If no function is needed, answer normally.
`

const narrationInstruction = `Use the function result above to answer the user's question in plain language. Do not mention the function call or show raw JSON.`

// capabilitiesReply is sent when the user asks for an image or video but no
// media provider is configured.
const capabilitiesReply = `I can't generate images or videos right now because no media provider is configured. I can still help with your business data: projects, tasks, customers, invoices, cash flow, time tracking, and an overall business health check.`

// SystemPrompt renders the system message for a turn. The function catalog
// is always advertised; the textual directive grammar is only included when
// the provider has no native tool-calling interface.
func SystemPrompt(registry *functions.Registry, nativeTools bool) string {
	var sb strings.Builder
	sb.WriteString(promptHeader)
	sb.WriteString("\n## Available Functions\n\n")
	for _, d := range registry.All() {
		sb.WriteString(d.PromptLine())
		sb.WriteByte('\n')
	}
	if !nativeTools {
		sb.WriteByte('\n')
		sb.WriteString(directiveInstructions)
	}
	return sb.String()
}
