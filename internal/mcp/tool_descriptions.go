package mcp

import "strings"

// ToolDescription provides enhanced descriptions for AI agents
type ToolDescription struct {
	Description string
	WhenToUse   []string
	Examples    []string
	NextTools   []string
}

// Enhanced tool descriptions for better AI discoverability
var toolDescriptions = map[string]ToolDescription{
	"handoff_send": {
		Description: "Send a message to another agent through its mailbox. Each directed pair of agents has a single slot; the recipient claims, executes and answers the message on its next poll",
		WhenToUse: []string{
			"When another agent should create a file, run a task or read a note",
			"When handing work over to an agent that polls the shared directory",
			"Instead of writing mailbox files by hand",
		},
		Examples: []string{
			`handoff_send(to: "jules", action: "add_file", payload: {path: "notes/plan.md", contents: "# Plan"})`,
			`handoff_send(to: "jules", action: "run_task", payload: {task: "lint"})`,
			`handoff_send(to: "gpt", action: "message", body: "Review finished", queue: true)`,
		},
		NextTools: []string{
			"handoff_peek - Check whether the recipient consumed the message",
			"handoff_run_once - Process the reply once it arrives",
		},
	},

	"handoff_peek": {
		Description: "Show pending messages addressed to this agent without claiming them. Nothing is modified",
		WhenToUse: []string{
			"Before processing, to see what other agents asked for",
			"When a send failed because a mailbox was busy",
		},
		Examples: []string{
			`handoff_peek()`,
			`handoff_peek(from: "cc")`,
		},
		NextTools: []string{
			"handoff_run_once - Process the pending messages",
		},
	},

	"handoff_run_once": {
		Description: "Run one poll: recover interrupted claims, flush queued replies, then claim, validate, execute, archive and answer every pending message addressed to this agent",
		WhenToUse: []string{
			"When handoff_peek shows pending messages",
			"When waiting for a reply from another agent",
		},
		Examples: []string{
			`handoff_run_once()`,
		},
		NextTools: []string{
			"handoff_archive_list - See what was processed",
			"handoff_rejected_list - Inspect messages that were rejected",
		},
	},

	"handoff_archive_list": {
		Description: "List processed messages kept in the archive, newest first",
		WhenToUse: []string{
			"To confirm a message was processed exactly once",
			"When auditing the exchange between agents",
		},
		Examples: []string{
			`handoff_archive_list(limit: 10)`,
		},
		NextTools: []string{
			"handoff_rejected_list - Inspect rejected messages",
		},
	},

	"handoff_rejected_list": {
		Description: "List rejected messages with the stage and reason of each rejection. Records keep the raw content of the message",
		WhenToUse: []string{
			"When a message produced an error reply",
			"When a sent message never shows up in the archive",
		},
		Examples: []string{
			`handoff_rejected_list(limit: 5)`,
		},
		NextTools: []string{
			"handoff_send - Send a corrected message",
		},
	},
}

// GetEnhancedDescription returns the full description of a tool for AI agents
func GetEnhancedDescription(toolName string) string {
	desc, ok := toolDescriptions[toolName]
	if !ok {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(desc.Description)
	sb.WriteString("\n\nWHEN TO USE THIS TOOL:\n")
	for _, when := range desc.WhenToUse {
		sb.WriteString("- " + when + "\n")
	}

	if len(desc.Examples) > 0 {
		sb.WriteString("\nEXAMPLES:\n")
		for _, example := range desc.Examples {
			sb.WriteString(example + "\n")
		}
	}

	return sb.String()
}

// GetNextToolSuggestions returns suggested next tools for a given tool
func GetNextToolSuggestions(toolName string) []map[string]string {
	desc, ok := toolDescriptions[toolName]
	if !ok {
		return nil
	}

	suggestions := make([]map[string]string, 0, len(desc.NextTools))
	for _, next := range desc.NextTools {
		suggestions = append(suggestions, map[string]string{
			"tool": next,
		})
	}
	return suggestions
}
