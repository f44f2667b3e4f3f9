// Command handoff exchanges work between agents through filesystem mailboxes.
package main

import (
	"os"

	"github.com/dvanosdol88/ai-assistants/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
