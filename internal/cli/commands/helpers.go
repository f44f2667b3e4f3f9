package commands

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dvanosdol88/ai-assistants/internal/app"
	"github.com/dvanosdol88/ai-assistants/internal/core/config"
	"github.com/dvanosdol88/ai-assistants/internal/core/logger"
)

// createContainer resolves the project root and builds all managers,
// logging through log tagged with the active identity.
func createContainer(log logger.Logger) (*app.Container, error) {
	projectRoot, err := config.ResolveProjectRoot(flagRoot)
	if err != nil {
		return nil, err
	}

	c, err := app.NewContainer(projectRoot, app.Options{Identity: flagAs, Logger: log})
	if err != nil {
		return nil, err
	}
	c.Logger = log.With("identity", c.Identity)

	return c, nil
}

// parseAssignments turns key=value pairs into a payload map. Values are
// read as YAML scalars so that true, 3 and [a, b] keep their types.
func parseAssignments(pairs []string) (map[string]any, error) {
	payload := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", pair)
		}

		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		payload[key] = value
	}
	return payload, nil
}

// readPayloadFile loads a YAML mapping used as the message payload
func readPayloadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload file: %w", err)
	}

	payload := map[string]any{}
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("payload file %s is not a YAML mapping: %w", path, err)
	}
	return payload, nil
}
