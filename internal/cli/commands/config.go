package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dvanosdol88/ai-assistants/internal/cli/ui"
	"github.com/dvanosdol88/ai-assistants/internal/core/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage handoff configuration",
		Long:  "View and validate .handoff/config.yaml.",
		Example: `  # View the effective configuration
  handoff config show

  # Validate the configuration file
  handoff config validate`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Long:  "Display the configuration with defaults applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projectRoot, err := config.ResolveProjectRoot(flagRoot)
			if err != nil {
				return err
			}

			cfg, err := config.NewManager(projectRoot).Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal configuration: %w", err)
			}

			if ui.GlobalFormatter.IsJSON() {
				// Round-trip through YAML so durations render as "10s"
				var generic map[string]any
				if err := yaml.Unmarshal(data, &generic); err != nil {
					return err
				}
				return ui.GlobalFormatter.Output(generic)
			}

			ui.OutputLine("%s", string(data))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validate the configuration file to ensure it conforms to the expected format.

This command checks:
- Required fields are present
- Field types and duration formats are correct
- The identity is usable in mailbox file names`,
		Example: `  # Validate current project configuration
  handoff config validate

  # Validate with verbose output
  handoff config validate --verbose`,
		Args: cobra.NoArgs,
		RunE: validateConfig,
	}

	cmd.Flags().BoolP("verbose", "v", false, "Show detailed validation information")

	return cmd
}

func validateConfig(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	projectRoot, err := config.ResolveProjectRoot(flagRoot)
	if err != nil {
		return err
	}

	configManager := config.NewManager(projectRoot)
	if _, err := os.Stat(configManager.GetConfigPath()); err != nil {
		return config.ErrNotInitialized
	}

	// Load validates against the schema and the semantic rules
	cfg, err := configManager.Load()
	if err != nil {
		ui.Error("Configuration validation failed: %v", err)
		return fmt.Errorf("invalid configuration")
	}

	ui.Success("Configuration is valid")

	if verbose {
		ui.PrintKeyValue("Version", cfg.Version)
		ui.PrintKeyValue("Identity", cfg.Identity)
		ui.PrintKeyValue("Shared directory", configManager.SharedDir(cfg))
		ui.PrintKeyValue("Workspace", configManager.WorkspaceDir(cfg))
		ui.PrintKeyValue("Poll interval", cfg.Poll.Interval)
		ui.PrintKeyValue("Retry", fmt.Sprintf("%d attempts, %s to %s", cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoff, cfg.Retry.MaxBackoff))
		ui.PrintKeyValue("Replies", cfg.Reply.IsEnabled())
		ui.PrintKeyValue("add_file overwrite", cfg.Actions.AddFile.AllowOverwrite)
	}

	return nil
}
