package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dvanosdol88/ai-assistants/internal/app"
	"github.com/dvanosdol88/ai-assistants/internal/cli/ui"
	"github.com/dvanosdol88/ai-assistants/internal/core/config"
	"github.com/dvanosdol88/ai-assistants/internal/core/mailbox"
)

type initOptions struct {
	identity  string
	sharedDir string
	workspace string
	force     bool
	gitignore bool
}

func newInitCmd() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize handoff in the current project",
		Long: `Write .handoff/config.yaml for this agent and create the shared
mailbox directory layout.`,
		Example: `  # Initialize as "jules" with the default shared directory
  handoff init --identity jules

  # Share mailboxes through a directory outside the project
  handoff init --identity cc --shared-dir /srv/handoff`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts)
		},
	}

	cmd.Flags().StringVar(&opts.identity, "identity", "", "Name this agent receives messages under")
	cmd.Flags().StringVar(&opts.sharedDir, "shared-dir", config.DefaultSharedDir, "Mailbox directory, relative to the project root")
	cmd.Flags().StringVar(&opts.workspace, "workspace", "", "Directory add_file writes into (defaults to the project root)")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Force initialization, overwriting existing configuration")
	cmd.Flags().BoolVar(&opts.gitignore, "gitignore", false, "Add .handoff/ to .gitignore")
	_ = cmd.MarkFlagRequired("identity")

	return cmd
}

func runInit(opts *initOptions) error {
	projectRoot := flagRoot
	if projectRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		projectRoot = cwd
	}
	projectRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("invalid project root: %w", err)
	}

	if err := mailbox.ValidateIdentifier(opts.identity); err != nil {
		return err
	}

	container := app.NewContainerWithoutInit(projectRoot)
	configManager := container.ConfigManager

	if configManager.IsInitialized() && !opts.force {
		return fmt.Errorf("handoff already initialized. Use --force to reinitialize")
	}

	cfg := config.DefaultConfig(opts.identity)
	cfg.SharedDir = opts.sharedDir
	cfg.Workspace = opts.workspace

	if err := configManager.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	sharedDir := configManager.SharedDir(cfg)
	if err := mailbox.NewManager(sharedDir).Initialize(); err != nil {
		return err
	}

	if opts.gitignore && shouldUpdateGitignore(projectRoot) {
		if err := addToGitignore(projectRoot); err != nil {
			ui.Warning("Failed to update .gitignore: %v", err)
		} else {
			ui.OutputLine("Added .handoff/ to .gitignore")
		}
	}

	if ui.GlobalFormatter.IsJSON() {
		return ui.GlobalFormatter.Output(map[string]string{
			"identity":   cfg.Identity,
			"config":     configManager.GetConfigPath(),
			"shared_dir": sharedDir,
		})
	}

	ui.Success("Handoff initialized in %s", projectRoot)
	ui.PrintKeyValue("Identity", cfg.Identity)
	ui.PrintKeyValue("Configuration", filepath.Join(config.HandoffDir, config.ConfigFile))
	ui.PrintKeyValue("Shared directory", sharedDir)
	ui.OutputLine("\nRun 'handoff run' to start processing messages")

	return nil
}

func shouldUpdateGitignore(projectRoot string) bool {
	gitignorePath := filepath.Join(projectRoot, ".gitignore")

	content := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		content = string(data)
	}

	return !strings.Contains(content, config.HandoffDir)
}

func addToGitignore(projectRoot string) (err error) {
	gitignorePath := filepath.Join(projectRoot, ".gitignore")

	file, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = file.WriteString("\n# Handoff\n" + config.HandoffDir + "/\n")
	return err
}
