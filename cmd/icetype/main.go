package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/icetype/icetype/internal/app"
	"github.com/icetype/icetype/internal/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "icetype",
	Short: "Compact schema toolkit for typed data models",
	Long:  `Parse IceType schema definitions, validate them, diff versions, build and merge migrations, and generate SQL or TypeScript from a single source of truth.`,
}

var validateCmd = &cobra.Command{
	Use:   "validate [schema files...]",
	Short: "Validate schema definitions",
	RunE:  runValidate,
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare two schema versions",
	RunE:  runDiff,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Build a migration from two schema versions",
	RunE:  runMigrate,
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Collapse the stored migration chain into one migration",
	RunE:  runMerge,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate target files for every configured dialect",
	RunE:  runGenerate,
}

var inferCmd = &cobra.Command{
	Use:   "infer",
	Short: "Infer a schema definition from a sample document",
	RunE:  runInfer,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate targets whenever a schema file changes",
	RunE:  runWatch,
}

var workflowService = app.NewService()

var (
	configPath  string
	oldPath     string
	newPath     string
	fromVersion string
	toVersion   string
	description string
	samplePath  string
	typeName    string
	showText    bool
	autoYes     bool
	verbose     bool
)

func init() {
	validateCmd.Flags().StringVar(&configPath, "config", "", "Path to the icetype configuration file")
	validateCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	diffCmd.Flags().StringVar(&oldPath, "old", "", "Path to the old schema version")
	diffCmd.Flags().StringVar(&newPath, "new", "", "Path to the new schema version")
	diffCmd.Flags().BoolVar(&showText, "text", false, "Also show a character-level diff of the raw files")
	diffCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	diffCmd.MarkFlagRequired("old")
	diffCmd.MarkFlagRequired("new")

	migrateCmd.Flags().StringVar(&configPath, "config", "", "Path to the icetype configuration file")
	migrateCmd.Flags().StringVar(&oldPath, "old", "", "Path to the old schema version")
	migrateCmd.Flags().StringVar(&newPath, "new", "", "Path to the new schema version")
	migrateCmd.Flags().StringVar(&fromVersion, "from", "", "Version the old schema is at")
	migrateCmd.Flags().StringVar(&toVersion, "to", "", "Version the new schema moves to")
	migrateCmd.Flags().StringVar(&description, "description", "", "Human readable migration description")
	migrateCmd.Flags().BoolVar(&autoYes, "yes", false, "Apply breaking migrations without confirmation")
	migrateCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	migrateCmd.MarkFlagRequired("old")
	migrateCmd.MarkFlagRequired("new")
	migrateCmd.MarkFlagRequired("from")
	migrateCmd.MarkFlagRequired("to")

	mergeCmd.Flags().StringVar(&configPath, "config", "", "Path to the icetype configuration file")
	mergeCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	generateCmd.Flags().StringVar(&configPath, "config", "", "Path to the icetype configuration file")
	generateCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	inferCmd.Flags().StringVar(&samplePath, "sample", "", "Path to a sample document")
	inferCmd.Flags().StringVar(&typeName, "name", "Inferred", "Type name for the inferred schema")
	inferCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	inferCmd.MarkFlagRequired("sample")

	watchCmd.Flags().StringVar(&configPath, "config", "", "Path to the icetype configuration file")
	watchCmd.Flags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(inferCmd)
	rootCmd.AddCommand(watchCmd)

	cobra.OnInitialize(func() {
		rootCmd.SilenceUsage = true
		rootCmd.SilenceErrors = true
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	return workflowService.Validate(cfg, args, verbose)
}

func runDiff(cmd *cobra.Command, args []string) error {
	return workflowService.Diff(oldPath, newPath, showText, verbose)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	return workflowService.Migrate(cfg, app.MigrateOptions{
		OldPath:     oldPath,
		NewPath:     newPath,
		From:        fromVersion,
		To:          toVersion,
		Description: description,
		Yes:         autoYes,
		Verbose:     verbose,
	})
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	return workflowService.Merge(cfg, verbose)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	return workflowService.Generate(cmd.Context(), cfg, verbose)
}

func runInfer(cmd *cobra.Command, args []string) error {
	return workflowService.Infer(samplePath, typeName, verbose)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}

	return workflowService.Watch(cmd.Context(), cfg, verbose)
}
