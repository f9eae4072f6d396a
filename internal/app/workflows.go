package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/icetype/icetype/internal/config"
	"github.com/icetype/icetype/internal/generator"
	"github.com/icetype/icetype/internal/loader"
	"github.com/icetype/icetype/internal/migrate"
	"github.com/icetype/icetype/internal/schema"
	"github.com/icetype/icetype/internal/store"
	"github.com/icetype/icetype/internal/watcher"
	"github.com/icetype/icetype/pkg/interactive"
	"github.com/icetype/icetype/pkg/logger"
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Validate(cfg *config.Config, schemaPaths []string, verboseFlag bool) error {
	log := logger.NewLogger(verboseFlag)

	files := schemaPaths
	if len(files) == 0 {
		var err error
		files, err = loader.Expand(cfg.Schemas)
		if err != nil {
			return err
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("no schema files matched %v", cfg.Schemas)
	}

	total, invalid := 0, 0
	for _, file := range files {
		defs, err := loader.LoadAll(file)
		if err != nil {
			color.Red("FAIL %s: %v", file, err)
			total++
			invalid++
			continue
		}

		for _, def := range defs {
			total++
			sch, err := schema.Parse(def)
			if err != nil {
				color.Red("FAIL %s: %v", file, err)
				invalid++
				continue
			}

			result := schema.Validate(sch)
			for _, warning := range result.Warnings {
				color.Yellow("WARN %s: %s: %s (%s)", sch.Name, warning.Code, warning.Message, warning.Path)
			}
			if !result.Valid {
				for _, issue := range result.Errors {
					color.Red("FAIL %s: %s: %s (%s)", sch.Name, issue.Code, issue.Message, issue.Path)
				}
				invalid++
				continue
			}
			color.Green("OK   %s (%d fields)", sch.Name, sch.Fields.Len())
		}
	}

	log.Infof("Validated %d schemas from %d files", total, len(files))
	if invalid > 0 {
		return fmt.Errorf("validation failed for %d of %d schemas", invalid, total)
	}
	return nil
}

func (s *Service) Diff(oldPath, newPath string, showText, verboseFlag bool) error {
	log := logger.NewLogger(verboseFlag)

	oldSchema, err := loadSchemaFile(oldPath)
	if err != nil {
		return err
	}
	newSchema, err := loadSchemaFile(newPath)
	if err != nil {
		return err
	}

	diff := migrate.DiffSchemas(oldSchema, newSchema)
	log.Debugf("Comparing %s: %d added, %d removed, %d modified",
		diff.SchemaName, len(diff.AddedFields), len(diff.RemovedFields), len(diff.ModifiedFields))

	fmt.Printf("Schema: %s\n", diff.SchemaName)
	if len(diff.Changes) == 0 {
		color.Green("No changes.")
	}
	for _, change := range diff.Changes {
		printChange(change)
	}

	if showText {
		oldData, err := os.ReadFile(oldPath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", oldPath, err)
		}
		newData, err := os.ReadFile(newPath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", newPath, err)
		}

		dmp := diffmatchpatch.New()
		diffs := dmp.DiffMain(string(oldData), string(newData), false)
		fmt.Println()
		fmt.Print(dmp.DiffPrettyText(diffs))
	}

	return nil
}

func printChange(change migrate.Change) {
	switch change.Kind {
	case migrate.ChangeAddField:
		color.Green("+ %s %s", change.FieldName, change.Field.TypeString())
	case migrate.ChangeRemoveField:
		color.Red("- %s %s", change.FieldName, change.Field.TypeString())
	case migrate.ChangeType:
		color.Yellow("~ %s: %s -> %s", change.FieldName, change.From, change.To)
	case migrate.ChangeModifier:
		color.Yellow("~ %s: modifier %q -> %q", change.FieldName, change.From, change.To)
	case migrate.ChangeDirective:
		if change.FieldName != "" {
			color.Yellow("~ %s: %s %s -> %s", change.FieldName, change.Directive, change.From, change.To)
			return
		}
		color.Yellow("~ $%s: %q -> %q", change.Directive, change.From, change.To)
	case migrate.ChangeRenameField:
		color.Yellow("~ %s renamed", change.FieldName)
	}
}

type MigrateOptions struct {
	OldPath     string
	NewPath     string
	From        string
	To          string
	Description string
	Yes         bool
	Verbose     bool
}

func (s *Service) Migrate(cfg *config.Config, opts MigrateOptions) error {
	log := logger.NewLogger(opts.Verbose)

	fromVersion, err := migrate.ParseVersion(opts.From)
	if err != nil {
		return fmt.Errorf("invalid from version: %w", err)
	}
	toVersion, err := migrate.ParseVersion(opts.To)
	if err != nil {
		return fmt.Errorf("invalid to version: %w", err)
	}

	oldSchema, err := loadSchemaFile(opts.OldPath)
	if err != nil {
		return err
	}
	newSchema, err := loadSchemaFile(opts.NewPath)
	if err != nil {
		return err
	}

	diff := migrate.DiffSchemas(oldSchema, newSchema)
	if diff.Empty() {
		log.Info("Schemas are structurally identical, nothing to migrate.")
		return nil
	}

	migration := migrate.FromDiff(diff, fromVersion, toVersion, migrate.Options{Description: opts.Description})

	if result := migrate.Validate(migration); !result.Valid {
		for _, issue := range result.Errors {
			color.Red("FAIL %s: %s", issue.Code, issue.Message)
		}
		return fmt.Errorf("generated migration failed validation with %d errors", len(result.Errors))
	}

	printMigrationSummary(migration)

	if migration.IsBreaking && !opts.Yes {
		prompt := interactive.NewPrompt(nil)
		if !prompt.ConfirmAction("breaking migration", diff.SchemaName) {
			log.Info("Migration cancelled.")
			return nil
		}
	}

	st := store.NewStore(cfg.MigrationsDir)
	path, err := st.Save(migration)
	if err != nil {
		return fmt.Errorf("failed to save migration: %w", err)
	}
	log.Infof("Migration written to %s", path)

	s.emitMigrationSQL(cfg, migration, log)
	return nil
}

// emitMigrationSQL renders the saved migration for every SQL target. A
// dialect that cannot express an operation skips with a warning instead of
// failing the whole run; the JSON migration is already on disk.
func (s *Service) emitMigrationSQL(cfg *config.Config, m *migrate.Migration, log *logger.Logger) {
	for _, target := range cfg.Targets {
		dialect, err := generator.Lookup(target.Dialect)
		if err != nil {
			log.Warnf("Skipping target %s: %v", target.Dialect, err)
			continue
		}

		statements, err := dialect.AlterStatements(m)
		if err != nil {
			log.Warnf("Skipping %s statements: %v", dialect.Name(), err)
			continue
		}

		path := filepath.Join(cfg.MigrationsDir, fmt.Sprintf("%s.%s.sql", m.ID, dialect.Name()))
		content := strings.Join(statements, "\n") + "\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			log.Warnf("Failed to write %s: %v", path, err)
			continue
		}
		log.Infof("Statements for %s written to %s", dialect.Name(), path)
	}
}

func printMigrationSummary(m *migrate.Migration) {
	fmt.Printf("\nMigration %s (%s -> %s)\n", m.ID, m.FromVersion, m.ToVersion)
	if m.IsBreaking {
		color.Red("BREAKING: this migration can lose or reject existing data")
	} else {
		color.Green("Safe: no destructive operations")
	}
	for _, op := range m.Operations {
		fmt.Printf("  %s\n", describeOperation(op))
	}
	fmt.Println()
}

func describeOperation(op migrate.Operation) string {
	switch op.Kind {
	case migrate.OpAddColumn:
		return fmt.Sprintf("addColumn %s.%s %s", op.Table, op.Column, op.ColumnType)
	case migrate.OpDropColumn:
		return fmt.Sprintf("dropColumn %s.%s", op.Table, op.Column)
	case migrate.OpRenameColumn:
		return fmt.Sprintf("renameColumn %s.%s -> %s", op.Table, op.OldName, op.NewName)
	case migrate.OpAlterColumn:
		var parts []string
		if op.Changes != nil {
			if tc := op.Changes.Type; tc != nil {
				parts = append(parts, fmt.Sprintf("type %s -> %s", tc.From, tc.To))
			}
			if nc := op.Changes.Nullable; nc != nil {
				parts = append(parts, fmt.Sprintf("nullable %t -> %t", nc.From, nc.To))
			}
			if op.Changes.Default != nil {
				parts = append(parts, "default")
			}
		}
		return fmt.Sprintf("alterColumn %s.%s (%s)", op.Table, op.Column, strings.Join(parts, ", "))
	case migrate.OpAddIndex:
		return fmt.Sprintf("addIndex %s (%s)", op.Table, strings.Join(op.Columns, ", "))
	case migrate.OpDropIndex:
		return fmt.Sprintf("dropIndex %s %s", op.Table, op.IndexName)
	case migrate.OpAddConstraint:
		name := ""
		if op.Constraint != nil {
			name = op.Constraint.Name
		}
		return fmt.Sprintf("addConstraint %s %s", op.Table, name)
	case migrate.OpDropConstraint:
		return fmt.Sprintf("dropConstraint %s %s", op.Table, op.ConstraintName)
	}
	return string(op.Kind)
}

func (s *Service) Merge(cfg *config.Config, verboseFlag bool) error {
	log := logger.NewLogger(verboseFlag)

	st := store.NewStore(cfg.MigrationsDir)
	chain, err := st.LoadChain()
	if err != nil {
		return err
	}

	log.Infof("Merging %d migrations from %s", len(chain), st.Directory())
	merged, err := migrate.Merge(chain)
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	if result := migrate.Validate(merged); !result.Valid {
		for _, issue := range result.Errors {
			color.Red("FAIL %s: %s", issue.Code, issue.Message)
		}
		return fmt.Errorf("merged migration failed validation with %d errors", len(result.Errors))
	}

	totalOps := 0
	for _, m := range chain {
		totalOps += len(m.Operations)
	}

	path, err := st.Save(merged)
	if err != nil {
		return fmt.Errorf("failed to save merged migration: %w", err)
	}

	printMigrationSummary(merged)
	log.Infof("Collapsed %d operations into %d", totalOps, len(merged.Operations))
	log.Infof("Merged migration written to %s", path)
	return nil
}

func (s *Service) Generate(ctx context.Context, cfg *config.Config, verboseFlag bool) error {
	log := logger.NewLogger(verboseFlag)

	if len(cfg.Targets) == 0 {
		return fmt.Errorf("no targets configured, add a targets section to %s", config.DefaultPath)
	}

	files, err := loader.Expand(cfg.Schemas)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no schema files matched %v", cfg.Schemas)
	}

	schemas, err := loadValidSchemas(files)
	if err != nil {
		return err
	}

	var jobs []generator.Job
	for _, target := range cfg.Targets {
		dialect, err := generator.Lookup(target.Dialect)
		if err != nil {
			return err
		}
		for _, sch := range schemas {
			jobs = append(jobs, generator.Job{Schema: sch, Dialect: dialect, Output: target.Output})
		}
	}

	runner := generator.NewRunner(cfg.Workers, log)
	if err := runner.Run(ctx, jobs); err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	log.Infof("Generated %d files for %d schemas across %d targets", len(jobs), len(schemas), len(cfg.Targets))
	return nil
}

func (s *Service) Infer(samplePath, typeName string, verboseFlag bool) error {
	log := logger.NewLogger(verboseFlag)

	sample, err := loader.Load(samplePath)
	if err != nil {
		return err
	}

	raw := schema.NewRawDefinition()
	raw.Set("$type", typeName)
	count := 0
	for _, entry := range sample.Entries() {
		if strings.HasPrefix(entry.Key, "$") {
			continue
		}
		raw.Set(entry.Key, schema.InferType(entry.Value))
		count++
	}
	if count == 0 {
		return fmt.Errorf("sample %s has no fields to infer from", samplePath)
	}

	// Round-tripping through Parse proves every inferred string is a valid
	// type expression.
	sch, err := schema.Parse(raw)
	if err != nil {
		return fmt.Errorf("inferred definition failed to resolve: %w", err)
	}

	fmt.Printf("$type: %s\n", sch.Name)
	for _, entry := range raw.Entries() {
		if strings.HasPrefix(entry.Key, "$") {
			continue
		}
		fmt.Printf("%s: %s\n", entry.Key, entry.Value)
	}

	log.Infof("Inferred %d fields from %s", count, samplePath)
	return nil
}

func (s *Service) Watch(ctx context.Context, cfg *config.Config, verboseFlag bool) error {
	log := logger.NewLogger(verboseFlag)

	regenerate := func() {
		if err := s.Generate(ctx, cfg, verboseFlag); err != nil {
			log.Errorf("Regeneration failed: %v", err)
		}
	}
	regenerate()

	files, err := loader.Expand(cfg.Schemas)
	if err != nil {
		return err
	}

	w := watcher.New(log, time.Duration(cfg.Watch.DebounceMS)*time.Millisecond, regenerate)
	log.Infof("Watching %d schema files, press Ctrl+C to stop", len(files))
	return w.Watch(ctx, files)
}

func loadSchemaFile(path string) (*schema.Schema, error) {
	def, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	sch, err := schema.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return sch, nil
}

// loadValidSchemas loads every document from every file and fails when any
// schema does not pass validation; generating DDL from a known-bad schema
// helps nobody.
func loadValidSchemas(files []string) ([]*schema.Schema, error) {
	var schemas []*schema.Schema
	invalid := 0

	for _, file := range files {
		defs, err := loader.LoadAll(file)
		if err != nil {
			return nil, err
		}
		for _, def := range defs {
			sch, err := schema.Parse(def)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve %s: %w", file, err)
			}
			if result := schema.Validate(sch); !result.Valid {
				for _, issue := range result.Errors {
					color.Red("FAIL %s: %s: %s (%s)", sch.Name, issue.Code, issue.Message, issue.Path)
				}
				invalid++
				continue
			}
			schemas = append(schemas, sch)
		}
	}

	if invalid > 0 {
		return nil, fmt.Errorf("%d schemas failed validation", invalid)
	}
	if len(schemas) == 0 {
		return nil, fmt.Errorf("no schemas found")
	}
	return schemas, nil
}
