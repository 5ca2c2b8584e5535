package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/rebuildup/my-web-2025-sub004/internal/migration"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Move inline content of legacy JSON index files into markdown files",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Migrate every legacy index file, or one with --file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Usage: "Only migrate this legacy index file (base name)"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Report what would happen without writing"},
					&cli.BoolFlag{Name: "backup", Value: true, Usage: "Back up the index files before rewriting them"},
					&cli.BoolFlag{Name: "overwrite", Usage: "Replace markdown files that already exist"},
					&cli.IntFlag{Name: "batch-size", Usage: "Items per batch (0 uses the configured value)"},
					&cli.IntFlag{Name: "concurrency", Usage: "Items written concurrently within a batch"},
				},
				Action: migrateRun,
			},
			{
				Name:   "status",
				Usage:  "Show migrated and pending items per index file",
				Action: migrateStatus,
			},
			{
				Name:      "rollback",
				Usage:     "Undo the migration of the given item ids",
				ArgsUsage: "<id>...",
				Action:    migrateRollback,
			},
		},
	}
}

func migrateRun(ctx context.Context, cmd *cli.Command) error {
	c, err := components(cmd)
	if err != nil {
		return err
	}
	opts := migration.Options{
		DryRun:            cmd.Bool("dry-run"),
		BackupOriginal:    cmd.Bool("backup"),
		OverwriteExisting: cmd.Bool("overwrite"),
		BatchSize:         int(cmd.Int("batch-size")),
		Concurrency:       int(cmd.Int("concurrency")),
	}

	var sum *models.MigrationSummary
	if file := cmd.String("file"); file != "" {
		sum, err = c.Migrator.MigrateFile(ctx, file, opts)
	} else {
		sum, err = c.Migrator.MigrateAll(ctx, opts)
	}
	if sum != nil {
		printSummary(sum)
	}
	if err != nil {
		return err
	}
	if sum.FailureCount > 0 || len(sum.Errors) > 0 {
		return fmt.Errorf("migration finished with %d failed item(s)", sum.FailureCount)
	}
	return nil
}

func migrateStatus(_ context.Context, cmd *cli.Command) error {
	c, err := components(cmd)
	if err != nil {
		return err
	}
	st, err := c.Migrator.Status()
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(st.Files))
	for _, f := range st.Files {
		rows = append(rows, []string{
			f.File,
			strconv.Itoa(f.TotalItems),
			strconv.Itoa(f.MigratedItems),
			strconv.Itoa(f.PendingItems),
			f.Error,
		})
	}
	fmt.Println(renderTable([]column{
		{title: "File"},
		{title: "Items", numeric: true},
		{title: "Migrated", numeric: true},
		{title: "Pending", numeric: true},
		{title: "Error"},
	}, rows))
	fmt.Printf("state: %s  total: %d  migrated: %d  pending: %d\n",
		st.State, st.TotalItems, st.MigratedItems, st.PendingItems)
	return nil
}

func migrateRollback(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("at least one item id is required")
	}
	c, err := components(cmd)
	if err != nil {
		return err
	}
	sum, err := c.Migrator.Rollback(ctx, ids)
	if err != nil {
		return err
	}
	printSummary(sum)
	if sum.FailureCount > 0 {
		return fmt.Errorf("rollback finished with %d failed item(s)", sum.FailureCount)
	}
	return nil
}

func printSummary(sum *models.MigrationSummary) {
	rows := make([][]string, 0, len(sum.Results))
	for _, r := range sum.Results {
		status := "ok"
		switch {
		case !r.Success:
			status = "failed"
		case r.Skipped:
			status = "skipped"
		case r.DryRun:
			status = "dry-run"
		}
		detail := r.FilePath
		if r.Error != "" {
			detail = r.Error
		} else if detail == "" {
			detail = r.Message
		}
		rows = append(rows, []string{r.File, r.ItemID, status, detail})
	}
	fmt.Println(renderTable([]column{
		{title: "File"}, {title: "Item"}, {title: "Status"}, {title: "Path / Message"},
	}, rows))
	fmt.Printf("run %s: %s  total: %d  succeeded: %d  skipped: %d  failed: %d\n",
		sum.RunID, sum.State, sum.TotalItems, sum.SuccessCount, sum.SkippedCount, sum.FailureCount)
	if sum.BackupDir != "" {
		fmt.Println("backup:", sum.BackupDir)
	}
	for _, e := range sum.Errors {
		fmt.Println("error:", e)
	}
}
