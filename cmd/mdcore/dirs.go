package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

func dirsCommand() *cli.Command {
	return &cli.Command{
		Name:  "dirs",
		Usage: "Manage the content type directories under the markdown base",
		Commands: []*cli.Command{
			{Name: "init", Usage: "Create missing directories", Action: dirsInit},
			{Name: "check", Usage: "List missing directories without creating them", Action: dirsCheck},
			{Name: "stats", Usage: "Show file counts and sizes per content type", Action: dirsStats},
			{Name: "cleanup", Usage: "Remove empty content type directories", Action: dirsCleanup},
			{
				Name:  "backup",
				Usage: "Copy every markdown file into a timestamped snapshot directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "target", Usage: "Parent directory for the snapshot (default: parent of the base)"},
				},
				Action: dirsBackup,
			},
		},
	}
}

func dirsInit(_ context.Context, cmd *cli.Command) error {
	c, err := components(cmd)
	if err != nil {
		return err
	}
	created, err := c.Dirs.Initialize()
	if err != nil {
		return err
	}
	if len(created) == 0 {
		fmt.Println("all directories exist")
		return nil
	}
	for _, d := range created {
		fmt.Println("created", d)
	}
	return nil
}

func dirsCheck(_ context.Context, cmd *cli.Command) error {
	c, err := components(cmd)
	if err != nil {
		return err
	}
	missing := c.Dirs.Validate()
	if len(missing) == 0 {
		fmt.Println("all directories exist")
		return nil
	}
	for _, d := range missing {
		fmt.Println("missing", d)
	}
	return fmt.Errorf("%d director(ies) missing; run `mdcore dirs init`", len(missing))
}

func dirsStats(_ context.Context, cmd *cli.Command) error {
	c, err := components(cmd)
	if err != nil {
		return err
	}
	stats := c.Dirs.Stats()
	rows := make([][]string, 0, len(stats))
	var files int
	var size int64
	for _, ct := range c.Paths.Table().Types() {
		st := stats[ct]
		dir, _ := c.Paths.Table().Dir(ct)
		modified := "-"
		if !st.LastModified.IsZero() {
			modified = humanize.Time(st.LastModified)
		}
		rows = append(rows, []string{
			string(ct), dir,
			strconv.Itoa(st.FileCount),
			humanize.IBytes(uint64(st.TotalSize)),
			modified,
		})
		files += st.FileCount
		size += st.TotalSize
	}
	rows = append(rows, []string{"total", "", strconv.Itoa(files), humanize.IBytes(uint64(size)), ""})
	fmt.Println(renderTable([]column{
		{title: "Type"}, {title: "Directory"},
		{title: "Files", numeric: true}, {title: "Size", numeric: true},
		{title: "Last Modified"},
	}, rows))
	return nil
}

func dirsCleanup(_ context.Context, cmd *cli.Command) error {
	c, err := components(cmd)
	if err != nil {
		return err
	}
	removed, err := c.Dirs.CleanupEmpty()
	for _, d := range removed {
		fmt.Println("removed", d)
	}
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		fmt.Println("no empty directories")
	}
	return nil
}

func dirsBackup(_ context.Context, cmd *cli.Command) error {
	c, err := components(cmd)
	if err != nil {
		return err
	}
	dir, err := c.Dirs.Backup(cmd.String("target"))
	if err != nil {
		return err
	}
	fmt.Println("backup written to", dir)
	return nil
}
