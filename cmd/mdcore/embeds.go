package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rebuildup/my-web-2025-sub004/internal/embed"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
)

func embedsCommand() *cli.Command {
	return &cli.Command{
		Name:  "embeds",
		Usage: "Inspect embed references in markdown files",
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Validate the embeds of a markdown file",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "media", Usage: "JSON file with {images, videos, externalLinks}"},
				},
				Action: embedsCheck,
			},
		},
	}
}

func embedsCheck(_ context.Context, cmd *cli.Command) error {
	file := cmd.Args().First()
	if file == "" {
		return fmt.Errorf("markdown file is required")
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	var media models.MediaReferenceSet
	if p := cmd.String("media"); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &media); err != nil {
			return fmt.Errorf("decode media %s: %w", p, err)
		}
	}
	c, err := components(cmd)
	if err != nil {
		return err
	}

	res := c.Embeds.Validate(string(content), media)
	printIssues("error", res.Errors)
	printIssues("warning", res.Warnings)
	fmt.Printf("%d reference(s), %d error(s), %d warning(s)\n",
		len(c.Embeds.ExtractReferences(string(content))), len(res.Errors), len(res.Warnings))
	if !res.IsValid {
		return fmt.Errorf("%s has invalid embeds", file)
	}
	return nil
}

func printIssues(level string, issues []embed.Issue) {
	for _, is := range issues {
		fmt.Printf("%d:%d %s: %s\n", is.Line, is.Column, level, is.Message)
		if is.Suggestion != "" {
			fmt.Printf("    %s\n", is.Suggestion)
		}
	}
}
