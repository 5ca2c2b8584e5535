package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/rebuildup/my-web-2025-sub004/internal/models"
	"github.com/rebuildup/my-web-2025-sub004/internal/pathgen"
)

func pathCommand() *cli.Command {
	return &cli.Command{
		Name:  "path",
		Usage: "Generate, parse and validate markdown file paths",
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "Print the canonical path for a content item",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Required: true, Usage: "Content type"},
					&cli.BoolFlag{Name: "sanitize", Usage: "Strip unsupported characters from the id"},
					&cli.BoolFlag{Name: "timestamp", Usage: "Append a millisecond timestamp"},
					&cli.BoolFlag{Name: "unique", Usage: "Add a numeric suffix until the path is free"},
				},
				Action: pathGenerate,
			},
			{
				Name:      "parse",
				Usage:     "Print the content id and type encoded in a path",
				ArgsUsage: "<path>",
				Action:    pathParse,
			},
			{
				Name:      "validate",
				Usage:     "Run the path safety checks",
				ArgsUsage: "<path>",
				Action:    pathValidate,
			},
		},
	}
}

func pathGenerate(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("content id is required")
	}
	ct, ok := models.ParseContentType(cmd.String("type"))
	if !ok {
		return fmt.Errorf("unsupported content type %q", cmd.String("type"))
	}
	c, err := components(cmd)
	if err != nil {
		return err
	}
	opts := pathgen.Options{
		SanitizeNames: cmd.Bool("sanitize"),
		AddTimestamp:  cmd.Bool("timestamp"),
	}
	info, err := c.Content(nil, nil).GeneratePath(ctx, id, ct, opts, cmd.Bool("unique"))
	if err != nil {
		return err
	}
	fmt.Println(info.Path)
	return nil
}

func pathParse(_ context.Context, cmd *cli.Command) error {
	p := cmd.Args().First()
	if p == "" {
		return fmt.Errorf("path is required")
	}
	c, err := components(cmd)
	if err != nil {
		return err
	}
	return printJSON(c.Paths.Parse(p))
}

func pathValidate(_ context.Context, cmd *cli.Command) error {
	p := cmd.Args().First()
	c, err := components(cmd)
	if err != nil {
		return err
	}
	res := c.Paths.Validate(p)
	if res.IsValid {
		fmt.Println("valid")
		return nil
	}
	for _, e := range res.Errors {
		fmt.Println("-", e)
	}
	return fmt.Errorf("invalid path: %s", strings.Join(res.Errors, "; "))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
