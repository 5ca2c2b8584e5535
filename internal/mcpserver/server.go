// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the markdown content tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rebuildup/my-web-2025-sub004/internal/apperr"
	"github.com/rebuildup/my-web-2025-sub004/internal/contentservice"
	"github.com/rebuildup/my-web-2025-sub004/internal/index"
	"github.com/rebuildup/my-web-2025-sub004/internal/migration"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
	"github.com/rebuildup/my-web-2025-sub004/internal/pathgen"
)

// EmbedSyntaxURI is the resource holding EmbedSyntaxContract.
const EmbedSyntaxURI = "mdcore://embed-syntax"

// Server wraps the MCP server with the content tools.
type Server struct {
	mcp      *server.MCPServer
	content  *contentservice.Service
	migrator *migration.Service
}

// New creates a new MCP server with all tools registered. migrator may be
// nil, in which case migration_status is not offered.
func New(content *contentservice.Service, migrator *migration.Service, version string) *Server {
	s := &Server{content: content, migrator: migrator}

	s.mcp = server.NewMCPServer(
		"mdcore",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	typeList := "One of: " + typeNames() + "."

	s.mcp.AddTool(mcp.NewTool("generate_path",
		mcp.WithDescription("Compute the canonical markdown path for a content item without creating it."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Content id ([A-Za-z0-9_-], at most 100 characters)")),
		mcp.WithString("contentType", mcp.Required(), mcp.Description("Content type. "+typeList)),
		mcp.WithBoolean("sanitize", mcp.Description("Strip unsupported characters from the id instead of rejecting it")),
		mcp.WithBoolean("unique", mcp.Description("Append -1, -2, ... until the path is free")),
	), s.generatePath)

	s.mcp.AddTool(mcp.NewTool("read_markdown",
		mcp.WithDescription("Read a markdown file with its title and metadata."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Storage-relative path (e.g. blog/hello.md)")),
	), s.readMarkdown)

	s.mcp.AddTool(mcp.NewTool("create_markdown",
		mcp.WithDescription("Create the markdown file of a content item. Embeds MUST follow the syntax "+
			"returned by get_embed_contract or the "+EmbedSyntaxURI+" resource."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Content id")),
		mcp.WithString("contentType", mcp.Required(), mcp.Description("Content type. "+typeList)),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content")),
		mcp.WithObject("media", mcp.Description("Optional media arrays {images, videos, externalLinks} to check embeds against")),
		mcp.WithBoolean("overwrite", mcp.Description("Replace an existing file")),
	), s.createMarkdown)

	s.mcp.AddTool(mcp.NewTool("update_markdown",
		mcp.WithDescription("Overwrite an existing markdown file. Out-of-range embeds are rejected when media is given."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Storage-relative path")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New markdown content")),
		mcp.WithObject("media", mcp.Description("Optional media arrays {images, videos, externalLinks}")),
		mcp.WithBoolean("backup", mcp.Description("Keep the previous version as <file>.md.bak")),
	), s.updateMarkdown)

	s.mcp.AddTool(mcp.NewTool("delete_markdown",
		mcp.WithDescription("Delete a markdown file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Storage-relative path")),
	), s.deleteMarkdown)

	s.mcp.AddTool(mcp.NewTool("list_markdown",
		mcp.WithDescription("List the markdown files of one content type, one path per line."),
		mcp.WithString("contentType", mcp.Required(), mcp.Description("Content type. "+typeList)),
	), s.listMarkdown)

	s.mcp.AddTool(mcp.NewTool("search_markdown",
		mcp.WithDescription("Full-text search through markdown titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("contentType", mcp.Description("Optional content type filter. "+typeList)),
	), s.searchMarkdown)

	s.mcp.AddTool(mcp.NewTool("validate_embeds",
		mcp.WithDescription("Check the embed references in content against an item's media arrays."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content")),
		mcp.WithObject("media", mcp.Description("Media arrays {images, videos, externalLinks}")),
	), s.validateEmbeds)

	s.mcp.AddTool(mcp.NewTool("get_embed_contract",
		mcp.WithDescription("Returns the embed syntax contract. Call this before writing content with embeds."),
	), s.getEmbedContract)

	if migrator != nil {
		s.mcp.AddTool(mcp.NewTool("migration_status",
			mcp.WithDescription("Report migrated and pending items per legacy JSON index file."),
		), s.migrationStatus)
	}

	s.mcp.AddResource(
		mcp.NewResource(EmbedSyntaxURI, "Embed Syntax Contract",
			mcp.WithResourceDescription("Syntax and indexing rules for media embeds in markdown content."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEmbedSyntaxResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type mediaArgs struct {
	Media *models.MediaReferenceSet `json:"media"`
}

func (s *Server) generatePath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ct, errResult := contentType(req)
	if errResult != nil {
		return errResult, nil
	}
	opts := pathgen.Options{SanitizeNames: req.GetBool("sanitize", false)}
	info, err := s.content.GeneratePath(ctx, id, ct, opts, req.GetBool("unique", false))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(info), nil
}

func (s *Server) readMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.content.Read(ctx, path)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(detail.Content), nil
}

func (s *Server) createMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ct, errResult := contentType(req)
	if errResult != nil {
		return errResult, nil
	}
	var args mediaArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("media: " + err.Error()), nil
	}

	detail, err := s.content.Create(ctx, contentservice.CreateInput{
		ID:          id,
		ContentType: ct,
		Content:     content,
		Media:       args.Media,
		Overwrite:   req.GetBool("overwrite", false),
	})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(withWarnings("created: "+detail.Path, detail)), nil
}

func (s *Server) updateMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var args mediaArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("media: " + err.Error()), nil
	}

	detail, err := s.content.Update(ctx, contentservice.UpdateInput{
		Path:    path,
		Content: content,
		Media:   args.Media,
		Backup:  req.GetBool("backup", false),
	})
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(withWarnings("updated: "+detail.Path, detail)), nil
}

func (s *Server) deleteMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.content.Delete(ctx, path); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("deleted: " + path), nil
}

func (s *Server) listMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ct, errResult := contentType(req)
	if errResult != nil {
		return errResult, nil
	}
	files, err := s.content.List(ctx, ct)
	if err != nil {
		return toolError(err), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("no files found"), nil
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.FilePath
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) searchMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.content.Search(ctx, index.SearchQuery{
		Text: query,
		Type: models.ContentType(req.GetString("contentType", "")),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(results), nil
}

func (s *Server) validateEmbeds(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var args mediaArgs
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError("media: " + err.Error()), nil
	}
	var media models.MediaReferenceSet
	if args.Media != nil {
		media = *args.Media
	}
	return jsonResult(s.content.ValidateEmbeds(ctx, content, media)), nil
}

func (s *Server) migrationStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.migrator.Status()
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(st), nil
}

func (s *Server) getEmbedContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EmbedSyntaxContract), nil
}

func (s *Server) readEmbedSyntaxResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      EmbedSyntaxURI,
			MIMEType: "text/markdown",
			Text:     EmbedSyntaxContract,
		},
	}, nil
}

func contentType(req mcp.CallToolRequest) (models.ContentType, *mcp.CallToolResult) {
	raw, err := req.RequireString("contentType")
	if err != nil {
		return "", mcp.NewToolResultError(err.Error())
	}
	ct, ok := models.ParseContentType(raw)
	if !ok {
		return "", toolError(apperr.Newf(apperr.KindUnsupportedType, "", "unsupported content type %q", raw))
	}
	return ct, nil
}

// toolError renders err without the underlying OS error text.
func toolError(err error) *mcp.CallToolResult {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return mcp.NewToolResultError("internal error")
	}
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Suggestion != "" {
		msg += "\n" + e.Suggestion
	}
	return mcp.NewToolResultError(msg)
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func withWarnings(head string, d *contentservice.FileDetail) string {
	if len(d.Warnings) == 0 {
		return head
	}
	var b strings.Builder
	b.WriteString(head)
	for _, w := range d.Warnings {
		fmt.Fprintf(&b, "\nwarning (line %d): %s", w.Line, w.Message)
	}
	return b.String()
}

func typeNames() string {
	names := make([]string, len(models.AllContentTypes))
	for i, ct := range models.AllContentTypes {
		names[i] = string(ct)
	}
	return strings.Join(names, ", ")
}
