// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the letterbox letters and countdown via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/letterbox/internal/apperr"
	"github.com/starford/letterbox/internal/countdown"
	"github.com/starford/letterbox/internal/form"
	"github.com/starford/letterbox/internal/models"
)

// LettersURI is the resource holding the stored letters as JSON.
const LettersURI = "letterbox://letters"

// Letters is the part of the letter repository the tools use.
type Letters interface {
	form.Store
	List() []models.Letter
	Search(query string) []models.Letter
}

// Server wraps the MCP server with letterbox tools.
type Server struct {
	mcp     *server.MCPServer
	letters Letters
	target  countdown.Target
	now     func() time.Time
}

// New creates a new MCP server with all tools registered. now may be nil.
func New(letters Letters, target countdown.Target, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	s := &Server{letters: letters, target: target, now: now}

	s.mcp = server.NewMCPServer(
		"Letterbox",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_letters",
		mcp.WithDescription("List saved birthday letters as JSON, oldest first. "+
			"With a query, only fuzzy matches on title, author or content are returned, best first."),
		mcp.WithString("query", mcp.Description("Optional fuzzy filter")),
	), s.listLetters)

	s.mcp.AddTool(mcp.NewTool("write_letter",
		mcp.WithDescription("Save a new birthday letter. All three fields must be non-empty. "+
			"Read the letterbox://letter-format resource for the stored layout."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Letter title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Letter body, plain text")),
		mcp.WithString("author", mcp.Required(), mcp.Description("Name of the writer")),
	), s.writeLetter)

	s.mcp.AddTool(mcp.NewTool("delete_letter",
		mcp.WithDescription("Delete a letter by id. Calling this tool is the confirmation."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Letter id as returned by list_letters")),
	), s.deleteLetter)

	s.mcp.AddTool(mcp.NewTool("get_countdown",
		mcp.WithDescription("Days, hours, minutes and seconds left until the next celebration date."),
	), s.getCountdown)

	s.mcp.AddResource(
		mcp.NewResource(LettersURI, "Letters",
			mcp.WithResourceDescription("All saved letters in insertion order."),
			mcp.WithMIMEType("application/json"),
		),
		s.readLettersResource,
	)

	s.mcp.AddResource(
		mcp.NewResource(FormatURI, "Letter Format",
			mcp.WithResourceDescription("Fields and rules of a stored letter."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// Serve runs the stdio transport over in and out until ctx ends or in is
// closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listLetters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(s.letters.Search(stringArg(req, "query")), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) writeLetter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c := form.NewController(s.letters)
	c.Input(form.Fields{
		Title:   stringArg(req, "title"),
		Content: stringArg(req, "content"),
		Author:  stringArg(req, "author"),
	})
	letter, notice, err := c.Submit()
	if err != nil {
		var verr *apperr.ValidationError
		if errors.As(err, &verr) {
			return mcp.NewToolResultError(fmt.Sprintf("%s (%s)", notice.Message, verr.Error())), nil
		}
		return mcp.NewToolResultError(notice.Message), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", letter.ID)), nil
}

// stringArg returns the named argument, or "" when absent so validation can
// report every missing field at once.
func stringArg(req mcp.CallToolRequest, key string) string {
	v, err := req.RequireString(key)
	if err != nil {
		return ""
	}
	return v
}

func (s *Server) deleteLetter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	_, notice, err := form.NewController(s.letters).Delete(id, form.ConfirmFunc(func(string) bool { return true }))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(notice.Message), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) getCountdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := s.now()
	out, err := json.Marshal(struct {
		Target time.Time `json:"target"`
		countdown.Remaining
	}{s.target.Next(now), countdown.Until(now, s.target)})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readLettersResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := json.Marshal(s.letters.List())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      LettersURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormatURI,
			MIMEType: "text/markdown",
			Text:     LetterFormat,
		},
	}, nil
}
