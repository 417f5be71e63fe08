package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/corkboard/internal/model"
	"github.com/kalambet/corkboard/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store     *storage.Store
	ListLimit int
	Version   string
}

// NewMCPServer creates an MCP server exposing label and post tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.ListLimit <= 0 {
		deps.ListLimit = defaultListLimit
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}

	s := server.NewMCPServer(
		"corkboard",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithInstructions("corkboard stores short labels (text pinned to a target) and posts (free-form messages)."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("list_labels",
			mcp.WithDescription("List labels in creation order."),
			mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum number of labels (default and cap %d)", deps.ListLimit))),
		),
		mcpListLabels(deps),
	)
	s.AddTool(
		mcp.NewTool("create_label",
			mcp.WithDescription("Create a label attached to a target."),
			mcp.WithString("text", mcp.Description("Label text"), mcp.Required()),
			mcp.WithString("target", mcp.Description("What the label is attached to"), mcp.Required()),
		),
		mcpCreateLabel(deps),
	)
	s.AddTool(
		mcp.NewTool("update_label",
			mcp.WithDescription("Change a label's text and/or target. Omitted fields are kept."),
			mcp.WithNumber("id", mcp.Description("Label id"), mcp.Required()),
			mcp.WithString("text", mcp.Description("New text")),
			mcp.WithString("target", mcp.Description("New target")),
		),
		mcpUpdateLabel(deps),
	)
	s.AddTool(
		mcp.NewTool("delete_label",
			mcp.WithDescription("Delete a label."),
			mcp.WithNumber("id", mcp.Description("Label id"), mcp.Required()),
		),
		mcpDeleteLabel(deps),
	)

	s.AddTool(
		mcp.NewTool("list_posts",
			mcp.WithDescription("List posts in creation order."),
			mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum number of posts (default and cap %d)", deps.ListLimit))),
		),
		mcpListPosts(deps),
	)
	s.AddTool(
		mcp.NewTool("create_post",
			mcp.WithDescription("Create a post."),
			mcp.WithString("message", mcp.Description("Post message"), mcp.Required()),
		),
		mcpCreatePost(deps),
	)
	s.AddTool(
		mcp.NewTool("update_post",
			mcp.WithDescription("Replace a post's message."),
			mcp.WithNumber("id", mcp.Description("Post id"), mcp.Required()),
			mcp.WithString("message", mcp.Description("New message"), mcp.Required()),
		),
		mcpUpdatePost(deps),
	)
	s.AddTool(
		mcp.NewTool("delete_post",
			mcp.WithDescription("Delete a post."),
			mcp.WithNumber("id", mcp.Description("Post id"), mcp.Required()),
		),
		mcpDeletePost(deps),
	)

	return s
}

func mcpListLabels(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		labels, err := deps.Store.ListLabels(toolLimit(req, deps.ListLimit))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list labels: %v", err)), nil
		}
		if labels == nil {
			labels = []model.Label{}
		}
		return mcpJSON(labels), nil
	}
}

func mcpCreateLabel(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil || text == "" {
			return mcpError("text is required"), nil
		}
		target, err := req.RequireString("target")
		if err != nil || target == "" {
			return mcpError("target is required"), nil
		}
		l, err := deps.Store.CreateLabel(model.Label{Text: text, Target: target})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to create label: %v", err)), nil
		}
		return mcpJSON(l), nil
	}
}

func mcpUpdateLabel(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := toolID(req)
		if errResult != nil {
			return errResult, nil
		}
		var patch model.LabelPatch
		if v, ok := optionalString(req, "text"); ok {
			patch.Text = &v
		}
		if v, ok := optionalString(req, "target"); ok {
			patch.Target = &v
		}
		l, err := deps.Store.UpdateLabel(id, patch)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("label %d not found", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to update label: %v", err)), nil
		}
		return mcpJSON(l), nil
	}
}

func mcpDeleteLabel(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := toolID(req)
		if errResult != nil {
			return errResult, nil
		}
		err := deps.Store.DeleteLabel(id)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("label %d not found", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to delete label: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Deleted label %d", id)), nil
	}
}

func mcpListPosts(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		posts, err := deps.Store.ListPosts(toolLimit(req, deps.ListLimit))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list posts: %v", err)), nil
		}
		if posts == nil {
			posts = []model.Post{}
		}
		return mcpJSON(posts), nil
	}
}

func mcpCreatePost(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}
		p, err := deps.Store.CreatePost(model.Post{Message: message})
		if err != nil {
			return mcpError(fmt.Sprintf("failed to create post: %v", err)), nil
		}
		return mcpJSON(p), nil
	}
}

func mcpUpdatePost(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := toolID(req)
		if errResult != nil {
			return errResult, nil
		}
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}
		p, err := deps.Store.UpdatePost(id, model.PostPatch{Message: &message})
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("post %d not found", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to update post: %v", err)), nil
		}
		return mcpJSON(p), nil
	}
}

func mcpDeletePost(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := toolID(req)
		if errResult != nil {
			return errResult, nil
		}
		err := deps.Store.DeletePost(id)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("post %d not found", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to delete post: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Deleted post %d", id)), nil
	}
}

func toolLimit(req mcp.CallToolRequest, ceiling int) int {
	limit := req.GetInt("limit", ceiling)
	if limit <= 0 || limit > ceiling {
		return ceiling
	}
	return limit
}

func toolID(req mcp.CallToolRequest) (int64, *mcp.CallToolResult) {
	id := req.GetInt("id", 0)
	if id <= 0 {
		return 0, mcpError("id is required and must be positive")
	}
	return int64(id), nil
}

// optionalString distinguishes an omitted argument from an empty one.
func optionalString(req mcp.CallToolRequest, key string) (string, bool) {
	v, ok := req.GetArguments()[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
