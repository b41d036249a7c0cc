package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/renamekit/renamekit/internal/models"
	"github.com/renamekit/renamekit/pkg/executor"
)

// registerMCPTools registers the rename tools with the MCP server.
func (s *Server) registerMCPTools(m *server.MCPServer) {
	s.registerRenamePreviewTool(m)
	s.registerRenameApplyTool(m)
	s.registerRenameUndoTool(m)
	s.registerHistoryListTool(m)
	s.registerProfileListTool(m)
	s.registerProfileSaveTool(m)
}

func (s *Server) registerRenamePreviewTool(m *server.MCPServer) {
	tool := mcp.NewTool("rename-preview",
		mcp.WithDescription("Compute a rename plan for a directory without touching any file"),
		mcp.WithString("dir",
			mcp.Required(),
			mcp.Description("Directory whose files are planned over"),
		),
		mcp.WithString("naming",
			mcp.Description("Naming configuration as JSON (prefix, suffix, base_name, start_number, pad_width, extension_lock, auto_clean)"),
		),
		mcp.WithString("filter",
			mcp.Description("Filter configuration as JSON (extensions, size, date, scope)"),
		),
	)

	m.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req, err := previewRequestFromArgs(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		log.WithField("dir", req.Dir).Info("Executing rename-preview via MCP")

		plan, err := s.buildPlan(req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Planning failed: %v", err)), nil
		}

		return toolResultJSON(plan)
	})
}

func (s *Server) registerRenameApplyTool(m *server.MCPServer) {
	tool := mcp.NewTool("rename-apply",
		mcp.WithDescription("Plan and apply a batch rename, recording it in the undo log"),
		mcp.WithString("dir",
			mcp.Required(),
			mcp.Description("Directory whose files are renamed"),
		),
		mcp.WithString("naming",
			mcp.Description("Naming configuration as JSON"),
		),
		mcp.WithString("filter",
			mcp.Description("Filter configuration as JSON"),
		),
		mcp.WithBoolean("failFast",
			mcp.Description("Abort remaining entries after the first failure (default: best-effort)"),
		),
		mcp.WithBoolean("backup",
			mcp.Description("Copy each file into a timestamped backup folder before renaming"),
		),
	)

	m.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req, err := previewRequestFromArgs(request.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		var flags struct {
			FailFast bool `json:"failFast"`
			Backup   bool `json:"backup"`
		}
		if err := unmarshalArgs(request.Params.Arguments, &flags); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		log.WithField("dir", req.Dir).Info("Executing rename-apply via MCP")

		plan, err := s.buildPlan(req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Planning failed: %v", err)), nil
		}

		result, err := s.exec.Apply(ctx, plan, executor.Options{
			FailFast:      flags.FailFast,
			Backup:        flags.Backup || s.config.Operations.BackupBeforeRename,
			BackupDirName: s.config.Operations.BackupDirName,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Apply failed: %v", err)), nil
		}

		return toolResultJSON(result)
	})
}

func (s *Server) registerRenameUndoTool(m *server.MCPServer) {
	tool := mcp.NewTool("rename-undo",
		mcp.WithDescription("Reverse an applied batch, last-applied file first"),
		mcp.WithString("batchId",
			mcp.Description("Batch to reverse (default: the most recent batch)"),
		),
	)

	m.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			BatchID string `json:"batchId"`
		}
		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		log.WithField("batchID", args.BatchID).Info("Executing rename-undo via MCP")

		var (
			result *models.UndoResult
			err    error
		)
		if args.BatchID == "" {
			result, err = s.exec.UndoLast(ctx)
		} else {
			result, err = s.exec.Undo(ctx, args.BatchID)
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Undo failed: %v", err)), nil
		}

		return toolResultJSON(result)
	})
}

func (s *Server) registerHistoryListTool(m *server.MCPServer) {
	tool := mcp.NewTool("history-list",
		mcp.WithDescription("List applied batches, newest first"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of batches to return (default: all)"),
		),
	)

	m.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Limit int `json:"limit"`
		}
		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		batches, err := s.store.ListBatches(args.Limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("History query failed: %v", err)), nil
		}

		return toolResultJSON(batches)
	})
}

func (s *Server) registerProfileListTool(m *server.MCPServer) {
	tool := mcp.NewTool("profile-list",
		mcp.WithDescription("List saved rename profiles"),
	)

	m.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := s.profiles.List()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Profile listing failed: %v", err)), nil
		}

		return toolResultJSON(names)
	})
}

func (s *Server) registerProfileSaveTool(m *server.MCPServer) {
	tool := mcp.NewTool("profile-save",
		mcp.WithDescription("Save a named rename profile for later reuse"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Profile name"),
		),
		mcp.WithString("naming",
			mcp.Description("Naming configuration as JSON"),
		),
		mcp.WithString("filter",
			mcp.Description("Filter configuration as JSON"),
		),
	)

	m.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Name   string `json:"name"`
			Naming string `json:"naming"`
			Filter string `json:"filter"`
		}
		if err := unmarshalArgs(request.Params.Arguments, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
		}

		var naming models.NamingConfig
		if args.Naming != "" {
			if err := json.Unmarshal([]byte(args.Naming), &naming); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Invalid naming config: %v", err)), nil
			}
		}
		var filter models.FilterConfig
		if args.Filter != "" {
			if err := json.Unmarshal([]byte(args.Filter), &filter); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Invalid filter config: %v", err)), nil
			}
		}

		saved, err := s.profiles.Save(args.Name, naming, filter)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Profile save failed: %v", err)), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf("Profile '%s' saved", saved.Name)), nil
	})
}

// previewRequestFromArgs decodes the shared dir/naming/filter arguments
// used by the preview and apply tools. Configurations arrive as JSON
// strings because MCP tool schemas are flat.
func previewRequestFromArgs(arguments interface{}) (*PreviewRequest, error) {
	var args struct {
		Dir    string `json:"dir"`
		Naming string `json:"naming"`
		Filter string `json:"filter"`
	}
	if err := unmarshalArgs(arguments, &args); err != nil {
		return nil, err
	}
	if args.Dir == "" {
		return nil, fmt.Errorf("dir is required")
	}

	req := &PreviewRequest{Dir: args.Dir}
	if args.Naming != "" {
		if err := json.Unmarshal([]byte(args.Naming), &req.Naming); err != nil {
			return nil, fmt.Errorf("invalid naming config: %w", err)
		}
	}
	if args.Filter != "" {
		if err := json.Unmarshal([]byte(args.Filter), &req.Filter); err != nil {
			return nil, fmt.Errorf("invalid filter config: %w", err)
		}
	}
	return req, nil
}

func toolResultJSON(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func unmarshalArgs(arguments interface{}, v interface{}) error {
	data, err := json.Marshal(arguments)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
