package mcpapi

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/evanschultz/kanboard/internal/adapters/server/common"
)

// registerTaskTools registers task listing and mutation tools.
func registerTaskTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"kanboard.list_tasks",
			mcp.WithDescription("List board tasks with optional filters and sort order."),
			mcp.WithString("project_id", mcp.Description("Only tasks of this project")),
			mcp.WithString("status", mcp.Description("Column id filter")),
			mcp.WithString("priority", mcp.Description("Priority filter"), mcp.Enum("low", "medium", "high")),
			mcp.WithString("assignee", mcp.Description("Assignee filter")),
			mcp.WithString("query", mcp.Description("Case-insensitive text match on title and description")),
			mcp.WithString("sort", mcp.Description("Sort key"), mcp.Enum("updated", "priority", "dueDate")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projectID, err := optionalID(req.GetString("project_id", ""))
			if err != nil {
				return toolResultFromError(err), nil
			}
			tasks, err := board.ListTasks(ctx, common.ListTasksRequest{
				ProjectID: common.ID(projectID),
				Status:    req.GetString("status", ""),
				Priority:  req.GetString("priority", ""),
				Assignee:  req.GetString("assignee", ""),
				Query:     req.GetString("query", ""),
				Sort:      req.GetString("sort", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("list_tasks", map[string]any{"tasks": tasks})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanboard.search_tasks",
			mcp.WithDescription("Search persisted tasks by title or description."),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			query, err := req.RequireString("query")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			tasks, err := board.SearchTasks(ctx, query)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("search_tasks", map[string]any{"tasks": tasks})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanboard.create_task",
			mcp.WithDescription("Create one task. Status defaults to the first column."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
			mcp.WithString("description", mcp.Description("Markdown description")),
			mcp.WithString("status", mcp.Description("Column id")),
			mcp.WithString("priority", mcp.Description("Priority"), mcp.Enum("low", "medium", "high")),
			mcp.WithString("assignee", mcp.Description("Assignee name")),
			mcp.WithString("project_id", mcp.Description("Owning project; defaults to the first project")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			projectID, err := optionalID(req.GetString("project_id", ""))
			if err != nil {
				return toolResultFromError(err), nil
			}
			task, err := board.CreateTask(ctx, common.CreateTaskRequest{
				ProjectID:   common.ID(projectID),
				Title:       title,
				Description: req.GetString("description", ""),
				Status:      req.GetString("status", ""),
				Priority:    req.GetString("priority", ""),
				Assignee:    req.GetString("assignee", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("create_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanboard.move_task",
			mcp.WithDescription("Move one task to another column."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
			mcp.WithString("status", mcp.Required(), mcp.Description("Destination column id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			rawID, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			status, err := req.RequireString("status")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			id, err := common.ParseID(rawID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			task, err := board.MoveTask(ctx, id, status)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("move_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanboard.bulk_move",
			mcp.WithDescription("Move many tasks to one column. Unknown ids are skipped."),
			mcp.WithArray("ids", mcp.Required(), mcp.Description("Task ids"), mcp.WithStringItems()),
			mcp.WithString("status", mcp.Required(), mcp.Description("Destination column id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			status, err := req.RequireString("status")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			ids, err := idsArgument(req, "ids")
			if err != nil {
				return toolResultFromError(err), nil
			}
			tasks, err := board.BulkMove(ctx, common.BulkMoveRequest{IDs: ids, Status: status})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("bulk_move", map[string]any{"tasks": tasks})
		},
	)
}

// registerBoardTools registers column, stats and project read tools.
func registerBoardTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"kanboard.list_columns",
			mcp.WithDescription("List board columns in display order."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			cols, err := board.ListColumns(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("list_columns", map[string]any{"columns": cols})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanboard.board_stats",
			mcp.WithDescription("Summarize progress, overdue work, upcoming deadlines and team workload."),
			mcp.WithString("project_id", mcp.Description("Only this project")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projectID, err := optionalID(req.GetString("project_id", ""))
			if err != nil {
				return toolResultFromError(err), nil
			}
			stats, err := board.Stats(ctx, projectID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("board_stats", stats)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"kanboard.list_projects",
			mcp.WithDescription("List projects with task counts."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			projects, err := board.ListProjects(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("list_projects", map[string]any{"projects": projects})
		},
	)
}

func jsonResult(tool string, payload any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

func optionalID(raw string) (int64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return common.ParseID(raw)
}

// idsArgument reads an id array whose entries may be strings or numbers.
func idsArgument(req mcp.CallToolRequest, key string) ([]common.ID, error) {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array: %w", key, common.ErrInvalidRequest)
	}
	out := make([]common.ID, 0, len(raw))
	for _, v := range raw {
		var text string
		switch typed := v.(type) {
		case string:
			text = typed
		case float64:
			text = strconv.FormatFloat(typed, 'f', -1, 64)
		default:
			return nil, fmt.Errorf("%s entry %v: %w", key, v, common.ErrInvalidRequest)
		}
		id, err := common.ParseID(text)
		if err != nil {
			return nil, err
		}
		out = append(out, common.ID(id))
	}
	return out, nil
}
