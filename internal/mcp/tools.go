// ABOUTME: MCP tools for capture, record edits, reminders, search, and history.
// ABOUTME: Maps CLI functionality to the MCP tool interface.

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/harper/sam/internal/models"
	"github.com/harper/sam/internal/notify"
	"github.com/harper/sam/internal/store"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "capture_thought",
		Description: "Turn a raw spoken or typed thought into a structured note or task and save it",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"text": {"type": "string", "description": "The raw thought, as dictated"}
			},
			"required": ["text"]
		}`),
	}, s.handleCapture)

	s.server.AddTool(&mcp.Tool{
		Name:        "list_records",
		Description: "List records newest first with optional filtering",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"filter": {"type": "string", "enum": ["all", "important", "todo", "note"], "default": "all"},
				"tag": {"type": "string", "description": "Filter by tag"},
				"limit": {"type": "integer", "description": "Max results", "default": 20}
			}
		}`),
	}, s.handleList)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_record",
		Description: "Get a record by ID or prefix",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Record ID or prefix (6+ chars)"}
			},
			"required": ["id"]
		}`),
	}, s.handleGet)

	s.server.AddTool(&mcp.Tool{
		Name:        "update_record",
		Description: "Update fields of a record; omitted fields are left alone",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Record ID or prefix"},
				"title": {"type": "string"},
				"summary": {"type": "string"},
				"body": {"type": "string"},
				"tags": {"type": "array", "items": {"type": "string"}},
				"important": {"type": "boolean"}
			},
			"required": ["id"]
		}`),
	}, s.handleUpdate)

	s.server.AddTool(&mcp.Tool{
		Name:        "delete_record",
		Description: "Delete a record",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Record ID or prefix"}
			},
			"required": ["id"]
		}`),
	}, s.handleDelete)

	s.server.AddTool(&mcp.Tool{
		Name:        "search_records",
		Description: "Search records by meaning, falling back to text matching",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Search query"},
				"limit": {"type": "integer", "description": "Max results", "default": 10}
			},
			"required": ["query"]
		}`),
	}, s.handleSearch)

	s.server.AddTool(&mcp.Tool{
		Name:        "toggle_item",
		Description: "Toggle a checklist item on a task",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Record ID or prefix"},
				"index": {"type": "integer", "description": "Zero-based item index"}
			},
			"required": ["id", "index"]
		}`),
	}, s.handleToggleItem)

	s.server.AddTool(&mcp.Tool{
		Name:        "set_reminder",
		Description: "Schedule a reminder on a record, either at an RFC 3339 time or after a duration",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Record ID or prefix"},
				"at": {"type": "string", "description": "RFC 3339 timestamp, e.g. 2025-06-01T15:00:00Z"},
				"in": {"type": "string", "description": "Go duration from now, e.g. 2h or 90m"}
			},
			"required": ["id"]
		}`),
	}, s.handleSetReminder)

	s.server.AddTool(&mcp.Tool{
		Name:        "clear_reminder",
		Description: "Remove a record's reminder",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Record ID or prefix"}
			},
			"required": ["id"]
		}`),
	}, s.handleClearReminder)

	s.server.AddTool(&mcp.Tool{
		Name:        "list_notifications",
		Description: "List fired reminders, newest first, with read state",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"unread_only": {"type": "boolean", "default": false}
			}
		}`),
	}, s.handleListNotifications)

	s.server.AddTool(&mcp.Tool{
		Name:        "mark_notifications_read",
		Description: "Mark one notification, or all of them, as read",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"id": {"type": "string", "description": "Notification ID; omit to mark all"}
			}
		}`),
	}, s.handleMarkRead)

	s.server.AddTool(&mcp.Tool{
		Name:        "clear_notifications",
		Description: "Delete the entire notification history",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}, s.handleClearNotifications)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("failed to encode result: %v", err)
	}
	return textResult(string(data))
}

func records(recs []*models.Record) []*store.RecordData {
	out := make([]*store.RecordData, 0, len(recs))
	for _, r := range recs {
		out = append(out, store.FromModel(r))
	}
	return out
}

func decodeArgs(req *mcp.CallToolRequest, v any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params.Arguments, v)
}

func (s *Server) handleCapture(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Text string `json:"text"`
	}
	if err := decodeArgs(req, &params); err != nil {
		return nil, err
	}

	rec := s.app.Capture(ctx, params.Text)
	return jsonResult(store.FromModel(rec)), nil
}

func (s *Server) handleList(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Filter string `json:"filter"`
		Tag    string `json:"tag"`
		Limit  int    `json:"limit"`
	}
	params.Limit = 20 // default
	if err := decodeArgs(req, &params); err != nil {
		return nil, err
	}

	f := store.Filter{Tag: params.Tag, Limit: params.Limit}
	switch params.Filter {
	case "", "all":
	case "important":
		f.Important = true
	case "todo":
		f.Kind = models.KindActionable
	case "note":
		f.Kind = models.KindNote
	default:
		return errorResult("unknown filter %q", params.Filter), nil
	}
	return jsonResult(records(s.app.Store.List(f))), nil
}

func (s *Server) handleGet(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(req, &params); err != nil {
		return nil, err
	}

	rec, err := s.app.Store.Resolve(params.ID)
	if err != nil {
		return errorResult("failed to get record: %v", err), nil
	}
	return jsonResult(store.FromModel(rec)), nil
}

func (s *Server) handleUpdate(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID        string    `json:"id"`
		Title     *string   `json:"title"`
		Summary   *string   `json:"summary"`
		Body      *string   `json:"body"`
		Tags      *[]string `json:"tags"`
		Important *bool     `json:"important"`
	}
	if err := decodeArgs(req, &params); err != nil {
		return nil, err
	}

	rec, err := s.app.Store.Resolve(params.ID)
	if err != nil {
		return errorResult("failed to find record: %v", err), nil
	}
	if params.Title != nil && strings.TrimSpace(*params.Title) == "" {
		return errorResult("title cannot be empty"), nil
	}

	rec, err = s.app.Store.Update(rec.ID, store.Patch{
		Title:     params.Title,
		Summary:   params.Summary,
		Body:      params.Body,
		Tags:      params.Tags,
		Important: params.Important,
	})
	if err != nil {
		return errorResult("failed to update record: %v", err), nil
	}
	return textResult(fmt.Sprintf("Updated record %s", rec.ID)), nil
}

func (s *Server) handleDelete(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(req, &params); err != nil {
		return nil, err
	}

	rec, err := s.app.Store.Resolve(params.ID)
	if err != nil {
		return errorResult("failed to find record: %v", err), nil
	}
	if err := s.app.Store.Delete(rec.ID); err != nil {
		return errorResult("failed to delete record: %v", err), nil
	}
	return textResult(fmt.Sprintf("Deleted record %s", rec.ID)), nil
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	params.Limit = 10 // default
	if err := decodeArgs(req, &params); err != nil {
		return nil, err
	}

	found := s.app.Search(ctx, params.Query)
	if params.Limit > 0 && len(found) > params.Limit {
		found = found[:params.Limit]
	}
	return jsonResult(records(found)), nil
}

func (s *Server) handleToggleItem(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID    string `json:"id"`
		Index int    `json:"index"`
	}
	if err := decodeArgs(req, &params); err != nil {
		return nil, err
	}

	rec, err := s.app.Store.Resolve(params.ID)
	if err != nil {
		return errorResult("failed to find record: %v", err), nil
	}
	rec, err = s.app.Store.ToggleItem(rec.ID, params.Index)
	if err != nil {
		return errorResult("failed to toggle item: %v", err), nil
	}
	return jsonResult(store.FromModel(rec)), nil
}

func (s *Server) handleSetReminder(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID string `json:"id"`
		At string `json:"at"`
		In string `json:"in"`
	}
	if err := decodeArgs(req, &params); err != nil {
		return nil, err
	}

	var fireAt time.Time
	switch {
	case params.At != "":
		t, err := time.Parse(time.RFC3339, params.At)
		if err != nil {
			return errorResult("invalid at: %v", err), nil
		}
		fireAt = t
	case params.In != "":
		d, err := time.ParseDuration(params.In)
		if err != nil {
			return errorResult("invalid in: %v", err), nil
		}
		fireAt = time.Now().Add(d)
	default:
		return errorResult("one of at or in is required"), nil
	}

	rec, err := s.app.Store.Resolve(params.ID)
	if err != nil {
		return errorResult("failed to find record: %v", err), nil
	}
	rec, err = s.app.Store.SetReminder(rec.ID, fireAt)
	if err != nil {
		return errorResult("failed to set reminder: %v", err), nil
	}
	return textResult(fmt.Sprintf("Reminder for %s set for %s", rec.ID, fireAt.Format(time.RFC3339))), nil
}

func (s *Server) handleClearReminder(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(req, &params); err != nil {
		return nil, err
	}

	rec, err := s.app.Store.Resolve(params.ID)
	if err != nil {
		return errorResult("failed to find record: %v", err), nil
	}
	if _, err := s.app.Store.ClearReminder(rec.ID); err != nil {
		return errorResult("failed to clear reminder: %v", err), nil
	}
	return textResult(fmt.Sprintf("Cleared reminder for %s", rec.ID)), nil
}

func (s *Server) handleListNotifications(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		UnreadOnly bool `json:"unread_only"`
	}
	if err := decodeArgs(req, &params); err != nil {
		return nil, err
	}

	h := s.app.Dispatcher.History()
	items := []*notify.HistoryData{}
	for _, it := range h.Items() {
		if params.UnreadOnly && it.Read {
			continue
		}
		items = append(items, notify.ToHistoryData(it))
	}
	return jsonResult(map[string]any{"items": items, "unread": h.UnreadCount()}), nil
}

func (s *Server) handleMarkRead(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(req, &params); err != nil {
		return nil, err
	}

	if params.ID == "" {
		s.app.Dispatcher.MarkAllRead()
		return textResult("Marked all notifications read"), nil
	}
	if err := s.app.Dispatcher.MarkRead(params.ID); err != nil {
		return errorResult("failed to mark notification read: %v", err), nil
	}
	return textResult(fmt.Sprintf("Marked %s read", params.ID)), nil
}

func (s *Server) handleClearNotifications(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.app.Dispatcher.Clear()
	return textResult("Cleared notification history"), nil
}
