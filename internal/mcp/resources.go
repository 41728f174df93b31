// ABOUTME: MCP resources exposing records and notification history.
// ABOUTME: Allows AI agents to read record content via the sam:// URI scheme.

package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/sam/internal/ui"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	recordURIPrefix  = "sam://record/"
	notificationsURI = "sam://notifications"
)

func (s *Server) registerResources() {
	s.server.AddResourceTemplate(
		&mcp.ResourceTemplate{
			URITemplate: recordURIPrefix + "{id}",
			Name:        "Record",
			Description: "Access individual notes and tasks by ID",
			MIMEType:    "text/markdown",
		},
		s.handleReadRecord,
	)

	s.server.AddResource(
		&mcp.Resource{
			URI:         notificationsURI,
			Name:        "Notifications",
			Description: "Fired reminders, newest first",
			MIMEType:    "text/markdown",
		},
		s.handleReadNotifications,
	)
}

func (s *Server) handleReadRecord(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id, ok := strings.CutPrefix(req.Params.URI, recordURIPrefix)
	if !ok || id == "" {
		return nil, fmt.Errorf("invalid resource URI: %s", req.Params.URI)
	}

	rec, err := s.app.Store.Resolve(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(ui.RecordMarkdown(rec))
	if len(rec.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("\n**Tags:** %s\n", strings.Join(rec.Tags, ", ")))
	}
	if rec.Reminder != nil && rec.Reminder.Enabled {
		sb.WriteString(fmt.Sprintf("\n**Reminder:** %s (%s)\n",
			rec.Reminder.FireAt.Format("2006-01-02 15:04 MST"), rec.ReminderState()))
	}
	sb.WriteString(fmt.Sprintf("\n---\n*Created: %s*\n", rec.CreatedAt.Format("2006-01-02 15:04:05")))

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      req.Params.URI,
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}

func (s *Server) handleReadNotifications(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	h := s.app.Dispatcher.History()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Notifications (%d unread)\n\n", h.UnreadCount()))
	for _, it := range h.Items() {
		box := " "
		if it.Read {
			box = "x"
		}
		sb.WriteString(fmt.Sprintf("- [%s] %s `%s` fired %s\n",
			box, it.Record.Title, it.ID, it.FiredAt.Format("2006-01-02 15:04")))
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      notificationsURI,
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}
