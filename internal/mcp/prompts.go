// ABOUTME: MCP prompts for common capture and review workflows.
// ABOUTME: Provides pre-configured prompts for AI agent interactions.

package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerPrompts() {
	s.server.AddPrompt(&mcp.Prompt{
		Name:        "daily-review",
		Description: "Review open tasks, important records, and unread reminders",
	}, s.getDailyReviewPrompt)

	s.server.AddPrompt(&mcp.Prompt{
		Name:        "summarize-record",
		Description: "Generate a summary of an existing record",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "record_id",
				Description: "ID of the record to summarize",
				Required:    true,
			},
		},
	}, s.getSummarizeRecordPrompt)

	s.server.AddPrompt(&mcp.Prompt{
		Name:        "organize-records",
		Description: "Get suggestions for organizing and tagging records",
	}, s.getOrganizeRecordsPrompt)

	s.server.AddPrompt(&mcp.Prompt{
		Name:        "plan-reminders",
		Description: "Suggest reminders for tasks that mention a time",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "horizon",
				Description: "How far ahead to plan, e.g. \"this week\"",
				Required:    false,
			},
		},
	}, s.getPlanRemindersPrompt)
}

func userPrompt(text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: text,
				},
			},
		},
	}
}

func (s *Server) getDailyReviewPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	unread := s.app.Dispatcher.History().UnreadCount()

	template := fmt.Sprintf(`Help me review my day. I have %d unread reminder notifications.

1. Use the list_notifications tool with unread_only=true and go through what fired
2. Use the list_records tool with filter "todo" to find open checklist items
3. Use the list_records tool with filter "important" to surface starred records
4. Suggest which items to toggle done with toggle_item and which need a new reminder

Finish with mark_notifications_read once we have gone through them.`, unread)

	return userPrompt(template), nil
}

func (s *Server) getSummarizeRecordPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	recordID, ok := req.Params.Arguments["record_id"]
	if !ok || recordID == "" {
		return nil, fmt.Errorf("record_id argument is required")
	}

	template := fmt.Sprintf(`Please summarize the record with ID: %s

1. Use the get_record tool to retrieve the record
2. Read and analyze its body and checklist
3. Write a one-sentence summary highlighting the main point
4. Use the update_record tool to store it in the summary field`, recordID)

	return userPrompt(template), nil
}

func (s *Server) getOrganizeRecordsPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	template := `Help me organize my records by:

1. Use the list_records tool to see all my notes and tasks
2. Analyze the content and identify common themes
3. Suggest a tagging system that would help categorize them
4. Recommend which records should be starred as important
5. Identify records that are finished and could be deleted

Please provide specific recommendations with record IDs and suggested tags.`

	return userPrompt(template), nil
}

func (s *Server) getPlanRemindersPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	horizon, ok := req.Params.Arguments["horizon"]
	if !ok || horizon == "" {
		horizon = "the next few days"
	}

	template := fmt.Sprintf(`Help me plan reminders for %s.

1. Use the list_records tool with filter "todo" to find tasks
2. Look for tasks that mention a date, time, or deadline but have no reminder
3. For each one, propose a time and use the set_reminder tool with an RFC 3339 "at" value
4. Use clear_reminder for reminders that no longer make sense

List what you scheduled when you are done.`, horizon)

	return userPrompt(template), nil
}
