// ABOUTME: Conversation search resource: summaries by repository, trigger
// ABOUTME: kind and result limit.

package restapi

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// ConversationSummary is one search result.
type ConversationSummary struct {
	ID         string    `json:"conversation_id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Repository string    `json:"selected_repository"`
	Branch     string    `json:"selected_branch"`
	Trigger    string    `json:"trigger"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"last_updated_at"`
	PRNumbers  []int     `json:"pr_number"`
}

// SearchParams narrows a conversation search. Zero values are omitted.
type SearchParams struct {
	Repository string // full name, e.g. "owner/repo"
	Trigger    string // trigger-kind tag, e.g. "gui", "resolver"
	Limit      int
}

// SearchConversations queries conversation summaries.
func (c *Client) SearchConversations(ctx context.Context, params SearchParams) ([]ConversationSummary, error) {
	q := url.Values{}
	if params.Repository != "" {
		q.Set("selected_repository", params.Repository)
	}
	if params.Trigger != "" {
		q.Set("conversation_trigger", params.Trigger)
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}

	var out struct {
		Results []ConversationSummary `json:"results"`
	}
	if err := c.get(ctx, "/api/conversations", q, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
