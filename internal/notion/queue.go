package notion

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackzampolin/wandr/internal/pipeline"
)

// pendingStatus marks queue items awaiting processing.
const pendingStatus = "Pending"

type updatePageRequest struct {
	Properties map[string]property `json:"properties"`
}

// ListPending returns queued URLs still awaiting processing. Items
// without a usable URL are skipped with a warning.
func (c *Client) ListPending(ctx context.Context, queueID string, filter pipeline.PendingFilter) ([]pipeline.WorkItem, error) {
	statusCond := queryFilter{
		Property: c.statusProperty,
		Select:   &selectFilter{Equals: pendingStatus},
	}

	qf := &statusCond
	if filter.Since != nil {
		qf = &queryFilter{And: []queryFilter{
			{
				Property: c.createdProperty,
				Date:     &dateFilter{OnOrAfter: filter.Since.UTC().Format("2006-01-02")},
			},
			statusCond,
		}}
	}

	pages, err := c.queryAll(ctx, queueID, qf)
	if err != nil {
		return nil, fmt.Errorf("list pending items: %w", err)
	}

	items := make([]pipeline.WorkItem, 0, len(pages))
	for _, pg := range pages {
		urlProp, ok := pg.Properties[c.urlProperty]
		if !ok || urlProp.URL == "" {
			c.log.Warn("queue item has no URL, skipping", "page_id", pg.ID, "title", pageTitle(pg))
			continue
		}
		item := pipeline.WorkItem{ID: pg.ID, URL: urlProp.URL}
		if modeProp, ok := pg.Properties[c.modeProperty]; ok && modeProp.Select != nil {
			item.ModeTag = modeProp.Select.Name
		}
		items = append(items, item)
	}

	c.log.Info("pending queue items", "queue", queueID, "count", len(items))
	return items, nil
}

// UpdateStatus writes the terminal status back onto a queue item.
func (c *Client) UpdateStatus(ctx context.Context, itemID string, status pipeline.ItemStatus) error {
	req := updatePageRequest{
		Properties: map[string]property{
			c.statusProperty: selectProperty(string(status)),
		},
	}
	if err := c.do(ctx, http.MethodPatch, "/pages/"+itemID, req, nil); err != nil {
		return fmt.Errorf("update item status: %w", err)
	}
	return nil
}
