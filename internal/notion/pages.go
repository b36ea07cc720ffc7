package notion

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/jackzampolin/wandr/internal/pipeline"
)

// titlePropertyName is the title column of the destination database.
const titlePropertyName = "Name of Place"

type pageParent struct {
	DatabaseID string `json:"database_id"`
}

type createPageRequest struct {
	Parent     pageParent          `json:"parent"`
	Properties map[string]property `json:"properties"`
}

// FindByTitle returns the entry whose title exactly equals title, or
// nil when the collection has no such entry.
func (c *Client) FindByTitle(ctx context.Context, collectionID, title string) (*pipeline.Record, error) {
	filter := &queryFilter{
		Property: titlePropertyName,
		Title:    &textFilter{Equals: title},
	}

	pages, err := c.queryAll(ctx, collectionID, filter)
	if err != nil {
		return nil, fmt.Errorf("find entry by title: %w", err)
	}
	if len(pages) == 0 {
		return nil, nil
	}
	return &pipeline.Record{ID: pages[0].ID, URL: pages[0].URL}, nil
}

// CreateEntry writes one place into the destination database.
func (c *Client) CreateEntry(ctx context.Context, collectionID string, place pipeline.Place, sourceURL string) (*pipeline.Record, error) {
	req := createPageRequest{
		Parent:     pageParent{DatabaseID: collectionID},
		Properties: entryProperties(place, sourceURL),
	}

	var created page
	if err := c.do(ctx, http.MethodPost, "/pages", req, &created); err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}

	c.log.Info("created collection entry", "place", place.Name, "page_id", created.ID)
	return &pipeline.Record{ID: created.ID, URL: created.URL}, nil
}

type database struct {
	ID         string                    `json:"id"`
	Properties map[string]schemaProperty `json:"properties"`
}

type schemaProperty struct {
	Type string `json:"type"`
}

// requiredSchema lists the destination properties CreateEntry writes
// and the type each must have.
var requiredSchema = map[string]string{
	titlePropertyName: "title",
	"Source URL":      "url",
	"Address":         "rich_text",
	"Categories":      "multi_select",
	"Recommendations": "rich_text",
	"Hours":           "rich_text",
	"Website":         "url",
	"Is Popup":        "checkbox",
	"Visited":         "checkbox",
}

// CheckCollection verifies the destination database exposes every
// property CreateEntry writes. Batch runs call this before touching
// the queue so a misconfigured collection fails fast.
func (c *Client) CheckCollection(ctx context.Context, collectionID string) error {
	var db database
	if err := c.do(ctx, http.MethodGet, "/databases/"+collectionID, nil, &db); err != nil {
		return fmt.Errorf("retrieve collection: %w", err)
	}

	var problems []string
	for name, wantType := range requiredSchema {
		prop, ok := db.Properties[name]
		if !ok {
			problems = append(problems, fmt.Sprintf("missing property %q", name))
			continue
		}
		if prop.Type != wantType {
			problems = append(problems, fmt.Sprintf("property %q has type %s, want %s", name, prop.Type, wantType))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("collection %s schema mismatch: %s", collectionID, strings.Join(problems, "; "))
	}
	return nil
}
