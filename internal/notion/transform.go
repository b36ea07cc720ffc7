package notion

import (
	"github.com/jackzampolin/wandr/internal/pipeline"
)

// The wire types below cover the subset of Notion's property payloads
// the pipeline reads and writes.

type textLink struct {
	URL string `json:"url"`
}

type textContent struct {
	Content string    `json:"content"`
	Link    *textLink `json:"link,omitempty"`
}

type richText struct {
	Text      textContent `json:"text"`
	PlainText string      `json:"plain_text,omitempty"`
}

type selectOption struct {
	Name string `json:"name"`
}

// property carries exactly one value field per instance. Type is only
// populated on responses.
type property struct {
	Type        string         `json:"type,omitempty"`
	Title       []richText     `json:"title,omitempty"`
	RichText    []richText     `json:"rich_text,omitempty"`
	URL         string         `json:"url,omitempty"`
	MultiSelect []selectOption `json:"multi_select,omitempty"`
	Select      *selectOption  `json:"select,omitempty"`
	Checkbox    *bool          `json:"checkbox,omitempty"`
}

type page struct {
	ID         string              `json:"id"`
	URL        string              `json:"url,omitempty"`
	Properties map[string]property `json:"properties,omitempty"`
}

func titleProperty(text string) property {
	return property{Title: []richText{{Text: textContent{Content: text}}}}
}

func richTextProperty(text, link string) property {
	content := textContent{Content: text}
	if link != "" {
		content.Link = &textLink{URL: link}
	}
	return property{RichText: []richText{{Text: content}}}
}

func checkboxProperty(checked bool) property {
	return property{Checkbox: &checked}
}

func selectProperty(name string) property {
	return property{Select: &selectOption{Name: name}}
}

// entryProperties maps a place onto the destination database schema.
// The address cell doubles as the maps link when one is present.
func entryProperties(place pipeline.Place, sourceURL string) map[string]property {
	props := map[string]property{
		"Name of Place": titleProperty(place.Name),
		"Is Popup":      checkboxProperty(place.IsPopup),
		"Visited":       checkboxProperty(place.Visited),
	}

	if sourceURL != "" {
		props["Source URL"] = property{URL: sourceURL}
	}
	if place.Address != "" {
		props["Address"] = richTextProperty(place.Address, place.MapsLink)
	}
	if len(place.Categories) > 0 {
		options := make([]selectOption, 0, len(place.Categories))
		for _, category := range place.Categories {
			options = append(options, selectOption{Name: category})
		}
		props["Categories"] = property{MultiSelect: options}
	}
	if place.Recommendations != "" {
		props["Recommendations"] = richTextProperty(place.Recommendations, "")
	}
	if place.Hours != "" {
		props["Hours"] = richTextProperty(place.Hours, "")
	}
	if place.Website != "" {
		props["Website"] = property{URL: place.Website}
	}

	return props
}

// plainText flattens a rich text property value.
func plainText(texts []richText) string {
	var out string
	for _, t := range texts {
		if t.PlainText != "" {
			out += t.PlainText
		} else {
			out += t.Text.Content
		}
	}
	return out
}

// pageTitle returns the first title property's text.
func pageTitle(p page) string {
	for _, prop := range p.Properties {
		if len(prop.Title) > 0 {
			return plainText(prop.Title)
		}
	}
	return ""
}
