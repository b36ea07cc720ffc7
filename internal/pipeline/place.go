package pipeline

// Place is one physical location extracted from content. A place is
// owned by the run that produced it and is not mutated after the
// extraction stage completes.
type Place struct {
	Name            string   `json:"name"`
	Address         string   `json:"address,omitempty"`
	Neighborhood    string   `json:"neighborhood,omitempty"`
	Categories      []string `json:"categories,omitempty"`
	Recommendations string   `json:"recommendations,omitempty"`
	Hours           string   `json:"hours,omitempty"`
	Website         string   `json:"website,omitempty"`
	IsPopup         bool     `json:"is_popup"`
	Visited         bool     `json:"visited"`
	MapsLink        string   `json:"maps_link,omitempty"`
}

// LocationHint returns the best available hint for geographic lookup:
// the address when present, otherwise the neighborhood.
func (p Place) LocationHint() string {
	if p.Address != "" {
		return p.Address
	}
	return p.Neighborhood
}

// Bundle aggregates every place extracted from one URL's content.
// Every place in a complete bundle has a non-empty trimmed name and a
// maps link; candidates failing either check are filtered out before
// the bundle is assembled.
type Bundle struct {
	URL    string      `json:"url"`
	Kind   ContentKind `json:"kind"`
	Places []Place     `json:"places"`
}
