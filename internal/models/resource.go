package models

import (
	"encoding/json"
	"time"
)

// Kind identifies one of the user-owned resource collections.
type Kind string

const (
	KindNote    Kind = "note"
	KindTodo    Kind = "todo"
	KindJournal Kind = "journal"
)

// KindSpec describes how a resource kind is validated, stored and exposed over HTTP.
type KindSpec struct {
	Kind          Kind
	Label         string // Human readable name used in response messages
	LabelPlural   string
	Collection    string // SQL table / Mongo collection
	Route         string // e.g. /create-{Route}
	RoutePlural   string // e.g. /get-all-{RoutePlural}
	JSONKey       string
	JSONKeyPlural string
	TitleMessage  string
	BodyRequired  bool
	HasTags       bool
	HasCompleted  bool
}

var kindSpecs = []KindSpec{
	{
		Kind:          KindNote,
		Label:         "Note",
		LabelPlural:   "notes",
		Collection:    "notes",
		Route:         "note",
		RoutePlural:   "notes",
		JSONKey:       "note",
		JSONKeyPlural: "notes",
		TitleMessage:  "Please enter a title",
		BodyRequired:  true,
		HasTags:       true,
	},
	{
		Kind:          KindTodo,
		Label:         "Todo",
		LabelPlural:   "todos",
		Collection:    "todos",
		Route:         "todo",
		RoutePlural:   "todos",
		JSONKey:       "todo",
		JSONKeyPlural: "todos",
		TitleMessage:  "Please enter a Todo",
		HasCompleted:  true,
	},
	{
		Kind:          KindJournal,
		Label:         "Journal-Unit",
		LabelPlural:   "Journal-Units",
		Collection:    "journals",
		Route:         "journal-unit",
		RoutePlural:   "journal-units",
		JSONKey:       "journalUnit",
		JSONKeyPlural: "journalUnits",
		TitleMessage:  "Please enter a title",
		BodyRequired:  true,
		HasTags:       true,
	},
}

// Kinds returns the specs of every resource kind in a fixed order.
func Kinds() []KindSpec {
	out := make([]KindSpec, len(kindSpecs))
	copy(out, kindSpecs)
	return out
}

// SpecFor looks up the spec for a kind.
func SpecFor(kind Kind) (KindSpec, bool) {
	for _, s := range kindSpecs {
		if s.Kind == kind {
			return s, true
		}
	}
	return KindSpec{}, false
}

// Resource is a note, todo or journal entry owned by a single account.
type Resource struct {
	ID        string    `bson:"_id"`
	Kind      Kind      `bson:"-"`
	OwnerID   string    `bson:"userId"`
	Title     string    `bson:"title"`
	Body      string    `bson:"textContent"`
	Tags      []string  `bson:"tags,omitempty"`
	Pinned    bool      `bson:"isPinned"`
	Completed bool      `bson:"isCompleted,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
}

// MarshalJSON renders only the fields the resource's kind carries.
func (r Resource) MarshalJSON() ([]byte, error) {
	view := struct {
		ID        string    `json:"_id"`
		OwnerID   string    `json:"userId"`
		Title     string    `json:"title"`
		Body      string    `json:"textContent"`
		Tags      *[]string `json:"tags,omitempty"`
		Pinned    bool      `json:"isPinned"`
		Completed *bool     `json:"isCompleted,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
	}{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Title:     r.Title,
		Body:      r.Body,
		Pinned:    r.Pinned,
		CreatedAt: r.CreatedAt,
	}

	spec, _ := SpecFor(r.Kind)
	if spec.HasTags {
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		view.Tags = &tags
	}
	if spec.HasCompleted {
		completed := r.Completed
		view.Completed = &completed
	}
	return json.Marshal(view)
}

// ResourceFields holds the client-supplied values for a new resource.
type ResourceFields struct {
	Title string
	Body  string
	Tags  []string
}

// ResourcePatch is a partial update. Nil means "not provided".
type ResourcePatch struct {
	Title     *string
	Body      *string
	Tags      []string
	Pinned    *bool
	Completed *bool
}

// HasChanges reports whether at least one field would be applied for the given kind.
// Text and tag fields need a non-empty value; flags only need to be present.
func (p ResourcePatch) HasChanges(spec KindSpec) bool {
	switch {
	case p.Title != nil && *p.Title != "":
		return true
	case p.Body != nil && *p.Body != "":
		return true
	case spec.HasTags && len(p.Tags) > 0:
		return true
	case p.Pinned != nil:
		return true
	case spec.HasCompleted && p.Completed != nil:
		return true
	}
	return false
}

// ApplyTo copies the applicable fields onto r.
func (p ResourcePatch) ApplyTo(r *Resource, spec KindSpec) {
	if p.Title != nil && *p.Title != "" {
		r.Title = *p.Title
	}
	if p.Body != nil && *p.Body != "" {
		r.Body = *p.Body
	}
	if spec.HasTags && len(p.Tags) > 0 {
		r.Tags = append([]string(nil), p.Tags...)
	}
	if p.Pinned != nil {
		r.Pinned = *p.Pinned
	}
	if spec.HasCompleted && p.Completed != nil {
		r.Completed = *p.Completed
	}
}
