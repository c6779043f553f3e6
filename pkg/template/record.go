package template

import (
	"fmt"
	"slices"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Record is the persistence shape of a template.
type Record struct {
	ID             string                     `json:"id"`
	Name           string                     `json:"name"`
	Description    string                     `json:"description,omitempty"`
	Type           string                     `json:"type"`
	CreatedBy      string                     `json:"created_by"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
	Variables      []Variable                 `json:"variables,omitempty"`
	Channels       map[string]ChannelTemplate `json:"channels,omitempty"`
	Versions       []Version                  `json:"versions"`
	CurrentVersion int                        `json:"current_version"`
	Active         bool                       `json:"active"`
	Tags           []string                   `json:"tags,omitempty"`
	Metadata       map[string]any             `json:"metadata,omitempty"`
}

// Snapshot produces the persistence record for the template.
func (t *Template) Snapshot() Record {
	channels := make(map[string]ChannelTemplate, len(t.channels))
	for c, ct := range t.channels {
		channels[string(c)] = ct
	}
	return Record{
		ID:             t.id,
		Name:           t.name,
		Description:    t.description,
		Type:           string(t.typ),
		CreatedBy:      t.createdBy,
		CreatedAt:      t.createdAt,
		UpdatedAt:      t.updatedAt,
		Variables:      slices.Clone(t.variables),
		Channels:       channels,
		Versions:       slices.Clone(t.versions),
		CurrentVersion: t.currentVersion,
		Active:         t.active,
		Tags:           slices.Clone(t.tags),
		Metadata:       t.Metadata(),
	}
}

// FromRecord restores a template from its persistence record, validating
// shape without re-running creation-time rules.
func FromRecord(r Record) (*Template, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("template record: missing id")
	}
	if err := validateName(r.Name); err != nil {
		return nil, err
	}
	typ, err := notification.ParseType(r.Type)
	if err != nil {
		return nil, err
	}
	for _, v := range r.Variables {
		if err := v.validate(); err != nil {
			return nil, err
		}
	}

	channels := make(map[notification.Channel]ChannelTemplate, len(r.Channels))
	for raw, ct := range r.Channels {
		c, err := notification.ParseChannel(raw)
		if err != nil {
			return nil, err
		}
		if !ct.Format.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, ct.Format)
		}
		channels[c] = ct
	}

	versions := slices.Clone(r.Versions)
	if len(versions) == 0 {
		versions = []Version{{Version: 1, CreatedAt: r.CreatedAt, CreatedBy: r.CreatedBy, IsActive: true}}
	}
	currentVersion := r.CurrentVersion
	if currentVersion == 0 {
		currentVersion = versions[len(versions)-1].Version
	}

	metadata := r.Metadata
	if metadata == nil {
		metadata = make(map[string]any)
	}

	return &Template{
		id:             r.ID,
		name:           r.Name,
		description:    r.Description,
		typ:            typ,
		createdBy:      r.CreatedBy,
		createdAt:      r.CreatedAt,
		updatedAt:      r.UpdatedAt,
		variables:      slices.Clone(r.Variables),
		channels:       channels,
		versions:       versions,
		currentVersion: currentVersion,
		active:         r.Active,
		tags:           slices.Clone(r.Tags),
		metadata:       metadata,
	}, nil
}
