package template

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Format is the output format of a channel template body.
type Format string

const (
	FormatText     Format = "text"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// Valid reports whether the format is known.
func (f Format) Valid() bool {
	switch f {
	case FormatText, FormatHTML, FormatMarkdown:
		return true
	}
	return false
}

// ChannelTemplate is the per-channel content of a template.
type ChannelTemplate struct {
	Subject string `json:"subject,omitempty" yaml:"subject"`
	Body    string `json:"body" yaml:"body"`
	Format  Format `json:"format" yaml:"format"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// Version is one immutable entry in a template's version history.
type Version struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
	Changelog string    `json:"changelog,omitempty"`
	IsActive  bool      `json:"is_active"`
}

// Rendered is the channel-ready output of a render.
type Rendered struct {
	Subject string
	Body    string
	Format  Format
}

const (
	maxNameLength        = 100
	maxDescriptionLength = 500
)

// Template is a named, versioned, multi-channel content template with a
// typed variable schema.
type Template struct {
	id          string
	name        string
	description string
	typ         notification.Type
	createdBy   string
	createdAt   time.Time
	updatedAt   time.Time

	variables []Variable
	channels  map[notification.Channel]ChannelTemplate

	versions       []Version
	currentVersion int
	active         bool

	tags     []string
	metadata map[string]any
}

// Option configures a template at creation time.
type Option func(*Template) error

// WithID sets a caller-supplied template id.
func WithID(id string) Option {
	return func(t *Template) error {
		if id == "" {
			return fmt.Errorf("template id cannot be empty")
		}
		t.id = id
		return nil
	}
}

// WithDescription sets the description.
func WithDescription(desc string) Option {
	return func(t *Template) error {
		return t.SetDescription(desc)
	}
}

// WithVariables declares the variable schema.
func WithVariables(vars ...Variable) Option {
	return func(t *Template) error {
		for _, v := range vars {
			if err := t.AddVariable(v); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithTags sets the initial tag set.
func WithTags(tags ...string) Option {
	return func(t *Template) error {
		for _, tag := range tags {
			t.AddTag(tag)
		}
		return nil
	}
}

// WithMetadata merges free-form metadata into the template.
func WithMetadata(md map[string]any) Option {
	return func(t *Template) error {
		for k, v := range md {
			t.metadata[k] = v
		}
		return nil
	}
}

// New creates an active template at version 1.
func New(name string, typ notification.Type, createdBy string, opts ...Option) (*Template, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %q", notification.ErrInvalidType, typ)
	}
	if createdBy == "" {
		return nil, ErrCreatedByRequired
	}

	now := time.Now().UTC()
	t := &Template{
		id:        uuid.New().String(),
		name:      name,
		typ:       typ,
		createdBy: createdBy,
		createdAt: now,
		updatedAt: now,
		channels:  make(map[notification.Channel]ChannelTemplate),
		versions: []Version{{
			Version:   1,
			CreatedAt: now,
			CreatedBy: createdBy,
			IsActive:  true,
		}},
		currentVersion: 1,
		active:         true,
		metadata:       make(map[string]any),
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func validateName(name string) error {
	if name == "" {
		return ErrNameRequired
	}
	if n := utf8.RuneCountInString(name); n > maxNameLength {
		return fmt.Errorf("%w: %d characters, maximum is %d", ErrNameTooLong, n, maxNameLength)
	}
	return nil
}

func (t *Template) ID() string                  { return t.id }
func (t *Template) Name() string                { return t.name }
func (t *Template) Description() string         { return t.description }
func (t *Template) Type() notification.Type     { return t.typ }
func (t *Template) CreatedBy() string           { return t.createdBy }
func (t *Template) CreatedAt() time.Time        { return t.createdAt }
func (t *Template) UpdatedAt() time.Time        { return t.updatedAt }
func (t *Template) IsActive() bool              { return t.active }
func (t *Template) CurrentVersion() int         { return t.currentVersion }

// Variables returns a copy of the variable schema in declaration order.
func (t *Template) Variables() []Variable {
	return slices.Clone(t.variables)
}

// Variable looks up a declared variable by name.
func (t *Template) Variable(name string) (Variable, bool) {
	for _, v := range t.variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// ChannelTemplate returns the template configured for a channel.
func (t *Template) ChannelTemplate(c notification.Channel) (ChannelTemplate, bool) {
	ct, ok := t.channels[c]
	return ct, ok
}

// EnabledChannels returns the channels with an enabled template, in the fixed
// channel order.
func (t *Template) EnabledChannels() []notification.Channel {
	var out []notification.Channel
	for _, c := range notification.Channels() {
		if ct, ok := t.channels[c]; ok && ct.Enabled {
			out = append(out, c)
		}
	}
	return out
}

// Versions returns a copy of the version history.
func (t *Template) Versions() []Version {
	return slices.Clone(t.versions)
}

// Tags returns a copy of the tag set.
func (t *Template) Tags() []string {
	return slices.Clone(t.tags)
}

// Metadata returns a shallow copy of the free-form metadata map.
func (t *Template) Metadata() map[string]any {
	md := make(map[string]any, len(t.metadata))
	for k, v := range t.metadata {
		md[k] = v
	}
	return md
}

func (t *Template) touch() {
	t.updatedAt = time.Now().UTC()
}

// Rename changes the template name.
func (t *Template) Rename(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	t.name = name
	t.touch()
	return nil
}

// SetDescription changes the description.
func (t *Template) SetDescription(desc string) error {
	if n := utf8.RuneCountInString(desc); n > maxDescriptionLength {
		return fmt.Errorf("%w: %d characters, maximum is %d", ErrDescriptionTooLong, n, maxDescriptionLength)
	}
	t.description = desc
	t.touch()
	return nil
}

// AddVariable declares a new variable. Names are unique within a template.
func (t *Template) AddVariable(v Variable) error {
	if err := v.validate(); err != nil {
		return err
	}
	if _, exists := t.Variable(v.Name); exists {
		return fmt.Errorf("%w: %q", ErrDuplicateVariable, v.Name)
	}
	t.variables = append(t.variables, v)
	t.touch()
	return nil
}

// UpdateVariable replaces a declared variable, matched by name.
func (t *Template) UpdateVariable(v Variable) error {
	if err := v.validate(); err != nil {
		return err
	}
	for i := range t.variables {
		if t.variables[i].Name == v.Name {
			t.variables[i] = v
			t.touch()
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrVariableNotFound, v.Name)
}

// RemoveVariable removes a declared variable by name.
func (t *Template) RemoveVariable(name string) error {
	for i := range t.variables {
		if t.variables[i].Name == name {
			t.variables = slices.Delete(t.variables, i, i+1)
			t.touch()
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrVariableNotFound, name)
}

// SetChannelTemplate adds or replaces the template for a channel. The body is
// bounded by the channel's maximum message size.
func (t *Template) SetChannelTemplate(c notification.Channel, ct ChannelTemplate) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", notification.ErrInvalidChannel, c)
	}
	if ct.Body == "" {
		return fmt.Errorf("%w: channel %s", ErrBodyRequired, c)
	}
	if max := c.Capabilities().MaxMessageSize; max > 0 && len(ct.Body) > max {
		return fmt.Errorf("%w: %s body is %d bytes, channel maximum is %d",
			ErrBodyTooLarge, c, len(ct.Body), max)
	}
	if ct.Format == "" {
		ct.Format = FormatText
	}
	if !ct.Format.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, ct.Format)
	}
	t.channels[c] = ct
	t.touch()
	return nil
}

// RemoveChannelTemplate deletes the template for a channel.
func (t *Template) RemoveChannelTemplate(c notification.Channel) error {
	if _, ok := t.channels[c]; !ok {
		return fmt.Errorf("%w: %s", ErrChannelTemplateNotFound, c)
	}
	delete(t.channels, c)
	t.touch()
	return nil
}

// EnableChannel enables the channel's template.
func (t *Template) EnableChannel(c notification.Channel) error {
	return t.setChannelEnabled(c, true)
}

// DisableChannel disables the channel's template without removing it.
func (t *Template) DisableChannel(c notification.Channel) error {
	return t.setChannelEnabled(c, false)
}

func (t *Template) setChannelEnabled(c notification.Channel, enabled bool) error {
	ct, ok := t.channels[c]
	if !ok {
		return fmt.Errorf("%w: %s", ErrChannelTemplateNotFound, c)
	}
	ct.Enabled = enabled
	t.channels[c] = ct
	t.touch()
	return nil
}

// Activate makes the template renderable.
func (t *Template) Activate() {
	t.active = true
	t.touch()
}

// Deactivate retires the template. Templates are never hard-deleted.
func (t *Template) Deactivate() {
	t.active = false
	t.touch()
}

// AddTag adds a tag; tags are lower-cased and deduplicated.
func (t *Template) AddTag(tag string) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" || slices.Contains(t.tags, tag) {
		return
	}
	t.tags = append(t.tags, tag)
	t.touch()
}

// RemoveTag removes a tag if present.
func (t *Template) RemoveTag(tag string) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if idx := slices.Index(t.tags, tag); idx >= 0 {
		t.tags = slices.Delete(t.tags, idx, idx+1)
		t.touch()
	}
}

// CreateVersion appends a new version entry, deactivates the previous one,
// and moves the current-version pointer.
func (t *Template) CreateVersion(createdBy, changelog string) (Version, error) {
	if createdBy == "" {
		return Version{}, ErrCreatedByRequired
	}
	for i := range t.versions {
		t.versions[i].IsActive = false
	}
	v := Version{
		Version:   t.currentVersion + 1,
		CreatedAt: time.Now().UTC(),
		CreatedBy: createdBy,
		Changelog: changelog,
		IsActive:  true,
	}
	t.versions = append(t.versions, v)
	t.currentVersion = v.Version
	t.touch()
	return v, nil
}

// ValidateVariables checks a bindings map against the variable schema.
// Required-missing, type-mismatch, and constraint violations are collected
// into a single error so callers see everything wrong at once.
func (t *Template) ValidateVariables(vars map[string]any) error {
	var problems []string
	for _, v := range t.variables {
		value, supplied := vars[v.Name]
		if !supplied {
			if v.Required && v.DefaultValue == nil {
				problems = append(problems, fmt.Sprintf("required variable %q is missing", v.Name))
			}
			continue
		}
		if err := v.CheckValue(value); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid template variables: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Render produces channel-ready content by plain {{name}} substitution over
// the channel's subject and body. Undeclared placeholders are left as-is;
// the renderer package implements the richer grammar.
func (t *Template) Render(c notification.Channel, vars map[string]any) (Rendered, error) {
	if !t.active {
		return Rendered{}, ErrTemplateInactive
	}
	ct, ok := t.channels[c]
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %s", ErrChannelTemplateNotFound, c)
	}
	if !ct.Enabled {
		return Rendered{}, fmt.Errorf("%w: %s", ErrChannelTemplateDisabled, c)
	}
	if err := t.ValidateVariables(vars); err != nil {
		return Rendered{}, err
	}

	bindings := t.Bindings(vars)
	return Rendered{
		Subject: substitute(ct.Subject, bindings),
		Body:    substitute(ct.Body, bindings),
		Format:  ct.Format,
	}, nil
}

// Bindings merges supplied variables with declared defaults for any unset
// variable. The renderer uses the same merge before evaluating its grammar.
func (t *Template) Bindings(vars map[string]any) map[string]any {
	out := make(map[string]any, len(t.variables)+len(vars))
	for _, v := range t.variables {
		if v.DefaultValue != nil {
			out[v.Name] = v.DefaultValue
		}
	}
	for k, v := range vars {
		out[k] = v
	}
	return out
}

func substitute(s string, bindings map[string]any) string {
	for name, value := range bindings {
		s = strings.ReplaceAll(s, "{{"+name+"}}", fmt.Sprint(value))
	}
	return s
}
