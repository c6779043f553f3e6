package template

import "errors"

var (
	// ErrNameRequired is returned when a template is created without a name.
	ErrNameRequired = errors.New("template name is required")

	// ErrNameTooLong is returned when the name exceeds the maximum length.
	ErrNameTooLong = errors.New("template name exceeds maximum length")

	// ErrDescriptionTooLong is returned when the description exceeds the maximum length.
	ErrDescriptionTooLong = errors.New("template description exceeds maximum length")

	// ErrCreatedByRequired is returned when the author is missing.
	ErrCreatedByRequired = errors.New("template author is required")

	// ErrInvalidVariableName is returned when a variable name violates the
	// identifier grammar (letter followed by letters, digits or underscores).
	ErrInvalidVariableName = errors.New("invalid variable name")

	// ErrInvalidVariableType is returned for unknown variable types.
	ErrInvalidVariableType = errors.New("invalid variable type")

	// ErrInvalidVariablePattern is returned when a constraint pattern does not compile.
	ErrInvalidVariablePattern = errors.New("variable constraint pattern does not compile")

	// ErrDuplicateVariable is returned when adding a variable whose name is taken.
	ErrDuplicateVariable = errors.New("variable name already declared")

	// ErrVariableNotFound is returned when updating or removing an undeclared variable.
	ErrVariableNotFound = errors.New("variable not declared")

	// ErrBodyRequired is returned when a channel template has an empty body.
	ErrBodyRequired = errors.New("channel template body is required")

	// ErrBodyTooLarge is returned when a body exceeds the channel's maximum
	// message size.
	ErrBodyTooLarge = errors.New("channel template body exceeds channel maximum message size")

	// ErrInvalidFormat is returned for unknown output formats.
	ErrInvalidFormat = errors.New("invalid template format")

	// ErrChannelTemplateNotFound is returned when no template exists for a channel.
	ErrChannelTemplateNotFound = errors.New("no template for channel")

	// ErrChannelTemplateDisabled is returned when the channel's template is disabled.
	ErrChannelTemplateDisabled = errors.New("channel template is disabled")

	// ErrTemplateInactive is returned when rendering a deactivated template.
	ErrTemplateInactive = errors.New("template is not active")
)
