// Package template provides the multi-channel notification template entity:
// a named, versioned content template with a typed variable schema and one
// body per delivery channel.
//
// A template declares its variables (name, type, required flag, optional
// default and constraints) and carries a ChannelTemplate per channel, each
// bounded by that channel's maximum message size. Rendering on a channel
// requires the template to be active and that channel's template to exist
// and be enabled.
//
// Render performs plain {{name}} substitution against the variable schema.
// The richer templating grammar (conditionals, loops, formatters, system
// variables) lives in the renderer package, which builds on the schema
// validation exposed here.
//
// Templates are never hard-deleted: Deactivate retires a template while
// preserving its version history. CreateVersion appends an immutable version
// entry and moves the current-version pointer.
//
//	tpl, err := template.New("welcome-email", notification.TypeWelcome, "ops",
//	    template.WithVariables(template.Variable{
//	        Name: "userName", Type: template.VariableString, Required: true,
//	    }),
//	)
//	if err != nil { ... }
//	err = tpl.SetChannelTemplate(notification.ChannelEmail, template.ChannelTemplate{
//	    Subject: "Welcome, {{userName}}!",
//	    Body:    "<p>Good to have you here, {{userName}}.</p>",
//	    Format:  template.FormatHTML,
//	    Enabled: true,
//	})
//
// Operator-authored template files in YAML are supported through Parse and
// LoadFile.
package template
