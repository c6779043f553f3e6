package template_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/template"
)

func newTestTemplate(t *testing.T, opts ...template.Option) *template.Template {
	t.Helper()
	tpl, err := template.New("welcome-email", notification.TypeWelcome, "ops", opts...)
	require.NoError(t, err)
	return tpl
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		tplName   string
		typ       notification.Type
		createdBy string
		wantErr   error
	}{
		{name: "valid", tplName: "welcome", typ: notification.TypeWelcome, createdBy: "ops"},
		{name: "missing name", typ: notification.TypeWelcome, createdBy: "ops", wantErr: template.ErrNameRequired},
		{name: "name too long", tplName: strings.Repeat("n", 101), typ: notification.TypeWelcome, createdBy: "ops", wantErr: template.ErrNameTooLong},
		{name: "multibyte name counted in characters", tplName: strings.Repeat("ü", 100), typ: notification.TypeWelcome, createdBy: "ops"},
		{name: "multibyte name over the limit", tplName: strings.Repeat("ü", 101), typ: notification.TypeWelcome, createdBy: "ops", wantErr: template.ErrNameTooLong},
		{name: "unknown type", tplName: "welcome", typ: notification.Type("junk"), createdBy: "ops", wantErr: notification.ErrInvalidType},
		{name: "missing author", tplName: "welcome", typ: notification.TypeWelcome, wantErr: template.ErrCreatedByRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tpl, err := template.New(tt.tplName, tt.typ, tt.createdBy)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, tpl.ID())
			assert.True(t, tpl.IsActive())
			assert.Equal(t, 1, tpl.CurrentVersion())
			require.Len(t, tpl.Versions(), 1)
			assert.True(t, tpl.Versions()[0].IsActive)
		})
	}
}

func TestSetDescription_CharacterLimit(t *testing.T) {
	t.Parallel()

	tpl, err := template.New("welcome", notification.TypeWelcome, "ops")
	require.NoError(t, err)

	require.NoError(t, tpl.SetDescription(strings.Repeat("é", 500)))
	assert.ErrorIs(t, tpl.SetDescription(strings.Repeat("é", 501)), template.ErrDescriptionTooLong)
}

func TestTemplate_VariableSchema(t *testing.T) {
	t.Parallel()

	tpl := newTestTemplate(t)

	require.NoError(t, tpl.AddVariable(template.Variable{
		Name: "userName", Type: template.VariableString, Required: true,
	}))

	t.Run("duplicate name rejected", func(t *testing.T) {
		err := tpl.AddVariable(template.Variable{Name: "userName", Type: template.VariableString})
		assert.ErrorIs(t, err, template.ErrDuplicateVariable)
	})

	t.Run("invalid identifier rejected", func(t *testing.T) {
		err := tpl.AddVariable(template.Variable{Name: "1bad", Type: template.VariableString})
		assert.ErrorIs(t, err, template.ErrInvalidVariableName)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		err := tpl.AddVariable(template.Variable{Name: "x", Type: template.VariableType("uuid")})
		assert.ErrorIs(t, err, template.ErrInvalidVariableType)
	})

	t.Run("broken constraint pattern rejected", func(t *testing.T) {
		err := tpl.AddVariable(template.Variable{
			Name: "y", Type: template.VariableString,
			Constraints: &template.Constraints{Pattern: "["},
		})
		assert.ErrorIs(t, err, template.ErrInvalidVariablePattern)
	})

	t.Run("update and remove", func(t *testing.T) {
		require.NoError(t, tpl.UpdateVariable(template.Variable{
			Name: "userName", Type: template.VariableString, Required: false,
		}))
		v, ok := tpl.Variable("userName")
		require.True(t, ok)
		assert.False(t, v.Required)

		require.NoError(t, tpl.RemoveVariable("userName"))
		assert.ErrorIs(t, tpl.RemoveVariable("userName"), template.ErrVariableNotFound)
	})
}

func TestTemplate_SetChannelTemplate(t *testing.T) {
	t.Parallel()

	tpl := newTestTemplate(t)

	t.Run("body bounded by channel max size", func(t *testing.T) {
		err := tpl.SetChannelTemplate(notification.ChannelSMS, template.ChannelTemplate{
			Body: strings.Repeat("x", 200), Enabled: true,
		})
		require.ErrorIs(t, err, template.ErrBodyTooLarge)
		assert.Contains(t, err.Error(), "exceeds")
	})

	t.Run("empty body rejected", func(t *testing.T) {
		err := tpl.SetChannelTemplate(notification.ChannelEmail, template.ChannelTemplate{Enabled: true})
		assert.ErrorIs(t, err, template.ErrBodyRequired)
	})

	t.Run("format defaults to text", func(t *testing.T) {
		require.NoError(t, tpl.SetChannelTemplate(notification.ChannelSMS, template.ChannelTemplate{
			Body: "short", Enabled: true,
		}))
		ct, ok := tpl.ChannelTemplate(notification.ChannelSMS)
		require.True(t, ok)
		assert.Equal(t, template.FormatText, ct.Format)
	})

	t.Run("enable disable", func(t *testing.T) {
		require.NoError(t, tpl.DisableChannel(notification.ChannelSMS))
		assert.Empty(t, tpl.EnabledChannels())
		require.NoError(t, tpl.EnableChannel(notification.ChannelSMS))
		assert.Equal(t, []notification.Channel{notification.ChannelSMS}, tpl.EnabledChannels())

		assert.ErrorIs(t, tpl.EnableChannel(notification.ChannelPush), template.ErrChannelTemplateNotFound)
	})
}

func TestTemplate_Versioning(t *testing.T) {
	t.Parallel()

	tpl := newTestTemplate(t)

	v2, err := tpl.CreateVersion("alice", "reworded subject")
	require.NoError(t, err)
	assert.Equal(t, 2, v2.Version)
	assert.Equal(t, 2, tpl.CurrentVersion())

	versions := tpl.Versions()
	require.Len(t, versions, 2)
	assert.False(t, versions[0].IsActive, "previous version must be deactivated")
	assert.True(t, versions[1].IsActive)
	assert.Equal(t, "reworded subject", versions[1].Changelog)

	_, err = tpl.CreateVersion("", "")
	assert.ErrorIs(t, err, template.ErrCreatedByRequired)
}

func TestTemplate_Tags(t *testing.T) {
	t.Parallel()

	tpl := newTestTemplate(t, template.WithTags("Onboarding", "EMAIL", "onboarding"))
	assert.Equal(t, []string{"onboarding", "email"}, tpl.Tags())

	tpl.RemoveTag("ONBOARDING")
	assert.Equal(t, []string{"email"}, tpl.Tags())
}

func TestTemplate_ValidateVariables(t *testing.T) {
	t.Parallel()

	minLen := 3
	tpl := newTestTemplate(t, template.WithVariables(
		template.Variable{Name: "userName", Type: template.VariableString, Required: true},
		template.Variable{Name: "age", Type: template.VariableNumber},
		template.Variable{Name: "plan", Type: template.VariableString,
			Constraints: &template.Constraints{Options: []string{"free", "pro"}}},
		template.Variable{Name: "code", Type: template.VariableString,
			Constraints: &template.Constraints{MinLength: &minLen}},
		template.Variable{Name: "greeting", Type: template.VariableString, Required: true, DefaultValue: "Hello"},
	))

	t.Run("required missing names the variable", func(t *testing.T) {
		err := tpl.ValidateVariables(map[string]any{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "userName")
	})

	t.Run("required with default is satisfied", func(t *testing.T) {
		err := tpl.ValidateVariables(map[string]any{"userName": "ada"})
		assert.NoError(t, err)
	})

	t.Run("type mismatch", func(t *testing.T) {
		err := tpl.ValidateVariables(map[string]any{"userName": "ada", "age": "forty"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "age")
		assert.Contains(t, err.Error(), "expected number")
	})

	t.Run("constraint violations collected together", func(t *testing.T) {
		err := tpl.ValidateVariables(map[string]any{
			"userName": "ada",
			"plan":     "enterprise",
			"code":     "ab",
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "plan")
		assert.Contains(t, err.Error(), "code")
	})

	t.Run("undeclared variables are ignored", func(t *testing.T) {
		err := tpl.ValidateVariables(map[string]any{"userName": "ada", "extra": 1})
		assert.NoError(t, err)
	})
}

func TestTemplate_Render(t *testing.T) {
	t.Parallel()

	newRenderable := func(t *testing.T) *template.Template {
		tpl := newTestTemplate(t, template.WithVariables(
			template.Variable{Name: "userName", Type: template.VariableString, Required: true},
			template.Variable{Name: "product", Type: template.VariableString, DefaultValue: "notifykit"},
		))
		require.NoError(t, tpl.SetChannelTemplate(notification.ChannelEmail, template.ChannelTemplate{
			Subject: "Welcome, {{userName}}!",
			Body:    "<p>{{userName}}, thanks for trying {{product}}.</p>",
			Format:  template.FormatHTML,
			Enabled: true,
		}))
		return tpl
	}

	t.Run("substitutes variables and defaults", func(t *testing.T) {
		t.Parallel()

		out, err := newRenderable(t).Render(notification.ChannelEmail, map[string]any{"userName": "Ada"})
		require.NoError(t, err)
		assert.Equal(t, "Welcome, Ada!", out.Subject)
		assert.Equal(t, "<p>Ada, thanks for trying notifykit.</p>", out.Body)
		assert.Equal(t, template.FormatHTML, out.Format)
	})

	t.Run("missing required variable fails", func(t *testing.T) {
		t.Parallel()

		_, err := newRenderable(t).Render(notification.ChannelEmail, map[string]any{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "userName")
	})

	t.Run("no channel template", func(t *testing.T) {
		t.Parallel()

		_, err := newRenderable(t).Render(notification.ChannelSMS, map[string]any{"userName": "Ada"})
		assert.ErrorIs(t, err, template.ErrChannelTemplateNotFound)
	})

	t.Run("disabled channel template", func(t *testing.T) {
		t.Parallel()

		tpl := newRenderable(t)
		require.NoError(t, tpl.DisableChannel(notification.ChannelEmail))
		_, err := tpl.Render(notification.ChannelEmail, map[string]any{"userName": "Ada"})
		assert.ErrorIs(t, err, template.ErrChannelTemplateDisabled)
	})

	t.Run("inactive template", func(t *testing.T) {
		t.Parallel()

		tpl := newRenderable(t)
		tpl.Deactivate()
		_, err := tpl.Render(notification.ChannelEmail, map[string]any{"userName": "Ada"})
		assert.ErrorIs(t, err, template.ErrTemplateInactive)
	})
}

func TestRecord_RoundTrip(t *testing.T) {
	t.Parallel()

	tpl := newTestTemplate(t,
		template.WithDescription("Sent on signup"),
		template.WithVariables(template.Variable{Name: "userName", Type: template.VariableString, Required: true}),
		template.WithTags("onboarding"),
	)
	require.NoError(t, tpl.SetChannelTemplate(notification.ChannelEmail, template.ChannelTemplate{
		Subject: "Hi {{userName}}", Body: "Welcome.", Format: template.FormatText, Enabled: true,
	}))
	_, err := tpl.CreateVersion("alice", "v2")
	require.NoError(t, err)

	restored, err := template.FromRecord(tpl.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, tpl.ID(), restored.ID())
	assert.Equal(t, tpl.Name(), restored.Name())
	assert.Equal(t, 2, restored.CurrentVersion())
	assert.Equal(t, tpl.Tags(), restored.Tags())
	assert.Equal(t, tpl.Variables(), restored.Variables())

	out, err := restored.Render(notification.ChannelEmail, map[string]any{"userName": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Ada", out.Subject)
}

func TestParse_YAMLDefinition(t *testing.T) {
	t.Parallel()

	const def = `
name: welcome-email
type: welcome
description: Sent right after signup
created_by: ops
tags: [Onboarding]
variables:
  - name: userName
    type: string
    required: true
    validation:
      min_length: 1
  - name: product
    type: string
    default: notifykit
channels:
  email:
    subject: "Welcome, {{userName}}!"
    body: "Thanks for trying {{product}}."
    format: text
    enabled: true
  sms:
    body: "Welcome {{userName}}"
    enabled: false
`

	tpl, err := template.Parse([]byte(def))
	require.NoError(t, err)

	assert.Equal(t, "welcome-email", tpl.Name())
	assert.Equal(t, notification.TypeWelcome, tpl.Type())
	assert.Equal(t, []string{"onboarding"}, tpl.Tags())
	assert.Len(t, tpl.Variables(), 2)
	assert.Equal(t, []notification.Channel{notification.ChannelEmail}, tpl.EnabledChannels())

	out, err := tpl.Render(notification.ChannelEmail, map[string]any{"userName": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Thanks for trying notifykit.", out.Body)

	t.Run("oversized sms body rejected at load", func(t *testing.T) {
		bad := strings.Replace(def, `body: "Welcome {{userName}}"`,
			`body: "`+strings.Repeat("x", 200)+`"`, 1)
		_, err := template.Parse([]byte(bad))
		assert.ErrorIs(t, err, template.ErrBodyTooLarge)
	})
}
