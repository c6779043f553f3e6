package renderer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/renderer"
	"github.com/dmitrymomot/notifykit/pkg/template"
)

func newTemplate(t *testing.T, body string, opts ...template.Option) *template.Template {
	t.Helper()

	tpl, err := template.New("order-update", notification.TypeAlert, "ops@example.com", opts...)
	require.NoError(t, err)
	require.NoError(t, tpl.SetChannelTemplate(notification.ChannelInApp, template.ChannelTemplate{
		Body:    body,
		Format:  template.FormatText,
		Enabled: true,
	}))
	return tpl
}

func render(t *testing.T, svc *renderer.Service, tpl *template.Template, vars map[string]any) template.Rendered {
	t.Helper()

	out, err := svc.Render(context.Background(), renderer.Request{
		Template:  tpl,
		Channel:   notification.ChannelInApp,
		Variables: vars,
	})
	require.NoError(t, err)
	return out
}

func TestRenderSubstitution(t *testing.T) {
	t.Parallel()

	svc := renderer.New()

	t.Run("dotted path resolution", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "Hello {{user.profile.name}}, order {{order.id}} shipped")
		out := render(t, svc, tpl, map[string]any{
			"user":  map[string]any{"profile": map[string]any{"name": "Ada"}},
			"order": map[string]any{"id": "ord_42"},
		})
		assert.Equal(t, "Hello Ada, order ord_42 shipped", out.Body)
	})

	t.Run("unresolved path stays literal", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "Hello {{user.nmae}}")
		out := render(t, svc, tpl, map[string]any{
			"user": map[string]any{"name": "Ada"},
		})
		assert.Equal(t, "Hello {{user.nmae}}", out.Body)
	})

	t.Run("path through non-object stays literal", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "{{user.name.first}}")
		out := render(t, svc, tpl, map[string]any{
			"user": map[string]any{"name": "Ada"},
		})
		assert.Equal(t, "{{user.name.first}}", out.Body)
	})

	t.Run("unterminated tag stays literal", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "broken {{user.name")
		out := render(t, svc, tpl, map[string]any{
			"user": map[string]any{"name": "Ada"},
		})
		assert.Equal(t, "broken {{user.name", out.Body)
	})
}

func TestRenderConditionals(t *testing.T) {
	t.Parallel()

	svc := renderer.New()

	tests := []struct {
		name string
		vars map[string]any
		want string
	}{
		{"true bool", map[string]any{"vip": true, "name": "Ada"}, "Hi Ada, welcome back VIP!"},
		{"false bool", map[string]any{"vip": false, "name": "Ada"}, "Hi Ada,"},
		{"zero number is falsy", map[string]any{"vip": 0, "name": "Ada"}, "Hi Ada,"},
		{"empty string is falsy", map[string]any{"vip": "", "name": "Ada"}, "Hi Ada,"},
		{"non-empty string is truthy", map[string]any{"vip": "yes", "name": "Ada"}, "Hi Ada, welcome back VIP!"},
		{"empty array is falsy", map[string]any{"vip": []any{}, "name": "Ada"}, "Hi Ada,"},
		{"missing variable is falsy", map[string]any{"name": "Ada"}, "Hi Ada,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tpl := newTemplate(t, "Hi {{name}},{{#if vip}} welcome back VIP!{{/if}}")
			out := render(t, svc, tpl, tt.vars)
			assert.Equal(t, tt.want, out.Body)
		})
	}

	t.Run("nested if blocks", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "{{#if outer}}A{{#if inner}}B{{/if}}C{{/if}}")

		out := render(t, svc, tpl, map[string]any{"outer": true, "inner": true})
		assert.Equal(t, "ABC", out.Body)

		out = render(t, svc, tpl, map[string]any{"outer": true, "inner": false})
		assert.Equal(t, "AC", out.Body)

		out = render(t, svc, tpl, map[string]any{"outer": false, "inner": true})
		assert.Equal(t, "", out.Body)
	})

	t.Run("unclosed if stays literal", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "{{#if vip}}hello")
		out := render(t, svc, tpl, map[string]any{"vip": true})
		assert.Equal(t, "{{#if vip}}hello", out.Body)
	})
}

func TestRenderLoops(t *testing.T) {
	t.Parallel()

	svc := renderer.New()

	t.Run("iterates object elements with loop variables", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "{{#each items}}{{@index}}:{{name}}{{#if @last}}.{{/if}} {{/each}}")
		out := render(t, svc, tpl, map[string]any{
			"items": []any{
				map[string]any{"name": "one"},
				map[string]any{"name": "two"},
			},
		})
		assert.Equal(t, "0:one 1:two.", out.Body)
	})

	t.Run("scalar elements via this", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "{{#each tags}}[{{this}}]{{/each}}")
		out := render(t, svc, tpl, map[string]any{"tags": []any{"a", "b"}})
		assert.Equal(t, "[a][b]", out.Body)
	})

	t.Run("non-array renders empty", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "before{{#each items}}X{{/each}}after")
		out := render(t, svc, tpl, map[string]any{"items": "not-a-list"})
		assert.Equal(t, "beforeafter", out.Body)
	})

	t.Run("missing path renders empty", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "before{{#each items}}X{{/each}}after")
		out := render(t, svc, tpl, nil)
		assert.Equal(t, "beforeafter", out.Body)
	})

	t.Run("nested loops", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "{{#each groups}}{{label}}:{{#each members}}{{this}};{{/each}} {{/each}}")
		out := render(t, svc, tpl, map[string]any{
			"groups": []any{
				map[string]any{"label": "g1", "members": []any{"a", "b"}},
				map[string]any{"label": "g2", "members": []any{"c"}},
			},
		})
		assert.Equal(t, "g1:a;b; g2:c;", out.Body)
	})
}

func TestRenderFormat(t *testing.T) {
	t.Parallel()

	svc := renderer.New(renderer.WithTimezone("UTC"))
	when := time.Date(2026, time.March, 7, 14, 5, 9, 0, time.UTC)

	tests := []struct {
		name string
		body string
		vars map[string]any
		want string
	}{
		{"date full", `{{format when "YYYY-MM-DD HH:mm:ss"}}`, map[string]any{"when": when}, "2026-03-07 14:05:09"},
		{"date from rfc3339 string", `{{format when "DD/MM/YYYY"}}`, map[string]any{"when": "2026-03-07T14:05:09Z"}, "07/03/2026"},
		{"decimal grouping", `{{format total "decimal"}}`, map[string]any{"total": 1234.56}, "1,234.56"},
		{"percent", `{{format rate "percent"}}`, map[string]any{"rate": 0.85}, "85%"},
		{"uppercase", `{{format name "uppercase"}}`, map[string]any{"name": "ada"}, "ADA"},
		{"lowercase", `{{format name "lowercase"}}`, map[string]any{"name": "ADA"}, "ada"},
		{"capitalize", `{{format name "capitalize"}}`, map[string]any{"name": "ada lovelace"}, "Ada lovelace"},
		{"title", `{{format name "title"}}`, map[string]any{"name": "ada lovelace"}, "Ada Lovelace"},
		{"missing path stays literal", `{{format nope "decimal"}}`, map[string]any{}, `{{format nope "decimal"}}`},
		{"non-numeric value stays literal", `{{format name "decimal"}}`, map[string]any{"name": "ada"}, `{{format name "decimal"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tpl := newTemplate(t, tt.body)
			out := render(t, svc, tpl, tt.vars)
			assert.Equal(t, tt.want, out.Body)
		})
	}

	t.Run("currency includes amount", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, `{{format total "currency"}}`)
		out := render(t, svc, tpl, map[string]any{"total": 12.50})
		assert.Contains(t, out.Body, "12.50")
	})
}

func TestRenderSystemVariables(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)
	svc := renderer.New(
		renderer.WithClock(func() time.Time { return now }),
		renderer.WithLocale("en-US"),
		renderer.WithTimezone("UTC"),
	)

	tpl := newTemplate(t, `{{@templateName}} {{@locale}} {{@timezone}} {{format @now "YYYY-MM-DD"}}`)
	out := render(t, svc, tpl, nil)
	assert.Equal(t, "order-update en-US UTC 2026-01-15", out.Body)

	t.Run("template id matches", func(t *testing.T) {
		t.Parallel()

		idTpl := newTemplate(t, "{{@templateId}}")
		got := render(t, svc, idTpl, nil)
		assert.Equal(t, idTpl.ID(), got.Body)
	})
}

func TestRenderPostprocess(t *testing.T) {
	t.Parallel()

	svc := renderer.New()

	t.Run("html strips active content", func(t *testing.T) {
		t.Parallel()

		tpl, err := template.New("digest", notification.TypeReport, "ops@example.com")
		require.NoError(t, err)
		require.NoError(t, tpl.SetChannelTemplate(notification.ChannelEmail, template.ChannelTemplate{
			Subject: "Digest",
			Body:    `<p onclick="steal()">Hi {{name}}</p><script>alert(1)</script><iframe src="x"></iframe>`,
			Format:  template.FormatHTML,
			Enabled: true,
		}))

		out, err := svc.Render(context.Background(), renderer.Request{
			Template:  tpl,
			Channel:   notification.ChannelEmail,
			Variables: map[string]any{"name": "Ada"},
		})
		require.NoError(t, err)
		assert.Equal(t, "<p>Hi Ada</p>", out.Body)
	})

	t.Run("markdown subset", func(t *testing.T) {
		t.Parallel()

		tpl, err := template.New("digest", notification.TypeReport, "ops@example.com")
		require.NoError(t, err)
		require.NoError(t, tpl.SetChannelTemplate(notification.ChannelInApp, template.ChannelTemplate{
			Body:    "**{{name}}** has *3* new `alerts`\nsee dashboard",
			Format:  template.FormatMarkdown,
			Enabled: true,
		}))

		out, err := svc.Render(context.Background(), renderer.Request{
			Template:  tpl,
			Channel:   notification.ChannelInApp,
			Variables: map[string]any{"name": "Ada"},
		})
		require.NoError(t, err)
		assert.Equal(t, "<strong>Ada</strong> has <em>3</em> new <code>alerts</code><br>see dashboard", out.Body)
	})

	t.Run("text is trimmed", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "  padded {{name}}  ")
		out := render(t, svc, tpl, map[string]any{"name": "Ada"})
		assert.Equal(t, "padded Ada", out.Body)
	})
}

func TestRenderValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("nil template", func(t *testing.T) {
		t.Parallel()

		_, err := renderer.New().Render(ctx, renderer.Request{Channel: notification.ChannelInApp})
		assert.ErrorIs(t, err, renderer.ErrNilTemplate)
	})

	t.Run("inactive template", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "hello")
		tpl.Deactivate()

		_, err := renderer.New().Render(ctx, renderer.Request{Template: tpl, Channel: notification.ChannelInApp})
		assert.ErrorIs(t, err, template.ErrTemplateInactive)

		var rerr *renderer.RenderingError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, tpl.ID(), rerr.TemplateID)
		assert.Equal(t, notification.ChannelInApp, rerr.Channel)
	})

	t.Run("channel template missing", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "hello")
		_, err := renderer.New().Render(ctx, renderer.Request{Template: tpl, Channel: notification.ChannelSMS})
		assert.ErrorIs(t, err, template.ErrChannelTemplateNotFound)
	})

	t.Run("channel template disabled", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "hello")
		require.NoError(t, tpl.DisableChannel(notification.ChannelInApp))

		_, err := renderer.New().Render(ctx, renderer.Request{Template: tpl, Channel: notification.ChannelInApp})
		assert.ErrorIs(t, err, template.ErrChannelTemplateDisabled)
	})

	t.Run("missing required variable", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "Hi {{userName}}", template.WithVariables(template.Variable{
			Name:     "userName",
			Type:     template.VariableString,
			Required: true,
		}))

		_, err := renderer.New().Render(ctx, renderer.Request{Template: tpl, Channel: notification.ChannelInApp})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "userName")
	})

	t.Run("invalid timezone", func(t *testing.T) {
		t.Parallel()

		tpl := newTemplate(t, "hello")
		_, err := renderer.New().Render(ctx, renderer.Request{
			Template: tpl,
			Channel:  notification.ChannelInApp,
			Timezone: "Mars/Olympus",
		})
		assert.ErrorIs(t, err, renderer.ErrInvalidTimezone)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		tpl := newTemplate(t, "hello")
		_, err := renderer.New().Render(cancelled, renderer.Request{Template: tpl, Channel: notification.ChannelInApp})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRenderCache(t *testing.T) {
	t.Parallel()

	t.Run("repeat render served from cache", func(t *testing.T) {
		t.Parallel()

		// The clock advances between calls. A cache hit returns the first
		// result with the original @now stamp; a re-evaluation would not.
		now := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)
		svc := renderer.New(renderer.WithClock(func() time.Time { return now }))

		tpl := newTemplate(t, `{{format @now "HH:mm:ss"}}`)
		first := render(t, svc, tpl, map[string]any{"k": "v"})
		assert.Equal(t, "10:00:00", first.Body)

		now = now.Add(time.Minute)
		second := render(t, svc, tpl, map[string]any{"k": "v"})
		assert.Equal(t, first, second)
	})

	t.Run("expired entry re-renders", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)
		svc := renderer.New(renderer.WithClock(func() time.Time { return now }))

		tpl := newTemplate(t, `{{format @now "HH:mm:ss"}}`)
		first := render(t, svc, tpl, nil)
		assert.Equal(t, "10:00:00", first.Body)

		now = now.Add(6 * time.Minute)
		second := render(t, svc, tpl, nil)
		assert.Equal(t, "10:06:00", second.Body)
	})

	t.Run("different variables miss the cache", func(t *testing.T) {
		t.Parallel()

		svc := renderer.New()
		tpl := newTemplate(t, "Hi {{name}}")

		assert.Equal(t, "Hi Ada", render(t, svc, tpl, map[string]any{"name": "Ada"}).Body)
		assert.Equal(t, "Hi Grace", render(t, svc, tpl, map[string]any{"name": "Grace"}).Body)
	})

	t.Run("version bump misses the cache", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)
		svc := renderer.New(renderer.WithClock(func() time.Time { return now }))

		tpl := newTemplate(t, "v{{n}}")
		assert.Equal(t, "v1", render(t, svc, tpl, map[string]any{"n": 1}).Body)

		_, err := tpl.CreateVersion("ops@example.com", "tweak copy")
		require.NoError(t, err)
		require.NoError(t, tpl.SetChannelTemplate(notification.ChannelInApp, template.ChannelTemplate{
			Body:    "version two: {{n}}",
			Format:  template.FormatText,
			Enabled: true,
		}))

		assert.Equal(t, "version two: 1", render(t, svc, tpl, map[string]any{"n": 1}).Body)
	})
}

func TestRenderBulk(t *testing.T) {
	t.Parallel()

	svc := renderer.New(renderer.WithBulkConcurrency(4))
	tpl := newTemplate(t, "Hi {{name}}")

	reqs := make([]renderer.Request, 0, 25)
	for range 12 {
		reqs = append(reqs,
			renderer.Request{Template: tpl, Channel: notification.ChannelInApp, Variables: map[string]any{"name": "Ada"}},
			renderer.Request{Template: nil, Channel: notification.ChannelInApp},
		)
	}
	reqs = append(reqs, renderer.Request{Template: tpl, Channel: notification.ChannelSMS})

	results := svc.RenderBulk(context.Background(), reqs)
	require.Len(t, results, len(reqs))

	for i, res := range results {
		assert.Equal(t, i, res.Index)
		switch {
		case i == len(reqs)-1:
			assert.ErrorIs(t, res.Err, template.ErrChannelTemplateNotFound)
		case i%2 == 0:
			require.NoError(t, res.Err)
			assert.Equal(t, "Hi Ada", res.Output.Body)
		default:
			assert.ErrorIs(t, res.Err, renderer.ErrNilTemplate)
		}
	}
}

func TestPreview(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.January, 15, 10, 0, 0, 0, time.UTC)
	svc := renderer.New(renderer.WithClock(func() time.Time { return now }))

	tpl, err := template.New("invoice", notification.TypeReport, "ops@example.com",
		template.WithVariables(
			template.Variable{Name: "customer", Type: template.VariableString, Required: true},
			template.Variable{Name: "amount", Type: template.VariableNumber, Required: true},
			template.Variable{Name: "overdue", Type: template.VariableBoolean, Required: true},
			template.Variable{Name: "plan", Type: template.VariableString, Required: true, Constraints: &template.Constraints{Options: []string{"pro", "free"}}},
			template.Variable{Name: "region", Type: template.VariableString, DefaultValue: "eu-west"},
		),
	)
	require.NoError(t, err)
	require.NoError(t, tpl.SetChannelTemplate(notification.ChannelInApp, template.ChannelTemplate{
		Body:    "{{customer}} owes {{amount}} on {{plan}} in {{region}}{{#if overdue}} (overdue){{/if}}",
		Format:  template.FormatText,
		Enabled: true,
	}))

	out, err := svc.Preview(context.Background(), tpl, notification.ChannelInApp, map[string]any{"customer": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Acme owes 42 on pro in eu-west (overdue)", out.Body)
}
