// Package renderer implements the template-rendering engine: a small text
// grammar evaluated over a template's channel content and a variable
// context, with per-format post-processing and a TTL result cache.
//
// # Grammar
//
// On top of the template package's plain substitution, the renderer
// understands four constructs, evaluated left to right:
//
//	{{a.b.c}}                  dotted-path lookup; unresolved paths stay literal
//	{{#if cond}}...{{/if}}     conditional block with JS-style truthiness
//	{{#each items}}...{{/each}} loop block binding element fields plus
//	                           @index, @first, @last; non-arrays render empty
//	{{format path "spec"}}     date (YYYY MM DD HH mm ss), number
//	                           (currency|percent|decimal) and string
//	                           (uppercase|lowercase|capitalize|title) formatting
//
// The context a template is evaluated against is the supplied variables,
// backfilled with the template's declared defaults, plus the system
// variables @now, @templateId, @templateName, @locale and @timezone.
//
// The token syntax, truthiness rules, and format specifiers are part of the
// persisted template format and must stay stable across releases.
//
// # Post-processing
//
// Output is post-processed by format: html passes through a minimal
// sanitizer stripping script and iframe tags and inline event handlers,
// markdown converts a small subset (bold, italic, code, line breaks), and
// text is trimmed.
//
// # Caching and bulk rendering
//
// Render results are cached for five minutes, keyed by template id, version,
// channel, and a hash of the variables, locale, and timezone. RenderBulk
// processes many requests with bounded concurrency, converting every
// per-item failure into a RenderingError instead of aborting the batch.
package renderer
