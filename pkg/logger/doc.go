// Package logger provides a context-aware wrapper around Go's slog package
// adding functional options for configuration, helper attribute constructors,
// and transparent injection of values stored in context.Context.
//
// The package standardises structured logging across the notification
// pipeline through a single factory, New, that creates a *slog.Logger
// configured by a set of Option functions. These options allow you to:
//
//   - Select an output format (text or json)
//   - Set the minimum log level
//   - Supply default slog.Attr values applied to every record
//   - Register ContextExtractor callbacks that inject attributes pulled from
//     a context value (for example a user id) every time Handle is invoked.
//
// # Architecture
//
// New picks the concrete slog.Handler implementation, slog.NewTextHandler or
// slog.NewJSONHandler, based on the configured Format, then wraps it with
// LogHandlerDecorator which executes any registered ContextExtractor
// callbacks before delegating to the underlying handler.
//
// Helper constructors such as Error, UserID, NotificationID, TemplateID and
// Channel live in attr.go and return commonly-used slog.Attr instances to
// keep attribute naming consistent across the codebase.
//
// # Usage
//
//	import "github.com/dmitrymomot/notifykit/pkg/logger"
//
//	func main() {
//	    log := logger.New(
//	        logger.WithDevelopment("notification-service"),
//	        logger.WithContextValue("user_id", ctxKeyUserID),
//	    )
//	    logger.SetAsDefault(log)
//
//	    log.InfoContext(ctx, "notification delivered",
//	        logger.NotificationID(id),
//	        logger.Duration(time.Since(start)),
//	    )
//	}
//
// # Error Handling
//
// Helper functions Error and Errors produce attributes only when the
// supplied error value is non-nil allowing calls like:
//
//	log.Info("operation finished", logger.Error(err))
//
// without an additional nil check.
package logger
