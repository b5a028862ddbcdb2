package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/mansa/core"
	"github.com/trezcool/mansa/core/user"
)

var (
	errUnauthorized    = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errInvalidUser     = echo.NewHTTPError(http.StatusUnauthorized, "invalid or inactive user")
	errAccountInactive = echo.NewHTTPError(http.StatusForbidden, user.ErrAccountInactive.Error())
	errAccountBlocked  = echo.NewHTTPError(http.StatusForbidden, user.ErrAccountBlocked.Error())
	errRefreshExpired  = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden   = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errTooManyRequests = echo.NewHTTPError(http.StatusTooManyRequests, "too many requests from this IP, please try again later")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			// the JWT middleware returns copies of its sentinel errors
			if origErr.Message == middleware.ErrJWTMissing.Message || origErr.Message == middleware.ErrJWTInvalid.Message {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case *echo.BindingError:
			code = http.StatusBadRequest
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.NotFoundError:
			code = http.StatusNotFound
			message = origErr.Error()
		case *core.PermissionError:
			code = http.StatusForbidden
			message = origErr.Error()
		default:
			switch origErr {
			case user.ErrInvalidCredentials:
				code = http.StatusUnauthorized
				message = origErr.Error()
			case user.ErrAccountInactive, user.ErrAccountBlocked:
				code = http.StatusForbidden
				message = origErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				usr := contextUser(ctx)
				logger.Error(msg, errors.Wrap(err, msg), usr, map[string]interface{}{
					"method": ctx.Request().Method,
					"path":   ctx.Path(),
				})

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
				if ctx.Echo().Debug {
					message = err.Error()
				}
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		} else if m, ok := message.(map[string]string); ok {
			message = echo.Map{"error": "validation failed", "fields": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				logger.Error("sending error response", err)
			}
		}
	}
}
