package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/cutm/results/core"
	"github.com/cutm/results/core/result"
)

var (
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "invalid credentials or email domain")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
	errRollMismatch         = echo.NewHTTPError(http.StatusBadRequest, "roll in body does not match the URL")
)

// fieldErrors returns the field errors carried by a validation failure, if err is one.
func (s *Server) fieldErrors(err error) ([]core.FieldError, bool) {
	switch origErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		return core.TranslateFieldErrors(origErr, s.translator), true
	case *core.ValidationError:
		if len(origErr.Fields) == 0 && origErr.Err != nil {
			return []core.FieldError{{Error: origErr.Err.Error()}}, true
		}
		return origErr.Fields, true
	}
	return nil, false
}

// invalidInputMessage is the flash shown when a submitted student form is rejected.
func (s *Server) invalidInputMessage(err error) (string, bool) {
	if vErr, ok := errors.Cause(err).(*core.ValidationError); ok && vErr.Err == result.ErrInvalidMarks {
		return errInvalidMarksMsg, true
	}
	flds, ok := s.fieldErrors(err)
	if !ok {
		return "", false
	}
	msgs := make([]string, 0, len(flds))
	for _, fld := range flds {
		if fld.Field == "" {
			msgs = append(msgs, fld.Error)
			continue
		}
		msgs = append(msgs, fld.Field+": "+fld.Error)
	}
	return "Input Error: " + strings.Join(msgs, "; "), true
}

func isAPIRequest(ctx echo.Context) bool {
	p := ctx.Request().URL.Path
	return p == "/v1" || strings.HasPrefix(p, "/v1/")
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func (s *Server) newAppHTTPErrorHandler(signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
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
		case validator.ValidationErrors, *core.ValidationError:
			flds, _ := s.fieldErrors(origErr)
			fldErrs := make(map[string]string, len(flds))
			for _, fErr := range flds {
				fldErrs[fErr.Field] = fErr.Error
			}
			code = http.StatusBadRequest
			message = fldErrs
		default:
			if origErr == result.ErrNotFound {
				code = http.StatusNotFound
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			s.logger.Error(msg, errors.Wrap(err, msg), getSession(ctx).Faculty)

			if s.conf.Debug {
				message = err.Error()
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else if isAPIRequest(ctx) {
			if m, ok := message.(string); ok {
				message = echo.Map{"error": m}
			}
			err = ctx.JSON(code, message)
		} else {
			err = s.renderErrorPage(ctx, code, message)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

func (s *Server) renderErrorPage(ctx echo.Context, code int, message interface{}) error {
	msg, ok := message.(string)
	if !ok {
		msg = http.StatusText(code)
	}
	return s.render(ctx, code, "error", http.StatusText(code), echo.Map{"Code": code, "Message": msg})
}
