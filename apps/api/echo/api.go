package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cutm/results/core"
	"github.com/cutm/results/core/faculty"
	"github.com/cutm/results/core/result"
)

type (
	loginInput struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password"` // ignored
	}

	loginResult struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}

	aggregateInput struct {
		Subjects []result.SubjectScore `json:"subjects"`
	}

	recordResult struct {
		Record  result.Record `json:"record"`
		Created bool          `json:"created"`
	}
)

func (s *Server) apiLogin(ctx echo.Context) error {
	var in loginInput
	if err := ctx.Bind(&in); err != nil {
		return err
	}
	if err := ctx.Validate(in); err != nil {
		return err
	}

	id, err := faculty.Authenticate(in.Email, s.conf.Auth.FacultyDomain)
	if err != nil {
		return errAuthenticationFailed
	}
	token, expires, err := NewSessionToken(s.conf, id)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	s.logger.Info(fmt.Sprintf("faculty %s logged in (api)", id), id)
	return ctx.JSON(http.StatusOK, loginResult{Token: token, ExpiresAt: expires.UTC()})
}

func (s *Server) apiAggregate(ctx echo.Context) error {
	var in aggregateInput
	if err := ctx.Bind(&in); err != nil {
		return err
	}
	sum, err := result.Aggregate(in.Subjects)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (s *Server) apiListRecords(ctx echo.Context) error {
	recs, err := s.recordSvc.ListAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing student records")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (s *Server) apiGetRecord(ctx echo.Context) error {
	rec, err := s.recordSvc.Find(ctx.Request().Context(), ctx.Param("roll"))
	if err != nil {
		if err == result.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding student record")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (s *Server) apiPutRecord(ctx echo.Context) error {
	var d result.Draft
	if err := ctx.Bind(&d); err != nil {
		return err
	}
	roll := core.CleanString(ctx.Param("roll"))
	if body := core.CleanString(d.Roll); body != "" && body != roll {
		return errRollMismatch
	}
	d.Roll = roll

	rec, created, err := s.recordSvc.Upsert(ctx.Request().Context(), d, getSession(ctx).Faculty)
	if err != nil {
		return err
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, recordResult{Record: rec, Created: created})
}

func (s *Server) apiClearRecords(ctx echo.Context) error {
	if err := s.recordSvc.ClearAll(ctx.Request().Context(), getSession(ctx).Faculty); err != nil {
		return errors.Wrap(err, "clearing student records")
	}
	return ctx.NoContent(http.StatusNoContent)
}
