package echoapi

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/cutm/results/core/faculty"
	"github.com/cutm/results/core/result"
)

// page is the data every HTML page is rendered with.
type page struct {
	Title   string
	AppName string
	Session Session
	Flashes []Flash
	Data    interface{}
}

type recordForm struct {
	Heading      string
	Action       string
	Submit       string
	Back         string
	RollEditable bool
	Draft        result.Draft
}

func (s *Server) render(ctx echo.Context, code int, name, title string, data interface{}) error {
	return ctx.Render(code, name, page{
		Title:   title,
		AppName: s.conf.AppName,
		Session: getSession(ctx),
		Flashes: popFlashes(ctx),
		Data:    data,
	})
}

func seeOther(ctx echo.Context, to string) error {
	return ctx.Redirect(http.StatusSeeOther, to)
}

func editPath(roll string) string {
	return "/edit/" + url.PathEscape(roll)
}

func (s *Server) home(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, "home", "Student Results", nil)
}

func (s *Server) loginPage(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, "login", "Faculty Login", echo.Map{"Domain": s.conf.Auth.FacultyDomain})
}

func (s *Server) login(ctx echo.Context) error {
	id, err := faculty.Authenticate(ctx.FormValue("email"), s.conf.Auth.FacultyDomain)
	if err != nil {
		addFlash(ctx, flashDanger, fmt.Sprintf(
			"Invalid credentials or email domain. Access is restricted to %s faculty emails only.", s.conf.Auth.FacultyDomain))
		return seeOther(ctx, "/login")
	}

	token, expires, err := NewSessionToken(s.conf, id)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	s.setSessionCookie(ctx, token, expires)
	s.logger.Info(fmt.Sprintf("faculty %s logged in", id), id)

	addFlash(ctx, flashSuccess, fmt.Sprintf("Welcome, Faculty %s. Login successful! Please add student data.", id))
	return seeOther(ctx, "/add")
}

func (s *Server) logout(ctx echo.Context) error {
	s.clearSessionCookie(ctx)
	setSession(ctx, Session{})
	addFlash(ctx, flashInfo, "You have been securely logged out.")
	return seeOther(ctx, "/home")
}

func (s *Server) addPage(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, "add_count", "Add Student", echo.Map{"Max": maxSubjects})
}

func (s *Server) addSubjects(ctx echo.Context) error {
	count, err := parseSubjectCount(ctx.FormValue("num_subjects"))
	if err != nil {
		addFlash(ctx, flashDanger, err.Error())
		return seeOther(ctx, "/add")
	}
	return s.render(ctx, http.StatusOK, "record_form", "Add Student", recordForm{
		Heading:      "Enter Student Details & Subjects",
		Action:       "/submit_student",
		Submit:       "Add Student",
		Back:         "/home",
		RollEditable: true,
		Draft:        blankDraft(count),
	})
}

func (s *Server) submitStudent(ctx echo.Context) error {
	count, err := parseSubjectCount(ctx.FormValue("num_subjects"))
	if err != nil {
		addFlash(ctx, flashDanger, err.Error())
		return seeOther(ctx, "/add")
	}
	d, err := bindDraft(ctx, count)
	if err != nil {
		addFlash(ctx, flashDanger, err.Error())
		return seeOther(ctx, "/add")
	}

	by := getSession(ctx).Faculty
	rec, created, err := s.recordSvc.Upsert(ctx.Request().Context(), d, by)
	if err != nil {
		if msg, ok := s.invalidInputMessage(err); ok {
			addFlash(ctx, flashDanger, msg)
			return seeOther(ctx, "/add")
		}
		return errors.Wrap(err, "saving student record")
	}

	if created {
		addFlash(ctx, flashSuccess, fmt.Sprintf("New student %s added successfully.", rec.Name))
	} else {
		addFlash(ctx, flashSuccess, fmt.Sprintf("Results for Roll No. %s updated successfully.", rec.Roll))
	}
	return seeOther(ctx, "/results")
}

// findForEdit loads the record being edited; a missing roll flashes and sends the user back to the results.
func (s *Server) findForEdit(ctx echo.Context) (result.Record, bool, error) {
	roll := ctx.Param("roll")
	rec, err := s.recordSvc.Find(ctx.Request().Context(), roll)
	if err != nil {
		if err == result.ErrNotFound {
			addFlash(ctx, flashDanger, fmt.Sprintf("Student with Roll No. %s not found.", roll))
			return result.Record{}, false, seeOther(ctx, "/results")
		}
		return result.Record{}, false, errors.Wrap(err, "finding student record")
	}
	return rec, true, nil
}

func (s *Server) editPage(ctx echo.Context) error {
	rec, found, err := s.findForEdit(ctx)
	if !found {
		return err
	}
	return s.render(ctx, http.StatusOK, "record_form", "Edit Student", recordForm{
		Heading: "Edit Student / Marks for Roll: " + rec.Roll,
		Action:  editPath(rec.Roll),
		Submit:  "Update Student",
		Back:    "/results",
		Draft:   draftOf(rec),
	})
}

func (s *Server) editStudent(ctx echo.Context) error {
	rec, found, err := s.findForEdit(ctx)
	if !found {
		return err
	}

	// an edit keeps the stored number of subjects
	d, err := bindDraft(ctx, len(rec.Subjects))
	if err != nil {
		addFlash(ctx, flashDanger, err.Error())
		return seeOther(ctx, editPath(rec.Roll))
	}
	d.Roll = rec.Roll

	if _, _, err = s.recordSvc.Upsert(ctx.Request().Context(), d, getSession(ctx).Faculty); err != nil {
		if msg, ok := s.invalidInputMessage(err); ok {
			addFlash(ctx, flashDanger, msg)
			return seeOther(ctx, editPath(rec.Roll))
		}
		return errors.Wrap(err, "updating student record")
	}

	addFlash(ctx, flashSuccess, fmt.Sprintf("Results for Roll No. %s updated successfully.", rec.Roll))
	return seeOther(ctx, "/results")
}

func (s *Server) restart(ctx echo.Context) error {
	if err := s.recordSvc.ClearAll(ctx.Request().Context(), getSession(ctx).Faculty); err != nil {
		return errors.Wrap(err, "clearing student records")
	}
	addFlash(ctx, flashDanger, "WARNING: All student records have been cleared via Emergency Restart.")
	return seeOther(ctx, "/results")
}

func (s *Server) results(ctx echo.Context) error {
	recs, err := s.recordSvc.ListAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing student records")
	}
	return s.render(ctx, http.StatusOK, "results", "Student Results", echo.Map{"Records": recs})
}
