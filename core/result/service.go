package result

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/cutm/results/core"
	"github.com/cutm/results/core/faculty"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("student record not found")
)

type (
	// Repository stores Records in display order: new rolls are appended, known rolls replaced in place.
	Repository interface {
		// UpsertRecord replaces the record with the same Roll, keeping its ID, CreatedAt and position,
		// or appends rec. It reports whether rec was created.
		UpsertRecord(ctx context.Context, rec Record) (Record, bool, error)
		GetRecord(ctx context.Context, roll string) (Record, error)
		QueryAllRecords(ctx context.Context) ([]Record, error)
		// DeleteAllRecords removes every record and returns how many there were.
		DeleteAllRecords(ctx context.Context) (int, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
		mailSvc  core.EmailService
		logger   core.Logger
		conf     *core.Config
	}
)

func NewService(
	repo Repository,
	validate *validator.Validate,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:     repo,
		validate: validate,
		mailSvc:  mailSvc,
		logger:   logger,
		conf:     conf,
	}
}

// Upsert validates d, computes its percentage and grade, then creates or replaces the record with d.Roll.
// Nothing is written unless every check passes.
func (svc *Service) Upsert(ctx context.Context, d Draft, by faculty.Identity) (Record, bool, error) {
	d.Clean()

	sum, err := Aggregate(d.Subjects)
	if err != nil {
		return Record{}, false, err
	}
	if err = d.Validate(svc.validate); err != nil {
		return Record{}, false, err
	}

	now := nowFunc().UTC()
	rec := Record{
		Roll:       d.Roll,
		Name:       d.Name,
		Branch:     d.Branch,
		Section:    d.Section,
		Year:       d.Year,
		Subjects:   d.Subjects,
		Percentage: sum.Percentage,
		Grade:      sum.Grade,
		UpdatedBy:  by.Email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	rec, created, err := svc.repo.UpsertRecord(ctx, rec)
	if err != nil {
		return Record{}, false, pkgerrors.Wrap(err, "upserting record")
	}
	return rec, created, nil
}

func (svc *Service) Find(ctx context.Context, roll string) (Record, error) {
	rec, err := svc.repo.GetRecord(ctx, core.CleanString(roll))
	if err != nil {
		if err == ErrNotFound {
			return Record{}, err
		}
		return Record{}, pkgerrors.Wrap(err, "getting record")
	}
	return rec, nil
}

func (svc *Service) ListAll(ctx context.Context) ([]Record, error) {
	recs, err := svc.repo.QueryAllRecords(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying records")
	}
	return recs, nil
}

// ClearAll irreversibly removes every record, then reports who did it.
func (svc *Service) ClearAll(ctx context.Context, by faculty.Identity) error {
	count, err := svc.repo.DeleteAllRecords(ctx)
	if err != nil {
		return pkgerrors.Wrap(err, "deleting records")
	}

	clearedAt := nowFunc().UTC()
	svc.logger.Warn(fmt.Sprintf("%d student record(s) cleared by %s", count, by), by)

	recipients := core.AddressList(svc.conf.Email.ClearAllRecipients...)
	if len(recipients) > 0 {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           recipients,
			Subject:      "Student records cleared",
			TemplateName: "records_cleared",
			TemplateData: map[string]interface{}{
				"AppName":   svc.conf.AppName,
				"Count":     count,
				"ClearedBy": by.String(),
				"ClearedAt": clearedAt,
			},
		})
	}
	return nil
}
