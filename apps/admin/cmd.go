package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/cutm/results/core/faculty"
	"github.com/cutm/results/core/result"
	"github.com/cutm/results/storage/database"
)

var (
	isTerminalFunc = term.IsTerminal        // mockable
	migrateFunc    = database.RunMigrations // mockable

	errHelp         = errors.New("help provided")
	errNoDatabase   = errors.New("migrations need the postgres engine")
	errNotConfirmed = errors.New("clear aborted")
	errNotTerminal  = errors.New("stdin is not a terminal: pass -yes to clear without confirmation")
)

type commandLine struct {
	db  *sqlx.DB // nil with the in-memory engine
	svc *result.Service
	in  io.Reader
	out io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]       - run a goose command (up, down, status, ...) on the database")
	_, _ = fmt.Fprintln(cli.out, "  list                         - list every student record")
	_, _ = fmt.Fprintln(cli.out, "  show -roll ROLL              - show one student record with its subjects")
	_, _ = fmt.Fprintln(cli.out, "  clear [-yes] [-by EMAIL]     - delete ALL student records")
	_, _ = fmt.Fprintln(cli.out, "  grade -percentage PERCENTAGE - print the grade of a percentage")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	showCmd := flag.NewFlagSet("show", flag.ContinueOnError)
	showRoll := showCmd.String("roll", "", "The student's roll number.")

	clearCmd := flag.NewFlagSet("clear", flag.ContinueOnError)
	clearYes := clearCmd.Bool("yes", false, "Do not ask for confirmation.")
	clearBy := clearCmd.String("by", os.Getenv("USER"), "Who is clearing the records, for the audit log.")

	gradeCmd := flag.NewFlagSet("grade", flag.ContinueOnError)
	gradePct := gradeCmd.String("percentage", "", "The percentage to grade, e.g. 84.99.")

	for _, fs := range []*flag.FlagSet{showCmd, clearCmd, gradeCmd} {
		fs.SetOutput(cli.out)
	}

	ctx := context.Background()

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "list":
		return cli.list(ctx)
	case "show":
		if err := showCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *showRoll == "" {
			showCmd.Usage()
			return errHelp
		}
		return cli.show(ctx, *showRoll)
	case "clear":
		if err := clearCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.clear(ctx, *clearYes, *clearBy)
	case "grade":
		if err := gradeCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		pct, err := strconv.ParseFloat(strings.TrimSpace(*gradePct), 64)
		if err != nil {
			gradeCmd.Usage()
			return errHelp
		}
		_, _ = fmt.Fprintf(cli.out, "%s%% -> %s\n", strconv.FormatFloat(pct, 'f', -1, 64), result.GradeFor(pct))
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	return migrateFunc(cli.db, args[0], args[1:]...)
}

func (cli *commandLine) list(ctx context.Context) error {
	recs, err := cli.svc.ListAll(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tROLL\tNAME\tBRANCH\tSECTION\tYEAR\tSUBJECTS\tPERCENTAGE\tGRADE")
	for i, rec := range recs {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			i+1, rec.Roll, rec.Name, rec.Branch, rec.Section, rec.Year, len(rec.Subjects),
			strconv.FormatFloat(rec.Percentage, 'f', -1, 64), rec.Grade)
	}
	if err = w.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "%d record(s)\n", len(recs))
	return nil
}

func (cli *commandLine) show(ctx context.Context, roll string) error {
	rec, err := cli.svc.Find(ctx, roll)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cli.out, "Roll:       %s\n", rec.Roll)
	_, _ = fmt.Fprintf(cli.out, "Name:       %s\n", rec.Name)
	_, _ = fmt.Fprintf(cli.out, "Class:      %s / %s / year %s\n", rec.Branch, rec.Section, rec.Year)
	_, _ = fmt.Fprintf(cli.out, "Percentage: %s%% (%s)\n", strconv.FormatFloat(rec.Percentage, 'f', -1, 64), rec.Grade)
	if rec.UpdatedBy != "" {
		_, _ = fmt.Fprintf(cli.out, "Updated:    %s by %s\n", rec.UpdatedAt.Format("2006-01-02 15:04"), rec.UpdatedBy)
	}

	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tSUBJECT\tOBTAINED\tTOTAL")
	for i, sub := range rec.Subjects {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", i+1, sub.Name, sub.Obtained, sub.Total)
	}
	return w.Flush()
}

func (cli *commandLine) clear(ctx context.Context, yes bool, by string) error {
	if !yes {
		if !isTerminalFunc(int(os.Stdin.Fd())) {
			return errNotTerminal
		}
		_, _ = fmt.Fprint(cli.out, "This permanently deletes ALL student records. Type 'yes' to continue: ")
		answer, err := bufio.NewReader(cli.in).ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
			return errNotConfirmed
		}
	}

	if err := cli.svc.ClearAll(ctx, faculty.Identity{Email: strings.TrimSpace(by)}); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cli.out, "All student records cleared.")
	return nil
}
