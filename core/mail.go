package core

import (
	"bytes"
	"embed"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

var (
	//go:embed templates/email/*.txt
	emailFS embed.FS

	templates    map[string]*texttmpl.Template
	templatesErr error
	tmplInit     sync.Once
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// AddressList turns plain addresses into recipients, skipping blanks and invalid ones.
func AddressList(addrs ...string) []mail.Address {
	list := make([]mail.Address, 0, len(addrs))
	for _, a := range addrs {
		a = CleanString(a)
		if a == "" {
			continue
		}
		if addr, err := mail.ParseAddress(a); err == nil {
			list = append(list, *addr)
		}
	}
	return list
}

func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	tmplInit.Do(parseTemplates) // only execute once during first render
	if templatesErr != nil {
		return templatesErr
	}
	tmpl, ok := templates[m.TemplateName]
	if !ok {
		return errors.Errorf("email template %q not found", m.TemplateName)
	}

	var buff bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buff, "_base.txt", m.TemplateData); err != nil {
		return errors.Wrapf(err, "executing email template %q", m.TemplateName)
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To)+len(m.Cc)+len(m.Bcc) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" }

func parseTemplates() {
	templates = make(map[string]*texttmpl.Template)

	root := "templates/email"
	fps, err := fs.Glob(emailFS, path.Join(root, "*.txt"))
	if err != nil {
		templatesErr = errors.Wrap(err, "listing email templates")
		return
	}

	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		tmpl, err := texttmpl.New(fname).Option("missingkey=error").
			ParseFS(emailFS, path.Join(root, "_base.txt"), fp)
		if err != nil {
			templatesErr = errors.Wrapf(err, "parsing email template %s", fname)
			return
		}
		templates[strings.TrimSuffix(fname, ".txt")] = tmpl
	}
}
