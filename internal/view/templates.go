package view

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/eresidence/eresidence/internal/authz"
	"github.com/eresidence/eresidence/internal/shared"
	"github.com/eresidence/eresidence/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates. Role is
// advisory only, for show/hide decisions; the server gates stay
// authoritative.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Role        authz.RoleID
	Data        any
}

// NewEngine parses templates at build-time. The ruleset holder backs
// the template "can" helper, so menus reflect role changes on the next
// render.
func NewEngine(rules *authz.RulesetHolder) (*Engine, error) {
	if rules == nil {
		rules = authz.NewRulesetHolder(nil)
	}
	printer := message.NewPrinter(language.Indonesian)
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"rupiah": func(amount int64) string {
			return printer.Sprintf("Rp %d", amount)
		},
		"can": func(role authz.RoleID, capability string) bool {
			return rules.Rules().HasCapability(role, authz.Capability(capability))
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

// RenderRequest renders with the request's resolved role filled in, so
// the "can" helper sees the same role the gates used.
func (e *Engine) RenderRequest(w http.ResponseWriter, r *http.Request, name string, data TemplateData) error {
	if role, ok := authz.RoleFromContext(r.Context()); ok {
		data.Role = role
	} else {
		data.Role = authz.RoleWarga
	}
	if data.CSRFToken == "" {
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			data.CSRFToken = sess.Get(shared.CSRFSessionKey)
		}
	}
	return e.Render(w, name, data)
}
