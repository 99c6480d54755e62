package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/dayflow/hrdata"
	"github.com/rs/zerolog/log"
)

const contentTypeHTML = "text/html; charset=utf-8"

//go:embed templates/*
var templateFiles embed.FS

// Page templates; each is parsed together with the shared layouts
const (
	pageLogin              = "login.html"
	pageSignup             = "signup.html"
	pageChangePassword     = "change_password.html"
	pageLoading            = "loading.html"
	pageNotFound           = "not_found.html"
	pageHRDashboard        = "hr_dashboard.html"
	pageHRAttendance       = "hr_attendance.html"
	pageHREmployee         = "hr_employee.html"
	pageProfile            = "profile.html"
	pageEmployeeDashboard  = "employee_dashboard.html"
	pageEmployeeAttendance = "employee_attendance.html"

	layoutsFile = "layouts.html"
)

var pageFiles = []string{
	pageLogin,
	pageSignup,
	pageChangePassword,
	pageLoading,
	pageNotFound,
	pageHRDashboard,
	pageHRAttendance,
	pageHREmployee,
	pageProfile,
	pageEmployeeDashboard,
	pageEmployeeAttendance,
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layouts
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), layoutsFile, name)
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("Mon, 2 Jan 2006")
	},
	"clock": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format("15:04")
	},
	"hours": func(h float64) string {
		return fmt.Sprintf("%.2fh", h)
	},
	"money": func(v float64) string {
		return fmt.Sprintf("$%.2f", v)
	},
	"str": func(s *string) string {
		if s == nil || *s == "" {
			return "-"
		}
		return *s
	},
	"lower": strings.ToLower,
	"leaveTypes": func() []hrdata.LeaveType {
		return hrdata.LeaveTypes
	},
}

// pageData is the model every page template renders
type pageData struct {
	AppName string
	Title   string
	Nav     *navData
	Error   string
	Notice  string
	Data    any
}

type navData struct {
	Name      string
	Initials  string
	Email     string
	RoleLabel string
	IsHR      bool
	Path      string
}

// render executes a page into a buffer first, so a template error never leaves a
// half-written response behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, status int, data pageData) {
	tmpl, ok := s.pages[page]
	if !ok {
		log.Error().Str("page", page).Msg("Unknown page template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	data.AppName = s.config.GetAppName()
	query := r.URL.Query()
	if data.Error == "" {
		data.Error = query.Get("error")
	}
	if data.Notice == "" {
		data.Notice = query.Get("notice")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Err(err).Str("page", page).Msg("Failed to render template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderFragment executes a named template of a page, for htmx partial swaps
func (s *Server) renderFragment(w http.ResponseWriter, page, name string, data any) {
	tmpl, ok := s.pages[page]
	if !ok {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Err(err).Str("page", page).Str("fragment", name).Msg("Failed to render fragment")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	_, _ = buf.WriteTo(w)
}
