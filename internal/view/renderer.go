package view

import (
	"embed"
	"fmt"
	"html/template"
	"math"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names accepted by Renderer.Instance
const (
	PageHome         = "home"
	PageProducts     = "products"
	PageProduct      = "product"
	PageAdmin        = "admin"
	PageAdminReviews = "admin_reviews"
	PageAdminAnalyze = "admin_analyze"
	PageSignup       = "signup"
	PageLogin        = "login"
	PageError        = "error"
)

var pageNames = []string{
	PageHome,
	PageProducts,
	PageProduct,
	PageAdmin,
	PageAdminReviews,
	PageAdminAnalyze,
	PageSignup,
	PageLogin,
	PageError,
}

// PageData holds everything a page template can show
type PageData struct {
	Title     string
	RequestID string

	// Visitor
	User     *shopapi.User
	LoggedIn bool
	UserID   string
	IsAdmin  bool

	Notice string
	Error  string

	Products []shopapi.Product
	Product  *shopapi.Product
	Reviews  []shopapi.Review
	HasMore  bool
	Loading  bool

	Analysis      *shopapi.AnalysisResult
	AnalysisRanAt time.Time

	// Error page
	Status int
	Code   string

	// Form echoes submitted values back after a failed post
	Form map[string]string
}

// Renderer is a gin render.HTMLRender over the embedded page set. Every page
// is parsed together with the shared layout and executed through it.
type Renderer struct {
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*Renderer)(nil)

// New parses every page once
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.New("layout").Funcs(funcMap()).ParseFS(templateFS,
			"templates/layout.html",
			fmt.Sprintf("templates/%s.html", name),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Instance implements render.HTMLRender. Unknown names fall back to the
// error page.
func (r *Renderer) Instance(name string, data any) render.Render {
	tmpl, ok := r.pages[name]
	if !ok {
		tmpl = r.pages[PageError]
	}
	return render.HTML{
		Template: tmpl,
		Name:     "layout",
		Data:     data,
	}
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		// stars renders a rating out of five, half stars rounded down
		"stars": func(rating any) string {
			var full int
			switch v := rating.(type) {
			case int:
				full = v
			case float64:
				full = int(math.Floor(v))
			}
			full = max(0, min(full, 5))
			return strings.Repeat("★", full) + strings.Repeat("☆", 5-full)
		},
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Local().Format("Jan 02, 2006 15:04")
		},
		"percent": func(f float64) string {
			return fmt.Sprintf("%.0f%%", f*100)
		},
		"join": strings.Join,
		"list": func(v ...int) []int { return v },
		"formValue": func(form map[string]string, key string) string {
			return form[key]
		},
	}
}
