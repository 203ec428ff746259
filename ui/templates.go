package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

//go:embed templates/notice.html templates/fragments/*/*.html
var embeddedTemplates embed.FS

func parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"ratio": func(v *float64) string {
			if v == nil {
				return "n/a"
			}
			return strconv.FormatFloat(*v, 'f', 4, 64)
		},
		"number": func(v *float64) string {
			if v == nil {
				return "n/a"
			}
			return strconv.FormatFloat(*v, 'f', 2, 64)
		},
		"deref": func(v interface{}) string {
			switch t := v.(type) {
			case *string:
				if t != nil {
					return *t
				}
			case *float64:
				if t != nil {
					return strconv.FormatFloat(*t, 'f', -1, 64)
				}
			}
			return ""
		},
		"interval": func(v *[2]float64) string {
			if v == nil {
				return "n/a"
			}
			return fmt.Sprintf("%.4f to %.4f", v[0], v[1])
		},
		"barWidth": func(count, peak int) string {
			if peak <= 0 {
				return "0"
			}
			return strconv.FormatFloat(100*float64(count)/float64(peak), 'f', 1, 64)
		},
	}

	templates, err := template.New("").Funcs(funcMap).ParseFS(embeddedTemplates,
		"templates/notice.html", "templates/fragments/*/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return templates, nil
}

// renderTemplate executes a template with the given data
func (s *Server) renderTemplate(c *gin.Context, status int, templateName string, data interface{}) {
	// Render to a buffer first so template errors don't leave a half-written response
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.logger.Error("template error for %s: %v (data %T)", templateName, err, data)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Template rendering failed", "code": "INTERNAL_ERROR"})
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// isHTMX reports whether the request came from an htmx swap
func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// respond renders fragment for htmx requests and JSON otherwise
func (s *Server) respond(c *gin.Context, fragment string, data interface{}) {
	if fragment != "" && isHTMX(c) {
		s.renderTemplate(c, http.StatusOK, fragment, data)
		return
	}
	c.JSON(http.StatusOK, data)
}
