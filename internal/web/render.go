package web

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"patient-dashboard/internal/dashboard"
	"patient-dashboard/internal/models"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"fixed2":   fixed2,
	"tagClass": tagClass,
}).ParseFS(templateFS, "templates/dashboard.html"))

type option struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	View       dashboard.View
	Stats      models.Stats
	Cards      []models.Patient
	SortFields []option
	Orders     []option
}

func newPageData(v dashboard.View) pageData {
	return pageData{
		View:  v,
		Stats: v.Stats(),
		Cards: v.Cards(),
		SortFields: []option{
			{Value: string(models.SortByHeight), Label: "Height", Selected: v.SortBy == models.SortByHeight},
			{Value: string(models.SortByWeight), Label: "Weight", Selected: v.SortBy == models.SortByWeight},
			{Value: string(models.SortByBMI), Label: "BMI", Selected: v.SortBy == models.SortByBMI},
		},
		Orders: []option{
			{Value: string(models.OrderAsc), Label: "Ascending", Selected: v.Order == models.OrderAsc},
			{Value: string(models.OrderDesc), Label: "Descending", Selected: v.Order == models.OrderDesc},
		},
	}
}

// renderPage writes the whole dashboard for v. The page is buffered so a
// template error never leaves a half-written response.
func renderPage(w io.Writer, v dashboard.View) error {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, newPageData(v)); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func fixed2(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}

func tagClass(verdict string) string {
	return strings.ToLower(verdict)
}
