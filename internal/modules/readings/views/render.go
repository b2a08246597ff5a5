package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"aquadash/internal/modules/readings/types"
)

// RefreshInterval matches the client polling cadence.
const RefreshInterval = 300 * time.Second

const timeFormat = "02/01/2006, 15:04"

var dashboardTmpl *template.Template

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	dashboardTmpl, err = template.ParseFS(sub, "*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// ReadingRow is one reading formatted for display.
type ReadingRow struct {
	Time        string
	Temperature string
	Status      string
	StatusClass string
}

type DashboardData struct {
	Last           *ReadingRow
	Readings       []ReadingRow
	RefreshSeconds int
}

// NewDashboardData builds the view model from readings ordered newest first.
// Times are shown in loc, or UTC when loc is nil.
func NewDashboardData(readings []types.Reading, loc *time.Location) *DashboardData {
	if loc == nil {
		loc = time.UTC
	}
	rows := make([]ReadingRow, 0, len(readings))
	for _, r := range readings {
		rows = append(rows, ReadingRow{
			Time:        r.CreatedAt.In(loc).Format(timeFormat),
			Temperature: strconv.FormatFloat(r.Temperature, 'f', 2, 64),
			Status:      r.Status.String(),
			StatusClass: "status-" + strings.ToLower(r.Status.String()),
		})
	}
	data := &DashboardData{Readings: rows, RefreshSeconds: int(RefreshInterval / time.Second)}
	if len(rows) > 0 {
		data.Last = &rows[0]
	}
	return data
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}
