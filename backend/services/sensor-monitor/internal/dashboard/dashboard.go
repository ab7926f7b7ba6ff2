// Package dashboard renders the latest reading as an auto-refreshing HTML page.
package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"sensormonitor/backend/services/sensor-monitor/internal/models"
)

// TimeLayout is used for every human-readable time on the page.
const TimeLayout = "2006-01-02 15:04:05"

const defaultRefreshSeconds = 5

//go:embed templates/dashboard.html
var templateFS embed.FS

// Card is one sensor tile.
type Card struct {
	Name   string
	Value  string
	Unit   string
	Status string
	Class  string
}

// View is the template model.
type View struct {
	RefreshSeconds int
	Now            string
	HasData        bool
	LastUpdated    string
	TotalReceived  uint64
	ErrorCount     uint64
	MAC            string
	Cards          []Card
	Metadata       models.Metadata
	RawJSON        string
}

// Renderer turns snapshots into HTML.
type Renderer struct {
	tmpl           *template.Template
	refreshSeconds int
	now            func() time.Time
}

// NewRenderer parses the embedded template. refreshSeconds <= 0 selects the default.
func NewRenderer(refreshSeconds int) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/dashboard.html")
	if err != nil {
		return nil, fmt.Errorf("dashboard: parse template: %w", err)
	}
	if refreshSeconds <= 0 {
		refreshSeconds = defaultRefreshSeconds
	}
	return &Renderer{
		tmpl:           tmpl,
		refreshSeconds: refreshSeconds,
		now:            time.Now,
	}, nil
}

// Render writes the page for snap to w.
func (r *Renderer) Render(w io.Writer, snap models.Snapshot) error {
	return r.tmpl.Execute(w, r.BuildView(snap))
}

// BuildView maps a snapshot onto the template model.
func (r *Renderer) BuildView(snap models.Snapshot) View {
	view := View{
		RefreshSeconds: r.refreshSeconds,
		Now:            r.now().Format(TimeLayout),
		TotalReceived:  snap.Stats.TotalReceived,
		ErrorCount:     snap.Stats.ErrorCount,
	}

	latest := snap.Latest
	if latest == nil {
		return view
	}

	view.HasData = true
	if snap.Stats.LastUpdated != nil {
		view.LastUpdated = snap.Stats.LastUpdated.Format(TimeLayout)
	} else {
		view.LastUpdated = latest.ReceivedAt.Format(TimeLayout)
	}
	view.MAC = latest.MAC()
	if view.MAC == "" {
		view.MAC = "N/A"
	}
	view.Cards = BuildCards(latest.Data)
	view.Metadata = latest.Metadata
	view.RawJSON = prettyJSON(latest.Raw)
	return view
}

func prettyJSON(raw json.RawMessage) string {
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return string(raw)
	}
	return out.String()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case float64:
		return val, true
	default:
		return 0, false
	}
}
