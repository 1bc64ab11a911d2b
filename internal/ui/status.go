package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// StatusInfo describes the knowledge base for display.
type StatusInfo struct {
	Source string `json:"source,omitempty"`
	Format string `json:"format"`

	Order     int `json:"order"`
	Tuples    int `json:"tuples"`
	Tokens    int `json:"tokens"`
	Starters  int `json:"starters"`
	Finishers int `json:"finishers"`

	Cautious     bool `json:"cautious"`
	Compensation int  `json:"compensation"`
	SampleSize   int  `json:"sample_size"`

	// LoadTime is how long the last ingestion took; zero when unknown.
	LoadTime time.Duration `json:"-"`

	WatcherStatus string `json:"watcher_status,omitempty"` // "running", "enabled", "off", "stopped", "n/a"
}

// MarshalJSON reports LoadTime in milliseconds.
func (s StatusInfo) MarshalJSON() ([]byte, error) {
	type alias StatusInfo
	return json.Marshal(struct {
		alias
		LoadTime int64 `json:"load_time_ms"`
	}{alias: alias(s), LoadTime: s.LoadTime.Milliseconds()})
}

// StatusRenderer displays knowledge base status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	title := "Knowledge base"
	if info.Source != "" {
		title += ": " + info.Source
	}
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render(title))

	r.row("Format", info.Format)
	r.row("Order", fmt.Sprintf("%d", info.Order))
	r.row("Tuples", fmt.Sprintf("%d", info.Tuples))
	r.row("Tokens", fmt.Sprintf("%d", info.Tokens))
	r.row("Starters", fmt.Sprintf("%d", info.Starters))
	r.row("Finishers", fmt.Sprintf("%d", info.Finishers))
	if info.LoadTime > 0 {
		r.row("Load time", FormatDuration(info.LoadTime))
	}
	_, _ = fmt.Fprintln(r.out)

	_, _ = fmt.Fprintln(r.out, "  Generation:")
	r.row("  Cautious", r.renderToggle(info.Cautious))
	r.row("  Compensation", fmt.Sprintf("%d", info.Compensation))
	r.row("  Samples", fmt.Sprintf("%d", info.SampleSize))

	if info.WatcherStatus != "" && info.WatcherStatus != "n/a" {
		_, _ = fmt.Fprintln(r.out)
		_, _ = fmt.Fprintf(r.out, "  Watcher: %s\n", r.renderStatus(info.WatcherStatus))
	}

	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func (r *StatusRenderer) row(label, value string) {
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.styles.Label.Render(fmt.Sprintf("%-14s", label+":")), value)
}

func (r *StatusRenderer) renderToggle(on bool) string {
	if on {
		return r.styles.Success.Render("on")
	}
	return r.styles.Dim.Render("off")
}

// renderStatus formats a status string with color.
func (r *StatusRenderer) renderStatus(status string) string {
	switch status {
	case "running", "enabled":
		return r.styles.Success.Render(status)
	case "off":
		return r.styles.Dim.Render(status)
	case "stopped":
		return r.styles.Warning.Render(status)
	case "error":
		return r.styles.Error.Render(status)
	default:
		return status
	}
}

// FormatDuration renders d with millisecond precision, or in seconds
// from one second up.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1 ms"
	case d < time.Second:
		return fmt.Sprintf("%d ms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.1f s", d.Seconds())
	}
}
