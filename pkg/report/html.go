package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/uiharness/pkg/core"
)

// HTMLConfig contains configuration for HTML report generation.
type HTMLConfig struct {
	OutputPath  string // Path to write the HTML file (default: <reportDir>/report.html)
	EmbedAssets bool   // Embed screenshots as base64 (makes file larger but portable)
	Title       string // Report title (default: "Test Report")
}

// GenerateHTML renders report.html from the report.json in reportDir.
func GenerateHTML(reportDir string, cfg HTMLConfig) error {
	index, err := ReadIndex(reportDir)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	if cfg.Title == "" {
		cfg.Title = "Test Report"
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = filepath.Join(reportDir, HTMLFile)
	}

	html, err := renderHTML(buildHTMLData(index, reportDir, cfg))
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	if err := atomicWrite(cfg.OutputPath, []byte(html)); err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	return nil
}

// HTMLData contains all data needed for the HTML template.
type HTMLData struct {
	Title         string
	GeneratedAt   string
	Index         *Index
	Flows         []FlowHTMLData
	TotalDuration string
	PassRate      float64
}

// FlowHTMLData contains flow data formatted for HTML.
type FlowHTMLData struct {
	FlowEntry
	StatusClass string
	DurationStr string
	Commands    []CommandHTMLData
	Screenshot  template.URL // data URI or relative path
}

// CommandHTMLData contains command data formatted for HTML.
type CommandHTMLData struct {
	Command
	StatusClass string
	DurationStr string
}

func buildHTMLData(index *Index, reportDir string, cfg HTMLConfig) HTMLData {
	data := HTMLData{
		Title:         cfg.Title,
		GeneratedAt:   time.Now().Format("2006-01-02 15:04:05"),
		Index:         index,
		TotalDuration: formatDuration(index.Duration),
	}
	if index.Summary.Total > 0 {
		data.PassRate = float64(index.Summary.Passed) / float64(index.Summary.Total) * 100
	}

	for _, f := range index.Flows {
		fd := FlowHTMLData{
			FlowEntry:   f,
			StatusClass: statusClass(f.Status),
			DurationStr: formatDuration(f.Duration),
		}
		for _, c := range f.Steps {
			fd.Commands = append(fd.Commands, CommandHTMLData{
				Command:     c,
				StatusClass: statusClass(c.Status),
				DurationStr: formatDuration(c.Duration),
			})
		}
		for _, a := range f.Artifacts {
			if a.Name != core.AttachmentScreenshot {
				continue
			}
			if cfg.EmbedAssets {
				fd.Screenshot = template.URL(loadAsBase64(filepath.Join(reportDir, a.Path))) //#nosec G203 -- data URI built from a local PNG
			} else {
				fd.Screenshot = template.URL(url.PathEscape(a.Path)) //#nosec G203 -- file name written by this run
			}
			break
		}
		data.Flows = append(data.Flows, fd)
	}
	return data
}

func statusClass(s core.Status) string {
	if s == core.StatusErrored {
		return "failed"
	}
	return s.String()
}

func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", ms)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func loadAsBase64(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(filepath.Ext(path))
	mimeType := "image/png"
	if ext == ".jpg" || ext == ".jpeg" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

func renderHTML(data HTMLData) (string, error) {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2rem; color: #111827; background: #f9fafb; }
        h1 { font-size: 1.5rem; margin-bottom: 0.25rem; }
        .meta { color: #6b7280; font-size: 0.875rem; margin-bottom: 1.5rem; }
        .summary { display: flex; gap: 1rem; margin-bottom: 1.5rem; }
        .card { background: #fff; border: 1px solid #e5e7eb; border-radius: 8px; padding: 0.75rem 1rem; min-width: 6rem; }
        .card .value { font-size: 1.5rem; font-weight: 600; }
        details { background: #fff; border: 1px solid #e5e7eb; border-radius: 8px; margin-bottom: 0.5rem; padding: 0.5rem 1rem; }
        summary { cursor: pointer; display: flex; justify-content: space-between; }
        table { width: 100%; border-collapse: collapse; margin-top: 0.5rem; font-size: 0.875rem; }
        td { padding: 0.25rem 0.5rem; border-top: 1px solid #f3f4f6; vertical-align: top; }
        .passed { color: #059669; }
        .failed { color: #dc2626; }
        .skipped { color: #9ca3af; }
        .error { color: #dc2626; white-space: pre-wrap; font-family: monospace; }
        img { max-width: 480px; margin-top: 0.5rem; border: 1px solid #e5e7eb; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <div class="meta">
        Run {{.Index.RunID}} &middot; {{.Index.App.Path}} on {{.Index.Server.URL}} &middot;
        labels {{.Index.Runner.Labels}} &middot; {{.TotalDuration}} &middot; generated {{.GeneratedAt}}
    </div>
    <div class="summary">
        <div class="card"><div>Total</div><div class="value">{{.Index.Summary.Total}}</div></div>
        <div class="card"><div>Passed</div><div class="value passed">{{.Index.Summary.Passed}}</div></div>
        <div class="card"><div>Failed</div><div class="value failed">{{.Index.Summary.Failed}}</div></div>
        <div class="card"><div>Errored</div><div class="value failed">{{.Index.Summary.Errored}}</div></div>
        <div class="card"><div>Skipped</div><div class="value skipped">{{.Index.Summary.Skipped}}</div></div>
        <div class="card"><div>Pass rate</div><div class="value">{{printf "%.0f" .PassRate}}%</div></div>
    </div>
    {{range .Flows}}
    <details{{if eq .StatusClass "failed"}} open{{end}}>
        <summary>
            <span class="{{.StatusClass}}">{{.Status}} &middot; {{.Name}} <code>#{{.ID}}</code></span>
            <span>{{.DurationStr}}</span>
        </summary>
        {{if .Error}}<div class="error">{{.Error.Code}}: {{.Error.Message}}</div>{{end}}
        <table>
            {{range .Commands}}
            <tr>
                <td class="{{.StatusClass}}">{{.Status}}</td>
                <td>{{.Label}}{{if .Message}} <em>({{.Message}})</em>{{end}}{{if .Error}}<div class="error">{{.Error}}</div>{{end}}</td>
                <td>{{.DurationStr}}</td>
            </tr>
            {{end}}
        </table>
        {{if .Screenshot}}<img src="{{.Screenshot}}" alt="screenshot of {{.ID}}">{{end}}
    </details>
    {{end}}
</body>
</html>
`
