package bot

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"taskbot/internal/domain"
)

// Options controls rendering. Zero fields take the defaults below.
type Options struct {
	ListTimeFormat   string
	ExportTimeFormat string
	Location         *time.Location
	DoneMark         string
	PendingMark      string
	DoneLabel        string
	PendingLabel     string
	ExportFilename   string
	Logger           *slog.Logger
}

// DefaultOptions returns the stock rendering settings.
func DefaultOptions() Options {
	return Options{
		ListTimeFormat:   "2006-01-02 15:04",
		ExportTimeFormat: "2006-01-02 15:04:05",
		Location:         time.Local,
		DoneMark:         "✅",
		PendingMark:      "✳️",
		DoneLabel:        "Done",
		PendingLabel:     "Not done",
		ExportFilename:   "tasks_export.csv",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ListTimeFormat == "" {
		o.ListTimeFormat = d.ListTimeFormat
	}
	if o.ExportTimeFormat == "" {
		o.ExportTimeFormat = d.ExportTimeFormat
	}
	if o.Location == nil {
		o.Location = d.Location
	}
	if o.DoneMark == "" {
		o.DoneMark = d.DoneMark
	}
	if o.PendingMark == "" {
		o.PendingMark = d.PendingMark
	}
	if o.DoneLabel == "" {
		o.DoneLabel = d.DoneLabel
	}
	if o.PendingLabel == "" {
		o.PendingLabel = d.PendingLabel
	}
	if o.ExportFilename == "" {
		o.ExportFilename = d.ExportFilename
	}
	return o
}

// csvHeader is the first row of every export.
var csvHeader = []string{"Number", "Status", "Text", "Created"}

// Formatter renders task lists as chat text and CSV.
type Formatter struct {
	opts Options
}

// NewFormatter creates a Formatter.
func NewFormatter(opts Options) *Formatter {
	return &Formatter{opts: opts.withDefaults()}
}

// FormatList renders one line per task: "[✅] 1. text (2024-03-01 09:30)".
func (f *Formatter) FormatList(tasks []domain.Task) string {
	if len(tasks) == 0 {
		return msgNoTasks
	}

	var b strings.Builder
	for i, task := range tasks {
		if i > 0 {
			b.WriteByte('\n')
		}
		mark := f.opts.PendingMark
		if task.Done {
			mark = f.opts.DoneMark
		}
		fmt.Fprintf(&b, "[%s] %d. %s (%s)", mark, task.Position, task.Text,
			task.CreatedAt.In(f.opts.Location).Format(f.opts.ListTimeFormat))
	}
	return b.String()
}

// ExportCSV renders tasks as ';' separated CSV with a header row.
func (f *Formatter) ExportCSV(tasks []domain.Task) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, task := range tasks {
		status := f.opts.PendingLabel
		if task.Done {
			status = f.opts.DoneLabel
		}
		record := []string{
			strconv.FormatInt(task.Position, 10),
			status,
			task.Text,
			task.CreatedAt.In(f.opts.Location).Format(f.opts.ExportTimeFormat),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportFilename is the name given to exported documents.
func (f *Formatter) ExportFilename() string {
	return f.opts.ExportFilename
}
