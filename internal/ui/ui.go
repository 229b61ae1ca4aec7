// Package ui renders the minimal server-side HTML views using templ
// components.
package ui

import (
	"context"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/a-h/templ"
)

// JobListItem is the view model for one row of the job list page.
type JobListItem struct {
	ID          string
	State       string
	Problem     string
	Algorithm   string
	Islands     int
	Generation  int
	Generations int
	BestF       float64
	InitialF    float64
	StartTime   time.Time
	EndTime     *time.Time
	Error       string
}

// JobList renders the job overview page.
func JobList(jobs []JobListItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, pageHead); err != nil {
			return err
		}
		if len(jobs) == 0 {
			if _, err := io.WriteString(w, `<p>No jobs yet. POST to /api/v1/jobs to start one.</p>`); err != nil {
				return err
			}
		} else {
			if _, err := io.WriteString(w, `<table><tr><th>ID</th><th>State</th><th>Problem</th><th>Algorithm</th><th>Islands</th><th>Generation</th><th>Best</th><th>Started</th></tr>`); err != nil {
				return err
			}
			for _, job := range jobs {
				if err := jobRow(job).Render(ctx, w); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</table>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, pageFoot)
		return err
	})
}

// jobRow renders one table row.
func jobRow(job JobListItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		state := job.State
		if job.Error != "" {
			state = fmt.Sprintf("%s (%s)", job.State, job.Error)
		}
		_, err := fmt.Fprintf(w,
			`<tr><td><a href="/api/v1/jobs/%s/status">%s</a></td><td>%s</td><td>%s</td><td>%s</td><td>%d</td><td>%d/%d</td><td>%g</td><td>%s</td></tr>`,
			html.EscapeString(job.ID), html.EscapeString(shortID(job.ID)),
			html.EscapeString(state),
			html.EscapeString(job.Problem), html.EscapeString(job.Algorithm),
			job.Islands, job.Generation, job.Generations, job.BestF,
			job.StartTime.Format(time.RFC3339))
		return err
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

const pageHead = `<!DOCTYPE html>
<html><head><title>pelago</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.8em; text-align: left; }
</style>
</head><body><h1>Optimization jobs</h1>`

const pageFoot = `</body></html>`
