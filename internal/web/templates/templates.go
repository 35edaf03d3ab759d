// Package templates renders the HTML pages of the validator UI as templ
// components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/hsncheck/internal/core"
)

const styles = `body{font-family:system-ui,sans-serif;max-width:60rem;margin:2rem auto;padding:0 1rem;color:#1f2937}
h1{font-size:1.5rem}table{border-collapse:collapse;width:100%}td,th{border:1px solid #e5e7eb;padding:.4rem .6rem;text-align:left}
.ok{color:#047857}.bad{color:#b91c1c}.muted{color:#6b7280}.card{border:1px solid #e5e7eb;border-radius:.5rem;padding:1rem;margin:1rem 0}
.alert{background:#fef2f2;border:1px solid #fecaca;border-radius:.5rem;padding:1rem;margin:1rem 0}
textarea,input[type=text]{width:100%;padding:.5rem;font-family:monospace}button{margin-top:.5rem;padding:.4rem 1rem}`

// writer collects the first write error so components read as straight-line code.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) printf(format string, args ...any) {
	w.raw(fmt.Sprintf(format, args...))
}

func (w *writer) component(ctx context.Context, c templ.Component) {
	if w.err == nil && c != nil {
		w.err = c.Render(ctx, w.w)
	}
}

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.raw(`<title>`)
		w.text(title)
		w.raw(`</title><style>` + styles + `</style></head><body>`)
		w.component(ctx, body)
		w.raw(`</body></html>`)
		return w.err
	})
}

// Index is the home page: reference status, the validation form and, after a
// submission, the results.
func Index(status core.ReferenceStatus, input string, results templ.Component) templ.Component {
	return Layout("HSN Code Validator", templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<h1>HSN Code Validator</h1>`)
		w.component(ctx, StatusLine(status))
		w.raw(`<form method="post" action="/validate" class="card">`)
		w.raw(`<label for="codes">HSN codes, one per line, or free text containing codes</label>`)
		w.raw(`<textarea id="codes" name="codes" rows="6">`)
		w.text(input)
		w.raw(`</textarea><button type="submit">Validate</button></form>`)
		w.raw(`<form method="post" action="/api/export?format=csv" enctype="multipart/form-data" class="card">`)
		w.raw(`<label for="file">Bulk file (.csv, .tsv, .xlsx)</label> <input id="file" type="file" name="file">`)
		w.raw(`<button type="submit">Validate and download CSV</button></form>`)
		w.raw(`<div id="results">`)
		w.component(ctx, results)
		w.raw(`</div>`)
		return w.err
	}))
}

// StatusLine summarises the loaded reference data.
func StatusLine(status core.ReferenceStatus) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<p class="muted">`)
		if !status.Loaded {
			w.raw(`Reference data not loaded.`)
			if status.LastError != "" {
				w.raw(` Last error: `)
				w.text(status.LastError)
			}
		} else {
			w.printf(`%d codes loaded from `, status.Codes)
			w.text(status.Source)
			w.raw(`. Known lengths: `)
			w.text(joinInts(status.ValidLengths))
			w.raw(`. Length policy: `)
			w.text(status.LengthPolicy)
			w.raw(`.`)
		}
		w.raw(`</p>`)
		return w.err
	})
}

// Result renders one validation verdict with its hierarchy.
func Result(r core.ValidationResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="card">`)
		if r.IsValid {
			w.raw(`<h2 class="ok">Valid HSN code `)
		} else {
			w.raw(`<h2 class="bad">Invalid HSN code `)
		}
		w.raw(`<code>`)
		w.text(r.Code)
		w.raw(`</code></h2>`)

		if r.Description != "" {
			w.raw(`<p>`)
			w.text(r.Description)
			w.raw(`</p>`)
		}

		w.raw(`<ul>`)
		for _, m := range r.Messages {
			w.raw(`<li>`)
			w.text(m)
			w.raw(`</li>`)
		}
		w.raw(`</ul>`)

		if len(r.Hierarchy) > 0 {
			w.raw(`<table><thead><tr><th>Parent code</th><th>Exists</th><th>Description</th></tr></thead><tbody>`)
			for _, p := range r.Hierarchy {
				w.raw(`<tr><td><code>`)
				w.text(p.ParentCode)
				w.raw(`</code></td><td>`)
				w.raw(yesNo(p.Exists))
				w.raw(`</td><td>`)
				w.text(p.Description)
				w.raw(`</td></tr>`)
			}
			w.raw(`</tbody></table>`)
		}
		w.raw(`</div>`)
		return w.err
	})
}

// Bulk renders a results table with counts.
func Bulk(report *core.BulkReport) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="card">`)
		w.printf(`<p>%d codes checked: <span class="ok">%d valid</span>, <span class="bad">%d invalid</span></p>`,
			report.Total, report.Valid, report.Invalid)
		w.raw(`<table><thead><tr><th>HSN Code</th><th>Valid</th><th>Description</th><th>Messages</th></tr></thead><tbody>`)
		for _, r := range report.Results {
			w.raw(`<tr><td><code>`)
			w.text(r.Code)
			w.raw(`</code></td><td>`)
			w.raw(yesNo(r.IsValid))
			w.raw(`</td><td>`)
			w.text(r.Description)
			w.raw(`</td><td>`)
			w.text(strings.Join(r.Messages, "; "))
			w.raw(`</td></tr>`)
		}
		w.raw(`</tbody></table></div>`)
		return w.err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="alert" role="alert"><strong>`)
		w.text(message)
		w.raw(`</strong>`)
		if action != "" {
			w.raw(`<p>`)
			w.text(action)
			w.raw(`</p>`)
		}
		w.raw(`<p class="muted">Error code: `)
		w.text(code)
		w.raw(`</p></div>`)
		return w.err
	})
}

func yesNo(b bool) string {
	if b {
		return `<span class="ok">Yes</span>`
	}
	return `<span class="bad">No</span>`
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
