// Package templates renders the HTML table page and its fragments.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/tablekit/internal/core"
	"github.com/a-h/templ"
)

// PageData is everything the table page shows.
type PageData struct {
	View    core.ViewResult
	Columns core.Columns // Full registry, hidden columns included
	Edit    core.EditState
	Notice  string
}

// Page renders the full table page.
func Page(data PageData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<title>Table Manager</title></head><body>`)
		p.raw(`<h1>Table Manager</h1>`)

		if data.Notice != "" {
			p.raw(`<p class="notice">`)
			p.text(data.Notice)
			p.raw(`</p>`)
		}

		p.raw(`<form method="get" action="/"><input type="search" name="q" value="`)
		p.text(data.View.State.Query)
		p.raw(`" placeholder="Search"><button type="submit">Search</button></form>`)

		p.raw(`<p><a href="/api/export">Export CSV</a></p>`)

		if p.err == nil {
			p.err = columnToggles(data.Columns).Render(ctx, w)
		}
		if p.err == nil {
			p.err = table(data.View, data.Edit).Render(ctx, w)
		}
		if p.err == nil {
			p.err = pager(data.View).Render(ctx, w)
		}

		p.raw(`</body></html>`)
		return p.err
	})
}

func columnToggles(cols core.Columns) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<ul class="columns">`)
		for _, c := range cols {
			p.raw(`<li><label><input type="checkbox" disabled`)
			if c.Visible {
				p.raw(` checked`)
			}
			p.raw(`> `)
			p.text(c.Label)
			p.raw(` <code>`)
			p.text(c.Key)
			p.raw(`</code></label></li>`)
		}
		p.raw(`</ul>`)
		return p.err
	})
}

func table(view core.ViewResult, edit core.EditState) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		drafts := make(map[string]core.Fields, len(edit.Drafts))
		for _, d := range edit.Drafts {
			drafts[d.ID] = d.Fields
		}
		cellErrors := make(map[string]string, len(edit.Errors))
		for _, fe := range edit.Errors {
			cellErrors[fe.RecordID+"\x00"+fe.Column] = fe.Message
		}

		p := &printer{w: w}
		p.raw(`<table><thead><tr>`)
		for _, c := range view.Columns {
			p.raw(`<th><a href="/?sort=`)
			p.text(url.QueryEscape(c.Key))
			p.raw(`&amp;dir=`)
			p.text(string(view.State.ToggleSort(c.Key).SortDirection))
			p.raw(`">`)
			p.text(c.Label)
			if view.State.SortKey == c.Key {
				if view.State.SortDirection == core.SortDesc {
					p.raw(` &#9660;`)
				} else if view.State.SortDirection == core.SortAsc {
					p.raw(` &#9650;`)
				}
			}
			p.raw(`</a></th>`)
		}
		p.raw(`</tr></thead><tbody>`)

		if len(view.Rows) == 0 {
			p.raw(`<tr><td colspan="`)
			p.raw(strconv.Itoa(max(len(view.Columns), 1)))
			p.raw(`">No records</td></tr>`)
		}
		for _, rec := range view.Rows {
			p.raw(`<tr data-id="`)
			p.text(rec.ID)
			p.raw(`">`)
			draft, editing := drafts[rec.ID]
			for _, c := range view.Columns {
				value := rec.Cell(c.Key)
				if editing {
					value = core.FormatValue(draft[c.Key])
				}
				msg := cellErrors[rec.ID+"\x00"+c.Key]
				if msg != "" {
					p.raw(`<td class="invalid" title="`)
					p.text(msg)
					p.raw(`">`)
				} else {
					p.raw(`<td>`)
				}
				p.text(value)
				p.raw(`</td>`)
			}
			p.raw(`</tr>`)
		}
		p.raw(`</tbody></table>`)
		return p.err
	})
}

func pager(view core.ViewResult) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		pages := max(view.PageCount, 1)
		current := view.State.PageIndex
		p.raw(`<nav class="pager">`)
		if current > 0 {
			p.raw(fmt.Sprintf(`<a href="/?page=%d">Previous</a> `, current-1))
		}
		p.raw(fmt.Sprintf(`<span>Page %d of %d (%d records)</span>`, current+1, pages, view.TotalCount))
		if current+1 < pages {
			p.raw(fmt.Sprintf(` <a href="/?page=%d">Next</a>`, current+1))
		}
		p.raw(`</nav>`)
		return p.err
	})
}

// ErrorAlert renders an error fragment with an optional action hint and
// support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<div class="alert alert-error" role="alert"><p>`)
		p.text(message)
		p.raw(`</p>`)
		if action != "" {
			p.raw(`<p class="action">`)
			p.text(action)
			p.raw(`</p>`)
		}
		if code != "" {
			p.raw(`<p class="code">Code: `)
			p.text(code)
			p.raw(`</p>`)
		}
		p.raw(`</div>`)
		return p.err
	})
}

// printer writes until the first error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, s)
}

func (p *printer) text(s string) {
	p.raw(templ.EscapeString(s))
}
