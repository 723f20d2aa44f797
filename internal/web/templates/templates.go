// Package templates renders the HTML fragments returned to HTMX requests.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/storagetracker/internal/core"
)

// ImportSummary renders the outcome of an import.
func ImportSummary(s core.ImportSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class := "alert alert-success"
		if s.ErrorCount > 0 {
			class = "alert alert-warning"
		}

		if _, err := fmt.Fprintf(w, `<div class="%s" role="status" data-items-imported="%d" data-locations-created="%d" data-error-count="%d">`,
			class, s.ItemsImported, s.LocationsCreated, s.ErrorCount); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<p>Imported %d items and created %d new locations.</p>`,
			s.ItemsImported, s.LocationsCreated); err != nil {
			return err
		}

		if s.ErrorCount > 0 {
			heading := fmt.Sprintf("%d rows failed", s.ErrorCount)
			if s.ErrorCount > len(s.Errors) {
				heading += fmt.Sprintf(" (first %d shown)", len(s.Errors))
			}
			if _, err := fmt.Fprintf(w, `<p>%s</p><ul>`, templ.EscapeString(heading)); err != nil {
				return err
			}
			for _, e := range s.Errors {
				if _, err := fmt.Fprintf(w, `<li>Row %d: %s</li>`, e.Row, templ.EscapeString(e.Message)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</ul>`); err != nil {
				return err
			}
		}

		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert"><p>%s</p><p>%s</p><small>Code: %s</small></div>`,
			templ.EscapeString(message),
			templ.EscapeString(action),
			templ.EscapeString(code),
		)
		return err
	})
}
