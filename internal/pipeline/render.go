package pipeline

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/pdf2tables/backend/internal/models"
)

const tableStyle = `<style>
.table-card { margin-top: 1.5rem; }
.table-card h3 { font-weight: 600; margin-bottom: 0.5rem; }
.table-card table { width: 100%; border-collapse: collapse; table-layout: fixed; }
.table-card th, .table-card td { border: 1px solid #e5e7eb; padding: 0.5rem; font-size: 0.875rem; }
.table-card tbody tr:nth-child(odd) { background-color: #f9fafb; }
</style>`

const emptyResultHTML = `<p class="text-sm text-gray-600">No tables detected.</p>`

var tableCardTmpl = template.Must(template.New("tablecard").Parse(`<div class="table-card">
  <h3>Page {{.Page}} – Table {{.Order}} <span class="text-xs text-slate-500">({{.Flavor}})</span></h3>
  <table><tbody>
{{- range .Data}}
    <tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
  </tbody></table>
</div>`))

// Metadata is the serialized-artifact payload. Key names are the
// on-disk contract of tables.json.
type Metadata struct {
	Tables      []models.Table `json:"tables"`
	Scanned     bool           `json:"scanned"`
	TablesFound int            `json:"tables_found"`
	Source      string         `json:"source"`
}

// RenderTables produces the HTML fragment for a set of extracted
// tables and fills in their per-table HTML.
func RenderTables(tables []models.Table) (string, error) {
	if len(tables) == 0 {
		return emptyResultHTML, nil
	}

	fragments := []string{tableStyle}
	for i := range tables {
		var sb strings.Builder
		if err := tableCardTmpl.Execute(&sb, tables[i]); err != nil {
			return "", fmt.Errorf("rendering table %d: %w", tables[i].Order, err)
		}
		tables[i].HTML = sb.String()
		fragments = append(fragments, tables[i].HTML)
	}
	return strings.Join(fragments, "\n"), nil
}

// SerializeMetadata encodes the metadata artifact with two-space
// indentation.
func SerializeMetadata(meta Metadata) ([]byte, error) {
	return json.MarshalIndent(meta, "", "  ")
}
