package journal

import (
	"bytes"
	"io"
	"text/template"
	"time"
)

var orgFuncs = template.FuncMap{
	"pct": func(x float64) float64 { return x * 100.0 },
	"orNow": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

const orgTemplate = `* BACKTEST: {{.Strategy}} {{range .Symbols}}{{.}} {{end}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:STRATEGY:    {{.Strategy}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:START_BAL:   {{printf "%.2f" .InitialCapital}}
:END_BAL:     {{printf "%.2f" .FinalEquity}}
:RETURN_PCT:  {{printf "%.2f" (pct .TotalReturn)}}
:MAX_DD_PCT:  {{printf "%.2f" (pct .MaxDrawdown)}}
:SHARPE:      {{if .SharpeOK}}{{printf "%.3f" .Sharpe}}{{else}}n/a{{end}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" (pct .WinRate)}}
:CREATED:     [{{(orNow .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Performance Summary
- Return:       *{{printf "%.2f" (pct .TotalReturn)}}%*
- Annualized:   *{{printf "%.2f" (pct .AnnualReturn)}}%*
- Max Drawdown: *{{printf "%.2f" (pct .MaxDrawdown)}}%*
- Volatility:   *{{printf "%.2f" (pct .Volatility)}}%*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |

{{- if .Warnings }}

** Warnings
{{- range .Warnings }}
- {{.}}
{{- end }}
{{- end }}
`

// WriteOrg renders the run summary as an org-mode block.
func (r RunRecord) WriteOrg(w io.Writer) error {
	t, err := template.New("run").Funcs(orgFuncs).Parse(orgTemplate)
	if err != nil {
		return err
	}
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, r); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// ExportRunOrg loads one journaled run and returns its org block.
func (j *SQLite) ExportRunOrg(runID string) (string, error) {
	rec, err := j.GetRun(runID)
	if err != nil {
		return "", err
	}
	buf := new(bytes.Buffer)
	if err := rec.WriteOrg(buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
