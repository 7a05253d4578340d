package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

// messageView is the data every notification template renders
type messageView struct {
	Heading   string
	Intro     string
	RequestID int64
	Details   []detail
	Comments  string
	Link      string
	LinkLabel string
}

type detail struct {
	Label string
	Value string
}

var htmlBody = template.Must(template.New("body").Parse(`<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>{{.Heading}}</h2>
  <p>{{.Intro}}</p>
  <table style="border-collapse: collapse;">
    <tr><td style="padding: 4px 12px 4px 0;"><strong>Request</strong></td><td>#{{.RequestID}}</td></tr>
    {{- range .Details}}
    {{- if .Value}}
    <tr><td style="padding: 4px 12px 4px 0;"><strong>{{.Label}}</strong></td><td>{{.Value}}</td></tr>
    {{- end}}
    {{- end}}
  </table>
  {{- if .Comments}}
  <h3>Comments</h3>
  <p style="white-space: pre-wrap;">{{.Comments}}</p>
  {{- end}}
  {{- if .Link}}
  <p>
    <a href="{{.Link}}" style="background-color: #0078d4; color: #fff; padding: 10px 18px; text-decoration: none; border-radius: 4px;">{{.LinkLabel}}</a>
  </p>
  <p>If the button does not work, copy this link into your browser:</p>
  <p style="word-break: break-all;">{{.Link}}</p>
  {{- end}}
</body>
</html>`))

func renderHTML(v messageView) (string, error) {
	var buf bytes.Buffer
	if err := htmlBody.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("render notification body: %w", err)
	}
	return buf.String(), nil
}

// renderText is the plain rendering used by channels without HTML
func renderText(v messageView) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n%s\n", v.Heading, v.Intro)
	for _, d := range v.Details {
		if d.Value != "" {
			fmt.Fprintf(&buf, "%s: %s\n", d.Label, d.Value)
		}
	}
	if v.Comments != "" {
		fmt.Fprintf(&buf, "Comments: %s\n", v.Comments)
	}
	return buf.String()
}
