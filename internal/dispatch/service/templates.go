package service

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"

	notificationModel "github.com/festy23/reviewdesk/internal/notification/model"
)

var subjectPrefixes = map[notificationModel.Type]string{
	notificationModel.TypeReviewRequest: "[Review request]",
	notificationModel.TypeComment:       "[Comment]",
	notificationModel.TypeApproval:      "[Approved/Returned]",
	notificationModel.TypeReminder:      "[Reminder]",
}

func subjectFor(t notificationModel.Type, reviewTitle string) string {
	prefix, ok := subjectPrefixes[t]
	if !ok {
		prefix = "[Notice]"
	}
	if reviewTitle == "" {
		return prefix
	}
	return prefix + " " + reviewTitle
}

type bodyData struct {
	RecipientName string
	Message       string
	URL           string
	SingleUse     bool
}

var textBody = texttemplate.Must(texttemplate.New("text").Parse(`Hello {{.RecipientName}},

{{.Message}}

Open: {{.URL}}
{{- if .SingleUse}}
This link signs you in and can be used once.{{end}}
`))

var htmlBody = htmltemplate.Must(htmltemplate.New("html").Parse(`<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Review Desk</h2>
  <p style="color: #555;">Hello {{.RecipientName}},</p>
  <p style="color: #555; font-size: 16px;">{{.Message}}</p>
  <p style="margin-top: 20px;">
    <a href="{{.URL}}" style="display: inline-block; padding: 10px 20px; background-color: #2563eb; color: white; text-decoration: none; border-radius: 5px;">Open review</a>
  </p>
  {{- if .SingleUse}}
  <p style="color: #999; font-size: 12px;">This link signs you in and can be used once.</p>
  {{- end}}
  <hr style="margin-top: 30px; border: none; border-top: 1px solid #eee;" />
  <p style="color: #999; font-size: 12px;">This message was sent automatically by Review Desk.</p>
</div>
`))

func renderBodies(data bodyData) (string, string, error) {
	var text, html bytes.Buffer
	if err := textBody.Execute(&text, data); err != nil {
		return "", "", err
	}
	if err := htmlBody.Execute(&html, data); err != nil {
		return "", "", err
	}
	return text.String(), html.String(), nil
}
