package service

import (
	"fmt"
	"html"
	"strings"

	"github.com/lumenworks/intake-api/internal/mailer"
	"github.com/lumenworks/intake-api/internal/models"
)

// Field display order per flow. Unlisted fields are appended alphabetically
// by the range over fieldOrder only, so keep these complete.
var fieldOrder = map[models.Flow][]string{
	models.FlowContact: {"name", "email", "subject", "message"},
	models.FlowRecruit: {"name", "email", "phone", "company", "position", "projectTypes", "title", "introduction"},
}

var fieldLabels = map[string]string{
	"name":         "Name",
	"email":        "Email",
	"subject":      "Subject",
	"message":      "Message",
	"phone":        "Phone",
	"company":      "Company",
	"position":     "Position",
	"projectTypes": "Project types",
	"title":        "Project title",
	"introduction": "Introduction",
}

// compose renders the notification mail for one submission. Field values
// were sanitized at ingress and are HTML-escaped again here for the HTML
// part; sanitization is not output encoding.
func (s *IntakeService) compose(sub *models.Submission) mailer.Message {
	to := s.contactTo
	subject := fmt.Sprintf("[Contact] %s", sub.Fields["subject"])
	if sub.Flow == models.FlowRecruit {
		to = s.recruitTo
		subject = fmt.Sprintf("[Recruit] %s - %s", sub.Fields["position"], sub.Fields["name"])
	}

	var htmlB, textB strings.Builder
	htmlB.WriteString("<h2>New " + string(sub.Flow) + " submission</h2><table>")
	fmt.Fprintf(&textB, "New %s submission\n\n", sub.Flow)
	for _, name := range fieldOrder[sub.Flow] {
		value := sub.Fields[name]
		if value == "" {
			continue
		}
		fmt.Fprintf(&htmlB, "<tr><td><b>%s</b></td><td>%s</td></tr>",
			fieldLabels[name], html.EscapeString(value))
		fmt.Fprintf(&textB, "%s: %s\n", fieldLabels[name], value)
	}
	htmlB.WriteString("</table>")

	if att := sub.Attachment; att != nil && att.TooLarge {
		note := fmt.Sprintf("Resume %q exceeded the %d MiB limit and was not attached.",
			att.FileName, MaxAttachmentBytes>>20)
		htmlB.WriteString("<p><i>" + html.EscapeString(note) + "</i></p>")
		textB.WriteString("\n" + note + "\n")
	}

	fmt.Fprintf(&textB, "\nSubmitted at %s from %s\n", sub.SubmittedAt, sub.ClientIP)

	return mailer.Message{
		From:    s.from,
		To:      []string{to},
		ReplyTo: sub.Fields["email"],
		Subject: subject,
		HTML:    htmlB.String(),
		Text:    textB.String(),
	}
}
