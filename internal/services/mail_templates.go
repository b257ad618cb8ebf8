package services

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"unicode"
	"unicode/utf8"
)

type StatusChangeNotice struct {
	// Action is a past participle such as "created" or "updated".
	Action   string
	FileName string
	Status   string
	Notes    string
}

type CertificateNotice struct {
	AuthorName  string
	CourseCode  string
	CourseTitle string
	Attachments []MailAttachment
}

type FileNotice struct {
	FileName string
	Content  []byte
	Subject  string
	HTML     string
	Text     string
}

type DeadlineNotice struct {
	MaterialID    uint
	SubjectName   string
	DueDate       string
	DaysRemaining int
}

var mailTemplates = template.Must(template.New("mail").Parse(`
{{define "status_change"}}<html>
<body>
    <h2>Instructional Material Notification</h2>
    <p>Your instructional material has been {{.Action}} successfully.</p>
    <table border="0" cellpadding="5">
        <tr><td><strong>Filename:</strong></td><td>{{.FileName}}</td></tr>
        <tr><td><strong>Status:</strong></td><td>{{.Status}}</td></tr>
        <tr><td><strong>Notes:</strong></td><td>{{.Notes}}</td></tr>
    </table>
    <br>
    <p>Thank you for using our instructional materials system.</p>
</body>
</html>{{end}}
{{define "certificate"}}<p>Dear {{.AuthorName}},</p><p>Please find attached your Certificate of Submission for {{.CourseCode}}: {{.CourseTitle}}.</p>{{end}}
{{define "deadline"}}<html>
<body style="font-family: Arial, sans-serif;">
    <h3 style="color:#d32f2f;">Deadline Reminder</h3>
    <p><strong>IM-{{.MaterialID}}</strong>{{if .SubjectName}} ({{.SubjectName}}){{end}} is due in <strong>{{.DaysRemaining}} day(s)</strong></p>
    <p>Due Date: {{.DueDate}}</p>
    <p>Submit before deadline to avoid delays.</p>
</body>
</html>{{end}}
{{define "past_due"}}<html>
<body style="font-family: Arial, sans-serif;">
    <h3 style="color:#d32f2f;">PAST DUE NOTICE</h3>
    <p><strong>IM-{{.MaterialID}}</strong>{{if .SubjectName}} ({{.SubjectName}}){{end}} is <strong style="color:#d32f2f;">PAST DUE</strong></p>
    <p>Original Due Date: {{.DueDate}}</p>
    <p>Please submit immediately to avoid further delays.</p>
</body>
</html>{{end}}
{{define "appreciation"}}<html>
<body style="font-family: Arial, sans-serif; color: #222; line-height:1.4;">
  <h2 style="color:#0b3255;">Certificate of Appreciation</h2>
  <p>Congratulations.</p>
  <p>This certificate is presented in recognition of the exemplary services and significant contributions made
     in the preparation and development of instructional materials.</p>
  <p><strong>Awarded to:</strong>{{range .}}<br>
  <strong>{{.}}</strong>{{end}}
  </p>
  <p>We sincerely thank the above individuals for their dedication and commitment to quality teaching and learning.</p>
  <br>
  <p>With appreciation,<br>
     The Instructional Materials Committee</p>
</body>
</html>{{end}}
`))

// AppreciationSubject is the default subject of appreciation mailings.
const AppreciationSubject = "Certificate of Appreciation - Instructional Materials"

// AppreciationBody renders the default HTML and plain text bodies that
// accompany an appreciation file sent to the named authors.
func AppreciationBody(authorNames []string) (html, text string, err error) {
	html, err = execTemplate("appreciation", authorNames)
	if err != nil {
		return "", "", err
	}
	text = "Certificate of Appreciation\n\n" +
		"Congratulations.\n\n" +
		"This certificate is presented in recognition of the contributions made in the preparation and development of instructional materials.\n\n" +
		"Awarded to:\n" + strings.Join(authorNames, ", ") + "\n\n" +
		"With appreciation,\nThe Instructional Materials Committee"
	return html, text, nil
}

func execTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}

func renderStatusChange(n StatusChangeNotice) (MailMessage, error) {
	action := strings.ToLower(strings.TrimSpace(n.Action))
	if action == "" {
		action = "updated"
	}
	n.Action = action
	if strings.TrimSpace(n.Notes) == "" {
		n.Notes = "No additional notes"
	}
	html, err := execTemplate("status_change", n)
	if err != nil {
		return MailMessage{}, err
	}
	return MailMessage{
		Subject: fmt.Sprintf("Instructional Material %s: %s", capitalize(action), n.FileName),
		HTML:    html,
	}, nil
}

func renderCertificate(n CertificateNotice) (MailMessage, error) {
	html, err := execTemplate("certificate", n)
	if err != nil {
		return MailMessage{}, err
	}
	msg := MailMessage{
		Subject: "Certificate of Submission - " + n.CourseCode,
		HTML:    html,
	}
	for _, a := range n.Attachments {
		if len(a.Content) > 0 {
			msg.Attachments = append(msg.Attachments, a)
		}
	}
	return msg, nil
}

func renderFile(n FileNotice) (MailMessage, error) {
	if strings.TrimSpace(n.FileName) == "" || len(n.Content) == 0 {
		return MailMessage{}, fmt.Errorf("file name and content required")
	}
	subject := n.Subject
	if strings.TrimSpace(subject) == "" {
		subject = "File from Instructional Materials: " + n.FileName
	}
	html := n.HTML
	if strings.TrimSpace(html) == "" && strings.TrimSpace(n.Text) == "" {
		html = "<p>Please find the attached file.</p>"
	}
	return MailMessage{
		Subject:     subject,
		HTML:        html,
		Text:        n.Text,
		Attachments: []MailAttachment{{Filename: n.FileName, Content: n.Content}},
	}, nil
}

func renderDeadline(n DeadlineNotice) (MailMessage, error) {
	html, err := execTemplate("deadline", n)
	if err != nil {
		return MailMessage{}, err
	}
	return MailMessage{
		Subject: fmt.Sprintf("Deadline Reminder: Instructional Material Due in %d Day(s)", n.DaysRemaining),
		HTML:    html,
	}, nil
}

func renderPastDue(n DeadlineNotice) (MailMessage, error) {
	html, err := execTemplate("past_due", n)
	if err != nil {
		return MailMessage{}, err
	}
	return MailMessage{
		Subject: "PAST DUE: Instructional Material Overdue",
		HTML:    html,
	}, nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
