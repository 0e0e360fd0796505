package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// LinkEmailData holds data for the single-link email templates used by the
// verification and password reset flows.
type LinkEmailData struct {
	SiteName   string
	Username   string
	Intro      string // one-sentence explanation of why the mail was sent
	ButtonText string
	Link       string
	ExpiresIn  string // e.g., "20 minutes"
}

// BuildVerificationEmail creates the account verification email.
// The caller sets To.
func BuildVerificationEmail(siteName, username, link, expiresIn string) Email {
	data := LinkEmailData{
		SiteName:   siteName,
		Username:   username,
		Intro:      "Welcome! Please verify your email address to activate your account.",
		ButtonText: "Verify Email",
		Link:       link,
		ExpiresIn:  expiresIn,
	}
	return Email{
		Subject:  fmt.Sprintf("Verify your %s email address", siteName),
		TextBody: buildLinkText(data),
		HTMLBody: buildLinkHTML(data),
	}
}

// BuildPasswordResetEmail creates the forgot-password email.
// The caller sets To.
func BuildPasswordResetEmail(siteName, username, link, expiresIn string) Email {
	data := LinkEmailData{
		SiteName:   siteName,
		Username:   username,
		Intro:      "We received a request to reset the password for your account.",
		ButtonText: "Reset Password",
		Link:       link,
		ExpiresIn:  expiresIn,
	}
	return Email{
		Subject:  fmt.Sprintf("Reset your %s password", siteName),
		TextBody: buildLinkText(data),
		HTMLBody: buildLinkHTML(data),
	}
}

func buildLinkText(data LinkEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.Username))
	buf.WriteString(data.Intro + "\n\n")
	buf.WriteString("Open this link to continue:\n")
	buf.WriteString(data.Link + "\n\n")
	buf.WriteString(fmt.Sprintf("This link expires in %s.\n\n", data.ExpiresIn))
	buf.WriteString("If you did not request this, you can safely ignore this email.\n")
	return buf.String()
}

func buildLinkHTML(data LinkEmailData) string {
	tmpl := template.Must(template.New("link").Parse(linkHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const linkHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.ButtonText}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.Username}},
              </p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                {{.Intro}}
              </p>

              <!-- Button -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.Link}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      {{.ButtonText}}
                    </a>
                  </td>
                </tr>
              </table>

              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">
                This link expires in {{.ExpiresIn}}.
              </p>
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                If you did not request this, you can safely ignore this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
