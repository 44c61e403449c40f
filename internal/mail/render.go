package mail

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gofiber/template/html/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.gohtml
var templates embed.FS

const layout = "layout"

// message keys, the english text doubles as key
const (
	subjectVerify     = "Verify your email"
	subjectReset      = "Reset your password"
	subjectInvitation = "You've been invited to join our organization"

	textVerify     = "Hi %s, confirm your email address by opening %s"
	textReset      = "Hi %s, a password reset was requested for %s. Choose a new password at %s"
	textInvitation = "%s (%s) has invited you to join %s. Accept the invitation at %s"
)

func init() { //nolint:gochecknoinits
	for key, msg := range map[string]string{
		subjectVerify:     "Bestätige deine E-Mail-Adresse",
		subjectReset:      "Setze dein Passwort zurück",
		subjectInvitation: "Du wurdest in unsere Organisation eingeladen",
		textVerify:        "Hallo %s, bestätige deine E-Mail-Adresse unter %s",
		textReset:         "Hallo %s, für %s wurde ein neues Passwort angefordert. Vergib es unter %s",
		textInvitation:    "%s (%s) hat dich zu %s eingeladen. Nimm die Einladung unter %s an",
	} {
		_ = message.SetString(language.German, key, msg)
	}
}

// Invitation is the content of an organization invitation email.
type Invitation struct {
	Email             string
	InvitedByUsername string
	InvitedByEmail    string
	TeamName          string
	InviteLink        string
}

// Renderer turns email content into messages.
type Renderer struct {
	engine  *html.Engine
	printer *message.Printer
	title   string
}

// NewRenderer parses the embedded templates. Subjects and plain text parts are
// localized for lang, english is used for unknown languages.
func NewRenderer(title string, lang language.Tag) (*Renderer, error) {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open email templates: %w", err)
	}

	engine := html.NewFileSystem(http.FS(sub), ".gohtml")

	if err = engine.Load(); err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	return &Renderer{engine: engine, printer: message.NewPrinter(lang), title: title}, nil
}

func (r *Renderer) render(name string, data map[string]any) (string, error) {
	data["Title"] = r.title

	var buf bytes.Buffer
	if err := r.engine.Render(&buf, name, data, layout); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", name, err)
	}

	return buf.String(), nil
}

func displayName(name, email string) string {
	if strings.TrimSpace(name) == "" {
		return email
	}

	return name
}

// Verification renders the email that confirms an address.
func (r *Renderer) Verification(to, username, verifyURL string) (Message, error) {
	username = displayName(username, to)

	body, err := r.render("verify-email", map[string]any{
		"Username":  username,
		"VerifyURL": verifyURL,
	})
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      to,
		Subject: r.printer.Sprintf(subjectVerify),
		HTML:    body,
		Text:    r.printer.Sprintf(textVerify, username, verifyURL),
	}, nil
}

// ResetPassword renders the email with the password reset link.
func (r *Renderer) ResetPassword(to, username, resetURL string) (Message, error) {
	username = displayName(username, to)

	body, err := r.render("reset-password", map[string]any{
		"Username":  username,
		"UserEmail": to,
		"ResetURL":  resetURL,
	})
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      to,
		Subject: r.printer.Sprintf(subjectReset),
		HTML:    body,
		Text:    r.printer.Sprintf(textReset, username, to, resetURL),
	}, nil
}

// OrganizationInvitation renders the invitation with its deep link.
func (r *Renderer) OrganizationInvitation(in Invitation) (Message, error) {
	inviter := displayName(in.InvitedByUsername, in.InvitedByEmail)

	body, err := r.render("organization-invitation", map[string]any{
		"Email":             in.Email,
		"InvitedByUsername": inviter,
		"InvitedByEmail":    in.InvitedByEmail,
		"TeamName":          in.TeamName,
		"InviteLink":        in.InviteLink,
	})
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      in.Email,
		Subject: r.printer.Sprintf(subjectInvitation),
		HTML:    body,
		Text:    r.printer.Sprintf(textInvitation, inviter, in.InvitedByEmail, in.TeamName, in.InviteLink),
	}, nil
}
