package handler

import (
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tenantgate/tenantgate/internal/auth"
	"github.com/tenantgate/tenantgate/internal/config"
	"github.com/tenantgate/tenantgate/internal/web/navigation"
)

// Validate checks the page forms.
var Validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals

// toasts are the messages shown for error codes passed in ?error=.
var toasts = map[string]string{ //nolint:gochecknoglobals
	"INVALID_EMAIL_OR_PASSWORD": "Invalid email or password",
	"EMAIL_NOT_VERIFIED":        "Please verify your email address first, we sent you a link",
	"USER_ALREADY_EXISTS":       "An account with this email already exists",
	"INVALID_TOKEN":             "The link is invalid or has expired",
	"ACCESS_DENIED":             "Sign-in was canceled",
	"ACCOUNT_NOT_LINKED":        "This email is linked to another sign-in method",
	"PROVIDER_NOT_FOUND":        "This sign-in method is not available",
	"STATE_MISMATCH":            "Sign-in took too long, please try again",
	"INVITATION_NOT_FOUND":      "The invitation does not exist or has expired",
	"INTERNAL_SERVER_ERROR":     "Something went wrong, please try again",
}

// notices are the messages shown for ?notice=.
var notices = map[string]string{ //nolint:gochecknoglobals
	"password-reset":      "Your password was changed, please sign in",
	"email-verified":      "Your email address is verified",
	"invited":             "Invitation sent",
	"organization-added":  "Organization created",
	"invitation-accepted": "You joined the organization",
	"invitation-rejected": "Invitation declined",
}

// Toast is the message for an error code, unknown codes are shown as they are.
func Toast(code string) string {
	if code == "" {
		return ""
	}

	if msg, ok := toasts[strings.ToUpper(code)]; ok {
		return msg
	}

	return code
}

// Notice is the message for a notice key or "".
func Notice(key string) string {
	return notices[key]
}

// ErrorToast maps an engine error to its message.
func ErrorToast(err error) string {
	_, code := auth.ErrorCode(err)

	if msg, ok := toasts[code]; ok {
		return msg
	}

	return err.Error()
}

// FieldErrors maps form field names to validation messages.
func FieldErrors(err error) map[string]string {
	out := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return out
	}

	for _, fe := range verrs {
		name := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]

		switch fe.Tag() {
		case "required":
			out[name] = "This field is required"
		case "email":
			out[name] = "Please enter a valid email address"
		case "min":
			out[name] = "Must be at least " + fe.Param() + " characters"
		case "max":
			out[name] = "Must be at most " + fe.Param() + " characters"
		default:
			out[name] = "Invalid value"
		}
	}

	return out
}

// Render renders a page in the base layout with the values every page uses.
func Render(c *fiber.Ctx, cfg *config.Config, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}

	cur := auth.Current(c)

	data["Title"] = cfg.Title
	data["Page"] = name
	data["Current"] = cur
	data["Nav"] = navigation.For(cur != nil, name)

	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}

	if _, ok := data["Notice"]; !ok {
		data["Notice"] = Notice(c.Query("notice"))
	}

	return c.Render(name, data, BaseLayout)
}

// WithQuery adds key=value to a path.
func WithQuery(path, key, value string) string {
	return auth.AddQuery(path, key, value)
}

// LoginRedirect is the login page that continues at target after sign-in.
func LoginRedirect(target string) string {
	return LoginPath + "?redirectTo=" + url.QueryEscape(target)
}
