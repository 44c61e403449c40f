package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrInvalidEmailOrPassword is returned for unknown emails and wrong passwords alike.
	ErrInvalidEmailOrPassword = errors.New("invalid email or password")

	// ErrEmailNotVerified is returned when email verification is required but missing.
	ErrEmailNotVerified = errors.New("email not verified")

	// ErrUserAlreadyExists is returned on sign up with a registered email.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrInvalidEmail is returned for malformed email addresses.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrPasswordTooShort is returned when the password is below the minimum length.
	ErrPasswordTooShort = errors.New("password too short")

	// ErrPasswordTooLong is returned when the password is above the maximum length.
	ErrPasswordTooLong = errors.New("password too long")

	// ErrEmailPasswordDisabled is returned when email and password sign-in is switched off.
	ErrEmailPasswordDisabled = errors.New("email and password sign-in is disabled")

	// ErrInvalidToken is returned for unknown, used or expired verification and reset tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthorized is returned when no valid session is present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the member role lacks the required permission.
	ErrForbidden = errors.New("you are not allowed to perform this action")

	// ErrNoActiveOrganization is returned when an organization scoped call has no organization.
	ErrNoActiveOrganization = errors.New("no active organization")

	// ErrOrganizationNotFound is returned for unknown organizations.
	ErrOrganizationNotFound = errors.New("organization not found")

	// ErrSlugTaken is returned when the organization slug is in use.
	ErrSlugTaken = errors.New("organization slug already exists")

	// ErrNotMember is returned when the user is not a member of the organization.
	ErrNotMember = errors.New("user is not a member of the organization")

	// ErrMemberNotFound is returned for unknown members.
	ErrMemberNotFound = errors.New("member not found")

	// ErrAlreadyMember is returned when inviting or adding an existing member.
	ErrAlreadyMember = errors.New("user is already a member of this organization")

	// ErrAlreadyInvited is returned when a pending invitation for the email exists.
	ErrAlreadyInvited = errors.New("user is already invited to this organization")

	// ErrMembershipLimitReached is returned when the organization is full.
	ErrMembershipLimitReached = errors.New("organization membership limit reached")

	// ErrInvitationNotFound is returned for unknown, closed or expired invitations.
	ErrInvitationNotFound = errors.New("invitation not found")

	// ErrNotInvitationRecipient is returned when the signed-in email differs from the invited one.
	ErrNotInvitationRecipient = errors.New("you are not the recipient of the invitation")

	// ErrLastOwner is returned when the only owner would be removed or demoted.
	ErrLastOwner = errors.New("cannot remove the last owner of the organization")

	// ErrInvalidRole is returned for roles other than owner, admin and member.
	ErrInvalidRole = errors.New("invalid role")

	// ErrProviderNotFound is returned for social providers that are not configured.
	ErrProviderNotFound = errors.New("social provider not found")

	// ErrInvalidState is returned when the oauth state is unknown or expired.
	ErrInvalidState = errors.New("invalid oauth state")

	// ErrUntrustedCallback is returned for redirect targets outside the trusted origins.
	ErrUntrustedCallback = errors.New("callback url is not trusted")

	// ErrNoEmail is returned when the social provider did not disclose an email.
	ErrNoEmail = errors.New("social provider returned no email")

	// ErrAccountNotLinked is returned when a social account would be linked to an unverified email.
	ErrAccountNotLinked = errors.New("account not linked")

	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrInvalidInput is returned when a payload fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNilDB is returned when the engine is created without database.
	ErrNilDB = errors.New("auth engine needs a database")

	// ErrNilStateStorage is returned when social providers are configured without state storage.
	ErrNilStateStorage = errors.New("social sign-in needs a state storage")
)

// errorCode maps an error to its http status and stable code.
type errorCode struct {
	err    error
	status int
	code   string
}

var errorCodes = []errorCode{ //nolint:gochecknoglobals
	{ErrInvalidEmailOrPassword, fiber.StatusUnauthorized, "INVALID_EMAIL_OR_PASSWORD"},
	{ErrEmailNotVerified, fiber.StatusForbidden, "EMAIL_NOT_VERIFIED"},
	{ErrUserAlreadyExists, fiber.StatusUnprocessableEntity, "USER_ALREADY_EXISTS"},
	{ErrInvalidEmail, fiber.StatusBadRequest, "INVALID_EMAIL"},
	{ErrPasswordTooShort, fiber.StatusBadRequest, "PASSWORD_TOO_SHORT"},
	{ErrPasswordTooLong, fiber.StatusBadRequest, "PASSWORD_TOO_LONG"},
	{ErrEmailPasswordDisabled, fiber.StatusBadRequest, "EMAIL_PASSWORD_DISABLED"},
	{ErrInvalidToken, fiber.StatusBadRequest, "INVALID_TOKEN"},
	{ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{ErrNoActiveOrganization, fiber.StatusBadRequest, "NO_ACTIVE_ORGANIZATION"},
	{ErrOrganizationNotFound, fiber.StatusNotFound, "ORGANIZATION_NOT_FOUND"},
	{ErrSlugTaken, fiber.StatusBadRequest, "ORGANIZATION_ALREADY_EXISTS"},
	{ErrNotMember, fiber.StatusForbidden, "USER_IS_NOT_A_MEMBER_OF_THE_ORGANIZATION"},
	{ErrMemberNotFound, fiber.StatusNotFound, "MEMBER_NOT_FOUND"},
	{ErrAlreadyMember, fiber.StatusBadRequest, "USER_IS_ALREADY_A_MEMBER_OF_THIS_ORGANIZATION"},
	{ErrAlreadyInvited, fiber.StatusBadRequest, "USER_IS_ALREADY_INVITED_TO_THIS_ORGANIZATION"},
	{ErrMembershipLimitReached, fiber.StatusForbidden, "ORGANIZATION_MEMBERSHIP_LIMIT_REACHED"},
	{ErrInvitationNotFound, fiber.StatusNotFound, "INVITATION_NOT_FOUND"},
	{ErrNotInvitationRecipient, fiber.StatusForbidden, "YOU_ARE_NOT_THE_RECIPIENT_OF_THE_INVITATION"},
	{ErrLastOwner, fiber.StatusBadRequest, "YOU_CANNOT_LEAVE_THE_ORGANIZATION_AS_THE_ONLY_OWNER"},
	{ErrInvalidRole, fiber.StatusBadRequest, "INVALID_ROLE"},
	{ErrProviderNotFound, fiber.StatusNotFound, "PROVIDER_NOT_FOUND"},
	{ErrInvalidState, fiber.StatusBadRequest, "STATE_MISMATCH"},
	{ErrUntrustedCallback, fiber.StatusForbidden, "INVALID_CALLBACK_URL"},
	{ErrNoEmail, fiber.StatusBadRequest, "EMAIL_NOT_FOUND"},
	{ErrAccountNotLinked, fiber.StatusUnauthorized, "ACCOUNT_NOT_LINKED"},
	{ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION_ERROR"},
}

// ErrorCode returns the http status and the stable error code of err.
// Unknown errors map to 500 and INTERNAL_SERVER_ERROR.
func ErrorCode(err error) (int, string) {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.status, ec.code
		}
	}

	return fiber.StatusInternalServerError, "INTERNAL_SERVER_ERROR"
}
