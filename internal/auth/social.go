package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/tenantgate/tenantgate/internal/db/controller/user"
	"github.com/tenantgate/tenantgate/internal/db/models"
	"github.com/tenantgate/tenantgate/internal/uniuri"
)

const statePrefix = "oauth_state:"

// SocialProfile is what a provider tells about the signed-in person.
type SocialProfile struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	Image         string
	Token         *oauth2.Token
	IDToken       string
}

// SocialProvider is an oauth sign-in provider like Google or GitHub.
type SocialProvider interface {
	// ID is the provider id used in urls and accounts.
	ID() string
	// AuthCodeURL is the consent page the browser is sent to.
	AuthCodeURL(state string) string
	// Exchange trades the callback code for the profile.
	Exchange(ctx context.Context, code string) (*SocialProfile, error)
}

// SocialStart is the payload that starts a social sign-in.
type SocialStart struct {
	Provider           string `json:"provider" query:"provider" validate:"required"`
	CallbackURL        string `json:"callbackURL" query:"callbackURL"`
	ErrorCallbackURL   string `json:"errorCallbackURL" query:"errorCallbackURL"`
	NewUserCallbackURL string `json:"newUserCallbackURL" query:"newUserCallbackURL"`
}

// SocialResult is the outcome of a finished social sign-in.
type SocialResult struct {
	CurrentSession
	// Redirect is where the browser continues.
	Redirect string
	// IsNewUser is true when the sign-in created the user.
	IsNewUser bool
}

type stateData struct {
	Provider           string `json:"provider"`
	CallbackURL        string `json:"callbackURL"`
	ErrorCallbackURL   string `json:"errorCallbackURL"`
	NewUserCallbackURL string `json:"newUserCallbackURL"`
}

// StartSocial stores the sign-in state and returns the provider consent url.
func (e *Engine) StartSocial(_ context.Context, in SocialStart) (string, error) {
	p, ok := e.providers[in.Provider]
	if !ok {
		return "", ErrProviderNotFound
	}

	for _, target := range []string{in.CallbackURL, in.ErrorCallbackURL, in.NewUserCallbackURL} {
		if target != "" && !IsTrusted(e.opts.TrustedOrigins, target) {
			return "", ErrUntrustedCallback
		}
	}

	data, err := json.Marshal(stateData{
		Provider:           p.ID(),
		CallbackURL:        in.CallbackURL,
		ErrorCallbackURL:   in.ErrorCallbackURL,
		NewUserCallbackURL: in.NewUserCallbackURL,
	})
	if err != nil {
		return "", fmt.Errorf("encode oauth state: %w", err)
	}

	state := uniuri.New()
	if err = e.states.Set(statePrefix+state, data, defaultStateExpiry); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}

	return p.AuthCodeURL(state), nil
}

// ErrorRedirect returns the error callback stored with state, "" when unknown.
// It does not consume the state.
func (e *Engine) ErrorRedirect(state string) string {
	if e.states == nil || state == "" {
		return ""
	}

	raw, err := e.states.Get(statePrefix + state)
	if err != nil || len(raw) == 0 {
		return ""
	}

	var data stateData
	if err = json.Unmarshal(raw, &data); err != nil {
		return ""
	}

	return data.ErrorCallbackURL
}

func (e *Engine) takeState(providerID, state string) (*stateData, error) {
	if state == "" {
		return nil, ErrInvalidState
	}

	raw, err := e.states.Get(statePrefix + state)
	if err != nil {
		return nil, fmt.Errorf("load oauth state: %w", err)
	}

	// storages return nil for missing and expired keys
	if len(raw) == 0 {
		return nil, ErrInvalidState
	}

	if err = e.states.Delete(statePrefix + state); err != nil {
		return nil, fmt.Errorf("delete oauth state: %w", err)
	}

	var data stateData
	if err = json.Unmarshal(raw, &data); err != nil {
		return nil, ErrInvalidState
	}

	if data.Provider != providerID {
		return nil, ErrInvalidState
	}

	return &data, nil
}

// FinishSocial validates the state, exchanges the code, finds or creates the user and signs in.
func (e *Engine) FinishSocial(ctx context.Context, providerID, state, code string, meta RequestMeta) (res *SocialResult, err error) {
	defer func() { countSignIn(providerID, err) }()

	p, ok := e.providers[providerID]
	if !ok {
		return nil, ErrProviderNotFound
	}

	data, err := e.takeState(providerID, state)
	if err != nil {
		return nil, err
	}

	profile, err := p.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s exchange: %w", providerID, err)
	}

	if profile.Email == "" {
		return nil, ErrNoEmail
	}

	u, isNew, err := e.linkSocialAccount(ctx, providerID, profile)
	if err != nil {
		return nil, err
	}

	s, err := e.createSession(ctx, u.ID, meta)
	if err != nil {
		return nil, err
	}

	res = &SocialResult{CurrentSession: CurrentSession{Session: *s, User: *u}, IsNewUser: isNew, Redirect: data.CallbackURL}
	if isNew && data.NewUserCallbackURL != "" {
		res.Redirect = data.NewUserCallbackURL
	}

	if res.Redirect == "" {
		res.Redirect = "/"
	}

	return res, nil
}

// linkSocialAccount resolves the user of a social profile.
// Known accounts sign in, verified emails of existing users get the account linked,
// unknown emails create a user.
func (e *Engine) linkSocialAccount(ctx context.Context, providerID string, profile *SocialProfile) (*models.User, bool, error) {
	db := e.db.WithContext(ctx)

	account, err := user.GetAccount(db, providerID, profile.ID)

	switch {
	case err == nil:
		applyTokens(account, profile)

		if err = user.SaveAccount(db, account); err != nil {
			return nil, false, err
		}

		u, getErr := user.Get(db, account.UserID)

		return u, false, getErr
	case !errors.Is(err, user.ErrAccountNotFound):
		return nil, false, err
	}

	account = &models.Account{ProviderID: providerID, AccountID: profile.ID}
	applyTokens(account, profile)

	u, err := user.GetByEmail(db, profile.Email)

	switch {
	case err == nil:
		if !profile.EmailVerified {
			return nil, false, ErrAccountNotLinked
		}

		account.UserID = u.ID
		if err = user.SaveAccount(db, account); err != nil {
			return nil, false, err
		}

		if !u.EmailVerified {
			if err = user.MarkEmailVerified(db, u.ID); err != nil {
				return nil, false, err
			}

			u.EmailVerified = true
		}

		if u.Image == "" && profile.Image != "" {
			if err = user.UpdateProfile(db, u.ID, "", profile.Image); err != nil {
				return nil, false, err
			}

			u.Image = profile.Image
		}

		return u, false, nil
	case !errors.Is(err, user.ErrUserNotFound):
		return nil, false, err
	}

	name := profile.Name
	if name == "" {
		name = profile.Email
	}

	u = &models.User{Name: name, Email: profile.Email, EmailVerified: profile.EmailVerified, Image: profile.Image}
	if err = user.CreateWithAccount(db, u, account); err != nil {
		return nil, false, err
	}

	return u, true, nil
}

func applyTokens(a *models.Account, profile *SocialProfile) {
	a.IDToken = profile.IDToken

	if profile.Token == nil {
		return
	}

	a.AccessToken = profile.Token.AccessToken
	a.RefreshToken = profile.Token.RefreshToken

	if !profile.Token.Expiry.IsZero() {
		exp := profile.Token.Expiry.UTC().Truncate(time.Second)
		a.AccessTokenExpiresAt = &exp
	}

	if scope, ok := profile.Token.Extra("scope").(string); ok {
		a.Scope = scope
	}
}
