package services

import (
	"crypto/hmac"
	"fmt"

	"edinetfetch/internal/config"
)

// Authorizer checks the caller's shared secret against the configured one.
type Authorizer struct {
	accessToken string
	edinetKey   string
}

func NewAuthorizer(cfg config.Config) *Authorizer {
	return &Authorizer{
		accessToken: cfg.AccessToken,
		edinetKey:   cfg.EdinetKey,
	}
}

// CheckConfig reports a missing secret. It needs nothing from the caller, so
// it can run before the request body is read.
func (a *Authorizer) CheckConfig() error {
	if a.accessToken == "" {
		return fmt.Errorf("%w: ACCESS_TOKEN is not set", ErrConfiguration)
	}
	if a.edinetKey == "" {
		return fmt.Errorf("%w: EDINET_KEY is not set", ErrConfiguration)
	}
	return nil
}

// Authorize reports a configuration error before comparing tokens, so a
// misconfigured process never answers 401.
func (a *Authorizer) Authorize(token string) error {
	if err := a.CheckConfig(); err != nil {
		return err
	}
	if !hmac.Equal([]byte(token), []byte(a.accessToken)) {
		return ErrUnauthorized
	}
	return nil
}
