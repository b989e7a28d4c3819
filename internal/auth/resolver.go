package auth

import (
	"strings"

	"roombook/internal/config"
	"roombook/internal/models"

	"github.com/rs/zerolog"
)

const bearerPrefix = "bearer "

// Resolver maps request credentials to an identity according to auth.mode.
// In "both" mode a bearer token, when sent, takes precedence over the headers.
type Resolver struct {
	mode           string
	tokens         *TokenIssuer
	headerUsername string
	headerRole     string
	logger         zerolog.Logger
}

func NewResolver(cfg config.AuthConfig, tokens *TokenIssuer, logger *zerolog.Logger) *Resolver {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "auth").Logger()
	}
	return &Resolver{
		mode:           cfg.Mode,
		tokens:         tokens,
		headerUsername: cfg.HeaderUsername,
		headerRole:     cfg.HeaderRole,
		logger:         l,
	}
}

// Resolve never fails: unusable credentials resolve to models.Anonymous.
func (r *Resolver) Resolve(authorization string, header func(string) string) models.Identity {
	if r.mode != config.AuthModeHeaders {
		if token, ok := bearerToken(authorization); ok {
			return r.fromToken(token)
		}
		if r.mode == config.AuthModeJWT {
			return models.Anonymous
		}
	}
	return r.fromHeaders(header)
}

func (r *Resolver) fromToken(token string) models.Identity {
	if r.tokens == nil {
		return models.Anonymous
	}
	claims, err := r.tokens.Parse(token)
	if err != nil {
		r.logger.Debug().Err(err).Msg("rejected bearer token")
		return models.Anonymous
	}
	return models.Identity{Username: claims.Username, Role: claims.Role}
}

func (r *Resolver) fromHeaders(header func(string) string) models.Identity {
	if header == nil {
		return models.Anonymous
	}
	role := strings.TrimSpace(header(r.headerRole))
	if role == "" {
		return models.Anonymous
	}
	return models.Identity{
		Username: strings.TrimSpace(header(r.headerUsername)),
		Role:     role,
	}
}

func bearerToken(authorization string) (string, bool) {
	authorization = strings.TrimSpace(authorization)
	if len(authorization) <= len(bearerPrefix) || !strings.EqualFold(authorization[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(authorization[len(bearerPrefix):])
	return token, token != ""
}
