package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/itamcloud/itam-backend/internal/auth/jwt"
	"github.com/itamcloud/itam-backend/pkg/config"
)

type TokenCmd struct {
	Subject    string        `help:"Profile ID the token is issued for" required:""`
	Email      string        `help:"Optional email claim"`
	TTL        time.Duration `help:"Token lifetime" default:"1h"`
	SigningKey string        `help:"JWT signing key" env:"ITAM_JWT_SECRET" default:"${jwt_secret}"`
	Issuer     string        `help:"Token issuer" default:"itam"`
}

func (t *TokenCmd) Run(ctx context.Context, globals *Globals) error {
	manager := jwt.NewManager(&config.JWTConfig{
		Secret:       t.SigningKey,
		Issuer:       t.Issuer,
		AccessExpiry: t.TTL,
	})

	token, _, err := manager.GenerateToken(t.Subject, t.Email)
	if err != nil {
		return err
	}

	fmt.Fprintln(globals.Out, token)
	return nil
}
