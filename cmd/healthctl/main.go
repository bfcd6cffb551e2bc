package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"
	"github.com/itamcloud/itam-backend/cmd/healthctl/internal/commands"
	"github.com/itamcloud/itam-backend/pkg/config"
)

var (
	version = "dev"
	cli     struct {
		Run     commands.RunCmd   `cmd:"" help:"Run one health score pass over every organization"`
		Score   commands.ScoreCmd `cmd:"" help:"Rescore a single organization"`
		Token   commands.TokenCmd `cmd:"" help:"Mint a bearer token for local testing"`
		Debug   bool              `help:"Enable debug logging."`
		Version kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("healthctl"),
		kong.Description("Organization health score operator tool"),
		kong.Vars{
			"version":    version,
			"jwt_secret": config.DefaultJWTSecret,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version, Out: os.Stdout})
	cmd.FatalIfErrorf(err)
}
