package commands

import (
	"context"

	"github.com/itamcloud/itam-backend/pkg/httputil"
)

type ScoreCmd struct {
	OrganizationID string `arg:"" name:"org-id" help:"Organization UUID"`
}

func (c *ScoreCmd) Validate() error {
	return httputil.ValidateVar("org-id", c.OrganizationID, "required,uuid")
}

func (c *ScoreCmd) Run(ctx context.Context, globals *Globals) error {
	engine, cleanup, err := globals.engine()
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := engine.ScoreOrganization(cliContext(ctx), c.OrganizationID)
	if err != nil {
		return err
	}

	return globals.printJSON(result)
}
