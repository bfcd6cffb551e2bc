package commands

import (
	"context"
	"fmt"
)

type RunCmd struct {
	FailOnError bool `help:"Exit non-zero when any organization failed to score"`
}

func (c *RunCmd) Run(ctx context.Context, globals *Globals) error {
	engine, cleanup, err := globals.engine()
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := engine.RunPass(cliContext(ctx))
	if err != nil {
		return err
	}

	if err := globals.printJSON(report); err != nil {
		return err
	}

	if c.FailOnError && report.Failed > 0 {
		return fmt.Errorf("%d of %d organizations failed to score", report.Failed, report.Processed)
	}
	return nil
}
