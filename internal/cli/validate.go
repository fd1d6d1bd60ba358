package cli

import (
	"fmt"

	"github.com/julianstephens/wellcheck/internal/validation"
)

type ValidateCmd struct{}

func (cmd *ValidateCmd) Run(ctx *Context) error {
	entries, err := ctx.Store.Load()
	if err != nil {
		return fmt.Errorf("failed to load storage: %w", err)
	}

	ctx.printf("Validating %d entries...\n", len(entries))
	result := validation.New().ValidateLog(entries, ctx.today())

	// Print report
	ctx.println()
	ctx.println(result.FormatReport())

	// Issues are reported, not treated as a failure; loading already repairs them
	return nil
}
