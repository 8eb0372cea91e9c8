package sheets

import (
	"context"

	"financas/internal/core"
)

// Ports for outbound adapters.
type (
	// EntryWriter appends a settled entry to an external sheet.
	EntryWriter interface {
		Append(ctx context.Context, e core.Entry) (rowRef string, err error)
	}
)
