package tools

import (
	"log/slog"

	"github.com/usestring/threatfox/internal/config"
	"github.com/usestring/threatfox/internal/query"
	"github.com/usestring/threatfox/pkg/client"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Client   *client.Client
	Resolver *config.Resolver // optional, supplies max_result_constraint
	Query    *query.Engine
}

// Limit resolves a requested result limit: 0 means client.DefaultLimit, and
// the result never exceeds the configured max_result_constraint.
func (d *Deps) Limit(requested int) (int, error) {
	if requested < 0 || requested > client.MaxLimit {
		return 0, ErrInvalidInput("limit must be between 1 and 1000")
	}
	limit := requested
	if limit == 0 {
		limit = client.DefaultLimit
	}

	if d.Resolver == nil {
		return limit, nil
	}
	max, ok, err := d.Resolver.MaxResultConstraint()
	if err != nil {
		slog.Warn("ignoring max_result_constraint", slog.String("error", err.Error()))
		return limit, nil
	}
	if ok && max > 0 && limit > max {
		slog.Debug("limit capped by max_result_constraint",
			slog.Int("requested", limit),
			slog.Int("max", max),
		)
		limit = max
	}
	return limit, nil
}
