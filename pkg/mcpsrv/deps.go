package mcpsrv

import (
	"github.com/usestring/threatfox/internal/config"
	"github.com/usestring/threatfox/internal/query"
	"github.com/usestring/threatfox/pkg/client"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same infrastructure as builtin tools.
type Deps struct {
	Client   *client.Client
	Resolver *config.Resolver
	Query    *query.Engine
}
