package tablesession

import (
	"go.uber.org/fx"

	"github.com/baizehq/baize/internal/tablesession/repository"
	"github.com/baizehq/baize/internal/tablesession/service"
)

var Module = fx.Module("tablesession.service",
	fx.Provide(repository.New),
	fx.Provide(repository.NewActiveCache),
	fx.Provide(service.New),
)
