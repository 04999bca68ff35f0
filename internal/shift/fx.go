package shift

import (
	"go.uber.org/fx"

	"github.com/baizehq/baize/internal/shift/repository"
	"github.com/baizehq/baize/internal/shift/service"
)

var Module = fx.Module("shift.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
