package table

import (
	"go.uber.org/fx"

	tabledomain "github.com/baizehq/baize/internal/table/domain"
	"github.com/baizehq/baize/internal/table/service"
	"github.com/baizehq/baize/pkg/repository"
)

var Module = fx.Module("table.service",
	fx.Provide(repository.ProvideStore[tabledomain.Table]),
	fx.Provide(service.New),
)
