package inventory

import (
	"go.uber.org/fx"

	inventorydomain "github.com/baizehq/baize/internal/inventory/domain"
	"github.com/baizehq/baize/internal/inventory/repository"
	"github.com/baizehq/baize/internal/inventory/service"
	pkgrepository "github.com/baizehq/baize/pkg/repository"
)

var Module = fx.Module("inventory.service",
	fx.Provide(pkgrepository.ProvideStore[inventorydomain.Item]),
	fx.Provide(repository.NewStock),
	fx.Provide(service.New),
)
