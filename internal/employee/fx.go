package employee

import (
	"go.uber.org/fx"

	employeedomain "github.com/baizehq/baize/internal/employee/domain"
	"github.com/baizehq/baize/internal/employee/service"
	"github.com/baizehq/baize/pkg/repository"
)

var Module = fx.Module("employee.service",
	fx.Provide(repository.ProvideStore[employeedomain.Employee]),
	fx.Provide(service.New),
)
