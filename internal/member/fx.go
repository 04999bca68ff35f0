package member

import (
	"go.uber.org/fx"

	memberdomain "github.com/baizehq/baize/internal/member/domain"
	"github.com/baizehq/baize/internal/member/repository"
	"github.com/baizehq/baize/internal/member/service"
	pkgrepository "github.com/baizehq/baize/pkg/repository"
)

var Module = fx.Module("member.service",
	fx.Provide(pkgrepository.ProvideStore[memberdomain.Member]),
	fx.Provide(repository.NewLedger),
	fx.Provide(service.New),
)
