package payment

import (
	"go.uber.org/fx"

	"github.com/lostmedia/payments/internal/platform/plisio"
)

var Module = fx.Options(
	fx.Provide(
		fx.Annotate(plisio.NewClient, fx.As(new(Gateway))),
		New,
	),
)
