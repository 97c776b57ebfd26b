package mailer

import (
	"go.uber.org/fx"

	"github.com/lostmedia/payments/internal/app/service/entitlement"
)

var Module = fx.Options(
	fx.Provide(
		fx.Annotate(New, fx.As(new(entitlement.Mailer))),
	),
)
