package entitlement

import (
	"go.uber.org/fx"

	"github.com/lostmedia/payments/internal/app/service/reconcile"
)

// Module exposes the entitlement applier via Fx, bound to the engine's
// EffectApplier port.
var Module = fx.Options(
	fx.Provide(
		fx.Annotate(NewApplier, fx.As(new(reconcile.EffectApplier))),
	),
)
