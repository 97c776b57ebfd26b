package callbacklog

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(registerDrain),
)

// registerDrain flushes in-flight audit writes before the DB pool closes.
func registerDrain(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStop: s.Drain,
	})
}
