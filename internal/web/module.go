package web

import (
	"go.uber.org/fx"
)

func registerServer(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.Stop,
	})
}

// Module provides the router and the HTTP server
var Module = fx.Module("web",
	fx.Provide(
		NewPages,
		NewRouter,
		NewServer,
	),
	fx.Invoke(registerServer),
)
