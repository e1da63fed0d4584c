// Package app bootstraps a modapp application: it configures logging, loads
// the module manifest and the module configuration, parses query overrides
// and builds the orchestrator, the event bus and, for watch mode, the
// configuration reconciler.
//
// The commands in cmd create one Application per invocation:
//
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//		return err
//	}
//	defer application.Shutdown()
//
//	res, err := application.Load(ctx, args)
//
// Watch mode keeps the loaded modules in line with the configuration file
// and reports readiness to systemd when run as a notify service:
//
//	err := application.RunWatch(ctx, func(r reconciler.Report) { ... })
package app
