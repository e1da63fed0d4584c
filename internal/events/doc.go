// Package events publishes module lifecycle events.
//
// Every state transition of a module, every disposal hook that runs and
// every failing require callback produces an Event carrying a reason code, a
// severity and a message rendered from a template. Templates use
// text/template with the sprig function library and can be replaced per
// reason:
//
//	bus := events.NewBus()
//	_ = bus.Templates().SetTemplate(events.ReasonModuleReady, "{{.Name | upper}} up")
//
//	ch, unsubscribe := bus.Subscribe(0)
//	defer unsubscribe()
//	for ev := range ch {
//		fmt.Println(ev.Reason, ev.Message)
//	}
//
// Publishing never blocks; a slow subscriber loses events instead of
// stalling the orchestrator.
package events
