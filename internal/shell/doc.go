// Package shell provides an interactive prompt on top of a running
// orchestrator. Commands load modules, print their status and parameters,
// and deactivate or activate them by hand, with tab completion of module
// names and a persistent history.
//
//	s := shell.New(shell.Config{Target: orch, Formatter: f, Bus: bus})
//	if err := s.Run(ctx); err != nil {
//		return err
//	}
package shell
