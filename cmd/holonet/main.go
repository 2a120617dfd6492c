// Command holonet runs the galaxy simulation and exposes its operations for
// manual play and inspection.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:               "holonet",
		Short:             "Reactive galaxy simulation: factions, the Force, NPCs, threats and quests",
		SilenceUsage:      true,
		PersistentPreRunE: a.open,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.AddCommand(
		newRunCmd(a),
		newSeedCmd(a),
		newTickCmd(a),
		newFactionCmd(a),
		newForceCmd(a),
		newNPCCmd(a),
		newThreatCmd(a),
		newQuestCmd(a),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
