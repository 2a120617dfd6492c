package main

import (
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/holonet/internal/engine"
	"github.com/talgya/holonet/internal/faction"
	"github.com/talgya/holonet/internal/world"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		every time.Duration
		once  bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Tick the galaxy on an interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if every <= 0 {
				every = a.cfg.TickEvery
			}
			s := engine.NewScheduler(a.galaxy, engine.SchedulerOptions{
				Interval: every,
				RunOnce:  once || a.cfg.RunOnce,
				Signals:  []os.Signal{os.Interrupt, syscall.SIGTERM},
				Logger:   a.log.With("component", "scheduler"),
			})
			return s.Run(cmd.Context())
		},
	}
	cmd.Flags().DurationVar(&every, "every", 0, "tick interval (default HOLONET_TICK_EVERY)")
	cmd.Flags().BoolVar(&once, "once", false, "run a single tick and exit")
	return cmd
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the starting factions that do not exist yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The galaxy is seeded on open; listing shows the result.
			return printFactions(cmd, a)
		},
	}
}

func newTickCmd(a *app) *cobra.Command {
	var forced bool
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Advance the faction simulation once",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.galaxy.Tick(cmd.Context(), forced)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().BoolVar(&forced, "force", false, "tick every faction, due or not")
	return cmd
}

func newFactionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faction",
		Short: "Inspect factions and world events",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every faction",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printFactions(cmd, a)
		},
	}

	show := &cobra.Command{
		Use:   "show NAME",
		Short: "Show one faction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.galaxy.Factions.GetFactionState(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), f)
		},
	}

	var (
		activeOnly bool
		limit      int
	)
	events := &cobra.Command{
		Use:   "events",
		Short: "List recent world events, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			evs, err := a.galaxy.Factions.ListEvents(cmd.Context(), world.EventFilter{ActiveOnly: activeOnly, Limit: limit})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tCATEGORY\tIMPACT\tTITLE")
			for _, ev := range evs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", humanize.Time(ev.CreatedAt), ev.Category, ev.Impact, ev.Title)
			}
			return w.Flush()
		},
	}
	events.Flags().BoolVar(&activeOnly, "active", false, "only active events")
	events.Flags().IntVar(&limit, "limit", 20, "maximum events to list")

	var in faction.EventInput
	var category string
	trigger := &cobra.Command{
		Use:   "trigger TITLE",
		Short: "Record a world event and apply it to the factions it names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Title = args[0]
			in.Category = world.EventCategory(category)
			ev, effects, err := a.galaxy.Factions.TriggerWorldEvent(a.galaxy.Context(cmd.Context()), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"event": ev, "effects": effects})
		},
	}
	trigger.Flags().StringVar(&in.Description, "description", "", "event description")
	trigger.Flags().StringVar(&category, "category", string(world.EventPolitical), "military, economic, political, force or social")
	trigger.Flags().StringSliceVar(&in.Factions, "faction", nil, "affected faction (repeatable)")
	trigger.Flags().IntVar(&in.Impact, "impact", 5, "impact 1-10")
	trigger.Flags().StringVar(&in.Player, "player", "", "player the event concerns")
	trigger.Flags().IntVar(&in.DurationDays, "days", 0, "days the event stays active")

	cmd.AddCommand(list, show, events, trigger)
	return cmd
}

func printFactions(cmd *cobra.Command, a *app) error {
	all, err := a.galaxy.Factions.ListFactions(cmd.Context())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FACTION\tRESOURCES\tTERRITORY\tINFLUENCE\tAWARENESS\tHOSTILITY\tOPS\tLAST ACTION")
	for _, f := range all {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			f.Name, humanize.Comma(int64(f.Resources)), f.Territory, f.Influence,
			f.Awareness, f.Hostility, len(f.Operations), humanize.Time(f.LastActionTime))
	}
	return w.Flush()
}
