package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/holonet/internal/world"
)

func newNPCCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "npc",
		Short: "NPC memories, conversations and reputation",
	}

	show := &cobra.Command{
		Use:   "show NPC PLAYER",
		Short: "Show what an NPC remembers about a player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.galaxy.NPCs.GetNPC(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), m)
		},
	}

	var data world.InteractionData
	interact := &cobra.Command{
		Use:   "interact NPC PLAYER KIND",
		Short: "Record an interaction between an NPC and a player",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.galaxy.NPCs.RecordInteraction(a.galaxy.Context(cmd.Context()),
				args[0], args[1], world.InteractionKind(args[2]), data)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	interact.Flags().StringVar(&data.Tone, "tone", "", "dialogue tone: respectful, threatening or friendly")
	interact.Flags().StringVar(&data.Power, "power", "", "power witnessed")
	interact.Flags().IntVar(&data.Profit, "profit", 0, "trade profit for the NPC")
	interact.Flags().IntVar(&data.Value, "value", 0, "trade value")
	interact.Flags().StringVar(&data.Note, "note", "", "free-form note")

	var situation string
	talk := &cobra.Command{
		Use:   "talk NPC PLAYER SAYING",
		Short: "Speak to an NPC and hear the reply",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := a.galaxy.NPCs.Converse(a.galaxy.Context(cmd.Context()), args[0], args[1], situation, args[2])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), conv)
		},
	}
	talk.Flags().StringVar(&situation, "situation", "", "scene the conversation happens in")

	var limit int
	history := &cobra.Command{
		Use:   "history NPC PLAYER",
		Short: "List recent conversations",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ins, err := a.galaxy.NPCs.DialogueHistory(cmd.Context(), args[0], args[1], limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ins)
		},
	}
	history.Flags().IntVar(&limit, "limit", 10, "maximum conversations")

	summary := &cobra.Command{
		Use:   "summary FACTION PLAYER",
		Short: "Summarise how a faction's NPCs regard a player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := a.galaxy.NPCs.FactionSummary(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sum)
		},
	}

	var n int
	contacts := &cobra.Command{
		Use:   "contacts PLAYER",
		Short: "List the NPCs a player met most recently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := a.galaxy.NPCs.RecentContacts(cmd.Context(), args[0], n)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NPC\tFACTION\tMOOD\tRELATIONSHIP\tTRUST\tFEAR\tLAST SEEN")
			for _, m := range ms {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
					m.NPC, m.Faction, m.Mood, m.Relationship, m.Trust, m.Fear, humanize.Time(m.LastInteractionTime))
			}
			return w.Flush()
		},
	}
	contacts.Flags().IntVarP(&n, "count", "n", 5, "how many contacts")

	ripple := &cobra.Command{
		Use:   "ripple PLAYER SOURCE_NPC KIND",
		Short: "Spread an interaction with one NPC through their faction",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			effects, err := a.galaxy.NPCs.NetworkEffect(cmd.Context(), args[0], args[1], world.InteractionKind(args[2]))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), effects)
		},
	}

	cmd.AddCommand(show, interact, talk, history, summary, contacts, ripple)
	return cmd
}
