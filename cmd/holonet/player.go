package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/talgya/holonet/internal/force"
	"github.com/talgya/holonet/internal/quest"
	"github.com/talgya/holonet/internal/threat"
	"github.com/talgya/holonet/internal/world"
)

func intArg(args []string, i int, name string) (int, error) {
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, args[i])
	}
	return n, nil
}

func newForceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "force",
		Short: "Alignment, powers, visions and meditation",
	}

	show := &cobra.Command{
		Use:   "show PLAYER",
		Short: "Show a player's alignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			al, err := a.galaxy.Force.GetAlignment(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), al)
		},
	}

	var act force.Action
	align := &cobra.Command{
		Use:   "act PLAYER light|dark|neutral MAGNITUDE",
		Short: "Record an alignment action",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			mag, err := intArg(args, 2, "magnitude")
			if err != nil {
				return err
			}
			act.Player, act.Kind, act.Magnitude = args[0], world.AlignmentKind(args[1]), mag
			res, err := a.galaxy.Force.UpdateAlignment(a.galaxy.Context(cmd.Context()), act)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	align.Flags().StringSliceVar(&act.Witnesses, "witness", nil, "witness identifier (repeatable)")
	align.Flags().StringVar(&act.Description, "description", "", "what the player did")

	var use force.PowerUse
	var intent string
	power := &cobra.Command{
		Use:   "use PLAYER POWER",
		Short: "Use a learned Force power",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			use.Player, use.Power, use.Intent = args[0], args[1], force.Intent(intent)
			res, err := a.galaxy.Force.UsePower(a.galaxy.Context(cmd.Context()), use)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	power.Flags().StringVar(&use.Target, "target", "", "target of the power")
	power.Flags().StringVar(&intent, "intent", "neutral", "neutral, light, dark, selfish or selfless")
	power.Flags().IntVar(&use.Level, "level", 1, "power level 1-10")

	powers := &cobra.Command{
		Use:   "powers PLAYER",
		Short: "List available and locked powers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := a.galaxy.Force.PowerStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rep)
		},
	}

	var trigger string
	vision := &cobra.Command{
		Use:   "vision PLAYER",
		Short: "Seek a Force vision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.galaxy.Force.GenerateVision(cmd.Context(), args[0], trigger)
			if err != nil {
				return err
			}
			if v == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "The Force is silent.")
				return nil
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
	vision.Flags().StringVar(&trigger, "trigger", "", "what prompted the vision")

	var med force.Meditation
	var kind string
	meditate := &cobra.Command{
		Use:   "meditate PLAYER",
		Short: "Meditate to shift alignment or seek visions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			med.Player, med.Kind = args[0], force.MeditationKind(kind)
			res, err := a.galaxy.Force.Meditate(cmd.Context(), med)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	meditate.Flags().StringVar(&kind, "kind", "balance", "balance, light, dark or vision_seeking")
	meditate.Flags().StringVar(&med.Duration, "duration", "short", "short, medium or long")
	meditate.Flags().StringVar(&med.Location, "location", "", "where the player meditates")

	cmd.AddCommand(show, align, power, powers, vision, meditate)
	return cmd
}

func newThreatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threat",
		Short: "Notoriety, bounties and hunters",
	}

	show := &cobra.Command{
		Use:   "show PLAYER",
		Short: "Summarise the threats against a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := a.galaxy.Threats.CurrentThreats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sum)
		},
	}

	var act threat.Action
	record := &cobra.Command{
		Use:   "act PLAYER KIND SEVERITY",
		Short: "Record a notorious action",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sev, err := intArg(args, 2, "severity")
			if err != nil {
				return err
			}
			act.Player, act.Kind, act.Severity = args[0], args[1], sev
			res, err := a.galaxy.Threats.UpdateThreat(a.galaxy.Context(cmd.Context()), act)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	record.Flags().StringVar(&act.Faction, "faction", "", "faction that was wronged")
	record.Flags().StringSliceVar(&act.Witnesses, "witness", nil, "witness identifier (repeatable)")

	reduce := &cobra.Command{
		Use:   "reduce PLAYER METHOD DAYS",
		Short: "Lie low, bribe or otherwise shed heat",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := intArg(args, 2, "days")
			if err != nil {
				return err
			}
			res, err := a.galaxy.Threats.ReduceHeat(cmd.Context(), args[0], args[1], days)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	encounters := &cobra.Command{
		Use:   "encounters PLAYER",
		Short: "Roll for bounty hunters catching up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			encs, err := a.galaxy.Threats.CheckBountyEncounters(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), encs)
		},
	}

	var hunterWon bool
	resolve := &cobra.Command{
		Use:   "resolve PLAYER AGENT_ID",
		Short: "Record how an encounter ended",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.galaxy.Threats.ResolveEncounter(a.galaxy.Context(cmd.Context()), args[0], args[1], hunterWon)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	resolve.Flags().BoolVar(&hunterWon, "hunter-won", false, "the hunter succeeded")

	var reason string
	escalate := &cobra.Command{
		Use:   "escalate PLAYER FACTION",
		Short: "Have a faction escalate its response to a player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.galaxy.Threats.EscalateFactionResponse(cmd.Context(), args[0], args[1], reason)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	escalate.Flags().StringVar(&reason, "reason", "", "why the faction escalates")

	cmd.AddCommand(show, record, reduce, encounters, resolve, escalate)
	return cmd
}

func newQuestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quest",
		Short: "Generate and resolve quests",
	}

	var req quest.Request
	var category string
	generate := &cobra.Command{
		Use:   "generate PLAYER",
		Short: "Generate a quest from the state of the galaxy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Player, req.Category = args[0], world.QuestCategory(category)
			q, err := a.galaxy.Quests.GenerateQuest(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), q)
		},
	}
	generate.Flags().StringVar(&req.Difficulty, "difficulty", "medium", "easy, medium, hard or extreme")
	generate.Flags().StringVar(&category, "category", "", "preferred quest category")
	generate.Flags().StringVar(&req.Location, "location", "", "where the player is")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show a quest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.galaxy.Quests.GetQuest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), q)
		},
	}

	var status string
	list := &cobra.Command{
		Use:   "list PLAYER",
		Short: "List a player's quests, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qs, err := a.galaxy.Quests.ListQuests(cmd.Context(), args[0], world.QuestStatus(status))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), qs)
		},
	}
	list.Flags().StringVar(&status, "status", "", "only quests with this status")

	accept := &cobra.Command{
		Use:   "accept ID PLAYER",
		Short: "Accept an available quest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.galaxy.Quests.AcceptQuest(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), q)
		},
	}

	var done quest.Completion
	complete := &cobra.Command{
		Use:   "complete ID",
		Short: "Complete an active quest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.galaxy.Quests.EvaluateCompletion(a.galaxy.Context(cmd.Context()), args[0], done)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	complete.Flags().StringVar(&done.Method, "method", "standard", "how the quest was completed")
	complete.Flags().StringSliceVar(&done.Choices, "choice", nil, "notable choice (repeatable)")

	var reason string
	fail := &cobra.Command{
		Use:   "fail ID",
		Short: "Fail an active quest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.galaxy.Quests.EvaluateFailure(a.galaxy.Context(cmd.Context()), args[0], reason)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	fail.Flags().StringVar(&reason, "reason", "", "timeout, player_death or betrayal")

	cmd.AddCommand(generate, show, list, accept, complete, fail)
	return cmd
}
