package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/clinistack/vetcore"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Manage encounter drafts",
}

var (
	draftCreatePatientID  string
	draftCreateTranscript string
	draftCreateExtract    bool
)

var draftCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a new encounter draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := openCore()
		if err != nil {
			fail(err)
			return nil
		}
		defer core.Close()

		ctx := context.Background()
		draftID, err := core.CreateDraft(ctx, draftCreatePatientID, draftCreateTranscript)
		if err != nil {
			fail(err)
			return nil
		}

		if draftCreateExtract {
			for _, m := range core.ExtractMentions(draftCreateTranscript) {
				if err := core.AddMention(ctx, draftID, m); err != nil {
					fail(err)
					return nil
				}
			}
		}

		if jsonOutput {
			outputJSON(map[string]string{"draft_id": draftID})
			return nil
		}
		fmt.Println(draftID)
		return nil
	},
}

var (
	addMentionDraftID string
	addMentionName    string
	addMentionDose    string
	addMentionUnit    string
	addMentionRoute   string
	addMentionSpecies string
)

var draftAddMentionCmd = &cobra.Command{
	Use:   "add-mention",
	Short: "Resolve and append a drug mention to an open draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := openCore()
		if err != nil {
			fail(err)
			return nil
		}
		defer core.Close()

		mention := vetcore.DrugMention{
			RawName: addMentionName,
			Unit:    addMentionUnit,
			Route:   addMentionRoute,
			Species: addMentionSpecies,
		}
		if addMentionDose != "" {
			dose, err := strconv.ParseFloat(addMentionDose, 64)
			if err != nil {
				fail(fmt.Errorf("invalid --dose: %w", err))
				return nil
			}
			mention.Dose = &dose
		}

		if err := core.AddMention(context.Background(), addMentionDraftID, mention); err != nil {
			fail(err)
			return nil
		}

		if jsonOutput {
			outputJSON(map[string]string{"status": "added"})
			return nil
		}
		fmt.Println("mention added")
		return nil
	},
}

var (
	decideDraftID   string
	decideItemIndex int
	decideKind      string
	decideSKU       string
)

var draftDecideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Record a reviewer decision for one item",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := openCore()
		if err != nil {
			fail(err)
			return nil
		}
		defer core.Close()

		kind, err := parseDecisionKind(decideKind)
		if err != nil {
			fail(err)
			return nil
		}

		decision := vetcore.Decision{Kind: kind, SKU: decideSKU}
		if err := core.SetItemDecision(context.Background(), decideDraftID, decideItemIndex, decision); err != nil {
			fail(err)
			return nil
		}

		if jsonOutput {
			outputJSON(map[string]string{"status": "decided"})
			return nil
		}
		fmt.Println("decision recorded")
		return nil
	},
}

var (
	commitDraftID   string
	commitReviewer  string
)

var draftCommitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Close a draft and append it to the Merkle log",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, err := openCore()
		if err != nil {
			fail(err)
			return nil
		}
		defer core.Close()

		result, err := core.CommitDraft(context.Background(), commitDraftID, commitReviewer)
		if err != nil {
			fail(err)
			return nil
		}

		if jsonOutput {
			outputJSON(result)
			return nil
		}
		fmt.Printf("committed as seq %d, root %x\n", result.SeqNo, result.NewRoot)
		return nil
	},
}

func parseDecisionKind(s string) (vetcore.DecisionKind, error) {
	switch s {
	case "approve":
		return vetcore.DecisionApprove, nil
	case "choose-alternative":
		return vetcore.DecisionChooseAlternative, nil
	case "reject":
		return vetcore.DecisionReject, nil
	default:
		return 0, fmt.Errorf("unknown decision kind %q (want approve|choose-alternative|reject)", s)
	}
}

func init() {
	draftCreateCmd.Flags().StringVar(&draftCreatePatientID, "patient-local-id", "", "patient local id (required)")
	draftCreateCmd.Flags().StringVar(&draftCreateTranscript, "transcript", "", "encounter transcript text")
	draftCreateCmd.Flags().BoolVar(&draftCreateExtract, "auto-extract", false, "run the rule-based NER fallback over --transcript and add every mention found")
	_ = draftCreateCmd.MarkFlagRequired("patient-local-id")

	draftAddMentionCmd.Flags().StringVar(&addMentionDraftID, "draft-id", "", "draft id (required)")
	draftAddMentionCmd.Flags().StringVar(&addMentionName, "raw-name", "", "raw drug name as mentioned (required)")
	draftAddMentionCmd.Flags().StringVar(&addMentionDose, "dose", "", "dose value")
	draftAddMentionCmd.Flags().StringVar(&addMentionUnit, "unit", "", "dose unit as mentioned")
	draftAddMentionCmd.Flags().StringVar(&addMentionRoute, "route", "", "route as mentioned")
	draftAddMentionCmd.Flags().StringVar(&addMentionSpecies, "species", "", "species as mentioned")
	_ = draftAddMentionCmd.MarkFlagRequired("draft-id")
	_ = draftAddMentionCmd.MarkFlagRequired("raw-name")

	draftDecideCmd.Flags().StringVar(&decideDraftID, "draft-id", "", "draft id (required)")
	draftDecideCmd.Flags().IntVar(&decideItemIndex, "item-index", 0, "index of the item within the draft")
	draftDecideCmd.Flags().StringVar(&decideKind, "kind", "", "approve|choose-alternative|reject (required)")
	draftDecideCmd.Flags().StringVar(&decideSKU, "sku", "", "SKU, required for choose-alternative")
	_ = draftDecideCmd.MarkFlagRequired("draft-id")
	_ = draftDecideCmd.MarkFlagRequired("kind")

	draftCommitCmd.Flags().StringVar(&commitDraftID, "draft-id", "", "draft id (required)")
	draftCommitCmd.Flags().StringVar(&commitReviewer, "reviewer-id", "", "reviewing clinician id (required)")
	_ = draftCommitCmd.MarkFlagRequired("draft-id")
	_ = draftCommitCmd.MarkFlagRequired("reviewer-id")

	draftCmd.AddCommand(draftCreateCmd, draftAddMentionCmd, draftDecideCmd, draftCommitCmd)
	rootCmd.AddCommand(draftCmd)
}
