package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trackergen/internal/adapters/llm"
	"trackergen/internal/adapters/lookup"
	"trackergen/internal/core/ambiguity"
	"trackergen/internal/core/sanitize"
	"trackergen/internal/platform/config"
	tdom "trackergen/internal/services/api/tracker/domain"
	cdom "trackergen/internal/services/configgen/domain"
	configgen "trackergen/internal/services/configgen/service"
	ddom "trackergen/internal/services/disambiguate/domain"
	disambiguate "trackergen/internal/services/disambiguate/service"
	gdom "trackergen/internal/services/gather/domain"
	gather "trackergen/internal/services/gather/service"
)

// upstreams builds the clients the check and generate commands talk to
// tests swap it for fakes
var upstreams = func(root config.Conf) (cdom.LLMPort, gdom.Source) {
	return llm.New(llm.OptionsFromEnv(root)), lookup.New(lookup.OptionsFromEnv(root))
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trackergen-probe",
		Short:         "Run tracker pipeline stages by hand",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Duration("timeout", 45*time.Second, "overall deadline for upstream calls")
	root.AddCommand(newSanitizeCmd(), newResolveCmd(), newCheckCmd(), newGenerateCmd())
	return root
}

func newSanitizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanitize <text>",
		Short: "Show what a value looks like after prompt sanitization",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			max, _ := cmd.Flags().GetInt("max")
			nl, _ := cmd.Flags().GetBool("newlines")
			res := sanitize.ForPrompt(strings.Join(args, " "), sanitize.Options{
				MaxLength:      max,
				AllowNewlines:  nl,
				CheckInjection: true,
			})
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().Int("max", sanitize.DefaultMaxLength, "maximum length in characters")
	cmd.Flags().Bool("newlines", false, "keep line breaks")
	return cmd
}

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>",
		Short: "Look a name up in the embedded knowledge base only",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), ambiguity.Resolve(strings.Join(args, " ")))
		},
	}
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <name>",
		Short: "Run the full ambiguity check against the configured classifier",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := deadline(cmd)
			defer cancel()

			model, src := upstreams(config.New())
			defs, _ := cmd.Flags().GetStringSlice("definition")
			svc := disambiguate.New(model, disambiguate.Options{
				Gatherer: gather.New(src, gather.Options{}),
			})
			in := ddom.CheckInput{
				Name:    strings.Join(args, " "),
				Context: gdom.Context{AllDefinitions: defs},
			}
			if len(defs) > 0 {
				in.Context.Definition = defs[0]
			}
			res, err := svc.Check(ctx, in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringSlice("definition", nil, "definitions to supply instead of looking them up")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <name>",
		Short: "Generate a tracker config, printing the clarification when one is needed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := deadline(cmd)
			defer cancel()

			desc, _ := cmd.Flags().GetString("description")
			sel, _ := cmd.Flags().GetString("select")
			answers, _ := cmd.Flags().GetStringArray("answer")

			history, err := parseAnswers(answers)
			if err != nil {
				return err
			}

			model, src := upstreams(config.New())
			svc := configgen.New(model, configgen.Options{
				Gatherer: gather.New(src, gather.Options{}),
			})
			out, err := svc.Generate(ctx, cdom.GenerateInput{
				Name:            strings.Join(args, " "),
				UserDescription: desc,
				Selected:        cdom.Selection{Label: sel},
				History:         history,
			})
			if err != nil {
				return err
			}
			switch o := out.(type) {
			case cdom.Ready:
				return printJSON(cmd.OutOrStdout(), tdom.ConfigResponse{Config: o.Config})
			case cdom.Clarify:
				return printJSON(cmd.OutOrStdout(), tdom.ClarifyResponse{
					NeedsClarification: true,
					Confidence:         o.Confidence,
					FinalQuestion:      o.FinalQuestion,
					Questions:          o.Questions,
					Reason:             o.Reason,
				})
			}
			return fmt.Errorf("unexpected outcome %T", out)
		},
	}
	cmd.Flags().String("description", "", "what the user wants to track, in their words")
	cmd.Flags().String("select", "", "label of the chosen interpretation")
	cmd.Flags().StringArray("answer", nil, `earlier clarification as "question=answer", repeatable`)
	return cmd
}

func parseAnswers(in []string) ([]cdom.HistoryEntry, error) {
	out := make([]cdom.HistoryEntry, 0, len(in))
	for _, a := range in {
		q, ans, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(ans) == "" {
			return nil, fmt.Errorf("answer %q: want question=answer", a)
		}
		out = append(out, cdom.HistoryEntry{Question: strings.TrimSpace(q), Answer: strings.TrimSpace(ans)})
	}
	return out, nil
}

func deadline(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	d, _ := cmd.Flags().GetDuration("timeout")
	if d <= 0 {
		d = 45 * time.Second
	}
	return context.WithTimeout(cmd.Context(), d)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
