package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/nidhogg/stratai/internal/skill"
	"github.com/nidhogg/stratai/internal/tokens"
	"github.com/spf13/cobra"
)

func newComposeCmd() *cobra.Command {
	var (
		dir       string
		threshold int
		budget    int
		builtins  bool
		tiktoken  bool
		encoding  string
	)
	def := skill.DefaultBudget()

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose a prompt from a local skills directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			skills, err := skill.LoadFromDir(dir)
			if err != nil {
				return err
			}
			if builtins {
				mgr := skill.NewManager(nil)
				skill.RegisterBuiltins(mgr)
				skills = append(skills, mgr.All()...)
			}

			var est tokens.Estimator = tokens.Heuristic{}
			if tiktoken {
				if est, err = tokens.NewTiktoken(encoding); err != nil {
					return err
				}
			}

			in := skill.NewInjector(skill.Budget{
				FullInjectionThresholdTokens: threshold,
				TotalBudgetTokens:            budget,
			}, est, nil)
			inj := in.Compose(skills)

			fmt.Fprint(cmd.OutOrStdout(), inj.Prompt)
			printClassification(cmd, inj)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "skills", "directory of skill subdirectories")
	cmd.Flags().IntVar(&threshold, "threshold", def.FullInjectionThresholdTokens, "largest skill injected in full, in tokens")
	cmd.Flags().IntVar(&budget, "budget", def.TotalBudgetTokens, "total tokens for fully injected skills")
	cmd.Flags().BoolVar(&builtins, "builtins", false, "include the built-in skills")
	cmd.Flags().BoolVar(&tiktoken, "tiktoken", false, "count tokens with a BPE encoding instead of the 4-chars heuristic")
	cmd.Flags().StringVar(&encoding, "encoding", "cl100k_base", "tiktoken encoding name")
	return cmd
}

func printClassification(cmd *cobra.Command, inj *skill.Injection) {
	tw := tabwriter.NewWriter(cmd.ErrOrStderr(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SKILL\tINJECTION")
	for _, n := range inj.Full {
		fmt.Fprintf(tw, "%s\tfull\n", n)
	}
	for _, n := range inj.Summary {
		fmt.Fprintf(tw, "%s\tsummary\n", n)
	}
	tw.Flush()
	fmt.Fprintf(cmd.ErrOrStderr(), "tokens used: %d\n", inj.TokensUsed)
}
