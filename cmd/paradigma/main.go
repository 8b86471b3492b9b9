// Command paradigma queries a compiled grammar from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	paradigma "github.com/cours-de-latin/paradigma"
)

var (
	grammarPath  string
	paradigmName string
)

func main() {
	root := &cobra.Command{
		Use:           "paradigma",
		Short:         "Morphological paradigm queries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&grammarPath, "grammar", "grammar.yaml", "path to the grammar file")
	root.PersistentFlags().StringVar(&paradigmName, "paradigm", "", "paradigm to query")

	root.AddCommand(
		analysisCommand("analyze", "Decompose words into stem, boundary and features",
			(*paradigma.Paradigm).Analyze),
		analysisCommand("tag", "Annotate words with their features",
			(*paradigma.Paradigm).Tag),
		analysisCommand("lemmatize", "Map words to their lemma and features",
			(*paradigma.Paradigm).Lemmatize),
		inflectCommand(),
		generateCommand(),
		listCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadParadigm reads the grammar and resolves the --paradigm flag.
func loadParadigm() (*paradigma.Paradigm, error) {
	g, err := paradigma.LoadGrammar(grammarPath)
	if err != nil {
		return nil, err
	}
	if paradigmName == "" {
		return nil, fmt.Errorf("--paradigm is required")
	}
	p, ok := g.Paradigms[paradigmName]
	if !ok {
		return nil, fmt.Errorf("paradigm %q not found in %s", paradigmName, grammarPath)
	}
	return p, nil
}

func analysisCommand(name, short string, query func(*paradigma.Paradigm, string) ([]paradigma.Analysis, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name + " WORD...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadParadigm()
			if err != nil {
				return err
			}
			for _, word := range args {
				analyses, err := query(p, word)
				if err != nil {
					return err
				}
				if len(analyses) == 0 {
					fmt.Printf("%s\t-\n", word)
					continue
				}
				for _, a := range analyses {
					fmt.Printf("%s\t%s\n", word, a)
				}
			}
			return nil
		},
	}
}

func inflectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inflect LEMMA FEATURE=VALUE...",
		Short: "Inflect a lemma under the given feature settings",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadParadigm()
			if err != nil {
				return err
			}
			vector, err := paradigma.NewFeatureVector(p.Category(), args[1:]...)
			if err != nil {
				return err
			}
			forms, err := p.Inflect(args[0], vector)
			if err != nil {
				return err
			}
			for _, f := range forms {
				fmt.Println(f)
			}
			return nil
		},
	}
}

func generateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate STEM...",
		Short: "List every decorated form of the given stems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadParadigm()
			if err != nil {
				return err
			}
			for _, stem := range args {
				forms, err := p.Generate(stem)
				if err != nil {
					return err
				}
				for _, f := range forms {
					fmt.Println(f)
				}
			}
			return nil
		},
	}
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the paradigms of the grammar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := paradigma.LoadGrammar(grammarPath)
			if err != nil {
				return err
			}
			for _, name := range g.ParadigmNames {
				p := g.Paradigms[name]
				fmt.Printf("%s\t%d slots\t%d stems\n", name, len(p.Slots()), len(p.Stems()))
			}
			return nil
		},
	}
}
