package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codyseavey/versewise/internal/models"
	"github.com/codyseavey/versewise/internal/services"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseLanguageFlag(raw string) (models.Language, error) {
	lang, ok := models.ParseLanguage(raw)
	if !ok {
		return "", fmt.Errorf("unsupported language %q (want one of %v)", raw, models.AllLanguages())
	}
	return lang, nil
}

func newTranslateCommand(opts *rootOptions) *cobra.Command {
	var (
		to      string
		details bool
	)

	cmd := &cobra.Command{
		Use:   "translate <text>...",
		Short: "Translate text from the source language",
		Long: `Translate one or more texts. Several arguments are translated as a batch
and printed one per line, in order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseLanguageFlag(to)
			if err != nil {
				return err
			}

			return opts.invoke(func(translator *services.HybridTranslationService) error {
				out := cmd.OutOrStdout()
				if len(args) > 1 {
					for _, t := range translator.TranslateBatch(cmd.Context(), args, target) {
						fmt.Fprintln(out, t)
					}
					return nil
				}

				result := translator.TranslateDetailed(cmd.Context(), args[0], target)
				if details {
					return printJSON(out, result)
				}
				fmt.Fprintln(out, result.TranslatedText)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&to, "to", "t", string(models.LanguageEnglish), "target language: en, es, it, fr")
	cmd.Flags().BoolVar(&details, "details", false, "print source, provider and quality as JSON")
	return cmd
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or clear the reading history",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List reading sessions, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.invoke(func(history *services.ReadingHistoryService) error {
					out := cmd.OutOrStdout()
					entries := history.List(cmd.Context())
					if len(entries) == 0 {
						fmt.Fprintln(out, "No reading history")
						return nil
					}
					for _, e := range entries {
						fmt.Fprintf(out, "%s  %-20s verses=%d words=%d\n",
							e.Timestamp.Local().Format("2006-01-02 15:04"), e.Reference(), len(e.Verses), len(e.SourceWords))
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Show reading statistics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.invoke(func(history *services.ReadingHistoryService) error {
					return printJSON(cmd.OutOrStdout(), history.Stats(cmd.Context()))
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete all reading history",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.invoke(func(history *services.ReadingHistoryService) error {
					if err := history.Clear(cmd.Context()); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Reading history cleared")
					return nil
				})
			},
		},
	)
	return cmd
}

func newExercisesCommand(opts *rootOptions) *cobra.Command {
	var (
		language    string
		count       int
		preferAudio bool
	)

	cmd := &cobra.Command{
		Use:   "exercises",
		Short: "Generate vocabulary exercises from reading history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := parseLanguageFlag(language)
			if err != nil {
				return err
			}

			return opts.invoke(func(exercises *services.VocabularyExerciseService) error {
				out := cmd.OutOrStdout()
				list := exercises.Generate(cmd.Context(), lang, count, preferAudio)
				if len(list) == 0 {
					fmt.Fprintln(out, "Not enough words in reading history yet")
					return nil
				}
				for i, ex := range list {
					fmt.Fprintf(out, "%d. %s  (%s)\n   %s\n", i+1, ex.ForeignWord, ex.ContextReference, strings.Join(ex.Options, " | "))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", string(models.LanguageEnglish), "practice language: en, es, it, fr")
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of exercises")
	cmd.Flags().BoolVar(&preferAudio, "prefer-audio", false, "prefer sessions listened to in the practice language")
	return cmd
}

func newCacheCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the translation cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Show translation cache statistics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.invoke(func(translator *services.HybridTranslationService) error {
					stats, err := translator.Stats(cmd.Context())
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), stats)
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every cached translation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.invoke(func(translator *services.HybridTranslationService) error {
					removed, err := translator.ClearCaches(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached translations\n", removed)
					return nil
				})
			},
		},
	)
	return cmd
}
