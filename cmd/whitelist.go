package main

import (
	"encoding/json"
	"os"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ruby4mag/alert-normalizer/internal/engine"
	"github.com/ruby4mag/alert-normalizer/internal/models"
	"github.com/ruby4mag/alert-normalizer/internal/payload"
	"github.com/ruby4mag/alert-normalizer/internal/whitelist"
)

var blankLineRe = regexp.MustCompile(`\n[ \t]*\n`)

// splitNotes splits a file of whitelist notes on blank lines.
func splitNotes(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var notes []string
	for _, n := range blankLineRe.Split(text, -1) {
		if n = strings.TrimSpace(n); n != "" {
			notes = append(notes, n)
		}
	}
	return notes
}

func readNotes(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read notes")
	}
	notes := splitNotes(string(data))
	if len(notes) == 0 {
		return nil, errors.Newf("no whitelist notes in %s", path)
	}
	return notes, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newWhitelistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Parse whitelist notes and check alerts against them",
	}
	cmd.AddCommand(newWhitelistParseCmd(), newWhitelistCheckCmd())
	return cmd
}

func newWhitelistParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Print the rules parsed from a notes file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			notes, err := readNotes(file)
			if err != nil {
				return err
			}
			rules := make([]models.WhitelistRule, 0, len(notes))
			for _, n := range notes {
				rules = append(rules, whitelist.Parse(n))
			}
			return printJSON(cmd, rules)
		},
	}
	cmd.Flags().StringP("file", "f", "", "notes file, one note per blank-line separated block")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newWhitelistCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check one alert payload against a notes file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			payloadPath, _ := cmd.Flags().GetString("payload")
			rulesPath, _ := cmd.Flags().GetString("rules")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts, err := engineOptions(cfg.Engine)
			if err != nil {
				return err
			}
			notes, err := readNotes(rulesPath)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(payloadPath)
			if err != nil {
				return errors.Wrap(err, "read payload")
			}
			obj, err := payload.Parse(data)
			if err != nil {
				return err
			}

			// Notes are checked in file order.
			rules := make([]models.WhitelistRule, 0, len(notes))
			for _, n := range notes {
				rules = append(rules, whitelist.Parse(n))
			}
			alert, decision := engine.New(opts).CheckWhitelist(obj, rules)
			return printJSON(cmd, map[string]any{"alert": alert.Name, "whitelist": decision})
		},
	}
	cmd.Flags().StringP("payload", "p", "", "alert payload JSON file")
	cmd.Flags().StringP("rules", "r", "", "notes file, one note per blank-line separated block")
	_ = cmd.MarkFlagRequired("payload")
	_ = cmd.MarkFlagRequired("rules")
	return cmd
}
