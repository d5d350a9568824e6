package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ruby4mag/alert-normalizer/internal/engine"
	"github.com/ruby4mag/alert-normalizer/internal/store"
)

func newFormatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format",
		Short: "Format one alert payload without a database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			payloadPath, _ := cmd.Flags().GetString("payload")
			seedPath, _ := cmd.Flags().GetString("seed")
			asJSON, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts, err := engineOptions(cfg.Engine)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(payloadPath)
			if err != nil {
				return errors.Wrap(err, "read payload")
			}

			loader := store.Loader{Templates: &store.MemoryTemplates{}, Mappings: &store.MemoryMappings{}, Rules: &store.MemoryRules{}}
			if seedPath != "" {
				seed, err := loadSeed(seedPath)
				if err != nil {
					return err
				}
				if _, err := applySeed(cmd.Context(), seed, loader.Templates, loader.Mappings, loader.Rules); err != nil {
					return err
				}
			}
			snap, err := loader.Load(cmd.Context())
			if err != nil {
				return err
			}

			res, err := engine.New(opts).ProcessJSON(data, snap)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintln(out, res.Report)
			if res.Whitelist.Matched {
				fmt.Fprintf(cmd.ErrOrStderr(), "whitelisted: %s\n", res.Whitelist.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringP("payload", "p", "", "alert payload JSON file")
	cmd.Flags().StringP("seed", "s", "", "seed YAML file with templates, mappings and whitelist notes")
	cmd.Flags().Bool("json", false, "print the full result as JSON")
	_ = cmd.MarkFlagRequired("payload")
	return cmd
}
