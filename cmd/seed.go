package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ruby4mag/alert-normalizer/internal/db"
	"github.com/ruby4mag/alert-normalizer/internal/models"
	"github.com/ruby4mag/alert-normalizer/internal/store"
	"github.com/ruby4mag/alert-normalizer/internal/whitelist"
)

// seedFile is the YAML layout shared by `seed` and offline `format`:
//
//	templates:
//	  - alertName: Port Scan
//	    fieldMappings:
//	      - {label: Source IP, path: srcip}
//	mappings:
//	  - {label: Host Name, path: agent.hostname}
//	whitelist:
//	  - |
//	    Port Scan: internal
//	    scheduled pentest
type seedFile struct {
	models.Snapshot `yaml:",inline"`
	Whitelist       []string `yaml:"whitelist"`
}

type seedCounts struct {
	Templates int
	Mappings  int
	Rules     int
}

func loadSeed(path string) (seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return seedFile{}, errors.Wrap(err, "read seed file")
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return seedFile{}, errors.Wrapf(err, "decode seed file %s", path)
	}
	return seed, nil
}

// applySeed validates everything first, so a bad entry writes nothing.
func applySeed(ctx context.Context, seed seedFile, templates store.Templates, mappings store.Mappings, rules store.Rules) (seedCounts, error) {
	var counts seedCounts

	for i := range seed.Templates {
		seed.Templates[i].Normalize()
		if err := seed.Templates[i].Validate(); err != nil {
			return counts, errors.Wrapf(err, "template %d", i)
		}
	}
	for i := range seed.GlobalMappings {
		seed.GlobalMappings[i].Normalize()
	}
	if err := models.ValidateMappings(seed.GlobalMappings); err != nil {
		return counts, err
	}
	var parsed []models.WhitelistRule
	for _, note := range seed.Whitelist {
		if strings.TrimSpace(note) == "" {
			continue
		}
		rule := whitelist.Parse(note)
		rule.CreatedBy = "seed"
		parsed = append(parsed, rule)
	}

	for i := range seed.Templates {
		if err := templates.Create(ctx, &seed.Templates[i]); err != nil {
			return counts, errors.Wrapf(err, "create template %s", seed.Templates[i].AlertIdentifier)
		}
		counts.Templates++
	}
	for _, m := range seed.GlobalMappings {
		dm := models.DbFieldMapping{FieldMapping: m}
		if err := mappings.Create(ctx, &dm); err != nil {
			return counts, errors.Wrapf(err, "create mapping %s", m.Label)
		}
		counts.Mappings++
	}
	// Oldest first, so the first note in the file ends up newest.
	now := time.Now().UTC()
	for i := len(parsed) - 1; i >= 0; i-- {
		parsed[i].CreatedAt = now.Add(time.Duration(len(parsed)-1-i) * time.Millisecond)
		if err := rules.Create(ctx, &parsed[i]); err != nil {
			return counts, errors.Wrap(err, "create whitelist rule")
		}
		counts.Rules++
	}
	return counts, nil
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert templates, global mappings and whitelist notes from a YAML file into MongoDB",
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			seed, err := loadSeed(file)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			database, disconnect, err := db.ConnectMongo(cmd.Context(), cfg.Mongo)
			if err != nil {
				return err
			}
			defer func() { _ = disconnect(context.Background()) }()

			counts, err := applySeed(cmd.Context(), seed,
				store.NewMongoTemplates(database),
				store.NewMongoMappings(database),
				store.NewMongoRules(database),
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d templates, %d mappings, %d whitelist rules\n",
				counts.Templates, counts.Mappings, counts.Rules)
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "seed YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
