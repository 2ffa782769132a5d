package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/verso"
	"github.com/aretw0/verso/internal/config"
	versolifecycle "github.com/aretw0/verso/pkg/adapters/lifecycle"
)

var watchTypes string

var watchCmd = &cobra.Command{
	Use:   "watch [pattern]",
	Short: "Print resource events as new revisions arrive",
	Long: `Stream one event per resource touched by each new revision, including
commits made by other processes. The optional doublestar pattern (default "**")
filters resource paths. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := "**"
		if len(args) == 1 {
			pattern = args[0]
		}
		types, err := parseEventTypes(watchTypes)
		if err != nil {
			return err
		}

		svc, err := openService(false)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		events, err := svc.Watch(ctx, pattern)
		if err != nil {
			return err
		}

		source := versolifecycle.NewSource(events, types...)
		if err := source.Start(ctx); err != nil {
			return err
		}
		logger.Info("watching store", "path", storePath, "pattern", pattern)

		out := cmd.OutOrStdout()
		for e := range source.Events() {
			ev, ok := e.(verso.Event)
			if !ok {
				continue
			}
			switch outputFlag {
			case config.OutputJSON:
				if err := json.NewEncoder(out).Encode(ev); err != nil {
					return err
				}
			case config.OutputYAML:
				data, err := yaml.Marshal([]verso.Event{ev})
				if err != nil {
					return err
				}
				if _, err := out.Write(data); err != nil {
					return err
				}
			default:
				fmt.Fprintf(out, "%s %s %s\n", ev.Type, ev.ID, shortID(ev.Revision))
			}
		}
		return nil
	},
}

func parseEventTypes(s string) ([]verso.EventType, error) {
	if s == "" {
		return nil, nil
	}
	var types []verso.EventType
	for _, name := range strings.Split(s, ",") {
		t := verso.EventType(strings.ToUpper(strings.TrimSpace(name)))
		switch t {
		case verso.EventCreate, verso.EventModify, verso.EventDelete:
			types = append(types, t)
		default:
			return nil, fmt.Errorf("unknown event type %q: want create, modify or delete", name)
		}
	}
	return types, nil
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchTypes, "type", "", "Comma-separated event types to show (create, modify, delete)")
}
