package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/verso"
	"github.com/aretw0/verso/internal/config"
)

// render writes v in the selected output format. text renders the human
// form and is used when no structured format was requested.
func render(w io.Writer, v any, text func(io.Writer) error) error {
	switch outputFlag {
	case "", config.OutputText:
		return text(w)
	case config.OutputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case config.OutputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unknown output format %q", outputFlag)
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func writeRevision(w io.Writer, rev verso.Revision) {
	fmt.Fprintf(w, "revision %s\n", rev.ID)
	fmt.Fprintf(w, "Author: %s\n", rev.Author)
	fmt.Fprintf(w, "Date:   %s\n", rev.Timestamp.Local().Format(time.RFC1123Z))
	fmt.Fprintln(w)
	for _, line := range strings.Split(rev.Description, "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
	if len(rev.Changes) > 0 {
		fmt.Fprintln(w)
		for _, c := range rev.Changes {
			fmt.Fprintf(w, "  %s\n", c)
		}
	}
}
