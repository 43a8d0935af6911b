package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"HiCGallery/internal/inbox"
)

var inboxJSON bool

var inboxCmd = &cobra.Command{
	Use:   "inbox [dir]",
	Short: "List inbox submissions waiting for review",
	Long: `Lists the submissions under the inbox directory and flags the ones that are
not ready for a maintainer: no PNGs, no notes file, several notes files or
stray files. Inbox folders are not validated against the case naming rules.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInbox,
}

func runInbox(cmd *cobra.Command, args []string) error {
	dir := cfg.InboxPath()
	if len(args) == 1 {
		dir = args[0]
	}
	subs, err := inbox.Scan(dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if inboxJSON {
		if subs == nil {
			subs = []inbox.Submission{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(subs)
	}

	if len(subs) == 0 {
		fmt.Fprintf(out, "Inbox %s is empty.\n", dir)
		return nil
	}
	var b strings.Builder
	for _, s := range subs {
		status := "ready"
		if !s.OK() {
			status = "needs attention"
		}
		fmt.Fprintf(&b, "%s: %d image(s), %s\n", s.Name, len(s.Images), status)
		for _, p := range s.Problems {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}
	_, err = fmt.Fprint(out, b.String())
	return err
}
