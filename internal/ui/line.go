package ui

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dupescan/internal/report"
	"dupescan/internal/review"
	"dupescan/pkg/utils"
)

// RunLine drives the session with line-oriented commands read from r.
// Per group:
//
//	k 1 3   keep files 1 and 3, then choose m(ove) or d(elete) for the rest
//	m       keep the first file, move the others to quarantine
//	d       keep the first file, delete the others
//	s       skip the group
//	q       quit the review
//
// Indices shown to the operator are 1-based; the keep-set handed to the
// session is 0-based.
func RunLine(session *review.Session, r io.Reader, w io.Writer) {
	in := bufio.NewScanner(r)

	for !session.Done() {
		group, _ := session.Current()

		fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 60))
		fmt.Fprintf(w, "=== Duplicate Group %d/%d (%s) ===\n\n",
			session.Index()+1, session.Len(), report.Label(group.Kind()))

		for i, f := range group.Files() {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, f.FileName())
			fmt.Fprintf(w, "      Size: %s, Modified: %s\n",
				utils.DisplaySize(uint64(max(f.FileSize(), 0))), // #nosec G115
				f.ModTime().Format("2006-01-02 15:04"))
		}

		fmt.Fprintln(w, "\nActions: [K]eep (enter numbers), [M]ove others to quarantine,")
		fmt.Fprintln(w, "         [D]elete others, [S]kip, [Q]uit")

		if !handleGroupCommands(session, group.Len(), in, w) {
			return
		}
	}
}

// handleGroupCommands reads commands until the current group is
// resolved. Returns false when the operator quits or input runs out.
func handleGroupCommands(session *review.Session, memberCount int, in *bufio.Scanner, w io.Writer) bool {
	for {
		fmt.Fprint(w, "> ")
		if !in.Scan() {
			session.Quit()
			return false
		}
		choice := strings.ToLower(strings.TrimSpace(in.Text()))

		switch {
		case choice == "q":
			fmt.Fprintln(w, "\nQuitting review...")
			session.Quit()
			return false

		case choice == "s":
			session.Skip()
			return true

		case choice == "m":
			// Keep the first file, move the rest.
			if err := session.Move(review.KeepSet{0: true}); err != nil {
				fmt.Fprintln(w, err)
				continue
			}
			return true

		case choice == "d":
			if err := session.Delete(review.KeepSet{0: true}); err != nil {
				fmt.Fprintln(w, err)
				continue
			}
			return true

		case strings.HasPrefix(choice, "k"):
			keep, err := parseKeepSet(choice[1:], memberCount)
			if err != nil {
				fmt.Fprintln(w, err)
				continue
			}

			fmt.Fprintln(w, "What to do with the others? [M]ove to quarantine or [D]elete?")
			fmt.Fprint(w, "> ")
			if !in.Scan() {
				session.Quit()
				return false
			}

			switch strings.ToLower(strings.TrimSpace(in.Text())) {
			case "m":
				err = session.Move(keep)
			case "d":
				err = session.Delete(keep)
			default:
				fmt.Fprintln(w, "Invalid choice. Use M or D.")
				continue
			}
			if err != nil {
				fmt.Fprintln(w, err)
				continue
			}
			return true

		default:
			fmt.Fprintln(w, "Invalid choice. Use K, M, D, S, or Q.")
		}
	}
}

// parseKeepSet turns "1 3" into a 0-based keep-set, validating range.
func parseKeepSet(args string, memberCount int) (review.KeepSet, error) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return nil, fmt.Errorf("enter file numbers to keep, like: k 1 2")
	}

	keep := make(review.KeepSet, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid input %q; enter numbers like: k 1 2", p)
		}
		if n < 1 || n > memberCount {
			return nil, fmt.Errorf("invalid index %d; valid range: 1-%d", n, memberCount)
		}
		keep[n-1] = true
	}
	return keep, nil
}
