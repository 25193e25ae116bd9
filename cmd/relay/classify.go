package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"listingrelay/internal/classifier"
	"listingrelay/internal/relay"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [text...]",
		Short: "Classify text offline and print what would be sent",
		Long:  "Classifies the arguments joined by spaces, or each line of stdin when no arguments are given. Nothing is sent.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := classifier.NewListing()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) > 0 {
				report(out, cl.Classify(strings.Join(args, " ")))
				return nil
			}

			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				report(out, cl.Classify(sc.Text()))
			}
			return sc.Err()
		},
	}
}

func report(w io.Writer, r classifier.Result) {
	if r.Matched() {
		fmt.Fprintf(w, "%s\t%s\n", r.Classification, relay.PayloadText(r.Token))
		return
	}
	fmt.Fprintf(w, "%s\t%s\n", r.Classification, r.Reason)
}
