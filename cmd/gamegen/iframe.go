package main

import (
	"fmt"

	"github.com/kapu/gamegen-go/internal/packager"
	"github.com/spf13/cobra"
)

func newIframeCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "iframe <url>",
		Short: "Write a standalone HTML page embedding the game URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			page, err := packager.Package(args[0])
			if err != nil {
				return err
			}

			path, err := page.Save(dir)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(c.OutOrStdout(), path)
			return err
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to write the page to")

	return cmd
}
