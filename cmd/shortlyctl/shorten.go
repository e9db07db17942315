package main

import (
	"Shortly-Backend/internal/database"
	"Shortly-Backend/internal/service"
	"Shortly-Backend/pkg/pagetitle"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	shortenURL  string
	shortenBase string
)

var shortenCmd = &cobra.Command{
	Use:   "shorten",
	Short: "Shorten a URL, or print the existing code if it was shortened before",
	Example: `  shortlyctl shorten --url "https://go.dev/doc/"
  shortlyctl shorten --url "https://go.dev/doc/" --base "https://sho.rt"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		storage, db, err := openStorage()
		if err != nil {
			return err
		}
		defer database.Close(db, log)

		fetcher := pagetitle.New(cfg.URLShortener.TitleFetchTimeout, log)
		registry := service.NewLinkRegistry(storage, fetcher, &cfg.URLShortener, log)

		link, err := registry.CreateOrGet(cmd.Context(), shortenURL, shortenBase, nil)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Code:  %s\n", link.Code)
		fmt.Fprintf(out, "Title: %s\n", link.Title)
		if short := link.ShortURL(); short != "" {
			fmt.Fprintf(out, "Short: %s\n", short)
		}
		return nil
	},
}

func init() {
	shortenCmd.Flags().StringVar(&shortenURL, "url", "", "the long URL to shorten")
	shortenCmd.Flags().StringVar(&shortenBase, "base", "", "origin stored as the link's base URL")
	_ = shortenCmd.MarkFlagRequired("url")
}
