package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clearcart/internal/cart"
	"clearcart/internal/catalog"
	"clearcart/internal/config"
	"clearcart/internal/rights"
	"clearcart/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		airDate     string
		pullDate    string
		markets     []string
		channels    []string
		renditions  []string
		skipDL      bool
		extAgency   string
		extContact  string
		extEmail    string
		extMaterial string
		extAccept   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the cart-to-fulfillment workflow",
		Long: "Run drives one workflow cycle over the current cart: declare the " +
			"intended use, check clearance with the rights authority, optionally " +
			"file a rights-extension request for restricted assets, and download " +
			"the authorized remainder as an archive bundle.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *cart.Store) error {
				engine, _, err := ctx.newEngine(cmd, cfg, store)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				snap, err := store.Snapshot(cmd.Context())
				if err != nil {
					return fmt.Errorf("read cart: %w", err)
				}
				if snap.Empty() {
					fmt.Fprintln(out, "Cart is empty; nothing to do")
					return nil
				}

				if snap.AllCleared() {
					fmt.Fprintln(out, "Every cart asset is already cleared; skipping the rights check")
					if err := engine.OpenDirectDownload(cmd.Context()); err != nil {
						return err
					}
				} else {
					use, err := parseIntendedUse(airDate, pullDate, markets, channels)
					if err != nil {
						return err
					}
					if err := engine.OpenDownloadRequest(cmd.Context()); err != nil {
						return err
					}
					if err := engine.SubmitIntendedUse(cmd.Context(), use); err != nil {
						return err
					}

					result, err := engine.RunRightsCheck(cmd.Context())
					if err != nil {
						renderWorkflowState(out, engine.Snapshot(), colorize)
						return err
					}
					printPartition(cmd, result)

					if len(result.Restricted) > 0 {
						if strings.TrimSpace(extAgency) == "" {
							fmt.Fprintln(out, "Restricted assets remain; rerun with the --extend flags to file a rights-extension request")
							renderWorkflowState(out, engine.Snapshot(), colorize)
							return nil
						}
						if err := engine.OpenExtensionRequest(cmd.Context()); err != nil {
							return err
						}
						form := workflow.ExtensionRequest{
							AssetIDs:      assetIDs(result.Restricted),
							Agency:        extAgency,
							ContactName:   extContact,
							ContactEmail:  extEmail,
							Materials:     extMaterial,
							TermsAccepted: extAccept,
						}
						if err := engine.SubmitExtensionRequest(cmd.Context(), form); err != nil {
							return err
						}
						fmt.Fprintf(out, "Filed extension request with %s for %d asset(s); they left the cart\n", extAgency, len(form.AssetIDs))
						if engine.Closed() {
							renderWorkflowState(out, engine.Snapshot(), colorize)
							return nil
						}
						if _, err := engine.RunRightsCheck(cmd.Context()); err != nil {
							renderWorkflowState(out, engine.Snapshot(), colorize)
							return err
						}
					}

					if err := engine.ProceedToDownload(cmd.Context()); err != nil {
						return err
					}
				}

				if skipDL {
					fmt.Fprintln(out, "Skipping download as requested")
					renderWorkflowState(out, engine.Snapshot(), colorize)
					return nil
				}

				remaining, err := store.Snapshot(cmd.Context())
				if err != nil {
					return fmt.Errorf("read cart: %w", err)
				}
				selections := make([]catalog.RenditionSelection, 0, remaining.Len())
				for _, a := range remaining.Assets() {
					selections = append(selections, catalog.RenditionSelection{
						AssetID:    a.ID,
						Renditions: append([]string(nil), renditions...),
					})
				}
				if err := engine.StartDownload(cmd.Context(), selections); err != nil {
					renderWorkflowState(out, engine.Snapshot(), colorize)
					return err
				}
				fmt.Fprintf(out, "Archive bundle requested; files land in %s\n", cfg.Paths.DownloadDir)
				renderWorkflowState(out, engine.Snapshot(), colorize)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&airDate, "air-date", "", "First usage date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&pullDate, "pull-date", "", "Last usage date (YYYY-MM-DD), at least one day after the air date")
	cmd.Flags().StringSliceVar(&markets, "market", nil, "Target market (repeatable)")
	cmd.Flags().StringSliceVar(&channels, "channel", nil, "Target media channel (repeatable)")
	cmd.Flags().StringSliceVar(&renditions, "rendition", []string{"master"}, "Rendition to include in the archive (repeatable)")
	cmd.Flags().BoolVar(&skipDL, "skip-download", false, "Stop after clearance without downloading")
	cmd.Flags().StringVar(&extAgency, "extend-agency", "", "Agency to address a rights-extension request to")
	cmd.Flags().StringVar(&extContact, "extend-contact-name", "", "Contact name for the extension request")
	cmd.Flags().StringVar(&extEmail, "extend-contact-email", "", "Contact email for the extension request")
	cmd.Flags().StringVar(&extMaterial, "extend-materials", "", "Free-form description of the requested materials")
	cmd.Flags().BoolVar(&extAccept, "extend-accept-terms", false, "Accept the extension request terms")
	return cmd
}

func parseIntendedUse(airDate, pullDate string, markets, channels []string) (rights.IntendedUse, error) {
	use := rights.IntendedUse{
		Markets:       markets,
		MediaChannels: channels,
	}
	var err error
	if use.AirDate, err = parseDate(airDate); err != nil {
		return rights.IntendedUse{}, fmt.Errorf("--air-date: %w", err)
	}
	if use.PullDate, err = parseDate(pullDate); err != nil {
		return rights.IntendedUse{}, fmt.Errorf("--pull-date: %w", err)
	}
	return use, use.Validate()
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return parsed, nil
}

func assetIDs(assets []catalog.Asset) []string {
	ids := make([]string, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.ID)
	}
	return ids
}

func printPartition(cmd *cobra.Command, result rights.Partition) {
	out := cmd.OutOrStdout()
	headers := []string{"Asset", "Name", "Clearance"}
	rows := make([][]string, 0, len(result.Authorized)+len(result.Restricted))
	for _, a := range result.Authorized {
		rows = append(rows, []string{a.ID, a.DisplayName, "authorized"})
	}
	for _, a := range result.Restricted {
		rows = append(rows, []string{a.ID, a.DisplayName, "restricted"})
	}
	fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft}))
	if len(result.NewlyAuthorized) > 0 {
		fmt.Fprintf(out, "Newly authorized: %s\n", strings.Join(result.NewlyAuthorized, ", "))
	}
}
