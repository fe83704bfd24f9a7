package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"clearcart/internal/cart"
	"clearcart/internal/catalog"
	"clearcart/internal/config"
)

func newCartCommand(ctx *commandContext) *cobra.Command {
	cartCmd := &cobra.Command{
		Use:   "cart",
		Short: "Inspect and edit the media asset cart",
	}

	cartCmd.AddCommand(newCartListCommand(ctx))
	cartCmd.AddCommand(newCartAddCommand(ctx))
	cartCmd.AddCommand(newCartRemoveCommand(ctx))
	cartCmd.AddCommand(newCartClearCommand(ctx))

	return cartCmd
}

func newCartListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cart contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *cart.Store) error {
				snap, err := store.Snapshot(cmd.Context())
				if err != nil {
					return fmt.Errorf("read cart: %w", err)
				}
				out := cmd.OutOrStdout()
				if snap.Empty() {
					fmt.Fprintln(out, "Cart is empty")
					return nil
				}

				headers := []string{"#", "Asset", "Name", "Ready", "Verdict"}
				aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}
				rows := make([][]string, 0, snap.Len())
				for i, a := range snap.Assets() {
					rows = append(rows, []string{
						strconv.Itoa(i + 1),
						a.ID,
						a.DisplayName,
						yesNo(a.ReadyToUse),
						string(a.Verdict),
					})
				}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}
}

func newCartAddCommand(ctx *commandContext) *cobra.Command {
	var displayName string
	var ready bool

	cmd := &cobra.Command{
		Use:   "add <asset-id>...",
		Short: "Add assets to the cart",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(displayName)
			if name != "" && len(args) > 1 {
				return fmt.Errorf("--name applies to a single asset, got %d", len(args))
			}
			return ctx.withStore(func(cfg *config.Config, store *cart.Store) error {
				assets := make([]catalog.Asset, 0, len(args))
				for _, id := range args {
					id = strings.TrimSpace(id)
					if id == "" {
						continue
					}
					assetName := name
					if assetName == "" {
						assetName = catalog.DeriveDisplayName(id, cfg.Rights.URNPrefix)
					}
					assets = append(assets, catalog.Asset{
						ID:          id,
						DisplayName: assetName,
						ReadyToUse:  ready,
					})
				}
				if err := store.Add(cmd.Context(), assets...); err != nil {
					return fmt.Errorf("add assets: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d asset(s)\n", len(assets))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&displayName, "name", "", "Display name for a single added asset")
	cmd.Flags().BoolVar(&ready, "ready", false, "Mark the assets ready-to-use (pre-cleared)")
	return cmd
}

func newCartRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <asset-id>...",
		Short: "Remove assets from the cart",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *cart.Store) error {
				if err := store.RemoveAssets(cmd.Context(), args); err != nil {
					return fmt.Errorf("remove assets: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d asset(s)\n", len(args))
				return nil
			})
		},
	}
}

func newCartClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every asset and stored authorization",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *cart.Store) error {
				if err := store.Clear(cmd.Context()); err != nil {
					return fmt.Errorf("clear cart: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cart cleared")
				return nil
			})
		},
	}
}
