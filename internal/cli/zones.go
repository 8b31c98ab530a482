package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fernandocalderan/IEI-Inmobiliario/config"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/zones"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newZonesCmd(v *viper.Viper) *cobra.Command {
	zonesCmd := &cobra.Command{
		Use:   "zones",
		Short: "Inspect and edit zone pricing configuration",
	}
	zonesCmd.AddCommand(newZonesListCmd(v), newZonesEditCmd(v), newZonesExportCmd(v))
	return zonesCmd
}

func newZonesListCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List zones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			return run(v, cmd, func(a *app) error {
				list, err := a.editor.Load(context.Background())
				if err != nil {
					return failed(err)
				}
				if asJSON {
					return printJSON(a.out, list)
				}
				printZones(a.out, list)
				return nil
			})
		},
	}
	cmd.Flags().Bool("json", false, "print JSON instead of a table")
	return cmd
}

// readPricing accepts inline JSON or @path
func readPricing(raw string) (string, error) {
	if !strings.HasPrefix(raw, "@") {
		return raw, nil
	}
	data, err := os.ReadFile(strings.TrimPrefix(raw, "@"))
	if err != nil {
		return "", fmt.Errorf("failed to read pricing file: %w", err)
	}
	return string(data), nil
}

func optionalString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetString(name)
	return &value
}

func optionalBool(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	value, _ := cmd.Flags().GetBool(name)
	return &value
}

func newZonesEditCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit zone-id",
		Short: "Update one zone; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, _ := cmd.Flags().GetString("base")
			demand, _ := cmd.Flags().GetString("demand")
			edit := zones.Edit{
				BasePerM2:     base,
				DemandLevel:   demand,
				ZoneGroup:     optionalString(cmd, "group"),
				PricingPolicy: optionalString(cmd, "policy"),
				IsPremium:     optionalBool(cmd, "premium"),
				IsActive:      optionalBool(cmd, "active"),
			}
			if raw := optionalString(cmd, "pricing-json"); raw != nil {
				pricing, err := readPricing(*raw)
				if err != nil {
					return err
				}
				edit.PricingJSON = &pricing
			}

			return run(v, cmd, func(a *app) error {
				list, err := a.editor.Save(context.Background(), args[0], edit)
				if err != nil {
					if apperr.IsValidation(err) {
						return err
					}
					return failed(err)
				}
				printZones(a.out, list)
				return nil
			})
		},
	}
	cmd.Flags().String("base", "", "base price per m2")
	cmd.Flags().String("demand", "", "demand level (alta, media, baja)")
	cmd.Flags().String("group", "", "zone group")
	cmd.Flags().String("policy", "", "pricing policy name")
	cmd.Flags().String("pricing-json", "", "pricing parameters as JSON, or @file")
	cmd.Flags().Bool("premium", false, "premium zone")
	cmd.Flags().Bool("active", true, "zone accepts leads")
	return cmd
}

func newZonesExportCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "export path",
		Short: "Write zones and agencies to a seed file for cmd/server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v, cmd, func(a *app) error {
				ctx := context.Background()
				list, err := a.editor.Load(ctx)
				if err != nil {
					return failed(err)
				}
				agencies, err := a.client.ListAgencies(ctx)
				if err != nil {
					return failed(err)
				}
				if len(list) == 0 {
					return errors.New("no zones to export")
				}
				if err := config.SaveZoneSeed(args[0], &config.ZoneSeed{Zones: list, Agencies: agencies}); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Wrote %d zones and %d agencies to %s\n", len(list), len(agencies), args[0])
				return nil
			})
		},
	}
}
