package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/commercial"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// failed turns a commercial error into the operator notification
func failed(err error) error {
	return errors.New(commercial.UserMessage(err))
}

func newLoginCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Open a back-office session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = v.GetString("admin_password")
			}
			if password == "" {
				return errors.New("please provide the admin password (--password or admin_password in the config file)")
			}
			return run(v, cmd, func(a *app) error {
				if err := a.client.Login(context.Background(), password); err != nil {
					return failed(err)
				}
				if err := a.profile.SaveCookies(a.client.Cookies()); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Logged in")
				return nil
			})
		},
	}
	cmd.Flags().StringP("password", "p", "", "admin password")
	return cmd
}

func newLogoutCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Close the back-office session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v, cmd, func(a *app) error {
				err := a.client.Logout(context.Background())
				if saveErr := a.profile.SaveCookies(nil); saveErr != nil {
					return saveErr
				}
				if err != nil {
					return failed(err)
				}
				fmt.Fprintln(a.out, "Logged out")
				return nil
			})
		},
	}
}

func newLeadsCmd(v *viper.Viper) *cobra.Command {
	leadsCmd := &cobra.Command{
		Use:   "leads",
		Short: "Browse and allocate scored leads",
	}
	leadsCmd.AddCommand(
		newLeadsListCmd(v),
		newLeadsShowCmd(v),
		newLeadsReserveCmd(v),
		newLeadsReleaseCmd(v),
		newLeadsSellCmd(v),
		newLeadsStatusCmd(v),
		newLeadsExportCmd(v),
	)
	return leadsCmd
}

func newLeadsListCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads with their allowed actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, _ := cmd.Flags().GetString("tier")
			zone, _ := cmd.Flags().GetString("zone")
			status, _ := cmd.Flags().GetString("status")
			page, _ := cmd.Flags().GetInt("page")
			pageSize, _ := cmd.Flags().GetInt("page-size")
			asJSON, _ := cmd.Flags().GetBool("json")

			return run(v, cmd, func(a *app) error {
				view, err := a.controller.Load(context.Background(), models.LeadFilter{
					Tier:     tier,
					ZoneKey:  zone,
					Status:   models.LeadStatus(status),
					Page:     page,
					PageSize: pageSize,
				})
				if err != nil {
					return failed(err)
				}
				if asJSON {
					return printJSON(a.out, view)
				}
				printView(a.out, view)
				return nil
			})
		},
	}
	cmd.Flags().String("tier", "", "filter by tier (A, B, C, D)")
	cmd.Flags().String("zone", "", "filter by zone key")
	cmd.Flags().String("status", "", "filter by status (nuevo, contactado, cita, vendido, descartado)")
	cmd.Flags().Int("page", 1, "page number")
	cmd.Flags().Int("page-size", 0, "page size (default from IEI_PAGE_SIZE)")
	cmd.Flags().Bool("json", false, "print JSON instead of a table")
	return cmd
}

func newLeadsShowCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "show lead-id",
		Short: "Show one lead with pricing and segment context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v, cmd, func(a *app) error {
				detail, err := a.controller.Detail(context.Background(), args[0])
				if err != nil {
					return failed(err)
				}
				return printJSON(a.out, detail)
			})
		},
	}
}

// mutate loads the current collection so disabled actions are refused
// locally, applies fn and prints the reloaded row
func mutate(a *app, leadID string, fn func(ctx context.Context) (*commercial.View, error)) error {
	ctx := context.Background()
	if _, err := a.controller.Load(ctx, models.LeadFilter{}); err != nil {
		return failed(err)
	}
	view, err := fn(ctx)
	if err != nil {
		return failed(err)
	}
	if row, ok := view.Row(leadID); ok {
		fmt.Fprintf(a.out, "%s: %s\n", leadID, row.Label)
		return nil
	}
	fmt.Fprintf(a.out, "%s: done\n", leadID)
	return nil
}

func newLeadsReserveCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reserve lead-id",
		Short: "Reserve an available tier A lead for an agency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agency, _ := cmd.Flags().GetString("agency")
			hours, _ := cmd.Flags().GetString("hours")
			return run(v, cmd, func(a *app) error {
				params, err := commercial.NewReserveParams(agency, hours, a.controller.DefaultReserveHours())
				if err != nil {
					return failed(err)
				}
				return mutate(a, args[0], func(ctx context.Context) (*commercial.View, error) {
					return a.controller.Reserve(ctx, args[0], params)
				})
			})
		},
	}
	cmd.Flags().String("agency", "", "agency id")
	cmd.Flags().String("hours", "", "reservation length in hours (default from IEI_RESERVE_HOURS)")
	return cmd
}

func newLeadsReleaseCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "release lead-id",
		Short: "Release a reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v, cmd, func(a *app) error {
				return mutate(a, args[0], func(ctx context.Context) (*commercial.View, error) {
					return a.controller.Release(ctx, args[0])
				})
			})
		},
	}
}

func newLeadsSellCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sell lead-id",
		Short: "Sell a lead to an agency",
		Long:  "Sell a lead. Without --agency the reserving agency is used.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agency, _ := cmd.Flags().GetString("agency")
			price, _ := cmd.Flags().GetString("price")
			return run(v, cmd, func(a *app) error {
				if agency == "" {
					detail, err := a.controller.Detail(context.Background(), args[0])
					if err != nil {
						return failed(err)
					}
					agency = commercial.DefaultSellAgency(detail.LeadItem)
				}
				params, err := commercial.NewSellParams(agency, price)
				if err != nil {
					return failed(err)
				}
				return mutate(a, args[0], func(ctx context.Context) (*commercial.View, error) {
					return a.controller.Sell(ctx, args[0], params)
				})
			})
		},
	}
	cmd.Flags().String("agency", "", "agency id (default: the reserving agency)")
	cmd.Flags().String("price", "", "sale price in EUR")
	return cmd
}

func newLeadsStatusCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "status lead-id status",
		Short: "Set the triage status (nuevo, contactado, cita, vendido, descartado)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := commercial.ParseStatus(args[1])
			if err != nil {
				return failed(err)
			}
			return run(v, cmd, func(a *app) error {
				return mutate(a, args[0], func(ctx context.Context) (*commercial.View, error) {
					return a.controller.UpdateStatus(ctx, args[0], status)
				})
			})
		},
	}
}

func newLeadsExportCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-url",
		Short: "Print the sales CSV export link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tier, _ := cmd.Flags().GetString("tier")
			zone, _ := cmd.Flags().GetString("zone")
			return run(v, cmd, func(a *app) error {
				fmt.Fprintln(a.out, a.client.SalesExportURL(tier, zone))
				return nil
			})
		},
	}
	cmd.Flags().String("tier", "", "filter by tier")
	cmd.Flags().String("zone", "", "filter by zone key")
	return cmd
}

func newAgenciesCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "agencies",
		Short: "List active agencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v, cmd, func(a *app) error {
				agencies, err := a.controller.Agencies(context.Background())
				if err != nil {
					return failed(err)
				}
				printAgencies(a.out, agencies)
				return nil
			})
		},
	}
}
