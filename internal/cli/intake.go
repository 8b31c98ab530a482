package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/intake"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// parsePairs turns key=value arguments into form values
func parsePairs(args []string) (url.Values, error) {
	values := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid field %q, expected key=value", arg)
		}
		values.Add(strings.TrimSpace(key), value)
	}
	return values, nil
}

func newSessionCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Print the session id attached to every request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v, cmd, func(a *app) error {
				fmt.Fprintln(a.out, a.profile.SessionID())
				return nil
			})
		},
	}
}

func newSubmitCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "submit key=value...",
		Short: "Score and submit an owner lead",
		Long: `Submit validates the form fields locally, scores the property and, only
if scoring succeeds, creates the lead with that score.

Example:
  leadctl submit zone_key=castelldefels municipality=Castelldefels property_type=piso \
    m2=85 condition=buen_estado sale_horizon=3-6m motivation=mejora already_listed=no \
    exclusivity=depende owner_name=Ana owner_phone=600111222 consent_contact=on`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parsePairs(args)
			if err != nil {
				return err
			}
			return run(v, cmd, func(a *app) error {
				outcome, err := a.pipeline.Submit(context.Background(), values)
				if err != nil {
					return errors.New(intake.UserMessage(err))
				}
				if outcome.Duplicate {
					fmt.Fprintf(a.out, "Ya teníamos tu solicitud (lead %s).\n", outcome.LeadID)
				}
				return printJSON(a.out, outcome)
			})
		},
	}
}

func newResultCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "result",
		Short: "Show the last submitted result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			callback, _ := cmd.Flags().GetBool("request-call")
			return run(v, cmd, func(a *app) error {
				score, lead, err := a.pipeline.LastResult()
				if errors.Is(err, profile.ErrNoResult) {
					return errors.New("No hay ningún resultado guardado. Envía el formulario primero.")
				}
				if err != nil {
					return err
				}
				if callback {
					a.pipeline.RequestCall(score.Tier)
				}
				return printJSON(a.out, map[string]any{"score": score, "lead": lead})
			})
		},
	}
	cmd.Flags().Bool("request-call", false, "ask to be called back about this result")
	return cmd
}

func newTrackCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "track event [key=value...]",
		Short: "Record a telemetry event",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parsePairs(args[1:])
			if err != nil {
				return err
			}
			payload := make(map[string]any, len(values))
			for key := range values {
				payload[key] = values.Get(key)
			}
			return run(v, cmd, func(a *app) error {
				a.emitter.Track(args[0], payload)
				return nil
			})
		},
	}
}

func newResetCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget the cached result and admin session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			return run(v, cmd, func(a *app) error {
				if all {
					return a.profile.Clear()
				}
				return a.profile.Reset()
			})
		},
	}
	cmd.Flags().Bool("all", false, "also rotate the session id")
	return cmd
}
