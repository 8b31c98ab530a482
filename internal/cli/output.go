package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/commercial"
	"github.com/fernandocalderan/IEI-Inmobiliario/internal/models"
)

func printJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func printView(out io.Writer, view *commercial.View) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LEAD\tTIER\tZONE\tSTATUS\tCOMMERCIAL\tAGENCY\tPRICE\tRESERVE\tRELEASE\tSELL")
	for _, row := range view.Rows {
		price := "-"
		if row.LeadPriceEUR != nil {
			price = fmt.Sprintf("%.2f", *row.LeadPriceEUR)
		}
		label := row.Label
		if row.Expired {
			label += " (expired)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.LeadID, row.Tier, row.ZoneKey, row.Status, label, deref(row.ReservedToAgencyID), price,
			yesNo(row.Actions.Reserve), yesNo(row.Actions.Release), yesNo(row.Actions.Sell))
	}
	w.Flush()
	fmt.Fprintf(out, "page %d, %d of %d leads\n", view.Page, len(view.Rows), view.Total)
}

func printAgencies(out io.Writer, agencies []models.Agency) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFOCUS")
	for _, agency := range agencies {
		fmt.Fprintf(w, "%s\t%s\t%s\n", agency.ID, agency.Name, deref(agency.MunicipalityFocus))
	}
	w.Flush()
}

func printZones(out io.Writer, zones []models.Zone) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tZONE\tBASE/M2\tDEMAND\tGROUP\tPOLICY\tPREMIUM\tACTIVE")
	for _, zone := range zones {
		fmt.Fprintf(w, "%s\t%s\t%.0f\t%s\t%s\t%s\t%s\t%s\n",
			zone.ID, zone.ZoneKey, zone.BasePerM2, zone.DemandLevel, deref(zone.ZoneGroup), deref(zone.PricingPolicy),
			yesNo(zone.IsPremium), yesNo(zone.IsActive))
	}
	w.Flush()
}
