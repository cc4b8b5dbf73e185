package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/havenrise/internal/search"
)

func newSearchCmd() *cobra.Command {
	form := search.DefaultForm()

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the catalog",
		Long: `Search the catalog. Every filter is optional and unparseable values are ignored.
Prices accept the form's own values, e.g. "£400,000" or "£1,000,000+".`,
		Example: `  hr search --type House --max-price "£800,000"
  hr search --postcode BR6 --min-beds 2
  hr search --from 2024-01-01 --term flat`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, form)
		},
	}

	f := cmd.Flags()
	f.StringVar(&form.Type, "type", search.Any, "property type, exact match")
	f.StringVar(&form.MinPrice, "min-price", search.Any, "minimum price")
	f.StringVar(&form.MaxPrice, "max-price", search.Any, "maximum price")
	f.StringVar(&form.MinBedrooms, "min-beds", search.Any, "minimum bedrooms")
	f.StringVar(&form.MaxBedrooms, "max-beds", search.Any, "maximum bedrooms")
	f.StringVar(&form.DateFrom, "from", "", "added on or after (YYYY-MM-DD)")
	f.StringVar(&form.DateTo, "to", "", "added on or before (YYYY-MM-DD)")
	f.StringVar(&form.Postcode, "postcode", "", "postcode prefix or location text")
	f.StringVar(&form.SearchTerm, "term", "", "text to find in the property type")

	return cmd
}

func runSearch(cmd *cobra.Command, form search.Form) error {
	resp, err := newAPIClient().Search(cmd.Context(), form)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), resp)
	}
	return printPropertyTable(cmd.OutOrStdout(), resp.Properties, resp.FavouriteIDs)
}
