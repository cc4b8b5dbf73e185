package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/evcraddock/havenrise/internal/client"
	"github.com/evcraddock/havenrise/internal/property"
)

var printer = message.NewPrinter(language.BritishEnglish)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatPrice formats whole pounds with a currency sign and grouping.
func formatPrice(pounds int64) string {
	return printer.Sprintf("£%d", pounds)
}

// formatAdded returns the listing date as "12 October 2022", or "-".
func formatAdded(p property.Property) string {
	t, ok := p.AddedOn()
	if !ok {
		return "-"
	}
	return t.Format("2 January 2006")
}

// printPropertyTable prints a list of properties as a formatted table.
// Favourites are marked with a star.
func printPropertyTable(out io.Writer, props []property.Property, favourites []string) error {
	if len(props) == 0 {
		_, err := fmt.Fprintln(out, "No properties found.")
		return err
	}

	fav := make(map[string]bool, len(favourites))
	for _, id := range favourites {
		fav[id] = true
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "\tID\tTYPE\tPRICE\tBED\tPOSTCODE\tADDED\tLOCATION"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "\t--\t----\t-----\t---\t--------\t-----\t--------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, p := range props {
		mark := ""
		if fav[p.ID] {
			mark = "★"
		}
		postcode := p.Postcode
		if postcode == "" {
			postcode = "-"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			mark, p.ID, p.Type, formatPrice(p.Price), p.Bedrooms, postcode, formatAdded(p), truncate(p.Location, 40)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := fmt.Fprintf(out, "\nTotal: %d properties\n", len(props))
	return err
}

// printPropertyDetail prints a single property in text format.
func printPropertyDetail(out io.Writer, resp *client.ShowResponse) error {
	p := resp.Property
	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s\n", p.Type, formatPrice(p.Price))
	fmt.Fprintf(&b, "  ID:        %s\n", p.ID)
	fmt.Fprintf(&b, "  Bedrooms:  %d\n", p.Bedrooms)
	if p.Tenure != "" {
		fmt.Fprintf(&b, "  Tenure:    %s\n", p.Tenure)
	}
	if p.Location != "" {
		fmt.Fprintf(&b, "  Location:  %s\n", p.Location)
	}
	if p.Postcode != "" {
		fmt.Fprintf(&b, "  Postcode:  %s\n", p.Postcode)
	}
	fmt.Fprintf(&b, "  Added:     %s\n", formatAdded(p))
	if resp.Favourite {
		b.WriteString("  Favourite: yes\n")
	}
	if p.URL != "" {
		fmt.Fprintf(&b, "  URL:       %s\n", p.URL)
	}
	if resp.MapURL != "" {
		fmt.Fprintf(&b, "  Map:       %s\n", resp.MapURL)
	}

	desc := p.LongDescription
	if desc == "" {
		desc = p.Description
	}
	if desc != "" {
		fmt.Fprintf(&b, "\n%s\n", desc)
	}
	if len(resp.Gallery) > 0 {
		fmt.Fprintf(&b, "\nImages (%d):\n", len(resp.Gallery))
		for _, img := range resp.Gallery {
			fmt.Fprintf(&b, "  %s\n", img)
		}
	}

	_, err := io.WriteString(out, b.String())
	return err
}

// printFavourites prints the favourites list in text format.
func printFavourites(out io.Writer, favs []property.Property) error {
	if len(favs) == 0 {
		_, err := fmt.Fprintln(out, "No favourites yet.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, p := range favs {
		if _, err := fmt.Fprintf(w, "%d.\t%s\t%s\t%s\t%s\n",
			i+1, p.ID, p.Type, formatPrice(p.Price), truncate(p.Location, 40)); err != nil {
			return fmt.Errorf("writing favourite: %w", err)
		}
	}
	return w.Flush()
}

// warnNotPersisted tells the user a change only exists on the server's memory.
func warnNotPersisted(out io.Writer, resp *client.FavouritesResponse) {
	if resp.Persisted != nil && !*resp.Persisted {
		_, _ = fmt.Fprintln(out, "warning: the server could not save favourites; the change will be lost on restart")
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
