package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/moviedex/pkg/types"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printItem(cmd *cobra.Command, item types.Wire) error {
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), item)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", item.ID)
	fmt.Fprintf(tw, "Kind:\t%s\n", item.Kind)
	fmt.Fprintf(tw, "Title:\t%s\n", item.Title)
	fmt.Fprintf(tw, "Director:\t%s\n", item.Director)
	fmt.Fprintf(tw, "Genres:\t%s\n", strings.Join(item.Genres, ", "))
	fmt.Fprintf(tw, "Released:\t%d\n", item.ReleaseYear)
	fmt.Fprintf(tw, "Duration:\t%d min\n", item.Duration)
	fmt.Fprintf(tw, "Age rating:\t%d\n", item.AgeRating)
	fmt.Fprintf(tw, "Favourite:\t%t\n", item.Favourite)
	fmt.Fprintf(tw, "Animated:\t%t\n", item.IsAnimated)
	fmt.Fprintf(tw, "Watched:\t%t\n", item.Watched)
	switch item.Kind {
	case types.KindMovie:
	case types.KindDocumentary:
		fmt.Fprintf(tw, "Topic:\t%s\n", deref(item.Topic))
		fmt.Fprintf(tw, "Documentarian:\t%s\n", deref(item.Documentarian))
	case types.KindKidMovie:
		fmt.Fprintf(tw, "Moral lesson:\t%s\n", deref(item.MoralLesson))
		fmt.Fprintf(tw, "Parental appeal:\t%d\n", deref(item.ParentalAppeal))
	}
	return tw.Flush()
}

func printTable(w io.Writer, items []types.Wire) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No items found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tTITLE\tDIRECTOR\tYEAR\tGENRES")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
			it.ID, it.Kind, it.Title, it.Director, it.ReleaseYear, strings.Join(it.Genres, ", "))
	}
	return tw.Flush()
}

func printYearCounts(w io.Writer, counts []types.YearCount) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "YEAR\tCOUNT")
	for _, c := range counts {
		fmt.Fprintf(tw, "%d\t%d\n", c.ReleaseYear, c.Count)
	}
	return tw.Flush()
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
