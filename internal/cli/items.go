package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/moviedex/internal/catalog"
	"github.com/mesh-intelligence/moviedex/pkg/types"
)

// itemFlags binds the item fields shared by add and update.
type itemFlags struct {
	title          string
	director       string
	genres         []string
	releaseYear    int
	duration       int
	ageRating      int
	favourite      bool
	animated       bool
	watched        bool
	topic          string
	documentarian  string
	moralLesson    string
	parentalAppeal int
}

func (f *itemFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.title, "title", "", "title")
	fs.StringVar(&f.director, "director", "", "director")
	fs.StringSliceVar(&f.genres, "genre", nil, "genre (repeatable or comma-separated)")
	fs.IntVar(&f.releaseYear, "year", 0, "release year")
	fs.IntVar(&f.duration, "duration", 0, "duration in minutes")
	fs.IntVar(&f.ageRating, "age-rating", 0, "minimum viewer age")
	fs.BoolVar(&f.favourite, "favourite", false, "mark as favourite")
	fs.BoolVar(&f.animated, "animated", false, "mark as animated")
	fs.BoolVar(&f.watched, "watched", false, "mark as watched")
	fs.StringVar(&f.topic, "topic", "", "documentary topic")
	fs.StringVar(&f.documentarian, "documentarian", "", "documentary presenter")
	fs.StringVar(&f.moralLesson, "moral-lesson", "", "kids' movie moral lesson")
	fs.IntVar(&f.parentalAppeal, "parental-appeal", 0, "kids' movie appeal to parents")
}

func ptrIf[T any](fs *pflag.FlagSet, name string, v T) *T {
	if !fs.Changed(name) {
		return nil
	}
	return &v
}

// addRequest builds an AddRequest from the flags that were set; unset
// required fields stay absent so validation reports them.
func (f *itemFlags) addRequest(fs *pflag.FlagSet, kind string) catalog.AddRequest {
	return catalog.AddRequest{
		Kind:           kind,
		Title:          f.title,
		Director:       f.director,
		Genres:         f.genres,
		ReleaseYear:    ptrIf(fs, "year", f.releaseYear),
		Duration:       ptrIf(fs, "duration", f.duration),
		AgeRating:      ptrIf(fs, "age-rating", f.ageRating),
		Favourite:      ptrIf(fs, "favourite", f.favourite),
		IsAnimated:     ptrIf(fs, "animated", f.animated),
		Watched:        ptrIf(fs, "watched", f.watched),
		Topic:          f.topic,
		Documentarian:  f.documentarian,
		MoralLesson:    f.moralLesson,
		ParentalAppeal: ptrIf(fs, "parental-appeal", f.parentalAppeal),
	}
}

// patch builds a Patch holding only the flags that were set.
func (f *itemFlags) patch(fs *pflag.FlagSet) catalog.Patch {
	var genres *types.GenreList
	if fs.Changed("genre") {
		g := types.GenreList(f.genres)
		genres = &g
	}
	return catalog.Patch{
		Title:          ptrIf(fs, "title", f.title),
		Director:       ptrIf(fs, "director", f.director),
		Genres:         genres,
		ReleaseYear:    ptrIf(fs, "year", f.releaseYear),
		Duration:       ptrIf(fs, "duration", f.duration),
		AgeRating:      ptrIf(fs, "age-rating", f.ageRating),
		Favourite:      ptrIf(fs, "favourite", f.favourite),
		IsAnimated:     ptrIf(fs, "animated", f.animated),
		Watched:        ptrIf(fs, "watched", f.watched),
		Topic:          ptrIf(fs, "topic", f.topic),
		Documentarian:  ptrIf(fs, "documentarian", f.documentarian),
		MoralLesson:    ptrIf(fs, "moral-lesson", f.moralLesson),
		ParentalAppeal: ptrIf(fs, "parental-appeal", f.parentalAppeal),
	}
}

func newAddCmd(a *app) *cobra.Command {
	var (
		kind string
		f    itemFlags
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a movie, documentary or kids' movie",
		Long: `Add an item to the catalog. Every kind needs --title, --director,
--genre, --year, --duration and --age-rating. Documentaries also need
--topic and --documentarian; kids' movies need --moral-lesson and
--parental-appeal.

Example:
  moviedex add --title Heat --director "Michael Mann" --genre Crime,Drama \
    --year 1995 --duration 170 --age-rating 16`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			id, err := svc.Add(cmd.Context(), kind, f.addRequest(cmd.Flags(), kind))
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]int64{"id": id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added item %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(types.KindMovie), "movie, documentary or kidMovie")
	f.register(cmd.Flags())
	return cmd
}

// searchFlags maps CLI flags to the query keys ParseFilter reads.
var searchFlags = []struct {
	flag, key, usage string
}{
	{"kind", "kind", "movie, documentary, kidMovie or all"},
	{"title", "title", "title contains"},
	{"director", "director", "director contains"},
	{"genre", "genre", "some genre contains"},
	{"topic", "topic", "topic contains"},
	{"documentarian", "documentarian", "documentarian contains"},
	{"moral-lesson", "moralLesson", "moral lesson contains"},
	{"age-rating", "ageRating", "age rating equals"},
	{"max-year", "releaseYear", "released in or before"},
	{"max-duration", "duration", "at most this many minutes"},
	{"max-parental-appeal", "parentalAppeal", "parental appeal at most"},
	{"favourite", "favourite", "favourite equals (true/false)"},
	{"watched", "watched", "watched equals (true/false)"},
	{"animated", "isAnimated", "animated equals (true/false)"},
}

func newSearchCmd(a *app) *cobra.Command {
	values := make([]string, len(searchFlags))
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the catalog",
		Long: `Search the catalog. Text filters match case-insensitive substrings,
numeric filters are upper bounds except --age-rating, and all filters are
ANDed. With no filters every item is listed.

Example:
  moviedex search --kind documentary --genre nature
  moviedex search --max-year 2000 --watched false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			for i, sf := range searchFlags {
				if cmd.Flags().Changed(sf.flag) {
					q.Set(sf.key, values[i])
				}
			}
			filter, err := catalog.ParseFilter(q)
			if err != nil {
				return err
			}

			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			items, err := svc.Search(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), items)
			}
			return printTable(cmd.OutOrStdout(), items)
		},
	}
	for i, sf := range searchFlags {
		cmd.Flags().StringVar(&values[i], sf.flag, "", sf.usage)
	}
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			item, err := svc.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.printItem(cmd, item)
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	var f itemFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an item",
		Long: `Change the given fields of an item. Fields that are not named keep their
values; the kind never changes. --genre replaces the whole genre set.

Example:
  moviedex update 3 --watched --favourite=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			item, err := svc.Update(cmd.Context(), id, f.patch(cmd.Flags()))
			if err != nil {
				return err
			}
			return a.printItem(cmd, item)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func newAddGenreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-genre <id> <genre>",
		Short: "Add a genre to an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			item, err := svc.AddGenre(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			return a.printItem(cmd, item)
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			if err := svc.Delete(cmd.Context(), id); err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]int64{"deleted": id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted item %d\n", id)
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the catalog without --yes")
			}
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			n, err := svc.Clear(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]int64{"removed": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", plural(n, "item"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every item")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count items per release year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.openService(cmd)
			if err != nil {
				return err
			}
			defer done()

			counts, err := svc.YearCounts(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), counts)
			}
			return printYearCounts(cmd.OutOrStdout(), counts)
		},
	}
}

func plural(n int64, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.FormatInt(n, 10) + " " + noun + "s"
}
