package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/foxxcyber/smart-pantry/internal/services"
	"github.com/foxxcyber/smart-pantry/internal/shopping"
)

func newSuggestCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "List suggested recipes; selected ones are marked",
		RunE: func(cmd *cobra.Command, args []string) error {
			state := s.r.State()
			if len(state.Suggestions) == 0 {
				fmt.Fprintln(s.out, "No suggested recipes.")
				return nil
			}
			selected := make(map[int]bool, len(state.SelectedRecipes))
			for _, id := range state.SelectedRecipes {
				selected[id] = true
			}
			for _, recipe := range state.Suggestions {
				box := "[ ]"
				if selected[recipe.ID] {
					box = "[x]"
				}
				line := fmt.Sprintf("%s #%d %s", box, recipe.ID, recipe.Title)
				if recipe.MatchPercentage != nil {
					line += fmt.Sprintf(" (%.0f%% match)", *recipe.MatchPercentage)
				}
				fmt.Fprintln(s.out, line)
			}
			return nil
		},
	}
}

func newSelectCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "select <recipe-id>...",
		Short: "Toggle recipes in the selection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			var selected []int
			for _, id := range ids {
				selected = s.r.ToggleRecipe(cmd.Context(), id)
			}
			if len(selected) == 0 {
				fmt.Fprintln(s.out, "No recipes selected.")
				return nil
			}
			fmt.Fprintf(s.out, "Selected recipes: %s\n", joinIDs(selected))
			return nil
		},
	}
}

func newGenerateCmd(s *session) *cobra.Command {
	var recipes []int
	var save bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build the list from the selected recipes",
		Long: `Asks the backend which ingredients the recipes still need and replaces
the current list with them. Items checked before stay checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := s.r.Generate(cmd.Context(), recipes)
			if err != nil {
				if errors.Is(err, shopping.ErrNoRecipesSelected) {
					return errors.New("select at least one recipe first, or pass --recipes")
				}
				return err
			}
			s.dirty = true
			fmt.Fprintln(s.out, res.Message)
			if save {
				if err := s.save(cmd); err != nil {
					return err
				}
			}
			fmt.Fprintln(s.out)
			return s.r.Render(s.out)
		},
	}
	cmd.Flags().IntSliceVarP(&recipes, "recipes", "r", nil, "recipe ids to use instead of the selection")
	cmd.Flags().BoolVar(&save, "save", false, "save the list afterwards")
	return cmd
}

func newShowCmd(s *session) *cobra.Command {
	var existing bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current list grouped by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.r.Render(s.out); err != nil {
				return err
			}
			if !existing {
				return nil
			}
			state := s.r.State()
			if len(state.Existing) == 0 {
				return nil
			}
			fmt.Fprintf(s.out, "\nAlready in your pantry (%d)\n", len(state.Existing))
			for _, item := range state.Existing {
				if item.HasAvailability() {
					fmt.Fprintf(s.out, "  - %s: %s %s\n", shopping.CleanName(item.Name), item.Available, item.Unit)
				} else {
					fmt.Fprintf(s.out, "  - %s\n", shopping.CleanName(item.Name))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&existing, "existing", false, "also list ingredients you already have")
	return cmd
}

func newToggleCmd(s *session) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "toggle <item>...",
		Short: "Check or uncheck items by the number shown in 'show'",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			indexes, err := parseIndexes(args)
			if err != nil {
				return err
			}
			for _, i := range indexes {
				item, err := s.r.ToggleCheck(cmd.Context(), i)
				if err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
				state := "unchecked"
				if item.Checked {
					state = "checked"
				}
				fmt.Fprintf(s.out, "%s %s\n", shopping.CleanName(item.Name), state)
			}
			s.dirty = true
			if save {
				return s.save(cmd)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "save the list afterwards")
	return cmd
}

func newSaveCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the current list to the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.save(cmd)
		},
	}
}

// save saves the list and reports the outcome. A list kept only in the
// local cache is a warning, not a failure.
func (s *session) save(cmd *cobra.Command) error {
	res, err := s.r.Save(cmd.Context())
	if err != nil {
		if errors.Is(err, shopping.ErrEmptyList) {
			return errors.New("cannot save an empty list")
		}
		return err
	}
	if res.LocalOnly {
		fmt.Fprintln(s.out, "Error while saving the list. The list was saved locally only.")
		return nil
	}
	s.dirty = false
	if res.Created {
		fmt.Fprintf(s.out, "Saved new list #%d\n", res.ID)
	} else {
		fmt.Fprintf(s.out, "Updated list #%d\n", res.ID)
	}
	return nil
}

func newClearCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the list and delete it from the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			res := s.r.Clear(cmd.Context())
			s.dirty = false
			switch {
			case res.RemoteDeleted:
				fmt.Fprintf(s.out, "Deleted list #%d\n", res.ListID)
			case res.RemoteErr != nil:
				fmt.Fprintf(s.out, "List cleared locally; deleting #%d failed: %v\n", res.ListID, res.RemoteErr)
			default:
				fmt.Fprintln(s.out, "List cleared")
			}
			return nil
		},
	}
}

func newListsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Show saved lists, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			state := s.r.State()
			if len(state.SavedLists) == 0 {
				fmt.Fprintln(s.out, "No saved lists.")
				return nil
			}
			for _, l := range state.SavedLists {
				marker := " "
				if l.ID == state.ListID {
					marker = "*"
				}
				fmt.Fprintf(s.out, "%s #%d %s (%d/%d checked, %s)\n", marker, l.ID, l.DisplayName(),
					l.CheckedCount(), len(l.Items), l.CreatedAt.Local().Format("2006-01-02"))
			}
			return nil
		},
	}
}

func newOpenCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "open <list-id>",
		Short: "Make a saved list current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			if _, err := s.r.SelectList(cmd.Context(), ids[0]); err != nil {
				return err
			}
			s.dirty = false
			return s.r.Render(s.out)
		},
	}
}

func newNewCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new, empty list",
		RunE: func(cmd *cobra.Command, args []string) error {
			s.r.NewList()
			s.dirty = false
			fmt.Fprintln(s.out, s.r.State().Success)
			return nil
		},
	}
}

func newImportCmd(s *session) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Add the items of a markdown checklist or printed list",
		Long: `Reads "- [ ] 2 cups flour" style lines, or the output of 'show', from
file or standard input and adds the items not already on the list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if len(args) == 0 || args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			items := shopping.NewChecklistParser().Parse(string(data))
			added, err := s.r.Import(cmd.Context(), items, replace)
			if err != nil {
				return err
			}
			s.dirty = true
			fmt.Fprintf(s.out, "%d of %d items imported\n", added, len(items))
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the list instead of adding to it")
	return cmd
}

func newExportCmd(s *session) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Upload the printable list and print a download link",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !s.cfg.StorageEnabled() {
				return errors.New("export needs S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY")
			}
			if len(s.r.Items()) == 0 {
				return errors.New("cannot export an empty list")
			}

			storage, err := services.NewStorageService(s.cfg.S3Endpoint, s.cfg.S3AccessKey, s.cfg.S3SecretKey,
				s.cfg.S3Bucket, s.cfg.S3Region, s.cfg.S3UseSSL, s.cfg.ExportURLExpiry)
			if err != nil {
				return err
			}
			if err := storage.EnsureBucket(cmd.Context()); err != nil {
				return err
			}

			var buf strings.Builder
			if err := s.r.Render(&buf); err != nil {
				return err
			}
			res, err := storage.ExportList(cmd.Context(), owner, []byte(buf.String()))
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "%s\n(link valid until %s)\n", res.URL, res.ExpiresAt.Local().Format(time.DateTime))
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "cli", "folder the export is stored under")
	return cmd
}

func newCategoriesCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print the category table in CATEGORIES_FILE format",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(s.out)
			enc.SetIndent(2)
			file := struct {
				Categories shopping.CategoryTable `yaml:"categories"`
			}{s.categories}
			if err := enc.Encode(file); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(strings.TrimPrefix(a, "#"))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseIndexes(args []string) ([]int, error) {
	out := make([]int, 0, len(args))
	for _, a := range args {
		i, err := strconv.Atoi(a)
		if err != nil || i < 0 {
			return nil, fmt.Errorf("invalid item number %q", a)
		}
		out = append(out, i)
	}
	return out, nil
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "#" + strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}
