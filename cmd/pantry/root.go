package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foxxcyber/smart-pantry/internal/cache"
	"github.com/foxxcyber/smart-pantry/internal/config"
	"github.com/foxxcyber/smart-pantry/internal/logging"
	"github.com/foxxcyber/smart-pantry/internal/pantry"
	"github.com/foxxcyber/smart-pantry/internal/shopping"
)

// keyCurrentList remembers which list the last invocation left current
const keyCurrentList = "cli:currentList"

// currentList is the list left current. Dirty marks local changes the
// backend has not seen, so the cached copy wins over the saved one.
type currentList struct {
	ID    int  `json:"id"`
	Dirty bool `json:"dirty"`
}

// session is everything a command needs, built before it runs
type session struct {
	cfg        *config.Config
	log        *zap.Logger
	store      *cache.Store
	categories shopping.CategoryTable
	r          *shopping.Reconciler
	out        io.Writer
	dirty      bool
}

type rootFlags struct {
	backend string
	token   string
	cache   string
	verbose bool
}

// execute runs the command line in args and releases the cache afterwards,
// including when the command failed
func execute(ctx context.Context, in io.Reader, out io.Writer, args []string) error {
	s := &session{out: out}
	defer s.release()

	root := newRootCmd(s)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	return root.ExecuteContext(ctx)
}

func newRootCmd(s *session) *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:   "pantry",
		Short: "Build and check off a shopping list from your recipes",
		Long: `pantry asks the smart-pantry backend which ingredients your selected
recipes still need, groups them by aisle and keeps them in sync with your
saved lists.

The current list is cached locally, so it survives a lost connection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.open(cmd.Context(), flags)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.remember(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&flags.backend, "backend", "", "smart-pantry backend URL (default $BACKEND_URL)")
	root.PersistentFlags().StringVar(&flags.token, "token", "", "backend access token (default $PANTRY_TOKEN)")
	root.PersistentFlags().StringVar(&flags.cache, "cache", "", "local cache file (default $CACHE_PATH)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output")

	root.AddCommand(
		newSuggestCmd(s),
		newSelectCmd(s),
		newGenerateCmd(s),
		newShowCmd(s),
		newToggleCmd(s),
		newSaveCmd(s),
		newClearCmd(s),
		newListsCmd(s),
		newOpenCmd(s),
		newNewCmd(s),
		newImportCmd(s),
		newExportCmd(s),
		newCategoriesCmd(s),
	)
	return root
}

// open loads configuration, the cache and the user's state
func (s *session) open(ctx context.Context, flags rootFlags) error {
	s.cfg = config.Load()
	if flags.backend != "" {
		s.cfg.BackendURL = flags.backend
	}
	if flags.token != "" {
		s.cfg.PantryToken = flags.token
	}
	if flags.cache != "" {
		s.cfg.CachePath = flags.cache
	}

	level := "warn"
	if flags.verbose {
		level = "debug"
	}
	log, err := logging.New("development", level)
	if err != nil {
		return err
	}
	s.log = log

	if s.cfg.PantryToken != "" {
		expired, err := pantry.TokenExpired(s.cfg.PantryToken, time.Now())
		if err != nil {
			s.log.Warn("Could not read token expiry", zap.Error(err))
		} else if expired {
			return errors.New("your session has expired, please log in again")
		}
	}

	s.categories = shopping.DefaultCategories()
	if s.cfg.CategoriesFile != "" {
		table, err := shopping.LoadCategories(s.cfg.CategoriesFile)
		if err != nil {
			return err
		}
		s.categories = table
	}

	store, err := cache.Open(ctx, cache.DriverSQLite, s.cfg.CachePath, "", s.log)
	if err != nil {
		return err
	}
	s.store = store

	client := pantry.NewClient(s.cfg.BackendURL, s.cfg.PantryToken,
		pantry.WithTimeout(s.cfg.BackendTimeout),
		pantry.WithLogger(s.log.Named("pantry")))
	s.r = shopping.New(client, store, shopping.Options{
		Categories:         s.categories,
		PlaceholderOnEmpty: s.cfg.PlaceholderOnEmpty,
		Logger:             s.log.Named("shopping"),
	})

	if err := s.r.Load(ctx); err != nil {
		if errors.Is(err, pantry.ErrUnauthorized) {
			return errors.New("your session has expired, please log in again")
		}
		s.log.Warn("Working offline", zap.Error(err))
	}
	return s.restoreCurrent(ctx)
}

// restoreCurrent reopens the list the previous invocation left current.
// Load picks the most recent saved list, which is not always that one.
func (s *session) restoreCurrent(ctx context.Context) error {
	data, err := s.store.Get(ctx, keyCurrentList)
	if errors.Is(err, shopping.ErrCacheMiss) {
		return nil
	}
	if err != nil {
		return err
	}
	var cur currentList
	if err := json.Unmarshal(data, &cur); err != nil {
		s.log.Warn("Ignoring unreadable current list", zap.Error(err))
		return nil
	}

	s.dirty = cur.Dirty

	switch {
	case cur.Dirty:
		ok, err := s.r.ResumeCached(ctx, cur.ID)
		if err != nil {
			return err
		}
		if !ok && cur.ID == 0 {
			s.emptyList()
		}
	case cur.ID == 0:
		s.emptyList()
	case cur.ID != s.r.State().ListID:
		if _, err := s.r.SelectList(ctx, cur.ID); err != nil {
			s.log.Warn("Could not reopen list", zap.Int("list_id", cur.ID), zap.Error(err))
		}
	}
	return nil
}

func (s *session) emptyList() {
	s.r.NewList()
	s.r.DismissNotices()
}

// remember stores which list is current for the next invocation
func (s *session) remember(ctx context.Context) error {
	data, err := json.Marshal(currentList{ID: s.r.State().ListID, Dirty: s.dirty})
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, keyCurrentList, data); err != nil {
		return fmt.Errorf("failed to remember current list: %w", err)
	}
	return nil
}

func (s *session) release() {
	if s.store != nil {
		s.store.Close()
	}
	if s.log != nil {
		s.log.Sync()
	}
}
