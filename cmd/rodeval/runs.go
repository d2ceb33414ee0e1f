package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/banshee-data/rodeval/internal/db"
	"github.com/banshee-data/rodeval/internal/httputil"
)

// runSource reads runs either from a local database or from a running
// `rodeval serve`.
type runSource interface {
	List(ctx context.Context, limit int) ([]*db.Run, error)
	Get(ctx context.Context, id string) (*db.Run, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

type localRuns struct {
	database *db.DB
	store    *db.RunStore
}

func (l *localRuns) List(_ context.Context, limit int) ([]*db.Run, error) { return l.store.List(limit) }
func (l *localRuns) Get(_ context.Context, id string) (*db.Run, error)    { return l.store.Get(id) }
func (l *localRuns) Delete(_ context.Context, id string) error            { return l.store.Delete(id) }
func (l *localRuns) Close() error                                         { return l.database.Close() }

type remoteRuns struct {
	client *httputil.Client
}

func (r *remoteRuns) List(ctx context.Context, limit int) ([]*db.Run, error) {
	var runs []*db.Run
	err := r.client.GetJSON(ctx, "/api/runs?limit="+strconv.Itoa(limit), &runs)
	return runs, err
}

func (r *remoteRuns) Get(ctx context.Context, id string) (*db.Run, error) {
	var run db.Run
	if err := r.client.GetJSON(ctx, "/api/runs/"+url.PathEscape(id), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *remoteRuns) Delete(ctx context.Context, id string) error {
	return r.client.Delete(ctx, "/api/runs/"+url.PathEscape(id))
}

func (r *remoteRuns) Close() error { return nil }

func newRunsCmd(a *app) *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored evaluation runs",
	}
	cmd.PersistentFlags().StringVar(&server, "server", "", "read runs from a running `rodeval serve` at this URL instead of --db")

	open := func() (runSource, error) {
		if server != "" {
			return &remoteRuns{client: httputil.NewClient(server, nil)}, nil
		}
		if a.opts.DBPath == "" {
			return nil, errors.New("no results database: set --db or --server")
		}
		database, err := db.NewDB(a.opts.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open results db: %w", err)
		}
		return &localRuns{database: database, store: db.NewRunStore(database.DB)}, nil
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := open()
			if err != nil {
				return err
			}
			defer src.Close()
			runs, err := src.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printRunList(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to show (0 for all)")

	var asJSON bool
	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := open()
			if err != nil {
				return err
			}
			defer src.Close()
			run, err := src.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			}
			printRun(cmd.OutOrStdout(), run)
			return nil
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "print the run as JSON")

	del := &cobra.Command{
		Use:   "delete <run-id>...",
		Short: "Delete runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := open()
			if err != nil {
				return err
			}
			defer src.Close()
			var failed int
			for _, id := range args {
				if err := src.Delete(cmd.Context(), id); err != nil {
					printWarning("%s: %v", id, err)
					failed++
					continue
				}
				printSuccess("deleted %s", id)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d runs not deleted", failed, len(args))
			}
			return nil
		},
	}

	cmd.AddCommand(list, show, del)
	return cmd
}
