package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	"github.com/darahconnect/darah-dashboard/internal/service"
)

const defaultAuditLimit = 50

type auditOptions struct {
	Resource string
	Limit    int
	Offset   int
}

type cacheFlushOptions struct {
	Resources []string
	All       bool
	Yes       bool
}

func parseAuditFlags(args []string) (auditOptions, error) {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := auditOptions{}
	fs.StringVar(&opts.Resource, "resource", "", "Only show mutations of this resource")
	fs.IntVar(&opts.Limit, "limit", defaultAuditLimit, "Maximum entries to print")
	fs.IntVar(&opts.Offset, "offset", 0, "Entries to skip")

	if err := fs.Parse(args); err != nil {
		return auditOptions{}, err
	}
	if opts.Limit <= 0 {
		return auditOptions{}, errors.New("--limit must be greater than zero")
	}
	if opts.Offset < 0 {
		return auditOptions{}, errors.New("--offset must not be negative")
	}
	opts.Resource = strings.TrimSpace(opts.Resource)
	return opts, nil
}

func runAudit(cmdCtx *commandContext, args []string) error {
	opts, err := parseAuditFlags(args)
	if err != nil {
		return err
	}
	return withDashboard(cmdCtx, defaultCommandTimeout, func(ctx context.Context, dash *service.DashboardService) error {
		entries, err := dash.AuditLog(ctx, model.AuditListOptions{
			Resource: opts.Resource,
			Limit:    opts.Limit,
			Offset:   opts.Offset,
		})
		if err != nil {
			return err
		}
		return printAuditEntries(cmdCtx.Out, entries)
	})
}

func printAuditEntries(w io.Writer, entries []*model.AuditEntry) error {
	if len(entries) == 0 {
		return writeln(w, "No mutations recorded yet.")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writeln(tw, "TIME\tRESOURCE\tACTION\tITEMS\tOUTCOME\tACTOR\tERROR"); err != nil {
		return err
	}
	for _, e := range entries {
		actor := e.Actor
		if actor == "" {
			actor = "-"
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime),
			e.Resource,
			e.Action,
			strings.Join(e.ItemIDs, ","),
			e.Outcome,
			actor,
			e.Error,
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func parseCacheFlushFlags(args []string) (cacheFlushOptions, error) {
	fs := flag.NewFlagSet("cache-flush", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := cacheFlushOptions{}
	fs.BoolVar(&opts.All, "all", false, "Flush every resource")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return cacheFlushOptions{}, err
	}
	opts.Resources = fs.Args()
	switch {
	case opts.All && len(opts.Resources) > 0:
		return cacheFlushOptions{}, errors.New("--all cannot be combined with resource names")
	case !opts.All && len(opts.Resources) == 0:
		return cacheFlushOptions{}, errors.New("name at least one resource or pass --all")
	}
	return opts, nil
}

func runCacheFlush(cmdCtx *commandContext, args []string) error {
	opts, err := parseCacheFlushFlags(args)
	if err != nil {
		return err
	}
	return withDashboard(cmdCtx, defaultCommandTimeout, func(ctx context.Context, dash *service.DashboardService) error {
		resources := opts.Resources
		if opts.All {
			resources = dash.Keys()
		}
		prompt := fmt.Sprintf("About to flush cached pages for %s.", strings.Join(resources, ", "))
		if err := confirmAction(cmdCtx.Out, cmdCtx.In, opts.Yes, prompt); err != nil {
			return err
		}
		for _, r := range resources {
			if err := dash.FlushCache(ctx, r); err != nil {
				return err
			}
			if err := writef(cmdCtx.Out, "flushed %s\n", r); err != nil {
				return err
			}
		}
		return nil
	})
}
