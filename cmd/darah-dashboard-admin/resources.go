package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/darahconnect/darah-dashboard/internal/adapters/darahapi"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	"github.com/darahconnect/darah-dashboard/internal/service"
)

type listOptions struct {
	Resource string
	Search   string
	Status   string
	Filters  map[string]string
	Page     int
	PageSize int
	JSON     bool
}

type mutationOptions struct {
	Resource string
	IDs      []string
	Actor    string
	Yes      bool
}

type notifyOptions struct {
	UserID  int64
	Title   string
	Message string
	Type    string
	Actor   string
}

// splitResource lets the resource name come before the flags, as in "list requests -status pending".
func splitResource(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

func parseListFlags(args []string) (listOptions, error) {
	resource, rest := splitResource(args)
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := listOptions{Resource: resource, Filters: map[string]string{}}
	fs.StringVar(&opts.Search, "search", "", "Search term")
	fs.StringVar(&opts.Status, "status", model.StatusAll, "Status filter")
	fs.IntVar(&opts.Page, "page", 1, "Page number")
	fs.IntVar(&opts.PageSize, "page-size", 0, "Items per page (defaults to the resource page size)")
	fs.BoolVar(&opts.JSON, "json", false, "Print items as JSON")
	fs.Func("filter", "Extra filter as key=value (repeatable)", func(v string) error {
		key, value, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("filter %q must be key=value", v)
		}
		opts.Filters[strings.TrimSpace(key)] = strings.TrimSpace(value)
		return nil
	})

	if err := fs.Parse(rest); err != nil {
		return listOptions{}, err
	}
	if opts.Resource == "" {
		opts.Resource = fs.Arg(0)
	}
	if opts.Resource == "" {
		return listOptions{}, errors.New("a resource is required")
	}
	if opts.Page <= 0 {
		return listOptions{}, errors.New("--page must be greater than zero")
	}
	if opts.PageSize < 0 {
		return listOptions{}, errors.New("--page-size must not be negative")
	}
	return opts, nil
}

// query builds the list query, rejecting filters the resource does not accept.
func (o listOptions) query(spec service.SourceSpec) (model.QueryState, error) {
	q := model.NewQueryState(spec.PageSize).WithSearch(o.Search).WithStatus(o.Status)
	for key, value := range o.Filters {
		if !spec.AllowsFilter(key) {
			return model.QueryState{}, fmt.Errorf("%s does not accept filter %q", spec.Key, key)
		}
		q = q.WithFilter(key, value)
	}
	q.Page = o.Page
	if o.PageSize > 0 {
		q.PageSize = o.PageSize
	}
	return q, nil
}

func parseMutationFlags(name string, args []string) (mutationOptions, error) {
	resource, rest := splitResource(args)
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := mutationOptions{Resource: resource}
	fs.StringVar(&opts.Actor, "actor", os.Getenv("USER"), "Name recorded in the audit log")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")

	if err := fs.Parse(rest); err != nil {
		return mutationOptions{}, err
	}
	ids := fs.Args()
	if opts.Resource == "" && len(ids) > 0 {
		opts.Resource, ids = ids[0], ids[1:]
	}
	if opts.Resource == "" {
		return mutationOptions{}, errors.New("a resource is required")
	}
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			opts.IDs = append(opts.IDs, id)
		}
	}
	if len(opts.IDs) == 0 {
		return mutationOptions{}, fmt.Errorf("usage: %s <resource> [flags] <id>...", name)
	}
	return opts, nil
}

func parseNotifyFlags(args []string) (notifyOptions, error) {
	fs := flag.NewFlagSet("notify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := notifyOptions{}
	fs.Int64Var(&opts.UserID, "user", 0, "Recipient user id")
	fs.StringVar(&opts.Title, "title", "", "Notification title")
	fs.StringVar(&opts.Message, "message", "", "Notification message")
	fs.StringVar(&opts.Type, "type", "System", "Notification type (Request, Donation, Certificate, Reminder, System)")
	fs.StringVar(&opts.Actor, "actor", os.Getenv("USER"), "Name recorded in the audit log")

	if err := fs.Parse(args); err != nil {
		return notifyOptions{}, err
	}
	return opts, nil
}

func runSummary(cmdCtx *commandContext, _ []string) error {
	return withDashboard(cmdCtx, defaultCommandTimeout, func(ctx context.Context, dash *service.DashboardService) error {
		return printSummary(cmdCtx.Out, dash.Summary(ctx))
	})
}

func printSummary(w io.Writer, sum service.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writeln(tw, "RESOURCE\tTOTAL"); err != nil {
		return err
	}
	for _, e := range sum.Entries {
		total := fmt.Sprint(e.Total)
		if e.Err != nil {
			total = "error: " + e.Err.Error()
		}
		if err := writef(tw, "%s\t%s\n", e.Resource, total); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if n := sum.Failed(); n > 0 {
		return writef(w, "\n%d resource(s) could not be loaded.\n", n)
	}
	return nil
}

func runList(cmdCtx *commandContext, args []string) error {
	opts, err := parseListFlags(args)
	if err != nil {
		return err
	}
	return withDashboard(cmdCtx, defaultCommandTimeout, func(ctx context.Context, dash *service.DashboardService) error {
		src, err := dash.Source(opts.Resource)
		if err != nil {
			return err
		}
		q, err := opts.query(src.Spec())
		if err != nil {
			return err
		}
		page, err := dash.List(ctx, opts.Resource, q)
		if err != nil {
			return err
		}
		if opts.JSON {
			enc := json.NewEncoder(cmdCtx.Out)
			enc.SetIndent("", "  ")
			return enc.Encode(page)
		}
		return printListPage(cmdCtx.Out, page)
	})
}

// listedItem is the part of every dashboard item the table shows.
type listedItem interface {
	ItemID() string
	ItemStatus() string
}

func printListPage(w io.Writer, page service.ListPage) error {
	if len(page.Items) == 0 {
		return writeln(w, "No items match the current filters.")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writeln(tw, "ID\tSTATUS"); err != nil {
		return err
	}
	for _, it := range page.Items {
		li, ok := it.(listedItem)
		if !ok {
			continue
		}
		status := li.ItemStatus()
		if status == "" {
			status = "-"
		}
		if err := writef(tw, "%s\t%s\n", li.ItemID(), status); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	p := page.Pagination
	return writef(w, "\nPage %d of %d (%d items)\n", p.CurrentPage, max(p.TotalPages, 1), p.TotalItems)
}

func statusCommand(action model.Action) commandFn {
	return func(cmdCtx *commandContext, args []string) error {
		opts, err := parseMutationFlags(string(action), args)
		if err != nil {
			return err
		}
		return dispatchEach(cmdCtx, opts, action)
	}
}

func readCommand(read bool) commandFn {
	single, name := model.ActionMarkRead, "mark-read"
	if !read {
		single, name = model.ActionMarkUnread, "mark-unread"
	}
	return func(cmdCtx *commandContext, args []string) error {
		opts, err := parseMutationFlags(name, args)
		if err != nil {
			return err
		}
		if read && len(opts.IDs) > 1 {
			return dispatchBulk(cmdCtx, opts, model.ActionBulkMarkRead, single)
		}
		return dispatchEach(cmdCtx, opts, single)
	}
}

func runDelete(cmdCtx *commandContext, args []string) error {
	opts, err := parseMutationFlags("delete", args)
	if err != nil {
		return err
	}
	prompt := fmt.Sprintf("About to delete %d %s item(s): %s.", len(opts.IDs), opts.Resource, strings.Join(opts.IDs, ", "))
	if err := confirmAction(cmdCtx.Out, cmdCtx.In, opts.Yes, prompt); err != nil {
		return err
	}
	if len(opts.IDs) > 1 {
		return dispatchBulk(cmdCtx, opts, model.ActionBulkDelete, model.ActionDelete)
	}
	return dispatchEach(cmdCtx, opts, model.ActionDelete)
}

// dispatchBulk sends one bulk request when the resource supports selection, otherwise one
// request per id.
func dispatchBulk(cmdCtx *commandContext, opts mutationOptions, bulk, single model.Action) error {
	return withDashboard(cmdCtx, defaultCommandTimeout, func(ctx context.Context, dash *service.DashboardService) error {
		src, err := dash.Source(opts.Resource)
		if err != nil {
			return err
		}
		if !src.Spec().Selectable {
			return mutateEach(withActor(ctx, opts.Actor), cmdCtx.Out, dash, opts, single)
		}
		d, err := dash.Dispatcher(opts.Resource, nil, nil)
		if err != nil {
			return err
		}
		out, err := d.Mutate(withActor(ctx, opts.Actor), model.MutationRequest{
			Resource: opts.Resource,
			Action:   bulk,
			IDs:      opts.IDs,
		})
		if err != nil {
			return err
		}
		return reportOutcome(cmdCtx.Out, opts.Resource, out)
	})
}

func dispatchEach(cmdCtx *commandContext, opts mutationOptions, action model.Action) error {
	return withDashboard(cmdCtx, defaultCommandTimeout, func(ctx context.Context, dash *service.DashboardService) error {
		return mutateEach(withActor(ctx, opts.Actor), cmdCtx.Out, dash, opts, action)
	})
}

// mutateEach issues action once per id and keeps going after a failure.
func mutateEach(
	ctx context.Context,
	w io.Writer,
	dash *service.DashboardService,
	opts mutationOptions,
	action model.Action,
) error {
	d, err := dash.Dispatcher(opts.Resource, nil, nil)
	if err != nil {
		return err
	}
	var errs []error
	for _, id := range opts.IDs {
		out, err := d.Mutate(ctx, model.MutationRequest{Resource: opts.Resource, Action: action, IDs: []string{id}})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", action, id, err))
			if writeErr := writef(w, "%s %s %s: failed: %v\n", action, opts.Resource, id, err); writeErr != nil {
				return writeErr
			}
			continue
		}
		if err := reportOutcome(w, opts.Resource, out); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// reportOutcome prints the result of one dispatch. An optimistic action whose upstream
// call failed is reported as an error.
func reportOutcome(w io.Writer, resource string, out model.MutationOutcome) error {
	ids := strings.Join(out.IDs, ",")
	switch {
	case out.ServerErr != nil:
		if err := writef(w, "%s %s %s: failed: %v\n", out.Action, resource, ids, out.ServerErr); err != nil {
			return err
		}
		return fmt.Errorf("%s %s: %w", out.Action, ids, out.ServerErr)
	case out.Skipped:
		return writef(w, "%s %s %s: nothing to change\n", out.Action, resource, ids)
	default:
		return writef(w, "%s %s %s: done\n", out.Action, resource, ids)
	}
}

func runNotify(cmdCtx *commandContext, args []string) error {
	opts, err := parseNotifyFlags(args)
	if err != nil {
		return err
	}
	return withDashboard(cmdCtx, defaultCommandTimeout, func(ctx context.Context, dash *service.DashboardService) error {
		d, err := dash.Dispatcher(darahapi.ResourceNotifications, nil, nil)
		if err != nil {
			return err
		}
		out, err := d.Mutate(withActor(ctx, opts.Actor), model.MutationRequest{
			Resource: darahapi.ResourceNotifications,
			Action:   model.ActionCreate,
			Payload: model.CreateNotificationRequest{
				UserID:           opts.UserID,
				Title:            strings.TrimSpace(opts.Title),
				Message:          strings.TrimSpace(opts.Message),
				NotificationType: strings.TrimSpace(opts.Type),
			},
		})
		if err != nil {
			return err
		}
		return reportOutcome(cmdCtx.Out, darahapi.ResourceNotifications, out)
	})
}
