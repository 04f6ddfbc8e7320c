package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/darahconnect/darah-dashboard/internal/core"
	"github.com/darahconnect/darah-dashboard/internal/domain/model"
	"github.com/darahconnect/darah-dashboard/internal/service"
)

const browseHelp = `Commands:
  /<term>          search (applied after typing stops)
  status <s>       filter by status ("all" clears)
  filter <k>=<v>   set a resource filter (empty value clears)
  next | prev      move one page
  page <n>         jump to page n
  approve <id>     reject <id>     read <id>     unread <id>     delete <id>
  refresh          reload the current page
  help             show this help
  quit             leave
`

type browseOptions struct {
	Resource string
	Search   string
	Status   string
	Actor    string
}

func parseBrowseFlags(args []string) (browseOptions, error) {
	resource, rest := splitResource(args)
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := browseOptions{Resource: resource}
	fs.StringVar(&opts.Search, "search", "", "Initial search term")
	fs.StringVar(&opts.Status, "status", model.StatusAll, "Initial status filter")
	fs.StringVar(&opts.Actor, "actor", os.Getenv("USER"), "Name recorded in the audit log")

	if err := fs.Parse(rest); err != nil {
		return browseOptions{}, err
	}
	if opts.Resource == "" {
		opts.Resource = fs.Arg(0)
	}
	if opts.Resource == "" {
		return browseOptions{}, errors.New("a resource is required")
	}
	return opts, nil
}

// lockedWriter serializes snapshot output from fetch goroutines with command output.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func runBrowse(cmdCtx *commandContext, args []string) error {
	opts, err := parseBrowseFlags(args)
	if err != nil {
		return err
	}
	return withDashboard(cmdCtx, browseSessionLimit, func(ctx context.Context, dash *service.DashboardService) error {
		return browseSession(ctx, cmdCtx.Out, cmdCtx.In, dash, opts)
	})
}

func browseSession(
	ctx context.Context,
	out io.Writer,
	in io.Reader,
	dash *service.DashboardService,
	opts browseOptions,
) error {
	w := &lockedWriter{w: out}
	src, err := dash.Source(opts.Resource)
	if err != nil {
		return err
	}
	spec := src.Spec()

	q := model.NewQueryState(spec.PageSize).WithSearch(opts.Search).WithStatus(opts.Status)
	b, err := dash.Browse(opts.Resource, service.BrowseOptions{
		Query: q,
		OnChange: func(s service.BrowseSnapshot) {
			if !s.Loading {
				printSnapshot(w, spec.Key, s)
			}
		},
	})
	if err != nil {
		return err
	}
	defer b.Close()

	d, err := dash.Dispatcher(opts.Resource, b, nil)
	if err != nil {
		return err
	}
	ctx = withActor(ctx, opts.Actor)

	if err := write(w, browseHelp); err != nil {
		return err
	}
	b.Load()
	b.Wait()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		quit, err := browseCommand(ctx, w, b, d, spec, line)
		if err != nil {
			if writeErr := writef(w, "error: %v\n", err); writeErr != nil {
				return writeErr
			}
		}
		if quit {
			return nil
		}
		b.Wait()
	}
	return scanner.Err()
}

// browseCommand applies one input line. It reports whether the session should end.
func browseCommand(
	ctx context.Context,
	w io.Writer,
	b service.Browser,
	d *core.MutationDispatcher,
	spec service.SourceSpec,
	line string,
) (bool, error) {
	if term, ok := strings.CutPrefix(line, "/"); ok {
		b.SetSearchTerm(term)
		return false, nil
	}
	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch verb {
	case "quit", "q", "exit":
		return true, nil
	case "help", "?":
		return false, write(w, browseHelp)
	case "status":
		b.SetStatusFilter(arg)
	case "filter":
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return false, errors.New("usage: filter <key>=<value>")
		}
		if !spec.AllowsFilter(strings.TrimSpace(key)) {
			return false, fmt.Errorf("%s does not accept filter %q", spec.Key, key)
		}
		b.SetFilter(key, value)
	case "next", "n":
		return false, turnPage(b, b.Snapshot().Query.Page+1)
	case "prev", "p":
		return false, turnPage(b, b.Snapshot().Query.Page-1)
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, fmt.Errorf("page %q is not a number", arg)
		}
		return false, turnPage(b, n)
	case "refresh":
		return false, b.Refetch(ctx)
	case "approve", "reject", "read", "unread", "delete":
		if arg == "" {
			return false, fmt.Errorf("usage: %s <id>", verb)
		}
		out, err := d.Mutate(ctx, model.MutationRequest{Resource: spec.Key, Action: browseActions[verb], IDs: []string{arg}})
		if err != nil {
			return false, err
		}
		return false, reportOutcome(w, spec.Key, out)
	default:
		return false, fmt.Errorf("unknown command %q (type help)", verb)
	}
	return false, nil
}

var browseActions = map[string]model.Action{
	"approve": model.ActionApprove,
	"reject":  model.ActionReject,
	"read":    model.ActionMarkRead,
	"unread":  model.ActionMarkUnread,
	"delete":  model.ActionDelete,
}

func turnPage(b service.Browser, p int) error {
	if !b.SetPage(p) {
		return fmt.Errorf("page %d is out of range", p)
	}
	return nil
}

func printSnapshot(w io.Writer, resource string, s service.BrowseSnapshot) {
	var buf bytes.Buffer
	q := s.Query
	_ = writef(&buf, "\n== %s  status=%s", resource, q.StatusFilter)
	if q.SearchTerm != "" {
		_ = writef(&buf, "  search=%q", q.SearchTerm)
	}
	for _, k := range slices.Sorted(maps.Keys(q.Filters)) {
		_ = writef(&buf, "  %s=%s", k, q.Filters[k])
	}
	_ = writeln(&buf)
	if s.Err != "" {
		_ = writef(&buf, "error: %s\n", s.Err)
	}
	_ = printListPage(&buf, service.ListPage{Items: s.Items, Pagination: s.Pagination})
	_, _ = w.Write(buf.Bytes())
}
