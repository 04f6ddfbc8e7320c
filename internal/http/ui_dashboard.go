package httpx

import (
	"context"
	"net/http"

	"github.com/darahconnect/darah-dashboard/internal/service"
)

// summaryCard is one resource total on the dashboard home page.
type summaryCard struct {
	Key   string
	Title string
	Path  string
	Total int
	Error string
}

func (h *UIHandlers) summaryCards(sum service.Summary) []summaryCard {
	cards := make([]summaryCard, 0, len(sum.Entries))
	for _, e := range sum.Entries {
		card := summaryCard{Key: e.Resource, Title: e.Resource, Path: "/" + e.Resource, Total: e.Total}
		if src, err := h.Dashboard.Source(e.Resource); err == nil {
			card.Title = src.Spec().Title
		}
		if e.Err != nil {
			card.Error = userMessage(e.Err)
		}
		cards = append(cards, card)
	}
	return cards
}

// Home renders the dashboard home page with per-resource totals.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Dashboard · DarahConnect", PageTitle: "Dashboard", CurrentPage: PageDashboard},
		Fetch: func(ctx context.Context, data map[string]any) error {
			if h.Dashboard == nil {
				return nil
			}
			sum := h.Dashboard.Summary(ctx)
			data["Cards"] = h.summaryCards(sum)
			data["GeneratedAt"] = sum.GeneratedAt
			if failed := sum.Failed(); failed > 0 {
				data["PartialFailure"] = failed
			}
			return nil
		},
	})
}
