package public

import (
	"net/http"
	"sort"

	"github.com/prereview/prereview/internal/reviewrequest"
	"github.com/prereview/prereview/internal/services/web/platform/cards"
	apperrors "github.com/prereview/prereview/internal/services/web/platform/errors"
	"github.com/prereview/prereview/internal/services/web/platform/httpx"
	"github.com/prereview/prereview/internal/services/web/platform/response"
	"github.com/prereview/prereview/internal/services/web/routepath"
	"github.com/prereview/prereview/internal/services/web/templates"
)

const recentRequestsLimit = 5

type handlers struct {
	m Module
}

func newHandlers(m Module) handlers {
	return handlers{m: m}
}

func (h handlers) home(r *http.Request) (response.Response, error) {
	ctx := httpx.RequestContext(r)
	records, err := h.m.prereviews.Recent(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnavailable, err)
	}
	var requests []reviewrequest.Record
	if h.m.requests != nil {
		requests = reviewrequest.Recent(h.m.requests.Snapshot(), recentRequestsLimit)
	}

	ids := append(cards.PrereviewIDs(records), cards.RequestIDs(requests)...)
	preprints := cards.Preprints(ctx, h.m.preprints, ids, h.m.base.Log())

	return response.Page{
		Title: templates.T(ctx, "home.title"),
		Main: templates.Home(templates.HomeView{
			RecentPrereviews: cards.Prereviews(records, preprints),
			RecentRequests:   cards.Requests(requests, preprints),
		}),
		Nav:         templates.NavHome,
		Canonical:   routepath.Home,
		AllowRobots: true,
	}, nil
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h handlers) health(w http.ResponseWriter, r *http.Request) {
	status := healthStatus{Status: "ok"}
	code := http.StatusOK
	names := make([]string, 0, len(h.m.checks))
	for name := range h.m.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if status.Checks == nil {
			status.Checks = map[string]string{}
		}
		if err := h.m.checks[name](r.Context()); err != nil {
			h.m.base.Log().WithError(err).WithField("check", name).Warn("health check failed")
			status.Status = "error"
			status.Checks[name] = "error"
			code = http.StatusServiceUnavailable
			continue
		}
		status.Checks[name] = "ok"
	}
	w.Header().Set("Cache-Control", "no-store")
	_ = httpx.WriteJSON(w, code, status)
}
