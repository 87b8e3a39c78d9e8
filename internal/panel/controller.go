package panel

import (
	"context"
	"sort"
	"strings"

	"constituencies/internal/api"
	"constituencies/internal/logging"
)

// Source is where the controller gets its data. *api.Client satisfies it.
type Source interface {
	Provinces(ctx context.Context) api.Result
	Constituencies(ctx context.Context, province string) api.Result
}

// Request is an in-flight constituency load, tagged with the generation it
// was issued under.
type Request struct {
	Province   string
	Generation uint64
}

// Completion is the answer to a Request.
type Completion struct {
	Request
	Result api.Result
}

// Controller owns the View and applies user events and fetch results to it.
//
// A Controller is not safe for concurrent use: Begin, Complete, Filter and the
// province methods must be called from one goroutine (the UI loop). Fetch only
// reads the Source and may run anywhere.
type Controller struct {
	src     Source
	view    View
	mounted bool
	log     *logging.Logger
}

// New creates an unmounted controller.
func New(src Source) *Controller {
	return &Controller{
		src: src,
		log: logging.Get(logging.CategoryUI),
	}
}

// View returns a copy of the current state.
func (c *Controller) View() View {
	return c.view.clone()
}

// Mounted reports whether Mount has run without a matching Unmount.
func (c *Controller) Mounted() bool {
	return c.mounted
}

// Mount loads the province list synchronously and applies it.
func (c *Controller) Mount(ctx context.Context) {
	c.ApplyProvinces(c.FetchProvinces(ctx))
}

// FetchProvinces calls the source without touching the view.
func (c *Controller) FetchProvinces(ctx context.Context) api.Result {
	return c.src.Provinces(ctx)
}

// ApplyProvinces renders a province result. A failure disables the selector
// for the rest of the session.
func (c *Controller) ApplyProvinces(res api.Result) {
	c.mounted = true

	switch res.Kind {
	case api.KindSuccess, api.KindEmpty:
		names := append([]string(nil), res.Items...)
		sort.Strings(names)

		opts := make([]Option, 0, len(names)+1)
		opts = append(opts, Option{Value: "", Label: PlaceholderLabel})
		for _, n := range names {
			opts = append(opts, Option{Value: n, Label: n})
		}
		c.view.Options = opts
		c.view.SelectorDisabled = false
		c.log.Info("loaded %d provinces", len(names))

	default:
		c.log.Error("province load failed: %v", res.Err)
		c.view.Rows = nil
		c.view.Notice = NoticeError
		c.view.State = StateError
		c.view.SelectorDisabled = true
		c.view.Options = []Option{{Value: "", Label: FailedProvincesLabel}}
	}
}

// Unmount discards all state. Completions that arrive afterwards are ignored.
func (c *Controller) Unmount() {
	c.mounted = false
	gen := c.view.Generation + 1
	c.view = View{Generation: gen}
}

// Begin starts a province selection cycle. It clears the results and the
// filter, and returns the request to fetch. ok is false when no fetch is
// needed: the placeholder was chosen, the selector is disabled, or the
// controller is not mounted.
func (c *Controller) Begin(province string) (req Request, ok bool) {
	if !c.mounted || c.view.SelectorDisabled {
		return Request{}, false
	}

	province = strings.TrimSpace(province)

	// Any earlier in-flight request is superseded from here on.
	c.view.Generation++
	c.view.Selected = province
	c.view.Rows = nil
	c.view.Notice = NoticeNone
	c.view.FilterText = ""
	c.view.FilterVisible = false
	c.view.FilterFocused = false

	if province == "" {
		c.view.Loading = false
		c.view.State = StateIdle
		return Request{}, false
	}

	c.view.Loading = true
	c.view.State = StateLoading
	c.log.Debug("loading constituencies for %q (gen %d)", province, c.view.Generation)
	return Request{Province: province, Generation: c.view.Generation}, true
}

// Fetch runs the request against the source. It does not touch the view.
func (c *Controller) Fetch(ctx context.Context, req Request) Completion {
	return Completion{Request: req, Result: c.src.Constituencies(ctx, req.Province)}
}

// Complete applies a fetched result. It returns false, leaving the view
// untouched, when the completion belongs to a superseded generation.
func (c *Controller) Complete(cmp Completion) bool {
	if !c.mounted || cmp.Generation != c.view.Generation {
		c.log.Debug("dropping stale result for %q (gen %d, current %d)",
			cmp.Province, cmp.Generation, c.view.Generation)
		return false
	}
	defer func() { c.view.Loading = false }()

	switch cmp.Result.Kind {
	case api.KindSuccess:
		names := append([]string(nil), cmp.Result.Items...)
		sort.Strings(names)
		rows := make([]Row, len(names))
		for i, n := range names {
			rows[i] = Row{Text: n}
		}
		c.view.Rows = rows
		c.view.Notice = NoticeNone
		c.view.State = StatePopulated
		c.view.FilterVisible = true
		c.view.FilterFocused = true

	case api.KindEmpty:
		c.view.Rows = nil
		c.view.Notice = NoticeEmpty
		c.view.State = StateEmpty

	default:
		c.log.Error("constituencies for %q failed: %v", cmp.Province, cmp.Result.Err)
		c.view.Rows = nil
		c.view.Notice = NoticeError
		c.view.State = StateError
	}
	return true
}

// SelectProvince runs a whole selection cycle synchronously.
func (c *Controller) SelectProvince(ctx context.Context, province string) {
	req, ok := c.Begin(province)
	if !ok {
		return
	}
	c.Complete(c.Fetch(ctx, req))
}

// Filter hides every row whose text does not contain term, ignoring case.
// Rows are never removed or reordered; an empty term shows everything.
func (c *Controller) Filter(term string) {
	c.view.FilterText = term
	for i := range c.view.Rows {
		c.view.Rows[i].Hidden = !matches(c.view.Rows[i].Text, term)
	}
}
