package dashboardhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/atelier-erp/atelier-erp/internal/dashboard"
	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
	"github.com/atelier-erp/atelier-erp/internal/rollup"
	"github.com/atelier-erp/atelier-erp/internal/rollup/export"
	"github.com/atelier-erp/atelier-erp/internal/rollup/svg"
)

var periodRegex = regexp.MustCompile(`^\d{4}-\d{2}$`)

const requestTimeout = 5 * time.Second

// DashboardService defines the rollup data contract used by the handler.
type DashboardService interface {
	MonthlyOrders(ctx context.Context, ref time.Time) ([]rollup.MonthBucket, error)
	CompletedSpend(ctx context.Context, ref time.Time) ([]rollup.MonthBucket, error)
	StatusBreakdown(ctx context.Context, ref time.Time) ([]rollup.StatusCount, error)
	TopMaterials(ctx context.Context, ref time.Time) ([]rollup.LabelQuantity, error)
	SupplierRanking(ctx context.Context) ([]rollup.RatedEntity, error)
	SupplierStatuses(ctx context.Context) ([]rollup.StatusCount, error)
	DisposalReasons(ctx context.Context, ref time.Time) ([]rollup.StatusCount, error)
	WindowMonths() int
}

// PDFService renders dashboard content to PDF bytes.
type PDFService interface {
	RenderDashboard(ctx context.Context, payload export.DashboardPayload) ([]byte, error)
}

// Handler coordinates HTTP requests for the procurement dashboard.
type Handler struct {
	logger  *slog.Logger
	service DashboardService
	pdf     PDFService
	csvPool sync.Pool
	now     func() time.Time
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService, pdf PDFService) *Handler {
	h := &Handler{
		logger:  logger,
		service: service,
		pdf:     pdf,
		now:     time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type dashboardResponse struct {
	Period           string                 `json:"period"`
	WindowMonths     int                    `json:"windowMonths"`
	Monthly          []rollup.MonthBucket   `json:"monthly"`
	CompletedSpend   []rollup.MonthBucket   `json:"completedSpend"`
	StatusBreakdown  []rollup.StatusCount   `json:"statusBreakdown"`
	TopMaterials     []rollup.LabelQuantity `json:"topMaterials"`
	SupplierRanking  []rollup.RatedEntity   `json:"supplierRanking"`
	SupplierStatuses []rollup.StatusCount   `json:"supplierStatuses"`
	DisposalReasons  []rollup.StatusCount   `json:"disposalReasons"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ref, period, err := h.parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid filters", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data, err := h.loadDashboardData(ctx, ref)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}

	httpx.JSON(w, http.StatusOK, dashboardResponse{
		Period:           period,
		WindowMonths:     h.service.WindowMonths(),
		Monthly:          data.monthly,
		CompletedSpend:   data.spend,
		StatusBreakdown:  data.statuses,
		TopMaterials:     data.materials,
		SupplierRanking:  data.ranking,
		SupplierStatuses: data.supplierStates,
		DisposalReasons:  data.disposals,
	})
}

func (h *Handler) handleOrdersChart(w http.ResponseWriter, r *http.Request) {
	ref, _, err := h.parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid filters", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	buckets, err := h.service.MonthlyOrders(ctx, ref)
	if err != nil {
		h.handleServerError(w, "load monthly orders", err)
		return
	}

	chart, err := svg.Line(svg.DefaultWidth, svg.DefaultHeight, buckets, svg.LineOpts{
		Title:       "Order Volume",
		Description: "Purchase orders per month",
	})
	if err != nil {
		h.handleServerError(w, "render orders chart", err)
		return
	}
	h.writeSVG(w, chart)
}

func (h *Handler) handleStatusChart(w http.ResponseWriter, r *http.Request) {
	ref, _, err := h.parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid filters", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	counts, err := h.service.StatusBreakdown(ctx, ref)
	if err != nil {
		h.handleServerError(w, "load status breakdown", err)
		return
	}

	labels := make([]string, 0, len(counts))
	series := make([]float64, 0, len(counts))
	for _, count := range counts {
		labels = append(labels, count.Label)
		series = append(series, float64(count.Count))
	}

	chart, err := svg.Bars(svg.DefaultWidth, svg.DefaultHeight, series, labels, svg.BarOpts{
		Title:       "Order Status",
		Description: "Purchase orders by status",
		SeriesLabel: "Orders",
	})
	if err != nil {
		h.handleServerError(w, "render status chart", err)
		return
	}
	h.writeSVG(w, chart)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	ref, period, err := h.parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid filters", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data, err := h.loadDashboardData(ctx, ref)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteMonthlyCSV(buf, data.monthly); err != nil {
		h.handleServerError(w, "write monthly csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteDistributionCSV(buf, data.statuses); err != nil {
		h.handleServerError(w, "write status csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteTopItemsCSV(buf, data.materials); err != nil {
		h.handleServerError(w, "write materials csv", err)
		return
	}
	buf.WriteString("\n")
	if err := export.WriteRankingCSV(buf, data.ranking); err != nil {
		h.handleServerError(w, "write ranking csv", err)
		return
	}

	filename := fmt.Sprintf("procurement-dashboard-%s.csv", period)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		h.handleServerError(w, "pdf exporter", errors.New("pdf exporter not configured"))
		return
	}

	ref, period, err := h.parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid filters", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data, err := h.loadDashboardData(ctx, ref)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}

	payload := export.DashboardPayload{
		Period:       period,
		Monthly:      data.monthly,
		Distribution: data.statuses,
		TopMaterials: data.materials,
		Ranking:      data.ranking,
	}
	pdfBytes, err := h.pdf.RenderDashboard(ctx, payload)
	if err != nil {
		h.handleServerError(w, "render pdf", err)
		return
	}

	filename := fmt.Sprintf("procurement-dashboard-%s.pdf", period)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(pdfBytes); err != nil {
		h.logError("stream pdf", err)
	}
}

// parseFilters resolves the reference month for the trailing window. An empty
// period means the window ends at the current month.
func (h *Handler) parseFilters(r *http.Request) (time.Time, string, error) {
	now := h.now().UTC()
	period := strings.TrimSpace(r.URL.Query().Get("period"))
	if period == "" {
		return now, now.Format("2006-01"), nil
	}
	if !periodRegex.MatchString(period) {
		return time.Time{}, "", fmt.Errorf("period must be formatted YYYY-MM")
	}
	ref, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("period must be a valid month")
	}
	return ref, period, nil
}

type dashboardData struct {
	monthly        []rollup.MonthBucket
	spend          []rollup.MonthBucket
	statuses       []rollup.StatusCount
	materials      []rollup.LabelQuantity
	ranking        []rollup.RatedEntity
	supplierStates []rollup.StatusCount
	disposals      []rollup.StatusCount
}

func (h *Handler) loadDashboardData(ctx context.Context, ref time.Time) (dashboardData, error) {
	var data dashboardData

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		buckets, err := h.service.MonthlyOrders(ctx, ref)
		if err != nil {
			return err
		}
		data.monthly = buckets
		return nil
	})

	g.Go(func() error {
		buckets, err := h.service.CompletedSpend(ctx, ref)
		if err != nil {
			return err
		}
		data.spend = buckets
		return nil
	})

	g.Go(func() error {
		counts, err := h.service.StatusBreakdown(ctx, ref)
		if err != nil {
			return err
		}
		data.statuses = counts
		return nil
	})

	g.Go(func() error {
		items, err := h.service.TopMaterials(ctx, ref)
		if err != nil {
			return err
		}
		data.materials = items
		return nil
	})

	g.Go(func() error {
		entities, err := h.service.SupplierRanking(ctx)
		if err != nil {
			return err
		}
		data.ranking = entities
		return nil
	})

	g.Go(func() error {
		counts, err := h.service.SupplierStatuses(ctx)
		if err != nil {
			return err
		}
		data.supplierStates = counts
		return nil
	})

	g.Go(func() error {
		counts, err := h.service.DisposalReasons(ctx, ref)
		if err != nil {
			return err
		}
		data.disposals = counts
		return nil
	})

	if err := g.Wait(); err != nil {
		return dashboardData{}, err
	}
	return data, nil
}

func (h *Handler) writeSVG(w http.ResponseWriter, chart template.HTML) {
	w.Header().Set("Content-Type", "image/svg+xml")
	if _, err := w.Write([]byte(chart)); err != nil {
		h.logError("stream svg", err)
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	httpx.Problem(w, http.StatusInternalServerError, "internal error", http.StatusText(http.StatusInternalServerError))
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

var _ DashboardService = (*dashboard.Service)(nil)
