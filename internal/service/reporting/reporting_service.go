package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RoqueChristian/inventario/internal/dataset"
	"github.com/RoqueChristian/inventario/internal/domain/models"
	"github.com/RoqueChristian/inventario/internal/format"
)

// DefaultTopN is the number of products ranked per chart.
const DefaultTopN = 10

// TableLoader returns the normalized table of a movement file. A non-nil
// error comes with an empty table and is reported as a warning.
type TableLoader interface {
	Load(path string, mt models.MovementType) (*dataset.Table, error)
}

// Sources locates the three movement files.
type Sources struct {
	Entries string
	Exits   string
	Pending string
}

// Paths lists every configured file path.
func (s Sources) Paths() []string {
	return []string{s.Entries, s.Exits, s.Pending}
}

// Service assembles dashboards, digests and snapshots for a branch selection.
type Service struct {
	loader  TableLoader
	sources Sources
	topN    int
	now     func() time.Time
	logger  *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(loader TableLoader, sources Sources, topN int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Service{
		loader:  loader,
		sources: sources,
		topN:    topN,
		now:     time.Now,
		logger:  logger,
	}
}

// view is the loaded and filtered state shared by every output.
type view struct {
	selection string
	branches  []string
	entries   *dataset.Table
	exits     *dataset.Table
	pending   *dataset.Table
	warnings  []string
}

// Warm loads every source so the next request is served from cache. It
// returns the load warnings.
func (s *Service) Warm(ctx context.Context) ([]string, error) {
	v, err := s.collect(ctx, dataset.AllBranches)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("movement files warmed",
		zap.Strings("paths", s.sources.Paths()),
		zap.Int("warnings", len(v.warnings)))
	return v.warnings, nil
}

// Branches lists the selectable branches, AllBranches first.
func (s *Service) Branches(ctx context.Context) ([]string, error) {
	v, err := s.collect(ctx, dataset.AllBranches)
	if err != nil {
		return nil, err
	}
	return v.branches, nil
}

// Dashboard builds every panel for selection. An empty selection means
// every branch. Load failures become warnings; the error is only set when
// ctx is done.
func (s *Service) Dashboard(ctx context.Context, selection string) (models.Dashboard, error) {
	v, err := s.collect(ctx, selection)
	if err != nil {
		return models.Dashboard{}, err
	}

	d := models.Dashboard{
		Selection:   v.selection,
		Branches:    v.branches,
		EntrySeries: monthlySeries(v.entries, models.MovementEntry),
		ExitSeries:  monthlySeries(v.exits, models.MovementExit),
		TopEntries:  s.ranking(v.entries, models.MovementEntry),
		TopExits:    s.ranking(v.exits, models.MovementExit),
		Entries:     detailTable(v.entries),
		Exits:       detailTable(v.exits),
		PendingRows: detailTable(v.pending),
		Warnings:    v.warnings,
		GeneratedAt: s.now(),
	}

	if !v.pending.IsEmpty() {
		total := dataset.Sum(v.pending, models.ColumnPendingValue)
		d.Pending = &models.PendingSummary{
			Total:          total,
			TotalLabel:     format.CurrencyDecimal(total),
			OpenNotes:      v.pending.Len(),
			ActiveBranches: dataset.CountDistinct(v.pending, models.ColumnPendingBranch),
		}
	}

	return d, nil
}

// Digest renders a short plain text summary suitable for a chat message.
func (s *Service) Digest(ctx context.Context, selection string) (string, error) {
	v, err := s.collect(ctx, selection)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Inventario - filial %s (%s)\n", v.selection, s.now().Format("02/01/2006 15:04"))

	if v.pending.IsEmpty() {
		b.WriteString("Pendentes de baixa: nenhum\n")
	} else {
		fmt.Fprintf(&b, "Pendentes de baixa: %s em %d notas, %d filiais\n",
			format.CurrencyDecimal(dataset.Sum(v.pending, models.ColumnPendingValue)),
			v.pending.Len(),
			dataset.CountDistinct(v.pending, models.ColumnPendingBranch))
	}

	fmt.Fprintf(&b, "Entradas: %s\n", movementLine(v.entries, models.MovementEntry))
	fmt.Fprintf(&b, "Saidas: %s\n", movementLine(v.exits, models.MovementExit))

	if top := s.ranking(v.entries, models.MovementEntry); !top.NoData && len(top.Items) > 0 {
		fmt.Fprintf(&b, "Maior entrada: %s (%s)\n", top.Items[0].Product, top.Items[0].TotalLabel)
	}
	if top := s.ranking(v.exits, models.MovementExit); !top.NoData && len(top.Items) > 0 {
		fmt.Fprintf(&b, "Maior saida: %s (%s)\n", top.Items[0].Product, top.Items[0].TotalLabel)
	}

	if len(v.warnings) > 0 {
		fmt.Fprintf(&b, "Avisos: %d arquivo(s) com erro de leitura\n", len(v.warnings))
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

// Snapshot captures the numeric state of the dashboard for persistence.
func (s *Service) Snapshot(ctx context.Context, selection string) (models.Snapshot, error) {
	v, err := s.collect(ctx, selection)
	if err != nil {
		return models.Snapshot{}, err
	}

	return models.Snapshot{
		ID:             uuid.NewString(),
		TakenAt:        s.now().UTC(),
		Branch:         v.selection,
		PendingTotal:   dataset.Sum(v.pending, models.ColumnPendingValue).InexactFloat64(),
		PendingNotes:   v.pending.Len(),
		ActiveBranches: dataset.CountDistinct(v.pending, models.ColumnPendingBranch),
		EntryTotal:     dataset.Sum(v.entries, models.MovementEntry.ValueColumn()).InexactFloat64(),
		ExitTotal:      dataset.Sum(v.exits, models.MovementExit.ValueColumn()).InexactFloat64(),
		Warnings:       len(v.warnings),
	}, nil
}

// movementLine is the value total of t followed by its moved quantity.
func movementLine(t *dataset.Table, mt models.MovementType) string {
	value := format.CurrencyDecimal(dataset.Sum(t, mt.ValueColumn()))
	return fmt.Sprintf("%s (%s un.)", value, dataset.Sum(t, mt.QuantityColumn()).String())
}

func (s *Service) collect(ctx context.Context, selection string) (*view, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	selection = strings.TrimSpace(selection)
	if selection == "" {
		selection = dataset.AllBranches
	}

	v := &view{selection: selection}
	entries := s.load(v, s.sources.Entries, models.MovementEntry)
	exits := s.load(v, s.sources.Exits, models.MovementExit)
	pending := s.load(v, s.sources.Pending, models.MovementPending)

	v.branches = append([]string{dataset.AllBranches}, dataset.Branches(models.ColumnBranch, entries, exits)...)
	v.entries = dataset.FilterByBranch(entries, models.MovementEntry.BranchColumn(), selection)
	v.exits = dataset.FilterByBranch(exits, models.MovementExit.BranchColumn(), selection)
	v.pending = dataset.FilterByBranch(pending, models.MovementPending.BranchColumn(), selection)

	return v, nil
}

func (s *Service) load(v *view, path string, mt models.MovementType) *dataset.Table {
	table, err := s.loader.Load(path, mt)
	if err != nil {
		s.logger.Warn("movement file unavailable", zap.String("type", mt.Label()), zap.Error(err))
		v.warnings = append(v.warnings, err.Error())
	}
	if table == nil {
		return dataset.Empty()
	}
	return table
}

func (s *Service) ranking(t *dataset.Table, mt models.MovementType) models.ProductRanking {
	r := dataset.TopN(t, models.ColumnProductName, mt.ValueColumn(), s.topN)
	if r.NoData {
		return models.ProductRanking{NoData: true, Placeholder: models.NoDataPlaceholder, Items: []models.RankedProduct{}}
	}

	items := make([]models.RankedProduct, len(r.Items))
	for i, g := range r.Items {
		items[i] = models.RankedProduct{Product: g.Key, Total: g.Total, TotalLabel: format.CurrencyDecimal(g.Total)}
	}
	return models.ProductRanking{Items: items}
}

func monthlySeries(t *dataset.Table, mt models.MovementType) []models.MonthlyPoint {
	totals := dataset.MonthlyTotals(t, mt.DateColumn(), mt.ValueColumn())
	out := make([]models.MonthlyPoint, len(totals))
	for i, m := range totals {
		out[i] = models.MonthlyPoint{Month: m.Month, Total: m.Total, Label: format.Compact(m.Total)}
	}
	return out
}

// detailTable renders every cell for display: dates as dd/mm/yyyy, money
// columns as currency, everything else as plain text.
func detailTable(t *dataset.Table) models.DetailTable {
	out := models.DetailTable{Columns: t.ColumnNames(), Rows: make([][]string, 0, t.Len())}

	cols := t.Columns()
	money := make([]bool, len(cols))
	for i, c := range cols {
		money[i] = c.Kind == dataset.KindNumber && isMoneyColumn(c.Name)
	}

	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		cells := make([]string, len(row))
		for j, v := range row {
			switch {
			case v.Kind == dataset.KindDate:
				cells[j] = format.Date(v.Time)
			case money[j]:
				cells[j] = format.CurrencyDecimal(v.Number)
			default:
				cells[j] = v.String()
			}
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

func isMoneyColumn(name string) bool {
	return strings.Contains(name, "vlr") || strings.Contains(name, "valor")
}
