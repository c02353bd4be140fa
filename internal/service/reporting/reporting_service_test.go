package reporting

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoqueChristian/inventario/internal/dataset"
	"github.com/RoqueChristian/inventario/internal/domain/models"
	"github.com/RoqueChristian/inventario/internal/repository/flatfile"
)

const (
	entriesCSV = "\ufeffCODFILIAL;NUMERO_NOTA;CODPROD;NOME_PRODUTO;CATEGORIA;DTMOV_ENTRADA;QTD_ENTRADA;VLR_ENTRADA;QTD_ESTOQUE_ATUAL\n" +
		"1;100;10;Arroz;Alimentos;2024-01-15;10;1.234,50;50\n" +
		"1;101;11;Feijao;Alimentos;2024-02-03;5;100,00;20\n" +
		"2;102;10;Arroz;Alimentos;2024-02-20;2;50,25;48\n"

	exitsCSV = "CODFILIAL;NUMERO_NOTA;CODPROD;NOME_PRODUTO;CATEGORIA;DTMOV_SAIDA;QTD_SAIDA;VLR_SAIDA;QTD_ESTOQUE_ATUAL\n" +
		"2;200;10;Arroz;Alimentos;2024-01-10;1;10,00;47\n" +
		"3;201;11;Feijao;Alimentos;2024-03-05;1;20,00;19\n"

	pendingCSV = "FILIAL;INVENTARIO;DATA_ATUALIZACAO;CODIGO_USUARIO;NM_USUARIO_ATUALIZACAO;TRANSACAO_ENT;TRANSACAO_SAIDA;VALOR\n" +
		"1;900;2024-03-01;7;Maria;1;2;1.000,00\n" +
		"2;901;2024-03-02;8;Joao;3;4;500,50\n"
)

var fixedNow = time.Date(2024, time.March, 10, 20, 0, 0, 0, time.UTC)

func newFixtureService(t *testing.T) *Service {
	t.Helper()

	dir := t.TempDir()
	sources := Sources{
		Entries: filepath.Join(dir, "inventario_entrada.csv"),
		Exits:   filepath.Join(dir, "inventario_saida.csv"),
		Pending: filepath.Join(dir, "acompanhamento_inventario_pendente_baixa.csv"),
	}
	require.NoError(t, os.WriteFile(sources.Entries, []byte(entriesCSV), 0o600))
	require.NoError(t, os.WriteFile(sources.Exits, []byte(exitsCSV), 0o600))
	require.NoError(t, os.WriteFile(sources.Pending, []byte(pendingCSV), 0o600))

	loader, err := flatfile.NewLoader(flatfile.Options{}, nil)
	require.NoError(t, err)

	svc := NewService(loader, sources, DefaultTopN, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDashboard_AllBranches(t *testing.T) {
	svc := newFixtureService(t)

	d, err := svc.Dashboard(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, dataset.AllBranches, d.Selection)
	assert.Equal(t, []string{"all", "1", "2", "3"}, d.Branches)
	assert.Empty(t, d.Warnings)
	assert.Equal(t, fixedNow, d.GeneratedAt)

	require.NotNil(t, d.Pending)
	assert.True(t, dec("1500.50").Equal(d.Pending.Total))
	assert.Equal(t, "R$ 1.500,50", d.Pending.TotalLabel)
	assert.Equal(t, 2, d.Pending.OpenNotes)
	assert.Equal(t, 2, d.Pending.ActiveBranches)

	require.Len(t, d.EntrySeries, 2)
	assert.Equal(t, "2024-01", d.EntrySeries[0].Month)
	assert.True(t, dec("1234.5").Equal(d.EntrySeries[0].Total))
	assert.Equal(t, "1.2k", d.EntrySeries[0].Label)
	assert.Equal(t, "2024-02", d.EntrySeries[1].Month)
	assert.True(t, dec("150.25").Equal(d.EntrySeries[1].Total))
	assert.Equal(t, "150", d.EntrySeries[1].Label)

	require.Len(t, d.ExitSeries, 2)
	assert.Equal(t, "2024-01", d.ExitSeries[0].Month)
	assert.Equal(t, "2024-03", d.ExitSeries[1].Month)

	require.False(t, d.TopEntries.NoData)
	require.Len(t, d.TopEntries.Items, 2)
	assert.Equal(t, "Arroz", d.TopEntries.Items[0].Product)
	assert.Equal(t, "R$ 1.284,75", d.TopEntries.Items[0].TotalLabel)
	assert.Equal(t, "Feijao", d.TopEntries.Items[1].Product)
	assert.Equal(t, "R$ 100,00", d.TopEntries.Items[1].TotalLabel)
}

func TestDashboard_DetailTablesAreFormatted(t *testing.T) {
	svc := newFixtureService(t)

	d, err := svc.Dashboard(context.Background(), dataset.AllBranches)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"codfilial", "numero_nota", "codprod", "nome_produto", "categoria",
		"dtmov_entrada", "qtd_entrada", "vlr_entrada", "qtd_estoque_atual",
	}, d.Entries.Columns)
	require.Len(t, d.Entries.Rows, 3)
	assert.Equal(t, []string{"1", "100", "10", "Arroz", "Alimentos", "15/01/2024", "10", "R$ 1.234,50", "50"}, d.Entries.Rows[0])

	require.Len(t, d.PendingRows.Rows, 2)
	assert.Equal(t, []string{"1", "900", "01/03/2024", "7", "Maria", "1", "2", "R$ 1.000,00"}, d.PendingRows.Rows[0])
}

func TestDashboard_BranchSelection(t *testing.T) {
	svc := newFixtureService(t)

	d, err := svc.Dashboard(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, "1", d.Selection)
	assert.Equal(t, []string{"all", "1", "2", "3"}, d.Branches, "options are never filtered")
	assert.Len(t, d.Entries.Rows, 2)
	assert.True(t, d.Exits.Empty())
	assert.NotEmpty(t, d.Exits.Columns, "filtered tables keep their columns")
	assert.Empty(t, d.ExitSeries)
	assert.True(t, d.TopExits.NoData)
	assert.Equal(t, models.NoDataPlaceholder, d.TopExits.Placeholder)

	require.NotNil(t, d.Pending)
	assert.Equal(t, "R$ 1.000,00", d.Pending.TotalLabel)
	assert.Equal(t, 1, d.Pending.OpenNotes)
	assert.Equal(t, 1, d.Pending.ActiveBranches)
}

func TestDashboard_UnknownBranchHidesPending(t *testing.T) {
	svc := newFixtureService(t)

	d, err := svc.Dashboard(context.Background(), "99")
	require.NoError(t, err)

	assert.Nil(t, d.Pending)
	assert.True(t, d.Entries.Empty())
	assert.True(t, d.TopEntries.NoData)
}

func TestDashboard_MissingFiles(t *testing.T) {
	dir := t.TempDir()
	loader, err := flatfile.NewLoader(flatfile.Options{}, nil)
	require.NoError(t, err)

	svc := NewService(loader, Sources{
		Entries: filepath.Join(dir, "a.csv"),
		Exits:   filepath.Join(dir, "b.csv"),
		Pending: filepath.Join(dir, "c.csv"),
	}, 0, nil)

	d, err := svc.Dashboard(context.Background(), "")
	require.NoError(t, err)

	assert.Empty(t, d.Warnings, "missing files are silent")
	assert.Equal(t, []string{"all"}, d.Branches)
	assert.Nil(t, d.Pending)
	assert.True(t, d.TopEntries.NoData)
	assert.Empty(t, d.Entries.Columns)
}

type stubLoader struct {
	tables map[models.MovementType]*dataset.Table
	errs   map[models.MovementType]error
}

func (s stubLoader) Load(_ string, mt models.MovementType) (*dataset.Table, error) {
	if err := s.errs[mt]; err != nil {
		return dataset.Empty(), err
	}
	if t, ok := s.tables[mt]; ok {
		return t, nil
	}
	return dataset.Empty(), nil
}

func TestDashboard_LoadFailureBecomesWarning(t *testing.T) {
	loadErr := &flatfile.LoadError{Path: "pendente.csv", Err: errors.New("record on line 3: wrong number of fields")}
	svc := NewService(stubLoader{errs: map[models.MovementType]error{models.MovementPending: loadErr}}, Sources{}, 0, nil)

	d, err := svc.Dashboard(context.Background(), "")
	require.NoError(t, err)

	require.Len(t, d.Warnings, 1)
	assert.Contains(t, d.Warnings[0], "pendente.csv")
	assert.Contains(t, d.Warnings[0], "wrong number of fields")
	assert.Nil(t, d.Pending)
}

func TestDashboard_CanceledContext(t *testing.T) {
	svc := NewService(stubLoader{}, Sources{}, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Dashboard(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapshot(t *testing.T) {
	svc := newFixtureService(t)

	snap, err := svc.Snapshot(context.Background(), "")
	require.NoError(t, err)

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, fixedNow, snap.TakenAt)
	assert.Equal(t, "all", snap.Branch)
	assert.InDelta(t, 1500.50, snap.PendingTotal, 1e-9)
	assert.Equal(t, 2, snap.PendingNotes)
	assert.Equal(t, 2, snap.ActiveBranches)
	assert.InDelta(t, 1384.75, snap.EntryTotal, 1e-9)
	assert.InDelta(t, 30.0, snap.ExitTotal, 1e-9)
	assert.Zero(t, snap.Warnings)

	other, err := svc.Snapshot(context.Background(), "")
	require.NoError(t, err)
	assert.NotEqual(t, snap.ID, other.ID)
}

func TestDigest(t *testing.T) {
	svc := newFixtureService(t)

	text, err := svc.Digest(context.Background(), "")
	require.NoError(t, err)

	assert.Contains(t, text, "Inventario - filial all (10/03/2024 20:00)")
	assert.Contains(t, text, "Pendentes de baixa: R$ 1.500,50 em 2 notas, 2 filiais")
	assert.Contains(t, text, "Entradas: R$ 1.384,75 (17 un.)")
	assert.Contains(t, text, "Saidas: R$ 30,00 (2 un.)")
	assert.Contains(t, text, "Maior entrada: Arroz (R$ 1.284,75)")
	assert.NotContains(t, text, "Avisos")
}

func TestDigest_NoPending(t *testing.T) {
	svc := newFixtureService(t)

	text, err := svc.Digest(context.Background(), "3")
	require.NoError(t, err)

	assert.Contains(t, text, "Pendentes de baixa: nenhum")
	assert.Contains(t, text, "Entradas: R$ 0,00 (0 un.)")
	assert.Contains(t, text, "Maior saida: Feijao (R$ 20,00)")
	assert.NotContains(t, text, "Maior entrada")
}

func TestWarmAndBranches(t *testing.T) {
	svc := newFixtureService(t)

	warnings, err := svc.Warm(context.Background())
	require.NoError(t, err)
	assert.Empty(t, warnings)

	branches, err := svc.Branches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"all", "1", "2", "3"}, branches)
}
