package reimbursement

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dataReembolsos.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestCSVStoreInitializesMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dataReembolsos.csv")
	store, err := NewCSVStore(path)
	if err != nil {
		t.Fatalf("NewCSVStore() error = %v", err)
	}

	records, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read initialized file: %v", err)
	}
	if got, want := strings.TrimSpace(string(raw)), strings.Join(Columns, ","); got != want {
		t.Fatalf("header = %q, want %q", got, want)
	}
}

func TestCSVStoreMissingDirectoryFails(t *testing.T) {
	t.Parallel()

	store, err := NewCSVStore(filepath.Join(t.TempDir(), "nope", "dataReembolsos.csv"))
	if err != nil {
		t.Fatalf("NewCSVStore() error = %v", err)
	}
	if _, err := store.LoadAll(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestCSVStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, err := NewCSVStore(filepath.Join(t.TempDir(), "dataReembolsos.csv"))
	if err != nil {
		t.Fatalf("NewCSVStore() error = %v", err)
	}

	want := []Request{
		{
			ID:               "MED_00001",
			InsuredName:      "Ana Torres Díaz",
			BeneficiaryName:  "Ana Torres Díaz",
			ExpenseCategory:  CategoryMedicines,
			Amount:           decimal.RequireFromString("150.50"),
			Status:           StatusPending,
			RegistrationDate: "2025-03-14",
			ResponseDate:     NoResponseDate,
			TeamResponse:     InReviewResponse,
		},
		{
			ID:               "OTR_00001",
			InsuredName:      "Luis Pérez",
			BeneficiaryName:  "Hijo, \"Mateo\"",
			ExpenseCategory:  "Dental",
			Amount:           decimal.NewFromInt(0),
			Status:           StatusObserved,
			RegistrationDate: "2025-03-10",
			ResponseDate:     "2025-03-12",
			TeamResponse:     "Adjuntar boleta,\nfirmada",
		},
	}

	if err := store.SaveAll(context.Background(), want); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}
	got, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVStoreLoadsLegacyColumnOrder(t *testing.T) {
	t.Parallel()

	// Files created by the first writer carry FechaRespuesta after RespuestaEquipo.
	path := writeFile(t, strings.Join([]string{
		"N_Solicitud,NomUsuario,NomBeneficiario,TipoGasto,Monto,Estado,FechaRegistro,RespuestaEquipo,FechaRespuesta",
		"CON_00001,Ana,Ana,Consultas,120.0,Pendiente,2025-01-02,En revisión por el área médica,No",
		"CON_00002,Ana,Ana,Consultas,80.5,Aprobado,2025-01-03,Ok,2025-01-05",
	}, "\n")+"\n")

	store, err := NewCSVStore(path)
	if err != nil {
		t.Fatalf("NewCSVStore() error = %v", err)
	}
	records, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].ResponseDate != "2025-01-05" || records[1].TeamResponse != "Ok" {
		t.Fatalf("columns mapped incorrectly: %+v", records[1])
	}

	if err := store.SaveAll(context.Background(), records); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	header := strings.SplitN(string(raw), "\n", 2)[0]
	if header != strings.Join(Columns, ",") {
		t.Fatalf("saved header = %q, want canonical order", header)
	}
}

func TestCSVStoreMissingResponseDateColumn(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "N_Solicitud,NomUsuario,NomBeneficiario,TipoGasto,Monto,Estado,FechaRegistro,RespuestaEquipo\n"+
		"EXA_00001,Ana,Ana,Exámenes,10,Pendiente,2025-01-02,En revisión por el área médica\n")

	store, _ := NewCSVStore(path)
	records, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if records[0].ResponseDate != NoResponseDate {
		t.Fatalf("response date = %q, want %q", records[0].ResponseDate, NoResponseDate)
	}
	if records[0].Responded() {
		t.Fatal("request without response date must not count as responded")
	}
}

func TestCSVStoreRejectsBadSchema(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown column":   "N_Solicitud,NomUsuario,NomBeneficiario,TipoGasto,Monto,Estado,FechaRegistro,RespuestaEquipo,Extra\n",
		"missing column":   "N_Solicitud,NomUsuario,TipoGasto,Monto,Estado,FechaRegistro,RespuestaEquipo\n",
		"duplicate column": "N_Solicitud,N_Solicitud,NomUsuario,NomBeneficiario,TipoGasto,Monto,Estado,FechaRegistro,RespuestaEquipo\n",
		"bad amount": strings.Join(Columns, ",") + "\n" +
			"MED_00001,Ana,Ana,Medicinas,diez,Pendiente,2025-01-02,No,x\n",
		"short row": strings.Join(Columns, ",") + "\n" +
			"MED_00001,Ana,Ana\n",
	}

	for name, content := range cases {
		name, content := name, content
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store, _ := NewCSVStore(writeFile(t, content))
			_, err := store.LoadAll(context.Background())
			if !errors.Is(err, ErrSchema) {
				t.Fatalf("LoadAll() error = %v, want ErrSchema", err)
			}
		})
	}
}

func TestNewCSVStoreRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := NewCSVStore("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestCSVStoreSaveKeepsFileMode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	fresh := filepath.Join(t.TempDir(), "dataReembolsos.csv")
	store, err := NewCSVStore(fresh)
	if err != nil {
		t.Fatalf("NewCSVStore() error = %v", err)
	}
	if err := store.SaveAll(ctx, nil); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}
	info, err := os.Stat(fresh)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o644 {
		t.Fatalf("new file mode = %o, want 644", got)
	}

	path := writeFile(t, strings.Join(Columns, ",")+"\n")
	if err := os.Chmod(path, 0o640); err != nil {
		t.Fatalf("chmod fixture: %v", err)
	}
	store, err = NewCSVStore(path)
	if err != nil {
		t.Fatalf("NewCSVStore() error = %v", err)
	}
	if err := store.SaveAll(ctx, nil); err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}
	info, err = os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if got := info.Mode().Perm(); got != 0o640 {
		t.Fatalf("existing file mode = %o, want 640", got)
	}
}
