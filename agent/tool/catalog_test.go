package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
	reimbursementx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/reimbursement"
)

type fakeDispatcher struct {
	out  reimbursementx.Outcome
	err  error
	cmds []reimbursementx.Command
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, cmd reimbursementx.Command) (reimbursementx.Outcome, error) {
	f.cmds = append(f.cmds, cmd)
	if f.err != nil {
		return reimbursementx.Outcome{}, f.err
	}
	return f.out, nil
}

var (
	admin   = contractx.Caller{Name: "Rosa Quispe Mamani", Role: contractx.RoleAdmin}
	general = contractx.Caller{Name: "Ana Torres Díaz", Role: contractx.RoleGeneral}
)

func TestBuildForCallerAdmin(t *testing.T) {
	t.Parallel()

	infos, executor := BuildForCaller(&fakeDispatcher{}, admin)
	if len(infos) != 3 {
		t.Fatalf("expected 3 tool infos, got %d", len(infos))
	}
	if infos[0].Name != contractx.ToolRegister || infos[1].Name != contractx.ToolQuery || infos[2].Name != contractx.ToolUpdate {
		t.Fatalf("unexpected tool order: %s, %s, %s", infos[0].Name, infos[1].Name, infos[2].Name)
	}
	if executor == nil {
		t.Fatal("executor must not be nil")
	}
}

func TestBuildForCallerGeneral(t *testing.T) {
	t.Parallel()

	infos, _ := BuildForCaller(&fakeDispatcher{}, general)
	if len(infos) != 2 {
		t.Fatalf("expected 2 tool infos, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Name == contractx.ToolUpdate {
			t.Fatal("general role must not see the update tool")
		}
	}
}

func TestInfosForUnknownRole(t *testing.T) {
	t.Parallel()

	if infos := InfosForRole(contractx.Role("Invitado")); len(infos) != 0 {
		t.Fatalf("expected no tools, got %d", len(infos))
	}
}

func TestDefaultExecutorUnavailableMessage(t *testing.T) {
	t.Parallel()

	executor := DefaultExecutor(contractx.RoleGeneral)
	out, err := executor(context.Background(), contractx.ToolUpdate, map[string]any{"n_solicitud": "MED_00001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Tool != contractx.ToolUpdate {
		t.Fatalf("unexpected tool: %s", out.Tool)
	}
	if out.Error == "" {
		t.Fatal("expected non-empty error message")
	}
}

func TestGeneralCannotUpdate(t *testing.T) {
	t.Parallel()

	svc := &fakeDispatcher{}
	executor := NewExecutor(svc, general)
	out, err := executor(context.Background(), contractx.ToolUpdate, map[string]any{
		"n_solicitud":     "MED_00001",
		"nuevo_estado":    "Aprobado",
		"nueva_respuesta": "ok",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Error == "" {
		t.Fatal("expected unavailable tool error")
	}
	if len(svc.cmds) != 0 {
		t.Fatalf("service must not be called, got %d commands", len(svc.cmds))
	}
}

func TestGeneralQueryIsScopedToCaller(t *testing.T) {
	t.Parallel()

	svc := &fakeDispatcher{out: reimbursementx.Outcome{Message: "ok"}}
	executor := NewExecutor(svc, general)
	_, err := executor(context.Background(), contractx.ToolQuery, map[string]any{
		"n_solicitud":      "MED_00001",
		"nombre_asegurado": "Otra Persona",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmd, ok := svc.cmds[0].(reimbursementx.QueryCommand)
	if !ok {
		t.Fatalf("unexpected command type: %T", svc.cmds[0])
	}
	if cmd.OwnerFilter != general.Name {
		t.Fatalf("owner filter = %q, want caller name", cmd.OwnerFilter)
	}
}

func TestAdminQueryWithoutFilter(t *testing.T) {
	t.Parallel()

	svc := &fakeDispatcher{out: reimbursementx.Outcome{Message: "ok"}}
	executor := NewExecutor(svc, admin)
	out, err := executor(context.Background(), contractx.ToolQuery, map[string]any{"n_solicitud": "MED_00001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Result != "ok" {
		t.Fatalf("unexpected result: %#v", out.Result)
	}
	cmd := svc.cmds[0].(reimbursementx.QueryCommand)
	if cmd.OwnerFilter != "" {
		t.Fatalf("owner filter = %q, want empty", cmd.OwnerFilter)
	}
}

func TestRegisterArgumentDecoding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		caller      contractx.Caller
		args        map[string]any
		wantInsured string
		wantAmount  string
	}{
		{
			name:        "general ignores model supplied insured",
			caller:      general,
			args:        map[string]any{"nombre_asegurado": "Otra Persona", "tipo_gasto": "Medicinas", "monto": 150.5},
			wantInsured: general.Name,
			wantAmount:  "150.5",
		},
		{
			name:        "admin defaults to itself",
			caller:      admin,
			args:        map[string]any{"tipo_gasto": "Consultas", "monto": "S/ 80,00"},
			wantInsured: admin.Name,
			wantAmount:  "80",
		},
		{
			name:        "admin registers for someone else",
			caller:      admin,
			args:        map[string]any{"nombre_asegurado": "Luis Pérez", "tipo_gasto": "Exámenes", "monto": 12},
			wantInsured: "Luis Pérez",
			wantAmount:  "12",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := &fakeDispatcher{out: reimbursementx.Outcome{Message: "ok"}}
			executor := NewExecutor(svc, tc.caller)
			out, err := executor(context.Background(), contractx.ToolRegister, tc.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Error != "" {
				t.Fatalf("unexpected tool error: %s", out.Error)
			}
			cmd := svc.cmds[0].(reimbursementx.RegisterCommand)
			if cmd.InsuredName != tc.wantInsured {
				t.Fatalf("insured = %q, want %q", cmd.InsuredName, tc.wantInsured)
			}
			if !cmd.Amount.Equal(decimal.RequireFromString(tc.wantAmount)) {
				t.Fatalf("amount = %s, want %s", cmd.Amount, tc.wantAmount)
			}
		})
	}
}

func TestRegisterInvalidArguments(t *testing.T) {
	t.Parallel()

	svc := &fakeDispatcher{}
	executor := NewExecutor(svc, general)

	for _, args := range []map[string]any{
		{"monto": 10.0},
		{"tipo_gasto": "Medicinas"},
		{"tipo_gasto": "Medicinas", "monto": "diez"},
		{"tipo_gasto": 3, "monto": 10.0},
	} {
		out, err := executor(context.Background(), contractx.ToolRegister, args)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Error == "" {
			t.Fatalf("expected validation error for args %#v", args)
		}
	}
	if len(svc.cmds) != 0 {
		t.Fatalf("service must not be called, got %d commands", len(svc.cmds))
	}
}

func TestDomainErrorsBecomeToolErrors(t *testing.T) {
	t.Parallel()

	executor := NewExecutor(&fakeDispatcher{err: contractx.ErrOwnership}, general)
	out, err := executor(context.Background(), contractx.ToolQuery, map[string]any{"n_solicitud": "MED_00001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Error, "asociada a tu usuario") {
		t.Fatalf("unexpected tool error: %q", out.Error)
	}
}

func TestInfrastructureErrorsPropagate(t *testing.T) {
	t.Parallel()

	boom := errors.New("permission denied")
	executor := NewExecutor(&fakeDispatcher{err: boom}, admin)
	_, err := executor(context.Background(), contractx.ToolQuery, map[string]any{"n_solicitud": "MED_00001"})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}

func TestExecutorAgainstService(t *testing.T) {
	t.Parallel()

	store, err := reimbursementx.NewCSVStore(t.TempDir() + "/dataReembolsos.csv")
	if err != nil {
		t.Fatalf("NewCSVStore() error = %v", err)
	}
	svc, err := reimbursementx.NewService(store)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	generalExec := NewExecutor(svc, general)
	out, err := generalExec(context.Background(), contractx.ToolRegister, map[string]any{"tipo_gasto": "consultas", "monto": 60.0})
	if err != nil || out.Error != "" {
		t.Fatalf("register failed: err=%v toolErr=%s", err, out.Error)
	}
	if !strings.Contains(out.Result.(string), "CON_00001") {
		t.Fatalf("unexpected register result: %v", out.Result)
	}

	adminExec := NewExecutor(svc, admin)
	out, err = adminExec(context.Background(), contractx.ToolUpdate, map[string]any{
		"n_solicitud":     "CON_00001",
		"nuevo_estado":    "Cancelado",
		"nueva_respuesta": "x",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.Error, "Estado no válido") {
		t.Fatalf("unexpected tool error: %q", out.Error)
	}

	otherExec := NewExecutor(svc, contractx.Caller{Name: "Luis Pérez", Role: contractx.RoleGeneral})
	out, err = otherExec(context.Background(), contractx.ToolQuery, map[string]any{"n_solicitud": "CON_00001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Error == "" {
		t.Fatal("another general user must not see the request")
	}
}

func TestRegisterAmountFormats(t *testing.T) {
	t.Parallel()

	cases := []struct {
		monto string
		want  string
	}{
		{monto: "1,500", want: "1500"},
		{monto: "S/ 1,500", want: "1500"},
		{monto: "1,500.00", want: "1500"},
		{monto: "12,345,678.90", want: "12345678.9"},
		{monto: "1.500,75", want: "1500.75"},
		{monto: "80,50", want: "80.5"},
		{monto: "S/. 150.50", want: "150.5"},
		{monto: "200", want: "200"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.monto, func(t *testing.T) {
			t.Parallel()

			svc := &fakeDispatcher{out: reimbursementx.Outcome{Message: "ok"}}
			executor := NewExecutor(svc, general)
			out, err := executor(context.Background(), contractx.ToolRegister, map[string]any{"tipo_gasto": "Medicinas", "monto": tc.monto})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Error != "" {
				t.Fatalf("unexpected tool error: %s", out.Error)
			}
			cmd := svc.cmds[0].(reimbursementx.RegisterCommand)
			if !cmd.Amount.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("amount = %s, want %s", cmd.Amount, tc.want)
			}
		})
	}
}

func TestRegisterRejectsMalformedGrouping(t *testing.T) {
	t.Parallel()

	for _, monto := range []string{"1,50,0", "1234,567.00", "1,500,", "S/", "1.2.3,00"} {
		svc := &fakeDispatcher{}
		executor := NewExecutor(svc, general)
		out, err := executor(context.Background(), contractx.ToolRegister, map[string]any{"tipo_gasto": "Medicinas", "monto": monto})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Error == "" {
			t.Fatalf("expected %q to be rejected, got command %#v", monto, svc.cmds)
		}
	}
}

func TestUpdateRequiresResponse(t *testing.T) {
	t.Parallel()

	svc := &fakeDispatcher{}
	executor := NewExecutor(svc, admin)
	for _, resp := range []any{nil, "", "   "} {
		args := map[string]any{"n_solicitud": "MED_00001", "nuevo_estado": "Aprobado"}
		if resp != nil {
			args["nueva_respuesta"] = resp
		}
		out, err := executor(context.Background(), contractx.ToolUpdate, args)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.Error, "nueva_respuesta is required") {
			t.Fatalf("unexpected tool error: %q", out.Error)
		}
	}
	if len(svc.cmds) != 0 {
		t.Fatalf("service must not be called, got %d commands", len(svc.cmds))
	}
}
