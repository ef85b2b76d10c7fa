package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
	reimbursementx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/reimbursement"
)

// Executor runs one tool call on behalf of a caller.
type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

// Dispatcher is the capability the tools need from the reimbursement service.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd reimbursementx.Command) (reimbursementx.Outcome, error)
}

func BuildForCaller(svc Dispatcher, caller contractx.Caller) ([]*schema.ToolInfo, Executor) {
	return InfosForRole(caller.Role), NewExecutor(svc, caller)
}

func NewExecutor(svc Dispatcher, caller contractx.Caller) Executor {
	fallback := DefaultExecutor(caller.Role)
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		if !caller.Role.Allows(tool) {
			return fallback(ctx, tool, args)
		}

		cmd, err := decodeCommand(tool, args, caller)
		if err != nil {
			return contractx.ToolResult{Tool: tool, Error: err.Error()}, nil
		}
		return executeCommand(ctx, svc, tool, cmd)
	}
}

func DefaultExecutor(role contractx.Role) Executor {
	return func(ctx context.Context, tool string, _ map[string]any) (contractx.ToolResult, error) {
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("tool=%s is unavailable for role=%s", tool, role),
		}, nil
	}
}

func InfosForRole(role contractx.Role) []*schema.ToolInfo {
	names := role.Tools()
	if len(names) == 0 {
		return nil
	}
	infos := make([]*schema.ToolInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, toolInfos[name])
	}
	return infos
}

var toolInfos = map[string]*schema.ToolInfo{
	contractx.ToolRegister: {
		Name: contractx.ToolRegister,
		Desc: "Registra una nueva solicitud de reembolso médico. El número de solicitud depende del tipo de gasto: " +
			"Medicinas → MED, Exámenes → EXA, Consultas → CON. Si falta el tipo de gasto o el monto, pregunta por ellos antes de llamar.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			argInsuredName:     {Type: schema.String, Desc: "Nombre completo del titular del beneficio", Required: true},
			argExpenseCategory: {Type: schema.String, Desc: "Tipo de gasto: Medicinas, Exámenes o Consultas", Required: true},
			argAmount:          {Type: schema.Number, Desc: "Monto del gasto", Required: true},
			argBeneficiaryName: {Type: schema.String, Desc: "Persona que recibió el servicio, si es distinta al asegurado"},
		}),
	},
	contractx.ToolQuery: {
		Name: contractx.ToolQuery,
		Desc: "Consulta el estado de una solicitud de reembolso por número (por ejemplo MED_00001).",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			argRequestID:   {Type: schema.String, Desc: "Número de solicitud", Required: true},
			argInsuredName: {Type: schema.String, Desc: "Nombre completo del asegurado, usado como filtro si está presente"},
		}),
	},
	contractx.ToolUpdate: {
		Name: contractx.ToolUpdate,
		Desc: "Actualiza el estado, la fecha de respuesta y la respuesta del equipo de una solicitud registrada. " +
			"El estado debe ser uno de: Pendiente, Aprobado, Rechazado, Observado.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			argRequestID: {Type: schema.String, Desc: "Número de solicitud", Required: true},
			argNewStatus: {Type: schema.String, Desc: "Nuevo estado", Required: true, Enum: []string{"Pendiente", "Aprobado", "Rechazado", "Observado"}},
			argResponse:  {Type: schema.String, Desc: "Comentario o justificación del equipo médico", Required: true},
		}),
	},
}
