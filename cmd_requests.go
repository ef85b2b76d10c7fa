package main

import (
	"github.com/spf13/cobra"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
)

var (
	registerCategory    string
	registerAmount      string
	registerBeneficiary string
	registerInsured     string

	queryInsured string

	updateStatus   string
	updateResponse string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a reimbursement request without the assistant",
	Example: `  reembolsos register -u atorres -p secreto --tipo Medicinas --monto 150.50
  reembolsos register -u rquispe -p admin --tipo Dental --monto 80 --asegurado "Luis Pérez Rojas"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		toolArgs := map[string]any{
			"tipo_gasto": registerCategory,
			"monto":      registerAmount,
		}
		if registerBeneficiary != "" {
			toolArgs["nombre_beneficiario"] = registerBeneficiary
		}
		if registerInsured != "" {
			toolArgs["nombre_asegurado"] = registerInsured
		}
		return runDirectTool(cmd, contractx.ToolRegister, toolArgs)
	},
}

var queryCmd = &cobra.Command{
	Use:     "query <n_solicitud>",
	Short:   "Show one reimbursement request",
	Example: `  reembolsos query MED_00001 -u atorres -p secreto`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		toolArgs := map[string]any{"n_solicitud": args[0]}
		if queryInsured != "" {
			toolArgs["nombre_asegurado"] = queryInsured
		}
		return runDirectTool(cmd, contractx.ToolQuery, toolArgs)
	},
}

var updateCmd = &cobra.Command{
	Use:     "update <n_solicitud>",
	Short:   "Change the status and team response of a request (administrators only)",
	Example: `  reembolsos update MED_00001 -u rquispe -p admin --estado Aprobado --respuesta "Reembolso procesado"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDirectTool(cmd, contractx.ToolUpdate, map[string]any{
			"n_solicitud":     args[0],
			"nuevo_estado":    updateStatus,
			"nueva_respuesta": updateResponse,
		})
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerCategory, "tipo", "", "expense category: Medicinas, Exámenes, Consultas or other")
	registerCmd.Flags().StringVar(&registerAmount, "monto", "", "amount, e.g. 150.50")
	registerCmd.Flags().StringVar(&registerBeneficiary, "beneficiario", "", "beneficiary name (defaults to the insured)")
	registerCmd.Flags().StringVar(&registerInsured, "asegurado", "", "insured name (administrators only)")
	registerCmd.MarkFlagRequired("tipo")
	registerCmd.MarkFlagRequired("monto")

	queryCmd.Flags().StringVar(&queryInsured, "asegurado", "", "only match requests of this insured (administrators)")

	updateCmd.Flags().StringVar(&updateStatus, "estado", "", "new status: Pendiente, Aprobado, Rechazado or Observado")
	updateCmd.Flags().StringVar(&updateResponse, "respuesta", "", "team response shown to the insured")
	updateCmd.MarkFlagRequired("estado")
	updateCmd.MarkFlagRequired("respuesta")
}

func runDirectTool(cmd *cobra.Command, tool string, args map[string]any) error {
	ctx := cmd.Context()

	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	acc, err := login(ctx, cfg, loginUser, loginPassword)
	if err != nil {
		return err
	}
	svc, err := newReimbursementService(cfg)
	if err != nil {
		return err
	}
	return runTool(ctx, cmd.OutOrStdout(), svc, acc.Caller(), tool, args)
}
