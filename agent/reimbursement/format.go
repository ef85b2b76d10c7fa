package reimbursement

import (
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Medical-Reimbursement/agent/contract"
)

func FormatRegistration(reg Registration) string {
	return fmt.Sprintf("✅ Solicitud registrada con éxito. Código: %s, Estado: %s.", reg.Request.ID, reg.Request.Status)
}

func FormatRequest(r Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📄 Solicitud N° %s\n", r.ID)
	fmt.Fprintf(&b, "👤 Usuario: %s\n", r.InsuredName)
	fmt.Fprintf(&b, "👤 Beneficiario: %s\n", r.BeneficiaryName)
	fmt.Fprintf(&b, "💬 Tipo de gasto: %s\n", r.ExpenseCategory)
	fmt.Fprintf(&b, "💰 Monto: S/ %s\n", r.Amount.StringFixed(2))
	fmt.Fprintf(&b, "📅 Fecha de Registro: %s\n", r.RegistrationDate)
	fmt.Fprintf(&b, "📌 Estado: %s\n", r.Status)
	fmt.Fprintf(&b, "🩺 Detalle: %s", r.TeamResponse)
	return b.String()
}

func FormatUpdate(u Update) string {
	return fmt.Sprintf(
		"✅ Solicitud **%s** actualizada con éxito:\n- Nuevo Estado: **%s**\n- Nueva Respuesta: **%s**",
		u.RequestID, u.Status, u.TeamResponse,
	)
}

// FormatError renders domain errors for the user. Anything else is reported
// generically; details stay in the logs.
func FormatError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, contractx.ErrOwnership):
		return "⚠️ No se encontró ninguna solicitud con ese número asociada a tu usuario."
	case errors.Is(err, contractx.ErrNotFound):
		return "⚠️ No se encontró ninguna solicitud con ese número."
	case errors.Is(err, ErrInvalidStatus):
		return "⚠️ Estado no válido. Debe ser uno de: " + statusList()
	case errors.Is(err, contractx.ErrValidation):
		return "⚠️ Datos no válidos: " + strings.TrimPrefix(err.Error(), contractx.ErrValidation.Error()+": ")
	default:
		return "⚠️ No se pudo procesar la solicitud."
	}
}
