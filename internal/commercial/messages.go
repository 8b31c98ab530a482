package commercial

import (
	"errors"
	"fmt"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
)

// MessageRefreshFailed is shown when a change was applied but the list could not be refreshed
const MessageRefreshFailed = "Cambio guardado, pero no se pudo actualizar el listado. Recarga antes de repetir la acción."

// UserMessage is the notification shown to the operator after a failed action
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var refreshErr *RefreshError
	if errors.As(err, &refreshErr) {
		return MessageRefreshFailed
	}
	e, ok := apperr.As(err)
	if !ok {
		return err.Error()
	}
	if e.Kind == apperr.KindTransport && e.Status == 0 {
		return "No se pudo conectar con el servidor"
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}
