package intake

import (
	"errors"
	"fmt"

	"github.com/fernandocalderan/IEI-Inmobiliario/internal/apperr"
)

const (
	MessageZoneNotConfigured = "Todavía no tenemos datos suficientes para esta zona. Déjanos tu contacto y te avisamos cuando esté disponible."
	MessageScoreFailed       = "No se pudo calcular el score."
	MessageCreateFailed      = "No se pudo crear el lead."
	MessageUnexpected        = "Ha ocurrido un error inesperado."
)

// Stage names the pipeline step a submission failed at
type Stage string

const (
	StageValidate Stage = "validate"
	StageScore    Stage = "score"
	StageCreate   Stage = "create"
)

// SubmitError is a terminal failure of one submission attempt
type SubmitError struct {
	Stage Stage
	Err   error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("lead submission failed at %s: %v", e.Stage, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown to the visitor for a failed submission
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if apperr.IsZoneNotConfigured(err) {
		return MessageZoneNotConfigured
	}

	e, ok := apperr.As(err)
	if ok && e.Kind == apperr.KindValidation {
		return e.Message
	}

	generic := MessageUnexpected
	var submitErr *SubmitError
	if errors.As(err, &submitErr) {
		switch submitErr.Stage {
		case StageScore:
			generic = MessageScoreFailed
		case StageCreate:
			generic = MessageCreateFailed
		}
	}

	if ok && backendMessage(e) {
		return e.Message
	}
	return generic
}

// backendMessage reports whether the error carries text written by the backend
func backendMessage(e *apperr.Error) bool {
	return e.Status != 0 && e.Message != "" && e.Message != fmt.Sprintf("HTTP %d", e.Status)
}
