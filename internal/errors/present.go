package errors

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Action is the follow-up a user can take after an error.
type Action int

const (
	ActionNone Action = iota
	ActionOpenSettings
	ActionRetry
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionOpenSettings:
		return "open_settings"
	case ActionRetry:
		return "retry"
	default:
		return "none"
	}
}

// UserFacing is the only form in which errors are shown to users.
type UserFacing struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	CanRetry bool   `json:"can_retry"`
	Action   Action `json:"suggested_action"`
}

// Present maps err to its English user-facing form.
func Present(err error) UserFacing {
	return PresentIn(language.English, err)
}

// PresentIn maps err to its user-facing form in the given language.
// Languages without a catalog fall back to English.
func PresentIn(tag language.Tag, err error) UserFacing {
	e := Classify(err)
	if e == nil {
		e = Unknown(nil)
	}

	p := message.NewPrinter(tag)
	out := present(p, e)
	out.CanRetry = e.Retryable()
	return out
}

func present(p *message.Printer, e *Error) UserFacing {
	switch e.Kind {
	case KindResourceUnavailable:
		return presentUnavailable(p, e.Reason)
	case KindAlreadyGenerating:
		return UserFacing{
			Title:   p.Sprintf("Already working"),
			Message: p.Sprintf("Wait for the current generation to finish before starting another one."),
		}
	case KindContextTooLarge:
		return UserFacing{
			Title:   p.Sprintf("Too much text"),
			Message: p.Sprintf("The request is too long for the on-device model. Shorten it or start a new conversation."),
		}
	case KindUnsupportedLanguage:
		return UserFacing{
			Title:   p.Sprintf("Language not supported"),
			Message: p.Sprintf("The on-device model does not support this language yet."),
		}
	case KindContentPolicyViolation:
		return UserFacing{
			Title:   p.Sprintf("Request declined"),
			Message: p.Sprintf("The model declined this request. Try rephrasing it."),
		}
	case KindGenerationFailed:
		return UserFacing{
			Title:   p.Sprintf("Generation failed"),
			Message: p.Sprintf("The model could not produce a result. Please try again."),
			Action:  ActionRetry,
		}
	case KindExternalToolFailed:
		msg := p.Sprintf("A helper step failed while generating. Please try again.")
		if e.Tool != "" {
			msg = p.Sprintf("The %s step failed while generating. Please try again.", e.Tool)
		}
		return UserFacing{
			Title:   p.Sprintf("Generation failed"),
			Message: msg,
			Action:  ActionRetry,
		}
	case KindOutputValidationFailed:
		return UserFacing{
			Title:   p.Sprintf("Unusable result"),
			Message: p.Sprintf("The result did not have the expected shape. Check your input and try a different request."),
		}
	case KindTimeout:
		return UserFacing{
			Title:   p.Sprintf("Taking too long"),
			Message: p.Sprintf("The model did not answer in time. Please try again."),
			Action:  ActionRetry,
		}
	case KindSessionNotReady:
		return UserFacing{
			Title:   p.Sprintf("Getting ready"),
			Message: p.Sprintf("The assistant is still starting up. Try again in a moment."),
			Action:  ActionRetry,
		}
	case KindCancelled:
		return UserFacing{
			Title:   p.Sprintf("Cancelled"),
			Message: p.Sprintf("The generation was cancelled."),
		}
	case KindRateLimited:
		return UserFacing{
			Title:   p.Sprintf("Slow down"),
			Message: p.Sprintf("Too many requests in the last minute. Wait a little and try again."),
			Action:  ActionRetry,
		}
	case KindUnknown:
		return UserFacing{
			Title:   p.Sprintf("Something went wrong"),
			Message: p.Sprintf("An unexpected problem occurred. Please try again."),
			Action:  ActionRetry,
		}
	}
	// Classify never yields an out-of-range kind.
	panic(fmt.Sprintf("errors: unhandled kind %d", e.Kind))
}

func presentUnavailable(p *message.Printer, reason Reason) UserFacing {
	switch reason {
	case ReasonNotEnabled:
		return UserFacing{
			Title:   p.Sprintf("Assistant turned off"),
			Message: p.Sprintf("Enable the on-device model in Settings to use this feature."),
			Action:  ActionOpenSettings,
		}
	case ReasonDeviceIneligible:
		return UserFacing{
			Title:   p.Sprintf("Not available on this device"),
			Message: p.Sprintf("This device cannot run the on-device model. Check Settings for supported options."),
			Action:  ActionOpenSettings,
		}
	case ReasonNotReady:
		return UserFacing{
			Title:   p.Sprintf("Model not ready"),
			Message: p.Sprintf("The on-device model is still downloading or loading. Try again in a few minutes."),
			Action:  ActionRetry,
		}
	case ReasonUnknown:
		return UserFacing{
			Title:   p.Sprintf("Assistant unavailable"),
			Message: p.Sprintf("The on-device model is unavailable right now."),
		}
	}
	return UserFacing{
		Title:   p.Sprintf("Assistant unavailable"),
		Message: p.Sprintf("The on-device model is unavailable right now."),
	}
}
