package orchestrator

import "fmt"

// ErrorKind is the taxonomy of domain errors a node can attach to the state
// record's Err field.
type ErrorKind string

const (
	ErrInvalidInput        ErrorKind = "invalid_input"
	ErrSymbolNotFound      ErrorKind = "symbol_not_found"
	ErrNoContext           ErrorKind = "no_context"
	ErrTransientExternal   ErrorKind = "transient_external"
	ErrPermanentExternal   ErrorKind = "permanent_external"
	ErrTimeout             ErrorKind = "timeout"
	ErrCancelled           ErrorKind = "cancelled"
	ErrRequiredAgentFailed ErrorKind = "required_agent_failed"
	ErrRenderFailed        ErrorKind = "render_failed"
	ErrInternal            ErrorKind = "internal"
)

// Retryable reports whether an error of this kind warrants a collaborator
// retry (see graph.ComputeBackoff / graph.RetryPolicy, invoked by agents
// around their own collaborator calls).
func (k ErrorKind) Retryable() bool {
	return k == ErrTransientExternal
}

// StateError is the state record's error field: {kind, node, message,
// recoverable}. It never carries internal detail intended for end users —
// Responder maps Kind to a short user-safe string.
type StateError struct {
	Kind        ErrorKind
	Node        string
	Message     string
	Recoverable bool
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s (node=%s, recoverable=%v)", e.Kind, e.Message, e.Node, e.Recoverable)
}

// userSafeMessages maps error kinds to short, non-internal user-facing text.
// Korean preferred, falling back to English phrasing baked directly in.
var userSafeMessages = map[ErrorKind]string{
	ErrInvalidInput:        "질문을 이해하지 못했습니다. 다시 입력해 주세요.",
	ErrSymbolNotFound:      "종목을 찾을 수 없습니다. 정확한 종목명을 입력해 주세요.",
	ErrNoContext:           "관련 정보를 찾지 못했습니다.",
	ErrTransientExternal:   "일시적인 오류가 발생했습니다. 잠시 후 다시 시도해 주세요.",
	ErrPermanentExternal:   "요청을 처리할 수 없습니다.",
	ErrTimeout:             "응답 시간이 초과되었습니다.",
	ErrCancelled:           "요청이 취소되었습니다.",
	ErrRequiredAgentFailed: "필요한 정보를 가져오지 못했습니다.",
	ErrRenderFailed:        "차트를 생성하지 못했습니다.",
	ErrInternal:            "내부 오류가 발생했습니다.",
}

// UserSafeMessage returns the user-facing apology text for an error kind,
// falling back to a generic internal-error message for unknown kinds.
func UserSafeMessage(kind ErrorKind) string {
	if msg, ok := userSafeMessages[kind]; ok {
		return msg
	}
	return userSafeMessages[ErrInternal]
}
