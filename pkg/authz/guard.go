package authz

import (
	"context"

	"github.com/parablehq/parable/pkg/audit"
	"github.com/parablehq/parable/pkg/observability"
)

// RequestMeta carries the request context recorded with every audit entry.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Guard decorates the gate with audit logging and metrics so call sites
// cannot forget either. Exactly one audit entry is emitted per guarded
// call: Check records denials before the caller attempts the side effect;
// Success and Error record the outcome after it completes.
type Guard struct {
	logger audit.Logger
}

// NewGuard creates a guard recording to the given audit sink.
func NewGuard(logger audit.Logger) *Guard {
	if logger == nil {
		logger = audit.NopLogger{}
	}
	return &Guard{logger: logger}
}

// Check runs the authorization gate. A deny is recorded immediately; an
// allow is not recorded until the caller reports Success or Error.
func (g *Guard) Check(ctx context.Context, action Action, actor *Actor, target Target, req RequestMeta) Decision {
	decision := Authorize(action, actor, target)

	if decision.Allowed {
		observability.RecordAuthzDecision(string(action), "allowed")
	} else {
		observability.RecordAuthzDecision(string(action), "denied")
		g.record(ctx, action, actor, target, req, audit.OutcomeDenied, string(decision.Reason), nil)
	}

	return decision
}

// Success records the completed side effect of a previously allowed check.
func (g *Guard) Success(ctx context.Context, action Action, actor *Actor, target Target, req RequestMeta, meta map[string]interface{}) {
	g.record(ctx, action, actor, target, req, audit.OutcomeSuccess, "", meta)
}

// Error records a side effect that was allowed but failed.
func (g *Guard) Error(ctx context.Context, action Action, actor *Actor, target Target, req RequestMeta, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	g.record(ctx, action, actor, target, req, audit.OutcomeError, msg, nil)
}

// record emits one audit entry. Sink failures are swallowed: audit loss is
// preferable to failing or retrying the guarded action.
func (g *Guard) record(ctx context.Context, action Action, actor *Actor, target Target, req RequestMeta, outcome audit.Outcome, errMsg string, meta map[string]interface{}) {
	defer func() {
		_ = recover()
	}()

	entry := audit.NewEntry(audit.Action(action), outcome)
	entry.IP = req.IP
	entry.UserAgent = req.UserAgent
	entry.Error = errMsg
	entry.Meta = meta

	if actor != nil {
		entry.Actor = &audit.Actor{Email: actor.Email, Name: actor.Name, Role: string(actor.Role)}
	}
	if target.Type != "" {
		entry.Target = &audit.Target{Type: target.Type, ID: target.ID}
	}

	_ = g.logger.Record(ctx, entry)
}
