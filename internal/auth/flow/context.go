package flow

import (
	"context"
	"fmt"

	"github.com/wrenauth/wren/internal/auth/domain"
	"github.com/wrenauth/wren/pkg/authsdk"
)

// Event is externally supplied logic for one pipeline stage. Returning an
// error aborts the request with a server failure; protocol-level outcomes are
// reported through the Context instead.
type Event func(ctx context.Context, fc *Context) error

// Events is the set of extension points an integrator may install on the
// token service. Nil entries behave like an event that leaves the default
// OutcomeContinue in place.
type Events struct {
	Extract  Event
	Validate Event
	Handle   Event
	Apply    Event
}

// ContractError reports a misuse of the extension contract: an integration
// bug, not a bad request. It must never be rendered as an OAuth error
// response.
type ContractError struct {
	Stage  Stage
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("flow: contract violation in %s stage: %s", e.Stage, e.Reason)
}

// Context is the single-use, per-request state threaded through the four
// stages. It is not safe for concurrent use; a pipeline instance owns it for
// the duration of one request.
type Context struct {
	// Request is the parsed, read-only token request.
	Request *domain.TokenRequest

	// Ticket is the resolved (or issued) security ticket, once available.
	Ticket *domain.Ticket

	// Response is the in-progress response payload. The Apply stage may add
	// or overwrite entries before it is sent.
	Response map[string]any

	stage     Stage
	outcome   Outcome
	rejection *authsdk.OAuth2Error
	violation *ContractError

	validated       bool
	validatedClient string
}

// NewContext builds the pipeline state for one inbound request.
func NewContext(req *domain.TokenRequest) *Context {
	return &Context{
		Request:  req,
		Response: make(map[string]any),
	}
}

// Stage returns the stage currently executing.
func (c *Context) Stage() Stage { return c.stage }

// Outcome returns the current stage outcome.
func (c *Context) Outcome() Outcome { return c.outcome }

// Done reports whether a terminal outcome has been reached and no further
// stage or built-in logic may run.
func (c *Context) Done() bool { return c.outcome.terminal() }

// Rejection returns the protocol error recorded by Reject, or nil.
func (c *Context) Rejection() *authsdk.OAuth2Error { return c.rejection }

// Validated reports whether a Validate-stage assertion was made.
func (c *Context) Validated() bool { return c.validated }

// ValidatedClient returns the client identity asserted by Validate.
func (c *Context) ValidatedClient() string { return c.validatedClient }

// Reject terminates the request with an OAuth2 error. An empty code selects
// the stage default: invalid_request for Extract and Validate, invalid_grant
// for Handle. Description and uri may be empty.
func (c *Context) Reject(code, description, uri string) {
	if code == "" {
		code = c.defaultErrorCode()
	}
	c.rejection = authsdk.NewErrorURI(code, description, uri)
	c.outcome = OutcomeRejected
}

// RejectError terminates the request with a prebuilt protocol error.
func (c *Context) RejectError(err *authsdk.OAuth2Error) {
	c.rejection = err
	c.outcome = OutcomeRejected
}

func (c *Context) defaultErrorCode() string {
	if c.stage == StageHandle {
		return authsdk.ErrorCodeInvalidGrant
	}
	return authsdk.ErrorCodeInvalidRequest
}

// HandleResponse marks the response payload as final: remaining built-in
// logic, later stages and the default response builder are all skipped.
func (c *Context) HandleResponse() {
	c.outcome = OutcomeHandledResponse
}

// SkipToNextMiddleware stops processing and yields the request to the
// surrounding handler chain.
func (c *Context) SkipToNextMiddleware() {
	c.outcome = OutcomeSkipMiddleware
}

// Skip declines to make an assertion for the current stage and defers to the
// built-in logic. Only meaningful in the Validate and Handle stages.
func (c *Context) Skip() {
	c.outcome = OutcomeSkipped
}

// Validate asserts that the request is authenticated as the given client, or
// as the request's own client_id when no argument is supplied.
//
// The assertion is checked against the request immediately: asserting an
// identity that conflicts with the request's client_id, or asserting with
// neither an argument nor a client_id to validate against, is a contract
// violation that aborts the request with a diagnostic instead of an OAuth
// error. Callers own that consistency; it is not negotiable at runtime.
func (c *Context) Validate(client ...string) {
	if c.stage != StageValidate {
		c.fail("Validate may only be called from the validate stage")
		return
	}

	switch {
	case len(client) > 1:
		c.fail("Validate accepts at most one client identity")
	case len(client) == 1 && client[0] != "":
		if c.Request.ClientID != "" && c.Request.ClientID != client[0] {
			c.fail(fmt.Sprintf(
				"asserted client identity %q conflicts with the request's client_id %q",
				client[0], c.Request.ClientID))
			return
		}
		c.validated = true
		c.validatedClient = client[0]
		c.outcome = OutcomeValidated
	default:
		if c.Request.ClientID == "" {
			c.fail("Validate called without a client identity and the request carries no client_id")
			return
		}
		c.validated = true
		c.validatedClient = c.Request.ClientID
		c.outcome = OutcomeValidated
	}
}

// Issue supplies the ticket that becomes the issued grant. It is the
// Handle-stage analogue of Validate, used by grants that do not resolve from
// a stored ticket (password, client_credentials, custom grants).
//
// The ticket must carry a principal, and any presenter restriction it carries
// must be consistent with the requesting client; violations are contract
// errors, not protocol errors.
func (c *Context) Issue(t *domain.Ticket) {
	if c.stage != StageHandle {
		c.fail("Issue may only be called from the handle stage")
		return
	}
	if t == nil || t.Principal == nil {
		c.fail("issued ticket must carry a principal")
		return
	}
	if len(t.Presenters) > 0 && c.Request.ClientID != "" && !t.HasPresenter(c.Request.ClientID) {
		c.fail(fmt.Sprintf(
			"issued ticket presenters do not include the requesting client_id %q",
			c.Request.ClientID))
		return
	}

	c.Ticket = t
	c.outcome = OutcomeValidated
}

func (c *Context) fail(reason string) {
	if c.violation == nil {
		c.violation = &ContractError{Stage: c.stage, Reason: reason}
	}
}

// RunStage enters the given stage and invokes its event, if any. Per-stage
// outcomes from the previous stage are reset first. A recorded contract
// violation is returned as an error so the orchestrator aborts loudly.
func (c *Context) RunStage(ctx context.Context, stage Stage, ev Event) error {
	c.stage = stage
	if !c.outcome.terminal() {
		c.outcome = OutcomeContinue
	}

	if ev == nil {
		return nil
	}
	if err := ev(ctx, c); err != nil {
		return err
	}
	if c.violation != nil {
		return c.violation
	}
	return nil
}
