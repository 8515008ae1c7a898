package actions

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/semgraph/errors"
)

const defaultRequestTimeout = 5 * time.Second

// request is the wire form of an action invocation.
type request struct {
	Action string         `json:"action"`
	Args   map[string]any `json:"args,omitempty"`
}

// response is the wire form of an action result. A non-empty Error marks
// the action as failed.
type response struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// NATS resolves actions over NATS request/reply. Each action name maps to
// the subject "<prefix>.<action>"; the responder receives the JSON request
// and answers with a JSON response.
type NATS struct {
	conn    *nats.Conn
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
}

// NATSOption configures a NATS resolver.
type NATSOption func(*NATS)

// WithSubjectPrefix sets the subject prefix for action subjects. Default
// "semgraph.actions".
func WithSubjectPrefix(prefix string) NATSOption {
	return func(n *NATS) { n.prefix = prefix }
}

// WithRequestTimeout bounds each request when the caller's context carries
// no deadline.
func WithRequestTimeout(timeout time.Duration) NATSOption {
	return func(n *NATS) { n.timeout = timeout }
}

// WithNATSLogger sets the resolver's logger.
func WithNATSLogger(logger *slog.Logger) NATSOption {
	return func(n *NATS) { n.logger = logger }
}

// NewNATS creates a resolver over an established NATS connection.
func NewNATS(conn *nats.Conn, options ...NATSOption) (*NATS, error) {
	if conn == nil {
		return nil, errors.Wrap(errors.ErrNoConnection, "NATSResolver", "NewNATS", "connection check")
	}
	n := &NATS{
		conn:    conn,
		prefix:  "semgraph.actions",
		timeout: defaultRequestTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range options {
		opt(n)
	}
	n.logger = n.logger.With("component", "NATSResolver")
	return n, nil
}

// Resolve implements Resolver. Transport faults come back transient so a
// retrying decorator can take another attempt; responder-reported failures
// come back as handler execution errors and are not retried.
func (n *NATS) Resolve(ctx context.Context, action string, args map[string]any) (any, error) {
	payload, err := json.Marshal(request{Action: action, Args: args})
	if err != nil {
		return nil, errors.WrapInvalid(err, "NATSResolver", "Resolve", "request encoding")
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	subject := n.prefix + "." + action
	msg, err := n.conn.RequestWithContext(ctx, subject, payload)
	if err != nil {
		if err == nats.ErrNoResponders {
			return nil, errors.WrapTransient(errors.ErrNoConnection, "NATSResolver", "Resolve",
				"request to "+subject+" (no responders)")
		}
		return nil, errors.WrapTransient(err, "NATSResolver", "Resolve", "request to "+subject)
	}

	var resp response
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return nil, errors.WrapInvalid(err, "NATSResolver", "Resolve", "response decoding")
	}
	if resp.Error != "" {
		return nil, errors.WrapInvalid(errors.ErrHandlerExecution, "NATSResolver", "Resolve",
			"action "+action+": "+resp.Error)
	}

	n.logger.Debug("resolved action over nats", "action", action, "subject", subject)
	return resp.Result, nil
}

// Serve registers a responder for one action on a NATS connection. It is
// the counterpart of Resolve, mainly used by integration tests and demos.
func Serve(conn *nats.Conn, prefix, action string, fn Func) (*nats.Subscription, error) {
	subject := prefix + "." + action
	return conn.Subscribe(subject, func(msg *nats.Msg) {
		var req request
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			data, _ := json.Marshal(response{Error: "bad request: " + err.Error()})
			_ = msg.Respond(data)
			return
		}
		result, err := fn(context.Background(), req.Action, req.Args)
		resp := response{Result: result}
		if err != nil {
			resp = response{Error: err.Error()}
		}
		data, _ := json.Marshal(resp)
		_ = msg.Respond(data)
	})
}
