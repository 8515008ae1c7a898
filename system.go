package semgraph

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/semgraph/actions"
	"github.com/c360/semgraph/config"
	"github.com/c360/semgraph/errors"
	"github.com/c360/semgraph/handler"
	"github.com/c360/semgraph/instance"
	"github.com/c360/semgraph/introspect"
	"github.com/c360/semgraph/proxy"
	"github.com/c360/semgraph/schema"
	"github.com/c360/semgraph/snapshot"
	"github.com/c360/semgraph/triplestore"
	"github.com/c360/semgraph/vocabulary"
	"github.com/c360/semgraph/workflow"
)

// System wires every layer over one shared triple store. Construct one per
// graph; there is no package-level instance.
type System struct {
	Store      *triplestore.Store
	Schema     *schema.Registry
	Instances  *instance.Manager
	Introspect *introspect.Engine
	Handlers   *handler.Registry
	Executor   *workflow.Executor
	Proxies    *proxy.Manager

	cfg       config.Config
	logger    *slog.Logger
	resolver  actions.Resolver
	conn      *nats.Conn
	snapshots *snapshot.Store
}

// Option configures a System.
type Option func(*systemOptions)

type systemOptions struct {
	cfg        config.Config
	logger     *slog.Logger
	registerer prometheus.Registerer
	resolver   actions.Resolver
	checks     map[string]workflow.Check
}

// WithConfig supplies a loaded configuration. Default config.Default().
func WithConfig(cfg config.Config) Option {
	return func(o *systemOptions) { o.cfg = cfg }
}

// WithLogger sets the logger shared by all components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *systemOptions) { o.logger = logger }
}

// WithMetrics attaches Prometheus metrics to the store, the workflow
// executor and the proxy cache.
func WithMetrics(registerer prometheus.Registerer) Option {
	return func(o *systemOptions) { o.registerer = registerer }
}

// WithResolver sets the action resolver Execute uses. Default is the
// simulated resolver.
func WithResolver(resolver actions.Resolver) Option {
	return func(o *systemOptions) { o.resolver = resolver }
}

// WithCheck registers an extra workflow condition check.
func WithCheck(name string, check workflow.Check) Option {
	return func(o *systemOptions) { o.checks[name] = check }
}

// New builds a System from options.
func New(options ...Option) (*System, error) {
	o := &systemOptions{
		cfg:    config.Default(),
		logger: slog.Default(),
		checks: make(map[string]workflow.Check),
	}
	for _, opt := range options {
		opt(o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	var storeOptions []triplestore.Option
	if o.registerer != nil {
		storeOptions = append(storeOptions, triplestore.WithMetrics(o.registerer))
	}
	store, err := triplestore.New(storeOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "System", "New", "store construction")
	}

	ns := vocabulary.NewNamespaces()
	for prefix, base := range o.cfg.Graph.Namespaces {
		if err := ns.Bind(prefix, base); err != nil {
			return nil, err
		}
	}

	reg := schema.NewRegistry(store, ns, o.logger)
	instances := instance.NewManager(store, reg,
		instance.WithMode(instance.Mode(o.cfg.Instance.Mode)),
		instance.WithLogger(o.logger))

	handlers := handler.NewRegistry(store, o.logger)

	executorOptions := []workflow.Option{workflow.WithLogger(o.logger)}
	if o.registerer != nil {
		executorOptions = append(executorOptions, workflow.WithMetrics(o.registerer))
	}
	for name, check := range o.checks {
		executorOptions = append(executorOptions, workflow.WithCheck(name, check))
	}
	executor, err := workflow.NewExecutor(handlers, executorOptions...)
	if err != nil {
		return nil, err
	}

	proxyOptions := []proxy.Option{
		proxy.WithLogger(o.logger),
		proxy.WithCacheSize(o.cfg.Proxy.CacheSize),
	}
	if o.registerer != nil {
		proxyOptions = append(proxyOptions, proxy.WithMetrics(o.registerer))
	}
	proxies, err := proxy.NewManager(reg, instances, proxyOptions...)
	if err != nil {
		return nil, err
	}

	resolver := o.resolver
	if resolver == nil {
		resolver = actions.NewSimulated(actions.WithSimulatedLogger(o.logger))
	}

	return &System{
		Store:      store,
		Schema:     reg,
		Instances:  instances,
		Introspect: introspect.NewEngine(store, reg, o.logger),
		Handlers:   handlers,
		Executor:   executor,
		Proxies:    proxies,
		cfg:        o.cfg,
		logger:     o.logger.With("component", "System"),
		resolver:   resolver,
	}, nil
}

// ConnectNATS dials the configured NATS URL and switches the system to the
// NATS action resolver (with retry on transient faults) and the JetStream
// snapshot store. It is a no-op error to call it without a configured URL.
func (s *System) ConnectNATS(ctx context.Context) error {
	if s.cfg.NATS.URL == "" {
		return errors.WrapFatal(errors.ErrMissingConfig, "System", "ConnectNATS", "nats url check")
	}

	conn, err := nats.Connect(s.cfg.NATS.URL)
	if err != nil {
		return errors.WrapTransient(err, "System", "ConnectNATS", "dialing "+s.cfg.NATS.URL)
	}

	resolver, err := actions.NewNATS(conn,
		actions.WithSubjectPrefix(s.cfg.NATS.SubjectPrefix),
		actions.WithRequestTimeout(s.cfg.NATS.RequestTimeout),
		actions.WithNATSLogger(s.logger))
	if err != nil {
		conn.Close()
		return err
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "System", "ConnectNATS", "jetstream context")
	}
	snapshots, err := snapshot.New(ctx, js,
		snapshot.WithBucket(s.cfg.NATS.SnapshotBucket),
		snapshot.WithLogger(s.logger))
	if err != nil {
		conn.Close()
		return err
	}

	s.conn = conn
	s.resolver = actions.NewRetrying(resolver, errors.DefaultRetryConfig().ToRetryConfig(), s.logger)
	s.snapshots = snapshots
	s.logger.Info("connected to nats", "url", s.cfg.NATS.URL)
	return nil
}

// Close releases the NATS connection if one is open.
func (s *System) Close() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// CreateClass declares a class with its properties in the configured
// default namespace and returns the class IRI.
func (s *System) CreateClass(name string, properties []schema.PropertySpec) (string, error) {
	if err := s.Schema.ExtendClass(name, properties, s.cfg.Graph.DefaultNamespace); err != nil {
		return "", err
	}
	return s.Schema.DeclareClass(name, s.cfg.Graph.DefaultNamespace)
}

// CreateInstance creates an instance of className and returns its id. A
// supplied instanceID is used verbatim instead of a generated one.
func (s *System) CreateInstance(className string, properties map[string]any, instanceID ...string) (string, error) {
	return s.Instances.Create(className, properties, s.cfg.Graph.DefaultNamespace, instanceID...)
}

// DescribeOntology returns the full introspection snapshot.
func (s *System) DescribeOntology() introspect.Ontology {
	return s.Introspect.DescribeOntology()
}

// Query answers an introspection query.
func (s *System) Query(kind string, params map[string]string) (any, error) {
	return s.Introspect.Query(kind, params)
}

// RegisterHandler validates and stores a handler definition.
func (s *System) RegisterHandler(cfg handler.Config) error {
	return s.Handlers.Register(cfg)
}

// GetHandler reconstructs a stored handler definition.
func (s *System) GetHandler(name string) (handler.Config, error) {
	return s.Handlers.Get(name)
}

// Execute runs the workflow registered for intent through the system's
// resolver.
func (s *System) Execute(ctx context.Context, intent string, params map[string]any) (workflow.Result, error) {
	return s.Executor.Execute(ctx, intent, params, s.resolver)
}

// Proxy returns a (cached) proxy handle for a class, optionally bound to an
// instance id.
func (s *System) Proxy(className, instanceID string) (*proxy.Proxy, error) {
	return s.Proxies.New(className, instanceID)
}

// Reflect describes a class through the proxy layer.
func (s *System) Reflect(className string) (proxy.Reflection, error) {
	return s.Proxies.Reflect(className)
}

// Export serializes the whole graph.
func (s *System) Export(format triplestore.Format) ([]byte, error) {
	return s.Store.Export(format)
}

// Import merges serialized triples into the graph.
func (s *System) Import(data []byte, format triplestore.Format) error {
	return s.Store.Import(data, format)
}

// SaveSnapshot persists the graph under name in the snapshot store.
// Requires ConnectNATS first.
func (s *System) SaveSnapshot(ctx context.Context, name string) error {
	if s.snapshots == nil {
		return errors.Wrap(errors.ErrNoConnection, "System", "SaveSnapshot", "snapshot store check")
	}
	_, err := s.snapshots.Save(ctx, name, s.Store, triplestore.FormatJSON)
	return err
}

// LoadSnapshot merges a stored snapshot into the graph. Requires
// ConnectNATS first.
func (s *System) LoadSnapshot(ctx context.Context, name string) error {
	if s.snapshots == nil {
		return errors.Wrap(errors.ErrNoConnection, "System", "LoadSnapshot", "snapshot store check")
	}
	return s.snapshots.Load(ctx, name, s.Store)
}
