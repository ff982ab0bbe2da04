package observability

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ca-srg/ccrcheck/internal/types"
)

const (
	protocolHTTP = "http/protobuf"
	protocolGRPC = "grpc"

	defaultServiceName = "ccrcheck"
)

// target is where spans and metrics are shipped. For http/protobuf basePath
// is prefixed to /v1/traces and /v1/metrics; gRPC ignores it.
type target struct {
	protocol  string
	host      string
	basePath  string
	plaintext bool
}

type settings struct {
	enabled     bool
	serviceName string
	target      target
	attributes  []attribute.KeyValue
	sampler     sdktrace.Sampler
}

func resolve(cfg *types.Config) (*settings, error) {
	if cfg == nil {
		return nil, fmt.Errorf("observability: nil configuration")
	}

	s := &settings{
		enabled:     cfg.OTelEnabled,
		serviceName: strings.TrimSpace(cfg.OTelServiceName),
	}
	if s.serviceName == "" {
		s.serviceName = defaultServiceName
	}

	attrs, err := parseResourceAttributes(cfg.OTelResourceAttributes)
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}
	s.attributes = append([]attribute.KeyValue{attribute.String("service.name", s.serviceName)}, attrs...)

	if !s.enabled {
		return s, nil
	}

	protocol := strings.ToLower(strings.TrimSpace(cfg.OTelExporterOTLPProtocol))
	if protocol == "" {
		protocol = protocolHTTP
	}
	s.target, err = parseTarget(protocol, cfg.OTelExporterOTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}

	s.sampler, err = sampler(cfg.OTelTracesSampler, cfg.OTelTracesSamplerArg)
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}

	return s, nil
}

// parseTarget accepts a URL for either protocol, or a bare host:port for gRPC
// which is then treated as plaintext.
func parseTarget(protocol, raw string) (target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return target{}, fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED is set")
	}
	if protocol != protocolHTTP && protocol != protocolGRPC {
		return target{}, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}

	if protocol == protocolGRPC && !strings.Contains(raw, "://") {
		if _, _, err := net.SplitHostPort(raw); err != nil {
			return target{}, fmt.Errorf("gRPC endpoint %q: %w", raw, err)
		}
		return target{protocol: protocol, host: raw, plaintext: true}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return target{}, fmt.Errorf("endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return target{}, fmt.Errorf("endpoint %q has no host", raw)
	}

	t := target{protocol: protocol, host: u.Host, basePath: strings.TrimSuffix(u.Path, "/")}
	switch u.Scheme {
	case "http":
		t.plaintext = true
	case "https":
	case "grpc", "grpcs":
		if protocol != protocolGRPC {
			return target{}, fmt.Errorf("scheme %q needs OTEL_EXPORTER_OTLP_PROTOCOL=grpc", u.Scheme)
		}
		t.plaintext = u.Scheme == "grpc"
	default:
		return target{}, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}

	return t, nil
}

// signalPath is the http/protobuf path for one signal, e.g. "traces".
func (t target) signalPath(signal string) string {
	suffix := "/v1/" + signal
	if strings.HasSuffix(t.basePath, suffix) {
		return t.basePath
	}
	return t.basePath + suffix
}

func sampler(name string, arg float64) (sdktrace.Sampler, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "always_on":
		return sdktrace.AlwaysSample(), nil
	case "always_off":
		return sdktrace.NeverSample(), nil
	case "parentbased_always_on":
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	case "traceidratio":
		if arg <= 0 || arg > 1 {
			return nil, fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be in (0, 1], got %v", arg)
		}
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(arg)), nil
	default:
		return nil, fmt.Errorf("unsupported sampler %q", name)
	}
}

// parseResourceAttributes reads the k=v,k=v form of OTEL_RESOURCE_ATTRIBUTES.
// service.name is owned by OTEL_SERVICE_NAME and skipped here.
func parseResourceAttributes(input string) ([]attribute.KeyValue, error) {
	var attrs []attribute.KeyValue
	for _, pair := range strings.Split(input, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid resource attribute %q", pair)
		}
		if key == "service.name" {
			continue
		}
		attrs = append(attrs, attribute.String(key, strings.TrimSpace(value)))
	}
	return attrs, nil
}
