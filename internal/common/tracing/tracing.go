package tracing

import (
	"fmt"
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// InitTracer wires the inspection service to a Jaeger agent and installs the
// tracer as the opentracing global, which is where the HTTP tracing middleware
// picks it up. With a const sampler, 1 traces every request and 0 disables
// reporting without touching the middleware chain. Callers must close the
// returned io.Closer on shutdown to flush buffered spans.
func InitTracer(serviceName, endpoint string, sampler float64) (opentracing.Tracer, io.Closer, error) {
	cfg := &jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeConst,
			Param: sampler,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LogSpans:           true,
			LocalAgentHostPort: endpoint,
		},
	}

	tracer, closer, err := cfg.NewTracer(jaegercfg.Logger(jaeger.StdLogger))
	if err != nil {
		return nil, nil, fmt.Errorf("init jaeger tracer for %s: %w", serviceName, err)
	}

	opentracing.SetGlobalTracer(tracer)
	return tracer, closer, nil
}
