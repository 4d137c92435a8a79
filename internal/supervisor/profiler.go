package supervisor

import (
	"os"

	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"
)

// enableDataDogProfiler enables the DataDog profiler. Enable it by setting
// the DD_PROFILING_ENABLED env var. Additional parameters can be set with
// env vars (DD_) - https://docs.datadoghq.com/profiler/enabling/go/
func (s *Supervisor) enableDataDogProfiler() {
	if os.Getenv("DD_PROFILING_ENABLED") == "" {
		s.logger.Debug("DataDog profiler disabled, set DD_PROFILING_ENABLED env var to enable it.")

		return
	}

	// For containerized solutions, we want to be able to set the ip and port
	// that the agent will bind to by defining DD_AGENT_HOST and
	// DD_TRACE_AGENT_PORT env vars. If these env vars are not defined, the
	// agent will bind to default ip:port ( localhost:8126 )
	ddIP := "localhost"
	ddPort := "8126"

	if os.Getenv("DD_AGENT_HOST") != "" {
		ddIP = os.Getenv("DD_AGENT_HOST")
	}

	if os.Getenv("DD_TRACE_AGENT_PORT") != "" {
		ddPort = os.Getenv("DD_TRACE_AGENT_PORT")
	}

	if err := profiler.Start(
		profiler.WithProfileTypes(
			profiler.CPUProfile,
			profiler.HeapProfile,
			profiler.GoroutineProfile,
		),
		profiler.WithAgentAddr(ddIP+":"+ddPort),
	); err != nil {
		s.logger.Errorw("DataDog profiler setup failed", "err", err)

		return
	}

	tracer.Start()
	s.logger.Info("DataDog profiler started")
}

func (s *Supervisor) closeDataDogProfiler() {
	if os.Getenv("DD_PROFILING_ENABLED") == "" {
		return
	}

	s.logger.Debug("closing DataDog profiler")
	profiler.Stop()

	s.logger.Debug("closing DataDog tracer")
	tracer.Stop()
}
