package solver

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/edp1096/toy-powerflow/internal/consts"
	"github.com/edp1096/toy-powerflow/pkg/matrix"
)

type options struct {
	tolerance      float64
	workers        int
	backend        matrix.LinearSolver
	denseThreshold int
	logger         logrus.FieldLogger
}

type Option func(*options)

func defaultOptions() options {
	return options{
		tolerance:      consts.DefaultTolerance,
		workers:        1,
		denseThreshold: consts.DenseThreshold,
		logger:         discardLogger(),
	}
}

// WithTolerance sets the accepted residual, relative to max(1, |P|).
// Panics on a negative value.
func WithTolerance(tol float64) Option {
	if tol < 0 {
		panic("solver: tolerance must be >= 0")
	}
	return func(o *options) { o.tolerance = tol }
}

// WithWorkers sets the number of goroutines used for matrix assembly.
// Panics on a value below 1.
func WithWorkers(n int) Option {
	if n < 1 {
		panic("solver: workers must be >= 1")
	}
	return func(o *options) { o.workers = n }
}

// WithBackend forces a linear solver instead of choosing by size.
func WithBackend(b matrix.LinearSolver) Option {
	return func(o *options) { o.backend = b }
}

// WithDenseThreshold sets the largest reduced system solved densely when no
// backend is forced.
func WithDenseThreshold(n int) Option {
	if n < 0 {
		panic("solver: dense threshold must be >= 0")
	}
	return func(o *options) { o.denseThreshold = n }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l == nil {
			l = discardLogger()
		}
		o.logger = l
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
