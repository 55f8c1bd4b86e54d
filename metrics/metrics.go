package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "testreport"
)

var (
	Debug                bool = false
	validStates               = []string{"pass", "fail", "pending", "unknown"}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "events_total",
		Help:      "Count of buffered run events by kind",
	}, []string{
		"kind",
	})

	annotationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "annotations_dropped_total",
		Help:      "Annotation events that never matched a record, or were refused",
	}, []string{
		"kind",
		"reason",
	})

	suitesOrphaned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "suites_orphaned_total",
		Help:      "Suites whose parent could not be resolved and were attached to a fallback parent",
	})

	reportTests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "report_tests",
		Help:      "Tests in the last report by file and state",
	}, []string{
		"run_id",
		"file",
		"state",
	})

	reportWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "report_writes_total",
		Help:      "Report sink writes by sink and result",
	}, []string{
		"sink",
		"result",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordEvent(kind string) {
	eventsTotal.WithLabelValues(kind).Inc()
}

func RecordAnnotationDropped(kind string, reason string, n int) {
	if n <= 0 {
		return
	}
	if Debug {
		log.Debug("metric add",
			"m", "annotations_dropped_total",
			"kind", kind,
			"reason", reason,
			"n", n)
	}
	annotationsDropped.WithLabelValues(kind, reason).Add(float64(n))
}

func RecordOrphanedSuites(n int) {
	if n <= 0 {
		return
	}
	suitesOrphaned.Add(float64(n))
}

// RecordFileTests sets the per-state test gauge of one report file
func RecordFileTests(runID string, file string, state string, n int) {
	if !slices.Contains(validStates, state) {
		log.Error("RecordFileTests - invalid state", "state", state)
		return
	}
	reportTests.WithLabelValues(runID, file, state).Set(float64(n))
}

func RecordWrite(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	reportWrites.WithLabelValues(sink, result).Inc()
}
