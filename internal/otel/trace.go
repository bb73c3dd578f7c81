package otel

import (
	"os"
	"strings"
	"sync/atomic"
)

// EnvTrace selects components that emit per-message trace events:
// "1", "all" or "*" for every component, or a comma list such as "ui,cache".
const EnvTrace = "EIDNEWS_TRACE"

type traceSet struct {
	all   bool
	comps map[string]bool
}

var tracing atomic.Pointer[traceSet]

func init() {
	setTrace(os.Getenv(EnvTrace))
}

func parseTrace(v string) *traceSet {
	ts := &traceSet{comps: map[string]bool{}}
	for _, c := range strings.Split(v, ",") {
		switch c = strings.ToLower(strings.TrimSpace(c)); c {
		case "":
		case "1", "all", "*", "true":
			ts.all = true
		default:
			ts.comps[c] = true
		}
	}
	return ts
}

func setTrace(v string) {
	tracing.Store(parseTrace(v))
}

// Tracing reports whether comp was selected by EIDNEWS_TRACE.
func Tracing(comp string) bool {
	ts := tracing.Load()
	return ts.all || ts.comps[comp]
}
