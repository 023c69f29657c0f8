package main

import (
	"fmt"
	"io"
	"time"

	"quill/internal/pipeline"
)

var timingLabels = map[pipeline.Stage]string{
	pipeline.StageLoad:     "loaded",
	pipeline.StageAnalyze:  "analyzed",
	pipeline.StageEvaluate: "evaluated",
	pipeline.StageCheck:    "checked",
	pipeline.StageEmit:     "emitted",
}

// printStageTimings prints one line per stage that ran, summed over all
// inputs.
func printStageTimings(out io.Writer, timings pipeline.Timings) {
	if out == nil {
		return
	}
	for _, stage := range pipeline.Stages {
		if !timings.Has(stage) {
			continue
		}
		if _, err := fmt.Fprintf(out, "%s %.1f ms\n", timingLabels[stage], toMillis(timings.Duration(stage))); err != nil {
			panic(err)
		}
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
