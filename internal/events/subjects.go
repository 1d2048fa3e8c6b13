package events

const (
	StreamName   = "FLOTILLA_EVENTS"
	StreamMaxAge = "720h" // 30 days

	SubjectRunRequest = "flotilla.run.request"
)

func SubjectRunStarted(runID string) string    { return "flotilla.run." + runID + ".started" }
func SubjectRunGeneration(runID string) string { return "flotilla.run." + runID + ".generation" }
func SubjectRunCompleted(runID string) string  { return "flotilla.run." + runID + ".completed" }
func SubjectRunCancelled(runID string) string  { return "flotilla.run." + runID + ".cancelled" }
func SubjectRunFailed(runID string) string     { return "flotilla.run." + runID + ".failed" }

func SubjectEvaluationCompleted(evalID string) string {
	return "flotilla.evaluation." + evalID + ".completed"
}
