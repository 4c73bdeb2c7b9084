package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.LoadAnalysisTargetActivity)
	w.RegisterActivity(a.SetResultStatusActivity)
	w.RegisterActivity(a.RunGenerationActivity)
}
