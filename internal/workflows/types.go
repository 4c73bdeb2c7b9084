package workflows

type AnalysisInput struct {
	PaperID string `json:"paper_id"`
	Lang    string `json:"lang"`
}
