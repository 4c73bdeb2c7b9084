package activities

type LoadAnalysisTargetInput struct {
	PaperID string `json:"paper_id"`
	Lang    string `json:"lang"`
}

type LoadAnalysisTargetOutput struct {
	Found    bool   `json:"found"`
	ResultID string `json:"result_id"`
	Status   string `json:"status"`
}

type SetResultStatusInput struct {
	ResultID string `json:"result_id"`
	Status   string `json:"status"`
}

type RunGenerationInput struct {
	ResultID string `json:"result_id"`
	PaperID  string `json:"paper_id"`
	Lang     string `json:"lang"`
}

type RunGenerationOutput struct {
	Bytes int `json:"bytes"`
}
