package activities

import (
	"context"
	"errors"
	"fmt"
	"log"

	"paperxray/internal/analyzer"
	"paperxray/internal/generator"
	"paperxray/internal/storage"
	"paperxray/internal/util"
)

type Activities struct {
	papers  *storage.PaperRepo
	results *storage.ResultRepo
	gen     generator.Streamer
}

func New(db *storage.DB, gen generator.Streamer) *Activities {
	return &Activities{
		papers:  storage.NewPaperRepo(db),
		results: storage.NewResultRepo(db),
		gen:     gen,
	}
}

// LoadAnalysisTargetActivity resolves the (paper, lang) pair to its result
// row. A missing paper or result is not an error: the run was scheduled
// against state that no longer exists, so the workflow just skips.
func (a *Activities) LoadAnalysisTargetActivity(ctx context.Context, in LoadAnalysisTargetInput) (LoadAnalysisTargetOutput, error) {
	if _, err := a.papers.GetPaper(ctx, in.PaperID); err != nil {
		if errors.Is(err, util.ErrNotFound) {
			log.Printf("analysis target paper=%s not found, skipping", in.PaperID)
			return LoadAnalysisTargetOutput{}, nil
		}
		return LoadAnalysisTargetOutput{}, err
	}
	res, err := a.results.GetResult(ctx, in.PaperID, in.Lang)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			log.Printf("analysis result row missing paper=%s lang=%s, skipping", in.PaperID, in.Lang)
			return LoadAnalysisTargetOutput{}, nil
		}
		return LoadAnalysisTargetOutput{}, err
	}
	return LoadAnalysisTargetOutput{Found: true, ResultID: res.ResultID, Status: res.Status}, nil
}

func (a *Activities) SetResultStatusActivity(ctx context.Context, in SetResultStatusInput) error {
	return a.results.SetStatus(ctx, in.ResultID, in.Status)
}

// RunGenerationActivity streams generator chunks into the result row. It is
// the single writer for its result; appends are strictly ordered because the
// stream callback runs sequentially.
func (a *Activities) RunGenerationActivity(ctx context.Context, in RunGenerationInput) (RunGenerationOutput, error) {
	paper, err := a.papers.GetPaper(ctx, in.PaperID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			// Paper deleted mid-flight; its results are gone with it.
			log.Printf("paper %s vanished before generation, nothing to do", in.PaperID)
			return RunGenerationOutput{}, nil
		}
		return RunGenerationOutput{}, err
	}

	prompt := analyzer.BuildAnalysisPrompt(paper.Text, in.Lang)
	total := 0
	err = a.gen.Stream(ctx, generator.Request{
		Operation: "analysis",
		Prompt:    prompt,
		System:    analyzer.XraySystem,
	}, func(chunk string) error {
		if err := a.results.AppendContent(ctx, in.ResultID, chunk); err != nil {
			return err
		}
		total += len(chunk)
		return nil
	})
	if err != nil {
		return RunGenerationOutput{}, fmt.Errorf("generation paper=%s lang=%s: %w", in.PaperID, in.Lang, err)
	}
	log.Printf("analysis generation finished paper=%s lang=%s bytes=%d", in.PaperID, in.Lang, total)
	return RunGenerationOutput{Bytes: total}, nil
}
