package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opsdesk/backend/internal/logger"
	"github.com/opsdesk/backend/internal/models"
	"github.com/opsdesk/backend/internal/vectordb"
)

// Embedder converts a question into a query-mode vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces free-form text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher finds knowledge-base entries similar to a vector.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int, scoreThreshold float64) ([]vectordb.SearchHit, error)
}

// TranscriptStore appends answered questions. May be nil when transcripts
// are not configured.
type TranscriptStore interface {
	Save(ctx context.Context, entry models.TranscriptEntry) error
}

// QAService answers IT questions by retrieval-augmented generation: search
// the knowledge base first, extract verbatim when internal evidence exists,
// and only fall back to open-ended generation (gated by an IT-relevance
// classifier) when it does not.
type QAService struct {
	embedder    Embedder
	searcher    Searcher
	generator   Generator
	transcripts TranscriptStore

	scoreThreshold float64
	searchLimit    int
	enabled        bool
}

func NewQAService(embedder Embedder, searcher Searcher, generator Generator, transcripts TranscriptStore, scoreThreshold float64, searchLimit int, enabled bool) *QAService {
	if searchLimit <= 0 {
		searchLimit = 50
	}
	return &QAService{
		embedder:       embedder,
		searcher:       searcher,
		generator:      generator,
		transcripts:    transcripts,
		scoreThreshold: scoreThreshold,
		searchLimit:    searchLimit,
		enabled:        enabled,
	}
}

// Answer runs the full QA flow for one question. It never fails: every
// internal error is converted into a readable diagnostic answer.
func (s *QAService) Answer(ctx context.Context, question string) models.Answer {
	if !s.enabled {
		return models.Answer{Text: FeatureUnavailableMessage}
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return models.Answer{Text: EmptyQuestionMessage}
	}

	log := logger.WithQuestion(question)

	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		log.WithField("error", err.Error()).Error("Failed to embed question")
		return s.diagnostic(err)
	}

	hits, err := s.searcher.Search(ctx, vector, s.searchLimit, s.scoreThreshold)
	if err != nil {
		log.WithField("error", err.Error()).Error("Knowledge base search failed")
		return s.diagnostic(err)
	}
	log.WithField("hits", len(hits)).Debug("Knowledge base search completed")
	for _, hit := range hits {
		log.WithField("score", fmt.Sprintf("%.4f", hit.Score)).Debug("Search hit above threshold")
	}

	var answer models.Answer
	if len(hits) == 0 {
		answer, err = s.answerExternal(ctx, question)
	} else {
		answer, err = s.answerInternal(ctx, question, hits)
	}
	if err != nil {
		log.WithField("error", err.Error()).Error("Generation failed")
		return s.diagnostic(err)
	}

	s.persist(ctx, question, answer)
	return answer
}

// answerExternal handles the no-hits path: classify the question as IT or
// not, then answer or refuse.
func (s *QAService) answerExternal(ctx context.Context, question string) (models.Answer, error) {
	prompt := fmt.Sprintf(EXTERNAL_QA_PROMPT, question)
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return models.Answer{}, err
	}
	return models.Answer{Text: text, Source: models.SourceExternal}, nil
}

// answerInternal handles the hits path: present every hit as a labeled
// source document and ask for the best block verbatim.
func (s *QAService) answerInternal(ctx context.Context, question string, hits []vectordb.SearchHit) (models.Answer, error) {
	prompt := fmt.Sprintf(INTERNAL_EXTRACTION_PROMPT, question, buildContext(hits))
	text, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return models.Answer{}, err
	}
	return models.Answer{Text: InternalAnswerBanner + text, Source: models.SourceInternal}, nil
}

func buildContext(hits []vectordb.SearchHit) string {
	var b strings.Builder
	for i, hit := range hits {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "Source Document %d:\n%s", i+1, hit.Text)
	}
	return b.String()
}

// persist appends the transcript entry, best effort. Failures are logged
// and swallowed so they never affect the returned answer.
func (s *QAService) persist(ctx context.Context, question string, answer models.Answer) {
	if s.transcripts == nil {
		return
	}

	entry := models.TranscriptEntry{
		ID:        uuid.NewString(),
		Question:  question,
		Answer:    answer.Text,
		Source:    string(answer.Source),
		Timestamp: time.Now().UTC(),
	}
	if err := s.transcripts.Save(ctx, entry); err != nil {
		logger.WithError(err, "qa_service").Error("Failed to save transcript entry")
	}
}

func (s *QAService) diagnostic(err error) models.Answer {
	return models.Answer{Text: fmt.Sprintf("❌ Something went wrong while answering your question: %v", err)}
}
