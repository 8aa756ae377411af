package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/opsdesk/backend/internal/models"
	"github.com/opsdesk/backend/internal/vectordb"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

type fakeSearcher struct {
	hits  []vectordb.SearchHit
	err   error
	calls int

	gotLimit     int
	gotThreshold float64
}

func (f *fakeSearcher) Search(ctx context.Context, vector []float32, limit int, scoreThreshold float64) ([]vectordb.SearchHit, error) {
	f.calls++
	f.gotLimit = limit
	f.gotThreshold = scoreThreshold
	if f.err != nil {
		return nil, f.err
	}
	// Filter like the real index does, so threshold behavior is observable.
	filtered := make([]vectordb.SearchHit, 0, len(f.hits))
	for _, h := range f.hits {
		if h.Score >= scoreThreshold {
			filtered = append(filtered, h)
		}
	}
	return filtered, nil
}

type fakeGenerator struct {
	reply      func(prompt string) (string, error)
	calls      int
	lastPrompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	if f.reply != nil {
		return f.reply(prompt)
	}
	return "generated answer", nil
}

type fakeTranscripts struct {
	entries []models.TranscriptEntry
	err     error
}

func (f *fakeTranscripts) Save(ctx context.Context, entry models.TranscriptEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func newTestService(embedder *fakeEmbedder, searcher *fakeSearcher, generator *fakeGenerator, transcripts TranscriptStore) *QAService {
	return NewQAService(embedder, searcher, generator, transcripts, 0.4, 50, true)
}

func TestAnswerInternalPath(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	searcher := &fakeSearcher{hits: []vectordb.SearchHit{
		{Score: 0.9, Text: "Restart the print spooler service."},
		{Score: 0.5, Text: "Check the network cable first."},
	}}
	generator := &fakeGenerator{reply: func(string) (string, error) {
		return "Restart the print spooler service.", nil
	}}
	transcripts := &fakeTranscripts{}

	answer := newTestService(embedder, searcher, generator, transcripts).
		Answer(context.Background(), "printer does not print")

	if answer.Source != models.SourceInternal {
		t.Errorf("expected internal source, got %q", answer.Source)
	}
	if !strings.HasPrefix(answer.Text, InternalAnswerBanner) {
		t.Errorf("expected internal-knowledge banner prefix, got %q", answer.Text)
	}
	if searcher.gotLimit != 50 || searcher.gotThreshold != 0.4 {
		t.Errorf("unexpected search params: limit=%d threshold=%v", searcher.gotLimit, searcher.gotThreshold)
	}
	if !strings.Contains(generator.lastPrompt, "Source Document 1:\nRestart the print spooler service.") {
		t.Errorf("prompt missing labeled first document:\n%s", generator.lastPrompt)
	}
	if !strings.Contains(generator.lastPrompt, "Source Document 2:\nCheck the network cable first.") {
		t.Errorf("prompt missing labeled second document:\n%s", generator.lastPrompt)
	}
	if !strings.Contains(generator.lastPrompt, "printer does not print") {
		t.Errorf("prompt missing question:\n%s", generator.lastPrompt)
	}

	if len(transcripts.entries) != 1 {
		t.Fatalf("expected 1 transcript entry, got %d", len(transcripts.entries))
	}
	entry := transcripts.entries[0]
	if entry.Source != string(models.SourceInternal) || entry.Question != "printer does not print" {
		t.Errorf("unexpected transcript entry: %+v", entry)
	}
	if entry.ID == "" || entry.Timestamp.IsZero() {
		t.Errorf("transcript entry missing id or timestamp: %+v", entry)
	}
}

func TestAnswerExternalPath(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	searcher := &fakeSearcher{} // no hits
	generator := &fakeGenerator{reply: func(string) (string, error) {
		return "Try turning it off and on again.", nil
	}}
	transcripts := &fakeTranscripts{}

	answer := newTestService(embedder, searcher, generator, transcripts).
		Answer(context.Background(), "my laptop is slow")

	if answer.Source != models.SourceExternal {
		t.Errorf("expected external source, got %q", answer.Source)
	}
	if strings.HasPrefix(answer.Text, InternalAnswerBanner) {
		t.Errorf("external answer must not carry the internal banner")
	}
	if !strings.Contains(generator.lastPrompt, "my laptop is slow") {
		t.Errorf("prompt missing question:\n%s", generator.lastPrompt)
	}
	if !strings.Contains(generator.lastPrompt, NonITRefusalMessage) {
		t.Errorf("external prompt must carry the fixed refusal sentence:\n%s", generator.lastPrompt)
	}
	if len(transcripts.entries) != 1 || transcripts.entries[0].Source != string(models.SourceExternal) {
		t.Errorf("expected one external transcript entry, got %+v", transcripts.entries)
	}
}

func TestAnswerVerbatimScenario(t *testing.T) {
	const doc = "Reset your password via IT ext. 1234"

	embedder := &fakeEmbedder{vector: []float32{0.3}}
	searcher := &fakeSearcher{hits: []vectordb.SearchHit{{Score: 0.82, Text: doc}}}
	// The extraction prompt forbids paraphrasing, so the fake reproduces the
	// retrieved block exactly.
	generator := &fakeGenerator{reply: func(string) (string, error) { return doc, nil }}

	answer := newTestService(embedder, searcher, generator, &fakeTranscripts{}).
		Answer(context.Background(), "I forgot my password")

	if answer.Source != models.SourceInternal {
		t.Fatalf("expected internal source, got %q", answer.Source)
	}
	if !strings.Contains(answer.Text, doc) {
		t.Errorf("answer must contain the exact source sentence, got %q", answer.Text)
	}
}

func TestAnswerRefusalScenario(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.3}}
	searcher := &fakeSearcher{} // capital-of-France finds nothing internal
	generator := &fakeGenerator{reply: func(string) (string, error) {
		return NonITRefusalMessage, nil
	}}

	answer := newTestService(embedder, searcher, generator, &fakeTranscripts{}).
		Answer(context.Background(), "What is the capital of France?")

	if answer.Source != models.SourceExternal {
		t.Errorf("expected external source, got %q", answer.Source)
	}
	if answer.Text != NonITRefusalMessage {
		t.Errorf("expected the fixed refusal sentence, got %q", answer.Text)
	}
}

func TestAnswerEmptyQuestion(t *testing.T) {
	embedder := &fakeEmbedder{}
	searcher := &fakeSearcher{}
	generator := &fakeGenerator{}

	for _, q := range []string{"", "   ", "\n\t"} {
		answer := newTestService(embedder, searcher, generator, nil).
			Answer(context.Background(), q)

		if answer.Text != EmptyQuestionMessage {
			t.Errorf("question %q: expected empty-question message, got %q", q, answer.Text)
		}
		if answer.Source != "" {
			t.Errorf("guard message must carry no source, got %q", answer.Source)
		}
	}
	if embedder.calls != 0 || searcher.calls != 0 || generator.calls != 0 {
		t.Errorf("no provider calls expected for blank input: embed=%d search=%d generate=%d",
			embedder.calls, searcher.calls, generator.calls)
	}
}

func TestAnswerFeatureUnavailable(t *testing.T) {
	embedder := &fakeEmbedder{}
	searcher := &fakeSearcher{}
	generator := &fakeGenerator{}

	svc := NewQAService(embedder, searcher, generator, nil, 0.4, 50, false)
	answer := svc.Answer(context.Background(), "vpn is down")

	if answer.Text != FeatureUnavailableMessage {
		t.Errorf("expected feature-unavailable message, got %q", answer.Text)
	}
	if embedder.calls != 0 || searcher.calls != 0 || generator.calls != 0 {
		t.Error("no provider calls expected when the feature is disabled")
	}
}

func TestAnswerWithoutTranscriptStore(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	searcher := &fakeSearcher{hits: []vectordb.SearchHit{{Score: 0.7, Text: "doc"}}}
	generator := &fakeGenerator{}

	answer := newTestService(embedder, searcher, generator, nil).
		Answer(context.Background(), "is the wiki down?")

	if answer.Source != models.SourceInternal {
		t.Errorf("expected a valid internal answer without a transcript store, got %+v", answer)
	}
}

func TestAnswerSurvivesTranscriptFailure(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	searcher := &fakeSearcher{}
	generator := &fakeGenerator{reply: func(string) (string, error) { return "answer", nil }}
	transcripts := &fakeTranscripts{err: errors.New("mongodb: connection closed")}

	answer := newTestService(embedder, searcher, generator, transcripts).
		Answer(context.Background(), "how do I map a network drive?")

	if answer.Text != "answer" || answer.Source != models.SourceExternal {
		t.Errorf("persistence failure must not affect the answer, got %+v", answer)
	}
}

func TestAnswerProviderFailures(t *testing.T) {
	tests := []struct {
		name     string
		embedder *fakeEmbedder
		searcher *fakeSearcher
		gener    *fakeGenerator
	}{
		{
			name:     "embedding fails",
			embedder: &fakeEmbedder{err: errors.New("embed: 503")},
			searcher: &fakeSearcher{},
			gener:    &fakeGenerator{},
		},
		{
			name:     "search fails",
			embedder: &fakeEmbedder{vector: []float32{0.1}},
			searcher: &fakeSearcher{err: errors.New("qdrant POST failed: 502 Bad Gateway")},
			gener:    &fakeGenerator{},
		},
		{
			name:     "generation fails",
			embedder: &fakeEmbedder{vector: []float32{0.1}},
			searcher: &fakeSearcher{},
			gener:    &fakeGenerator{reply: func(string) (string, error) { return "", errors.New("rate limited") }},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transcripts := &fakeTranscripts{}
			answer := newTestService(tt.embedder, tt.searcher, tt.gener, transcripts).
				Answer(context.Background(), "dns lookup fails")

			if !strings.Contains(answer.Text, "Something went wrong") {
				t.Errorf("expected a diagnostic answer, got %q", answer.Text)
			}
			if answer.Source != "" {
				t.Errorf("diagnostic answers carry no source, got %q", answer.Source)
			}
			if len(transcripts.entries) != 0 {
				t.Errorf("diagnostic answers must not be persisted, got %d entries", len(transcripts.entries))
			}
		})
	}
}

func TestThresholdMonotonicity(t *testing.T) {
	// Lowering the threshold never decreases the number of hits for a fixed
	// question and fixed index contents.
	hits := []vectordb.SearchHit{
		{Score: 0.9, Text: "a"},
		{Score: 0.6, Text: "b"},
		{Score: 0.45, Text: "c"},
		{Score: 0.2, Text: "d"},
	}

	prevCount := -1
	for _, threshold := range []float64{0.95, 0.7, 0.5, 0.4, 0.1, 0} {
		searcher := &fakeSearcher{hits: hits}
		svc := NewQAService(&fakeEmbedder{vector: []float32{0.1}}, searcher, &fakeGenerator{}, nil, threshold, 50, true)
		svc.Answer(context.Background(), "fixed question")

		count := 0
		for _, h := range hits {
			if h.Score >= searcher.gotThreshold {
				count++
			}
		}
		if prevCount >= 0 && count < prevCount {
			t.Errorf("hit count decreased from %d to %d when lowering threshold to %v", prevCount, count, threshold)
		}
		prevCount = count
	}
}
