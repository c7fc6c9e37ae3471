package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"agriclimate-platform/internal/dataset"
	"agriclimate-platform/internal/llm"
	"agriclimate-platform/internal/query"
)

// fakeBackend scripts one response per call, capturing the instructions it
// was given
type fakeBackend struct {
	responses []string
	errs      []error
	calls     []fakeCall
}

type fakeCall struct {
	system string
	user   string
}

func (f *fakeBackend) Generate(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, fakeCall{system: systemInstruction, user: userPrompt})

	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("unexpected backend call")
}

func answerFixtureStore() *dataset.Store {
	table := dataset.NewTable(
		dataset.ColumnYear, dataset.ColumnState, dataset.ColumnDistrict,
		"RICE PRODUCTION (1000 tons)",
	)
	table.Rows = append(table.Rows,
		[]any{int64(2010), "Maharashtra", "Pune", 12.5},
		[]any{int64(2010), "Punjab", "Ludhiana", 7.0},
	)

	store := dataset.NewStore()
	store.Replace(dataset.NewSnapshot(table, []string{"agri.csv", "rain.csv", "soil.csv"}))
	return store
}

func newAnswerService(store *dataset.Store, backend llm.Client, configured bool) *AnswerService {
	executor := query.NewExecutor(500, testLogger, testMetrics)
	return NewAnswerService(store, backend, executor,
		[]string{"agri.csv", "rain.csv", "soil.csv"}, configured, testLogger, testMetrics)
}

func TestAsk(t *testing.T) {
	backend := &fakeBackend{responses: []string{
		"```sql\nSELECT SUM(\"RICE PRODUCTION (1000 tons)\") AS total FROM df WHERE Year = 2010\n```",
		"Total rice production in 2010 was 19.5 thousand tons. [Sources: agri.csv, rain.csv, soil.csv]",
	}}

	svc := newAnswerService(answerFixtureStore(), backend, true)

	answer, err := svc.Ask(context.Background(), "How much rice was produced in 2010?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if answer.ExecError != nil {
		t.Fatalf("ExecError = %v, want nil", *answer.ExecError)
	}
	if !strings.Contains(answer.Text, "19.5") {
		t.Errorf("Text = %q, want the synthesized answer", answer.Text)
	}
	if answer.DataResult != "19.5" {
		t.Errorf("DataResult = %q, want scalar 19.5", answer.DataResult)
	}
	if !strings.HasPrefix(answer.Query, "SELECT SUM") {
		t.Errorf("Query = %q, want the fenced markers stripped", answer.Query)
	}

	if len(backend.calls) != 2 {
		t.Fatalf("backend calls = %d, want 2", len(backend.calls))
	}
	if !strings.Contains(backend.calls[0].system, `"df"`) {
		t.Errorf("code generation instruction should name the table, got %q", backend.calls[0].system)
	}
	if !strings.Contains(backend.calls[1].system, "[Sources: agri.csv, rain.csv, soil.csv]") {
		t.Errorf("synthesis instruction should carry the citation, got %q", backend.calls[1].system)
	}
	if !strings.Contains(backend.calls[1].system, "19.5") {
		t.Errorf("synthesis instruction should carry the data result, got %q", backend.calls[1].system)
	}
}

func TestAsk_DataUnavailable(t *testing.T) {
	backend := &fakeBackend{}
	svc := newAnswerService(dataset.NewStore(), backend, true)

	_, err := svc.Ask(context.Background(), "anything")
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("Ask() error = %v, want ErrDataUnavailable", err)
	}
	if len(backend.calls) != 0 {
		t.Error("no backend call should happen without a snapshot")
	}
}

func TestAsk_NotConfigured(t *testing.T) {
	backend := &fakeBackend{}
	svc := newAnswerService(answerFixtureStore(), backend, false)

	_, err := svc.Ask(context.Background(), "anything")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Ask() error = %v, want ErrNotConfigured", err)
	}
	if len(backend.calls) != 0 {
		t.Error("no backend call should happen without credentials")
	}
}

func TestAsk_ExecutionErrorIsExplained(t *testing.T) {
	backend := &fakeBackend{responses: []string{
		"SELECT no_such_column FROM df",
		"I could not find that information. Try asking about rice production by state.",
	}}

	svc := newAnswerService(answerFixtureStore(), backend, true)

	answer, err := svc.Ask(context.Background(), "What is the average yield of unicorns?")
	if err != nil {
		t.Fatalf("Ask() error = %v, want the explained answer", err)
	}

	if answer.ExecError == nil {
		t.Fatal("ExecError should carry the runtime failure")
	}
	if !strings.Contains(*answer.ExecError, "no_such_column") {
		t.Errorf("ExecError = %q, want the query error message", *answer.ExecError)
	}
	if !strings.Contains(answer.Text, "Try asking") {
		t.Errorf("Text = %q, want the explanation", answer.Text)
	}
	if answer.DataResult != "" {
		t.Errorf("DataResult = %q, want empty on execution error", answer.DataResult)
	}

	if len(backend.calls) != 2 {
		t.Fatalf("backend calls = %d, want code generation plus explanation", len(backend.calls))
	}
	if !strings.Contains(backend.calls[1].system, "no_such_column") {
		t.Errorf("explanation instruction should carry the failed query, got %q", backend.calls[1].system)
	}
}

func TestAsk_GuardRejectionIsExplained(t *testing.T) {
	backend := &fakeBackend{responses: []string{
		"DROP TABLE df",
		"That request cannot be answered with the available data.",
	}}

	svc := newAnswerService(answerFixtureStore(), backend, true)

	answer, err := svc.Ask(context.Background(), "delete everything")
	if err != nil {
		t.Fatalf("Ask() error = %v, want the explained answer", err)
	}
	if answer.ExecError == nil {
		t.Fatal("ExecError should carry the guard rejection")
	}
	if !strings.Contains(*answer.ExecError, "SELECT") {
		t.Errorf("ExecError = %q, want the guard message", *answer.ExecError)
	}
}

func TestAsk_BackendFailurePropagates(t *testing.T) {
	wantErr := &llm.BackendError{StatusCode: 502, Message: "bad gateway", Transient: true}
	backend := &fakeBackend{errs: []error{wantErr}}

	svc := newAnswerService(answerFixtureStore(), backend, true)

	_, err := svc.Ask(context.Background(), "anything")
	var backendErr *llm.BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("Ask() error = %v, want *llm.BackendError", err)
	}
}
