package slack

import (
	"context"
	"sync"

	"whchecker-backend/internal/analyzer"
	"whchecker-backend/internal/queue"
)

type apiCall struct {
	Method  string
	Token   string
	Channel string
	TS      string
	Text    string
	Message OutgoingMessage
	View    View
	Trigger string
}

type fakeAPI struct {
	mu          sync.Mutex
	calls       []apiCall
	reactionErr error
	postErr     error
}

func (f *fakeAPI) record(c apiCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeAPI) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Method)
	}
	return out
}

func (f *fakeAPI) last() apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeAPI) PostMessage(ctx context.Context, token string, msg OutgoingMessage) (string, error) {
	f.record(apiCall{Method: "chat.postMessage", Token: token, Channel: msg.Channel, Message: msg})
	if f.postErr != nil {
		return "", f.postErr
	}
	return "1700000000.999999", nil
}

func (f *fakeAPI) PostEphemeral(ctx context.Context, token string, msg OutgoingMessage) error {
	f.record(apiCall{Method: "chat.postEphemeral", Token: token, Channel: msg.Channel, Message: msg})
	return nil
}

func (f *fakeAPI) AddReaction(ctx context.Context, token, channel, ts, name string) error {
	f.record(apiCall{Method: "reactions.add", Token: token, Channel: channel, TS: ts, Text: name})
	return f.reactionErr
}

func (f *fakeAPI) UpdateMessage(ctx context.Context, token, channel, ts, text string) error {
	f.record(apiCall{Method: "chat.update", Token: token, Channel: channel, TS: ts, Text: text})
	return nil
}

func (f *fakeAPI) OpenView(ctx context.Context, token, triggerID string, view View) error {
	f.record(apiCall{Method: "views.open", Token: token, Trigger: triggerID, View: view})
	return nil
}

type stubAnalyzer struct {
	result analyzer.AnalysisResult
}

func (s stubAnalyzer) Analyze(ctx context.Context, text string) analyzer.AnalysisResult {
	return s.result
}

type recordingQueue struct {
	mu   sync.Mutex
	msgs []queue.Message
	err  error
}

func (q *recordingQueue) Send(ctx context.Context, msg queue.Message) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
	return nil
}

func flaggedResult() analyzer.AnalysisResult {
	return analyzer.AnalysisResult{
		Missing: []analyzer.MissingItem{{Key: analyzer.Who, Reason: "誰が対応するかが不明です"}},
		Matches: []analyzer.RuleMatch{
			{Phrase: "なるはや", Category: analyzer.CategoryAmbiguous, Reason: "期限が曖昧です"},
			{Phrase: "常識的に", Category: analyzer.CategoryNegative, Reason: "相手を責める印象を与えます"},
		},
		Summary: analyzer.Summary{HasIssues: true, IssueCount: 3},
		Suggestion: &analyzer.Suggestion{
			Rewrite:        "田中さん、明日17時までに資料を送ってください。",
			Rationale:      []string{},
			ImprovedPoints: []analyzer.Dimension{analyzer.Who},
		},
		Notification: &analyzer.NotificationScore{Score: 5, ShouldNotify: true, Reasons: []string{}},
	}
}
