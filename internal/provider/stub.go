package provider

import "context"

// StubProvider is a canned provider for tests.
type StubProvider struct {
	Reply     string
	Err       error
	Calls     int
	LastMsgs  []Message
	NameValue string
}

func NewStubProvider(reply string) *StubProvider {
	return &StubProvider{Reply: reply, NameValue: "stub"}
}

func (s *StubProvider) Chat(ctx context.Context, messages []Message) (*Response, error) {
	s.Calls++
	s.LastMsgs = messages
	if s.Err != nil {
		return nil, s.Err
	}
	return &Response{
		Content: s.Reply,
		Model:   "stub-model",
		Usage:   Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}, nil
}

func (s *StubProvider) Name() string {
	return s.NameValue
}
