package insights

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vaniusmax/projeto-finops/internal/llm"
)

type fakeClient struct {
	lastSystem  string
	lastUser    string
	reply       string
	err         error
	sawDeadline bool
}

func (f *fakeClient) Generate(ctx context.Context, system, user string) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	_, f.sawDeadline = ctx.Deadline()
	return f.reply, f.err
}

func TestInsightsSendsDigest(t *testing.T) {
	client := &fakeClient{reply: "resumo executivo"}
	svc := NewService(client, time.Second)

	out, err := svc.Insights(context.Background(), fixtureBundle())
	if err != nil {
		t.Fatalf("insights: %v", err)
	}
	if out != "resumo executivo" {
		t.Fatalf("out = %q", out)
	}
	if !strings.Contains(client.lastUser, "Custo total: $150.00") {
		t.Fatalf("digest not in prompt:\n%s", client.lastUser)
	}
	if !client.sawDeadline {
		t.Fatal("call must carry a deadline")
	}
}

func TestChatIncludesQuestion(t *testing.T) {
	client := &fakeClient{reply: "resposta"}
	svc := NewService(client, time.Second)

	_, err := svc.Chat(context.Background(), fixtureBundle(), "qual o serviço mais caro?")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.Contains(client.lastUser, "qual o serviço mais caro?") {
		t.Fatalf("question not in prompt:\n%s", client.lastUser)
	}
}

func TestGenerateSurfacesClientError(t *testing.T) {
	client := &fakeClient{err: errors.New("boom")}
	svc := NewService(client, time.Second)

	_, err := svc.Insights(context.Background(), fixtureBundle())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestPanelReason(t *testing.T) {
	if got := panelReason(llm.ErrNotConfigured); got != "llm_not_configured" {
		t.Fatalf("reason = %q", got)
	}
	if got := panelReason(errors.New("timeout")); got != "llm_unavailable" {
		t.Fatalf("reason = %q", got)
	}
}
