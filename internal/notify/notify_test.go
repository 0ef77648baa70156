package notify

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/wneessen/go-mail"

	"video_digest/internal/model"
)

func testSections() []model.Section {
	return []model.Section{
		{
			Name: "kizomba",
			Items: []model.Item{
				{ID: "k1", Title: "Saida basics", URL: "https://youtu.be/k1", Tags: []string{"kizomba", "beginner"}, SourcePointer: "https://sheet#gid=1&range=A2"},
				{ID: "k2", URL: "https://player.vimeo.com/video/2"},
			},
		},
		{
			Name: "semba",
			Items: []model.Item{
				{ID: "s1", Title: "Provider title", URL: "https://youtu.be/s1", Override: &model.Override{Title: "Curated title", Tags: []string{"semba"}}},
			},
		},
	}
}

func TestSubject(t *testing.T) {
	tests := []struct {
		name string
		user model.User
		want string
	}{
		{name: "prefix", user: model.User{}, want: "Daily Digest: kizomba, semba"},
		{name: "user subject", user: model.User{Subject: "Daily Dance Digest"}, want: "Daily Dance Digest: kizomba, semba"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Subject(tt.user, "Daily Digest", testSections())
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Subject() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	want := `Daily Digest: kizomba, semba

kizomba
1. Saida basics
   https://youtu.be/k1
2. https://player.vimeo.com/video/2

semba
1. Curated title
   https://youtu.be/s1
`
	got := PlainText("Daily Digest: kizomba, semba", testSections())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PlainText() mismatch (-want +got):\n%s", diff)
	}
}

func TestRender(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	r.now = func() time.Time { return time.Date(2021, 6, 7, 8, 0, 0, 0, time.UTC) }

	if diff := cmp.Diff([]string{"compact", "default"}, slices.Sorted(slices.Values(r.Templates()))); diff != "" {
		t.Errorf("Templates() mismatch (-want +got):\n%s", diff)
	}

	msg, err := r.Render(model.User{}, "Daily Digest: kizomba, semba", testSections())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{
		"<h1>Daily Digest: kizomba, semba</h1>",
		"Monday, June 7",
		`href="https://youtu.be/k1"`,
		"Saida basics",
		`<span class="tag">beginner</span>`,
		"Curated title",
		"3 videos",
	} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("default HTML missing %q", want)
		}
	}
	if strings.Contains(msg.HTML, "Provider title") {
		t.Error("default HTML shows the provider title of an overridden item")
	}
	if !strings.HasPrefix(msg.Plain, "Daily Digest: kizomba, semba\n") {
		t.Errorf("Plain = %q", msg.Plain)
	}

	compact, err := r.Render(model.User{Template: "compact", Body: "See the HTML part."}, "s", testSections())
	if err != nil {
		t.Fatalf("Render compact: %v", err)
	}
	if !strings.Contains(compact.HTML, "<b>kizomba</b>") {
		t.Errorf("compact HTML missing section name: %s", compact.HTML)
	}
	if diff := cmp.Diff("See the HTML part.", compact.Plain); diff != "" {
		t.Errorf("Plain mismatch (-want +got):\n%s", diff)
	}

	_, err = r.Render(model.User{Template: "missing"}, "s", testSections())
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("Render unknown template error = %v, want ErrUnknownTemplate", err)
	}
}

type fakeDialer struct {
	sent []*mail.Msg
	err  error
}

func (d *fakeDialer) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	d.sent = append(d.sent, msgs...)
	return d.err
}

func TestSMTPSenderSend(t *testing.T) {
	d := &fakeDialer{}
	s := NewSMTPSenderWithDialer(d, "digest@example.com")

	msg := &Message{Subject: "Daily Digest: kizomba", HTML: "<p>hi</p>", Plain: "hi"}
	if err := s.Send(context.Background(), []string{"a@example.com", "b@example.com"}, msg); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(d.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(d.sent))
	}
	m := d.sent[0]

	if diff := cmp.Diff([]string{"<a@example.com>", "<b@example.com>"}, m.GetBccString()); diff != "" {
		t.Errorf("bcc mismatch (-want +got):\n%s", diff)
	}
	if got := m.GetToString(); len(got) != 0 {
		t.Errorf("to = %v, want empty", got)
	}
	if diff := cmp.Diff([]string{"Daily Digest: kizomba"}, m.GetGenHeader(mail.HeaderSubject)); diff != "" {
		t.Errorf("subject mismatch (-want +got):\n%s", diff)
	}
}

func TestSMTPSenderErrors(t *testing.T) {
	msg := &Message{Subject: "s", Plain: "p", HTML: "h"}

	s := NewSMTPSenderWithDialer(&fakeDialer{}, "digest@example.com")
	if err := s.Send(context.Background(), nil, msg); err == nil {
		t.Error("Send without recipients should fail")
	}

	s = NewSMTPSenderWithDialer(&fakeDialer{}, "not an address")
	if err := s.Send(context.Background(), []string{"a@example.com"}, msg); err == nil {
		t.Error("Send with a bad sender should fail")
	}

	down := errors.New("connection refused")
	s = NewSMTPSenderWithDialer(&fakeDialer{err: down}, "digest@example.com")
	if err := s.Send(context.Background(), []string{"a@example.com"}, msg); !errors.Is(err, down) {
		t.Errorf("Send error = %v, want %v", err, down)
	}
}

func TestChatChunks(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{name: "fits", text: "a\nb\n", limit: 10, want: []string{"a\nb"}},
		{name: "splits on lines", text: "aaaa\nbbbb\ncccc\n", limit: 10, want: []string{"aaaa\nbbbb", "cccc"}},
		{name: "long line cut", text: "abcdefghij\n", limit: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "empty", text: "", limit: 10, want: nil},
		{name: "cut keeps runes whole", text: "ééé\n", limit: 3, want: []string{"é", "é", "é"}},
		{name: "limit below rune size", text: "жж", limit: 1, want: []string{"ж", "ж"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChatChunks(tt.text, tt.limit)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ChatChunks() mismatch (-want +got):\n%s", diff)
			}
			for _, chunk := range got {
				if !utf8.ValidString(chunk) {
					t.Errorf("chunk %q is not valid UTF-8", chunk)
				}
			}
		})
	}
}
