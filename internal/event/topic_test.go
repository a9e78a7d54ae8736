package event

import "testing"

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		want    bool
	}{
		{"runtime.message", "runtime.message", true},
		{"runtime.message", "runtime.message.external", false},
		{"runtime.message.external", "runtime.message", false},
		{"runtime.message", "runtime.*", true},
		{"runtime.message.external", "runtime.*", false},
		{"runtime.message.external", "runtime.**", true},
		{"runtime", "runtime.**", true},
		{"menu.clicked", "**", true},
		{"menu.clicked", "*.clicked", true},
		{"menu.clicked", "**.clicked", true},
		{"storage.changed", "*.clicked", false},
		{"a.b.c", "a.**.c", true},
		{"a.c", "a.**.c", true},
		{"a.b.d", "a.**.c", false},
	}

	for _, tt := range tests {
		if got := tt.topic.Matches(tt.pattern); got != tt.want {
			t.Errorf("%q.Matches(%q) = %v, want %v", tt.topic, tt.pattern, got, tt.want)
		}
	}
}

func TestTopicIsValid(t *testing.T) {
	tests := []struct {
		topic Topic
		want  bool
	}{
		{"menu.clicked", true},
		{"menu", true},
		{"runtime.**", true},
		{"", false},
		{".menu", false},
		{"menu.", false},
		{"menu..clicked", false},
	}

	for _, tt := range tests {
		if got := tt.topic.IsValid(); got != tt.want {
			t.Errorf("%q.IsValid() = %v, want %v", tt.topic, got, tt.want)
		}
	}
}

func TestTopicIsPattern(t *testing.T) {
	if Topic("menu.clicked").IsPattern() {
		t.Error("plain topic reported as pattern")
	}
	if !Topic("menu.*").IsPattern() || !Topic("**").IsPattern() {
		t.Error("wildcard topic not reported as pattern")
	}
}

func TestJoin(t *testing.T) {
	if got := Join("runtime", "message", "external"); got != TopicExternalMessage {
		t.Errorf("Join() = %q, want %q", got, TopicExternalMessage)
	}
}
