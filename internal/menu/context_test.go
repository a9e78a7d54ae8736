package menu

import "testing"

func TestClassify(t *testing.T) {
	page := map[ContextTag]bool{
		ContextEditable:  true,
		ContextFrame:     true,
		ContextPage:      true,
		ContextPassword:  true,
		ContextSelection: true,
		ContextTab:       true,
	}

	for _, tag := range AllContexts {
		got := Classify(tag)
		want := ClassObject
		if page[tag] {
			want = ClassPage
		}
		if got != want {
			t.Errorf("Classify(%q) = %v, want %v", tag, got, want)
		}
		// Deterministic: same answer every time.
		if again := tag.Class(); again != got {
			t.Errorf("Classify(%q) not deterministic: %v then %v", tag, got, again)
		}
	}
}

func TestClassifyUnknownTag(t *testing.T) {
	if got := Classify("hologram"); got != ClassObject {
		t.Errorf("Classify(unknown) = %v, want object", got)
	}
	if ContextTag("hologram").IsKnown() {
		t.Error("IsKnown() = true for unknown tag")
	}
}

func TestSplitContexts(t *testing.T) {
	page, object := SplitContexts([]ContextTag{ContextLink, ContextPage, ContextImage, ContextSelection})

	if len(page) != 2 || page[0] != ContextPage || page[1] != ContextSelection {
		t.Errorf("page = %v, want [page selection]", page)
	}
	if len(object) != 2 || object[0] != ContextLink || object[1] != ContextImage {
		t.Errorf("object = %v, want [link image]", object)
	}
}

func TestStripSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"42-object", "42"},
		{"42-page", "42"},
		{"42", "42"},
		{"a-page-object", "a-page"},
		{"page", "page"},
		{"-page", ""},
		{"42-pages", "42-pages"},
	}

	for _, tt := range tests {
		if got := StripSuffix(tt.in); got != tt.want {
			t.Errorf("StripSuffix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassSuffix(t *testing.T) {
	if ClassPage.Suffix() != "-page" {
		t.Errorf("ClassPage.Suffix() = %q", ClassPage.Suffix())
	}
	if ClassObject.Suffix() != "-object" {
		t.Errorf("ClassObject.Suffix() = %q", ClassObject.Suffix())
	}
}
