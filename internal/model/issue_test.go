package model

import (
	"reflect"
	"testing"
)

func TestIssueKeys(t *testing.T) {
	t.Parallel()

	issue := Issue{
		Site:     "https://example.bcsdk12.net/",
		ErrorURL: "https://example.bcsdk12.net/missing.pdf",
		FoundOn:  "https://example.bcsdk12.net/staff/",
		Error:    "404 Not Found",
	}

	t.Run("full key includes error text", func(t *testing.T) {
		t.Parallel()

		reworded := issue
		reworded.Error = "404 Not Found (cached)"
		if issue.Key() == reworded.Key() {
			t.Error("expected rewording the error to change the full key")
		}
	})

	t.Run("stable key ignores error text", func(t *testing.T) {
		t.Parallel()

		reworded := issue
		reworded.Error = "404 Not Found (cached)"
		if issue.StableKey() != reworded.StableKey() {
			t.Error("expected stable key to be unaffected by error wording")
		}
	})

	t.Run("keys are usable as map keys", func(t *testing.T) {
		t.Parallel()

		set := map[Key]struct{}{issue.Key(): {}}
		if _, ok := set[issue.Key()]; !ok {
			t.Error("expected identical issue to hit the same map entry")
		}
	})
}

func TestSortIssues(t *testing.T) {
	t.Parallel()

	issues := []Issue{
		{Site: "b", ErrorURL: "u1", FoundOn: "p1", Error: "e1"},
		{Site: "a", ErrorURL: "u2", FoundOn: "p1", Error: "e1"},
		{Site: "a", ErrorURL: "u1", FoundOn: "p2", Error: "e1"},
		{Site: "a", ErrorURL: "u1", FoundOn: "p1", Error: "e2"},
		{Site: "a", ErrorURL: "u1", FoundOn: "p1", Error: "e1"},
	}
	SortIssues(issues)

	want := []Issue{
		{Site: "a", ErrorURL: "u1", FoundOn: "p1", Error: "e1"},
		{Site: "a", ErrorURL: "u1", FoundOn: "p1", Error: "e2"},
		{Site: "a", ErrorURL: "u1", FoundOn: "p2", Error: "e1"},
		{Site: "a", ErrorURL: "u2", FoundOn: "p1", Error: "e1"},
		{Site: "b", ErrorURL: "u1", FoundOn: "p1", Error: "e1"},
	}
	if !reflect.DeepEqual(issues, want) {
		t.Errorf("unexpected sort order:\ngot  %v\nwant %v", issues, want)
	}
}

func TestGroupBySite(t *testing.T) {
	t.Parallel()

	sites := []string{"https://a.example/", "https://b.example/"}
	issues := []Issue{
		{Site: "https://a.example/", ErrorURL: "x", FoundOn: "y", Error: "404"},
	}

	bySite := GroupBySite(sites, issues)

	if len(bySite["https://a.example/"]) != 1 {
		t.Errorf("expected 1 issue for a.example, got %d", len(bySite["https://a.example/"]))
	}
	if got, ok := bySite["https://b.example/"]; !ok || got != nil {
		t.Errorf("expected empty entry for site without issues, got %v (present=%v)", got, ok)
	}
}

func TestHostSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		site string
		want string
	}{
		{name: "plain host", site: "https://alexii.bcsdk12.net/", want: "alexii.bcsdk12.net"},
		{name: "uppercase host is lowered", site: "https://Alexii.BCSDK12.net/", want: "alexii.bcsdk12.net"},
		{name: "port separator replaced", site: "http://staging.bcsdk12.net:8080/", want: "staging.bcsdk12.net_8080"},
		{name: "no host", site: "not-a-url", want: "unknown"},
		{name: "empty", site: "", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := HostSlug(tt.site); got != tt.want {
				t.Errorf("HostSlug(%q) = %q, want %q", tt.site, got, tt.want)
			}
		})
	}
}
