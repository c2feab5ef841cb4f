package parser

import (
	"strings"
	"testing"

	"github.com/bcsdweb/linkpatrol/internal/model"
)

const site = "https://example.bcsdk12.net/"

func TestParseIssues(t *testing.T) {
	t.Parallel()

	t.Run("parses semicolon delimited output", func(t *testing.T) {
		t.Parallel()

		csvText := "# created by LinkChecker\n" +
			"# scanned https://example.bcsdk12.net/\n" +
			"urlname;parentname;result\n" +
			"https://example.bcsdk12.net/missing.pdf;https://example.bcsdk12.net/staff/;404 Not Found\n"

		issues := ParseIssues(site, csvText)
		if len(issues) != 1 {
			t.Fatalf("expected 1 issue, got %d", len(issues))
		}
		got := issues[0]
		if got.ErrorURL != "https://example.bcsdk12.net/missing.pdf" {
			t.Errorf("unexpected error URL: %s", got.ErrorURL)
		}
		if got.FoundOn != "https://example.bcsdk12.net/staff/" {
			t.Errorf("unexpected found-on: %s", got.FoundOn)
		}
		if got.Error != "404 Not Found" {
			t.Errorf("unexpected error text: %s", got.Error)
		}
	})

	t.Run("empty input yields no issues", func(t *testing.T) {
		t.Parallel()

		if issues := ParseIssues(site, ""); issues != nil {
			t.Errorf("expected nil, got %v", issues)
		}
		if issues := ParseIssues(site, "# only comments\n\n"); issues != nil {
			t.Errorf("expected nil, got %v", issues)
		}
	})

	t.Run("403 results are always excluded", func(t *testing.T) {
		t.Parallel()

		csvText := "urlname;parentname;result\n" +
			"https://a.example/x;https://a.example/;403 Forbidden\n" +
			"https://a.example/y;https://a.example/;Error: Forbidden by server\n" +
			"https://a.example/z;https://a.example/;404 Not Found\n"

		issues := ParseIssues(site, csvText)
		if len(issues) != 1 {
			t.Fatalf("expected only the 404 row, got %d issues", len(issues))
		}
		if issues[0].ErrorURL != "https://a.example/z" {
			t.Errorf("unexpected survivor: %s", issues[0].ErrorURL)
		}
	})

	t.Run("success results are excluded", func(t *testing.T) {
		t.Parallel()

		csvText := "urlname;parentname;result\n" +
			"https://a.example/1;;200 OK\n" +
			"https://a.example/2;;success\n" +
			"https://a.example/3;;True\n"

		if issues := ParseIssues(site, csvText); len(issues) != 0 {
			t.Errorf("expected success rows to be dropped, got %v", issues)
		}
	})

	t.Run("error indicators are retained", func(t *testing.T) {
		t.Parallel()

		results := []string{
			"404 Not Found",
			"500 Internal Server Error",
			"502 Bad Gateway",
			"503 Service Unavailable",
			"ConnectTimeout: request timed out",
			"SSL handshake failed",
			"ConnectionError: refused",
			"ReadError exception",
		}

		var sb strings.Builder
		sb.WriteString("urlname;parentname;result\n")
		for i, r := range results {
			sb.WriteString("https://a.example/")
			sb.WriteByte(byte('a' + i))
			sb.WriteString(";;")
			sb.WriteString(r)
			sb.WriteString("\n")
		}

		issues := ParseIssues(site, sb.String())
		if len(issues) != len(results) {
			t.Errorf("expected %d issues, got %d", len(results), len(issues))
		}
	})

	t.Run("valid prefix is stripped from error text", func(t *testing.T) {
		t.Parallel()

		csvText := "urlname;parentname;result\n" +
			"https://a.example/x;; invalid: 404 Not Found\n" +
			"https://a.example/y;;Valid: 500 oops\n"

		issues := ParseIssues(site, csvText)
		if len(issues) != 2 {
			t.Fatalf("expected 2 issues, got %d", len(issues))
		}
		if issues[0].Error != "404 Not Found" {
			t.Errorf("prefix not stripped: %q", issues[0].Error)
		}
		if issues[1].Error != "500 oops" {
			t.Errorf("prefix not stripped: %q", issues[1].Error)
		}
	})

	t.Run("relative URLs resolve against parent then site", func(t *testing.T) {
		t.Parallel()

		csvText := "urlname;parentname;result\n" +
			"/docs/handbook.pdf;https://example.bcsdk12.net/parents/;404 Not Found\n" +
			"/calendar.ics;;404 Not Found\n"

		issues := ParseIssues(site, csvText)
		if len(issues) != 2 {
			t.Fatalf("expected 2 issues, got %d", len(issues))
		}

		model.SortIssues(issues)
		if issues[0].ErrorURL != "https://example.bcsdk12.net/calendar.ics" {
			t.Errorf("site-root resolution failed: %s", issues[0].ErrorURL)
		}
		if issues[0].FoundOn != site {
			t.Errorf("expected found-on fallback to site, got %s", issues[0].FoundOn)
		}
		if issues[1].ErrorURL != "https://example.bcsdk12.net/docs/handbook.pdf" {
			t.Errorf("parent resolution failed: %s", issues[1].ErrorURL)
		}
	})

	t.Run("alternate column spellings are accepted", func(t *testing.T) {
		t.Parallel()

		csvText := "url,parent,valid\n" +
			"https://a.example/x,https://a.example/,invalid: 404 Not Found\n"

		issues := ParseIssues(site, csvText)
		if len(issues) != 1 {
			t.Fatalf("expected 1 issue, got %d", len(issues))
		}
		if issues[0].Error != "404 Not Found" {
			t.Errorf("unexpected error text: %q", issues[0].Error)
		}
	})

	t.Run("rows with neither url nor result are skipped", func(t *testing.T) {
		t.Parallel()

		csvText := "urlname;parentname;result\n" +
			";;\n" +
			";https://a.example/;\n"

		if issues := ParseIssues(site, csvText); len(issues) != 0 {
			t.Errorf("expected empty rows to be skipped, got %v", issues)
		}
	})

	t.Run("missing result column keeps row with unknown error", func(t *testing.T) {
		t.Parallel()

		csvText := "urlname;parentname\n" +
			"https://a.example/x;https://a.example/\n"

		issues := ParseIssues(site, csvText)
		if len(issues) != 1 {
			t.Fatalf("expected 1 issue, got %d", len(issues))
		}
		if issues[0].Error != "Unknown error" {
			t.Errorf("expected Unknown error placeholder, got %q", issues[0].Error)
		}
	})

	t.Run("output is sorted", func(t *testing.T) {
		t.Parallel()

		csvText := "urlname;parentname;result\n" +
			"https://a.example/z;;404 Not Found\n" +
			"https://a.example/a;;404 Not Found\n" +
			"https://a.example/m;;404 Not Found\n"

		issues := ParseIssues(site, csvText)
		if len(issues) != 3 {
			t.Fatalf("expected 3 issues, got %d", len(issues))
		}
		for i := 1; i < len(issues); i++ {
			if issues[i-1].ErrorURL > issues[i].ErrorURL {
				t.Errorf("issues not sorted: %s before %s", issues[i-1].ErrorURL, issues[i].ErrorURL)
			}
		}
	})
}

func TestSniffDelimiter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want rune
	}{
		{name: "semicolon", text: "urlname;parentname;result\na;b;c\n", want: ';'},
		{name: "comma", text: "url,parent,result\na,b,c\n", want: ','},
		{name: "pipe", text: "url|parent|result\na|b|c\n", want: '|'},
		{name: "tab", text: "url\tparent\tresult\na\tb\tc\n", want: '\t'},
		{name: "comments ignored while sniffing", text: "# a,b,c,d,e,f\nurl;parent;result\n", want: ';'},
		{name: "empty falls back to semicolon", text: "", want: ';'},
		{name: "no delimiter falls back to semicolon", text: "justonecolumn\n", want: ';'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SniffDelimiter(tt.text); got != tt.want {
				t.Errorf("SniffDelimiter = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveErrorURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		foundOn  string
		errorURL string
		want     string
	}{
		{
			name:     "absolute URL unchanged",
			foundOn:  "https://a.example/page/",
			errorURL: "https://other.example/x",
			want:     "https://other.example/x",
		},
		{
			name:     "relative against parent",
			foundOn:  "https://a.example/sub/page.html",
			errorURL: "doc.pdf",
			want:     "https://a.example/sub/doc.pdf",
		},
		{
			name:     "rooted path against parent host",
			foundOn:  "https://a.example/sub/page.html",
			errorURL: "/top.pdf",
			want:     "https://a.example/top.pdf",
		},
		{
			name:     "no parent falls back to site",
			foundOn:  "",
			errorURL: "/file.pdf",
			want:     "https://example.bcsdk12.net/file.pdf",
		},
		{
			name:     "unparsable reference passes through",
			foundOn:  "https://a.example/",
			errorURL: "http://bad url with spaces\x7f%zz",
			want:     "http://bad url with spaces\x7f%zz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ResolveErrorURL(site, tt.foundOn, tt.errorURL); got != tt.want {
				t.Errorf("ResolveErrorURL = %q, want %q", got, tt.want)
			}
		})
	}
}
