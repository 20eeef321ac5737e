package browser

import "testing"

func TestSiteName(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "simple domain",
			url:  "https://www.nwt.se/artikel/123",
			want: "nwt",
		},
		{
			name: "no www prefix",
			url:  "https://corren.se/nyheter",
			want: "corren",
		},
		{
			name: "uppercase host",
			url:  "https://WWW.NT.SE/sport",
			want: "nt",
		},
		{
			name: "subdomain keeps leftmost label",
			url:  "https://news.example.com/a",
			want: "news",
		},
		{
			name: "host with port",
			url:  "http://localhost:8080/page",
			want: "localhost",
		},
		{
			name: "bare host no path",
			url:  "https://www.kuriren.se",
			want: "kuriren",
		},
		{
			name: "unparseable url",
			url:  "://not a url",
			want: "",
		},
		{
			name: "empty string",
			url:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SiteName(tt.url); got != tt.want {
				t.Errorf("SiteName(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
