package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const diagram = "@startuml\nclass Circle {\n    +radius: number\n}\n@enduml"

func TestEncodeRoundTrip(t *testing.T) {
	encoded, err := Encode(diagram)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	for _, r := range encoded {
		if !strings.ContainsRune(alphabet, r) {
			t.Fatalf("Encode() produced %q outside the alphabet", r)
		}
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if decoded != diagram {
		t.Errorf("Decode(Encode()) = %q", decoded)
	}

	if _, err := Decode("not base64!"); err == nil {
		t.Error("Decode() accepted invalid input")
	}
}

func TestIsImageExtension(t *testing.T) {
	tests := map[string]bool{
		"svg": true, ".png": true, "TXT": true,
		"puml": false, ".md": false, "": false,
	}
	for ext, want := range tests {
		if got := IsImageExtension(ext); got != want {
			t.Errorf("IsImageExtension(%q) = %v, want %v", ext, got, want)
		}
	}
}

func TestFetch(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if strings.HasPrefix(r.URL.Path, "/plantuml/png/") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("<svg/>"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/plantuml/")
	body, err := client.Fetch(context.Background(), "svg", diagram)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(body) != "<svg/>" {
		t.Errorf("Fetch() = %q", body)
	}

	encoded, _ := Encode(diagram)
	if want := "/plantuml/svg/" + encoded; gotPath != want {
		t.Errorf("requested %q, want %q", gotPath, want)
	}

	if _, err := client.Fetch(context.Background(), "png", diagram); err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("Fetch(png) error = %v, want server error", err)
	}
	if _, err := client.Fetch(context.Background(), "pdf", diagram); err == nil {
		t.Error("Fetch(pdf) succeeded")
	}
}
