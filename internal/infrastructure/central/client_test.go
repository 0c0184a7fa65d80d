package central

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fieldwatch/internal/bootstrap/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.CentralConfig{
		BaseURL:   srv.URL,
		Email:     "monitor@example.org",
		Password:  "secret",
		ProjectID: 2,
		Timeout:   5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestLoginStoresToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("login method = %s", r.Method)
		}
		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Errorf("decode credentials: %v", err)
		}
		if creds["email"] != "monitor@example.org" || creds["password"] != "secret" {
			t.Errorf("credentials = %v", creds)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	})

	client := newTestClient(t, mux)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if client.token != "tok-123" {
		t.Fatalf("token = %q", client.token)
	}
}

func TestLoginFailsWithoutToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	})

	client := newTestClient(t, mux)
	if err := client.Login(context.Background()); err == nil {
		t.Fatal("Login() expected error when response has no token")
	}
}

func TestLoginSurfacesHTTPError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	})

	client := newTestClient(t, mux)
	err := client.Login(context.Background())
	if err == nil {
		t.Fatal("Login() expected error")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "bad credentials") {
		t.Fatalf("Login() error = %v, want status and body", err)
	}
}

func TestEntitiesSendsBearerAndDecodesEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-abc"})
	})
	mux.HandleFunc("/v1/projects/2/datasets/problems.svc/Entities", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-abc" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{"value":[
			{"__id":"E1","label":"Pothole","geometry":"1.23 4.56 0","costusd":120,
			 "__system":{"createdAt":"2024-05-03T10:11:12Z","creatorName":"Ana","version":3}},
			{"__id":"E2","savedusd":"N/A"}
		]}`))
	})

	client := newTestClient(t, mux)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	entities, err := client.Entities(context.Background())
	if err != nil {
		t.Fatalf("Entities() error = %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("Entities() len = %d", len(entities))
	}

	first := entities[0]
	if first.ID != "E1" || first.Label == nil || *first.Label != "Pothole" {
		t.Fatalf("first entity = %+v", first)
	}
	if first.CostUSD == nil || *first.CostUSD != "120" {
		t.Fatalf("costusd = %v, want numeric value kept as text", first.CostUSD)
	}
	if first.System == nil || first.System.Version == nil || *first.System.Version != "3" {
		t.Fatalf("system version = %+v", first.System)
	}

	second := entities[1]
	if second.SavedUSD == nil || *second.SavedUSD != "N/A" {
		t.Fatalf("savedusd = %v", second.SavedUSD)
	}
	if second.Label != nil {
		t.Fatalf("absent label should stay nil, got %q", *second.Label)
	}
}

func TestFetchRequiresLogin(t *testing.T) {
	client := newTestClient(t, http.NewServeMux())
	if _, err := client.Entities(context.Background()); err == nil {
		t.Fatal("Entities() expected error before login")
	}
}

func TestAttachmentDownloadsBytes(t *testing.T) {
	payload := []byte{0xff, 0xd8, 0xff, 0xe0, 0x01}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
	})
	mux.HandleFunc("/v1/projects/2/forms/address_problem/submissions/S1/attachments/photo.jpg",
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(payload)
		})

	client := newTestClient(t, mux)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	data, err := client.Attachment(context.Background(), FormAddressProblem, "S1", "photo.jpg")
	if err != nil {
		t.Fatalf("Attachment() error = %v", err)
	}
	if string(data) != string(payload) {
		t.Fatalf("Attachment() = %v, want %v", data, payload)
	}
}

func TestAttachmentEscapesReservedCharactersOnce(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}

	var gotPath, gotEscaped string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/sessions" {
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
			return
		}
		gotPath = r.URL.Path
		gotEscaped = r.URL.EscapedPath()
		_, _ = w.Write(payload)
	})

	client := newTestClient(t, handler)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	data, err := client.Attachment(context.Background(), FormAddressProblem, "uuid:s1", "my photo.jpg")
	if err != nil {
		t.Fatalf("Attachment() error = %v", err)
	}
	if string(data) != string(payload) {
		t.Fatalf("Attachment() = %v, want %v", data, payload)
	}

	wantPath := "/v1/projects/2/forms/address_problem/submissions/uuid:s1/attachments/my photo.jpg"
	if gotPath != wantPath {
		t.Fatalf("server path = %q, want %q", gotPath, wantPath)
	}
	if !strings.HasSuffix(gotEscaped, "/attachments/my%20photo.jpg") {
		t.Fatalf("escaped path = %q, want single-escaped filename", gotEscaped)
	}
}

func TestAttachmentErrorCarriesBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sessions", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "attachment missing", http.StatusNotFound)
	})

	client := newTestClient(t, mux)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	_, err := client.Attachment(context.Background(), FormReportProblem, "S9", "gone.jpg")
	if err == nil {
		t.Fatal("Attachment() expected error")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "attachment missing") {
		t.Fatalf("Attachment() error = %v", err)
	}
}

func TestReadBodyForErrorMarksOnlyRealTruncation(t *testing.T) {
	exact := strings.Repeat("a", maxErrorBodySize)
	if got := string(readBodyForError(strings.NewReader(exact))); got != exact {
		t.Fatalf("body at the cap should pass through untouched, got len %d with suffix %q", len(got), got[len(got)-20:])
	}

	over := exact + "bbb"
	got := string(readBodyForError(strings.NewReader(over)))
	if !strings.HasSuffix(got, "... (truncated)") {
		t.Fatalf("oversized body should carry the truncation marker, got suffix %q", got[len(got)-20:])
	}
	if len(got) != maxErrorBodySize+len("... (truncated)") {
		t.Fatalf("truncated body len = %d", len(got))
	}
}

func TestFlexStringVariants(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want FlexString
	}{
		{"string", `"12.50"`, "12.50"},
		{"integer", `120`, "120"},
		{"float", `12.5`, "12.5"},
		{"null", `null`, ""},
		{"bool", `true`, "true"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var f FlexString
			if err := json.Unmarshal([]byte(tc.raw), &f); err != nil {
				t.Fatalf("unmarshal %s: %v", tc.raw, err)
			}
			if f != tc.want {
				t.Fatalf("FlexString(%s) = %q, want %q", tc.raw, f, tc.want)
			}
		})
	}

	var f FlexString
	if err := json.Unmarshal([]byte(`[1]`), &f); err == nil {
		t.Fatal("expected error for array value")
	}
}
