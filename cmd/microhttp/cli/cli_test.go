package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/microhttp/dispatch"
	apperrors "github.com/kbukum/microhttp/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeConfig(t *testing.T, baseURL, extra string) string {
	t.Helper()
	return writeFile(t, "config.yml", fmt.Sprintf("name: microhttp\nhttp:\n  default:\n    base_url: %s\n%s", baseURL, extra))
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--log-level", "disabled"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGetCommand(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		switch r.URL.Path {
		case "/users/1", "/api/ping":
			_, _ = io.WriteString(w, `{"id":1}`)
		default:
			http.Error(w, "missing", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := writeConfig(t, srv.URL, "  clients:\n    api:\n      base_url: "+srv.URL+"/api/\n")

	t.Run("prints body with headers and request id", func(t *testing.T) {
		out, err := runCLI(t, "get", "/users/1", "--config", cfg, "-H", "X-Tenant=acme")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if out != "{\"id\":1}\n" {
			t.Errorf("expected body, got %q", out)
		}
		if got.Header.Get("X-Tenant") != "acme" {
			t.Errorf("expected X-Tenant acme, got %q", got.Header.Get("X-Tenant"))
		}
		if got.Header.Get(dispatch.HeaderRequestID) == "" {
			t.Error("expected a request id header")
		}
	})

	t.Run("named client", func(t *testing.T) {
		if _, err := runCLI(t, "get", "ping", "--config", cfg, "--client", "api"); err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.URL.Path != "/api/ping" {
			t.Errorf("expected /api/ping, got %s", got.URL.Path)
		}
	})

	t.Run("status error", func(t *testing.T) {
		_, err := runCLI(t, "get", "/nope", "--config", cfg)
		if dispatch.StatusCode(err) != http.StatusNotFound {
			t.Fatalf("expected 404 status error, got %v", err)
		}
		var buf bytes.Buffer
		renderError(&buf, err)
		if !strings.Contains(buf.String(), `"UPSTREAM_STATUS"`) {
			t.Errorf("expected rendered upstream status, got %s", buf.String())
		}
	})

	t.Run("unknown client", func(t *testing.T) {
		_, err := runCLI(t, "get", "/users/1", "--config", cfg, "--client", "missing")
		if !dispatch.IsTransport(err) {
			t.Errorf("expected transport error, got %v", err)
		}
	})

	t.Run("bad header flag", func(t *testing.T) {
		if _, err := runCLI(t, "get", "/users/1", "--config", cfg, "-H", "novalue"); err == nil {
			t.Error("expected error for malformed header")
		}
	})
}

func TestSendCommand(t *testing.T) {
	var (
		method      string
		body        []byte
		contentType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()
	cfg := writeConfig(t, srv.URL, "")

	tests := []struct {
		name       string
		args       []string
		wantMethod string
		wantOut    string
		wantErr    bool
	}{
		{"post json", []string{"send", "post", "/users", "--data", `{"name":"ada"}`}, http.MethodPost, "{\"name\":\"ada\"}\n", false},
		{"put lower case", []string{"send", "put", "/users/1", "-d", `{"name":"bob"}`}, http.MethodPut, "{\"name\":\"bob\"}\n", false},
		{"delete no content", []string{"send", "DELETE", "/users/1"}, http.MethodDelete, "", false},
		{"get with data", []string{"send", "get", "/users", "-d", `{}`}, "", "", true},
		{"unknown verb", []string{"send", "trace", "/users"}, "", "", true},
		{"invalid json", []string{"send", "post", "/users", "-d", `{`}, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method = ""
			out, err := runCLI(t, append(tt.args, "--config", cfg)...)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if method != "" {
					t.Errorf("expected nothing sent, got %s", method)
				}
				return
			}
			if err != nil {
				t.Fatalf("send failed: %v", err)
			}
			if method != tt.wantMethod {
				t.Errorf("expected %s, got %s", tt.wantMethod, method)
			}
			if out != tt.wantOut {
				t.Errorf("expected output %q, got %q", tt.wantOut, out)
			}
			if len(body) > 0 && contentType != "application/json" {
				t.Errorf("expected application/json, got %q", contentType)
			}
		})
	}
}

func TestStreamCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := range 3 {
			_, _ = fmt.Fprintf(w, "line %d\n", i)
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	out, err := runCLI(t, "stream", "/export", "--config", writeConfig(t, srv.URL, ""))
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if out != "line 0\nline 1\nline 2\n" {
		t.Errorf("unexpected stream output %q", out)
	}
}

func TestUploadCommand(t *testing.T) {
	var (
		fileName, fileBody, owner string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("document")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		fileName, fileBody, owner = hdr.Filename, string(data), r.FormValue("owner")
		_, _ = io.WriteString(w, `{"stored":true}`)
	}))
	defer srv.Close()

	path := writeFile(t, "report.txt", "quarterly numbers")
	out, err := runCLI(t, "upload", "/documents", path, "--field", "document", "-F", "owner=ada", "--config", writeConfig(t, srv.URL, ""))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if out != "{\"stored\":true}\n" {
		t.Errorf("unexpected output %q", out)
	}
	if fileName != "report.txt" || fileBody != "quarterly numbers" {
		t.Errorf("unexpected file %q with %q", fileName, fileBody)
	}
	if owner != "ada" {
		t.Errorf("expected owner ada, got %q", owner)
	}

	if _, err := runCLI(t, "upload", "/documents", filepath.Join(t.TempDir(), "missing.txt"), "--config", writeConfig(t, srv.URL, "")); err == nil {
		t.Error("expected error for missing file")
	}
}

type report struct {
	Size      int `json:"size"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Items     []struct {
		Index  int             `json:"index"`
		Method string          `json:"method"`
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code string `json:"code"`
		} `json:"error"`
	} `json:"items"`
}

func TestBatchCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/1":
			_, _ = io.WriteString(w, `{"id":1}`)
		case "/text":
			_, _ = io.WriteString(w, "plain")
		case "/users":
			if r.Header.Get("X-Tenant") != "acme" {
				http.Error(w, "tenant", http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = io.Copy(w, r.Body)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	batchPath := writeFile(t, "batch.yaml", `
items:
  - method: get
    url: /users/1
  - method: get
    url: /text
  - method: post
    url: /users
    headers: {X-Tenant: acme}
    body: {name: ada}
  - method: get
    url: /fail
  - method: trace
    url: /users
  - method: post
    url: /users
  - method: get
`)

	out, err := runCLI(t, "batch", batchPath, "--config", writeConfig(t, srv.URL, "batch:\n  max_concurrency: 2\n"))
	var failed errBatchFailed
	if !errors.As(err, &failed) {
		t.Fatalf("expected batch failure summary, got %v", err)
	}

	var r report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, out)
	}
	if r.Size != 7 || r.Succeeded != 3 || r.Failed != 4 {
		t.Errorf("expected 7/3/4, got %d/%d/%d", r.Size, r.Succeeded, r.Failed)
	}

	wantResults := map[int]string{0: `{"id":1}`, 1: `"plain"`, 2: `{"name":"ada"}`}
	for i, want := range wantResults {
		if r.Items[i].Error != nil {
			t.Errorf("item %d: unexpected error %s", i, r.Items[i].Error.Code)
			continue
		}
		if string(r.Items[i].Result) != want {
			t.Errorf("item %d: expected %s, got %s", i, want, r.Items[i].Result)
		}
	}

	wantCodes := map[int]string{3: "UPSTREAM_STATUS", 4: "UNSUPPORTED_OPERATION", 5: "UNSUPPORTED_OPERATION"}
	for i, want := range wantCodes {
		if r.Items[i].Error == nil || r.Items[i].Error.Code != want {
			t.Errorf("item %d: expected %s, got %+v", i, want, r.Items[i].Error)
		}
	}
	if r.Items[6].Error == nil {
		t.Error("item 6: expected failure for missing url")
	}
	for i, item := range r.Items {
		if item.Index != i {
			t.Errorf("expected index %d, got %d", i, item.Index)
		}
	}
}

func TestBatchCommandBadFile(t *testing.T) {
	if _, err := runCLI(t, "batch", writeFile(t, "bad.yaml", "items: [")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := runCLI(t, "batch", filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected read error")
	}
}

func TestMissingConfigFile(t *testing.T) {
	if _, err := runCLI(t, "get", "http://localhost/x", "--config", filepath.Join(t.TempDir(), "none.yml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestParsePairs(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{"empty", nil, map[string]string{}, false},
		{"pairs", []string{"a=1", "b=x=y"}, map[string]string{"a": "1", "b": "x=y"}, false},
		{"empty value", []string{"a="}, map[string]string{"a": ""}, false},
		{"no separator", []string{"a"}, nil, true},
		{"empty key", []string{"=1"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePairs("header", tt.pairs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("expected %s=%q, got %q", k, v, got[k])
				}
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad base url", func(c *Config) { c.HTTP.Default.BaseURL = "not a url" }, "base_url"},
		{"bad naming", func(c *Config) { c.Codec.NamingName = "kebab" }, "codec"},
		{"negative concurrency", func(c *Config) { c.Batch.MaxConcurrency = -1 }, "max_concurrency"},
		{"bad sample rate", func(c *Config) { c.Observability.SampleRate = 2 }, "sample_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRenderError(t *testing.T) {
	var buf bytes.Buffer
	renderError(&buf, errors.New("bad flag"))
	if buf.String() != "Error: bad flag\n" {
		t.Errorf("unexpected plain rendering %q", buf.String())
	}

	buf.Reset()
	renderError(&buf, fmt.Errorf("batch item: %w", apperrors.Unsupported("batch item", "unsupported verb")))
	var resp apperrors.ErrorResponse
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("expected JSON error response, got %q", buf.String())
	}
	if resp.Error.Code != apperrors.ErrCodeUnsupported {
		t.Errorf("expected %s, got %s", apperrors.ErrCodeUnsupported, resp.Error.Code)
	}
}
