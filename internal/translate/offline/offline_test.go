package offline_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"vprepair/internal/domain"
	"vprepair/internal/translate"
	"vprepair/internal/translate/offline"
)

func writePackage(t *testing.T, root, name, manifest string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "package.yml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	for n, body := range files {
		if err := os.WriteFile(filepath.Join(dir, n), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPhrasebookPivotPackages(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "de-en", "from: de\nto: en\nengine: phrasebook\n", map[string]string{
		"phrases.yml": "der motor: the engine\nist: is\nkaputt: broken\n",
	})
	writePackage(t, root, "en-da", "from: en\nto: da\nengine: phrasebook\n", map[string]string{
		"phrases.yml": "the engine is broken: motoren er i stykker\n",
	})
	p := offline.New(root, "")
	ctx := context.Background()

	en, err := p.Translate(ctx, "Der Motor ist kaputt.", domain.German, domain.English)
	if err != nil {
		t.Fatalf("de->en: %v", err)
	}
	if en != "the engine is broken." {
		t.Fatalf("de->en = %q", en)
	}
	da, err := p.Translate(ctx, "The engine is broken.", domain.English, domain.Danish)
	if err != nil {
		t.Fatalf("en->da: %v", err)
	}
	if da != "motoren er i stykker." {
		t.Fatalf("en->da = %q", da)
	}

	res := translate.NewRouter(domain.English, nil, p).Translate(ctx, "Der Motor ist kaputt", domain.German, domain.Danish)
	if res.Outcome != translate.OutcomeTranslated || res.Text != "motoren er i stykker" {
		t.Fatalf("router result %+v", res)
	}
}

func TestMissingPairIsModelUnavailable(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "de-en", "from: de\nto: en\nengine: phrasebook\n", map[string]string{"phrases.yml": "ja: yes\n"})
	p := offline.New(root, "")
	_, err := p.Translate(context.Background(), "Tak", domain.Polish, domain.English)
	if !errors.Is(err, translate.ErrModelUnavailable) {
		t.Fatalf("expected model unavailable, got %v", err)
	}
	_, err = offline.New(filepath.Join(root, "absent"), "").Translate(context.Background(), "ja", domain.German, domain.English)
	if !errors.Is(err, translate.ErrModelUnavailable) {
		t.Fatalf("missing dir: expected model unavailable, got %v", err)
	}
}

func TestPackagesDiscoveredAtCallTime(t *testing.T) {
	root := t.TempDir()
	p := offline.New(root, "")
	if _, err := p.Translate(context.Background(), "ja", domain.German, domain.English); !errors.Is(err, translate.ErrModelUnavailable) {
		t.Fatalf("expected model unavailable before install, got %v", err)
	}
	writePackage(t, root, "de-en", "from: de\nto: en\nengine: phrasebook\n", map[string]string{"phrases.yml": "ja: yes\n"})
	out, err := p.Translate(context.Background(), "ja", domain.German, domain.English)
	if err != nil || out != "yes" {
		t.Fatalf("after install: %q %v", out, err)
	}
}

func TestPackagesSkipsBrokenManifests(t *testing.T) {
	root := t.TempDir()
	writePackage(t, root, "ok", "from: pl\nto: en\nengine: phrasebook\n", nil)
	writePackage(t, root, "bad-engine", "from: pl\nto: en\nengine: argos\n", nil)
	writePackage(t, root, "bad-lang", "from: xx\nto: en\nengine: phrasebook\n", nil)
	writePackage(t, root, "no-model", "from: en\nto: da\nengine: ollama\n", nil)
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	pkgs, skipped, err := offline.Store{Dir: root}.Packages()
	if err != nil {
		t.Fatalf("packages: %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].Name != "ok" || pkgs[0].Phrases != "phrases.yml" {
		t.Fatalf("unexpected packages %+v", pkgs)
	}
	if len(skipped) != 3 {
		t.Fatalf("expected 3 skipped, got %v", skipped)
	}
	pairs, err := offline.New(root, "").Pairs(context.Background())
	if err != nil || len(pairs) != 1 || pairs[0].Source != domain.Polish {
		t.Fatalf("pairs: %+v %v", pairs, err)
	}
}

func TestOllamaEngine(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		var body struct {
			Model  string `json:"model"`
			Format string `json:"format"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = body.Model
		if body.Format != "json" || body.Stream {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"{\"translation\":\"Motoren er i stykker\"}"}}`))
	}))
	defer srv.Close()

	root := t.TempDir()
	writePackage(t, root, "en-da", "from: en\nto: da\nengine: ollama\nmodel: llama3.1\n", nil)
	p := offline.New(root, srv.URL)
	out, err := p.Translate(context.Background(), "The engine is broken", domain.English, domain.Danish)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if out != "Motoren er i stykker" || gotModel != "llama3.1" {
		t.Fatalf("out=%q model=%q", out, gotModel)
	}
}

func TestOllamaUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	root := t.TempDir()
	writePackage(t, root, "en-da", "from: en\nto: da\nengine: ollama\nmodel: llama3.1\n", nil)
	_, err := offline.New(root, url).Translate(context.Background(), "hello", domain.English, domain.Danish)
	if !errors.Is(err, translate.ErrServiceUnreachable) {
		t.Fatalf("expected unreachable, got %v", err)
	}
}

func TestPhrasebookKeepsUnknownWords(t *testing.T) {
	pb := offline.NewPhrasebook(map[string]string{"hydraulic pump": "hydraulikpumpe", "leaks": "lækker"})
	if got := pb.Translate("Hydraulic pump X200 leaks!"); got != "hydraulikpumpe X200 lækker!" {
		t.Fatalf("got %q", got)
	}
}
