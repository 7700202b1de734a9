package state

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"spritec/common"
	"spritec/config"
	"spritec/transform"
)

func TestEnvFromContext(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	if env.start.IsZero() {
		t.Error("start time is not set")
	}
	if env.Cfg != nil || env.Log != nil || env.Rpt != nil {
		t.Errorf("fresh environment is not empty: %+v", env)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for context without environment")
		}
	}()
	EnvFromContext(context.Background())
}

func TestUptime(t *testing.T) {
	env := &LocalEnv{start: time.Now().Add(-time.Minute)}
	if got := env.Uptime(); got < time.Minute || got > 2*time.Minute {
		t.Errorf("Uptime() = %v", got)
	}
}

func TestStdLogRedirection(t *testing.T) {
	var out bytes.Buffer
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()), zapcore.AddSync(&out), zapcore.DebugLevel)

	env := &LocalEnv{Log: zap.New(core)}
	for i := range 2 {
		env.RedirectStdLog()
		log.Printf("redirected %d", i)
		env.RestoreStdLog()
	}
	if got := strings.Count(out.String(), "redirected"); got != 2 {
		t.Errorf("expected 2 redirected lines, got %d:\n%s", got, out.String())
	}

	// no logger, nothing to redirect
	env = &LocalEnv{}
	env.RedirectStdLog()
	if env.restoreStdLog != nil {
		t.Error("redirect installed without logger")
	}
	env.RestoreStdLog()
}

func TestParsersAreShared(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))
	env.Log = zaptest.NewLogger(t)

	mp := env.MarkupParser()
	if mp == nil || mp != env.MarkupParser() {
		t.Error("markup parser is not reused")
	}
	cp := env.CSSParser()
	if cp == nil || cp != env.CSSParser() {
		t.Error("stylesheet parser is not reused")
	}
	if _, err := cp.Parse([]byte(".a { color: red; }"), "a.css"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTranslateOptions(t *testing.T) {
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	env := &LocalEnv{Cfg: cfg, Log: zaptest.NewLogger(t), start: time.Now()}
	if env.Resolver() == nil {
		t.Error("Resolver() returned nil")
	}

	src := []byte(`<div data-component="Card"></div>`)
	res, err := transform.Source(src, common.FrameworkReact, env.MarkupParser(), env.TranslateOptions("sprite.html")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first, _, _ := strings.Cut(res.Code, "\n"); !strings.Contains(first, "from sprite.html. DO NOT EDIT.") {
		t.Errorf("configured banner is missing: %q", first)
	}

	cfg.Translate.Banner = ""
	res, err = transform.Source(src, common.FrameworkReact, env.MarkupParser(), env.TranslateOptions("sprite.html")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(res.Code, "import * as React") {
		t.Errorf("unexpected header: %q", res.Code)
	}
}
