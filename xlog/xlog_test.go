package xlog

import (
	"bytes"
	"strings"
	"testing"
)

// TestNewDefaultConfig 测试 nil 配置走默认值
func TestNewDefaultConfig(t *testing.T) {
	logger, err := New(nil)
	if err != nil {
		t.Fatalf("New(nil) should not fail, got: %v", err)
	}
	if logger == nil {
		t.Fatal("New(nil) should return a logger")
	}
}

// TestNewInvalidLevel 测试非法级别
func TestNewInvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "verbose"})
	if err == nil {
		t.Fatal("invalid level should return error")
	}
}

// TestNewInvalidFormat 测试非法格式
func TestNewInvalidFormat(t *testing.T) {
	_, err := New(&Config{Format: "xml"})
	if err == nil {
		t.Fatal("invalid format should return error")
	}
}

// TestLogOutput 测试字段与消息写入
func TestLogOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&Config{Level: "debug", Format: "json"}, WithWriter(&buf))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("query dispatched", String("model_id", "mock-1"), Int("candidates", 3))

	out := buf.String()
	if !strings.Contains(out, "query dispatched") {
		t.Errorf("output missing message: %s", out)
	}
	if !strings.Contains(out, "mock-1") {
		t.Errorf("output missing field value: %s", out)
	}
}

// TestLevelFilter 测试级别过滤
func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(&Config{Level: "warn", Format: "console"}, WithWriter(&buf))

	logger.Debug("should not appear")
	logger.Info("should not appear either")
	logger.Warn("visible warning")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("low-level logs leaked: %s", out)
	}
	if !strings.Contains(out, "visible warning") {
		t.Errorf("warn log missing: %s", out)
	}
}

// TestWithNamespace 测试命名空间级联
func TestWithNamespace(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(&Config{Level: "info", Format: "json"}, WithWriter(&buf), WithNamespace("symbiont"))

	child := logger.WithNamespace("consensus", "executor")
	child.Info("hello")

	if !strings.Contains(buf.String(), "symbiont.consensus.executor") {
		t.Errorf("namespace not joined: %s", buf.String())
	}
}

// TestWithFields 测试预设字段
func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(&Config{Level: "info", Format: "json"}, WithWriter(&buf))

	child := logger.With(String("model_id", "mock-2"))
	child.Info("scored")

	if !strings.Contains(buf.String(), "mock-2") {
		t.Errorf("preset field missing: %s", buf.String())
	}
}

// TestDiscard 测试静默 Logger
func TestDiscard(t *testing.T) {
	logger := Discard()
	// 所有调用都不应 panic
	logger.Debug("a")
	logger.Info("b", String("k", "v"))
	logger.Warn("c")
	logger.Error("d", Error(nil))
	logger.With(String("k", "v")).WithNamespace("x").Info("e")
}
