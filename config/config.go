// Package config 为 symbiont 提供统一的配置加载能力。
// 基于 Viper 实现，支持多源配置加载与热更新。
//
// 特性：
//   - 多源配置：YAML/JSON 文件、环境变量、.env 文件
//   - 配置优先级：环境变量 > .env > 配置文件
//   - 热更新：监听配置文件变化并通知订阅方
//
// 基本使用：
//
//	loader, err := config.Load(
//	    config.WithConfigName("symbiont"),
//	    config.WithConfigPaths("./config"),
//	)
//	if err != nil {
//	    panic(err)
//	}
//
//	var cfg consensus.Config
//	if err := loader.UnmarshalKey("consensus", &cfg); err != nil {
//	    panic(err)
//	}
package config

import (
	"context"
	"time"
)

// Loader 定义配置加载器的核心行为
type Loader interface {
	// Get 获取原始配置值
	Get(key string) any

	// Unmarshal 将整个配置反序列化到结构体
	Unmarshal(v any) error

	// UnmarshalKey 将指定 key 的配置反序列化到结构体
	UnmarshalKey(key string, v any) error

	// Watch 监听配置变化，通过 context 取消监听
	Watch(ctx context.Context, key string) (<-chan Event, error)
}

// Event 配置变更事件
type Event struct {
	Key       string
	Value     any
	OldValue  any
	Timestamp time.Time
}

// Load 创建并加载配置
//
// 加载顺序（低优先级先加载）：配置文件 → .env 文件 → 环境变量。
// 找不到配置文件不是错误，此时配置完全来自环境变量。
func Load(opts ...Option) (Loader, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	l := newLoader(o)
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}
