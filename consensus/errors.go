package consensus

import "github.com/shabarish009/symbiont/xerrors"

// 错误定义
var (
	// ErrConfigNil 配置为空
	ErrConfigNil = xerrors.New("consensus: config is nil")

	// ErrUnknownModelType 未知的模型类型
	ErrUnknownModelType = xerrors.New("consensus: unknown model type")

	// ErrDuplicateModel 模型 ID 重复注册
	ErrDuplicateModel = xerrors.New("consensus: duplicate model id")

	// ErrInvalidModelConfig 模型配置非法
	ErrInvalidModelConfig = xerrors.New("consensus: invalid model config")
)
