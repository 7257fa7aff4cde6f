package util

import "sync"

// SignalHandler 信号回调，sender 为触发方，params 为附加参数
type SignalHandler func(sender any, params ...any)

// Signals 进程内信号总线，用于模型事件与监听器解耦
type Signals struct {
	mu       sync.RWMutex
	handlers map[string][]SignalHandler
}

var (
	sig     *Signals
	sigOnce sync.Once
)

// Sig 返回全局信号总线
func Sig() *Signals {
	sigOnce.Do(func() {
		sig = &Signals{handlers: make(map[string][]SignalHandler)}
	})
	return sig
}

// Connect 注册信号监听
func (s *Signals) Connect(name string, handler SignalHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = append(s.handlers[name], handler)
}

// Emit 同步触发信号，按注册顺序执行
func (s *Signals) Emit(name string, sender any, params ...any) {
	s.mu.RLock()
	handlers := make([]SignalHandler, len(s.handlers[name]))
	copy(handlers, s.handlers[name])
	s.mu.RUnlock()

	for _, h := range handlers {
		h(sender, params...)
	}
}
