package trigger

import (
	"strings"
	"sync"
	"time"
)

// 键盘检测默认参数
const DefaultKeyTimeout = 2000 * time.Millisecond

// DefaultKeyPattern 默认触发序列
var DefaultKeyPattern = []string{"s", "o", "s"}

// KeyboardDetector 按键序列检测器
//
// 缓存小写按键，间隔超时先清空再追加；每次追加后比较最近 N 个键是否
// 恰好等于目标序列，命中即回调并清空。缓冲超过 10 个键时只保留最近 5 个。
type KeyboardDetector struct {
	mu      sync.Mutex
	pattern []string
	timeout time.Duration
	onMatch func()

	keys     []string
	lastTime time.Time
}

// NewKeyboardDetector 创建检测器，pattern 为空时取默认 s,o,s
func NewKeyboardDetector(pattern []string, timeout time.Duration, onMatch func()) *KeyboardDetector {
	if len(pattern) == 0 {
		pattern = DefaultKeyPattern
	}
	if timeout <= 0 {
		timeout = DefaultKeyTimeout
	}
	lowered := make([]string, len(pattern))
	for i, p := range pattern {
		lowered[i] = strings.ToLower(p)
	}
	return &KeyboardDetector{pattern: lowered, timeout: timeout, onMatch: onMatch}
}

// KeyPress 输入一个按键
func (d *KeyboardDetector) KeyPress(key string, at time.Time) {
	d.mu.Lock()

	// 距上一次按键超时，先清空缓冲
	if !d.lastTime.IsZero() && at.Sub(d.lastTime) > d.timeout {
		d.keys = d.keys[:0]
	}

	d.keys = append(d.keys, strings.ToLower(key))
	d.lastTime = at

	fire := false
	if n := len(d.pattern); len(d.keys) >= n {
		recent := d.keys[len(d.keys)-n:]
		match := true
		for i, p := range d.pattern {
			if recent[i] != p {
				match = false
				break
			}
		}
		if match {
			d.keys = d.keys[:0]
			fire = true
		}
	}

	// 限制缓冲增长
	if len(d.keys) > 10 {
		d.keys = append(d.keys[:0:0], d.keys[len(d.keys)-5:]...)
	}

	d.mu.Unlock()

	if fire && d.onMatch != nil {
		d.onMatch()
	}
}

// Reset 清空按键缓冲
func (d *KeyboardDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys = d.keys[:0]
	d.lastTime = time.Time{}
}
